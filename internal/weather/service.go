package weather

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Provider defines the interface for hourly weather data providers.
type Provider interface {
	// GetHourly fetches hourly observations for the calendar dates spanned by
	// start and end, inclusive, in the location's local zone.
	GetHourly(ctx context.Context, lat, lon float64, start, end time.Time) (*HourlySeries, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	// Provider is the weather data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service turns provider time series into rainfall window results.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	provider Provider
	logger   zerolog.Logger
}

// NewService creates a new weather service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// GetRainfall fetches the hourly series for the request and aggregates it.
// Every failure is returned as an *Error; a single provider attempt is made.
func (s *Service) GetRainfall(ctx context.Context, req Request) (result *WindowResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Interface("panic", r).
				Float64("lat", req.Lat).
				Float64("lon", req.Lon).
				Msg("panic while processing weather data")
			result = nil
			err = newError(KindProcessing, nil, "error processing weather data: %v", r)
		}
	}()

	if req.End.IsZero() {
		return nil, newError(KindInvalidInput, nil, "end time is required")
	}

	start := req.End.Add(-FetchLookback)

	s.logger.Debug().
		Float64("lat", req.Lat).
		Float64("lon", req.Lon).
		Time("start", start).
		Time("end", req.End).
		Str("provider", s.provider.Name()).
		Msg("fetching hourly weather from provider")

	series, err := s.provider.GetHourly(ctx, req.Lat, req.Lon, start, req.End)
	if err != nil {
		s.logger.Error().Err(err).
			Float64("lat", req.Lat).
			Float64("lon", req.Lon).
			Msg("failed to fetch hourly weather")

		if errors.Is(err, ErrMalformedResponse) {
			return nil, newError(KindProcessing, err, "error processing weather data: %v", err)
		}
		return nil, newError(KindUpstreamUnavailable, err, "weather provider unavailable: %v", err)
	}

	end := inLocation(req.End, series.Location)

	result, err = Aggregate(series.Observations, end)
	if err != nil {
		var aggErr *Error
		if errors.As(err, &aggErr) {
			s.logger.Warn().
				Str("kind", string(aggErr.Kind)).
				Time("end", end).
				Int("observations", len(series.Observations)).
				Msg("rainfall aggregation failed")
			return nil, aggErr
		}
		return nil, newError(KindProcessing, err, "error processing weather data: %v", err)
	}

	return result, nil
}

// inLocation re-anchors the wall clock of t in loc.
func inLocation(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}
