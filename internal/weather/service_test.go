package weather_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twostepahead/twostepahead/internal/weather"
)

// mockProvider is a mock weather provider for testing.
type mockProvider struct {
	mu        sync.Mutex
	callCount int
	series    *weather.HourlySeries
	err       error
	panicWith any

	lastStart time.Time
	lastEnd   time.Time
}

func (m *mockProvider) Name() string {
	return "mock"
}

func (m *mockProvider) GetHourly(_ context.Context, lat, lon float64, start, end time.Time) (*weather.HourlySeries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	m.lastStart = start
	m.lastEnd = end

	if m.panicWith != nil {
		panic(m.panicWith)
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.series != nil {
		return m.series, nil
	}

	return &weather.HourlySeries{
		Lat:          lat,
		Lon:          lon,
		Location:     time.UTC,
		Observations: hourlySeries(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 24, constant(1.0)),
	}, nil
}

func (m *mockProvider) getCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

func newTestService(provider weather.Provider) *weather.Service {
	return weather.NewService(weather.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
	})
}

func TestService_GetRainfall(t *testing.T) {
	provider := &mockProvider{}
	service := newTestService(provider)

	end := mustEnd(t, "2024-06-01", "11:00")
	result, err := service.GetRainfall(context.Background(), weather.Request{Lat: 14.6, Lon: 121.0, End: end})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 3.0, result.CumulativeRainfall["3_hr"])
	assert.Equal(t, 12.0, result.CumulativeRainfall["12_hr"])
	assert.Len(t, result.HourlyChartData, 12)
	assert.Equal(t, 1, provider.getCallCount())
}

func TestService_GetRainfall_FetchRange(t *testing.T) {
	provider := &mockProvider{}
	service := newTestService(provider)

	end := mustEnd(t, "2024-06-07", "08:30")
	_, err := service.GetRainfall(context.Background(), weather.Request{Lat: 14.6, Lon: 121.0, End: end})
	require.NoError(t, err)

	assert.Equal(t, end, provider.lastEnd)
	assert.Equal(t, end.AddDate(0, 0, -6), provider.lastStart)
}

func TestService_GetRainfall_ReanchorsInProviderZone(t *testing.T) {
	manila := time.FixedZone("Asia/Manila", 8*60*60)
	provider := &mockProvider{
		series: &weather.HourlySeries{
			Location:     manila,
			Observations: hourlySeries(time.Date(2024, 6, 1, 0, 0, 0, 0, manila), 24, constant(1.0)),
		},
	}
	service := newTestService(provider)

	// 11:00 is local wall-clock time at the location, not UTC.
	result, err := service.GetRainfall(context.Background(), weather.Request{
		Lat: 14.6, Lon: 121.0, End: mustEnd(t, "2024-06-01", "11:00"),
	})
	require.NoError(t, err)

	assert.Equal(t, 12.0, result.CumulativeRainfall["1_day"])
	assert.Equal(t, "11:00", result.HourlyChartData[len(result.HourlyChartData)-1].Hour)
}

func TestService_GetRainfall_ProviderError(t *testing.T) {
	provider := &mockProvider{err: fmt.Errorf("%w: unexpected status code: 500", weather.ErrProviderUnavailable)}
	service := newTestService(provider)

	result, err := service.GetRainfall(context.Background(), weather.Request{
		Lat: 14.6, Lon: 121.0, End: mustEnd(t, "2024-06-01", "11:00"),
	})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, weather.ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, weather.ErrProviderUnavailable)

	var werr *weather.Error
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, weather.KindUpstreamUnavailable, werr.Kind)
	assert.Contains(t, werr.Error(), "500")
}

func TestService_GetRainfall_MalformedResponse(t *testing.T) {
	provider := &mockProvider{err: fmt.Errorf("%w: missing hourly.time", weather.ErrMalformedResponse)}
	service := newTestService(provider)

	_, err := service.GetRainfall(context.Background(), weather.Request{
		Lat: 14.6, Lon: 121.0, End: mustEnd(t, "2024-06-01", "11:00"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrProcessing)
	assert.NotErrorIs(t, err, weather.ErrUpstreamUnavailable)
}

func TestService_GetRainfall_NoData(t *testing.T) {
	provider := &mockProvider{}
	service := newTestService(provider)

	_, err := service.GetRainfall(context.Background(), weather.Request{
		Lat: 14.6, Lon: 121.0, End: mustEnd(t, "2024-05-20", "11:00"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrNoData)
}

func TestService_GetRainfall_PanicBecomesProcessingError(t *testing.T) {
	provider := &mockProvider{panicWith: errors.New("index out of range")}
	service := newTestService(provider)

	result, err := service.GetRainfall(context.Background(), weather.Request{
		Lat: 14.6, Lon: 121.0, End: mustEnd(t, "2024-06-01", "11:00"),
	})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, weather.ErrProcessing)
	assert.Contains(t, err.Error(), "index out of range")
}

func TestService_GetRainfall_MissingEnd(t *testing.T) {
	provider := &mockProvider{}
	service := newTestService(provider)

	_, err := service.GetRainfall(context.Background(), weather.Request{Lat: 14.6, Lon: 121.0})
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrInvalidInput)
	assert.Equal(t, 0, provider.getCallCount())
}

func TestService_GetRainfall_Concurrent(t *testing.T) {
	provider := &mockProvider{}
	service := newTestService(provider)

	var wg sync.WaitGroup
	for hour := 0; hour < 24; hour++ {
		wg.Add(1)
		go func(hour int) {
			defer wg.Done()
			end := time.Date(2024, 6, 1, hour, 0, 0, 0, time.UTC)
			result, err := service.GetRainfall(context.Background(), weather.Request{Lat: 14.6, Lon: 121.0, End: end})
			assert.NoError(t, err)
			if err == nil {
				assert.Equal(t, float64(min(hour+1, 3)), result.CumulativeRainfall["3_hr"])
			}
		}(hour)
	}
	wg.Wait()

	assert.Equal(t, 24, provider.getCallCount())
}

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &weather.Error{Kind: weather.KindNoData, Message: "nothing"})

	assert.ErrorIs(t, err, weather.ErrNoData)
	assert.NotErrorIs(t, err, weather.ErrInvalidInput)
	assert.Equal(t, "wrapped: nothing", err.Error())
	assert.Equal(t, "NO_DATA", weather.ErrNoData.Error())
}
