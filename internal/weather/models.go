package weather

import (
	"errors"
	"time"
)

// Provider errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrMalformedResponse   = errors.New("malformed weather provider response")
)

// HourlyObservation is a single hourly reading from the weather provider.
// Missing provider values are normalised to 0 when the response is decoded.
type HourlyObservation struct {
	Time time.Time

	// Precipitation over the hour, in the unit requested from the provider.
	Precipitation float64

	// SoilMoisture at 27-81cm depth, in the provider's unit.
	SoilMoisture float64
}

// HourlySeries is the provider's hourly time series for one location,
// ordered by Time ascending with one entry per hour.
type HourlySeries struct {
	Lat float64
	Lon float64

	// Location is the provider-reported zone for the wall-clock timestamps.
	Location *time.Location

	Observations []HourlyObservation
}

// Request identifies one rainfall aggregation.
type Request struct {
	Lat float64
	Lon float64

	// End is the wall-clock instant treated as "now" for every look-back window.
	End time.Time
}

// Window is a named look-back duration.
type Window struct {
	Label string
	Hours int
}

// Windows are the fixed look-back windows, shortest first.
var Windows = []Window{
	{Label: "3_hr", Hours: 3},
	{Label: "6_hr", Hours: 6},
	{Label: "12_hr", Hours: 12},
	{Label: "1_day", Hours: 24},
	{Label: "3_day", Hours: 72},
	{Label: "5_day", Hours: 120},
}

// HourlyPoint is one point of the hourly chart series.
type HourlyPoint struct {
	Hour       string  `json:"hour"`
	Cumulative float64 `json:"cumulative"`
	Intensity  float64 `json:"intensity"`
}

// DailyPoint is one point of the daily chart series.
type DailyPoint struct {
	Date       string  `json:"date"`
	Cumulative float64 `json:"cumulative"`
	Intensity  float64 `json:"intensity"`
}

// WindowResult is the aggregated rainfall picture for one request.
type WindowResult struct {
	SoilMoisture       float64            `json:"soil_moisture"`
	CumulativeRainfall map[string]float64 `json:"cumulative_rainfall"`
	RainIntensity      map[string]float64 `json:"rain_intensity"`
	HourlyChartData    []HourlyPoint      `json:"hourly_chart_data"`
	DailyChartData     []DailyPoint       `json:"daily_chart_data"`
}
