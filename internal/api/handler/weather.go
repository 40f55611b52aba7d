package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/twostepahead/twostepahead/internal/api/models"
	"github.com/twostepahead/twostepahead/internal/api/response"
	"github.com/twostepahead/twostepahead/internal/weather"
)

// RainfallService aggregates rainfall windows for a location and end time.
type RainfallService interface {
	GetRainfall(ctx context.Context, req weather.Request) (*weather.WindowResult, error)
}

// WeatherHandler handles the rainfall aggregation endpoint.
type WeatherHandler struct {
	service RainfallService
}

// NewWeatherHandler creates a new WeatherHandler.
func NewWeatherHandler(service RainfallService) *WeatherHandler {
	return &WeatherHandler{service: service}
}

// GetWeather handles GET /api/get_weather and GET /weather.
// Query: latitude, longitude, date (YYYY-MM-DD) and optional time (HH:MM, default 23:59).
func (h *WeatherHandler) GetWeather(w http.ResponseWriter, r *http.Request) {
	var query models.WeatherQuery
	if errs := bindQuery(r.URL.Query(), &query); errs != nil {
		detail := "Invalid query parameters"
		if hasMissing(errs) {
			detail = "Missing required parameters"
		}
		response.BadRequest(w, r, detail, errs)
		return
	}

	// Validated above.
	lat, _ := strconv.ParseFloat(query.Latitude, 64)
	lon, _ := strconv.ParseFloat(query.Longitude, 64)

	end, err := weather.ParseEndTime(query.Date, query.Time)
	if err != nil {
		writeWeatherError(w, r, err)
		return
	}

	result, err := h.service.GetRainfall(r.Context(), weather.Request{Lat: lat, Lon: lon, End: end})
	if err != nil {
		writeWeatherError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}

func writeWeatherError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, weather.ErrInvalidInput):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, weather.ErrNoData):
		response.NoData(w, r, err.Error())
	case errors.Is(err, weather.ErrUpstreamUnavailable):
		response.ServiceUnavailable(w, r, "Failed to retrieve weather data from the weather provider.")
	default:
		response.InternalError(w, r, err.Error())
	}
}
