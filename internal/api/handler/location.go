package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/twostepahead/twostepahead/internal/api/models"
	"github.com/twostepahead/twostepahead/internal/api/response"
	"github.com/twostepahead/twostepahead/internal/geospatial"
)

const locationConfigDetail = "Invalid coordinates or geospatial service URL is not configured."

// LocationDataSource returns site characteristics for a coordinate.
type LocationDataSource interface {
	GetLocationData(ctx context.Context, lat, lon float64) (json.RawMessage, error)
}

// LocationHandler proxies geospatial lookups.
type LocationHandler struct {
	source LocationDataSource
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(source LocationDataSource) *LocationHandler {
	return &LocationHandler{source: source}
}

// GetLocationData handles GET /api/get_location_data?lat&lon.
// The geospatial service's document is returned unchanged.
func (h *LocationHandler) GetLocationData(w http.ResponseWriter, r *http.Request) {
	var query models.LocationQuery
	if errs := bindQuery(r.URL.Query(), &query); errs != nil {
		response.BadRequest(w, r, locationConfigDetail, errs)
		return
	}

	lat, _ := strconv.ParseFloat(query.Lat, 64)
	lon, _ := strconv.ParseFloat(query.Lon, 64)

	data, err := h.source.GetLocationData(r.Context(), lat, lon)
	switch {
	case errors.Is(err, geospatial.ErrNotConfigured):
		response.BadRequest(w, r, locationConfigDetail, nil)
	case err != nil:
		response.ServiceUnavailable(w, r, "Failed to retrieve location data from the geospatial service.")
	default:
		response.RawJSON(w, r, http.StatusOK, data)
	}
}
