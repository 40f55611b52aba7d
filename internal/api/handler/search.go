package handler

import (
	"context"
	"net/http"

	"github.com/twostepahead/twostepahead/internal/api/models"
	"github.com/twostepahead/twostepahead/internal/api/response"
	"github.com/twostepahead/twostepahead/internal/geocoding/nominatim"
)

// LocationSearcher resolves free-text place names.
type LocationSearcher interface {
	Search(ctx context.Context, query string) ([]nominatim.Location, error)
}

// SearchHandler handles location search suggestions.
type SearchHandler struct {
	searcher LocationSearcher
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searcher LocationSearcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

// SearchLocations handles GET /api/search_locations?query=.
// Queries shorter than nominatim.MinQueryLength return no suggestions.
func (h *SearchHandler) SearchLocations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		response.BadRequest(w, r, "Missing query parameter", []models.FieldError{
			{Field: "query", Message: "query is required", Code: "required"},
		})
		return
	}

	locations, err := h.searcher.Search(r.Context(), query)
	if err != nil {
		response.ServiceUnavailable(w, r, "Failed to fetch location data from Nominatim")
		return
	}
	if locations == nil {
		locations = []nominatim.Location{}
	}

	response.JSON(w, r, http.StatusOK, models.SearchResponse[nominatim.Location]{Suggestions: locations})
}
