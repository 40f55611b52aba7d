package models

// WeatherQuery is the query string of the rainfall endpoint. Coordinates are
// kept as strings so that presence and format are validated separately.
type WeatherQuery struct {
	Latitude  string `query:"latitude" validate:"required,latitude"`
	Longitude string `query:"longitude" validate:"required,longitude"`
	Date      string `query:"date" validate:"required,datetime=2006-01-02"`
	Time      string `query:"time" validate:"omitempty,datetime=15:04"`
}

// LocationQuery is the query string of the geospatial lookup endpoint.
type LocationQuery struct {
	Lat string `query:"lat" validate:"required,latitude"`
	Lon string `query:"lon" validate:"required,longitude"`
}

// SearchResponse is returned by the location search endpoint.
type SearchResponse[T any] struct {
	Suggestions []T `json:"suggestions"`
}
