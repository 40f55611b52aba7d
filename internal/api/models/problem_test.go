package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twostepahead/twostepahead/internal/api/models"
)

func TestProblem_NewProblem(t *testing.T) {
	p := models.NewProblem(
		models.ProblemTypeValidation,
		"Validation error",
		http.StatusBadRequest,
		"req_test123",
	)

	assert.Equal(t, models.ProblemTypeValidation, p.Type)
	assert.Equal(t, "Validation error", p.Title)
	assert.Equal(t, http.StatusBadRequest, p.Status)
	assert.Equal(t, "req_test123", p.TraceID)
	assert.Equal(t, "Validation error", p.Error)
	assert.Empty(t, p.Detail)
	assert.Empty(t, p.Instance)
	assert.Nil(t, p.Errors)
}

func TestProblem_WithDetail(t *testing.T) {
	p := models.NewProblem(
		models.ProblemTypeValidation,
		"Validation error",
		http.StatusBadRequest,
		"req_test123",
	).WithDetail("latitude must be between -90 and 90")

	assert.Equal(t, "latitude must be between -90 and 90", p.Detail)
	assert.Equal(t, "latitude must be between -90 and 90", p.Error)
}

func TestProblem_WithInstance(t *testing.T) {
	p := models.NewProblem(
		models.ProblemTypeValidation,
		"Validation error",
		http.StatusBadRequest,
		"req_test123",
	).WithInstance("/api/get_weather")

	assert.Equal(t, "/api/get_weather", p.Instance)
}

func TestProblem_WithErrors(t *testing.T) {
	fieldErrors := []models.FieldError{
		{Field: "latitude", Message: "must be between -90 and 90", Code: "OUT_OF_RANGE"},
		{Field: "date", Message: "required", Code: "REQUIRED"},
	}

	p := models.NewBadRequest("req_test123", "invalid query", fieldErrors)

	require.Len(t, p.Errors, 2)
	assert.Equal(t, "latitude", p.Errors[0].Field)
	assert.Equal(t, "OUT_OF_RANGE", p.Errors[0].Code)
}

func TestProblem_Write(t *testing.T) {
	p := models.NewBadRequest("req_test123", "Missing required parameters", []models.FieldError{
		{Field: "date", Message: "required"},
	})
	p.Instance = "/api/get_weather"

	w := httptest.NewRecorder()
	p.Write(w)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Equal(t, "req_test123", w.Header().Get("X-Request-Id"))

	var result models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	assert.Equal(t, models.ProblemTypeValidation, result.Type)
	assert.Equal(t, http.StatusBadRequest, result.Status)
	assert.Equal(t, "Missing required parameters", result.Detail)
	assert.Equal(t, "Missing required parameters", result.Error)
	assert.Equal(t, "/api/get_weather", result.Instance)
	require.Len(t, result.Errors, 1)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Contains(t, raw, "error")
}

func TestProblemConstructors(t *testing.T) {
	tests := []struct {
		name    string
		problem *models.Problem
		typ     string
		status  int
	}{
		{"not found", models.NewNotFound("req", "missing"), models.ProblemTypeNotFound, http.StatusNotFound},
		{"no data", models.NewNoData("req", "missing"), models.ProblemTypeNoData, http.StatusNotFound},
		{"too many requests", models.NewTooManyRequests("req", "missing"), models.ProblemTypeTooManyRequests, http.StatusTooManyRequests},
		{"internal", models.NewInternalError("req", "missing"), models.ProblemTypeInternal, http.StatusInternalServerError},
		{"unavailable", models.NewServiceUnavailable("req", "missing"), models.ProblemTypeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.problem.Type)
			assert.Equal(t, tt.status, tt.problem.Status)
			assert.Equal(t, "missing", tt.problem.Detail)
			assert.Equal(t, "missing", tt.problem.Error)
			assert.Equal(t, "req", tt.problem.TraceID)
		})
	}
}
