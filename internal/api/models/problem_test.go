package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/api/models"
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
	assert.Empty(t, p.Detail)
	assert.Empty(t, p.Instance)
	assert.Nil(t, p.Errors)
}

func TestProblem_Builders(t *testing.T) {
	p := models.NewProblem(models.ProblemTypeValidation, "Validation error", http.StatusBadRequest, "req_1").
		WithDetail("city is too long").
		WithInstance("/weather").
		WithErrors([]models.FieldError{{Field: "city", Message: "must be at most 100 characters", Code: "max"}})

	assert.Equal(t, "city is too long", p.Detail)
	assert.Equal(t, "/weather", p.Instance)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "city", p.Errors[0].Field)
	assert.Equal(t, "max", p.Errors[0].Code)
}

func TestProblem_Write(t *testing.T) {
	p := models.NewBadRequest("req_test123", "invalid input", []models.FieldError{
		{Field: "city", Message: "required"},
	})
	p.Instance = "/weather/summary"

	w := httptest.NewRecorder()
	p.Write(w)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Equal(t, "req_test123", w.Header().Get("X-Request-Id"))

	var result models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	assert.Equal(t, models.ProblemTypeValidation, result.Type)
	assert.Equal(t, http.StatusBadRequest, result.Status)
	assert.Equal(t, "invalid input", result.Detail)
	assert.Equal(t, "/weather/summary", result.Instance)
	assert.Equal(t, "req_test123", result.TraceID)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "city", result.Errors[0].Field)
}

func TestProblem_WriteWithoutTraceID(t *testing.T) {
	w := httptest.NewRecorder()
	models.NewInternalError("", "boom").Write(w)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Header().Get("X-Request-Id"))
}

func TestProblemConstructors(t *testing.T) {
	tests := []struct {
		name    string
		problem *models.Problem
		typ     string
		title   string
		status  int
	}{
		{"bad request", models.NewBadRequest("req_123", "d", nil), models.ProblemTypeValidation, "Validation error", http.StatusBadRequest},
		{"city not found", models.NewCityNotFound("req_123", "d"), models.ProblemTypeCityNotFound, "City not found", http.StatusNotFound},
		{"too many requests", models.NewTooManyRequests("req_123", "d"), models.ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests},
		{"internal", models.NewInternalError("req_123", "d"), models.ProblemTypeInternal, "Internal server error", http.StatusInternalServerError},
		{"misconfigured", models.NewMisconfigured("req_123", "d"), models.ProblemTypeMisconfigured, "Weather provider misconfigured", http.StatusServiceUnavailable},
		{"bad gateway", models.NewBadGateway("req_123", "d"), models.ProblemTypeUpstream, "Weather provider unavailable", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.problem.Type)
			assert.Equal(t, tt.title, tt.problem.Title)
			assert.Equal(t, tt.status, tt.problem.Status)
			assert.Equal(t, "d", tt.problem.Detail)
			assert.Equal(t, "req_123", tt.problem.TraceID)
		})
	}
}

func TestNewTLSRequired(t *testing.T) {
	p := models.NewTLSRequired("req_123")

	assert.Equal(t, models.ProblemTypeTLSRequired, p.Type)
	assert.Equal(t, http.StatusForbidden, p.Status)
	assert.Equal(t, "This endpoint requires HTTPS", p.Detail)
}
