package models

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC7807 error body, sent as application/problem+json.
type Problem struct {
	// Type is a URI reference that identifies the problem type.
	Type string `json:"type"`

	// Title is a short, human-readable summary of the problem type.
	Title string `json:"title"`

	// Status is the HTTP status code for this occurrence of the problem.
	Status int `json:"status"`

	// Detail is a human-readable explanation specific to this occurrence.
	Detail string `json:"detail,omitempty"`

	// Instance is the request path that produced the problem.
	Instance string `json:"instance,omitempty"`

	// TraceID is the request identifier for debugging.
	TraceID string `json:"traceId"`

	// Errors contains structured field validation errors.
	Errors []FieldError `json:"errors,omitempty"`
}

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Problem types.
const (
	ProblemTypeValidation      = "https://skycast.dev/problems/validation-error"
	ProblemTypeCityNotFound    = "https://skycast.dev/problems/city-not-found"
	ProblemTypeTooManyRequests = "https://skycast.dev/problems/too-many-requests"
	ProblemTypeInternal        = "https://skycast.dev/problems/internal-error"
	ProblemTypeMisconfigured   = "https://skycast.dev/problems/provider-misconfigured"
	ProblemTypeUpstream        = "https://skycast.dev/problems/upstream-unavailable"
	ProblemTypeTLSRequired     = "https://skycast.dev/problems/tls-required"
	ProblemTypeRouteNotFound   = "https://skycast.dev/problems/route-not-found"
	ProblemTypeMethod          = "https://skycast.dev/problems/method-not-allowed"
)

// NewProblem creates a new Problem with the given parameters.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	return &Problem{
		Type:    problemType,
		Title:   title,
		Status:  status,
		TraceID: traceID,
	}
}

// WithDetail adds a detail message to the Problem.
func (p *Problem) WithDetail(detail string) *Problem {
	p.Detail = detail
	return p
}

// WithInstance sets the request path.
func (p *Problem) WithInstance(instance string) *Problem {
	p.Instance = instance
	return p
}

// WithErrors adds field errors to the Problem.
func (p *Problem) WithErrors(errors []FieldError) *Problem {
	p.Errors = errors
	return p
}

// Write writes the Problem as JSON to the ResponseWriter.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		w.Header().Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NewBadRequest creates a 400 Bad Request problem.
func NewBadRequest(traceID, detail string, errors []FieldError) *Problem {
	p := NewProblem(ProblemTypeValidation, "Validation error", http.StatusBadRequest, traceID)
	p.Detail = detail
	p.Errors = errors
	return p
}

// NewCityNotFound creates a 404 problem for a city no resolver could match.
func NewCityNotFound(traceID, detail string) *Problem {
	p := NewProblem(ProblemTypeCityNotFound, "City not found", http.StatusNotFound, traceID)
	p.Detail = detail
	return p
}

// NewTooManyRequests creates a 429 Too Many Requests problem.
func NewTooManyRequests(traceID, detail string) *Problem {
	p := NewProblem(ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests, traceID)
	p.Detail = detail
	return p
}

// NewInternalError creates a 500 Internal Server Error problem.
func NewInternalError(traceID, detail string) *Problem {
	p := NewProblem(ProblemTypeInternal, "Internal server error", http.StatusInternalServerError, traceID)
	p.Detail = detail
	return p
}

// NewMisconfigured creates a 503 problem for a provider missing its credentials.
func NewMisconfigured(traceID, detail string) *Problem {
	p := NewProblem(ProblemTypeMisconfigured, "Weather provider misconfigured", http.StatusServiceUnavailable, traceID)
	p.Detail = detail
	return p
}

// NewBadGateway creates a 502 problem for failing or malformed upstreams.
func NewBadGateway(traceID, detail string) *Problem {
	p := NewProblem(ProblemTypeUpstream, "Weather provider unavailable", http.StatusBadGateway, traceID)
	p.Detail = detail
	return p
}

// NewTLSRequired creates a 403 problem for plain-HTTP requests when TLS is enforced.
func NewTLSRequired(traceID string) *Problem {
	p := NewProblem(ProblemTypeTLSRequired, "TLS required", http.StatusForbidden, traceID)
	p.Detail = "This endpoint requires HTTPS"
	return p
}

// NewRouteNotFound creates a 404 problem for an unknown endpoint.
func NewRouteNotFound(traceID string) *Problem {
	p := NewProblem(ProblemTypeRouteNotFound, "Not found", http.StatusNotFound, traceID)
	p.Detail = "no such endpoint"
	return p
}

// NewMethodNotAllowed creates a 405 problem.
func NewMethodNotAllowed(traceID, method string) *Problem {
	p := NewProblem(ProblemTypeMethod, "Method not allowed", http.StatusMethodNotAllowed, traceID)
	p.Detail = method + " is not supported on this endpoint"
	return p
}
