package models

import (
	"github.com/skycast/skycast/internal/summary"
	"github.com/skycast/skycast/internal/weather"
)

// WeatherQuery is the validated query of the weather endpoints.
type WeatherQuery struct {
	City    string `validate:"required,max=100"`
	Refresh bool
}

// WeatherSummary is a snapshot with its clothing summary attached.
// The snapshot fields are inlined at the top level of the JSON object.
type WeatherSummary struct {
	*weather.Snapshot
	AISummary summary.Summary `json:"aiSummary"`
}
