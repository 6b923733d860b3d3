package summary_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/summary"
	"github.com/skycast/skycast/internal/weather"
)

func snapshot(temp float64, code *int, cond weather.Condition) *weather.Snapshot {
	return &weather.Snapshot{
		Location: weather.Location{Name: "חיפה", Country: "ישראל"},
		Current: weather.CurrentConditions{
			Temperature: temp,
			WindSpeed:   12.5,
			WeatherCode: code,
			Description: "מעונן חלקית",
			Condition:   cond,
		},
		Daily: []weather.DailyForecast{
			{Date: "2025-03-10", MaxTemp: 24, MinTemp: 14.5, Description: "מעונן חלקית"},
			{Date: "2025-03-11", MaxTemp: 19, MinTemp: 12, Description: "גשם קל"},
		},
	}
}

// mockCompleter is a scripted Completer.
type mockCompleter struct {
	mu      sync.Mutex
	content string
	err     error
	prompts []string
}

func (m *mockCompleter) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	return m.content, m.err
}

func (m *mockCompleter) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

type recorder struct {
	sources []string
}

func (r *recorder) RecordSummary(source string, _ time.Duration) {
	r.sources = append(r.sources, source)
}

func TestClothing_Priority(t *testing.T) {
	tests := []struct {
		name     string
		temp     float64
		code     *int
		cond     weather.Condition
		expected string
	}{
		{"rain beats heat", 35, weather.Int(61), weather.ConditionRain, summary.ClothingRainy},
		{"drizzle code", 10, weather.Int(51), weather.ConditionDrizzle, summary.ClothingRainy},
		{"showers code", 20, weather.Int(80), weather.ConditionRain, summary.ClothingRainy},
		{"phrase rain without code", 20, nil, weather.ConditionRain, summary.ClothingRainy},
		{"hot", 30, weather.Int(0), weather.ConditionClear, summary.ClothingHot},
		{"exactly 28 is not hot", 28, weather.Int(0), weather.ConditionClear, summary.ClothingNeutral},
		{"cold", 10, weather.Int(3), weather.ConditionClouds, summary.ClothingCold},
		{"exactly 15 is not cold", 15, weather.Int(3), weather.ConditionClouds, summary.ClothingNeutral},
		{"snow is cold, not rain", 0, weather.Int(71), weather.ConditionSnow, summary.ClothingCold},
		{"neutral", 22, weather.Int(2), weather.ConditionClouds, summary.ClothingNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur := weather.CurrentConditions{Temperature: tt.temp, WeatherCode: tt.code, Condition: tt.cond}
			assert.Equal(t, tt.expected, summary.Clothing(&cur))
		})
	}
}

func TestFallback(t *testing.T) {
	s := summary.Fallback(snapshot(22.5, weather.Int(2), weather.ConditionClouds))

	assert.Equal(t, "כיום בחיפה מעונן חלקית עם 22.5°C. הטמפרטורות ינועו בין 14.5° ל-24°.", s.Today)
	assert.Equal(t, "מחר צפוי גשם קל עם מקסימום של 19°C ומינימום של 12°C.", s.Tomorrow)
	assert.Equal(t, summary.ClothingNeutral, s.Clothing)
}

func TestFallback_Deterministic(t *testing.T) {
	snap := snapshot(31, weather.Int(0), weather.ConditionClear)
	assert.Equal(t, summary.Fallback(snap), summary.Fallback(snap))
}

func TestFallback_ShortForecast(t *testing.T) {
	snap := snapshot(12, nil, weather.ConditionClouds)
	snap.Daily = snap.Daily[:1]

	s := summary.Fallback(snap)
	assert.Contains(t, s.Today, "14.5°")
	assert.NotEmpty(t, s.Tomorrow)
	assert.Equal(t, summary.ClothingCold, s.Clothing)

	snap.Daily = nil
	s = summary.Fallback(snap)
	assert.NotEmpty(t, s.Today)
	assert.NotEmpty(t, s.Tomorrow)
	assert.NotEmpty(t, s.Clothing)
}

func TestBuildPrompt(t *testing.T) {
	prompt := summary.BuildPrompt(snapshot(22.5, weather.Int(2), weather.ConditionClouds))

	assert.Contains(t, prompt, "בחיפה")
	assert.Contains(t, prompt, "22.5°C")
	assert.Contains(t, prompt, `רוח 12.5 קמ"ש`)
	assert.Contains(t, prompt, "היום: מקסימום 24°C, מינימום 14.5°C")
	assert.Contains(t, prompt, "מחר: מקסימום 19°C, מינימום 12°C, גשם קל")
	assert.Contains(t, prompt, `"clothing"`)
}

func TestParseCompletion(t *testing.T) {
	valid := `{"today":"שמשי","tomorrow":"גשום","clothing":"מעיל"}`

	s, err := summary.ParseCompletion("\n  " + valid + "\n")
	require.NoError(t, err)
	assert.Equal(t, summary.Summary{Today: "שמשי", Tomorrow: "גשום", Clothing: "מעיל"}, s)

	invalid := map[string]string{
		"not json":       "Sure! Here is the summary.",
		"markdown fence": "```json\n" + valid + "\n```",
		"missing key":    `{"today":"a","tomorrow":"b"}`,
		"empty value":    `{"today":"a","tomorrow":"b","clothing":"  "}`,
		"null value":     `{"today":"a","tomorrow":null,"clothing":"c"}`,
		"extra key":      `{"today":"a","tomorrow":"b","clothing":"c","mood":"d"}`,
		"wrong type":     `{"today":1,"tomorrow":"b","clothing":"c"}`,
		"array":          `[` + valid + `]`,
		"trailing data":  valid + ` {"x":1}`,
		"empty":          "",
	}
	for name, content := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := summary.ParseCompletion(content)
			assert.ErrorIs(t, err, summary.ErrInvalidCompletion)
		})
	}
}

func TestGenerator_UsesLLM(t *testing.T) {
	completer := &mockCompleter{content: `{"today":"היום נעים","tomorrow":"מחר גשום","clothing":"קח מטרייה"}`}
	rec := &recorder{}
	g := summary.NewGenerator(summary.GeneratorConfig{Completer: completer, Logger: zerolog.Nop(), Recorder: rec})

	s, source := g.SummarizeWithSource(context.Background(), snapshot(22, weather.Int(2), weather.ConditionClouds))

	assert.Equal(t, summary.SourceLLM, source)
	assert.Equal(t, "היום נעים", s.Today)
	assert.Equal(t, "קח מטרייה", s.Clothing)
	assert.Equal(t, 1, completer.calls())
	assert.Equal(t, []string{"llm"}, rec.sources)
}

func TestGenerator_FallbackOnFailure(t *testing.T) {
	tests := []struct {
		name      string
		completer *mockCompleter
	}{
		{"transport error", &mockCompleter{err: errors.New("connection reset")}},
		{"prose", &mockCompleter{content: "It will be sunny today."}},
		{"partial json", &mockCompleter{content: `{"today":"a","tomorrow":"b"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshot(22, weather.Int(2), weather.ConditionClouds)
			g := summary.NewGenerator(summary.GeneratorConfig{Completer: tt.completer, Logger: zerolog.Nop()})

			s, source := g.SummarizeWithSource(context.Background(), snap)
			assert.Equal(t, summary.SourceFallback, source)
			assert.Equal(t, summary.Fallback(snap), s, "never a mix of LLM and fallback fields")
		})
	}
}

func TestGenerator_NoCompleter(t *testing.T) {
	g := summary.NewGenerator(summary.GeneratorConfig{Logger: zerolog.Nop()})
	snap := snapshot(30, weather.Int(0), weather.ConditionClear)

	s := g.Summarize(context.Background(), snap)
	assert.Equal(t, summary.Fallback(snap), s)
	assert.Equal(t, summary.ClothingHot, s.Clothing)
}

func TestGenerator_SkipsLLMWithoutTomorrow(t *testing.T) {
	completer := &mockCompleter{content: `{"today":"a","tomorrow":"b","clothing":"c"}`}
	g := summary.NewGenerator(summary.GeneratorConfig{Completer: completer, Logger: zerolog.Nop()})

	snap := snapshot(22, weather.Int(2), weather.ConditionClouds)
	snap.Daily = snap.Daily[:1]

	_, source := g.SummarizeWithSource(context.Background(), snap)
	assert.Equal(t, summary.SourceFallback, source)
	assert.Zero(t, completer.calls())
}

func TestKeyConfigured(t *testing.T) {
	assert.False(t, summary.KeyConfigured(""))
	assert.False(t, summary.KeyConfigured("  "))
	assert.False(t, summary.KeyConfigured(summary.PlaceholderAPIKey))
	assert.True(t, summary.KeyConfigured("sk-or-v1-abc"))
}
