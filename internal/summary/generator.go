package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/weather"
)

// ErrInvalidCompletion is returned when LLM output is not a complete summary.
var ErrInvalidCompletion = errors.New("completion is not a valid summary")

// Completer sends a prompt to a language model.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Recorder receives the path each summary took.
type Recorder interface {
	RecordSummary(source string, duration time.Duration)
}

// GeneratorConfig holds configuration for the generator.
type GeneratorConfig struct {
	// Completer is optional; without it every summary uses the fallback.
	Completer Completer

	// Timeout bounds the LLM call. Default: 10 seconds.
	Timeout time.Duration

	// Logger for generator operations.
	Logger zerolog.Logger

	// Recorder is optional.
	Recorder Recorder
}

// Generator produces summaries. It never fails: any LLM problem falls
// back to the template summary.
type Generator struct {
	completer Completer
	timeout   time.Duration
	logger    zerolog.Logger
	recorder  Recorder
}

// NewGenerator creates a new summary generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Generator{
		completer: cfg.Completer,
		timeout:   timeout,
		logger:    cfg.Logger,
		recorder:  cfg.Recorder,
	}
}

// Summarize returns the summary for snap.
func (g *Generator) Summarize(ctx context.Context, snap *weather.Snapshot) Summary {
	s, _ := g.SummarizeWithSource(ctx, snap)
	return s
}

// SummarizeWithSource returns the summary and the path that produced it.
func (g *Generator) SummarizeWithSource(ctx context.Context, snap *weather.Snapshot) (Summary, Source) {
	start := time.Now()

	if g.completer != nil && len(snap.Daily) >= 2 {
		s, err := g.fromLLM(ctx, snap)
		if err == nil {
			g.record(SourceLLM, start)
			return s, SourceLLM
		}
		g.logger.Warn().Err(err).Str("city", snap.Location.Name).Msg("llm summary failed, using fallback")
	}

	s := Fallback(snap)
	g.record(SourceFallback, start)
	return s, SourceFallback
}

func (g *Generator) fromLLM(ctx context.Context, snap *weather.Snapshot) (Summary, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
	defer cancel()

	content, err := g.completer.Complete(ctx, BuildPrompt(snap))
	if err != nil {
		return Summary{}, err
	}
	return ParseCompletion(content)
}

// ParseCompletion decodes LLM output into a Summary. The trimmed content
// must be a JSON object with exactly the keys today, tomorrow and clothing,
// each a non-empty string.
func ParseCompletion(content string) (Summary, error) {
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(content)))
	dec.DisallowUnknownFields()

	var raw struct {
		Today    *string `json:"today"`
		Tomorrow *string `json:"tomorrow"`
		Clothing *string `json:"clothing"`
	}
	if err := dec.Decode(&raw); err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrInvalidCompletion, err)
	}
	if dec.More() {
		return Summary{}, fmt.Errorf("%w: trailing data", ErrInvalidCompletion)
	}

	for name, v := range map[string]*string{"today": raw.Today, "tomorrow": raw.Tomorrow, "clothing": raw.Clothing} {
		if v == nil || strings.TrimSpace(*v) == "" {
			return Summary{}, fmt.Errorf("%w: missing %s", ErrInvalidCompletion, name)
		}
	}

	return Summary{Today: *raw.Today, Tomorrow: *raw.Tomorrow, Clothing: *raw.Clothing}, nil
}

func (g *Generator) record(source Source, start time.Time) {
	g.logger.Debug().Str("summary.source", string(source)).Msg("summary generated")
	if g.recorder != nil {
		g.recorder.RecordSummary(string(source), time.Since(start))
	}
}
