package app_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/app"
)

func TestNewLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := app.NewLoggerTo(&buf, "skycast-api", "1.2.3", "debug", "production")

	log.Debug().Str("city", "חיפה").Msg("lookup")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "skycast-api", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "חיפה", entry["city"])
	assert.Equal(t, zerolog.DebugLevel, log.GetLevel())
}

func TestNewLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := app.NewLoggerTo(&buf, "skycast-api", "dev", "chatty", "production")

	log.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestNewLogger_DevelopmentIsConsole(t *testing.T) {
	var buf bytes.Buffer
	log := app.NewLoggerTo(&buf, "skycast-api", "dev", "info", "development")

	log.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(buf.Bytes()))
}
