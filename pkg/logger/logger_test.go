package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSONCarriesService(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "", "")
	log.Info("plant created", "plant_id", 7)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "plantcare", entry["service"])
	require.Equal(t, float64(7), entry["plant_id"])
}

func TestNewLoggerTextFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "warn", "text")
	log.Info("hidden")
	require.Zero(t, buf.Len())

	log.Warn("shown")
	require.Contains(t, buf.String(), "msg=shown")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, parseLevel("warning"))
	require.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}
