package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/bigorder/pkg/config"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestNewSetsGlobalLevel(t *testing.T) {
	New(&config.Config{Env: "development", LogLevel: "warn", LogFormat: "json"})
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	New(&config.Config{Env: "development", LogLevel: "debug", LogFormat: "json"})
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestWithStock(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	log := NewWithWriter(&buf)

	log.WithModule("enricher").WithStock("600519", "贵州茅台").Error("enrich failed")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "enricher", entry["module"])
	assert.Equal(t, "600519", entry["symbol"])
	assert.Equal(t, "贵州茅台", entry["name"])
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "enrich failed", entry["message"])
}

func TestWithFieldsAndError(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	log := NewWithWriter(&buf)

	log.WithFields(map[string]interface{}{
		"workers": 10,
		"symbols": 42,
	}).WithError(errors.New("feed unavailable")).Warn("refresh degraded")

	entry := decodeLine(t, &buf)
	assert.Equal(t, float64(10), entry["workers"])
	assert.Equal(t, float64(42), entry["symbols"])
	assert.Equal(t, "feed unavailable", entry["error"])
	assert.Equal(t, "warn", entry["level"])
}

func TestFormattedMethods(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	log := NewWithWriter(&buf)

	log.Infof("partition %s replaced with %d rows", "alerts_20250102", 17)

	entry := decodeLine(t, &buf)
	assert.Equal(t, "partition alerts_20250102 replaced with 17 rows", entry["message"])
}

func TestLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bigorder.log")
	log := New(&config.Config{Env: "development", LogLevel: "info", LogFormat: "json", LogFile: path})

	log.Info("written to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().WithStock("000001", "平安银行").Error("discarded")
	})
}
