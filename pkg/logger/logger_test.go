package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boorudl/pkg/config"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		entries = append(entries, entry)
	}
	return entries
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{
			name:    "info level",
			cfg:     &config.LoggingConfig{Level: "info"},
			wantErr: false,
		},
		{
			name:    "debug level",
			cfg:     &config.LoggingConfig{Level: "debug", NoColor: true},
			wantErr: false,
		},
		{
			name:    "invalid log level",
			cfg:     &config.LoggingConfig{Level: "invalid"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestNewWithFileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "boorudl.log")

	logger, err := New(&config.LoggingConfig{Level: "info", File: logFile, MaxSize: 1, NoColor: true})
	require.NoError(t, err)

	logger.WithField("page", 2).Info("Searching posts")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"Searching posts"`)
	assert.Contains(t, string(data), `"page":2`)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"loud", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&config.LoggingConfig{Level: "debug"}, &buf)
	require.NoError(t, err)

	logger.WithField("source", "gelbooru").
		WithError(errors.New("boom")).
		InfoWithFields("Page processed", map[string]interface{}{
			"page":     1,
			"duration": 1500 * time.Millisecond,
			"tags":     []string{"cat"},
		})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Page processed", entry["message"])
	assert.Equal(t, "gelbooru", entry["source"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, float64(1), entry["page"])
	assert.Equal(t, "boorudl", entry["app"])
	assert.Equal(t, RunID(), entry["run_id"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&config.LoggingConfig{Level: "warn"}, &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	logger.ErrorWithFields("shown too", map[string]interface{}{"status_code": 404})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "warn", entries[0]["level"])
	assert.Equal(t, "error", entries[1]["level"])
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	base, err := NewWithWriter(&config.LoggingConfig{Level: "info"}, &buf)
	require.NoError(t, err)

	_ = base.WithField("child", true)
	base.Info("parent")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0], "child")
}

func TestRunIDStable(t *testing.T) {
	assert.NotEmpty(t, RunID())
	assert.Equal(t, RunID(), RunID())
}

func TestLogDownload(t *testing.T) {
	log := NewTestLogger()

	LogDownload(log, "https://img/a.jpg", "/out/a.jpg", 10, time.Second, nil)
	LogDownload(log, "https://img/b.jpg", "/out/b.jpg", 0, time.Second, errors.New("404 Not Found"))

	infos := log.GetMessagesByLevel("INFO")
	require.Len(t, infos, 1)
	assert.Equal(t, "/out/a.jpg", infos[0].Fields["path"])

	errs := log.GetMessagesByLevel("ERROR")
	require.Len(t, errs, 1)
	assert.Equal(t, "https://img/b.jpg", errs[0].Fields["url"])
	assert.EqualError(t, errs[0].Error, "404 Not Found")
}

func TestLogRequestLevels(t *testing.T) {
	log := NewTestLogger()

	LogRequest(log, "GET", "u", 200, time.Millisecond)
	LogRequest(log, "GET", "u", 404, time.Millisecond)
	LogRequest(log, "GET", "u", 503, time.Millisecond)

	assert.Len(t, log.GetMessagesByLevel("DEBUG"), 1)
	assert.Len(t, log.GetMessagesByLevel("WARN"), 1)
	assert.Len(t, log.GetMessagesByLevel("ERROR"), 1)
}

func TestTestLoggerSharesStore(t *testing.T) {
	log := NewTestLogger()
	child := log.WithField("page", 1)
	child.Info("Searching posts")

	assert.True(t, log.HasMessage("Searching posts"))
	assert.False(t, log.HasError())
	assert.Equal(t, 1, log.GetMessages()[0].Fields["page"])
}

func TestGlobalLogger(t *testing.T) {
	test := NewTestLogger()
	SetLogger(test)
	t.Cleanup(func() { SetLogger(NewNopLogger()) })

	WithField("k", "v").Info("hello")
	assert.True(t, test.HasMessage("hello"))
	assert.Same(t, test, GetLogger())
}
