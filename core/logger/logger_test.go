package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behaviorsense/encoderd/core/logger"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json formatter", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithJSONFormatter(), logger.WithOutput(&buf))
		log.Info("hello", slog.String("key", "value"))

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "hello", record["msg"])
		assert.Equal(t, "value", record["key"])
	})

	t.Run("text formatter", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithTextFormatter(), logger.WithOutput(&buf))
		log.Info("hello")

		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("level filters records", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithLevel(slog.LevelWarn), logger.WithOutput(&buf))

		log.Info("dropped")
		assert.Empty(t, buf.String())

		log.Warn("kept")
		assert.Contains(t, buf.String(), "kept")
	})

	t.Run("static attrs on every record", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithJSONFormatter(),
			logger.WithOutput(&buf),
			logger.WithAttr(slog.String("service", "encoderd")),
		)
		log.Info("one")

		assert.Contains(t, buf.String(), `"service":"encoderd"`)
	})

	t.Run("development preset enables debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithDevelopment("encoderd"), logger.WithOutput(&buf))
		log.Debug("visible")

		assert.Contains(t, buf.String(), "visible")
		assert.Contains(t, buf.String(), "service=encoderd")
	})
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewFromConfig(logger.Config{Level: "debug", Format: "json", Service: "test-svc"})
	_ = log

	// NewFromConfig writes to stdout; verify level and format plumbing via
	// ParseLevel and a manually constructed equivalent instead.
	equivalent := logger.New(
		logger.WithLevel(logger.ParseLevel("debug")),
		logger.WithJSONFormatter(),
		logger.WithOutput(&buf),
		logger.WithAttr(slog.String("service", "test-svc")),
	)
	equivalent.Debug("configured")

	assert.Contains(t, buf.String(), `"service":"test-svc"`)
	assert.Contains(t, buf.String(), `"level":"DEBUG"`)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"ERROR":   slog.LevelError,
		"unknown": slog.LevelInfo,
		"":        slog.LevelInfo,
	}

	for input, want := range tests {
		assert.Equal(t, want, logger.ParseLevel(input), "input %q", input)
	}
}
