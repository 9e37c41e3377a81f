package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	logger := newLogger()

	require.NotNil(t, logger)
	formatter, ok := logger.Formatter.(*logrus.TextFormatter)
	require.True(t, ok)

	assert.Equal(t, time.RFC3339Nano, formatter.TimestampFormat)
	assert.True(t, formatter.FullTimestamp)
}

func TestGetLogger_WithContextLogger(t *testing.T) {
	customLogger := logrus.NewEntry(logrus.New()).WithField("skill", "fmt")
	ctx := WithLogger(context.Background(), customLogger)

	retrieved := G(ctx)
	assert.Equal(t, "fmt", retrieved.Data["skill"])
}

func TestGetLogger_WithoutContextLogger(t *testing.T) {
	retrieved := G(context.Background())

	require.NotNil(t, retrieved)
	assert.Equal(t, L.Logger, retrieved.Logger)
}

func TestWithFields(t *testing.T) {
	ctx := WithLogger(context.Background(), logrus.NewEntry(logrus.New()).WithField("method", "GET"))
	ctx = WithFields(ctx, logrus.Fields{"collection": "tools"})

	entry := G(ctx)
	assert.Equal(t, "GET", entry.Data["method"])
	assert.Equal(t, "tools", entry.Data["collection"])
}

func TestSetLoggerFormat(t *testing.T) {
	tests := []struct {
		format   string
		expected logrus.Formatter
	}{
		{"json", &logrus.JSONFormatter{}},
		{"fmt", &logrus.TextFormatter{}},
		{"text", &logrus.TextFormatter{}},
		{"unknown", &logrus.TextFormatter{}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			l := logrus.New()
			setLoggerFormat(l, tt.format)
			assert.IsType(t, tt.expected, l.Formatter)
		})
	}
}

func TestJSONOutputFieldNames(t *testing.T) {
	var buf bytes.Buffer

	l := logrus.New()
	l.SetOutput(&buf)
	setLoggerFormat(l, "json")

	ctx := WithLogger(context.Background(), logrus.NewEntry(l))
	G(ctx).WithField("skill", "fmt").Info("created skill")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "info", entry["logLevel"])
	assert.Equal(t, "created skill", entry["message"])
	assert.Equal(t, "fmt", entry["skill"])

	timestamp, ok := entry["timestamp"].(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339Nano, timestamp)
	assert.NoError(t, err)
}

func TestConfigure(t *testing.T) {
	original := L.Logger.GetLevel()
	originalFormatter := L.Logger.Formatter
	defer func() {
		L.Logger.SetLevel(original)
		L.Logger.Formatter = originalFormatter
	}()

	require.NoError(t, Configure("debug", "json"))
	assert.Equal(t, logrus.DebugLevel, L.Logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, L.Logger.Formatter)

	err := Configure("loud", "fmt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid log level "loud"`)

	err = Configure("info", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid log format "xml"`)
	assert.IsType(t, &logrus.JSONFormatter{}, L.Logger.Formatter)
}

func TestWithComponent(t *testing.T) {
	ctx := WithLogger(context.Background(), logrus.NewEntry(logrus.New()))
	ctx = WithComponent(ctx, "cli")
	assert.Equal(t, "cli", G(ctx).Data["component"])

	ctx = WithComponent(WithFields(ctx, logrus.Fields{"skill": "fmt"}), "webui")
	assert.Equal(t, "webui", G(ctx).Data["component"])
	assert.Equal(t, "fmt", G(ctx).Data["skill"])
}
