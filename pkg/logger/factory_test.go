package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magnetarhq/portalcore/pkg/logger"
)

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	return rec
}

func TestNew_JSONDefaults(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf))
	log.Info("hello", slog.String("key", "value"))

	rec := decodeRecord(t, &buf)
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "value", rec["key"])
	assert.Equal(t, "INFO", rec["level"])
}

func TestNew_DebugSuppressedAtInfo(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf))
	log.Debug("invisible")

	assert.Zero(t, buf.Len())
}

func TestNew_TextFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithFormat(logger.FormatText))
	log.Info("plain")

	assert.Contains(t, buf.String(), "msg=plain")
}

func TestWithFormat_PanicsOnUnknown(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		logger.New(logger.WithFormat(logger.Format("xml")))
	})
}

func TestWithAttr_StaticAttributes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithAttr(logger.Component("dispatcher")),
	)
	log.Info("tick")

	rec := decodeRecord(t, &buf)
	assert.Equal(t, "dispatcher", rec["component"])
}

func TestWithContextValue_InjectsWhenPresent(t *testing.T) {
	t.Parallel()

	type ctxKey struct{}

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithContextValue("request_id", ctxKey{}),
	)

	ctx := context.WithValue(context.Background(), ctxKey{}, "req-42")
	log.InfoContext(ctx, "handled")

	rec := decodeRecord(t, &buf)
	assert.Equal(t, "req-42", rec["request_id"])

	buf.Reset()
	log.InfoContext(context.Background(), "handled")
	rec = decodeRecord(t, &buf)
	assert.NotContains(t, rec, "request_id")
}

func TestWithDevelopment_EnablesDebug(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithDevelopment("portal"),
		logger.WithOutput(&buf),
	)
	log.Debug("verbose")

	assert.Contains(t, buf.String(), "service=portal")
	assert.Contains(t, buf.String(), "env=development")
}

func TestErrorAttr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Attr{}, logger.Error(nil))

	attr := logger.Error(errors.New("boom"))
	assert.Equal(t, "error", attr.Key)
}
