package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func bufferLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{
		Component: component,
		Handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := bufferLogger(&buf, ComponentAPI)

	logger.Info("hello", FieldUserID, 7)
	assert.Contains(t, buf.String(), "component=api")
	assert.Contains(t, buf.String(), "user_id=7")

	buf.Reset()
	logger.With(FieldRequestID, "req_1").WithComponent(ComponentStorage).Warn("moved")
	out := buf.String()
	assert.Contains(t, out, "component=storage")
	assert.NotContains(t, out, "component=api")
	assert.Contains(t, out, "request_id=req_1")
	assert.Equal(t, ComponentStorage, logger.WithComponent(ComponentStorage).Component())
}

func TestFromContextFallsBack(t *testing.T) {
	logger := FromContext(context.Background())
	assert.Equal(t, "unknown", logger.Component())
}

func TestMiddlewareChain(t *testing.T) {
	var buf bytes.Buffer
	logger := bufferLogger(&buf, ComponentApp)

	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).InfoContext(r.Context(), "handled")
	})
	handler = RequestIDMiddleware(func(*http.Request) string { return "req_abc" })(handler)
	handler = ComponentMiddleware(ComponentHTTP)(handler)
	handler = Middleware(logger)(handler)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	out := buf.String()
	assert.Contains(t, out, "msg=handled")
	assert.Contains(t, out, "component=http")
	assert.Contains(t, out, "request_id=req_abc")
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(bufferLogger(&buf, ComponentAPI))

	sl.LogTransactionRecorded(context.Background(), "expense", "12.50", "2025-03-04", "Food")
	out := buf.String()
	assert.Contains(t, out, "component=transaction")
	assert.Contains(t, out, "amount=12.50")
	assert.Contains(t, out, "operation=create")

	buf.Reset()
	sl.LogError(context.Background(), "insert failed", errors.New("disk full"), ComponentStorage, OpCreate, NewFields().WithRequestID("req_2"))
	out = buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, `error="disk full"`)
	assert.Contains(t, out, "component=storage")
	assert.Contains(t, out, "request_id=req_2")
}

func TestFieldsWithNilError(t *testing.T) {
	f := NewFields().WithError(nil).WithOperation(OpRead)
	_, ok := f[FieldError]
	assert.False(t, ok)
	assert.Equal(t, OpRead, f[FieldOperation])
	assert.Len(t, f.ToSlice(), 2)
}
