package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Logger
	Logger = NewContextLogger(newHandler("production", &buf))
	t.Cleanup(func() { Logger = prev })
	return &buf
}

func TestContextLogger_AddsIDs(t *testing.T) {
	buf := captureLogger(t)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = WithSessionID(ctx, "sess-1")
	Logger.With("component", "test").InfoContext(ctx, "hello")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "req-1", rec["request_id"])
	assert.Equal(t, "sess-1", rec["session_id"])
	assert.Equal(t, "test", rec["component"])
	assert.NotContains(t, rec, "trace_id")
}

func TestStructuredLogger_LevelFollowsStatus(t *testing.T) {
	buf := captureLogger(t)

	app := fiber.New()
	app.Use(requestid.New(), ContextMiddleware(), StructuredLogger())
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/missing", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })

	for path, level := range map[string]string{"/ok": "INFO", "/missing": "WARN"} {
		buf.Reset()
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		resp.Body.Close()

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, level, rec["level"], path)
		assert.Equal(t, path, rec["route"])
		assert.NotEmpty(t, rec["request_id"])
	}
}

func TestNewHandler_TextOutsideProduction(t *testing.T) {
	var buf bytes.Buffer
	slog.New(newHandler("development", &buf)).Info("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}
