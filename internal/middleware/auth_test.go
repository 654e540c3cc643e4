package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"valid", "Bearer abc.def", "abc.def"},
		{"lowercase scheme", "bearer abc", "abc"},
		{"missing", "", ""},
		{"wrong scheme", "Basic abc", ""},
		{"no token", "Bearer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return c.SendString(BearerToken(c))
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)

			buf := new(bytes.Buffer)
			_, _ = buf.ReadFrom(resp.Body)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestSetCurrentUser(t *testing.T) {
	var logged bytes.Buffer
	InitLogger("test", &logged)
	t.Cleanup(func() { InitLogger("test", new(bytes.Buffer)) })

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		_, ok := CurrentUserID(c)
		assert.False(t, ok)

		SetCurrentUser(c, 42)
		id, ok := CurrentUserID(c)
		assert.True(t, ok)
		assert.Equal(t, uint(42), id)

		Logger.InfoContext(c.UserContext(), "hello")
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(logged.String(), "user_id=42"))
}

func TestCtxHandler_AddsRequestAndTraceIDs(t *testing.T) {
	var logged bytes.Buffer
	InitLogger("production", &logged)
	t.Cleanup(func() { InitLogger("test", new(bytes.Buffer)) })

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, TraceIDKey, "trace-1")
	Logger.With("component", "test").InfoContext(ctx, "hello")

	out := logged.String()
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"trace_id":"trace-1"`)
	assert.Contains(t, out, `"component":"test"`)
}
