package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityHeaders(t *testing.T) {
	ts := newTestServer(t, "")

	for _, path := range []string{"/health/live", "/api/posts", "/api/check-auth"} {
		t.Run(path, func(t *testing.T) {
			resp, err := ts.app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
			assert.NotEmpty(t, resp.Header.Get("X-Frame-Options"))
			assert.Equal(t, "cross-origin", resp.Header.Get("Cross-Origin-Resource-Policy"))
			assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
		})
	}
}

func TestHealthChecks(t *testing.T) {
	ts := newTestServer(t, "")

	status, body := ts.json(http.MethodGet, "/health/live", nil, "")
	require.Equal(t, http.StatusOK, status, string(body))
	var live struct {
		Status string `json:"status"`
	}
	decode(t, body, &live)
	assert.Equal(t, "up", live.Status)

	status, body = ts.json(http.MethodGet, "/health/ready", nil, "")
	require.Equal(t, http.StatusOK, status, string(body))
	var ready struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decode(t, body, &ready)
	assert.Equal(t, "healthy", ready.Status)
	assert.Equal(t, map[string]string{"database": "healthy", "redis": "healthy"}, ready.Checks)
}

func TestHealthCheckWithoutRedis(t *testing.T) {
	ts := newTestServer(t, "")
	ts.srv.redis = nil

	status, body := ts.json(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, status, string(body))
	var ready struct {
		Checks map[string]string `json:"checks"`
	}
	decode(t, body, &ready)
	assert.Equal(t, "unavailable", ready.Checks["redis"])
}
