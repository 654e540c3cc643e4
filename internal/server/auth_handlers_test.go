package server

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t, "")

	status, body := ts.json(http.MethodPost, "/api/name-is-free", fiber.Map{"name": "alice"}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "true", string(body))

	_, token := ts.signIn("alice", false)

	status, body = ts.json(http.MethodPost, "/api/name-is-free", fiber.Map{"name": "alice"}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "false", string(body))

	status, body = ts.json(http.MethodPost, "/api/email-is-free", fiber.Map{"email": "alice@example.com"}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "false", string(body))

	status, body = ts.json(http.MethodGet, "/api/check-auth", nil, token)
	require.Equal(t, http.StatusOK, status, string(body))
	var me struct {
		Name    string `json:"name"`
		IsAdmin bool   `json:"is_admin"`
	}
	decode(t, body, &me)
	assert.Equal(t, "alice", me.Name)
	assert.False(t, me.IsAdmin)

	status, _ = ts.json(http.MethodGet, "/api/logout", nil, token)
	require.Equal(t, http.StatusOK, status)

	status, body = ts.json(http.MethodGet, "/api/check-auth", nil, token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, http.StatusUnauthorized, errorOf(t, body).Status)
}

func TestAvailabilityChecksNeedAValue(t *testing.T) {
	ts := newTestServer(t, "")

	status, body := ts.json(http.MethodPost, "/api/name-is-free", fiber.Map{}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Name not received", errorOf(t, body).Error)

	status, body = ts.json(http.MethodPost, "/api/email-is-free", fiber.Map{"email": "  "}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email not received", errorOf(t, body).Error)
}

func TestRegister_Validation(t *testing.T) {
	ts := newTestServer(t, "")
	ts.signIn("bob", false)

	tests := []struct {
		name    string
		payload fiber.Map
	}{
		{"weak password", fiber.Map{"name": "carol", "email": "carol@example.com", "password": "123"}},
		{"bad email", fiber.Map{"name": "carol", "email": "not-an-email", "password": testPassword}},
		{"taken name", fiber.Map{"name": "bob", "email": "other@example.com", "password": testPassword}},
		{"taken email", fiber.Map{"name": "carol", "email": "bob@example.com", "password": testPassword}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ts.json(http.MethodPost, "/api/register", tt.payload, "")
			assert.Equal(t, http.StatusUnprocessableEntity, status, string(body))
		})
	}
}

func TestRegister_Closed(t *testing.T) {
	ts := newTestServer(t, "registration_closed=on")

	status, body := ts.json(http.MethodPost, "/api/register", fiber.Map{
		"name": "dave", "email": "dave@example.com", "password": testPassword,
	}, "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Registration is closed", errorOf(t, body).Error)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ts := newTestServer(t, "")
	ts.signIn("erin", false)

	status, body := ts.json(http.MethodPost, "/api/login", fiber.Map{
		"email": "erin@example.com", "password": "Wrong#123",
	}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "Invalid login details", errorOf(t, body).Error)
}

func TestLogin_RevokesPreviousToken(t *testing.T) {
	ts := newTestServer(t, "")
	_, first := ts.signIn("frank", false)

	status, _ := ts.json(http.MethodPost, "/api/login", fiber.Map{
		"email": "frank@example.com", "password": testPassword,
	}, "")
	require.Equal(t, http.StatusOK, status)

	status, _ = ts.json(http.MethodGet, "/api/check-auth", nil, first)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t, "")

	for _, path := range []string{"/api/check-auth", "/api/user/self", "/api/avatars", "/api/admin/posts"} {
		status, body := ts.json(http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, status, path)
		assert.Equal(t, "Authorization required", errorOf(t, body).Error, path)
	}

	status, _ := ts.json(http.MethodGet, "/api/check-auth", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUnknownRouteUsesErrorBody(t *testing.T) {
	ts := newTestServer(t, "")

	status, body := ts.json(http.MethodGet, "/does-not-exist", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, http.StatusNotFound, errorOf(t, body).Status)

	// Unknown /api routes sit behind the auth group.
	_, token := ts.signIn("wanderer", false)
	status, body = ts.json(http.MethodGet, "/api/does-not-exist", nil, token)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Cannot GET /api/does-not-exist", errorOf(t, body).Error)
}
