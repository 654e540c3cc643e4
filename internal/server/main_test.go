package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kolimbet/blog-composition-back/internal/config"
	"github.com/kolimbet/blog-composition-back/internal/models"
	"github.com/kolimbet/blog-composition-back/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPassword = "Secret#123"

type testServer struct {
	t   *testing.T
	srv *Server
	app *fiber.App
	db  *gorm.DB
}

func newTestServer(t *testing.T, flags string) *testServer {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		Env:                  "test",
		Port:                 "0",
		AppURL:               "http://blog.test",
		AppName:              "Blog Test",
		JWTSecret:            "test-secret-that-is-long-enough-123456",
		JWTTTLHours:          1,
		JWTRememberTTLHours:  24,
		AllowedOrigins:       "http://localhost:5173",
		FeatureFlags:         flags,
		StorageDir:           t.TempDir(),
		ImageMaxUploadSizeMB: 1,
		AvatarMaxSizePx:      64,
	}

	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	app := srv.NewApp()
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)

	return &testServer{t: t, srv: srv, app: app, db: db}
}

// do sends a request and returns the status and raw body.
func (ts *testServer) do(req *http.Request, token string) (int, []byte) {
	ts.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(ts.t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(ts.t, err)
	return resp.StatusCode, body
}

func (ts *testServer) json(method, path string, payload any, token string) (int, []byte) {
	ts.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(ts.t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return ts.do(req, token)
}

// upload posts a multipart form with one image file plus text fields.
func (ts *testServer) upload(path, filename string, content []byte, fields map[string]string, token string) (int, []byte) {
	ts.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filename)
	require.NoError(ts.t, err)
	_, err = part.Write(content)
	require.NoError(ts.t, err)
	for k, v := range fields {
		require.NoError(ts.t, w.WriteField(k, v))
	}
	require.NoError(ts.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return ts.do(req, token)
}

// signIn registers name through the API, optionally grants the admin
// role and returns a fresh access token.
func (ts *testServer) signIn(name string, admin bool) (uint, string) {
	ts.t.Helper()
	email := name + "@example.com"
	status, body := ts.json(http.MethodPost, "/api/register", fiber.Map{
		"name": name, "email": email, "password": testPassword,
	}, "")
	require.Equal(ts.t, http.StatusOK, status, string(body))

	var user models.User
	require.NoError(ts.t, ts.db.Where("email = ?", email).First(&user).Error)
	if admin {
		require.NoError(ts.t, ts.db.Model(&user).Update("is_admin", true).Error)
	}

	status, body = ts.json(http.MethodPost, "/api/login", fiber.Map{
		"email": email, "password": testPassword,
	}, "")
	require.Equal(ts.t, http.StatusOK, status, string(body))

	var res struct {
		AccessToken string `json:"access_token"`
	}
	decode(ts.t, body, &res)
	require.NotEmpty(ts.t, res.AccessToken)
	return user.ID, res.AccessToken
}

func decode(t *testing.T, body []byte, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body, dest), string(body))
}

func errorOf(t *testing.T, body []byte) models.ErrorResponse {
	t.Helper()
	var res models.ErrorResponse
	decode(t, body, &res)
	return res
}
