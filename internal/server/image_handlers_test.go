package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/kolimbet/blog-composition-back/internal/service"
	"github.com/kolimbet/blog-composition-back/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvatars(t *testing.T) {
	ts := newTestServer(t, "")
	_, token := ts.signIn("painter", false)
	_, other := ts.signIn("viewer", false)

	status, body := ts.upload("/api/avatars", "me.png", testutil.PNGBytes(32, 32), map[string]string{"image_name": "Portrait"}, token)
	require.Equal(t, http.StatusOK, status, string(body))
	var res service.UploadResult
	decode(t, body, &res)
	require.NotNil(t, res.Image)
	assert.Equal(t, "portrait.png", res.Image.Name)
	_, err := os.Stat(filepath.Join(ts.srv.config.StorageDir, res.Image.RelativePath()))
	require.NoError(t, err)

	status, body = ts.json(http.MethodGet, "/api/avatars", nil, token)
	require.Equal(t, http.StatusOK, status)
	var list []map[string]any
	decode(t, body, &list)
	assert.Len(t, list, 1)

	status, body = ts.json(http.MethodPost, "/api/user/avatar", fiber.Map{"id": res.Image.ID}, token)
	require.Equal(t, http.StatusOK, status, string(body))
	var user struct {
		AvatarID *uint `json:"avatar_id"`
	}
	decode(t, body, &user)
	require.NotNil(t, user.AvatarID)
	assert.Equal(t, res.Image.ID, *user.AvatarID)

	// Another user can neither select nor delete it.
	status, _ = ts.json(http.MethodPost, "/api/user/avatar", fiber.Map{"id": res.Image.ID}, other)
	assert.Equal(t, http.StatusNotFound, status)
	avatarPath := fmt.Sprintf("/api/avatars/%d", res.Image.ID)
	status, _ = ts.json(http.MethodDelete, avatarPath, nil, other)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = ts.json(http.MethodDelete, avatarPath, nil, token)
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = ts.json(http.MethodGet, "/api/check-auth", nil, token)
	require.Equal(t, http.StatusOK, status)
	decode(t, body, &user)
	assert.Nil(t, user.AvatarID, "deleting the image clears the avatar")
}

func TestAvatars_RejectsBadUploads(t *testing.T) {
	ts := newTestServer(t, "")
	_, token := ts.signIn("painter", false)

	status, _ := ts.upload("/api/avatars", "notes.txt", []byte("plain text"), nil, token)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = ts.json(http.MethodPost, "/api/avatars", fiber.Map{}, token)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestPostImages(t *testing.T) {
	ts := newTestServer(t, "")
	_, admin := ts.signIn("admin", true)
	_, reader := ts.signIn("reader", false)

	status, _ := ts.upload("/api/images", "a.png", testutil.PNGBytes(8, 8), nil, reader)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := ts.upload("/api/images", "a.png", testutil.PNGBytes(8, 8), nil, admin)
	require.Equal(t, http.StatusOK, status, string(body))
	var first service.UploadResult
	decode(t, body, &first)
	require.NotEmpty(t, first.ImagePath)

	status, body = ts.upload("/api/images", "b.png", testutil.PNGBytes(8, 8),
		map[string]string{"image_path": first.ImagePath}, admin)
	require.Equal(t, http.StatusOK, status, string(body))
	var second service.UploadResult
	decode(t, body, &second)
	assert.Equal(t, first.ImagePath, second.ImagePath)

	status, _ = ts.upload("/api/images", "c.png", testutil.PNGBytes(8, 8),
		map[string]string{"image_path": "../escape"}, admin)
	assert.Equal(t, http.StatusBadRequest, status)

	// A post whose directory is recorded rejects uploads into another one.
	postID := ts.createPost(admin, "Illustrated", true)
	fields := map[string]string{"post_id": strconv.FormatUint(uint64(postID), 10)}
	status, body = ts.upload("/api/images", "d.png", testutil.PNGBytes(8, 8), fields, admin)
	require.Equal(t, http.StatusOK, status, string(body))
	var attached service.UploadResult
	decode(t, body, &attached)

	fields["image_path"] = first.ImagePath
	status, _ = ts.upload("/api/images", "e.png", testutil.PNGBytes(8, 8), fields, admin)
	assert.Equal(t, http.StatusConflict, status)

	status, body = ts.json(http.MethodGet, fmt.Sprintf("/api/images/post/%d", postID), nil, admin)
	require.Equal(t, http.StatusOK, status, string(body))
	var images []map[string]any
	decode(t, body, &images)
	assert.Len(t, images, 1)

	status, _ = ts.json(http.MethodDelete, fmt.Sprintf("/api/images/%d", attached.Image.ID), nil, admin)
	assert.Equal(t, http.StatusOK, status)
	status, _ = ts.json(http.MethodDelete, fmt.Sprintf("/api/images/%d", attached.Image.ID), nil, admin)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestClearNonAttachedImages(t *testing.T) {
	ts := newTestServer(t, "")
	_, admin := ts.signIn("admin", true)

	status, body := ts.upload("/api/images", "a.png", testutil.PNGBytes(8, 8), nil, admin)
	require.Equal(t, http.StatusOK, status, string(body))
	var res service.UploadResult
	decode(t, body, &res)

	status, body = ts.json(http.MethodPost, "/api/images/clear", fiber.Map{"image_path": res.ImagePath}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Bad request: image_counter not received", errorOf(t, body).Error)

	status, body = ts.json(http.MethodPost, "/api/images/clear", fiber.Map{"image_path": res.ImagePath, "image_counter": 1}, "")
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, fmt.Sprintf(`"Images from directory %s have been deleted"`, res.ImagePath), string(body))

	_, err := os.Stat(filepath.Join(ts.srv.config.StorageDir, res.ImagePath))
	assert.True(t, os.IsNotExist(err))

	status, _ = ts.json(http.MethodPost, "/api/images/clear", fiber.Map{"image_path": res.ImagePath, "image_counter": 0}, "")
	assert.Equal(t, http.StatusNotFound, status)
}
