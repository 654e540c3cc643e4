package server

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/kolimbet/blog-composition-back/internal/middleware"
	"github.com/kolimbet/blog-composition-back/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errInvalidBody is returned when the request body cannot be decoded.
var errInvalidBody = models.NewBadRequestError("Invalid request body")

// parseID reads a positive numeric route parameter.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, models.NewBadRequestError("Invalid " + param + " ID")
	}
	return uint(id), nil
}

// pageQuery reads the 1-based ?page= parameter. Values below 1 become 1.
func pageQuery(c *fiber.Ctx) int {
	return max(c.QueryInt("page", 1), 1)
}

// currentUserID returns the user set by AuthRequired.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := middleware.CurrentUserID(c)
	return id
}

// optionalUserID authenticates the bearer token when one is sent. Invalid
// tokens are treated as guests.
func (s *Server) optionalUserID(c *fiber.Ctx) uint {
	raw := middleware.BearerToken(c)
	if raw == "" {
		return 0
	}
	id, err := s.authService.Authenticate(c.UserContext(), raw)
	if err != nil {
		return 0
	}
	middleware.SetCurrentUser(c, id)
	return id
}

// viewerIsAdmin reports whether the optional viewer holds the admin role.
func (s *Server) viewerIsAdmin(c *fiber.Ctx, viewerID uint) bool {
	if viewerID == 0 {
		return false
	}
	admin, err := s.userService.IsAdmin(c.UserContext(), viewerID)
	return err == nil && admin
}

// AuthRequired rejects requests without a valid, unrevoked bearer token.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := s.authService.Authenticate(c.UserContext(), middleware.BearerToken(c))
		if err != nil {
			return s.respondError(c, err)
		}
		middleware.SetCurrentUser(c, userID)
		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, err := s.userService.IsAdmin(c.UserContext(), currentUserID(c))
		if err != nil {
			return s.respondError(c, err)
		}
		if !admin {
			return s.respondError(c, models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// parseTagIDs accepts the tags field either as a JSON array of {id}
// objects or as a string holding that array.
func parseTagIDs(raw json.RawMessage) ([]uint, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errTagsNotReceived
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = json.RawMessage(strings.TrimSpace(encoded))
	}

	var items []struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, models.NewValidationError("The tags field must be a list of tags")
	}
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		if item.ID != 0 {
			ids = append(ids, item.ID)
		}
	}
	return ids, nil
}

// readUpload reads a multipart file, at most limit+1 bytes so oversized
// files are still reported as too large.
func readUpload(c *fiber.Ctx, field string, limit int64) ([]byte, string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, "", models.NewValidationError("The " + field + " field is required")
	}
	if fh.Size > limit {
		return nil, "", models.NewValidationError("The " + field + " is too large")
	}

	src, err := fh.Open()
	if err != nil {
		return nil, "", models.NewBadRequestError("Unable to read uploaded file")
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, "", models.NewBadRequestError("Unable to read uploaded file")
	}
	return content, fh.Filename, nil
}
