package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// userIDLocal is the Fiber locals key holding the authenticated user ID.
const userIDLocal = "userID"

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) string {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// SetCurrentUser stores the authenticated user in locals and in the user
// context so deep layers log it.
func SetCurrentUser(c *fiber.Ctx, userID uint) {
	c.Locals(userIDLocal, userID)
	c.SetUserContext(WithUserID(c.UserContext(), userID))
}

// CurrentUserID returns the authenticated user, if any.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(userIDLocal).(uint)
	return id, ok && id != 0
}
