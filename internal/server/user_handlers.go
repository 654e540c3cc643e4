package server

import (
	"github.com/kolimbet/blog-composition-back/internal/models"
	"github.com/kolimbet/blog-composition-back/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AboutSelf handles GET /api/user/self
// @Summary Own profile
// @Tags users
// @Produce json
// @Success 200 {object} service.Profile
// @Security BearerAuth
// @Router /user/self [get]
func (s *Server) AboutSelf(c *fiber.Ctx) error {
	profile, err := s.userService.About(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(profile)
}

// AboutAnother handles GET /api/users/:id
// @Summary User profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} service.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) AboutAnother(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	profile, err := s.userService.About(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(profile)
}

// CheckPassword handles POST /api/user/check-password
// @Summary Check the current password
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{password=string} true "Password"
// @Success 200 {boolean} boolean
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /user/check-password [post]
func (s *Server) CheckPassword(c *fiber.Ctx) error {
	var req struct {
		Password *string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, errInvalidBody)
	}
	if req.Password == nil || *req.Password == "" {
		return s.respondError(c, models.NewBadRequestError("Password not received"))
	}

	ok, err := s.userService.CheckPassword(c.UserContext(), currentUserID(c), *req.Password)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(ok)
}

// UpdatePassword handles POST /api/user/update-password
// @Summary Change password
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{password=string,new_password=string,new_password_repeat=string} true "Passwords"
// @Success 200 {boolean} boolean
// @Failure 422 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /user/update-password [post]
func (s *Server) UpdatePassword(c *fiber.Ctx) error {
	var req struct {
		Password          string `json:"password"`
		NewPassword       string `json:"new_password"`
		NewPasswordRepeat string `json:"new_password_repeat"`
	}
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, errInvalidBody)
	}

	if err := s.userService.UpdatePassword(c.UserContext(), service.UpdatePasswordInput{
		UserID:            currentUserID(c),
		Password:          req.Password,
		NewPassword:       req.NewPassword,
		NewPasswordRepeat: req.NewPasswordRepeat,
	}); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(true)
}

// SetAvatar handles POST /api/user/avatar
// @Summary Choose an avatar
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{id=int} true "Image ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /user/avatar [post]
func (s *Server) SetAvatar(c *fiber.Ctx) error {
	var req struct {
		ID uint `json:"id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, errInvalidBody)
	}
	if req.ID == 0 {
		return s.respondError(c, models.NewBadRequestError("Image ID not received"))
	}

	user, err := s.userService.SetAvatar(c.UserContext(), currentUserID(c), req.ID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}

// DeleteAvatar handles DELETE /api/user/avatar
// @Summary Clear the avatar
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Security BearerAuth
// @Router /user/avatar [delete]
func (s *Server) DeleteAvatar(c *fiber.Ctx) error {
	user, err := s.userService.DeleteAvatar(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}
