package server

import (
	"strings"

	"github.com/kolimbet/blog-composition-back/internal/models"
	"github.com/kolimbet/blog-composition-back/internal/service"

	"github.com/gofiber/fiber/v2"
)

// NameIsFree handles POST /api/name-is-free
// @Summary Check name availability
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{name=string} true "Name"
// @Success 200 {boolean} boolean
// @Failure 400 {object} models.ErrorResponse
// @Router /name-is-free [post]
func (s *Server) NameIsFree(c *fiber.Ctx) error {
	var req struct {
		Name *string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, errInvalidBody)
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return s.respondError(c, models.NewBadRequestError("Name not received"))
	}

	free, err := s.authService.NameIsFree(c.UserContext(), *req.Name)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(free)
}

// EmailIsFree handles POST /api/email-is-free
// @Summary Check email availability
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string} true "Email"
// @Success 200 {boolean} boolean
// @Failure 400 {object} models.ErrorResponse
// @Router /email-is-free [post]
func (s *Server) EmailIsFree(c *fiber.Ctx) error {
	var req struct {
		Email *string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, errInvalidBody)
	}
	if req.Email == nil || strings.TrimSpace(*req.Email) == "" {
		return s.respondError(c, models.NewBadRequestError("Email not received"))
	}

	free, err := s.authService.EmailIsFree(c.UserContext(), *req.Email)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(free)
}

// Register handles POST /api/register
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{name=string,email=string,password=string} true "Registration"
// @Success 200 {boolean} boolean
// @Failure 403 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, errInvalidBody)
	}

	if _, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(true)
}

// Login handles POST /api/login
// @Summary Log in
// @Description Revokes the user's previous tokens and issues a new one
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string,remember=boolean} true "Credentials"
// @Success 200 {object} service.LoginResult
// @Failure 422 {object} models.ErrorResponse
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Remember bool   `json:"remember"`
	}
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, errInvalidBody)
	}

	res, err := s.authService.Login(c.UserContext(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Remember: req.Remember,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(res)
}

// Logout handles GET /api/logout
// @Summary Log out
// @Tags auth
// @Produce json
// @Success 200 {object} object{success=boolean,message=string}
// @Security BearerAuth
// @Router /logout [get]
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.authService.Logout(c.UserContext(), currentUserID(c)); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Successfully logged out",
	})
}

// CheckAuth handles GET /api/check-auth
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /check-auth [get]
func (s *Server) CheckAuth(c *fiber.Ctx) error {
	user, err := s.userService.GetUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}
