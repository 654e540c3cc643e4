package server

import (
	"github.com/gofiber/fiber/v2"
)

type tagRequest struct {
	Name  string `json:"name"`
	TagID uint   `json:"tag_id"`
}

// ListTags handles GET /api/admin/tags
// @Summary All tags
// @Tags admin
// @Produce json
// @Success 200 {array} models.Tag
// @Security BearerAuth
// @Router /admin/tags [get]
func (s *Server) ListTags(c *fiber.Ctx) error {
	tags, err := s.tagService.List(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(tags)
}

// CheckTagName handles POST /api/admin/tags/check-name
// @Summary Check a tag name
// @Tags admin
// @Accept json
// @Produce json
// @Param request body tagRequest true "Name and the tag to ignore"
// @Success 200 {string} string
// @Failure 422 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/tags/check-name [post]
func (s *Server) CheckTagName(c *fiber.Ctx) error {
	var req tagRequest
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, errInvalidBody)
	}
	if err := s.tagService.CheckName(c.UserContext(), req.Name, req.TagID); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON("Validation has been successfully completed")
}

// StoreTag handles POST /api/admin/tags
// @Summary Create a tag
// @Tags admin
// @Accept json
// @Produce json
// @Param request body tagRequest true "Tag"
// @Success 200 {object} models.Tag
// @Security BearerAuth
// @Router /admin/tags [post]
func (s *Server) StoreTag(c *fiber.Ctx) error {
	var req tagRequest
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, errInvalidBody)
	}
	tag, err := s.tagService.Store(c.UserContext(), req.Name)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(tag)
}

// UpdateTag handles POST /api/admin/tags/:tag
// @Summary Rename a tag
// @Tags admin
// @Accept json
// @Produce json
// @Param tag path int true "Tag ID"
// @Param request body tagRequest true "Tag"
// @Success 200 {object} models.Tag
// @Security BearerAuth
// @Router /admin/tags/{tag} [post]
func (s *Server) UpdateTag(c *fiber.Ctx) error {
	id, err := parseID(c, "tag")
	if err != nil {
		return s.respondError(c, err)
	}
	var req tagRequest
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, errInvalidBody)
	}
	tag, err := s.tagService.Update(c.UserContext(), id, req.Name)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(tag)
}

// DestroyTag handles DELETE /api/admin/tags/:tag
// @Summary Delete a tag
// @Tags admin
// @Produce json
// @Param tag path int true "Tag ID"
// @Success 200 {array} string
// @Security BearerAuth
// @Router /admin/tags/{tag} [delete]
func (s *Server) DestroyTag(c *fiber.Ctx) error {
	id, err := parseID(c, "tag")
	if err != nil {
		return s.respondError(c, err)
	}
	msg, err := s.tagService.Destroy(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON([]string{msg})
}
