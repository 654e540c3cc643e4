package server

import "github.com/gofiber/fiber/v2"

// AddLike handles GET /api/posts/:post/like-add
// @Summary Like a post
// @Tags likes
// @Produce json
// @Param post path int true "Post ID"
// @Success 200 {object} models.PostLike
// @Security BearerAuth
// @Router /posts/{post}/like-add [get]
func (s *Server) AddLike(c *fiber.Ctx) error {
	postID, err := parseID(c, "post")
	if err != nil {
		return s.respondError(c, err)
	}
	like, err := s.likeService.Add(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(like)
}

// DestroyLike handles GET /api/posts/:post/like-destroy
// @Summary Remove a like
// @Tags likes
// @Produce json
// @Param post path int true "Post ID"
// @Success 200 {integer} integer "Like ID"
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{post}/like-destroy [get]
func (s *Server) DestroyLike(c *fiber.Ctx) error {
	postID, err := parseID(c, "post")
	if err != nil {
		return s.respondError(c, err)
	}
	id, err := s.likeService.Destroy(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(id)
}
