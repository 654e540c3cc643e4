package server

import (
	"github.com/kolimbet/blog-composition-back/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListComments handles GET /api/posts/:post/comments
// @Summary Comments of a post
// @Description Guests see published comments. A signed-in viewer also sees their own pending ones.
// @Tags comments
// @Produce json
// @Param post path int true "Post ID"
// @Param page query int false "Page"
// @Success 200 {object} models.Page[models.Comment]
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{post}/comments [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "post")
	if err != nil {
		return s.respondError(c, err)
	}
	page, err := s.commentService.ListForPost(c.UserContext(), postID, s.optionalUserID(c), pageQuery(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(page)
}

// StoreComment handles POST /api/posts/:post/comment-add
// @Summary Add a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param post path int true "Post ID"
// @Param request body object{text_raw=string,text_html=string} true "Comment"
// @Success 200 {object} models.Comment
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{post}/comment-add [post]
func (s *Server) StoreComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "post")
	if err != nil {
		return s.respondError(c, err)
	}
	var req struct {
		TextRaw  string `json:"text_raw"`
		TextHTML string `json:"text_html"`
	}
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, errInvalidBody)
	}

	comment, err := s.commentService.Store(c.UserContext(), service.CreateCommentInput{
		UserID:   currentUserID(c),
		PostID:   postID,
		TextRaw:  req.TextRaw,
		TextHTML: req.TextHTML,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(comment)
}

// DestroyComment handles DELETE /api/comments/:comment
// @Summary Delete a comment
// @Tags comments
// @Produce json
// @Param comment path int true "Comment ID"
// @Success 200 {array} string
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /comments/{comment} [delete]
func (s *Server) DestroyComment(c *fiber.Ctx) error {
	id, err := parseID(c, "comment")
	if err != nil {
		return s.respondError(c, err)
	}
	userID := currentUserID(c)
	msg, err := s.commentService.Destroy(c.UserContext(), userID, s.viewerIsAdmin(c, userID), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON([]string{msg})
}
