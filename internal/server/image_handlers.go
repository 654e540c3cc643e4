package server

import (
	"strconv"
	"strings"

	"github.com/kolimbet/blog-composition-back/internal/models"
	"github.com/kolimbet/blog-composition-back/internal/service"

	"github.com/gofiber/fiber/v2"
)

// uploadInput reads the image file and its display name from a multipart form.
func (s *Server) uploadInput(c *fiber.Ctx) (service.UploadInput, error) {
	content, filename, err := readUpload(c, "image", s.imageService.MaxUploadBytes())
	if err != nil {
		return service.UploadInput{}, err
	}
	name := strings.TrimSpace(c.FormValue("image_name"))
	if name == "" {
		name = filename
	}
	return service.UploadInput{UserID: currentUserID(c), ImageName: name, Content: content}, nil
}

// ListAvatars handles GET /api/avatars
// @Summary Own avatar images
// @Tags images
// @Produce json
// @Success 200 {array} models.Image
// @Security BearerAuth
// @Router /avatars [get]
func (s *Server) ListAvatars(c *fiber.Ctx) error {
	images, err := s.imageService.ListAvatars(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(images)
}

// StoreAvatar handles POST /api/avatars
// @Summary Upload an avatar image
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image"
// @Param image_name formData string false "Display name"
// @Success 200 {object} service.UploadResult
// @Failure 422 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /avatars [post]
func (s *Server) StoreAvatar(c *fiber.Ctx) error {
	in, err := s.uploadInput(c)
	if err != nil {
		return s.respondError(c, err)
	}
	res, err := s.imageService.StoreAvatar(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(res)
}

// DestroyAvatar handles DELETE /api/avatars/:id
// @Summary Delete an own avatar image
// @Tags images
// @Produce json
// @Param id path int true "Image ID"
// @Success 200 {string} string
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /avatars/{id} [delete]
func (s *Server) DestroyAvatar(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	msg, err := s.imageService.DestroyAvatar(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(msg)
}

// ListPostImages handles GET /api/images/post/:post
// @Summary Images of a post
// @Tags images
// @Produce json
// @Param post path int true "Post ID"
// @Success 200 {array} models.Image
// @Security BearerAuth
// @Router /images/post/{post} [get]
func (s *Server) ListPostImages(c *fiber.Ctx) error {
	postID, err := parseID(c, "post")
	if err != nil {
		return s.respondError(c, err)
	}
	images, err := s.imageService.ListForPost(c.UserContext(), postID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(images)
}

// StorePostImage handles POST /api/images
// @Summary Upload a post image
// @Description Without image_path a new directory under images/ is created.
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image"
// @Param image_name formData string false "Display name"
// @Param image_path formData string false "Post image directory"
// @Param post_id formData int false "Post ID"
// @Success 200 {object} service.UploadResult
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /images [post]
func (s *Server) StorePostImage(c *fiber.Ctx) error {
	in, err := s.uploadInput(c)
	if err != nil {
		return s.respondError(c, err)
	}
	req := service.PostUploadInput{
		UploadInput: in,
		ImagePath:   c.FormValue("image_path"),
	}
	if raw := strings.TrimSpace(c.FormValue("post_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			return s.respondError(c, models.NewBadRequestError("Invalid post ID"))
		}
		postID := uint(id)
		req.PostID = &postID
	}

	res, err := s.imageService.StoreForPost(c.UserContext(), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(res)
}

// DestroyImage handles DELETE /api/images/:id
// @Summary Delete an image
// @Tags images
// @Produce json
// @Param id path int true "Image ID"
// @Success 200 {string} string
// @Security BearerAuth
// @Router /images/{id} [delete]
func (s *Server) DestroyImage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	msg, err := s.imageService.DestroyImage(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(msg)
}

// ClearNonAttachedImages handles POST /api/images/clear
// @Summary Drop an abandoned post image directory
// @Tags images
// @Accept json
// @Produce json
// @Param request body object{image_path=string,image_counter=int} true "Directory"
// @Success 200 {string} string
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /images/clear [post]
func (s *Server) ClearNonAttachedImages(c *fiber.Ctx) error {
	var req struct {
		ImagePath    string `json:"image_path"`
		ImageCounter *int   `json:"image_counter"`
	}
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, errInvalidBody)
	}
	msg, err := s.imageService.ClearNonAttached(c.UserContext(), req.ImagePath, req.ImageCounter)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(msg)
}
