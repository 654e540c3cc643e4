package server

import (
	"encoding/json"

	"github.com/kolimbet/blog-composition-back/internal/models"
	"github.com/kolimbet/blog-composition-back/internal/service"

	"github.com/gofiber/fiber/v2"
)

// postRequest is the admin payload of Store and Update. Optional fields
// left out of an update keep their stored values.
type postRequest struct {
	Title        string                   `json:"title"`
	Slug         string                   `json:"slug"`
	ExcerptRaw   service.Optional[string] `json:"excerpt_raw" swaggertype:"string"`
	ExcerptHTML  service.Optional[string] `json:"excerpt_html" swaggertype:"string"`
	ContentRaw   string                   `json:"content_raw"`
	ContentHTML  string                   `json:"content_html"`
	IsPublished  service.Optional[bool]   `json:"is_published" swaggertype:"boolean"`
	ImagePath    service.Optional[string] `json:"image_path" swaggertype:"string"`
	ImageCounter *int                     `json:"image_counter"`
	Tags         json.RawMessage          `json:"tags" swaggertype:"array,object"`
}

var (
	errTagsNotReceived         = models.NewBadRequestError("Bad request: tags not received")
	errImageCounterNotReceived = models.NewBadRequestError("Bad request: image_counter not received")
)

func (r postRequest) input(userID uint) (service.PostInput, error) {
	tagIDs, err := parseTagIDs(r.Tags)
	if err != nil {
		return service.PostInput{}, err
	}
	in := service.PostInput{
		UserID:      userID,
		Title:       r.Title,
		Slug:        r.Slug,
		ContentRaw:  r.ContentRaw,
		ContentHTML: r.ContentHTML,
		ExcerptRaw:  r.ExcerptRaw,
		ExcerptHTML: r.ExcerptHTML,
		IsPublished: r.IsPublished,
		ImagePath:   r.ImagePath,
		TagIDs:      tagIDs,
	}
	if r.ImageCounter != nil {
		in.ImageCounter = *r.ImageCounter
	}
	return in, nil
}

// Feed handles GET /api/posts
// @Summary Published posts
// @Tags posts
// @Produce json
// @Param page query int false "Page"
// @Success 200 {object} models.Page[models.Post]
// @Router /posts [get]
func (s *Server) Feed(c *fiber.Ctx) error {
	page, err := s.postService.Feed(c.UserContext(), pageQuery(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(page)
}

// PostsByTag handles GET /api/posts/by-tag/:tagSlug
// @Summary Published posts with a tag
// @Tags posts
// @Produce json
// @Param tagSlug path string true "Tag slug"
// @Param page query int false "Page"
// @Success 200 {object} models.Page[models.Post]
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/by-tag/{tagSlug} [get]
func (s *Server) PostsByTag(c *fiber.Ctx) error {
	page, err := s.postService.ListByTag(c.UserContext(), c.Params("tagSlug"), pageQuery(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(page)
}

// ShowPost handles GET /api/posts/:slug
// @Summary One post by id or slug
// @Tags posts
// @Produce json
// @Param slug path string true "Post ID or slug"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{slug} [get]
func (s *Server) ShowPost(c *fiber.Ctx) error {
	viewer := s.optionalUserID(c)
	post, err := s.postService.Show(c.UserContext(), c.Params("slug"), s.viewerIsAdmin(c, viewer))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(post)
}

// AdminListPosts handles GET /api/admin/posts
// @Summary All posts
// @Tags admin
// @Produce json
// @Param page query int false "Page"
// @Success 200 {object} models.Page[models.Post]
// @Security BearerAuth
// @Router /admin/posts [get]
func (s *Server) AdminListPosts(c *fiber.Ctx) error {
	page, err := s.postService.AdminList(c.UserContext(), pageQuery(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(page)
}

// AdminShowPost handles GET /api/admin/posts/:slug
// @Summary Post with its tags and images
// @Tags admin
// @Produce json
// @Param slug path string true "Post ID or slug"
// @Success 200 {object} service.PostBundle
// @Security BearerAuth
// @Router /admin/posts/{slug} [get]
func (s *Server) AdminShowPost(c *fiber.Ctx) error {
	bundle, err := s.postService.AdminShow(c.UserContext(), c.Params("slug"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(bundle)
}

// StorePost handles POST /api/admin/posts
// @Summary Create a post
// @Tags admin
// @Accept json
// @Produce json
// @Param request body postRequest true "Post"
// @Success 200 {integer} integer "Post ID"
// @Failure 400 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/posts [post]
func (s *Server) StorePost(c *fiber.Ctx) error {
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, errInvalidBody)
	}
	if req.ImageCounter == nil {
		return s.respondError(c, errImageCounterNotReceived)
	}
	in, err := req.input(currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}

	id, err := s.postService.Store(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(id)
}

// UpdatePost handles POST /api/admin/posts/:post
// @Summary Update a post
// @Tags admin
// @Accept json
// @Produce json
// @Param post path int true "Post ID"
// @Param request body postRequest true "Post"
// @Success 200 {object} service.PostBundle
// @Security BearerAuth
// @Router /admin/posts/{post} [post]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "post")
	if err != nil {
		return s.respondError(c, err)
	}
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return s.respondError(c, errInvalidBody)
	}
	in, err := req.input(currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}

	bundle, err := s.postService.Update(c.UserContext(), id, in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(bundle)
}

// DestroyPost handles DELETE /api/admin/posts/:post
// @Summary Delete a post with its images
// @Tags admin
// @Produce json
// @Param post path int true "Post ID"
// @Success 200 {array} string
// @Security BearerAuth
// @Router /admin/posts/{post} [delete]
func (s *Server) DestroyPost(c *fiber.Ctx) error {
	id, err := parseID(c, "post")
	if err != nil {
		return s.respondError(c, err)
	}
	msg, err := s.postService.Destroy(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON([]string{msg})
}
