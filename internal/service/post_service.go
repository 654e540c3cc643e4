package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kolimbet/blog-composition-back/internal/cache"
	"github.com/kolimbet/blog-composition-back/internal/middleware"
	"github.com/kolimbet/blog-composition-back/internal/models"
	"github.com/kolimbet/blog-composition-back/internal/notifications"
	"github.com/kolimbet/blog-composition-back/internal/observability"
	"github.com/kolimbet/blog-composition-back/internal/repository"
	"github.com/kolimbet/blog-composition-back/internal/storage"

	"github.com/gosimple/slug"
	"go.opentelemetry.io/otel/attribute"
)

const maxTitleLength = 255

type PostService struct {
	posts  repository.PostRepository
	tags   repository.TagRepository
	images repository.ImageRepository
	cache  *cache.Cache
	disk   *storage.Disk
	events *notifications.Notifier
	now    func() time.Time
}

// PostInput is the admin payload for creating and updating posts.
type PostInput struct {
	UserID      uint
	Title       string
	Slug        string
	ContentRaw  string
	ContentHTML string
	// Fields not sent keep their stored values on update.
	ExcerptRaw  Optional[string]
	ExcerptHTML Optional[string]
	IsPublished Optional[bool]
	ImagePath   Optional[string]
	// ImageCounter is only read on create.
	ImageCounter int
	TagIDs       []uint
}

// PostBundle is the admin view of a post.
type PostBundle struct {
	Post   *models.Post   `json:"post"`
	Tags   []models.Tag   `json:"tags"`
	Images []models.Image `json:"images"`
}

func NewPostService(
	posts repository.PostRepository,
	tags repository.TagRepository,
	images repository.ImageRepository,
	c *cache.Cache,
	disk *storage.Disk,
	events *notifications.Notifier,
) *PostService {
	return &PostService{
		posts:  posts,
		tags:   tags,
		images: images,
		cache:  c,
		disk:   disk,
		events: events,
		now:    time.Now,
	}
}

// DiffTags returns the ids to attach (in next only) and to detach (in
// current only). Duplicates are ignored and both results are sorted.
func DiffTags(current, next []uint) (attach, detach []uint) {
	have := make(map[uint]struct{}, len(current))
	for _, id := range current {
		have[id] = struct{}{}
	}
	want := make(map[uint]struct{}, len(next))
	for _, id := range next {
		want[id] = struct{}{}
	}

	for id := range want {
		if _, ok := have[id]; !ok {
			attach = append(attach, id)
		}
	}
	for id := range have {
		if _, ok := want[id]; !ok {
			detach = append(detach, id)
		}
	}
	slices.Sort(attach)
	slices.Sort(detach)
	return attach, detach
}

// MakePostSlug uses the received slug or builds one from the title, then
// caps it at models.PostSlugMaxLength.
func MakePostSlug(received, title string) string {
	s := strings.TrimSpace(received)
	if s == "" {
		s = slug.Make(title)
	}
	if utf8.RuneCountInString(s) > models.PostSlugMaxLength {
		s = strings.TrimRight(string([]rune(s)[:models.PostSlugMaxLength]), "-")
	}
	return s
}

func (s *PostService) Feed(ctx context.Context, page int) (models.Page[models.Post], error) {
	posts, total, err := s.posts.ListPublished(ctx, page)
	if err != nil {
		return models.Page[models.Post]{}, lookupError(err, "")
	}
	return models.NewPage(posts, page, models.PageSize, total), nil
}

func (s *PostService) ListByTag(ctx context.Context, tagSlug string, page int) (models.Page[models.Post], error) {
	tag, err := s.tags.GetBySlug(ctx, tagSlug)
	if err != nil {
		return models.Page[models.Post]{}, lookupError(err, "Tag not found")
	}
	posts, total, err := s.posts.ListPublishedByTag(ctx, tag.ID, page)
	if err != nil {
		return models.Page[models.Post]{}, lookupError(err, "")
	}
	return models.NewPage(posts, page, models.PageSize, total), nil
}

func (s *PostService) AdminList(ctx context.Context, page int) (models.Page[models.Post], error) {
	posts, total, err := s.posts.ListAll(ctx, page)
	if err != nil {
		return models.Page[models.Post]{}, lookupError(err, "")
	}
	return models.NewPage(posts, page, models.PageSize, total), nil
}

// Show returns a post by id or slug. Drafts are visible to admins only.
func (s *PostService) Show(ctx context.Context, key string, viewerIsAdmin bool) (*models.Post, error) {
	cacheKey := cache.PostDetailKey(key)

	var post models.Post
	found, err := s.cache.GetJSON(ctx, cacheKey, &post)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "post cache read failed", slog.String("error", err.Error()))
	}
	if !found {
		loaded, err := s.posts.FindByKey(ctx, key)
		if err != nil {
			return nil, lookupError(err, "Post not found")
		}
		post = *loaded
		s.cache.Store(ctx, cacheKey, &post, cache.PostDetailTTL, detailGroups(&post)...)
	}

	if !post.IsPublished && !viewerIsAdmin {
		return nil, models.NewForbiddenError("This post is not published")
	}
	return &post, nil
}

// detailGroups are the cache groups whose invalidation must drop a cached
// post: its own, its author's and one per tag.
func detailGroups(post *models.Post) []string {
	groups := []string{cache.PostGroupKey(post.ID), cache.UserPostsGroupKey(post.UserID)}
	for _, tag := range post.Tags {
		groups = append(groups, cache.TagPostsGroupKey(tag.ID))
	}
	return groups
}

func (s *PostService) AdminShow(ctx context.Context, key string) (*PostBundle, error) {
	post, err := s.posts.FindByKey(ctx, key)
	if err != nil {
		return nil, lookupError(err, "Post not found")
	}
	return s.bundle(ctx, post)
}

func (s *PostService) bundle(ctx context.Context, post *models.Post) (*PostBundle, error) {
	tags, err := s.tags.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, lookupError(err, "")
	}
	images, err := s.images.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, lookupError(err, "")
	}
	return &PostBundle{Post: post, Tags: tags, Images: images}, nil
}

func validatePostInput(in *PostInput) error {
	in.Title = strings.TrimSpace(in.Title)
	switch {
	case in.Title == "":
		return models.NewValidationError("The title field is required")
	case utf8.RuneCountInString(in.Title) > maxTitleLength:
		return models.NewValidationError(fmt.Sprintf("The title may not be greater than %d characters", maxTitleLength))
	case strings.TrimSpace(in.ContentRaw) == "" || strings.TrimSpace(in.ContentHTML) == "":
		return models.NewValidationError("The content field is required")
	}
	if in.ImagePath.Value != nil {
		if p := strings.TrimSpace(*in.ImagePath.Value); p == "" {
			in.ImagePath.Value = nil
		} else {
			cleaned, err := storage.Clean(p)
			if err != nil {
				return models.NewValidationError("The image_path is invalid")
			}
			in.ImagePath.Value = &cleaned
		}
	}
	return nil
}

func (s *PostService) claimSlug(ctx context.Context, in PostInput, exceptID uint) (string, error) {
	postSlug := MakePostSlug(in.Slug, in.Title)
	if postSlug == "" {
		return "", models.NewValidationError("The slug field is required")
	}
	taken, err := s.posts.SlugTaken(ctx, postSlug, exceptID)
	if err != nil {
		return "", lookupError(err, "")
	}
	if taken {
		return "", models.NewBadRequestError("This Slug is already being used by another post")
	}
	return postSlug, nil
}

// Store creates a post, attaches its tags and claims the images uploaded
// into its image directory. It returns the new post id.
func (s *PostService) Store(ctx context.Context, in PostInput) (id uint, err error) {
	ctx, span := observability.StartSpan(ctx, "post.store")
	defer func() { span.End(err) }()

	if err := validatePostInput(&in); err != nil {
		return 0, err
	}
	postSlug, err := s.claimSlug(ctx, in, 0)
	if err != nil {
		return 0, err
	}

	post := &models.Post{
		UserID:      in.UserID,
		Title:       in.Title,
		Slug:        postSlug,
		ExcerptRaw:  in.ExcerptRaw.Value,
		ExcerptHTML: in.ExcerptHTML.Value,
		ContentRaw:  in.ContentRaw,
		ContentHTML: in.ContentHTML,
		ImagePath:   in.ImagePath.Value,
	}
	post.SetPublished(in.IsPublished.Value != nil && *in.IsPublished.Value, s.now().UTC())

	attachImages := post.ImagePath != nil && in.ImageCounter > 0
	if err := s.posts.Create(ctx, post, in.TagIDs, attachImages); err != nil {
		if repository.IsUniqueViolation(err) {
			return 0, models.NewBadRequestError("This Slug is already being used by another post")
		}
		return 0, writeError(err, "Failed saving the post")
	}
	span.AddAttributes(attribute.Int64("post.id", int64(post.ID)))

	if post.IsPublished {
		observability.PostsPublishedTotal.Inc()
		s.announce(ctx, post)
	}
	middleware.Logger.InfoContext(ctx, "post created",
		slog.Uint64("post_id", uint64(post.ID)),
		slog.Bool("published", post.IsPublished),
		slog.Bool("images_attached", attachImages),
	)
	return post.ID, nil
}

// Update rewrites the received fields, keeping stored values for optional
// fields left out, and reconciles the post's tags with TagIDs.
func (s *PostService) Update(ctx context.Context, id uint, in PostInput) (bundle *PostBundle, err error) {
	ctx, span := observability.StartSpan(ctx, "post.update", attribute.Int64("post.id", int64(id)))
	defer func() { span.End(err) }()

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Post not found")
	}
	if err := validatePostInput(&in); err != nil {
		return nil, err
	}
	postSlug, err := s.claimSlug(ctx, in, post.ID)
	if err != nil {
		return nil, err
	}

	current, err := s.posts.TagIDs(ctx, post.ID)
	if err != nil {
		return nil, lookupError(err, "")
	}
	attach, detach := DiffTags(current, in.TagIDs)
	span.AddAttributes(attribute.Int("tags.attach", len(attach)), attribute.Int("tags.detach", len(detach)))

	wasPublished := post.IsPublished
	post.Title = in.Title
	post.Slug = postSlug
	post.ExcerptRaw = in.ExcerptRaw.Or(post.ExcerptRaw)
	post.ExcerptHTML = in.ExcerptHTML.Or(post.ExcerptHTML)
	post.ContentRaw = in.ContentRaw
	post.ContentHTML = in.ContentHTML
	post.ImagePath = in.ImagePath.Or(post.ImagePath)
	if in.IsPublished.Value != nil {
		post.SetPublished(*in.IsPublished.Value, s.now().UTC())
	}

	if err := s.posts.Update(ctx, post, attach, detach); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, models.NewBadRequestError("This Slug is already being used by another post")
		}
		return nil, writeError(err, "Failed updating the post")
	}
	s.cache.InvalidateGroup(ctx, cache.PostGroupKey(post.ID))

	if !wasPublished && post.IsPublished {
		observability.PostsPublishedTotal.Inc()
		s.announce(ctx, post)
	}
	return s.bundle(ctx, post)
}

// announce publishes the post.published event. Failures are only logged.
func (s *PostService) announce(ctx context.Context, post *models.Post) {
	if err := s.events.PostPublished(ctx, post); err != nil {
		middleware.Logger.WarnContext(ctx, "post event not published",
			slog.Uint64("post_id", uint64(post.ID)),
			slog.String("error", err.Error()),
		)
	}
}

// Destroy removes the post's image directory and rows, detaches its tags
// and soft-deletes it.
func (s *PostService) Destroy(ctx context.Context, id uint) (msg string, err error) {
	ctx, span := observability.StartSpan(ctx, "post.destroy", attribute.Int64("post.id", int64(id)))
	defer func() { span.End(err) }()

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return "", lookupError(err, "Post not found")
	}

	if post.ImagePath != nil && *post.ImagePath != "" {
		path := *post.ImagePath
		if _, err := s.images.DeleteByPath(ctx, path); err != nil {
			return "", writeError(err, "Failed deleting the post images")
		}
		if err := s.disk.DeleteDir(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return "", models.NewFailedDeletingDirectoryError(
					fmt.Sprintf("Failed to delete the directory %s", path), err)
			}
			middleware.Logger.WarnContext(ctx, "post image directory not found", slog.String("path", path))
		}
	}

	if err := s.posts.Delete(ctx, post.ID); err != nil {
		return "", lookupError(err, "Post not found")
	}
	s.cache.InvalidateGroup(ctx, cache.PostGroupKey(post.ID))

	middleware.Logger.InfoContext(ctx, "post deleted", slog.Uint64("post_id", uint64(post.ID)))
	return fmt.Sprintf("Post #%d has been successfully deleted", post.ID), nil
}
