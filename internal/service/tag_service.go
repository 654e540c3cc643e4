package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/kolimbet/blog-composition-back/internal/cache"
	"github.com/kolimbet/blog-composition-back/internal/models"
	"github.com/kolimbet/blog-composition-back/internal/repository"

	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type TagService struct {
	tags  repository.TagRepository
	cache *cache.Cache
}

func NewTagService(tags repository.TagRepository, c *cache.Cache) *TagService {
	return &TagService{tags: tags, cache: c}
}

// tagFields derives the slug and the lowercase name from a trimmed name.
func tagFields(raw string) (name, tagSlug, lower string, err error) {
	name = strings.TrimSpace(raw)
	if name == "" {
		return "", "", "", models.NewValidationError("The tag name is required")
	}
	tagSlug = slug.Make(name)
	if tagSlug == "" {
		return "", "", "", models.NewValidationError("The tag name must contain letters or digits")
	}
	return name, tagSlug, cases.Lower(language.Und).String(name), nil
}

func (s *TagService) List(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.cache.Aside(ctx, cache.TagListKey, "", &tags, cache.TagListTTL, func() error {
		var err error
		tags, err = s.tags.List(ctx)
		return err
	})
	if err != nil {
		return nil, lookupError(err, "")
	}
	return tags, nil
}

// CheckName reports a conflict of the name, or of its slug, with any tag
// other than exceptID.
func (s *TagService) CheckName(ctx context.Context, raw string, exceptID uint) error {
	name, tagSlug, _, err := tagFields(raw)
	if err != nil {
		return err
	}
	return s.checkConflict(ctx, name, tagSlug, exceptID)
}

func (s *TagService) checkConflict(ctx context.Context, name, tagSlug string, exceptID uint) error {
	conflict, err := s.tags.FindConflict(ctx, name, tagSlug, exceptID)
	if err != nil {
		return lookupError(err, "")
	}
	switch {
	case conflict.Name:
		return models.NewValidationError("This name is already in use")
	case conflict.Slug:
		return models.NewValidationError("This slug is already in use")
	}
	return nil
}

func (s *TagService) Store(ctx context.Context, raw string) (*models.Tag, error) {
	name, tagSlug, lower, err := tagFields(raw)
	if err != nil {
		return nil, err
	}
	if err := s.checkConflict(ctx, name, tagSlug, 0); err != nil {
		return nil, err
	}

	tag := &models.Tag{Name: name, Slug: tagSlug, NameLowCase: lower}
	if err := s.tags.Create(ctx, tag); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, models.NewValidationError("This name is already in use")
		}
		return nil, writeError(err, "Failed saving the tag")
	}
	s.cache.Invalidate(ctx, cache.TagListKey)
	return tag, nil
}

// Update renames a tag. The same name again is a no-op.
func (s *TagService) Update(ctx context.Context, id uint, raw string) (*models.Tag, error) {
	tag, err := s.tags.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Tag not found")
	}
	name, tagSlug, lower, err := tagFields(raw)
	if err != nil {
		return nil, err
	}
	if name == tag.Name {
		return tag, nil
	}
	if err := s.checkConflict(ctx, name, tagSlug, tag.ID); err != nil {
		return nil, err
	}

	tag.Name, tag.Slug, tag.NameLowCase = name, tagSlug, lower
	if err := s.tags.Update(ctx, tag); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, models.NewValidationError("This name is already in use")
		}
		return nil, writeError(err, "Failed updating the tag")
	}
	s.cache.Invalidate(ctx, cache.TagListKey)
	s.cache.InvalidateGroup(ctx, cache.TagPostsGroupKey(tag.ID))
	return tag, nil
}

func (s *TagService) Destroy(ctx context.Context, id uint) (string, error) {
	if err := s.tags.Delete(ctx, id); err != nil {
		return "", lookupError(err, "Tag not found")
	}
	s.cache.Invalidate(ctx, cache.TagListKey)
	s.cache.InvalidateGroup(ctx, cache.TagPostsGroupKey(id))
	return fmt.Sprintf("Tag #%d has been successfully deleted", id), nil
}
