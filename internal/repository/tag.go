package repository

import (
	"context"

	"github.com/kolimbet/blog-composition-back/internal/models"

	"gorm.io/gorm"
)

// TagConflict reports which unique columns of a tag are already taken.
type TagConflict struct {
	Name bool
	Slug bool
}

// TagRepository defines persistence operations for tags.
type TagRepository interface {
	List(ctx context.Context) ([]models.Tag, error)
	GetByID(ctx context.Context, id uint) (*models.Tag, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tag, error)
	FindConflict(ctx context.Context, name, slug string, exceptID uint) (TagConflict, error)
	ExistingIDs(ctx context.Context, ids []uint) ([]uint, error)
	ListByPost(ctx context.Context, postID uint) ([]models.Tag, error)
	Create(ctx context.Context, tag *models.Tag) error
	Update(ctx context.Context, tag *models.Tag) error
	Delete(ctx context.Context, id uint) error
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository returns a TagRepository backed by GORM.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) List(ctx context.Context) ([]models.Tag, error) {
	tags := []models.Tag{}
	err := r.db.WithContext(ctx).Order("id DESC").Find(&tags).Error
	return tags, err
}

func (r *tagRepository) GetByID(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) GetBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) FindConflict(ctx context.Context, name, slug string, exceptID uint) (TagConflict, error) {
	var taken []models.Tag
	q := r.db.WithContext(ctx).Select("id", "name", "slug").Where("name = ? OR slug = ?", name, slug)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Find(&taken).Error; err != nil {
		return TagConflict{}, err
	}

	var c TagConflict
	for _, t := range taken {
		c.Name = c.Name || t.Name == name
		c.Slug = c.Slug || t.Slug == slug
	}
	return c, nil
}

func (r *tagRepository) ExistingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	return existingTagIDs(r.db.WithContext(ctx), ids)
}

func existingTagIDs(db *gorm.DB, ids []uint) ([]uint, error) {
	found := []uint{}
	if len(ids) == 0 {
		return found, nil
	}
	err := db.Model(&models.Tag{}).Where("id IN ?", ids).Order("id ASC").Pluck("id", &found).Error
	return found, err
}

func (r *tagRepository) ListByPost(ctx context.Context, postID uint) ([]models.Tag, error) {
	tags := []models.Tag{}
	err := r.db.WithContext(ctx).
		Joins("JOIN post_tag ON post_tag.tag_id = tags.id").
		Where("post_tag.post_id = ?", postID).
		Order("tags.id ASC").
		Find(&tags).Error
	return tags, err
}

func (r *tagRepository) Create(ctx context.Context, tag *models.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

func (r *tagRepository) Update(ctx context.Context, tag *models.Tag) error {
	return r.db.WithContext(ctx).Save(tag).Error
}

// Delete detaches the tag from every post and removes it.
func (r *tagRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Tag{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
