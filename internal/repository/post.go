package repository

import (
	"context"
	"strconv"

	"github.com/kolimbet/blog-composition-back/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	ListPublished(ctx context.Context, page int) ([]models.Post, int64, error)
	ListPublishedByTag(ctx context.Context, tagID uint, page int) ([]models.Post, int64, error)
	ListAll(ctx context.Context, page int) ([]models.Post, int64, error)
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	FindByKey(ctx context.Context, key string) (*models.Post, error)
	LatestPublishedByUser(ctx context.Context, userID uint) (*models.Post, error)
	SlugTaken(ctx context.Context, slug string, exceptID uint) (bool, error)
	TagIDs(ctx context.Context, postID uint) ([]uint, error)
	Create(ctx context.Context, post *models.Post, tagIDs []uint, attachImages bool) error
	Update(ctx context.Context, post *models.Post, attach, detach []uint) error
	SetImagePath(ctx context.Context, postID uint, path string) error
	Delete(ctx context.Context, postID uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) paginate(q *gorm.DB, page int, order string, preload bool) ([]models.Post, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	posts := []models.Post{}
	if total == 0 {
		return posts, 0, nil
	}
	if preload {
		q = q.Preload("User.Avatar").Preload("Likes")
	}
	err := q.Order(order).
		Limit(models.PageSize).
		Offset(models.Offset(page, models.PageSize)).
		Find(&posts).Error
	return posts, total, err
}

func (r *postRepository) ListPublished(ctx context.Context, page int) ([]models.Post, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{}).Where("is_published = ?", true)
	return r.paginate(q, page, "published_at DESC, id DESC", true)
}

func (r *postRepository) ListPublishedByTag(ctx context.Context, tagID uint, page int) ([]models.Post, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("is_published = ?", true).
		Where("id IN (?)", r.db.Model(&models.PostTag{}).Select("post_id").Where("tag_id = ?", tagID))
	return r.paginate(q, page, "published_at DESC, id DESC", true)
}

func (r *postRepository) ListAll(ctx context.Context, page int) ([]models.Post, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	return r.paginate(q, page, "id DESC", false)
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("User.Avatar").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id ASC") }).
		Preload("Likes")
}

// FindByKey resolves a numeric key as an id first, then any key as a slug.
// The post comes with its author, tags, likes and comment count.
func (r *postRepository) FindByKey(ctx context.Context, key string) (*models.Post, error) {
	var post models.Post
	err := gorm.ErrRecordNotFound
	if id, convErr := strconv.ParseUint(key, 10, 64); convErr == nil && id > 0 {
		err = r.withDetails(ctx).First(&post, id).Error
		if err != nil && !IsNotFound(err) {
			return nil, err
		}
	}
	if IsNotFound(err) {
		post = models.Post{}
		if err = r.withDetails(ctx).Where("slug = ?", key).First(&post).Error; err != nil {
			return nil, err
		}
	}

	if err := r.fillCommentsCount(ctx, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) LatestPublishedByUser(ctx context.Context, userID uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("User.Avatar").
		Preload("Likes").
		Where("user_id = ? AND is_published = ?", userID, true).
		Order("id DESC").
		First(&post).Error
	if err != nil {
		return nil, err
	}
	if err := r.fillCommentsCount(ctx, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) fillCommentsCount(ctx context.Context, post *models.Post) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("post_id = ?", post.ID).
		Count(&count).Error; err != nil {
		return err
	}
	post.CommentsCount = &count
	return nil
}

// SlugTaken checks soft-deleted posts too since the unique index covers them.
func (r *postRepository) SlugTaken(ctx context.Context, slug string, exceptID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Unscoped().Model(&models.Post{}).Where("slug = ?", slug)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *postRepository) TagIDs(ctx context.Context, postID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Model(&models.PostTag{}).
		Where("post_id = ?", postID).
		Order("tag_id ASC").
		Pluck("tag_id", &ids).Error
	return ids, err
}

func attachTags(tx *gorm.DB, postID uint, tagIDs []uint) error {
	existing, err := existingTagIDs(tx, tagIDs)
	if err != nil || len(existing) == 0 {
		return err
	}
	rows := make([]models.PostTag, 0, len(existing))
	for _, id := range existing {
		rows = append(rows, models.PostTag{PostID: postID, TagID: id})
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// Create stores the post, attaches the tags that exist and, when asked,
// links the images uploaded into the post's directory.
func (r *postRepository) Create(ctx context.Context, post *models.Post, tagIDs []uint, attachImages bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		if err := attachTags(tx, post.ID, tagIDs); err != nil {
			return err
		}
		if attachImages && post.ImagePath != nil && *post.ImagePath != "" {
			if err := tx.Model(&models.Image{}).
				Where("attached_to_post = ? AND path = ?", true, *post.ImagePath).
				Update("post_id", post.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Update applies the tag diff and saves the post's own columns.
func (r *postRepository) Update(ctx context.Context, post *models.Post, attach, detach []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := attachTags(tx, post.ID, attach); err != nil {
			return err
		}
		if len(detach) > 0 {
			if err := tx.Where("post_id = ? AND tag_id IN ?", post.ID, detach).
				Delete(&models.PostTag{}).Error; err != nil {
				return err
			}
		}
		return tx.Omit(clause.Associations).Save(post).Error
	})
}

func (r *postRepository) SetImagePath(ctx context.Context, postID uint, path string) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).Update("image_path", path)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete detaches the tags and soft-deletes the post.
func (r *postRepository) Delete(ctx context.Context, postID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, postID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
