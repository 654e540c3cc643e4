package repository

import (
	"context"

	"github.com/kolimbet/blog-composition-back/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	ListForPost(ctx context.Context, postID, viewerID uint, page int) ([]models.Comment, int64, error)
	LatestByUser(ctx context.Context, userID uint, limit int) ([]models.Comment, error)
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	Create(ctx context.Context, comment *models.Comment) error
	SoftDelete(ctx context.Context, comment *models.Comment, deletedBy uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// ListForPost pages the post's comments. Guests (viewerID 0) get the
// published ones; a signed-in viewer also gets their own pending comments
// ahead of the rest.
func (r *commentRepository) ListForPost(
	ctx context.Context,
	postID, viewerID uint,
	page int,
) ([]models.Comment, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID)
	order := "published_at ASC, id ASC"
	if viewerID != 0 {
		q = q.Where("(is_published = ? OR user_id = ?)", true, viewerID)
		order = "is_published DESC, " + order
	} else {
		q = q.Where("is_published = ?", true)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	comments := []models.Comment{}
	if total == 0 {
		return comments, 0, nil
	}
	err := q.Preload("User.Avatar").
		Order(order).
		Limit(models.PageSize).
		Offset(models.Offset(page, models.PageSize)).
		Find(&comments).Error
	return comments, total, err
}

func (r *commentRepository) LatestByUser(ctx context.Context, userID uint, limit int) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
}

// SoftDelete records who removed the comment, then soft-deletes it.
func (r *commentRepository) SoftDelete(ctx context.Context, comment *models.Comment, deletedBy uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Comment{}).
			Where("id = ?", comment.ID).
			Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Comment{}, comment.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		comment.DeletedBy = &deletedBy
		return nil
	})
}
