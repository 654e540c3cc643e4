package repository

import (
	"context"

	"github.com/kolimbet/blog-composition-back/internal/models"

	"gorm.io/gorm"
)

// ImageRepository persists uploaded image metadata.
type ImageRepository interface {
	Create(ctx context.Context, image *models.Image) error
	GetByID(ctx context.Context, id uint) (*models.Image, error)
	GetForUser(ctx context.Context, id, userID uint) (*models.Image, error)
	ListAvatars(ctx context.Context, userID uint) ([]models.Image, error)
	ListByPost(ctx context.Context, postID uint) ([]models.Image, error)
	NameExists(ctx context.Context, path, name string) (bool, error)
	Delete(ctx context.Context, id uint) error
	DeleteByPath(ctx context.Context, path string) (int64, error)
	DeleteAttachedByPath(ctx context.Context, path string) (int64, error)
}

type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository returns an ImageRepository backed by GORM.
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) Create(ctx context.Context, image *models.Image) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *imageRepository) GetByID(ctx context.Context, id uint) (*models.Image, error) {
	var image models.Image
	if err := r.db.WithContext(ctx).First(&image, id).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *imageRepository) GetForUser(ctx context.Context, id, userID uint) (*models.Image, error) {
	var image models.Image
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *imageRepository) ListAvatars(ctx context.Context, userID uint) ([]models.Image, error) {
	images := []models.Image{}
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND attached_to_post = ?", userID, false).
		Order("id DESC").
		Find(&images).Error
	return images, err
}

func (r *imageRepository) ListByPost(ctx context.Context, postID uint) ([]models.Image, error) {
	images := []models.Image{}
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).Order("id ASC").Find(&images).Error
	return images, err
}

func (r *imageRepository) NameExists(ctx context.Context, path, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Image{}).
		Where("path = ? AND name = ?", path, name).
		Count(&count).Error
	return count > 0, err
}

func (r *imageRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Image{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteByPath removes every image row stored in path.
func (r *imageRepository) DeleteByPath(ctx context.Context, path string) (int64, error) {
	res := r.db.WithContext(ctx).Where("path = ?", path).Delete(&models.Image{})
	return res.RowsAffected, res.Error
}

// DeleteAttachedByPath removes post images in path that were uploaded
// during an editing session.
func (r *imageRepository) DeleteAttachedByPath(ctx context.Context, path string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("attached_to_post = ? AND path = ?", true, path).
		Delete(&models.Image{})
	return res.RowsAffected, res.Error
}
