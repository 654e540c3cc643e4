package repository

import (
	"context"

	"github.com/kolimbet/blog-composition-back/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetProfile(ctx context.Context, id uint) (*models.User, error)
	NameExists(ctx context.Context, name string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	IsAdmin(ctx context.Context, id uint) (bool, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	SetAvatar(ctx context.Context, id uint, imageID *uint) error
	ClearAvatar(ctx context.Context, imageID uint) error
	ListAdmins(ctx context.Context) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Avatar").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Avatar").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetProfile loads the user with the avatar and the comment and post counters.
func (r *userRepository) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var comments, posts int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("user_id = ?", id).Count(&comments).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("user_id = ?", id).Count(&posts).Error; err != nil {
		return nil, err
	}
	user.CommentsCount = &comments
	user.PostsCount = &posts
	return user, nil
}

func (r *userRepository) exists(ctx context.Context, column, value string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.User{}).
		Where(column+" = ?", value).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

// NameExists includes soft-deleted users since the unique index does.
func (r *userRepository) NameExists(ctx context.Context, name string) (bool, error) {
	return r.exists(ctx, "name", name)
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email", email)
}

func (r *userRepository) IsAdmin(ctx context.Context, id uint) (bool, error) {
	var flags []bool
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Limit(1).
		Pluck("is_admin", &flags).Error; err != nil {
		return false, err
	}
	return len(flags) > 0 && flags[0], nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.updateColumn(ctx, id, "password", hash)
}

func (r *userRepository) SetAvatar(ctx context.Context, id uint, imageID *uint) error {
	return r.updateColumn(ctx, id, "avatar_id", imageID)
}

func (r *userRepository) updateColumn(ctx context.Context, id uint, column string, value any) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearAvatar unsets the avatar of every user pointing at imageID.
func (r *userRepository) ClearAvatar(ctx context.Context, imageID uint) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("avatar_id = ?", imageID).
		Update("avatar_id", nil).Error
}

func (r *userRepository) ListAdmins(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Where("is_admin = ?", true).Order("id ASC").Find(&users).Error
	return users, err
}
