package repository

import (
	"context"
	"time"

	"github.com/kolimbet/blog-composition-back/internal/models"

	"gorm.io/gorm"
)

// TokenRepository persists issued access tokens.
type TokenRepository interface {
	ReplaceForUser(ctx context.Context, token *models.AccessToken) (revoked []string, err error)
	FindByJTI(ctx context.Context, jti string) (*models.AccessToken, error)
	DeleteByUser(ctx context.Context, userID uint) (revoked []string, err error)
	Touch(ctx context.Context, id uint, at time.Time) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository returns a TokenRepository backed by GORM.
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func deleteUserTokens(tx *gorm.DB, userID uint) ([]string, error) {
	var jtis []string
	if err := tx.Model(&models.AccessToken{}).Where("user_id = ?", userID).Pluck("jti", &jtis).Error; err != nil {
		return nil, err
	}
	if len(jtis) == 0 {
		return nil, nil
	}
	if err := tx.Where("user_id = ?", userID).Delete(&models.AccessToken{}).Error; err != nil {
		return nil, err
	}
	return jtis, nil
}

// ReplaceForUser drops every token of the owner and stores the new one.
// It returns the JTIs that were dropped.
func (r *tokenRepository) ReplaceForUser(ctx context.Context, token *models.AccessToken) ([]string, error) {
	var revoked []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if revoked, err = deleteUserTokens(tx, token.UserID); err != nil {
			return err
		}
		return tx.Create(token).Error
	})
	return revoked, err
}

func (r *tokenRepository) FindByJTI(ctx context.Context, jti string) (*models.AccessToken, error) {
	var token models.AccessToken
	if err := r.db.WithContext(ctx).Where("jti = ?", jti).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) DeleteByUser(ctx context.Context, userID uint) ([]string, error) {
	var revoked []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		revoked, err = deleteUserTokens(tx, userID)
		return err
	})
	return revoked, err
}

func (r *tokenRepository) Touch(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.AccessToken{}).
		Where("id = ?", id).
		UpdateColumn("last_used_at", at).Error
}

func (r *tokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", before).Delete(&models.AccessToken{})
	return res.RowsAffected, res.Error
}
