package repository

import (
	"testing"
	"time"

	"github.com/kolimbet/blog-composition-back/internal/models"
	"github.com/kolimbet/blog-composition-back/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRepository_ReplaceForUser(t *testing.T) {
	db, ctx := setupDB(t)
	repo := NewTokenRepository(db)
	user := testutil.CreateUser(t, db, "reader")
	exp := time.Now().Add(time.Hour)

	revoked, err := repo.ReplaceForUser(ctx, &models.AccessToken{UserID: user.ID, JTI: "first", ExpiresAt: exp})
	require.NoError(t, err)
	assert.Empty(t, revoked)

	revoked, err = repo.ReplaceForUser(ctx, &models.AccessToken{UserID: user.ID, JTI: "second", ExpiresAt: exp})
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, revoked)

	_, err = repo.FindByJTI(ctx, "first")
	assert.True(t, IsNotFound(err))

	token, err := repo.FindByJTI(ctx, "second")
	require.NoError(t, err)
	assert.Equal(t, user.ID, token.UserID)

	revoked, err = repo.DeleteByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"second"}, revoked)
}

func TestTokenRepository_DeleteExpired(t *testing.T) {
	db, ctx := setupDB(t)
	repo := NewTokenRepository(db)
	now := time.Now()

	require.NoError(t, db.Create(&models.AccessToken{UserID: 1, JTI: "old", ExpiresAt: now.Add(-time.Hour)}).Error)
	require.NoError(t, db.Create(&models.AccessToken{UserID: 2, JTI: "fresh", ExpiresAt: now.Add(time.Hour)}).Error)

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	token, err := repo.FindByJTI(ctx, "fresh")
	require.NoError(t, err)
	require.NoError(t, repo.Touch(ctx, token.ID, now))
}
