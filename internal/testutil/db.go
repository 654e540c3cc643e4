// Package testutil provides shared test fixtures for backend tests.
package testutil

import (
	"testing"
	"time"

	"github.com/kolimbet/blog-composition-back/internal/database"
	"github.com/kolimbet/blog-composition-back/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens a private in-memory database with the full schema.
// A single connection keeps every query on the same in-memory database.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig(logger.Silent))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// CreateUser inserts a user with a unique name and email.
func CreateUser(t testing.TB, db *gorm.DB, name string, mutate ...func(*models.User)) *models.User {
	t.Helper()
	user := &models.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: "$2a$10$invalidhashforfixturesonly000000000000000000000000000",
	}
	for _, m := range mutate {
		m(user)
	}
	require.NoError(t, db.Omit("Avatar").Create(user).Error)
	return user
}

// CreatePost inserts a post owned by userID.
func CreatePost(t testing.TB, db *gorm.DB, userID uint, slug string, published bool) *models.Post {
	t.Helper()
	post := &models.Post{
		UserID:      userID,
		Title:       "Post " + slug,
		Slug:        slug,
		ContentRaw:  "content of " + slug,
		ContentHTML: "<p>content of " + slug + "</p>",
	}
	post.SetPublished(published, time.Now().UTC())
	require.NoError(t, db.Omit("User", "Tags", "Likes").Create(post).Error)
	return post
}

// CreateTag inserts a tag with the given name used for name and slug.
func CreateTag(t testing.TB, db *gorm.DB, name string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name, Slug: name, NameLowCase: name}
	require.NoError(t, db.Create(tag).Error)
	return tag
}
