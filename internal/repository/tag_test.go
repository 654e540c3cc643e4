package repository

import (
	"testing"

	"github.com/kolimbet/blog-composition-back/internal/models"
	"github.com/kolimbet/blog-composition-back/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagRepository_FindConflict(t *testing.T) {
	db, ctx := setupDB(t)
	repo := NewTagRepository(db)
	golang := testutil.CreateTag(t, db, "golang")

	tests := []struct {
		name     string
		tagName  string
		slug     string
		exceptID uint
		expected TagConflict
	}{
		{"free", "rust", "rust", 0, TagConflict{}},
		{"name taken", "golang", "go-lang", 0, TagConflict{Name: true}},
		{"slug taken", "Golang!", "golang", 0, TagConflict{Slug: true}},
		{"both taken", "golang", "golang", 0, TagConflict{Name: true, Slug: true}},
		{"self excluded", "golang", "golang", golang.ID, TagConflict{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := repo.FindConflict(ctx, tt.tagName, tt.slug, tt.exceptID)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, c)
		})
	}
}

func TestTagRepository_DeleteDetachesPosts(t *testing.T) {
	db, ctx := setupDB(t)
	repo := NewTagRepository(db)
	author := testutil.CreateUser(t, db, "author")
	tag := testutil.CreateTag(t, db, "news")

	post := &models.Post{UserID: author.ID, Title: "T", Slug: "tagged", ContentRaw: "c", ContentHTML: "c"}
	require.NoError(t, NewPostRepository(db).Create(ctx, post, []uint{tag.ID}, false))

	byPost, err := repo.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, byPost, 1)

	require.NoError(t, repo.Delete(ctx, tag.ID))
	byPost, err = repo.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, byPost)

	assert.True(t, IsNotFound(repo.Delete(ctx, tag.ID)))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
