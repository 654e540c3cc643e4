package service

import (
	"net/http"
	"strings"
	"testing"

	"github.com/kolimbet/blog-composition-back/internal/cache"
	"github.com/kolimbet/blog-composition-back/internal/models"
	"github.com/kolimbet/blog-composition-back/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffTags(t *testing.T) {
	tests := []struct {
		name           string
		current, next  []uint
		attach, detach []uint
	}{
		{"empty", nil, nil, nil, nil},
		{"add only", nil, []uint{3, 1}, []uint{1, 3}, nil},
		{"remove only", []uint{2, 1}, nil, nil, []uint{1, 2}},
		{"mixed", []uint{1, 2, 3}, []uint{3, 4, 4, 1}, []uint{4}, []uint{2}},
		{"unchanged", []uint{5, 6}, []uint{6, 5}, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attach, detach := DiffTags(tt.current, tt.next)
			assert.Equal(t, tt.attach, attach)
			assert.Equal(t, tt.detach, detach)
		})
	}
}

func TestMakePostSlug(t *testing.T) {
	assert.Equal(t, "hello-world", MakePostSlug("", "Hello, World!"))
	assert.Equal(t, "custom", MakePostSlug("  custom ", "Hello"))

	long := MakePostSlug("", strings.Repeat("word ", 40))
	assert.LessOrEqual(t, len(long), models.PostSlugMaxLength)
	assert.False(t, strings.HasSuffix(long, "-"))
}

func newPostInput(userID uint, title string, published bool, tagIDs ...uint) PostInput {
	return PostInput{
		UserID:      userID,
		Title:       title,
		ContentRaw:  "body",
		ContentHTML: "<p>body</p>",
		IsPublished: Some(published),
		TagIDs:      tagIDs,
	}
}

func TestPostService_StoreAndAdminShow(t *testing.T) {
	e := newTestEnv(t, "")
	svc := e.postService()
	admin := testutil.CreateUser(t, e.db, "admin", func(u *models.User) { u.IsAdmin = true })
	goTag := testutil.CreateTag(t, e.db, "go")
	dbTag := testutil.CreateTag(t, e.db, "db")

	id, err := svc.Store(e.ctx, newPostInput(admin.ID, "First Post", true, goTag.ID, dbTag.ID))
	require.NoError(t, err)

	bundle, err := svc.AdminShow(e.ctx, "first-post")
	require.NoError(t, err)
	assert.Equal(t, id, bundle.Post.ID)
	assert.Len(t, bundle.Tags, 2)
	assert.NotNil(t, bundle.Post.PublishedAt)

	_, err = svc.Store(e.ctx, newPostInput(admin.ID, "First Post", false))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, models.StatusOf(err))

	_, err = svc.Store(e.ctx, newPostInput(admin.ID, "   ", false))
	assert.Equal(t, http.StatusUnprocessableEntity, models.StatusOf(err))
}

func TestPostService_ShowCachesAndHidesDrafts(t *testing.T) {
	e := newTestEnv(t, "")
	svc := e.postService()
	admin := testutil.CreateUser(t, e.db, "admin", func(u *models.User) { u.IsAdmin = true })
	published := testutil.CreatePost(t, e.db, admin.ID, "live", true)
	testutil.CreatePost(t, e.db, admin.ID, "draft", false)

	post, err := svc.Show(e.ctx, "live", false)
	require.NoError(t, err)
	assert.Equal(t, published.ID, post.ID)
	assert.True(t, e.mr.Exists(cache.PostDetailKey("live")))

	members, err := e.mr.Members(cache.PostGroupKey(published.ID))
	require.NoError(t, err)
	assert.Contains(t, members, cache.PostDetailKey("live"))

	_, err = svc.Show(e.ctx, "draft", false)
	assert.Equal(t, http.StatusForbidden, models.StatusOf(err))

	draft, err := svc.Show(e.ctx, "draft", true)
	require.NoError(t, err)
	assert.False(t, draft.IsPublished)

	_, err = svc.Show(e.ctx, "missing", true)
	assert.Equal(t, http.StatusNotFound, models.StatusOf(err))
}

func TestPostService_UpdateReconcilesTagsAndInvalidates(t *testing.T) {
	e := newTestEnv(t, "")
	svc := e.postService()
	admin := testutil.CreateUser(t, e.db, "admin", func(u *models.User) { u.IsAdmin = true })
	a := testutil.CreateTag(t, e.db, "a")
	b := testutil.CreateTag(t, e.db, "b")
	c := testutil.CreateTag(t, e.db, "c")

	id, err := svc.Store(e.ctx, newPostInput(admin.ID, "Draft", false, a.ID, b.ID))
	require.NoError(t, err)

	_, err = svc.Show(e.ctx, "draft", true)
	require.NoError(t, err)
	require.True(t, e.mr.Exists(cache.PostDetailKey("draft")))

	in := newPostInput(admin.ID, "Draft", true, b.ID, c.ID)
	in.Slug = "draft"
	bundle, err := svc.Update(e.ctx, id, in)
	require.NoError(t, err)
	assert.True(t, bundle.Post.IsPublished)
	assert.NotNil(t, bundle.Post.PublishedAt)

	var ids []uint
	for _, tag := range bundle.Tags {
		ids = append(ids, tag.ID)
	}
	assert.ElementsMatch(t, []uint{b.ID, c.ID}, ids)
	assert.False(t, e.mr.Exists(cache.PostDetailKey("draft")), "update drops cached details")

	_, err = svc.Update(e.ctx, 999, in)
	assert.Equal(t, http.StatusNotFound, models.StatusOf(err))
}

func TestPostService_Lists(t *testing.T) {
	e := newTestEnv(t, "")
	svc := e.postService()
	admin := testutil.CreateUser(t, e.db, "admin", func(u *models.User) { u.IsAdmin = true })
	tag := testutil.CreateTag(t, e.db, "go")

	_, err := svc.Store(e.ctx, newPostInput(admin.ID, "Tagged", true, tag.ID))
	require.NoError(t, err)
	_, err = svc.Store(e.ctx, newPostInput(admin.ID, "Plain", true))
	require.NoError(t, err)
	_, err = svc.Store(e.ctx, newPostInput(admin.ID, "Hidden", false, tag.ID))
	require.NoError(t, err)

	feed, err := svc.Feed(e.ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, feed.Pagination.Total)

	byTag, err := svc.ListByTag(e.ctx, "go", 1)
	require.NoError(t, err)
	require.Len(t, byTag.Data, 1)
	assert.Equal(t, "tagged", byTag.Data[0].Slug)

	_, err = svc.ListByTag(e.ctx, "nope", 1)
	assert.Equal(t, http.StatusNotFound, models.StatusOf(err))

	all, err := svc.AdminList(e.ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, all.Pagination.Total)
}

func TestPostService_DestroyRemovesImages(t *testing.T) {
	e := newTestEnv(t, "")
	svc := e.postService()
	admin := testutil.CreateUser(t, e.db, "admin", func(u *models.User) { u.IsAdmin = true })

	dir := "images/42"
	require.NoError(t, e.disk.MakeDir(dir))
	require.NoError(t, e.disk.Put(dir+"/a.png", testutil.PNGBytes(2, 2)))

	in := newPostInput(admin.ID, "With Images", true)
	in.ImagePath = Some(dir)
	id, err := svc.Store(e.ctx, in)
	require.NoError(t, err)
	require.NoError(t, e.db.Create(&models.Image{
		UserID: admin.ID, AttachedToPost: true, PostID: &id, Name: "a.png", MimeType: "image/png", Path: dir,
	}).Error)

	msg, err := svc.Destroy(e.ctx, id)
	require.NoError(t, err)
	assert.Contains(t, msg, "has been successfully deleted")
	assert.False(t, e.disk.Exists(dir))

	var count int64
	require.NoError(t, e.db.Model(&models.Image{}).Where("path = ?", dir).Count(&count).Error)
	assert.Zero(t, count)

	_, err = svc.Destroy(e.ctx, id)
	assert.Equal(t, http.StatusNotFound, models.StatusOf(err))
}

func TestPostService_DestroyToleratesMissingDirectory(t *testing.T) {
	e := newTestEnv(t, "")
	svc := e.postService()
	admin := testutil.CreateUser(t, e.db, "admin", func(u *models.User) { u.IsAdmin = true })

	in := newPostInput(admin.ID, "Gone Dir", false)
	in.ImagePath = Some("images/7")
	id, err := svc.Store(e.ctx, in)
	require.NoError(t, err)

	_, err = svc.Destroy(e.ctx, id)
	assert.NoError(t, err)
}

func TestPostService_ShowCacheFollowsTagAndAvatarChanges(t *testing.T) {
	e := newTestEnv(t, "")
	svc := e.postService()
	tags := e.tagService()
	users := e.userService()
	admin := testutil.CreateUser(t, e.db, "admin", func(u *models.User) { u.IsAdmin = true })

	tag, err := tags.Store(e.ctx, "Golang")
	require.NoError(t, err)
	_, err = svc.Store(e.ctx, newPostInput(admin.ID, "Cached", true, tag.ID))
	require.NoError(t, err)

	post, err := svc.Show(e.ctx, "cached", false)
	require.NoError(t, err)
	require.Len(t, post.Tags, 1)
	assert.Equal(t, "Golang", post.Tags[0].Name)

	_, err = tags.Update(e.ctx, tag.ID, "Rust")
	require.NoError(t, err)
	assert.False(t, e.mr.Exists(cache.PostDetailKey("cached")))
	post, err = svc.Show(e.ctx, "cached", false)
	require.NoError(t, err)
	require.Len(t, post.Tags, 1)
	assert.Equal(t, "Rust", post.Tags[0].Name)

	_, err = tags.Destroy(e.ctx, tag.ID)
	require.NoError(t, err)
	post, err = svc.Show(e.ctx, "cached", false)
	require.NoError(t, err)
	assert.Empty(t, post.Tags)

	img := &models.Image{UserID: admin.ID, Name: "me.png", MimeType: "image/png", Path: "avatars/1"}
	require.NoError(t, e.db.Create(img).Error)
	_, err = users.SetAvatar(e.ctx, admin.ID, img.ID)
	require.NoError(t, err)
	post, err = svc.Show(e.ctx, "cached", false)
	require.NoError(t, err)
	require.NotNil(t, post.User)
	require.NotNil(t, post.User.AvatarID)
	assert.Equal(t, img.ID, *post.User.AvatarID)

	_, err = users.DeleteAvatar(e.ctx, admin.ID)
	require.NoError(t, err)
	post, err = svc.Show(e.ctx, "cached", false)
	require.NoError(t, err)
	assert.Nil(t, post.User.AvatarID)
}
