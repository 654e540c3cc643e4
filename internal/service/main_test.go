package service

import (
	"context"
	"testing"
	"time"

	"github.com/kolimbet/blog-composition-back/internal/cache"
	"github.com/kolimbet/blog-composition-back/internal/featureflags"
	"github.com/kolimbet/blog-composition-back/internal/notifications"
	"github.com/kolimbet/blog-composition-back/internal/repository"
	"github.com/kolimbet/blog-composition-back/internal/storage"
	"github.com/kolimbet/blog-composition-back/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const testSecret = "test-secret-that-is-long-enough-123456"

type testEnv struct {
	ctx   context.Context
	db    *gorm.DB
	mr    *miniredis.Miniredis
	cache *cache.Cache
	disk  *storage.Disk
	flags *featureflags.Manager

	// events publishes to the same miniredis instance as cache.
	events *notifications.Notifier

	users    repository.UserRepository
	tokens   repository.TokenRepository
	posts    repository.PostRepository
	tags     repository.TagRepository
	comments repository.CommentRepository
	likes    repository.LikeRepository
	images   repository.ImageRepository
}

func newTestEnv(t *testing.T, flags string) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return &testEnv{
		ctx:      context.Background(),
		db:       db,
		mr:       mr,
		cache:    cache.New(rdb),
		disk:     storage.NewDisk(t.TempDir()),
		flags:    featureflags.NewManager(flags),
		events:   notifications.NewNotifier(rdb),
		users:    repository.NewUserRepository(db),
		tokens:   repository.NewTokenRepository(db),
		posts:    repository.NewPostRepository(db),
		tags:     repository.NewTagRepository(db),
		comments: repository.NewCommentRepository(db),
		likes:    repository.NewLikeRepository(db),
		images:   repository.NewImageRepository(db),
	}
}

func (e *testEnv) authService() *AuthService {
	return NewAuthService(e.users, e.tokens, e.cache, e.flags, AuthConfig{
		Secret:      testSecret,
		TTL:         time.Hour,
		RememberTTL: 24 * time.Hour,
	})
}

func (e *testEnv) userService() *UserService {
	return NewUserService(e.users, e.comments, e.posts, e.images, e.cache)
}

func (e *testEnv) postService() *PostService {
	return NewPostService(e.posts, e.tags, e.images, e.cache, e.disk, e.events)
}

func (e *testEnv) commentService() *CommentService {
	return NewCommentService(e.comments, e.posts, e.users, e.cache, e.events)
}

func (e *testEnv) likeService() *LikeService {
	return NewLikeService(e.likes, e.posts, e.cache)
}

func (e *testEnv) tagService() *TagService {
	return NewTagService(e.tags, e.cache)
}

func (e *testEnv) imageService() *ImageService {
	return NewImageService(e.images, e.posts, e.users, e.disk, e.flags, e.cache, ImageSettings{
		MaxUploadSizeMB: 1,
		AvatarMaxSizePx: 64,
	})
}

func ptr[T any](v T) *T { return &v }
