package notifications

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kolimbet/blog-composition-back/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNotifier(t *testing.T) (*Notifier, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewNotifier(rdb), rdb
}

func TestNotifier_NoRedisIsNoop(t *testing.T) {
	ctx := context.Background()
	var nilNotifier *Notifier

	assert.NoError(t, nilNotifier.CommentPending(ctx, &models.Comment{ID: 1}))
	assert.NoError(t, NewNotifier(nil).PostPublished(ctx, &models.Post{ID: 1}))
	assert.NoError(t, NewNotifier(nil).Subscribe(ctx, func(string, Event) {}))
}

func TestNotifier_DeliversEvents(t *testing.T) {
	n, _ := newNotifier(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan Event, 4)
	channels := make(chan string, 4)
	require.NoError(t, n.Subscribe(ctx, func(channel string, ev Event) {
		channels <- channel
		events <- ev
	}))

	require.NoError(t, n.CommentPending(ctx, &models.Comment{ID: 9, PostID: 3, UserID: 4}))
	select {
	case ev := <-events:
		assert.Equal(t, ModerationChannel, <-channels)
		assert.Equal(t, EventCommentPending, ev.Type)
		assert.Equal(t, uint(9), ev.CommentID)
		assert.Equal(t, uint(3), ev.PostID)
	case <-time.After(time.Second):
		t.Fatal("comment event not delivered")
	}

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, n.PostPublished(ctx, &models.Post{ID: 3, Slug: "hello", PublishedAt: &now}))
	select {
	case ev := <-events:
		assert.Equal(t, PostsChannel, <-channels)
		assert.Equal(t, EventPostPublished, ev.Type)
		assert.Equal(t, "hello", ev.Slug)
		assert.True(t, now.Equal(ev.At))
	case <-time.After(time.Second):
		t.Fatal("post event not delivered")
	}
}

func TestNotifier_SubscriberSurvivesBadInput(t *testing.T) {
	n, rdb := newNotifier(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var received int32
	require.NoError(t, n.Subscribe(ctx, func(_ string, ev Event) {
		if atomic.AddInt32(&received, 1) == 1 {
			panic("handler bug")
		}
	}))

	require.NoError(t, rdb.Publish(ctx, PostsChannel, "not json").Err())
	require.NoError(t, n.PostPublished(ctx, &models.Post{ID: 1}))
	require.NoError(t, n.PostPublished(ctx, &models.Post{ID: 2}))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&received) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestNotifier_StopsOnCancel(t *testing.T) {
	n, _ := newNotifier(t)
	ctx, cancel := context.WithCancel(context.Background())

	var received int32
	require.NoError(t, n.Subscribe(ctx, func(string, Event) {
		atomic.AddInt32(&received, 1)
	}))
	cancel()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, n.PostPublished(context.Background(), &models.Post{ID: 1}))
	assert.Never(t, func() bool {
		return atomic.LoadInt32(&received) > 0
	}, 200*time.Millisecond, 10*time.Millisecond)
}
