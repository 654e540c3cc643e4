package service

import (
	"context"
	"testing"
	"time"

	"github.com/kolimbet/blog-composition-back/internal/models"
	"github.com/kolimbet/blog-composition-back/internal/notifications"
	"github.com/kolimbet/blog-composition-back/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subscribe(t *testing.T, e *testEnv) <-chan notifications.Event {
	t.Helper()
	ctx, cancel := context.WithCancel(e.ctx)
	t.Cleanup(cancel)

	events := make(chan notifications.Event, 8)
	require.NoError(t, e.events.Subscribe(ctx, func(_ string, ev notifications.Event) {
		events <- ev
	}))
	return events
}

func nextEvent(t *testing.T, events <-chan notifications.Event) notifications.Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return notifications.Event{}
	}
}

func TestCommentService_PendingCommentIsAnnounced(t *testing.T) {
	e := newTestEnv(t, "")
	events := subscribe(t, e)
	svc := e.commentService()
	author := testutil.CreateUser(t, e.db, "author")
	tested := testutil.CreateUser(t, e.db, "tested", func(u *models.User) { u.IsTested = true })
	post := testutil.CreatePost(t, e.db, author.ID, "post", true)

	_, err := svc.Store(e.ctx, commentInput(tested.ID, post.ID))
	require.NoError(t, err)
	pending, err := svc.Store(e.ctx, commentInput(author.ID, post.ID))
	require.NoError(t, err)

	ev := nextEvent(t, events)
	assert.Equal(t, notifications.EventCommentPending, ev.Type)
	assert.Equal(t, pending.ID, ev.CommentID)
	assert.Equal(t, post.ID, ev.PostID)

	select {
	case extra := <-events:
		t.Fatalf("unexpected event %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPostService_PublishingIsAnnounced(t *testing.T) {
	e := newTestEnv(t, "")
	events := subscribe(t, e)
	svc := e.postService()
	admin := testutil.CreateUser(t, e.db, "admin", func(u *models.User) { u.IsAdmin = true })

	id, err := svc.Store(e.ctx, PostInput{
		UserID:      admin.ID,
		Title:       "Draft first",
		ContentRaw:  "body",
		ContentHTML: "<p>body</p>",
	})
	require.NoError(t, err)

	_, err = svc.Update(e.ctx, id, PostInput{
		UserID:      admin.ID,
		Title:       "Draft first",
		ContentRaw:  "body",
		ContentHTML: "<p>body</p>",
		IsPublished: Some(true),
	})
	require.NoError(t, err)

	ev := nextEvent(t, events)
	assert.Equal(t, notifications.EventPostPublished, ev.Type)
	assert.Equal(t, id, ev.PostID)
	assert.Equal(t, "draft-first", ev.Slug)
	assert.False(t, ev.At.IsZero())
}
