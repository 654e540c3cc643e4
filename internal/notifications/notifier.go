// Package notifications publishes blog events over Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/kolimbet/blog-composition-back/internal/middleware"
	"github.com/kolimbet/blog-composition-back/internal/models"

	"github.com/redis/go-redis/v9"
)

// Channels.
const (
	ModerationChannel = "blog:moderation"
	PostsChannel      = "blog:posts"
	channelPattern    = "blog:*"
)

// Event types.
const (
	EventCommentPending = "comment.pending"
	EventPostPublished  = "post.published"
)

// Event is the JSON payload of every message.
type Event struct {
	Type      string    `json:"type"`
	PostID    uint      `json:"post_id"`
	CommentID uint      `json:"comment_id,omitempty"`
	UserID    uint      `json:"user_id,omitempty"`
	Slug      string    `json:"slug,omitempty"`
	At        time.Time `json:"at"`
}

// Notifier publishes events. A nil Notifier or one without Redis is a no-op.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

func (n *Notifier) enabled() bool {
	return n != nil && n.rdb != nil
}

func (n *Notifier) publish(ctx context.Context, channel string, ev Event) error {
	if !n.enabled() {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, channel, payload).Err()
}

// CommentPending announces a comment waiting for moderation.
func (n *Notifier) CommentPending(ctx context.Context, c *models.Comment) error {
	return n.publish(ctx, ModerationChannel, Event{
		Type:      EventCommentPending,
		PostID:    c.PostID,
		CommentID: c.ID,
		UserID:    c.UserID,
		At:        c.CreatedAt,
	})
}

// PostPublished announces a post that just became public.
func (n *Notifier) PostPublished(ctx context.Context, p *models.Post) error {
	at := p.UpdatedAt
	if p.PublishedAt != nil {
		at = *p.PublishedAt
	}
	return n.publish(ctx, PostsChannel, Event{
		Type:   EventPostPublished,
		PostID: p.ID,
		UserID: p.UserID,
		Slug:   p.Slug,
		At:     at,
	})
}

// Subscribe delivers every blog event to onEvent until ctx is done. It
// returns once the subscription is active. Malformed payloads are skipped.
func (n *Notifier) Subscribe(ctx context.Context, onEvent func(channel string, ev Event)) error {
	if !n.enabled() {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, channelPattern)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", channelPattern, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					middleware.Logger.Warn("dropping malformed event",
						slog.String("channel", msg.Channel),
						slog.String("error", err.Error()),
					)
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in event subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onEvent(msg.Channel, ev)
				}()
			}
		}
	}()

	return nil
}
