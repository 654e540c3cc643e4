package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kolimbet/blog-composition-back/internal/cache"
	"github.com/kolimbet/blog-composition-back/internal/middleware"
	"github.com/kolimbet/blog-composition-back/internal/models"
	"github.com/kolimbet/blog-composition-back/internal/notifications"
	"github.com/kolimbet/blog-composition-back/internal/observability"
	"github.com/kolimbet/blog-composition-back/internal/repository"
)

const maxCommentLength = 10000

type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	users    repository.UserRepository
	cache    *cache.Cache
	events   *notifications.Notifier
	now      func() time.Time
}

type CreateCommentInput struct {
	UserID   uint
	PostID   uint
	TextRaw  string
	TextHTML string
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	users repository.UserRepository,
	c *cache.Cache,
	events *notifications.Notifier,
) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
		users:    users,
		cache:    c,
		events:   events,
		now:      time.Now,
	}
}

// ListForPost pages the comments a viewer may see. viewerID 0 is a guest.
func (s *CommentService) ListForPost(ctx context.Context, postID, viewerID uint, page int) (models.Page[models.Comment], error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return models.Page[models.Comment]{}, lookupError(err, "Post not found")
	}
	comments, total, err := s.comments.ListForPost(ctx, postID, viewerID, page)
	if err != nil {
		return models.Page[models.Comment]{}, lookupError(err, "")
	}
	return models.NewPage(comments, page, models.PageSize, total), nil
}

// Store adds a comment. Comments of tested users are published at once,
// the rest wait for moderation.
func (s *CommentService) Store(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	author, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, lookupError(err, "User not found")
	}
	if author.IsBanned {
		return nil, models.NewForbiddenError("Access denied. You are banned.")
	}

	if strings.TrimSpace(in.TextRaw) == "" || strings.TrimSpace(in.TextHTML) == "" {
		return nil, models.NewValidationError("The comment text is required")
	}
	if len(in.TextRaw) > maxCommentLength || len(in.TextHTML) > maxCommentLength {
		return nil, models.NewValidationError(fmt.Sprintf("The comment may not be greater than %d characters", maxCommentLength))
	}

	if _, err := s.posts.GetByID(ctx, in.PostID); err != nil {
		return nil, lookupError(err, "Post not found")
	}

	comment := &models.Comment{
		UserID:   author.ID,
		PostID:   in.PostID,
		TextRaw:  in.TextRaw,
		TextHTML: in.TextHTML,
	}
	comment.SetPublished(author.IsTested, s.now().UTC())
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, writeError(err, "Failed saving the comment")
	}
	comment.User = author

	observability.RecordComment(comment.IsPublished)
	if !comment.IsPublished {
		if err := s.events.CommentPending(ctx, comment); err != nil {
			middleware.Logger.WarnContext(ctx, "moderation event not published",
				slog.Uint64("comment_id", uint64(comment.ID)),
				slog.String("error", err.Error()),
			)
		}
	}
	s.cache.InvalidateGroup(ctx, cache.PostGroupKey(in.PostID))
	middleware.Logger.InfoContext(ctx, "comment created",
		slog.Uint64("comment_id", uint64(comment.ID)),
		slog.Uint64("post_id", uint64(in.PostID)),
		slog.Bool("published", comment.IsPublished),
	)
	return comment, nil
}

// Destroy soft-deletes a comment on behalf of its author or an admin.
func (s *CommentService) Destroy(ctx context.Context, userID uint, isAdmin bool, commentID uint) (string, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return "", lookupError(err, "Comment not found")
	}
	if !isAdmin && comment.UserID != userID {
		return "", models.NewForbiddenError("You can only delete your own comments")
	}

	if err := s.comments.SoftDelete(ctx, comment, userID); err != nil {
		return "", lookupError(err, "Comment not found")
	}
	s.cache.InvalidateGroup(ctx, cache.PostGroupKey(comment.PostID))
	return fmt.Sprintf("Comment #%d has been successfully deleted", comment.ID), nil
}
