package service

import (
	"context"

	"github.com/kolimbet/blog-composition-back/internal/cache"
	"github.com/kolimbet/blog-composition-back/internal/models"
	"github.com/kolimbet/blog-composition-back/internal/repository"
)

type LikeService struct {
	likes repository.LikeRepository
	posts repository.PostRepository
	cache *cache.Cache
}

func NewLikeService(likes repository.LikeRepository, posts repository.PostRepository, c *cache.Cache) *LikeService {
	return &LikeService{likes: likes, posts: posts, cache: c}
}

// Add likes a post once. Repeated calls return the existing like.
func (s *LikeService) Add(ctx context.Context, userID, postID uint) (*models.PostLike, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, lookupError(err, "Post not found")
	}

	existing, err := s.likes.Find(ctx, postID, userID)
	if err == nil {
		return existing, nil
	}
	if !repository.IsNotFound(err) {
		return nil, lookupError(err, "")
	}

	like := &models.PostLike{PostID: postID, UserID: userID}
	if err := s.likes.Create(ctx, like); err != nil {
		if repository.IsUniqueViolation(err) {
			// A concurrent request won the insert.
			if existing, ferr := s.likes.Find(ctx, postID, userID); ferr == nil {
				return existing, nil
			}
		}
		return nil, writeError(err, "Failed saving the like")
	}
	s.cache.InvalidateGroup(ctx, cache.PostGroupKey(postID))
	return like, nil
}

// Destroy removes the user's like and returns its id.
func (s *LikeService) Destroy(ctx context.Context, userID, postID uint) (uint, error) {
	like, err := s.likes.Find(ctx, postID, userID)
	if err != nil {
		return 0, lookupError(err, "PostLike was not found")
	}
	if err := s.likes.Delete(ctx, like.ID); err != nil {
		return 0, lookupError(err, "PostLike was not found")
	}
	s.cache.InvalidateGroup(ctx, cache.PostGroupKey(postID))
	return like.ID, nil
}
