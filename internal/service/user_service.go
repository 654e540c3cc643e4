package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/kolimbet/blog-composition-back/internal/cache"
	"github.com/kolimbet/blog-composition-back/internal/middleware"
	"github.com/kolimbet/blog-composition-back/internal/models"
	"github.com/kolimbet/blog-composition-back/internal/repository"
	"github.com/kolimbet/blog-composition-back/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// LastCommentsLimit is how many recent comments a profile shows.
const LastCommentsLimit = 5

type UserService struct {
	users    repository.UserRepository
	comments repository.CommentRepository
	posts    repository.PostRepository
	images   repository.ImageRepository
	cache    *cache.Cache
	now      func() time.Time
}

// Profile is the public view of a user.
type Profile struct {
	User         *models.User     `json:"user"`
	LastComments []models.Comment `json:"last_comments"`
	LastPost     *models.Post     `json:"last_post"`
}

type UpdatePasswordInput struct {
	UserID            uint
	Password          string
	NewPassword       string
	NewPasswordRepeat string
}

func NewUserService(
	users repository.UserRepository,
	comments repository.CommentRepository,
	posts repository.PostRepository,
	images repository.ImageRepository,
	c *cache.Cache,
) *UserService {
	return &UserService{
		users:    users,
		comments: comments,
		posts:    posts,
		images:   images,
		cache:    c,
		now:      time.Now,
	}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "User not found")
	}
	return user, nil
}

// IsAdmin reports whether the user holds the admin role.
func (s *UserService) IsAdmin(ctx context.Context, id uint) (bool, error) {
	admin, err := s.users.IsAdmin(ctx, id)
	if err != nil {
		return false, lookupError(err, "User not found")
	}
	return admin, nil
}

// About builds the profile: the user with counters, the latest comments and,
// for admins only, the latest published post.
func (s *UserService) About(ctx context.Context, id uint) (*Profile, error) {
	user, err := s.users.GetProfile(ctx, id)
	if err != nil {
		return nil, lookupError(err, "User not found")
	}

	comments, err := s.comments.LatestByUser(ctx, id, LastCommentsLimit)
	if err != nil {
		return nil, lookupError(err, "")
	}

	profile := &Profile{User: user, LastComments: comments}
	if user.IsAdmin {
		post, err := s.posts.LatestPublishedByUser(ctx, id)
		switch {
		case err == nil:
			profile.LastPost = post
		case !repository.IsNotFound(err):
			return nil, lookupError(err, "")
		}
	}
	return profile, nil
}

func (s *UserService) CheckPassword(ctx context.Context, userID uint, password string) (bool, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil, nil
}

func (s *UserService) UpdatePassword(ctx context.Context, in UpdatePasswordInput) error {
	ok, err := s.CheckPassword(ctx, in.UserID, in.Password)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewValidationError("Invalid current password entered")
	}
	if in.NewPassword != in.NewPasswordRepeat {
		return models.NewValidationError("The new password confirmation does not match")
	}
	if err := validation.ValidatePassword(in.NewPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.users.UpdatePassword(ctx, in.UserID, string(hash)); err != nil {
		return writeError(err, "Failed saving a new user password record")
	}
	middleware.Logger.InfoContext(ctx, "user password changed")
	return nil
}

// SetAvatar points the user's avatar at one of their own images.
func (s *UserService) SetAvatar(ctx context.Context, userID, imageID uint) (*models.User, error) {
	if _, err := s.images.GetForUser(ctx, imageID, userID); err != nil {
		return nil, lookupError(err, "Image not found")
	}
	if err := s.users.SetAvatar(ctx, userID, &imageID); err != nil {
		return nil, writeError(err, "Failed saving the avatar")
	}
	s.cache.InvalidateGroup(ctx, cache.UserPostsGroupKey(userID))
	return s.GetUser(ctx, userID)
}

func (s *UserService) DeleteAvatar(ctx context.Context, userID uint) (*models.User, error) {
	if err := s.users.SetAvatar(ctx, userID, nil); err != nil {
		return nil, lookupError(err, "User not found")
	}
	s.cache.InvalidateGroup(ctx, cache.UserPostsGroupKey(userID))
	return s.GetUser(ctx, userID)
}

// SetAdmin grants or revokes the admin role.
func (s *UserService) SetAdmin(ctx context.Context, userID uint, isAdmin bool) (*models.User, error) {
	return s.mutate(ctx, userID, func(u *models.User) error {
		u.IsAdmin = isAdmin
		return nil
	})
}

// MarkTested lets the user's comments skip moderation.
func (s *UserService) MarkTested(ctx context.Context, userID uint, tested bool) (*models.User, error) {
	return s.mutate(ctx, userID, func(u *models.User) error {
		u.IsTested = tested
		return nil
	})
}

// Ban blocks the user from commenting. The admin must exist and hold the role.
func (s *UserService) Ban(ctx context.Context, userID, adminID uint, comment string) (*models.User, error) {
	if userID == adminID {
		return nil, models.NewValidationError("An admin cannot ban themselves")
	}
	admin, err := s.users.IsAdmin(ctx, adminID)
	if err != nil {
		return nil, lookupError(err, "")
	}
	if !admin {
		return nil, models.NewForbiddenError("Only admins can ban users")
	}
	return s.mutate(ctx, userID, func(u *models.User) error {
		u.Ban(adminID, strings.TrimSpace(comment), s.now().UTC())
		return nil
	})
}

func (s *UserService) Unban(ctx context.Context, userID uint) (*models.User, error) {
	return s.mutate(ctx, userID, func(u *models.User) error {
		u.Unban()
		return nil
	})
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		return nil, lookupError(err, "")
	}
	return admins, nil
}

func (s *UserService) mutate(ctx context.Context, userID uint, apply func(*models.User) error) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := apply(user); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, writeError(err, "Failed saving the user")
	}
	middleware.Logger.InfoContext(ctx, "user updated",
		slog.Uint64("target_user_id", uint64(user.ID)),
		slog.Bool("is_admin", user.IsAdmin),
		slog.Bool("is_banned", user.IsBanned),
		slog.Bool("is_tested", user.IsTested),
	)
	return user, nil
}
