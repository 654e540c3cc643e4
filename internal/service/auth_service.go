package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/kolimbet/blog-composition-back/internal/cache"
	"github.com/kolimbet/blog-composition-back/internal/featureflags"
	"github.com/kolimbet/blog-composition-back/internal/middleware"
	"github.com/kolimbet/blog-composition-back/internal/models"
	"github.com/kolimbet/blog-composition-back/internal/observability"
	"github.com/kolimbet/blog-composition-back/internal/repository"
	"github.com/kolimbet/blog-composition-back/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Token claims.
const (
	TokenIssuer   = "blog-composition-api"
	TokenAudience = "blog-composition-client"
	TokenType     = "Bearer"
)

// AuthConfig carries the token settings.
type AuthConfig struct {
	Secret      string
	TTL         time.Duration
	RememberTTL time.Duration
}

// AuthService registers users and issues, verifies and revokes access tokens.
type AuthService struct {
	users  repository.UserRepository
	tokens repository.TokenRepository
	cache  *cache.Cache
	flags  *featureflags.Manager
	cfg    AuthConfig
	now    func() time.Time
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
	Remember bool
}

// LoginResult is returned to the client after a successful login.
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

func NewAuthService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	c *cache.Cache,
	flags *featureflags.Manager,
	cfg AuthConfig,
) *AuthService {
	if cfg.RememberTTL < cfg.TTL {
		cfg.RememberTTL = cfg.TTL
	}
	return &AuthService{
		users:  users,
		tokens: tokens,
		cache:  c,
		flags:  flags,
		cfg:    cfg,
		now:    time.Now,
	}
}

func (s *AuthService) NameIsFree(ctx context.Context, name string) (bool, error) {
	taken, err := s.users.NameExists(ctx, strings.TrimSpace(name))
	if err != nil {
		return false, writeError(err, "Failed checking the name")
	}
	return !taken, nil
}

func (s *AuthService) EmailIsFree(ctx context.Context, email string) (bool, error) {
	taken, err := s.users.EmailExists(ctx, strings.TrimSpace(email))
	if err != nil {
		return false, writeError(err, "Failed checking the email")
	}
	return !taken, nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if s.flags.On(featureflags.RegistrationClosed) {
		return nil, models.NewForbiddenError("Registration is closed")
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.ValidateName(in.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if free, err := s.NameIsFree(ctx, in.Name); err != nil {
		return nil, err
	} else if !free {
		return nil, models.NewValidationError("The name has already been taken")
	}
	if free, err := s.EmailIsFree(ctx, in.Email); err != nil {
		return nil, err
	} else if !free {
		return nil, models.NewValidationError("The email has already been taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Name: in.Name, Email: in.Email, Password: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, models.NewValidationError("The name or email has already been taken")
		}
		return nil, writeError(err, "Failed saving the new user")
	}

	middleware.Logger.InfoContext(ctx, "user registered", slog.Uint64("new_user_id", uint64(user.ID)))
	return user, nil
}

// Login checks the credentials, drops every previous token of the user
// and issues a new one.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	invalid := models.NewValidationError("Invalid login details")

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		if repository.IsNotFound(err) {
			observability.RecordLogin(observability.LoginRejected)
			return nil, invalid
		}
		observability.RecordLogin(observability.LoginFailed)
		return nil, lookupError(err, "")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		observability.RecordLogin(observability.LoginRejected)
		return nil, invalid
	}

	ttl := s.cfg.TTL
	if in.Remember {
		ttl = s.cfg.RememberTTL
	}
	signed, record, err := s.issue(user.ID, ttl)
	if err != nil {
		observability.RecordLogin(observability.LoginFailed)
		return nil, models.NewInternalError(err)
	}

	revoked, err := s.tokens.ReplaceForUser(ctx, record)
	if err != nil {
		observability.RecordLogin(observability.LoginFailed)
		return nil, writeError(err, "Failed saving the access token")
	}
	s.evict(ctx, revoked)

	observability.RecordLogin(observability.LoginSucceeded)
	middleware.Logger.InfoContext(ctx, "user logged in",
		slog.Uint64("login_user_id", uint64(user.ID)),
		slog.Int("revoked_tokens", len(revoked)),
	)
	return &LoginResult{AccessToken: signed, TokenType: TokenType, User: user}, nil
}

func (s *AuthService) issue(userID uint, ttl time.Duration) (string, *models.AccessToken, error) {
	if s.cfg.Secret == "" {
		return "", nil, errors.New("JWT secret not configured")
	}

	now := s.now()
	jti := uuid.NewString()
	claims := jwt.RegisteredClaims{
		Issuer:    TokenIssuer,
		Audience:  jwt.ClaimStrings{TokenAudience},
		Subject:   strconv.FormatUint(uint64(userID), 10),
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", nil, err
	}
	return signed, &models.AccessToken{UserID: userID, JTI: jti, ExpiresAt: now.Add(ttl).UTC()}, nil
}

// Logout revokes every token of the user.
func (s *AuthService) Logout(ctx context.Context, userID uint) error {
	revoked, err := s.tokens.DeleteByUser(ctx, userID)
	if err != nil {
		return writeError(err, "Failed deleting the access tokens")
	}
	s.evict(ctx, revoked)
	return nil
}

func (s *AuthService) evict(ctx context.Context, jtis []string) {
	if len(jtis) == 0 {
		return
	}
	keys := make([]string, 0, len(jtis))
	for _, jti := range jtis {
		keys = append(keys, cache.TokenKey(jti))
	}
	s.cache.Invalidate(ctx, keys...)
}

// Authenticate verifies a bearer token and returns its owner. The token
// must be signed with the configured secret and still be on record.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (uint, error) {
	unauthorized := models.NewUnauthorizedError("Invalid or expired token")
	if raw == "" {
		return 0, models.NewUnauthorizedError("Authorization required")
	}

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return []byte(s.cfg.Secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid || claims.ID == "" {
		return 0, unauthorized
	}
	sub, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || sub == 0 {
		return 0, unauthorized
	}
	userID := uint(sub)

	key := cache.TokenKey(claims.ID)
	if owner, ok, cerr := s.cache.GetString(ctx, key); cerr == nil && ok {
		if owner == claims.Subject {
			return userID, nil
		}
		return 0, unauthorized
	}

	record, err := s.tokens.FindByJTI(ctx, claims.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return 0, unauthorized
		}
		return 0, lookupError(err, "")
	}
	now := s.now()
	if record.UserID != userID || record.Expired(now) {
		return 0, unauthorized
	}

	if err := s.tokens.Touch(ctx, record.ID, now.UTC()); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to touch access token", slog.String("error", err.Error()))
	}
	ttl := min(cache.TokenTTL, record.ExpiresAt.Sub(now))
	if err := s.cache.SetString(ctx, key, claims.Subject, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to cache access token", slog.String("error", err.Error()))
	}
	return userID, nil
}
