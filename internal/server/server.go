// Package server contains the HTTP handlers for the blog API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	_ "github.com/kolimbet/blog-composition-back/docs" // swagger docs
	"github.com/kolimbet/blog-composition-back/internal/cache"
	"github.com/kolimbet/blog-composition-back/internal/config"
	"github.com/kolimbet/blog-composition-back/internal/featureflags"
	"github.com/kolimbet/blog-composition-back/internal/middleware"
	"github.com/kolimbet/blog-composition-back/internal/models"
	"github.com/kolimbet/blog-composition-back/internal/notifications"
	"github.com/kolimbet/blog-composition-back/internal/repository"
	"github.com/kolimbet/blog-composition-back/internal/service"
	"github.com/kolimbet/blog-composition-back/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Manager
	notifier       *notifications.Notifier
	stopEvents     context.CancelFunc
	authService    *service.AuthService
	userService    *service.UserService
	postService    *service.PostService
	tagService     *service.TagService
	commentService *service.CommentService
	likeService    *service.LikeService
	imageService   *service.ImageService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil, in which case caching is skipped.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	postRepo := repository.NewPostRepository(db)
	tagRepo := repository.NewTagRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	imageRepo := repository.NewImageRepository(db)

	c := cache.New(redisClient)
	disk := storage.NewDisk(cfg.StorageDir)
	flags := featureflags.NewManager(cfg.FeatureFlags)
	notifier := notifications.NewNotifier(redisClient)
	models.SetStorageURL(cfg.AppURL + "/storage")

	rememberTTL := time.Duration(cfg.JWTRememberTTLHours) * time.Hour
	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("blog-composition-api"),
		featureFlags:   flags,
		notifier:       notifier,
		authService: service.NewAuthService(userRepo, tokenRepo, c, flags, service.AuthConfig{
			Secret:      cfg.JWTSecret,
			TTL:         time.Duration(cfg.JWTTTLHours) * time.Hour,
			RememberTTL: rememberTTL,
		}),
		userService:    service.NewUserService(userRepo, commentRepo, postRepo, imageRepo, c),
		postService:    service.NewPostService(postRepo, tagRepo, imageRepo, c, disk, notifier),
		tagService:     service.NewTagService(tagRepo, c),
		commentService: service.NewCommentService(commentRepo, postRepo, userRepo, c, notifier),
		likeService:    service.NewLikeService(likeRepo, postRepo, c),
		imageService: service.NewImageService(imageRepo, postRepo, userRepo, disk, flags, c, service.ImageSettings{
			MaxUploadSizeMB: cfg.ImageMaxUploadSizeMB,
			AvatarMaxSizePx: cfg.AvatarMaxSizePx,
		}),
	}
	return server, nil
}

// NewApp builds the Fiber app with the central error handler.
func (s *Server) NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName: s.config.AppName,
		// Multipart overhead on top of the largest image.
		BodyLimit:    int(s.imageService.MaxUploadBytes()) + 1024*1024,
		ErrorHandler: s.errorHandler,
	})
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		// Avatars and post images are embedded by the frontend origin.
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so error responses still carry the headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Status: fiber.StatusTooManyRequests,
				Error:  "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Static("/storage", s.config.StorageDir, fiber.Static{ByteRange: true})

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Blog Composition API Metrics",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Public routes are registered before the protected group, whose
	// middleware covers every later /api route.
	api.Post("/name-is-free", s.NameIsFree)
	api.Post("/email-is-free", s.EmailIsFree)
	api.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	api.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	api.Get("/users/:id", s.AboutAnother)

	posts := api.Group("/posts")
	posts.Get("/", s.Feed)
	posts.Get("/by-tag/:tagSlug", s.PostsByTag)
	posts.Get("/:post/comments", s.ListComments)
	posts.Get("/:slug", s.ShowPost)

	api.Post("/images/clear", s.ClearNonAttachedImages)

	protected := api.Group("", s.AuthRequired())
	protected.Get("/logout", s.Logout)
	protected.Get("/check-auth", s.CheckAuth)

	user := protected.Group("/user")
	user.Get("/self", s.AboutSelf)
	user.Post("/check-password", s.CheckPassword)
	user.Post("/update-password", s.UpdatePassword)
	user.Post("/avatar", s.SetAvatar)
	user.Delete("/avatar", s.DeleteAvatar)

	protected.Post("/posts/:post/comment-add",
		middleware.RateLimit(s.redis, 5, time.Minute, "comment_add"), s.StoreComment)
	protected.Delete("/comments/:comment", s.DestroyComment)
	protected.Get("/posts/:post/like-add", s.AddLike)
	protected.Get("/posts/:post/like-destroy", s.DestroyLike)

	avatars := protected.Group("/avatars")
	avatars.Get("/", s.ListAvatars)
	avatars.Post("/", middleware.RateLimit(s.redis, 20, time.Hour, "avatar_upload"), s.StoreAvatar)
	avatars.Delete("/:id", s.DestroyAvatar)

	images := protected.Group("/images")
	images.Get("/post/:post", s.AdminRequired(), s.ListPostImages)
	images.Post("/", s.AdminRequired(), s.StorePostImage)
	images.Delete("/:id", s.AdminRequired(), s.DestroyImage)

	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/feature-flags", s.GetFeatureFlags)

	adminPosts := admin.Group("/posts")
	adminPosts.Get("/", s.AdminListPosts)
	adminPosts.Post("/", s.StorePost)
	adminPosts.Get("/:slug", s.AdminShowPost)
	adminPosts.Post("/:post", s.UpdatePost)
	adminPosts.Delete("/:post", s.DestroyPost)

	tags := admin.Group("/tags")
	tags.Get("/", s.ListTags)
	tags.Post("/check-name", s.CheckTagName)
	tags.Post("/", s.StoreTag)
	tags.Post("/:tag", s.UpdateTag)
	tags.Delete("/:tag", s.DestroyTag)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: the
// API serves without cache, so its absence is reported but not fatal.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// errorHandler answers every error that reaches Fiber, including its own
// 404 and 405, with the API error body.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	return s.respondError(c, err)
}

// respondError logs server-side failures and writes the error body.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	status := models.StatusOf(err)
	if status >= fiber.StatusInternalServerError {
		kind := models.CodeInternal
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			kind = appErr.Code
		}
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}

// Start starts the server
func (s *Server) Start() error {
	app := s.NewApp()
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.watchEvents()

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// watchEvents writes published blog events to the log, which gives
// moderators a feed of comments waiting for review.
func (s *Server) watchEvents() {
	ctx, cancel := context.WithCancel(context.Background())
	err := s.notifier.Subscribe(ctx, func(channel string, ev notifications.Event) {
		middleware.Logger.Info("blog event",
			slog.String("channel", channel),
			slog.String("type", ev.Type),
			slog.Uint64("post_id", uint64(ev.PostID)),
			slog.Uint64("comment_id", uint64(ev.CommentID)),
		)
	})
	if err != nil {
		cancel()
		middleware.Logger.Warn("event feed unavailable", slog.String("error", err.Error()))
		return
	}
	s.stopEvents = cancel
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stopEvents != nil {
		s.stopEvents()
	}
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
			}
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
