package seed

import (
	"context"
	"fmt"
	"log"

	"github.com/kolimbet/blog-composition-back/internal/cache"
	"github.com/kolimbet/blog-composition-back/internal/featureflags"
	"github.com/kolimbet/blog-composition-back/internal/models"
	"github.com/kolimbet/blog-composition-back/internal/repository"
	"github.com/kolimbet/blog-composition-back/internal/service"
	"github.com/kolimbet/blog-composition-back/internal/storage"

	"gorm.io/gorm"
)

// Options configure the seeder.
type Options struct {
	NumUsers           int
	NumPosts           int
	MaxCommentsPerPost int
	MaxDays            int
	// AvatarEvery gives every n-th generated user an avatar. Zero disables avatars.
	AvatarEvery int
	// StorageDir receives avatar files. Avatars are skipped when empty.
	StorageDir   string
	FeatureFlags string
	SkipBcrypt   bool
	RandomSeed   int64
}

// DefaultOptions matches the demo data set.
func DefaultOptions() Options {
	return Options{
		NumUsers:           20,
		NumPosts:           100,
		MaxCommentsPerPost: 25,
		MaxDays:            90,
		AvatarEvery:        3,
	}
}

// Summary counts what a run created.
type Summary struct {
	Admins   int
	Users    int
	Avatars  int
	Tags     int
	Posts    int
	Comments int
	Likes    int
}

// Seeder fills the database with demo content.
type Seeder struct {
	db       *gorm.DB
	opts     Options
	fixtures *Fixtures
	factory  *Factory
	tags     *service.TagService
	users    *service.UserService
	images   *service.ImageService
}

// NewSeeder creates a seeder. A nil fixtures value loads the embedded set.
func NewSeeder(db *gorm.DB, fixtures *Fixtures, opts Options) (*Seeder, error) {
	if fixtures == nil {
		var err error
		if fixtures, err = DefaultFixtures(); err != nil {
			return nil, err
		}
	}
	factory, err := NewFactory(db, opts, fixtures.Password)
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	imageRepo := repository.NewImageRepository(db)

	s := &Seeder{
		db:       db,
		opts:     opts,
		fixtures: fixtures,
		factory:  factory,
		tags:     service.NewTagService(repository.NewTagRepository(db), cache.New(nil)),
		users:    service.NewUserService(userRepo, repository.NewCommentRepository(db), postRepo, imageRepo, cache.New(nil)),
	}
	if opts.StorageDir != "" {
		s.images = service.NewImageService(imageRepo, postRepo, userRepo,
			storage.NewDisk(opts.StorageDir), featureflags.NewManager(opts.FeatureFlags), cache.New(nil), service.ImageSettings{})
	}
	return s, nil
}

// ClearAll removes every row the seeder can create, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	log.Println("Clearing existing data...")
	tables := []any{
		&models.PostLike{},
		&models.Comment{},
		&models.PostTag{},
		&models.AccessToken{},
		&models.Post{},
		&models.Tag{},
	}
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, table := range tables {
		if err := tx.Unscoped().Delete(table).Error; err != nil {
			return fmt.Errorf("clear %T: %w", table, err)
		}
	}
	// Users and images reference each other through avatar_id.
	if err := tx.Model(&models.User{}).Unscoped().Update("avatar_id", nil).Error; err != nil {
		return fmt.Errorf("detach avatars: %w", err)
	}
	for _, table := range []any{&models.Image{}, &models.User{}} {
		if err := tx.Unscoped().Delete(table).Error; err != nil {
			return fmt.Errorf("clear %T: %w", table, err)
		}
	}
	return nil
}

// Run creates admins, tags, users, posts, likes and comments.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{}

	admins, err := s.seedAdmins(ctx)
	if err != nil {
		return nil, err
	}
	sum.Admins = len(admins)
	log.Printf("%d admins created", sum.Admins)

	tags, err := s.seedTags(ctx)
	if err != nil {
		return nil, err
	}
	sum.Tags = len(tags)
	log.Printf("%d tags created", sum.Tags)

	readers := make([]models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		user, err := s.factory.CreateUser(ctx)
		if err != nil {
			return nil, err
		}
		if s.opts.AvatarEvery > 0 && i%s.opts.AvatarEvery == 0 {
			ok, err := s.attachAvatar(ctx, user)
			if err != nil {
				return nil, err
			}
			if ok {
				sum.Avatars++
			}
		}
		readers = append(readers, *user)
	}
	sum.Users = len(readers)
	log.Printf("%d users created, %d with avatars", sum.Users, sum.Avatars)

	if len(admins) == 0 && s.opts.NumPosts > 0 {
		return nil, fmt.Errorf("posts need at least one admin author")
	}
	faker := s.factory.faker
	for i := 0; i < s.opts.NumPosts; i++ {
		author := &admins[faker.Number(0, len(admins)-1)]
		published := faker.Number(1, 5) > 1
		post, err := s.factory.CreatePost(ctx, author, pick(faker, tags, 1, 5), published)
		if err != nil {
			return nil, err
		}
		sum.Posts++

		if !published || len(readers) == 0 {
			continue
		}
		for _, reader := range pick(faker, readers, 0, len(readers)) {
			if _, err := s.factory.CreateLike(ctx, &reader, post); err != nil {
				return nil, err
			}
			sum.Likes++
		}
		for c := faker.Number(0, s.opts.MaxCommentsPerPost); c > 0; c-- {
			reader := &readers[faker.Number(0, len(readers)-1)]
			if _, err := s.factory.CreateComment(ctx, reader, post, faker.Number(1, 4) > 1); err != nil {
				return nil, err
			}
			sum.Comments++
		}
	}
	log.Printf("%d posts, %d likes and %d comments created", sum.Posts, sum.Likes, sum.Comments)

	return sum, nil
}

func (s *Seeder) seedAdmins(ctx context.Context) ([]models.User, error) {
	admins := make([]models.User, 0, len(s.fixtures.Admins))
	for _, fixture := range s.fixtures.Admins {
		admin, err := s.factory.CreateUser(ctx, func(u *models.User) {
			u.Name = fixture.Name
			u.Email = fixture.Email
			u.IsAdmin = true
			u.IsTested = true
		})
		if err != nil {
			return nil, err
		}
		admins = append(admins, *admin)
	}
	return admins, nil
}

func (s *Seeder) seedTags(ctx context.Context) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(s.fixtures.Tags))
	for _, name := range s.fixtures.Tags {
		tag, err := s.tags.Store(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("create tag %q: %w", name, err)
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}

// attachAvatar uploads a generated picture and selects it as the avatar.
func (s *Seeder) attachAvatar(ctx context.Context, user *models.User) (bool, error) {
	if s.images == nil {
		return false, nil
	}
	res, err := s.images.StoreAvatar(ctx, service.UploadInput{
		UserID:    user.ID,
		ImageName: user.Name,
		Content:   s.factory.AvatarPNG(128),
	})
	if err != nil {
		return false, fmt.Errorf("upload avatar for %s: %w", user.Name, err)
	}
	updated, err := s.users.SetAvatar(ctx, user.ID, res.Image.ID)
	if err != nil {
		return false, fmt.Errorf("set avatar for %s: %w", user.Name, err)
	}
	*user = *updated
	return true, nil
}
