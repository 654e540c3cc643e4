// Package seed provides helpers to create demo data for the blog database.
// These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kolimbet/blog-composition-back/internal/models"
	"github.com/kolimbet/blog-composition-back/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// maxNameLength mirrors the users.name column.
const maxNameLength = 30

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	now   time.Time
	// hashed password shared by every generated account
	password string
	maxDays  int
	seq      int
}

// NewFactory creates a Factory. A zero seed picks a random one.
func NewFactory(db *gorm.DB, opts Options, password string) (*Factory, error) {
	hashed := password
	if !opts.SkipBcrypt {
		raw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash seed password: %w", err)
		}
		hashed = string(raw)
	}
	maxDays := opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	return &Factory{
		db:       db,
		faker:    gofakeit.New(opts.RandomSeed),
		now:      time.Now().UTC(),
		password: hashed,
		maxDays:  maxDays,
	}, nil
}

func (f *Factory) next() int {
	f.seq++
	return f.seq
}

// pastTime returns a moment within the last maxDays days.
func (f *Factory) pastTime() time.Time {
	return f.faker.DateRange(f.now.AddDate(0, 0, -f.maxDays), f.now).UTC()
}

// CreateUser constructs and persists a sample user. Overrides run before saving.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	n := f.next()
	name := strings.ToLower(f.faker.Username())
	suffix := fmt.Sprintf("_%d", n)
	if len(name)+len(suffix) > maxNameLength {
		name = name[:maxNameLength-len(suffix)]
	}
	name += suffix

	user := &models.User{
		Name:     name,
		Email:    fmt.Sprintf("%s@%s", name, f.faker.DomainName()),
		Password: f.password,
		IsTested: f.faker.Number(1, 4) == 1,
	}
	user.CreatedAt = f.pastTime()
	for _, override := range overrides {
		override(user)
	}

	if err := f.db.WithContext(ctx).Omit("Avatar").Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Name, err)
	}
	return user, nil
}

// CreatePost persists a post by author with the given tags attached.
func (f *Factory) CreatePost(ctx context.Context, author *models.User, tags []models.Tag, published bool) (*models.Post, error) {
	n := f.next()
	title := strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 8)), ".")
	content := f.faker.Paragraph(f.faker.Number(2, 5), 4, 12, "\n\n")
	excerpt := f.faker.Sentence(15)
	excerptHTML := "<p>" + excerpt + "</p>"

	post := &models.Post{
		UserID:      author.ID,
		Title:       title,
		Slug:        service.MakePostSlug(fmt.Sprintf("%s %d", title, n), title),
		ExcerptRaw:  &excerpt,
		ExcerptHTML: &excerptHTML,
		ContentRaw:  content,
		ContentHTML: "<p>" + strings.ReplaceAll(content, "\n\n", "</p><p>") + "</p>",
	}
	post.CreatedAt = f.pastTime()
	post.SetPublished(published, post.CreatedAt.Add(time.Hour))

	return post, f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User", "Tags", "Likes").Create(post).Error; err != nil {
			return fmt.Errorf("create post %q: %w", post.Slug, err)
		}
		if len(tags) == 0 {
			return nil
		}
		links := make([]models.PostTag, 0, len(tags))
		for _, tag := range tags {
			links = append(links, models.PostTag{PostID: post.ID, TagID: tag.ID})
		}
		if err := tx.Create(&links).Error; err != nil {
			return fmt.Errorf("attach tags to post %d: %w", post.ID, err)
		}
		post.Tags = tags
		return nil
	})
}

// CreateComment persists a comment by author on post. Published comments
// are also marked as checked.
func (f *Factory) CreateComment(ctx context.Context, author *models.User, post *models.Post, published bool) (*models.Comment, error) {
	text := f.faker.Sentence(f.faker.Number(5, 30))
	comment := &models.Comment{
		UserID:    author.ID,
		PostID:    post.ID,
		TextRaw:   text,
		TextHTML:  "<p>" + text + "</p>",
		IsChecked: published,
	}
	comment.CreatedAt = f.pastTime()
	comment.SetPublished(published, comment.CreatedAt)

	if err := f.db.WithContext(ctx).Omit("User").Create(comment).Error; err != nil {
		return nil, fmt.Errorf("create comment on post %d: %w", post.ID, err)
	}
	return comment, nil
}

// CreateLike persists a like of post by user.
func (f *Factory) CreateLike(ctx context.Context, user *models.User, post *models.Post) (*models.PostLike, error) {
	like := &models.PostLike{PostID: post.ID, UserID: user.ID}
	if err := f.db.WithContext(ctx).Create(like).Error; err != nil {
		return nil, fmt.Errorf("create like on post %d: %w", post.ID, err)
	}
	return like, nil
}

// AvatarPNG returns a random square PNG of the given size.
func (f *Factory) AvatarPNG(size int) []byte {
	return f.faker.ImagePng(size, size)
}

// pick returns between lo and hi distinct elements of items.
func pick[T any](faker *gofakeit.Faker, items []T, lo, hi int) []T {
	hi = min(hi, len(items))
	lo = min(lo, hi)
	count := faker.Number(lo, hi)
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	faker.ShuffleInts(order)

	out := make([]T, 0, count)
	for _, idx := range order[:count] {
		out = append(out, items[idx])
	}
	return out
}
