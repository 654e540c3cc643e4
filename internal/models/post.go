package models

import (
	"time"

	"gorm.io/gorm"
)

// PostSlugMaxLength caps generated and received post slugs.
const PostSlugMaxLength = 100

// Post represents a blog article.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserID" json:"author,omitempty"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Slug        string     `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	ExcerptRaw  *string    `gorm:"type:text" json:"excerpt_raw"`
	ExcerptHTML *string    `gorm:"column:excerpt_html;type:text" json:"excerpt_html"`
	ContentRaw  string     `gorm:"type:text;not null" json:"content_raw"`
	ContentHTML string     `gorm:"column:content_html;type:text;not null" json:"content_html"`
	IsPublished bool       `gorm:"default:false;index" json:"is_published"`
	PublishedAt *time.Time `gorm:"index" json:"published_at"`
	ImagePath   *string    `gorm:"size:255" json:"image_path"`
	Tags        []Tag      `gorm:"many2many:post_tag" json:"tags,omitempty"`
	Likes       []PostLike `gorm:"foreignKey:PostID" json:"likes,omitempty"`
	// CommentsCount is computed at query time
	CommentsCount *int64         `gorm:"-" json:"comments_count,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// SetPublished applies a publish flag. published_at only moves when the
// flag actually flips.
func (p *Post) SetPublished(published bool, now time.Time) {
	p.PublishedAt = nextPublishedAt(p.IsPublished, published, p.PublishedAt, now)
	p.IsPublished = published
}

// nextPublishedAt stamps on false->true, clears on true->false and keeps
// the current value otherwise.
func nextPublishedAt(was, is bool, current *time.Time, now time.Time) *time.Time {
	switch {
	case was == is:
		return current
	case is:
		stamp := now
		return &stamp
	default:
		return nil
	}
}
