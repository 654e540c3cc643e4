package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a reader's comment on a post.
type Comment struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	User        *User          `gorm:"foreignKey:UserID" json:"author,omitempty"`
	PostID      uint           `gorm:"not null;index" json:"post_id"`
	TextRaw     string         `gorm:"type:text;not null" json:"text_raw"`
	TextHTML    string         `gorm:"column:text_html;type:text;not null" json:"text_html"`
	IsPublished bool           `gorm:"default:false;index" json:"is_published"`
	PublishedAt *time.Time     `json:"published_at"`
	IsChecked   bool           `gorm:"default:false" json:"is_checked"`
	DeletedBy   *uint          `json:"deleted_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// SetPublished applies a publish flag with the same stamping rule as posts.
func (c *Comment) SetPublished(published bool, now time.Time) {
	c.PublishedAt = nextPublishedAt(c.IsPublished, published, c.PublishedAt, now)
	c.IsPublished = published
}
