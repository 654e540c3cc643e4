package models

import "time"

// Tag labels posts. Name and slug are unique.
type Tag struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Slug        string    `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	NameLowCase string    `gorm:"size:255;not null" json:"name_low_case"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PostTag is a row of the post/tag join table.
type PostTag struct {
	PostID uint `gorm:"primaryKey" json:"post_id"`
	TagID  uint `gorm:"primaryKey;index" json:"tag_id"`
}

// TableName specifies the table name for GORM.
func (PostTag) TableName() string {
	return "post_tag"
}
