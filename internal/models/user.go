// Package models contains data structures for the blog's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered account.
type User struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"size:30;not null;uniqueIndex" json:"name"`
	Email         string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password      string     `gorm:"not null" json:"-"`
	IsAdmin       bool       `gorm:"default:false;index" json:"is_admin"`
	IsTested      bool       `gorm:"default:false" json:"is_tested"`
	PreModeration bool       `gorm:"default:false" json:"pre_moderation"`
	IsBanned      bool       `gorm:"default:false;index" json:"is_banned"`
	BannedBy      *uint      `json:"banned_by"`
	BanTime       *time.Time `json:"ban_time"`
	BanComment    *string    `gorm:"type:text" json:"ban_comment"`
	AvatarID      *uint      `gorm:"index" json:"avatar_id"`
	Avatar        *Image     `gorm:"foreignKey:AvatarID" json:"avatar"`
	// Counters are filled by the repository, never persisted.
	CommentsCount *int64         `gorm:"-" json:"comments_count,omitempty"`
	PostsCount    *int64         `gorm:"-" json:"posts_count,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// Ban marks the user as banned by the given admin.
func (u *User) Ban(adminID uint, comment string, now time.Time) {
	u.IsBanned = true
	u.BannedBy = &adminID
	u.BanTime = &now
	if comment != "" {
		u.BanComment = &comment
	} else {
		u.BanComment = nil
	}
}

// Unban lifts a ban and clears its bookkeeping.
func (u *User) Unban() {
	u.IsBanned = false
	u.BannedBy = nil
	u.BanTime = nil
	u.BanComment = nil
}
