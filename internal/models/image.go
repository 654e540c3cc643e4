package models

import (
	"strings"
	"sync/atomic"
	"time"

	"gorm.io/gorm"
)

var storageURL atomic.Value

// SetStorageURL sets the public prefix used to build Image.FullURL,
// normally APP_URL + "/storage".
func SetStorageURL(u string) {
	storageURL.Store(strings.TrimRight(u, "/"))
}

func currentStorageURL() string {
	if v, ok := storageURL.Load().(string); ok {
		return v
	}
	return "/storage"
}

// Image is an uploaded file stored on local disk under Path/Name.
type Image struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	AttachedToPost bool      `gorm:"default:false;index:idx_images_attached_path" json:"attached_to_post"`
	PostID         *uint     `gorm:"index" json:"post_id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	MimeType       string    `gorm:"size:100;not null" json:"mime_type"`
	Path           string    `gorm:"size:255;not null;index:idx_images_attached_path" json:"path"`
	FullURL        string    `gorm:"-" json:"full_url"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RelativePath is the file location under the storage root.
func (i *Image) RelativePath() string {
	return i.Path + "/" + i.Name
}

func (i *Image) fillURL() {
	i.FullURL = currentStorageURL() + "/" + i.RelativePath()
}

// AfterFind fills FullURL on every loaded row.
func (i *Image) AfterFind(_ *gorm.DB) error {
	i.fillURL()
	return nil
}

// AfterCreate fills FullURL on newly stored rows.
func (i *Image) AfterCreate(_ *gorm.DB) error {
	i.fillURL()
	return nil
}
