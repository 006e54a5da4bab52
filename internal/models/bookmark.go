package models

import "time"

// DefaultFolder is used when a bookmark is created without a folder.
const DefaultFolder = "Unsorted"

// Bookmark is a saved URL owned by exactly one user.
type Bookmark struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:uidx_bookmarks_user_url,priority:1" json:"user_id"`
	Title       string    `gorm:"size:500;not null" json:"title"`
	URL         string    `gorm:"column:url;size:2048;not null;uniqueIndex:uidx_bookmarks_user_url,priority:2" json:"url"`
	Description string    `gorm:"type:text;not null;default:''" json:"description"`
	Favicon     string    `gorm:"size:2048;not null;default:''" json:"favicon"`
	Folder      string    `gorm:"size:100;not null;default:'Unsorted';index" json:"folder"`
	IsPublic    bool      `gorm:"not null;default:false" json:"is_public"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	User *User `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	// Tags holds the names of associated tags; loaded separately.
	Tags []string `gorm:"-" json:"tags"`
	// Owner is filled on public listings only.
	Owner *BookmarkOwner `gorm:"-" json:"owner,omitempty"`
}

// BookmarkOwner is the public face of a bookmark's owner.
type BookmarkOwner struct {
	Username  string  `json:"username"`
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

// Tag is a label scoped to its owner; (user_id, name) is unique.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:uidx_tags_user_name,priority:1" json:"user_id"`
	Name      string    `gorm:"size:50;not null;uniqueIndex:uidx_tags_user_name,priority:2" json:"name"`
	CreatedAt time.Time `json:"created_at"`

	User *User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// BookmarkTag associates a bookmark with a tag. Rows never outlive either side.
type BookmarkTag struct {
	BookmarkID uint `gorm:"primaryKey;autoIncrement:false"`
	TagID      uint `gorm:"primaryKey;autoIncrement:false;index"`

	Bookmark *Bookmark `gorm:"constraint:OnDelete:CASCADE"`
	Tag      *Tag      `gorm:"constraint:OnDelete:CASCADE"`
}

// FolderCount is a folder name with the number of bookmarks in it.
type FolderCount struct {
	Folder string `json:"folder"`
	Count  int64  `json:"count"`
}

// TagUsage is an owner's tag with how many of their bookmarks use it.
type TagUsage struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	UsageCount int64     `json:"usage_count"`
}

// PopularTag ranks a tag name by the public bookmarks carrying it.
type PopularTag struct {
	Name       string `json:"name"`
	UsageCount int64  `json:"usage_count"`
}
