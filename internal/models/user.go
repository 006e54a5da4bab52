// Package models defines persistent entities and API value types.
package models

import "time"

// User is an account that owns bookmarks and tags.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;size:255;not null" json:"-"`
	FullName     *string    `gorm:"size:100" json:"full_name"`
	AvatarURL    *string    `gorm:"size:500" json:"avatar_url"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
}

// Identity is the claim embedded in tokens and attached to authenticated requests.
type Identity struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// IdentityOf builds the token claim for a user.
func IdentityOf(u *User) Identity {
	return Identity{UserID: u.ID, Username: u.Username, Email: u.Email}
}

// TokenPair is an access/refresh token couple. Never persisted.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResult is returned by registration and login.
type AuthResult struct {
	User   *User     `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

// Profile is the owner's own view of their account.
type Profile struct {
	*User
	TotalBookmarks  int64 `json:"total_bookmarks"`
	PublicBookmarks int64 `json:"public_bookmarks"`
}

// PublicProfile is what anybody may see about a user.
type PublicProfile struct {
	Username        string    `json:"username"`
	FullName        *string   `json:"full_name"`
	AvatarURL       *string   `json:"avatar_url"`
	CreatedAt       time.Time `json:"created_at"`
	PublicBookmarks int64     `json:"public_bookmarks"`
}
