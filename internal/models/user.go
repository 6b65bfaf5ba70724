// Package models contains data models for the portfolio server.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Auth provider values for User.AuthProvider.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// User represents an account in the system. Local accounts carry a bcrypt
// password hash; Google-provisioned accounts may not. Rows are soft-deleted,
// never physically erased.
type User struct {
	ID           string  `json:"id" gorm:"type:uuid;primaryKey"`
	Username     *string `json:"username" gorm:"uniqueIndex"`
	Email        string  `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash *string `json:"-"`

	GoogleID *string `json:"google_id" gorm:"uniqueIndex"`

	DisplayName     *string `json:"display_name"`
	ProfilePhotoURL *string `json:"profile_photo_url"`

	IsActive      bool `json:"is_active" gorm:"not null;default:true"`
	EmailVerified bool `json:"email_verified" gorm:"not null;default:false"`

	LastLogin           *time.Time `json:"last_login"`
	FailedLoginAttempts int        `json:"-" gorm:"not null;default:0"`
	AccountLockedUntil  *time.Time `json:"-"`

	AuthProvider string `json:"auth_provider" gorm:"size:20;not null;default:'local'"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns an id and normalizes identity fields before insert.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Normalize()
	return nil
}

// BeforeUpdate re-normalizes identity fields on every save.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.Normalize()
	return nil
}

// Normalize lower-cases and trims email and username in place.
func (u *User) Normalize() {
	u.Email = NormalizeEmail(u.Email)
	if u.Username != nil {
		name := NormalizeUsername(*u.Username)
		u.Username = &name
	}
}

// IsLocked reports whether the account is inside its lockout window.
func (u *User) IsLocked() bool {
	return u.AccountLockedUntil != nil && u.AccountLockedUntil.After(time.Now())
}

// SafeUser is the serialization view of a User fit to cross the trust
// boundary: no password hash, no lockout counters, no delete marker.
type SafeUser struct {
	ID              string     `json:"id"`
	Username        *string    `json:"username"`
	Email           string     `json:"email"`
	GoogleID        *string    `json:"google_id,omitempty"`
	DisplayName     *string    `json:"display_name"`
	ProfilePhotoURL *string    `json:"profile_photo_url"`
	IsActive        bool       `json:"is_active"`
	EmailVerified   bool       `json:"email_verified"`
	AuthProvider    string     `json:"auth_provider"`
	LastLogin       *time.Time `json:"last_login"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Safe returns the trust-boundary view of the user.
func (u *User) Safe() SafeUser {
	return SafeUser{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		GoogleID:        u.GoogleID,
		DisplayName:     u.DisplayName,
		ProfilePhotoURL: u.ProfilePhotoURL,
		IsActive:        u.IsActive,
		EmailVerified:   u.EmailVerified,
		AuthProvider:    u.AuthProvider,
		LastLogin:       u.LastLogin,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// NormalizeEmail lower-cases and trims an email for storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUsername lower-cases and trims a username for storage or lookup.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
