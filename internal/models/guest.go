package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Guest represents a wedding guest
type Guest struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"not null" json:"name"`
	Phone     string     `gorm:"uniqueIndex;not null" json:"phone"`
	Email     string     `json:"email,omitempty"`
	Category  string     `json:"category,omitempty"`
	UserID    *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"user_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (g *Guest) BeforeCreate(*gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// Identity is the credential record a guest logs in with. A guest links to at
// most one identity through Guest.UserID.
type Identity struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PasswordHash []byte    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (i *Identity) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Role tags stored in user_roles
const (
	RoleAdmin = "admin"
)

// UserRole grants a role to a guest.
type UserRole struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	GuestID   uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_role_guest;not null" json:"guest_id"`
	Role      string    `gorm:"uniqueIndex:idx_role_guest;not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// SiteSetting is a free-form key/value pair shown on the public pages.
type SiteSetting struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Well-known site setting keys
const (
	SettingWeddingDate     = "wedding_date"
	SettingWeddingLocation = "wedding_location"
	SettingBrideName       = "bride_name"
	SettingGroomName       = "groom_name"
)
