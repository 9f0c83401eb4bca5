package models

import (
	"time"

	"github.com/google/uuid"
)

// RSVP represents the attendance confirmation of a guest
type RSVP struct {
	ID                  uint      `gorm:"primaryKey" json:"-"`
	GuestID             uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"guest_id"`
	Attending           bool      `gorm:"not null" json:"attending"`
	IncludingTrek       bool      `gorm:"not null" json:"including_trek"`
	DietaryRequirements string    `json:"dietary_requirements,omitempty"`

	// Legacy single plus-one fields, superseded by FamilyMember rows.
	PlusOne     bool   `json:"plus_one,omitempty"`
	PlusOneName string `json:"plus_one_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RSVP) TableName() string { return "rsvps" }

// FamilyMember is someone accompanying the guest
type FamilyMember struct {
	ID                  uint      `gorm:"primaryKey" json:"-"`
	GuestID             uuid.UUID `gorm:"type:uuid;index;not null" json:"guest_id"`
	Name                string    `gorm:"not null" json:"name"`
	DietaryRequirements string    `json:"dietary_requirements,omitempty"`
}

// RSVPState summarizes a guest's response for listings
type RSVPState string

const (
	RSVPPending   RSVPState = "pending"
	RSVPAttending RSVPState = "attending"
	RSVPDeclined  RSVPState = "declined"
)

// GuestDetail joins a guest with everything the admin views show about them
type GuestDetail struct {
	Guest         Guest          `json:"guest"`
	RSVP          *RSVP          `json:"rsvp,omitempty"`
	FamilyMembers []FamilyMember `json:"family_members"`
	// Unrestricted is true when the guest has no invitation rows at all and
	// sees every event. Invitations is then empty.
	Unrestricted bool        `json:"unrestricted"`
	Invitations  []EventType `json:"invitations"`
	HasPassword  bool        `json:"has_password"`
}

// State returns the RSVP state of the guest
func (d GuestDetail) State() RSVPState {
	switch {
	case d.RSVP == nil:
		return RSVPPending
	case d.RSVP.Attending:
		return RSVPAttending
	default:
		return RSVPDeclined
	}
}
