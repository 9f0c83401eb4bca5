package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EventType is one of the wedding sub-events
type EventType string

const (
	EventWelcome   EventType = "welcome"
	EventMehndi    EventType = "mehndi"
	EventHaldi     EventType = "haldi"
	EventNikah     EventType = "nikah"
	EventReception EventType = "reception"
	EventTrek      EventType = "trek"
)

// InvitableEvents lists the events a guest can be invited to individually.
// The welcome page is shown to everyone.
var InvitableEvents = []EventType{
	EventMehndi,
	EventHaldi,
	EventNikah,
	EventReception,
	EventTrek,
}

// ParseEventType validates a raw event tag
func ParseEventType(raw string) (EventType, error) {
	e := EventType(strings.ToLower(strings.TrimSpace(raw)))
	switch e {
	case EventWelcome, EventMehndi, EventHaldi, EventNikah, EventReception, EventTrek:
		return e, nil
	}
	return "", fmt.Errorf("unknown event type %q", raw)
}

// Invitable reports whether the event can be toggled per guest
func (e EventType) Invitable() bool {
	for _, ie := range InvitableEvents {
		if ie == e {
			return true
		}
	}
	return false
}

// EventInvitation records whether a guest is invited to an event.
type EventInvitation struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	GuestID   uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_invitation_guest_event;not null" json:"guest_id"`
	EventType EventType `gorm:"uniqueIndex:idx_invitation_guest_event;not null" json:"event_type"`
	Invited   bool      `gorm:"not null" json:"invited"`
}

// InvitationRows builds the full set of rows for a guest, one per invitable
// event, marking the selected ones as invited.
func InvitationRows(guestID uuid.UUID, selected []EventType) []EventInvitation {
	chosen := make(map[EventType]bool, len(selected))
	for _, e := range selected {
		chosen[e] = true
	}
	rows := make([]EventInvitation, 0, len(InvitableEvents))
	for _, e := range InvitableEvents {
		rows = append(rows, EventInvitation{GuestID: guestID, EventType: e, Invited: chosen[e]})
	}
	return rows
}
