// Package itinerary decides which slides a guest sees and tracks the guest's
// position while paging through them.
package itinerary

import (
	"sort"

	"wedding-site/internal/models"
)

// Invitations is the set of events a guest may see. A guest without any
// invitation rows predates per-event invitations and is Unrestricted.
type Invitations struct {
	Unrestricted bool
	events       map[models.EventType]bool
}

// Everything is the sentinel for a guest with no configured restrictions
func Everything() Invitations {
	return Invitations{Unrestricted: true}
}

// FromRows builds the set from stored invitation rows
func FromRows(rows []models.EventInvitation) Invitations {
	if len(rows) == 0 {
		return Everything()
	}
	inv := Invitations{events: make(map[models.EventType]bool, len(rows))}
	for _, r := range rows {
		if r.Invited {
			inv.events[r.EventType] = true
		}
	}
	return inv
}

// Allows reports whether slides of the given event type are shown
func (inv Invitations) Allows(e models.EventType) bool {
	if e == models.EventWelcome || inv.Unrestricted {
		return true
	}
	return inv.events[e]
}

// Events lists the invited events in canonical order. Unrestricted sets list
// every invitable event.
func (inv Invitations) Events() []models.EventType {
	out := make([]models.EventType, 0, len(models.InvitableEvents))
	for _, e := range models.InvitableEvents {
		if inv.Allows(e) {
			out = append(out, e)
		}
	}
	return out
}

// Visible returns the slides the guest may see ordered by page number
func Visible(slides []models.Slide, inv Invitations) []models.Slide {
	out := make([]models.Slide, 0, len(slides))
	for _, s := range slides {
		if inv.Allows(s.EventType) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PageNumber < out[j].PageNumber })
	return out
}
