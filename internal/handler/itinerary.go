package handler

import (
	"context"

	"github.com/google/uuid"

	"wedding-site/internal/auth"
	"wedding-site/internal/itinerary"
	"wedding-site/internal/models"
	"wedding-site/internal/storage"
)

type ItineraryHandler struct {
	storage *storage.Storage
}

func NewItineraryHandler(s *storage.Storage) *ItineraryHandler {
	return &ItineraryHandler{storage: s}
}

// ItineraryView is what the itinerary page renders for one guest
type ItineraryView struct {
	GuestName    string             `json:"guest_name"`
	Unrestricted bool               `json:"unrestricted"`
	Invitations  []models.EventType `json:"invitations"`
	Slides       []models.Slide     `json:"slides"`
	Settings     map[string]string  `json:"settings"`
}

// Itinerary returns the slides the session guest is invited to
func (h *ItineraryHandler) Itinerary(ctx context.Context, s *auth.Session) (*ItineraryView, error) {
	view, err := h.ForGuest(ctx, s.GuestID)
	if err != nil {
		return nil, err
	}
	view.GuestName = s.GuestName
	return view, nil
}

// ForGuest builds the itinerary of any guest
func (h *ItineraryHandler) ForGuest(ctx context.Context, guestID uuid.UUID) (*ItineraryView, error) {
	rows, err := h.storage.Invitations(ctx, guestID)
	if err != nil {
		return nil, err
	}
	slides, err := h.storage.Slides(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := h.storage.Settings(ctx)
	if err != nil {
		return nil, err
	}

	inv := itinerary.FromRows(rows)
	return &ItineraryView{
		Unrestricted: inv.Unrestricted,
		Invitations:  inv.Events(),
		Slides:       itinerary.Visible(slides, inv),
		Settings:     settings,
	}, nil
}

// Travel returns the travel page blocks
func (h *ItineraryHandler) Travel(ctx context.Context) ([]models.TravelInfo, error) {
	return h.storage.TravelInfo(ctx)
}

// Settings returns the public site settings
func (h *ItineraryHandler) Settings(ctx context.Context) (map[string]string, error) {
	return h.storage.Settings(ctx)
}
