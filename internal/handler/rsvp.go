package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"wedding-site/internal/auth"
	"wedding-site/internal/models"
	"wedding-site/internal/storage"
)

type RSVPHandler struct {
	storage *storage.Storage
	log     zerolog.Logger
}

// NewRSVPHandler creates a new RSVP handler
func NewRSVPHandler(s *storage.Storage, log zerolog.Logger) *RSVPHandler {
	return &RSVPHandler{storage: s, log: log.With().Str("component", "RSVP").Logger()}
}

// FamilyMemberInput is one accompanying person in a submission
type FamilyMemberInput struct {
	Name                string `json:"name" validate:"max=200"`
	DietaryRequirements string `json:"dietary_requirements" validate:"max=500"`
}

// Submission is the RSVP form
type Submission struct {
	Attending           bool                `json:"attending"`
	IncludingTrek       bool                `json:"including_trek"`
	DietaryRequirements string              `json:"dietary_requirements" validate:"max=500"`
	FamilyMembers       []FamilyMemberInput `json:"family_members" validate:"max=20,dive"`
}

// RSVPView is the stored answer of a guest, if any
type RSVPView struct {
	RSVP          *models.RSVP          `json:"rsvp"`
	FamilyMembers []models.FamilyMember `json:"family_members"`
}

// Load returns the session guest's RSVP and family members
func (h *RSVPHandler) Load(ctx context.Context, s *auth.Session) (*RSVPView, error) {
	rsvp, err := h.storage.GetRSVP(ctx, s.GuestID)
	if errors.Is(err, storage.ErrNotFound) {
		return &RSVPView{FamilyMembers: []models.FamilyMember{}}, nil
	}
	if err != nil {
		return nil, err
	}
	family, err := h.storage.FamilyMembers(ctx, s.GuestID)
	if err != nil {
		return nil, err
	}
	return &RSVPView{RSVP: rsvp, FamilyMembers: family}, nil
}

// Submit validates the form and stores it for the session guest. The RSVP and
// its family members are replaced together.
func (h *RSVPHandler) Submit(ctx context.Context, s *auth.Session, sub Submission) (*RSVPView, error) {
	if err := Validate(sub); err != nil {
		return nil, err
	}

	family := make([]models.FamilyMember, 0, len(sub.FamilyMembers))
	for i, m := range sub.FamilyMembers {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			return nil, invalid("family member %d needs a name", i+1)
		}
		family = append(family, models.FamilyMember{
			Name:                name,
			DietaryRequirements: strings.TrimSpace(m.DietaryRequirements),
		})
	}

	rsvp := &models.RSVP{
		GuestID:             s.GuestID,
		Attending:           sub.Attending,
		IncludingTrek:       sub.IncludingTrek,
		DietaryRequirements: strings.TrimSpace(sub.DietaryRequirements),
	}
	if err := h.storage.SaveRSVP(ctx, rsvp, family); err != nil {
		return nil, fmt.Errorf("failed to save RSVP: %w", err)
	}

	h.log.Info().
		Str("guest_id", s.GuestID.String()).
		Bool("attending", rsvp.Attending).
		Int("family", len(family)).
		Msg("RSVP saved")
	return &RSVPView{RSVP: rsvp, FamilyMembers: family}, nil
}
