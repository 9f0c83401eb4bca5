package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wedding-site/internal/auth"
	"wedding-site/internal/media"
	"wedding-site/internal/models"
	"wedding-site/internal/phone"
	"wedding-site/internal/storage"
)

// AdminHandler implements the admin console. Callers are expected to have
// passed the RoleGuard already.
type AdminHandler struct {
	storage  *storage.Storage
	phones   *phone.Normalizer
	gate     *auth.Gate
	media    media.Store
	maxBytes int64
	log      zerolog.Logger
}

type AdminConfig struct {
	Storage *storage.Storage
	Phones  *phone.Normalizer
	Gate    *auth.Gate
	Media   media.Store
	// MaxUploadBytes caps background uploads
	MaxUploadBytes int64
	Log            zerolog.Logger
}

func NewAdminHandler(cfg AdminConfig) *AdminHandler {
	return &AdminHandler{
		storage:  cfg.Storage,
		phones:   cfg.Phones,
		gate:     cfg.Gate,
		media:    cfg.Media,
		maxBytes: cfg.MaxUploadBytes,
		log:      cfg.Log.With().Str("component", "Admin").Logger(),
	}
}

// GuestInput is the add/edit guest form. A nil Events list means "all
// events" on create and "unchanged" on update.
type GuestInput struct {
	Name     string   `json:"name" validate:"required,max=200"`
	Phone    string   `json:"phone" validate:"required,max=40"`
	Email    string   `json:"email" validate:"omitempty,email,max=200"`
	Category string   `json:"category" validate:"max=100"`
	Events   []string `json:"events" validate:"omitempty,max=5"`
}

func (h *AdminHandler) guestFromInput(in GuestInput) (*models.Guest, []models.EventType, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := Validate(in); err != nil {
		return nil, nil, err
	}
	normalized, err := h.phones.Normalize(in.Phone)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	events, err := parseEvents(in.Events)
	if err != nil {
		return nil, nil, err
	}
	guest := &models.Guest{
		Name:     in.Name,
		Phone:    normalized,
		Email:    in.Email,
		Category: strings.TrimSpace(in.Category),
	}
	return guest, events, nil
}

func parseEvents(raw []string) ([]models.EventType, error) {
	if raw == nil {
		return nil, nil
	}
	events := make([]models.EventType, 0, len(raw))
	for _, r := range raw {
		e, err := models.ParseEventType(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if !e.Invitable() {
			return nil, invalid("%s is shown to every guest and cannot be toggled", e)
		}
		events = append(events, e)
	}
	return events, nil
}

// CreateGuest adds a guest with its invitation set
func (h *AdminHandler) CreateGuest(ctx context.Context, in GuestInput) (*models.Guest, error) {
	guest, events, err := h.guestFromInput(in)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = models.InvitableEvents
	}
	if err := h.storage.CreateGuest(ctx, guest, events); err != nil {
		return nil, err
	}
	h.log.Info().Str("guest_id", guest.ID.String()).Str("name", guest.Name).Msg("Guest added")
	return guest, nil
}

// UpdateGuest edits a guest and, when events are given, its invitation set
func (h *AdminHandler) UpdateGuest(ctx context.Context, id uuid.UUID, in GuestInput) (*models.Guest, error) {
	guest, events, err := h.guestFromInput(in)
	if err != nil {
		return nil, err
	}
	guest.ID = id
	if err := h.storage.UpdateGuest(ctx, guest, events); err != nil {
		return nil, err
	}
	h.log.Info().Str("guest_id", id.String()).Msg("Guest updated")
	return h.storage.GetGuest(ctx, id)
}

func (h *AdminHandler) DeleteGuest(ctx context.Context, id uuid.UUID) error {
	if err := h.storage.DeleteGuest(ctx, id); err != nil {
		return err
	}
	h.log.Info().Str("guest_id", id.String()).Msg("Guest deleted")
	return nil
}

// ListGuests returns every guest with RSVP, family members and invitations
func (h *AdminHandler) ListGuests(ctx context.Context) ([]models.GuestDetail, error) {
	return h.storage.GuestDetails(ctx)
}

// GuestsByState filters the guest list by RSVP state
func (h *AdminHandler) GuestsByState(ctx context.Context, state models.RSVPState) ([]models.GuestDetail, error) {
	switch state {
	case models.RSVPPending, models.RSVPAttending, models.RSVPDeclined:
	default:
		return nil, invalid("unknown RSVP state %q", state)
	}
	all, err := h.storage.GuestDetails(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.GuestDetail, 0, len(all))
	for _, d := range all {
		if d.State() == state {
			out = append(out, d)
		}
	}
	return out, nil
}

// ExportGuests returns the rows written to CSV/XLSX exports
func (h *AdminHandler) ExportGuests(ctx context.Context) ([]models.GuestDetail, error) {
	return h.storage.GuestDetails(ctx)
}

// FindGuest looks a guest up by phone number in any format
func (h *AdminHandler) FindGuest(ctx context.Context, rawPhone string) (*models.Guest, error) {
	normalized, err := h.phones.Normalize(rawPhone)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return h.storage.GetGuestByPhone(ctx, normalized)
}

// SetInvitations replaces the guest's invitation set
func (h *AdminHandler) SetInvitations(ctx context.Context, id uuid.UUID, events []string) error {
	if events == nil {
		events = []string{}
	}
	parsed, err := parseEvents(events)
	if err != nil {
		return err
	}
	if _, err := h.storage.GetGuest(ctx, id); err != nil {
		return err
	}
	if err := h.storage.SetInvitations(ctx, id, parsed); err != nil {
		return err
	}
	h.log.Info().Str("guest_id", id.String()).Int("events", len(parsed)).Msg("Invitations updated")
	return nil
}

// ResetPassword removes the guest's password so the next login sets a new one
func (h *AdminHandler) ResetPassword(ctx context.Context, id uuid.UUID) (auth.ResetOutcome, error) {
	return h.gate.ResetPassword(ctx, id)
}

func (h *AdminHandler) GrantAdmin(ctx context.Context, id uuid.UUID) error {
	if err := h.storage.GrantRole(ctx, id, models.RoleAdmin); err != nil {
		return err
	}
	h.log.Info().Str("guest_id", id.String()).Msg("Admin role granted")
	return nil
}

func (h *AdminHandler) RevokeAdmin(ctx context.Context, id uuid.UUID) error {
	if err := h.storage.RevokeRole(ctx, id, models.RoleAdmin); err != nil {
		return err
	}
	h.log.Info().Str("guest_id", id.String()).Msg("Admin role revoked")
	return nil
}

func (h *AdminHandler) Settings(ctx context.Context) (map[string]string, error) {
	return h.storage.Settings(ctx)
}

// SettingInput is one site setting
type SettingInput struct {
	Key   string `json:"key" validate:"required,max=100"`
	Value string `json:"value" validate:"max=2000"`
}

func (h *AdminHandler) PutSetting(ctx context.Context, in SettingInput) error {
	in.Key = strings.TrimSpace(in.Key)
	if err := Validate(in); err != nil {
		return err
	}
	return h.storage.PutSetting(ctx, in.Key, in.Value)
}
