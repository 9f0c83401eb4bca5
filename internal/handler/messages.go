package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wedding-site/internal/models"
	"wedding-site/internal/phone"
	"wedding-site/internal/storage"
	"wedding-site/internal/whatsapp"
)

// Messenger delivers WhatsApp messages
type Messenger interface {
	SendInvitation(ctx context.Context, phone, name, link string) error
	SendMessage(ctx context.Context, phone, message string) error
}

// MessageHandler sends invitations and records YES/NO replies as RSVPs
type MessageHandler struct {
	messenger Messenger
	storage   *storage.Storage
	phones    *phone.Normalizer
	wedding   whatsapp.Wedding
	link      string
	log       zerolog.Logger
}

// NewMessageHandler creates a new message handler. link is the address of the
// site's login page quoted in invitations.
func NewMessageHandler(m Messenger, s *storage.Storage, phones *phone.Normalizer, wedding whatsapp.Wedding, link string, log zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		messenger: m,
		storage:   s,
		phones:    phones,
		wedding:   wedding,
		link:      link,
		log:       log.With().Str("component", "Messages").Logger(),
	}
}

// SendInvitation sends the invitation to a guest on the list
func (h *MessageHandler) SendInvitation(ctx context.Context, guestID uuid.UUID) error {
	guest, err := h.storage.GetGuest(ctx, guestID)
	if err != nil {
		return err
	}
	if err := h.messenger.SendInvitation(ctx, guest.Phone, guest.Name, h.link); err != nil {
		return err
	}
	h.log.Info().Str("guest_id", guest.ID.String()).Msg("Invitation sent")
	return nil
}

// HandleReply processes an incoming message. Messages from numbers that are
// not on the guest list, and messages that are not a clear yes or no, are
// ignored.
func (h *MessageHandler) HandleReply(ctx context.Context, sender, text string) error {
	normalized, err := h.phones.Normalize(sender)
	if err != nil {
		return nil
	}
	guest, err := h.storage.GetGuestByPhone(ctx, normalized)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var (
		attending bool
		response  string
	)
	switch whatsapp.ParseReply(text) {
	case whatsapp.ReplyYes:
		attending, response = true, whatsapp.AcceptedText(h.wedding)
	case whatsapp.ReplyNo:
		attending, response = false, whatsapp.DeclinedText(h.wedding)
	default:
		return nil
	}

	if err := h.recordAttendance(ctx, guest.ID, attending); err != nil {
		return fmt.Errorf("failed to update RSVP: %w", err)
	}
	h.log.Info().Str("guest_id", guest.ID.String()).Bool("attending", attending).Msg("RSVP received by message")

	if err := h.messenger.SendMessage(ctx, guest.Phone, response); err != nil {
		return fmt.Errorf("failed to send confirmation: %w", err)
	}
	return nil
}

// recordAttendance flips the attending flag and keeps the rest of any RSVP
// the guest already submitted on the site
func (h *MessageHandler) recordAttendance(ctx context.Context, guestID uuid.UUID, attending bool) error {
	rsvp, err := h.storage.GetRSVP(ctx, guestID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		rsvp = &models.RSVP{GuestID: guestID}
	case err != nil:
		return err
	}
	family, err := h.storage.FamilyMembers(ctx, guestID)
	if err != nil {
		return err
	}
	rsvp.Attending = attending
	return h.storage.SaveRSVP(ctx, rsvp, family)
}
