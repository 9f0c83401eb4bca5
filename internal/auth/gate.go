package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"wedding-site/internal/models"
	"wedding-site/internal/phone"
	"wedding-site/internal/storage"
)

const (
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes
	maxPasswordBytes = 72
)

// GuestStore is the part of the storage the gate needs
type GuestStore interface {
	GetGuest(ctx context.Context, id uuid.UUID) (*models.Guest, error)
	GetGuestByPhone(ctx context.Context, phone string) (*models.Guest, error)
	GetIdentity(ctx context.Context, id uuid.UUID) (*models.Identity, error)
	LinkIdentity(ctx context.Context, guestID uuid.UUID, identity *models.Identity) error
	UnlinkIdentity(ctx context.Context, guestID uuid.UUID) (bool, error)
}

type Gate struct {
	store   GuestStore
	phones  *phone.Normalizer
	tokens  *Tokens
	codes   CodeStore
	sender  CodeSender
	codeTTL time.Duration
	cost    int
	log     zerolog.Logger
}

type Config struct {
	Store   GuestStore
	Phones  *phone.Normalizer
	Tokens  *Tokens
	Codes   CodeStore
	Sender  CodeSender
	CodeTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost
	BcryptCost int
	Log        zerolog.Logger
}

// NewGate creates the access gate
func NewGate(cfg Config) *Gate {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	ttl := cfg.CodeTTL
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &Gate{
		store:   cfg.Store,
		phones:  cfg.Phones,
		tokens:  cfg.Tokens,
		codes:   cfg.Codes,
		sender:  cfg.Sender,
		codeTTL: ttl,
		cost:    cost,
		log:     cfg.Log.With().Str("component", "Auth").Logger(),
	}
}

// LookupResult tells the client which step follows the phone prompt
type LookupResult struct {
	GuestName   string `json:"guest_name"`
	HasPassword bool   `json:"has_password"`
}

// LoginResult is returned by every successful login
type LoginResult struct {
	Session *Session `json:"-"`
	Token   string   `json:"token"`
	// Registered is true when this login created the guest's password
	Registered bool `json:"registered"`
}

// Lookup finds the guest behind a phone number
func (g *Gate) Lookup(ctx context.Context, rawPhone string) (*LookupResult, error) {
	guest, err := g.findGuest(ctx, rawPhone)
	if err != nil {
		return nil, err
	}
	return &LookupResult{GuestName: guest.Name, HasPassword: guest.UserID != nil}, nil
}

// LoginWithPassword authenticates a guest. The first login of a guest without
// an identity sets the password.
func (g *Gate) LoginWithPassword(ctx context.Context, rawPhone, password string) (*LoginResult, error) {
	guest, err := g.findGuest(ctx, rawPhone)
	if err != nil {
		return nil, err
	}

	if guest.UserID == nil {
		if err := checkPasswordPolicy(password); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), g.cost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		identity := &models.Identity{PasswordHash: hash}
		if err := g.store.LinkIdentity(ctx, guest.ID, identity); err != nil {
			if errors.Is(err, storage.ErrAlreadyLinked) {
				// Lost a race with a concurrent first login
				return nil, ErrInvalidCredentials
			}
			return nil, fmt.Errorf("failed to create identity: %w", err)
		}
		g.log.Info().Str("guest_id", guest.ID.String()).Msg("Created guest identity")
		res, err := g.issue(guest, &identity.ID)
		if err != nil {
			return nil, err
		}
		res.Registered = true
		return res, nil
	}

	identity, err := g.store.GetIdentity(ctx, *guest.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(identity.PasswordHash, []byte(password)); err != nil {
		g.log.Debug().Str("guest_id", guest.ID.String()).Msg("Password mismatch")
		return nil, ErrInvalidCredentials
	}
	return g.issue(guest, &identity.ID)
}

// RequestCode sends a one-time access code to the guest's phone
func (g *Gate) RequestCode(ctx context.Context, rawPhone string) error {
	guest, err := g.findGuest(ctx, rawPhone)
	if err != nil {
		return err
	}
	code, err := newCode()
	if err != nil {
		return err
	}
	if err := g.codes.Save(ctx, guest.Phone, code, g.codeTTL); err != nil {
		return err
	}
	if err := g.sender.SendAccessCode(ctx, guest.Phone, code); err != nil {
		return fmt.Errorf("failed to send code: %w", err)
	}
	g.log.Info().Str("guest_id", guest.ID.String()).Msg("Sent access code")
	return nil
}

// VerifyCode exchanges a one-time code for a session
func (g *Gate) VerifyCode(ctx context.Context, rawPhone, code string) (*LoginResult, error) {
	guest, err := g.findGuest(ctx, rawPhone)
	if err != nil {
		return nil, err
	}
	ok, err := g.codes.Consume(ctx, guest.Phone, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return g.issue(guest, nil)
}

// Authenticate turns a bearer token into a session, checking that the guest
// still exists and that a password session was not revoked by a reset.
func (g *Gate) Authenticate(ctx context.Context, token string) (*Session, error) {
	s, err := g.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	guest, err := g.store.GetGuest(ctx, s.GuestID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: guest removed", ErrNoSession)
	}
	if err != nil {
		return nil, err
	}
	if s.IdentityID != nil && (guest.UserID == nil || *guest.UserID != *s.IdentityID) {
		return nil, fmt.Errorf("%w: password was reset", ErrNoSession)
	}
	s.GuestName = guest.Name
	s.Phone = guest.Phone
	return s, nil
}

// ResetOutcome describes what a password reset did
type ResetOutcome string

const (
	ResetDone      ResetOutcome = "reset"
	ResetNoAccount ResetOutcome = "no_account"
)

// ResetPassword deletes the guest's identity so the next login sets a new
// password.
func (g *Gate) ResetPassword(ctx context.Context, guestID uuid.UUID) (ResetOutcome, error) {
	unlinked, err := g.store.UnlinkIdentity(ctx, guestID)
	if err != nil {
		return "", err
	}
	if !unlinked {
		return ResetNoAccount, nil
	}
	g.log.Info().Str("guest_id", guestID.String()).Msg("Password reset")
	return ResetDone, nil
}

func (g *Gate) findGuest(ctx context.Context, rawPhone string) (*models.Guest, error) {
	normalized, err := g.phones.Normalize(rawPhone)
	if err != nil {
		return nil, err
	}
	guest, err := g.store.GetGuestByPhone(ctx, normalized)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotInvited
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up guest: %w", err)
	}
	return guest, nil
}

func (g *Gate) issue(guest *models.Guest, identityID *uuid.UUID) (*LoginResult, error) {
	s := &Session{
		GuestID:    guest.ID,
		GuestName:  guest.Name,
		Phone:      guest.Phone,
		IdentityID: identityID,
	}
	token, err := g.tokens.Issue(s)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Session: s, Token: token}, nil
}

func checkPasswordPolicy(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: must be at most %d bytes", ErrWeakPassword, maxPasswordBytes)
	}
	return nil
}
