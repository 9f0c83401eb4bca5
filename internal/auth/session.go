package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Session is the identity established at the access gate. It is passed
// explicitly to everything that acts on behalf of a guest.
type Session struct {
	GuestID   uuid.UUID
	GuestName string
	Phone     string
	// IdentityID is set for password sessions and becomes invalid when the
	// guest's password is reset.
	IdentityID *uuid.UUID
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying the session
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored in ctx, if any
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

type sessionClaims struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Identity string `json:"idn,omitempty"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies session tokens
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the session and fills in its timestamps
func (t *Tokens) Issue(s *Session) (string, error) {
	now := t.now()
	s.IssuedAt = now.Truncate(time.Second)
	s.ExpiresAt = now.Add(t.ttl).Truncate(time.Second)

	claims := sessionClaims{
		Name:  s.GuestName,
		Phone: s.Phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.GuestID.String(),
			IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}
	if s.IdentityID != nil {
		claims.Identity = s.IdentityID.String()
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and rebuilds the session it carries
func (t *Tokens) Parse(token string) (*Session, error) {
	var claims sessionClaims
	// Expiry is checked below against the injected clock.
	parser := jwt.Parser{SkipClaimsValidation: true}
	_, err := parser.ParseWithClaims(token, &claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(t.now()) {
		return nil, fmt.Errorf("%w: expired", ErrNoSession)
	}

	guestID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrNoSession)
	}
	s := &Session{
		GuestID:   guestID,
		GuestName: claims.Name,
		Phone:     claims.Phone,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.Time
	}
	if claims.Identity != "" {
		id, err := uuid.Parse(claims.Identity)
		if err != nil {
			return nil, fmt.Errorf("%w: bad identity", ErrNoSession)
		}
		s.IdentityID = &id
	}
	return s, nil
}

var (
	ErrNoSession          = errors.New("no valid session")
	ErrNotInvited         = errors.New("phone number is not on the guest list")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password does not meet policy")
)
