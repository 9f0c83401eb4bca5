// Package phone canonicalizes guest phone numbers. Every number is stored and
// looked up in E.164 form so that the roster has a single lookup key.
package phone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// ErrInvalid is returned for input that does not parse as a valid number
var ErrInvalid = errors.New("invalid phone number")

// Normalizer parses numbers, resolving national-format input against a
// default region.
type Normalizer struct {
	region string
}

// NewNormalizer creates a normalizer for a two-letter region code such as "PK"
func NewNormalizer(region string) *Normalizer {
	return &Normalizer{region: strings.ToUpper(strings.TrimSpace(region))}
}

// Normalize returns the E.164 form of raw, e.g. "+923012345678".
func (n *Normalizer) Normalize(raw string) (string, error) {
	num, err := n.parse(raw)
	if err != nil {
		return "", err
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// Display formats a number for humans, e.g. "+92 301 2345678". Input that
// cannot be parsed is returned unchanged.
func (n *Normalizer) Display(raw string) string {
	num, err := n.parse(raw)
	if err != nil {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
}

// Digits returns the E.164 number without the leading plus, the form the
// WhatsApp client addresses users by.
func (n *Normalizer) Digits(raw string) (string, error) {
	e164, err := n.Normalize(raw)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(e164, "+"), nil
}

func (n *Normalizer) parse(raw string) (*phonenumbers.PhoneNumber, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalid)
	}
	// "00" is the international call prefix in most regions
	if strings.HasPrefix(cleaned, "00") {
		cleaned = "+" + cleaned[2:]
	}
	num, err := phonenumbers.Parse(cleaned, n.region)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalid, raw, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return nil, fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
	return num, nil
}
