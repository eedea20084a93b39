package domain

import (
	"fmt"
	"strings"
	"time"
)

// Email is a contact identity backed by an email address. Address is
// unique across all Email records. UserID is the account that has
// proven ownership by exchanging a token bound to this address;
// PotentialUserID is an account that has claimed the address but not
// yet confirmed it. Once UserID is set, PotentialUserID is cleared.
type Email struct {
	ID              string    `json:"id"`
	Address         string    `json:"address"`
	UserID          *string   `json:"user_id,omitempty"`
	PotentialUserID *string   `json:"potential_user_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (e *Email) String() string {
	return fmt.Sprintf("%s: %s (Maybe: %s)", e.Address, deref(e.UserID), deref(e.PotentialUserID))
}

// PhoneNumber is the SMS counterpart of Email. Number must carry an
// international prefix, e.g. +15555555555.
type PhoneNumber struct {
	ID              string    `json:"id"`
	Number          string    `json:"number"`
	UserID          *string   `json:"user_id,omitempty"`
	PotentialUserID *string   `json:"potential_user_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (p *PhoneNumber) String() string {
	return fmt.Sprintf("%s: %s (Maybe: %s)", p.Number, deref(p.UserID), deref(p.PotentialUserID))
}

func deref(s *string) string {
	if s == nil {
		return "<none>"
	}
	return *s
}

// NormalizeEmail canonicalizes an address for uniqueness checks.
func NormalizeEmail(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// NormalizePhoneNumber strips spaces, dashes and parentheses so that
// formatting differences cannot produce duplicate identities.
func NormalizePhoneNumber(number string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(number) {
		switch r {
		case ' ', '-', '(', ')', '.':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
