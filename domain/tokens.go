package domain

import (
	"context"
	"time"
)

// AuthToken is a single-use-or-time-limited login credential delivered
// out of band. Exactly one of EmailID/PhoneNumberID is set.
type AuthToken struct {
	Token         string    `json:"token"`
	EmailID       *string   `json:"email_id,omitempty"`
	PhoneNumberID *string   `json:"phone_number_id,omitempty"`
	NextURL       string    `json:"next_url,omitempty"`
	Approved      bool      `json:"approved"`
	CreatedAt     time.Time `json:"created_at"`
}

// TokenStore defines the interface for managing transient
// authentication tokens.
type TokenStore interface {
	SaveToken(ctx context.Context, token *AuthToken) error
	// GetToken looks a token up by its exact string. Implementations
	// return an error for unknown tokens.
	GetToken(ctx context.Context, token string) (*AuthToken, error)
	DeleteToken(ctx context.Context, token string) error
	// DeleteStaleTokens removes every token created before cutoff.
	// Callers run this before any lookup so that expired tokens are
	// never honored.
	DeleteStaleTokens(ctx context.Context, cutoff time.Time) error
	// ListUnapprovedTokens returns tokens awaiting admin approval.
	ListUnapprovedTokens(ctx context.Context) ([]*AuthToken, error)
	// ApproveToken flips the approved flag on a pending token.
	ApproveToken(ctx context.Context, token string) (*AuthToken, error)
}
