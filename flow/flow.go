// Package flow implements the passwordless authentication flows:
// token issuance bound to a contact identity, and the exchange of a
// presented token for a resolved user.
package flow

import (
	"errors"
	"time"
)

// Policy is the explicit configuration value object consumed by the
// flows. Components receive it at construction; nothing reads global
// settings.
type Policy struct {
	// TokenDuration is the lifetime of a token. Older tokens are
	// swept before every lookup.
	TokenDuration time.Duration

	// SingleUseLink deletes a token on its first exchange attempt,
	// before the rest of the exchange runs. A token is then consumed
	// even when a later validation step fails; that trade-off is
	// intentional.
	SingleUseLink bool

	// DisableUserCreation turns off auto-provisioning of accounts
	// during exchange.
	DisableUserCreation bool

	// RequireAdminApproval issues tokens with Approved=false. An
	// unapproved token is not exchangeable and its notification is
	// held back until an admin approves it.
	RequireAdminApproval bool
}

// DefaultPolicy mirrors the documented configuration defaults.
func DefaultPolicy() Policy {
	return Policy{TokenDuration: 30 * time.Minute}
}

var (
	// ErrContactRequired is returned by Generate when neither an
	// email address nor a phone number was supplied, or both were.
	ErrContactRequired = errors.New("flow: exactly one of email or phone number required")

	// ErrOwnershipConflict is returned by Generate when the contact
	// is already confirmed for a different account. The API layer
	// must surface it with the same generic message as an invalid
	// token so that account existence cannot be probed.
	ErrOwnershipConflict = errors.New("flow: contact belongs to another account")

	// ErrInvalidToken covers expired, unknown, unapproved and
	// validation-failed tokens uniformly.
	ErrInvalidToken = errors.New("flow: invalid or expired token")
)
