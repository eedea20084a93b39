// Package audit records security-relevant events of the passwordless
// flows: token issuance, exchanges and admin approvals.
package audit

import (
	"context"
	"time"
)

// Event types recorded by the module.
const (
	TypeTokenIssued   = "token.issued"
	TypeEmailExchange = "token.exchange.email"
	TypeSMSExchange   = "token.exchange.sms"
	TypeTokenApproved = "token.approved"
	TypeTokenRejected = "token.rejected"
)

// Event is a structured security event record.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	ActorID   string    `json:"actor_id,omitempty"`   // admin or requester, when known
	SubjectID string    `json:"subject_id,omitempty"` // affected user
	Status    string    `json:"status"`               // "success", "failure", "blocked"
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists audit events. Implementations must not fail the
// surrounding flow; errors are for the caller to log, not to act on.
type Store interface {
	SaveEvent(ctx context.Context, event *Event) error
	ListEvents(ctx context.Context, limit int) ([]*Event, error)
}
