// Package domain defines the core types and storage contracts for
// Latchkey passwordless authentication.
//
// This package provides the fundamental contracts that storage
// implementations must fulfill. It abstracts persistence of contact
// identities and authentication tokens, allowing any backend (GORM,
// Redis, in-memory for tests) to be plugged in.
//
// # Interfaces
//
//   - Storage: Composite interface combining all storage operations
//   - ContactStore: Email and PhoneNumber identity persistence
//   - TokenStore: Authentication token management
//   - UserStore: Host-owned account storage collaborator
//
// See the lgorm package for a complete GORM-based implementation of
// ContactStore and TokenStore.
package domain

import "context"

// Storage defines the interface for all persistence the module owns.
type Storage interface {
	ContactStore
	TokenStore
}

// ContactStore persists the contact identities owned by the module.
// GetOrCreate operations must be race-safe at the storage level: two
// concurrent calls for the same never-seen address converge to one
// record via the uniqueness constraint, not via check-then-insert in
// application code.
type ContactStore interface {
	// GetOrCreateEmail returns the identity for the normalized
	// address, creating it when absent. The second result reports
	// whether a new record was created.
	GetOrCreateEmail(ctx context.Context, address string) (*Email, bool, error)
	GetEmail(ctx context.Context, id string) (*Email, error)
	SaveEmail(ctx context.Context, email *Email) error

	GetOrCreatePhoneNumber(ctx context.Context, number string) (*PhoneNumber, bool, error)
	GetPhoneNumber(ctx context.Context, id string) (*PhoneNumber, error)
	SavePhoneNumber(ctx context.Context, phone *PhoneNumber) error
}

// IDGenerator is a function that generates a new record ID.
type IDGenerator func() string
