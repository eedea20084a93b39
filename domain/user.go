package domain

import "context"

// User is the host application's account record. The module only ever
// needs its identifier; everything else is optional capability.
type User interface {
	GetID() string
}

// Optional capabilities of the concrete user type. The exchange flow
// probes for these with type assertions before writing the matching
// field, so integrators opt in simply by implementing them.
type UsernameSetter interface {
	SetUsername(username string)
}

type EmailSetter interface {
	SetEmail(address string)
}

type PhoneNumberSetter interface {
	SetPhoneNumber(number string)
}

// UserCreation describes the attributes the module supplies when it
// auto-provisions an account. Username is empty unless WantsUsername
// was reported by the store.
type UserCreation struct {
	Username string
}

// UserStore is the host-owned account storage. The module reads and
// creates users through it but never deletes them.
type UserStore interface {
	GetUser(ctx context.Context, id string) (User, error)
	// GetOrCreateUser finds an existing user matching args or creates
	// one. With a zero UserCreation this always creates.
	GetOrCreateUser(ctx context.Context, args UserCreation) (User, error)
	SaveUser(ctx context.Context, user User) error
	// WantsUsername reports whether the concrete user type carries a
	// username field that must be populated on creation.
	WantsUsername() bool
}
