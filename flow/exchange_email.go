package flow

import (
	"context"

	"github.com/latchkeyhq/latchkey/audit"
	"github.com/latchkeyhq/latchkey/domain"
)

// EmailBackend exchanges email tokens. On success the bound Email
// identity is confirmed for the resolved user.
type EmailBackend struct {
	*Backend
}

func NewEmailBackend(b *Backend) *EmailBackend { return &EmailBackend{Backend: b} }

// Exchange redeems an email token. exchanger is the authenticated
// caller, nil when the token is presented anonymously.
func (b *EmailBackend) Exchange(ctx context.Context, tokenString string, exchanger domain.User) (*Result, error) {
	user, tok, err := b.exchange(ctx, tokenString, exchanger)
	if err != nil {
		b.record(ctx, audit.TypeEmailExchange, "", "failure")
		return nil, err
	}
	if tok.EmailID == nil {
		// An SMS token presented to the email backend.
		b.record(ctx, audit.TypeEmailExchange, user.GetID(), "failure")
		return nil, ErrInvalidToken
	}

	email, err := b.contacts.GetEmail(ctx, *tok.EmailID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if email.PotentialUserID != nil && *email.PotentialUserID != user.GetID() {
		// The pending ownership claim names a different account.
		b.record(ctx, audit.TypeEmailExchange, user.GetID(), "blocked")
		return nil, ErrInvalidToken
	}

	uid := user.GetID()
	email.UserID = &uid
	email.PotentialUserID = nil

	if setter, ok := user.(domain.EmailSetter); ok {
		setter.SetEmail(email.Address)
	}
	if err := b.users.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	if err := b.contacts.SaveEmail(ctx, email); err != nil {
		return nil, err
	}

	b.record(ctx, audit.TypeEmailExchange, uid, "success")
	return &Result{User: user, NextURL: tok.NextURL}, nil
}
