package flow

import (
	"context"

	"github.com/latchkeyhq/latchkey/audit"
	"github.com/latchkeyhq/latchkey/domain"
)

// SMSBackend exchanges SMS codes. Mirror of EmailBackend for
// PhoneNumber identities.
type SMSBackend struct {
	*Backend
}

func NewSMSBackend(b *Backend) *SMSBackend { return &SMSBackend{Backend: b} }

func (b *SMSBackend) Exchange(ctx context.Context, tokenString string, exchanger domain.User) (*Result, error) {
	user, tok, err := b.exchange(ctx, tokenString, exchanger)
	if err != nil {
		b.record(ctx, audit.TypeSMSExchange, "", "failure")
		return nil, err
	}
	if tok.PhoneNumberID == nil {
		b.record(ctx, audit.TypeSMSExchange, user.GetID(), "failure")
		return nil, ErrInvalidToken
	}

	phone, err := b.contacts.GetPhoneNumber(ctx, *tok.PhoneNumberID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if phone.PotentialUserID != nil && *phone.PotentialUserID != user.GetID() {
		b.record(ctx, audit.TypeSMSExchange, user.GetID(), "blocked")
		return nil, ErrInvalidToken
	}

	uid := user.GetID()
	phone.UserID = &uid
	phone.PotentialUserID = nil

	if setter, ok := user.(domain.PhoneNumberSetter); ok {
		setter.SetPhoneNumber(phone.Number)
	}
	if err := b.users.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	if err := b.contacts.SavePhoneNumber(ctx, phone); err != nil {
		return nil, err
	}

	b.record(ctx, audit.TypeSMSExchange, uid, "success")
	return &Result{User: user, NextURL: tok.NextURL}, nil
}
