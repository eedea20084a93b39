package flow

import (
	"context"
	"time"

	"github.com/latchkeyhq/latchkey/domain"
)

// Exchanger dispatches a presented token to the backend for its bound
// contact variant, so callers with a single token entry point do not
// need to know whether a string came from an email or an SMS.
type Exchanger struct {
	email *EmailBackend
	sms   *SMSBackend
}

func NewExchanger(email *EmailBackend, sms *SMSBackend) *Exchanger {
	return &Exchanger{email: email, sms: sms}
}

// Exchange redeems a token of either variant. exchanger is the
// authenticated caller, nil when anonymous.
func (e *Exchanger) Exchange(ctx context.Context, tokenString string, exchanger domain.User) (*Result, error) {
	// Peek at the token to pick the variant. The chosen backend
	// re-runs lookup and consumption itself, so nothing is consumed
	// here.
	cutoff := time.Now().Add(-e.email.policy.TokenDuration)
	if err := e.email.tokens.DeleteStaleTokens(ctx, cutoff); err != nil {
		return nil, err
	}
	tok, err := e.email.tokens.GetToken(ctx, tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if tok.PhoneNumberID != nil {
		return e.sms.Exchange(ctx, tokenString, exchanger)
	}
	return e.email.Exchange(ctx, tokenString, exchanger)
}
