package flow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/latchkeyhq/latchkey/audit"
	"github.com/latchkeyhq/latchkey/domain"
	"github.com/latchkeyhq/latchkey/logger"
	"github.com/latchkeyhq/latchkey/token"
)

// Result is what a successful exchange produces: the resolved user and
// the post-login redirect target the token carried, if any. Returning
// the pair keeps transient state off the external user object.
type Result struct {
	User    domain.User
	NextURL string
}

// Backend resolves a presented token string to a user. EmailBackend
// and SMSBackend layer the variant-specific ownership confirmation on
// top of it.
type Backend struct {
	contacts domain.ContactStore
	tokens   domain.TokenStore
	users    domain.UserStore
	strings  *token.Generator
	policy   Policy
	audits   audit.Store
}

func NewBackend(store domain.Storage, users domain.UserStore, strings *token.Generator, policy Policy) *Backend {
	return &Backend{
		contacts: store,
		tokens:   store,
		users:    users,
		strings:  strings,
		policy:   policy,
	}
}

// SetAuditStore enables audit event recording for exchanges.
func (b *Backend) SetAuditStore(s audit.Store) { b.audits = s }

// exchange runs the variant-independent part of the state machine and
// returns the resolved user together with the token record. exchanger
// is the authenticated caller presenting the token, nil when anonymous.
func (b *Backend) exchange(ctx context.Context, tokenString string, exchanger domain.User) (domain.User, *domain.AuthToken, error) {
	cutoff := time.Now().Add(-b.policy.TokenDuration)
	if err := b.tokens.DeleteStaleTokens(ctx, cutoff); err != nil {
		return nil, nil, err
	}

	tok, err := b.tokens.GetToken(ctx, tokenString)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}
	if !tok.Approved {
		// Pending admin approval. Indistinguishable from an unknown
		// token on purpose.
		return nil, nil, ErrInvalidToken
	}

	if b.policy.SingleUseLink {
		// Consume the token now. Failures further down still count as
		// the one permitted attempt.
		if err := b.tokens.DeleteToken(ctx, tok.Token); err != nil {
			return nil, nil, err
		}
	}

	var userID, potentialID *string
	switch {
	case tok.EmailID != nil:
		email, err := b.contacts.GetEmail(ctx, *tok.EmailID)
		if err != nil {
			return nil, nil, ErrInvalidToken
		}
		userID, potentialID = email.UserID, email.PotentialUserID
	case tok.PhoneNumberID != nil:
		phone, err := b.contacts.GetPhoneNumber(ctx, *tok.PhoneNumberID)
		if err != nil {
			return nil, nil, ErrInvalidToken
		}
		userID, potentialID = phone.UserID, phone.PotentialUserID
	default:
		return nil, nil, ErrInvalidToken
	}

	var user domain.User
	switch {
	case userID != nil:
		user, err = b.users.GetUser(ctx, *userID)
		if err != nil {
			return nil, nil, ErrInvalidToken
		}
	case potentialID != nil:
		// A pending ownership claim is honored only when the claimant
		// themselves presents the token. Anyone else holding it,
		// including the contact's real owner redeeming anonymously,
		// must not be logged into the claimant's account.
		if exchanger == nil || exchanger.GetID() != *potentialID {
			return nil, nil, ErrInvalidToken
		}
		user, err = b.users.GetUser(ctx, *potentialID)
		if err != nil {
			return nil, nil, ErrInvalidToken
		}
	case exchanger != nil:
		user = exchanger
	default:
		if b.policy.DisableUserCreation {
			return nil, nil, ErrInvalidToken
		}
		user, err = b.provisionUser(ctx)
		if err != nil {
			return nil, nil, err
		}
	}

	return user, tok, nil
}

// provisionUser creates an account for a contact nobody owns yet. The
// contact uniqueness constraint, not this call, is what serializes
// concurrent provisioning for the same identity.
func (b *Backend) provisionUser(ctx context.Context) (domain.User, error) {
	var args domain.UserCreation
	if b.users.WantsUsername() {
		s, err := b.strings.Email()
		if err != nil {
			return nil, err
		}
		if len(s) > 8 {
			s = s[:8]
		}
		args.Username = "u" + s
	}
	return b.users.GetOrCreateUser(ctx, args)
}

func (b *Backend) record(ctx context.Context, eventType, subjectID, status string) {
	if b.audits == nil {
		return
	}
	if err := b.audits.SaveEvent(ctx, &audit.Event{
		Type:      eventType,
		SubjectID: subjectID,
		Status:    status,
		CreatedAt: time.Now(),
	}); err != nil {
		logger.Log.Warn("audit event not recorded", zap.Error(err))
	}
}
