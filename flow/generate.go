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

// Generator issues authentication tokens bound to contact identities.
type Generator struct {
	contacts domain.ContactStore
	tokens   domain.TokenStore
	strings  *token.Generator
	policy   Policy
	audits   audit.Store
}

func NewGenerator(contacts domain.ContactStore, tokens domain.TokenStore, strings *token.Generator, policy Policy) *Generator {
	return &Generator{
		contacts: contacts,
		tokens:   tokens,
		strings:  strings,
		policy:   policy,
	}
}

// SetAuditStore enables audit event recording for issued tokens.
func (g *Generator) SetAuditStore(s audit.Store) { g.audits = s }

func (g *Generator) recordIssued(ctx context.Context, actorID string) {
	if g.audits == nil {
		return
	}
	if err := g.audits.SaveEvent(ctx, &audit.Event{
		Type:      audit.TypeTokenIssued,
		ActorID:   actorID,
		Status:    "success",
		CreatedAt: time.Now(),
	}); err != nil {
		logger.Log.Warn("audit event not recorded", zap.Error(err))
	}
}

// GenerateRequest carries the inputs of a token request. Exactly one
// of Email/PhoneNumber must be set. RequestingUser is nil when the
// caller is unauthenticated.
type GenerateRequest struct {
	Email          string
	PhoneNumber    string
	NextURL        string
	RequestingUser domain.User
}

// Generate finds or creates the contact identity, mints a token string
// and persists the token.
//
// When the identity already existed and the request comes from an
// authenticated user, the identity must either be unowned or owned by
// that same user; otherwise ErrOwnershipConflict is returned and no
// token row is written. An unowned identity gets the requester
// recorded as its potential user, to be confirmed when the token is
// exchanged.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (*domain.AuthToken, error) {
	if (req.Email == "") == (req.PhoneNumber == "") {
		logger.Log.Error("token requested for neither email nor sms")
		return nil, ErrContactRequired
	}

	tok := &domain.AuthToken{
		NextURL:   req.NextURL,
		Approved:  !g.policy.RequireAdminApproval,
		CreatedAt: time.Now(),
	}

	var (
		created bool
		ownerID *string
		claim   func(potential *string) error
	)

	switch {
	case req.Email != "":
		s, err := g.strings.Email()
		if err != nil {
			return nil, err
		}
		email, wasCreated, err := g.contacts.GetOrCreateEmail(ctx, domain.NormalizeEmail(req.Email))
		if err != nil {
			return nil, err
		}
		tok.Token = s
		tok.EmailID = &email.ID
		created = wasCreated
		ownerID = email.UserID
		claim = func(potential *string) error {
			email.PotentialUserID = potential
			return g.contacts.SaveEmail(ctx, email)
		}
	default:
		s, err := g.strings.SMS()
		if err != nil {
			return nil, err
		}
		phone, wasCreated, err := g.contacts.GetOrCreatePhoneNumber(ctx, domain.NormalizePhoneNumber(req.PhoneNumber))
		if err != nil {
			return nil, err
		}
		tok.Token = s
		tok.PhoneNumberID = &phone.ID
		created = wasCreated
		ownerID = phone.UserID
		claim = func(potential *string) error {
			phone.PotentialUserID = potential
			return g.contacts.SavePhoneNumber(ctx, phone)
		}
	}

	// A brand-new identity cannot belong to anyone else yet, and an
	// unauthenticated requester makes no ownership claim.
	if req.RequestingUser == nil || created {
		if err := g.tokens.SaveToken(ctx, tok); err != nil {
			return nil, err
		}
		g.recordIssued(ctx, "")
		return tok, nil
	}

	requesterID := req.RequestingUser.GetID()
	if ownerID != nil && *ownerID != requesterID {
		logger.Log.Warn("token request for a contact confirmed to another account",
			zap.String("requester", requesterID))
		return nil, ErrOwnershipConflict
	}

	if err := claim(&requesterID); err != nil {
		return nil, err
	}
	if err := g.tokens.SaveToken(ctx, tok); err != nil {
		return nil, err
	}
	g.recordIssued(ctx, requesterID)
	return tok, nil
}
