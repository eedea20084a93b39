// Package admin implements the approval gate for deployments that
// require an administrator to vet new logins. Tokens issued under
// RequireAdminApproval are unexchangeable and undelivered until an
// admin approves them here; approval triggers the held-back delivery.
package admin

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/latchkeyhq/latchkey/audit"
	"github.com/latchkeyhq/latchkey/delivery"
	"github.com/latchkeyhq/latchkey/domain"
	"github.com/latchkeyhq/latchkey/logger"
)

type Manager struct {
	store  domain.Storage
	emails delivery.EmailSender
	sms    delivery.SMSSender
	audits audit.Store
}

func NewManager(store domain.Storage, emails delivery.EmailSender, sms delivery.SMSSender) *Manager {
	return &Manager{store: store, emails: emails, sms: sms}
}

// SetAuditStore enables audit event recording for approvals.
func (m *Manager) SetAuditStore(s audit.Store) { m.audits = s }

// PendingToken is a token awaiting approval together with the contact
// it was requested for.
type PendingToken struct {
	Token       *domain.AuthToken `json:"token"`
	ContactInfo string            `json:"contact_info"`
	ContactType string            `json:"contact_type"`
}

// ListPending returns the tokens awaiting approval.
func (m *Manager) ListPending(ctx context.Context) ([]*PendingToken, error) {
	toks, err := m.store.ListUnapprovedTokens(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*PendingToken, 0, len(toks))
	for _, tok := range toks {
		p := &PendingToken{Token: tok, ContactInfo: "unknown", ContactType: "contact method"}
		switch {
		case tok.EmailID != nil:
			if email, err := m.store.GetEmail(ctx, *tok.EmailID); err == nil {
				p.ContactInfo, p.ContactType = email.Address, "email"
			}
		case tok.PhoneNumberID != nil:
			if phone, err := m.store.GetPhoneNumber(ctx, *tok.PhoneNumberID); err == nil {
				p.ContactInfo, p.ContactType = phone.Number, "phone number"
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// Approve flips the approved flag and performs the held-back delivery.
// A delivery failure is returned to the admin; the token stays
// approved, so the admin can resend by approving again.
func (m *Manager) Approve(ctx context.Context, tokenString, adminID string) error {
	tok, err := m.store.ApproveToken(ctx, tokenString)
	if err != nil {
		return fmt.Errorf("admin: approve token: %w", err)
	}

	m.record(ctx, audit.TypeTokenApproved, adminID)

	switch {
	case tok.EmailID != nil:
		email, err := m.store.GetEmail(ctx, *tok.EmailID)
		if err != nil {
			return err
		}
		return m.emails.SendLoginEmail(ctx, email.Address, tok.Token)
	case tok.PhoneNumberID != nil:
		phone, err := m.store.GetPhoneNumber(ctx, *tok.PhoneNumberID)
		if err != nil {
			return err
		}
		return m.sms.SendLoginSMS(ctx, phone.Number, tok.Token)
	}
	return nil
}

// Reject deletes a pending token.
func (m *Manager) Reject(ctx context.Context, tokenString, adminID string) error {
	if err := m.store.DeleteToken(ctx, tokenString); err != nil {
		return fmt.Errorf("admin: reject token: %w", err)
	}
	m.record(ctx, audit.TypeTokenRejected, adminID)
	return nil
}

func (m *Manager) record(ctx context.Context, eventType, adminID string) {
	if m.audits == nil {
		return
	}
	if err := m.audits.SaveEvent(ctx, &audit.Event{
		Type:      eventType,
		ActorID:   adminID,
		Status:    "success",
		CreatedAt: time.Now(),
	}); err != nil {
		logger.Log.Warn("audit event not recorded", zap.Error(err))
	}
}
