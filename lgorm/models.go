package lgorm

import (
	"time"

	"github.com/latchkeyhq/latchkey/audit"
	"github.com/latchkeyhq/latchkey/domain"
)

type gormEmail struct {
	ID              string  `gorm:"primaryKey"`
	Address         string  `gorm:"uniqueIndex"`
	UserID          *string `gorm:"index"`
	PotentialUserID *string `gorm:"index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (gormEmail) TableName() string { return "latchkey_emails" }

func fromCoreEmail(e *domain.Email) *gormEmail {
	if e == nil {
		return nil
	}
	return &gormEmail{
		ID:              e.ID,
		Address:         e.Address,
		UserID:          e.UserID,
		PotentialUserID: e.PotentialUserID,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func toCoreEmail(e *gormEmail) *domain.Email {
	if e == nil {
		return nil
	}
	return &domain.Email{
		ID:              e.ID,
		Address:         e.Address,
		UserID:          e.UserID,
		PotentialUserID: e.PotentialUserID,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

type gormPhoneNumber struct {
	ID              string  `gorm:"primaryKey"`
	Number          string  `gorm:"uniqueIndex"`
	UserID          *string `gorm:"index"`
	PotentialUserID *string `gorm:"index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (gormPhoneNumber) TableName() string { return "latchkey_phone_numbers" }

func fromCorePhoneNumber(p *domain.PhoneNumber) *gormPhoneNumber {
	if p == nil {
		return nil
	}
	return &gormPhoneNumber{
		ID:              p.ID,
		Number:          p.Number,
		UserID:          p.UserID,
		PotentialUserID: p.PotentialUserID,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toCorePhoneNumber(p *gormPhoneNumber) *domain.PhoneNumber {
	if p == nil {
		return nil
	}
	return &domain.PhoneNumber{
		ID:              p.ID,
		Number:          p.Number,
		UserID:          p.UserID,
		PotentialUserID: p.PotentialUserID,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

type gormAuthToken struct {
	Token         string    `gorm:"primaryKey"`
	EmailID       *string   `gorm:"index"`
	PhoneNumberID *string   `gorm:"index"`
	NextURL       string    `gorm:"size:2000"`
	Approved      bool      `gorm:"index"`
	CreatedAt     time.Time `gorm:"index"`
}

func (gormAuthToken) TableName() string { return "latchkey_auth_tokens" }

func fromCoreAuthToken(t *domain.AuthToken) *gormAuthToken {
	if t == nil {
		return nil
	}
	return &gormAuthToken{
		Token:         t.Token,
		EmailID:       t.EmailID,
		PhoneNumberID: t.PhoneNumberID,
		NextURL:       t.NextURL,
		Approved:      t.Approved,
		CreatedAt:     t.CreatedAt,
	}
}

func toCoreAuthToken(t *gormAuthToken) *domain.AuthToken {
	if t == nil {
		return nil
	}
	return &domain.AuthToken{
		Token:         t.Token,
		EmailID:       t.EmailID,
		PhoneNumberID: t.PhoneNumberID,
		NextURL:       t.NextURL,
		Approved:      t.Approved,
		CreatedAt:     t.CreatedAt,
	}
}

type gormAuditEvent struct {
	ID        string `gorm:"primaryKey"`
	Type      string `gorm:"index"`
	ActorID   string `gorm:"index"`
	SubjectID string `gorm:"index"`
	Status    string `gorm:"index"`
	Message   string
	CreatedAt time.Time `gorm:"index"`
}

func (gormAuditEvent) TableName() string { return "latchkey_audit_events" }

func fromCoreAuditEvent(e *audit.Event) *gormAuditEvent {
	if e == nil {
		return nil
	}
	return &gormAuditEvent{
		ID:        e.ID,
		Type:      e.Type,
		ActorID:   e.ActorID,
		SubjectID: e.SubjectID,
		Status:    e.Status,
		Message:   e.Message,
		CreatedAt: e.CreatedAt,
	}
}

func toCoreAuditEvent(e *gormAuditEvent) *audit.Event {
	if e == nil {
		return nil
	}
	return &audit.Event{
		ID:        e.ID,
		Type:      e.Type,
		ActorID:   e.ActorID,
		SubjectID: e.SubjectID,
		Status:    e.Status,
		Message:   e.Message,
		CreatedAt: e.CreatedAt,
	}
}
