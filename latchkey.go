package latchkey

import (
	"gorm.io/gorm"

	"github.com/latchkeyhq/latchkey/admin"
	"github.com/latchkeyhq/latchkey/config"
	"github.com/latchkeyhq/latchkey/delivery"
	"github.com/latchkeyhq/latchkey/domain"
	"github.com/latchkeyhq/latchkey/flow"
	"github.com/latchkeyhq/latchkey/lgorm"
	"github.com/latchkeyhq/latchkey/session"
	"github.com/latchkeyhq/latchkey/token"
)

// PolicyFromConfig maps the runtime configuration onto the token policy.
func PolicyFromConfig(cfg *config.Config) flow.Policy {
	return flow.Policy{
		TokenDuration:        cfg.TokenDuration(),
		SingleUseLink:        cfg.SingleUseLink,
		DisableUserCreation:  cfg.DisableUserCreation,
		RequireAdminApproval: cfg.RequireAdminApproval,
	}
}

// NewDefaultGenerator creates a token Generator backed by the gorm repository.
func NewDefaultGenerator(db *gorm.DB, cfg *config.Config) *flow.Generator {
	repo := lgorm.NewRepository(db)
	strings := token.NewGenerator(cfg.EmailTokenLength, cfg.SMSTokenLength)
	g := flow.NewGenerator(repo, repo, strings, PolicyFromConfig(cfg))
	g.SetAuditStore(repo)
	return g
}

// NewDefaultExchanger creates an Exchanger for both token variants backed by
// the gorm repository.
func NewDefaultExchanger(db *gorm.DB, users domain.UserStore, cfg *config.Config) *flow.Exchanger {
	repo := lgorm.NewRepository(db)
	strings := token.NewGenerator(cfg.EmailTokenLength, cfg.SMSTokenLength)
	backend := flow.NewBackend(repo, users, strings, PolicyFromConfig(cfg))
	backend.SetAuditStore(repo)
	return flow.NewExchanger(flow.NewEmailBackend(backend), flow.NewSMSBackend(backend))
}

// NewDefaultAdminManager creates an approval Manager backed by the gorm
// repository.
func NewDefaultAdminManager(db *gorm.DB, emails delivery.EmailSender, sms delivery.SMSSender) *admin.Manager {
	repo := lgorm.NewRepository(db)
	m := admin.NewManager(repo, emails, sms)
	m.SetAuditStore(repo)
	return m
}

// NewDefaultSessionManager creates a JWT session manager with a 24 hour
// session lifetime.
func NewDefaultSessionManager(cfg *config.Config) *session.JWTManager {
	return session.NewJWTManager(cfg.SessionSecret, 0)
}
