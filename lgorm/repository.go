// Package lgorm is the GORM-based implementation of the Latchkey
// storage contracts. It supports sqlite (pure Go), postgres and mysql
// through the driver registry.
package lgorm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/latchkeyhq/latchkey/audit"
	"github.com/latchkeyhq/latchkey/domain"
)

type Repository struct {
	db    *gorm.DB
	newID domain.IDGenerator
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, newID: uuid.NewString}
}

func (r *Repository) DB() *gorm.DB {
	return r.db
}

// SetIDGenerator overrides the default UUID record IDs.
func (r *Repository) SetIDGenerator(g domain.IDGenerator) {
	r.newID = g
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&gormEmail{},
		&gormPhoneNumber{},
		&gormAuthToken{},
		&gormAuditEvent{},
	)
}

// GetOrCreateEmail inserts the address with ON CONFLICT DO NOTHING and
// re-reads on conflict, so two concurrent calls for the same new
// address converge on one row through the uniqueness constraint.
func (r *Repository) GetOrCreateEmail(ctx context.Context, address string) (*domain.Email, bool, error) {
	row := &gormEmail{ID: r.newID(), Address: address}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "address"}}, DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return nil, false, res.Error
	}
	created := res.RowsAffected == 1
	if !created {
		if err := r.db.WithContext(ctx).Where("address = ?", address).First(row).Error; err != nil {
			return nil, false, err
		}
	}
	return toCoreEmail(row), created, nil
}

func (r *Repository) GetEmail(ctx context.Context, id string) (*domain.Email, error) {
	var row gormEmail
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return toCoreEmail(&row), nil
}

func (r *Repository) SaveEmail(ctx context.Context, email *domain.Email) error {
	return r.db.WithContext(ctx).Save(fromCoreEmail(email)).Error
}

func (r *Repository) GetOrCreatePhoneNumber(ctx context.Context, number string) (*domain.PhoneNumber, bool, error) {
	row := &gormPhoneNumber{ID: r.newID(), Number: number}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "number"}}, DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return nil, false, res.Error
	}
	created := res.RowsAffected == 1
	if !created {
		if err := r.db.WithContext(ctx).Where("number = ?", number).First(row).Error; err != nil {
			return nil, false, err
		}
	}
	return toCorePhoneNumber(row), created, nil
}

func (r *Repository) GetPhoneNumber(ctx context.Context, id string) (*domain.PhoneNumber, error) {
	var row gormPhoneNumber
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return toCorePhoneNumber(&row), nil
}

func (r *Repository) SavePhoneNumber(ctx context.Context, phone *domain.PhoneNumber) error {
	return r.db.WithContext(ctx).Save(fromCorePhoneNumber(phone)).Error
}

func (r *Repository) SaveToken(ctx context.Context, token *domain.AuthToken) error {
	return r.db.WithContext(ctx).Create(fromCoreAuthToken(token)).Error
}

func (r *Repository) GetToken(ctx context.Context, token string) (*domain.AuthToken, error) {
	var row gormAuthToken
	if err := r.db.WithContext(ctx).First(&row, "token = ?", token).Error; err != nil {
		return nil, err
	}
	return toCoreAuthToken(&row), nil
}

func (r *Repository) DeleteToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Delete(&gormAuthToken{}, "token = ?", token).Error
}

func (r *Repository) DeleteStaleTokens(ctx context.Context, cutoff time.Time) error {
	return r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&gormAuthToken{}).Error
}

func (r *Repository) ListUnapprovedTokens(ctx context.Context) ([]*domain.AuthToken, error) {
	var rows []gormAuthToken
	if err := r.db.WithContext(ctx).Where("approved = ?", false).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.AuthToken, len(rows))
	for i := range rows {
		out[i] = toCoreAuthToken(&rows[i])
	}
	return out, nil
}

func (r *Repository) ApproveToken(ctx context.Context, token string) (*domain.AuthToken, error) {
	var row gormAuthToken
	if err := r.db.WithContext(ctx).First(&row, "token = ?", token).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&row).Update("approved", true).Error; err != nil {
		return nil, err
	}
	row.Approved = true
	return toCoreAuthToken(&row), nil
}

func (r *Repository) SaveEvent(ctx context.Context, event *audit.Event) error {
	row := fromCoreAuditEvent(event)
	if row.ID == "" {
		row.ID = r.newID()
	}
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *Repository) ListEvents(ctx context.Context, limit int) ([]*audit.Event, error) {
	var rows []gormAuditEvent
	q := r.db.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*audit.Event, len(rows))
	for i := range rows {
		out[i] = toCoreAuditEvent(&rows[i])
	}
	return out, nil
}
