// Package identity provides a ready-made user type and gorm-backed store
// for deployments that do not bring their own user model.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/latchkeyhq/latchkey/domain"
)

// User is the default account record.
type User struct {
	ID          string         `gorm:"primaryKey" json:"id"`
	Username    string         `gorm:"uniqueIndex" json:"username"`
	Email       string         `json:"email"`
	PhoneNumber string         `json:"phone_number"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "latchkey_users" }

func (u *User) GetID() string           { return u.ID }
func (u *User) SetUsername(s string)    { u.Username = s }
func (u *User) SetEmail(s string)       { u.Email = s }
func (u *User) SetPhoneNumber(s string) { u.PhoneNumber = s }

// Store implements domain.UserStore on top of gorm.
type Store struct {
	db    *gorm.DB
	newID domain.IDGenerator
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, newID: uuid.NewString}
}

// SetIDGenerator overrides the default UUID generator for new records.
func (s *Store) SetIDGenerator(g domain.IDGenerator) {
	s.newID = g
}

func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&User{})
}

func (s *Store) GetUser(ctx context.Context, id string) (domain.User, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetOrCreateUser(ctx context.Context, args domain.UserCreation) (domain.User, error) {
	if args.Username != "" {
		var existing User
		err := s.db.WithContext(ctx).First(&existing, "username = ?", args.Username).Error
		if err == nil {
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	u := &User{ID: s.newID(), Username: args.Username}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) SaveUser(ctx context.Context, user domain.User) error {
	u, ok := user.(*User)
	if !ok {
		return gorm.ErrInvalidData
	}
	return s.db.WithContext(ctx).Save(u).Error
}

func (s *Store) WantsUsername() bool { return true }

var _ domain.UserStore = (*Store)(nil)
var _ domain.User = (*User)(nil)
var _ domain.UsernameSetter = (*User)(nil)
var _ domain.EmailSetter = (*User)(nil)
var _ domain.PhoneNumberSetter = (*User)(nil)
