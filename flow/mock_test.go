package flow

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/latchkeyhq/latchkey/domain"
)

// In-memory doubles for the storage and user-store contracts.

type mockUser struct {
	id       string
	username string
	email    string
	phone    string
}

func (u *mockUser) GetID() string           { return u.id }
func (u *mockUser) SetUsername(s string)    { u.username = s }
func (u *mockUser) SetEmail(s string)       { u.email = s }
func (u *mockUser) SetPhoneNumber(s string) { u.phone = s }

type mockStore struct {
	mu     sync.Mutex
	nextID int

	emails       map[string]*domain.Email // by ID
	emailsByAddr map[string]string
	phones       map[string]*domain.PhoneNumber
	phonesByNum  map[string]string
	tokens       map[string]*domain.AuthToken
}

func newMockStore() *mockStore {
	return &mockStore{
		emails:       make(map[string]*domain.Email),
		emailsByAddr: make(map[string]string),
		phones:       make(map[string]*domain.PhoneNumber),
		phonesByNum:  make(map[string]string),
		tokens:       make(map[string]*domain.AuthToken),
	}
}

func (s *mockStore) id() string {
	s.nextID++
	return strconv.Itoa(s.nextID)
}

func (s *mockStore) GetOrCreateEmail(ctx context.Context, address string) (*domain.Email, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.emailsByAddr[address]; ok {
		cp := *s.emails[id]
		return &cp, false, nil
	}
	e := &domain.Email{ID: s.id(), Address: address, CreatedAt: time.Now()}
	s.emails[e.ID] = e
	s.emailsByAddr[address] = e.ID
	cp := *e
	return &cp, true, nil
}

func (s *mockStore) GetEmail(ctx context.Context, id string) (*domain.Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.emails[id]
	if !ok {
		return nil, fmt.Errorf("email %s not found", id)
	}
	cp := *e
	return &cp, nil
}

func (s *mockStore) SaveEmail(ctx context.Context, email *domain.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *email
	s.emails[email.ID] = &cp
	s.emailsByAddr[email.Address] = email.ID
	return nil
}

func (s *mockStore) GetOrCreatePhoneNumber(ctx context.Context, number string) (*domain.PhoneNumber, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.phonesByNum[number]; ok {
		cp := *s.phones[id]
		return &cp, false, nil
	}
	p := &domain.PhoneNumber{ID: s.id(), Number: number, CreatedAt: time.Now()}
	s.phones[p.ID] = p
	s.phonesByNum[number] = p.ID
	cp := *p
	return &cp, true, nil
}

func (s *mockStore) GetPhoneNumber(ctx context.Context, id string) (*domain.PhoneNumber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.phones[id]
	if !ok {
		return nil, fmt.Errorf("phone number %s not found", id)
	}
	cp := *p
	return &cp, nil
}

func (s *mockStore) SavePhoneNumber(ctx context.Context, phone *domain.PhoneNumber) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *phone
	s.phones[phone.ID] = &cp
	s.phonesByNum[phone.Number] = phone.ID
	return nil
}

func (s *mockStore) SaveToken(ctx context.Context, token *domain.AuthToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *token
	s.tokens[token.Token] = &cp
	return nil
}

func (s *mockStore) GetToken(ctx context.Context, token string) (*domain.AuthToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return nil, fmt.Errorf("token not found")
	}
	cp := *t
	return &cp, nil
}

func (s *mockStore) DeleteToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

func (s *mockStore) DeleteStaleTokens(ctx context.Context, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, t := range s.tokens {
		if t.CreatedAt.Before(cutoff) {
			delete(s.tokens, k)
		}
	}
	return nil
}

func (s *mockStore) ListUnapprovedTokens(ctx context.Context) ([]*domain.AuthToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.AuthToken
	for _, t := range s.tokens {
		if !t.Approved {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *mockStore) ApproveToken(ctx context.Context, token string) (*domain.AuthToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return nil, fmt.Errorf("token not found")
	}
	t.Approved = true
	cp := *t
	return &cp, nil
}

type mockUserStore struct {
	mu            sync.Mutex
	nextID        int
	users         map[string]*mockUser
	wantsUsername bool
	created       int
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[string]*mockUser), wantsUsername: true}
}

func (s *mockUserStore) GetUser(ctx context.Context, id string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s not found", id)
	}
	return u, nil
}

func (s *mockUserStore) GetOrCreateUser(ctx context.Context, args domain.UserCreation) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.created++
	u := &mockUser{id: "user-" + strconv.Itoa(s.nextID), username: args.Username}
	s.users[u.id] = u
	return u, nil
}

func (s *mockUserStore) SaveUser(ctx context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := user.(*mockUser); ok {
		s.users[u.id] = u
	}
	return nil
}

func (s *mockUserStore) WantsUsername() bool { return s.wantsUsername }

// addUser seeds an existing account.
func (s *mockUserStore) addUser(id string) *mockUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &mockUser{id: id}
	s.users[id] = u
	return u
}
