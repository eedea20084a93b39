package admin

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/latchkeyhq/latchkey/domain"
)

type fakeStore struct {
	emails map[string]*domain.Email
	phones map[string]*domain.PhoneNumber
	tokens map[string]*domain.AuthToken
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		emails: make(map[string]*domain.Email),
		phones: make(map[string]*domain.PhoneNumber),
		tokens: make(map[string]*domain.AuthToken),
	}
}

func (s *fakeStore) GetOrCreateEmail(ctx context.Context, address string) (*domain.Email, bool, error) {
	panic("not used")
}
func (s *fakeStore) GetEmail(ctx context.Context, id string) (*domain.Email, error) {
	if e, ok := s.emails[id]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("email %s not found", id)
}
func (s *fakeStore) SaveEmail(ctx context.Context, email *domain.Email) error {
	s.emails[email.ID] = email
	return nil
}
func (s *fakeStore) GetOrCreatePhoneNumber(ctx context.Context, number string) (*domain.PhoneNumber, bool, error) {
	panic("not used")
}
func (s *fakeStore) GetPhoneNumber(ctx context.Context, id string) (*domain.PhoneNumber, error) {
	if p, ok := s.phones[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("phone %s not found", id)
}
func (s *fakeStore) SavePhoneNumber(ctx context.Context, phone *domain.PhoneNumber) error {
	s.phones[phone.ID] = phone
	return nil
}
func (s *fakeStore) SaveToken(ctx context.Context, token *domain.AuthToken) error {
	s.tokens[token.Token] = token
	return nil
}
func (s *fakeStore) GetToken(ctx context.Context, token string) (*domain.AuthToken, error) {
	if t, ok := s.tokens[token]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("token not found")
}
func (s *fakeStore) DeleteToken(ctx context.Context, token string) error {
	delete(s.tokens, token)
	return nil
}
func (s *fakeStore) DeleteStaleTokens(ctx context.Context, cutoff time.Time) error { return nil }
func (s *fakeStore) ListUnapprovedTokens(ctx context.Context) ([]*domain.AuthToken, error) {
	var out []*domain.AuthToken
	for _, t := range s.tokens {
		if !t.Approved {
			out = append(out, t)
		}
	}
	return out, nil
}
func (s *fakeStore) ApproveToken(ctx context.Context, token string) (*domain.AuthToken, error) {
	t, ok := s.tokens[token]
	if !ok {
		return nil, fmt.Errorf("token not found")
	}
	t.Approved = true
	return t, nil
}

type fakeSender struct {
	emailTo, smsTo string
	fail           bool
}

func (f *fakeSender) SendLoginEmail(ctx context.Context, to, tokenString string) error {
	if f.fail {
		return errors.New("smtp down")
	}
	f.emailTo = to
	return nil
}

func (f *fakeSender) SendLoginSMS(ctx context.Context, to, tokenString string) error {
	if f.fail {
		return errors.New("gateway down")
	}
	f.smsTo = to
	return nil
}

func seedPendingEmailToken(s *fakeStore) *domain.AuthToken {
	emailID := "e1"
	s.emails[emailID] = &domain.Email{ID: emailID, Address: "a@x.com"}
	tok := &domain.AuthToken{Token: "pending1", EmailID: &emailID, CreatedAt: time.Now()}
	s.tokens[tok.Token] = tok
	return tok
}

func TestListPending(t *testing.T) {
	store := newFakeStore()
	seedPendingEmailToken(store)
	m := NewManager(store, &fakeSender{}, &fakeSender{})

	pending, err := m.ListPending(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending token, got %d", len(pending))
	}
	if pending[0].ContactInfo != "a@x.com" || pending[0].ContactType != "email" {
		t.Errorf("unexpected contact: %+v", pending[0])
	}
}

func TestApproveDeliversEmail(t *testing.T) {
	store := newFakeStore()
	tok := seedPendingEmailToken(store)
	sender := &fakeSender{}
	m := NewManager(store, sender, sender)

	if err := m.Approve(context.Background(), tok.Token, "admin-1"); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if !store.tokens[tok.Token].Approved {
		t.Error("token not marked approved")
	}
	if sender.emailTo != "a@x.com" {
		t.Errorf("login mail not sent, to=%q", sender.emailTo)
	}
}

func TestApproveSurfacesDeliveryFailure(t *testing.T) {
	store := newFakeStore()
	tok := seedPendingEmailToken(store)
	m := NewManager(store, &fakeSender{fail: true}, &fakeSender{fail: true})

	if err := m.Approve(context.Background(), tok.Token, "admin-1"); err == nil {
		t.Fatal("expected delivery failure to propagate")
	}
	// The token stays approved so a second Approve resends.
	if !store.tokens[tok.Token].Approved {
		t.Error("token should remain approved after delivery failure")
	}
}

func TestReject(t *testing.T) {
	store := newFakeStore()
	tok := seedPendingEmailToken(store)
	m := NewManager(store, &fakeSender{}, &fakeSender{})

	if err := m.Reject(context.Background(), tok.Token, "admin-1"); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if _, ok := store.tokens[tok.Token]; ok {
		t.Error("rejected token must be deleted")
	}
}
