package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/latchkeyhq/latchkey/admin"
	"github.com/latchkeyhq/latchkey/domain"
	"github.com/latchkeyhq/latchkey/flow"
	"github.com/latchkeyhq/latchkey/lgorm"
	"github.com/latchkeyhq/latchkey/session"
	"github.com/latchkeyhq/latchkey/token"
)

type testUser struct {
	ID       string
	Username string
	Email    string
	Phone    string
}

func (u *testUser) GetID() string           { return u.ID }
func (u *testUser) SetUsername(s string)    { u.Username = s }
func (u *testUser) SetEmail(s string)       { u.Email = s }
func (u *testUser) SetPhoneNumber(s string) { u.Phone = s }

type testUserStore struct {
	nextID int
	users  map[string]*testUser
}

func newTestUserStore() *testUserStore {
	return &testUserStore{users: make(map[string]*testUser)}
}

func (s *testUserStore) GetUser(ctx context.Context, id string) (domain.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %s not found", id)
}

func (s *testUserStore) GetOrCreateUser(ctx context.Context, args domain.UserCreation) (domain.User, error) {
	s.nextID++
	u := &testUser{ID: "user-" + strconv.Itoa(s.nextID), Username: args.Username}
	s.users[u.ID] = u
	return u, nil
}

func (s *testUserStore) SaveUser(ctx context.Context, user domain.User) error { return nil }
func (s *testUserStore) WantsUsername() bool                                  { return true }

type captureSender struct {
	emailTo, emailToken string
	smsTo, smsToken     string
	approvalToken       string
	approvalSent        bool
}

func (c *captureSender) SendLoginEmail(ctx context.Context, to, tokenString string) error {
	c.emailTo, c.emailToken = to, tokenString
	return nil
}

func (c *captureSender) SendLoginSMS(ctx context.Context, to, tokenString string) error {
	c.smsTo, c.smsToken = to, tokenString
	return nil
}

func (c *captureSender) SendApprovalRequest(ctx context.Context, contactInfo, contactType, tokenString string) error {
	c.approvalSent = true
	c.approvalToken = tokenString
	return nil
}

func newTestServer(t *testing.T, policy flow.Policy) (*echo.Echo, *captureSender, *Handler) {
	t.Helper()

	repo, err := lgorm.NewStorage("sqlite", ":memory:", nil)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	users := newTestUserStore()
	strings := token.NewGenerator(8, 6)
	g := flow.NewGenerator(repo, repo, strings, policy)
	base := flow.NewBackend(repo, users, strings, policy)
	exchanger := flow.NewExchanger(flow.NewEmailBackend(base), flow.NewSMSBackend(base))
	sessions := session.NewJWTManager("test-secret", time.Hour)
	sender := &captureSender{}

	h := NewHandler(g, exchanger, users, sessions, sender, sender)
	h.SetAdminManager(admin.NewManager(repo, sender, sender))

	e := echo.New()
	api := e.Group("/api/v1")
	h.RegisterRoutes(api)
	h.RegisterAdminRoutes(e.Group("/api/v1/admin"))

	return e, sender, h
}

func postJSON(e *echo.Echo, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(b))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestEmailLoginEndToEnd(t *testing.T) {
	e, sender, _ := newTestServer(t, flow.DefaultPolicy())

	// 1. Request a token.
	rec := postJSON(e, "/api/v1/auth/email", map[string]string{
		"email":    "Test@Example.com",
		"next_url": "/dashboard",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("token request failed with %d: %s", rec.Code, rec.Body.String())
	}
	if sender.emailTo != "test@example.com" {
		t.Errorf("login mail sent to %q", sender.emailTo)
	}
	if sender.emailToken == "" {
		t.Fatal("no token delivered")
	}

	// 2. Exchange it.
	rec = postJSON(e, "/api/v1/auth/token", map[string]string{"token": sender.emailToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("exchange failed with %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token   string `json:"token"`
		NextURL string `json:"next_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token == "" {
		t.Fatal("no session token returned")
	}
	if resp.NextURL != "/dashboard" {
		t.Errorf("next_url = %q", resp.NextURL)
	}

	// 3. The session authenticates follow-up requests.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	rec2 := httptest.NewRecorder()
	e.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Errorf("whoami failed with %d: %s", rec2.Code, rec2.Body.String())
	}
}

func TestExchangeInvalidToken(t *testing.T) {
	e, _, _ := newTestServer(t, flow.DefaultPolicy())

	rec := postJSON(e, "/api/v1/auth/token", map[string]string{"token": "bogus"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRequestTokenRateLimited(t *testing.T) {
	e, _, h := newTestServer(t, flow.DefaultPolicy())
	h.SetRateLimiter(flow.NewMemoryRateLimiter(), 2, time.Minute)

	for i := 0; i < 2; i++ {
		rec := postJSON(e, "/api/v1/auth/email", map[string]string{"email": "a@x.com"})
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d failed with %d", i+1, rec.Code)
		}
	}
	rec := postJSON(e, "/api/v1/auth/email", map[string]string{"email": "a@x.com"})
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
}

func TestAdminApprovalFlow(t *testing.T) {
	policy := flow.DefaultPolicy()
	policy.RequireAdminApproval = true
	e, sender, h := newTestServer(t, policy)
	h.SetApprovalNotifier(sender)

	// The login mail is held back; support is notified instead.
	rec := postJSON(e, "/api/v1/auth/email", map[string]string{"email": "a@x.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("token request failed with %d: %s", rec.Code, rec.Body.String())
	}
	if !sender.approvalSent {
		t.Fatal("approval request not sent")
	}
	if sender.emailToken != "" {
		t.Fatal("login mail must be held back until approval")
	}

	// Unapproved tokens are not exchangeable.
	rec = postJSON(e, "/api/v1/auth/token", map[string]string{"token": sender.approvalToken})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unapproved exchange: expected 401, got %d", rec.Code)
	}

	// Approving delivers the held-back mail and unlocks the exchange.
	rec = postJSON(e, "/api/v1/admin/tokens/"+sender.approvalToken+"/approve", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve failed with %d: %s", rec.Code, rec.Body.String())
	}
	if sender.emailTo != "a@x.com" {
		t.Errorf("approved login mail not delivered, to=%q", sender.emailTo)
	}

	rec = postJSON(e, "/api/v1/auth/token", map[string]string{"token": sender.approvalToken})
	if rec.Code != http.StatusOK {
		t.Errorf("approved exchange failed with %d: %s", rec.Code, rec.Body.String())
	}
}

func TestClaimedTokenAnonymousExchangeRejected(t *testing.T) {
	e, sender, _ := newTestServer(t, flow.DefaultPolicy())

	// An account logs in with its own address first.
	rec := postJSON(e, "/api/v1/auth/email", map[string]string{"email": "attacker@x.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("token request failed with %d", rec.Code)
	}
	rec = postJSON(e, "/api/v1/auth/token", map[string]string{"token": sender.emailToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("exchange failed with %d", rec.Code)
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil {
		t.Fatal(err)
	}

	// The target address already has an identity from an earlier
	// anonymous request.
	rec = postJSON(e, "/api/v1/auth/email", map[string]string{"email": "victim@x.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("victim token request failed with %d", rec.Code)
	}

	// While authenticated the account requests a token for that
	// address, claiming it.
	b, _ := json.Marshal(map[string]string{"email": "victim@x.com"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/email", bytes.NewBuffer(b))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec2 := httptest.NewRecorder()
	e.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("claimed token request failed with %d", rec2.Code)
	}

	// The address's real reader redeems the code from their inbox
	// without being logged in. They must not land in the claimant's
	// account.
	rec = postJSON(e, "/api/v1/auth/token", map[string]string{"token": sender.emailToken})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous redemption of a claimed token: expected 401, got %d", rec.Code)
	}
}

func TestSMSLoginEndToEnd(t *testing.T) {
	e, sender, _ := newTestServer(t, flow.DefaultPolicy())

	rec := postJSON(e, "/api/v1/auth/sms", map[string]string{"phone_number": "+1 555 555 5555"})
	if rec.Code != http.StatusOK {
		t.Fatalf("token request failed with %d: %s", rec.Code, rec.Body.String())
	}
	if sender.smsTo != "+15555555555" {
		t.Errorf("sms sent to %q", sender.smsTo)
	}

	rec = postJSON(e, "/api/v1/auth/token", map[string]string{"token": sender.smsToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("exchange failed with %d: %s", rec.Code, rec.Body.String())
	}
}
