// Package api exposes the passwordless flows over HTTP with echo.
// Every failure a caller could use to probe for accounts is collapsed
// into one generic message.
package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/latchkeyhq/latchkey/admin"
	"github.com/latchkeyhq/latchkey/delivery"
	"github.com/latchkeyhq/latchkey/domain"
	"github.com/latchkeyhq/latchkey/flow"
	"github.com/latchkeyhq/latchkey/logger"
	"github.com/latchkeyhq/latchkey/telemetry"
)

const (
	msgTokenSent    = "If the contact is valid, a login token has been sent."
	msgInvalidToken = "The token is invalid or has expired."
)

// SessionManager is what the handler needs from the session layer.
type SessionManager interface {
	Establish(user domain.User) (string, error)
	Validate(tokenString string) (userID string, err error)
}

type Handler struct {
	generator *flow.Generator
	exchanger *flow.Exchanger
	users     domain.UserStore
	sessions  SessionManager

	emails    delivery.EmailSender
	sms       delivery.SMSSender
	approvals delivery.ApprovalNotifier

	limiter         flow.RateLimiter
	rateLimit       int
	rateWindow      time.Duration
	holdForApproval bool

	adminManager *admin.Manager
	metrics      *telemetry.Provider
}

func NewHandler(g *flow.Generator, e *flow.Exchanger, users domain.UserStore, sessions SessionManager, emails delivery.EmailSender, sms delivery.SMSSender) *Handler {
	return &Handler{
		generator: g,
		exchanger: e,
		users:     users,
		sessions:  sessions,
		emails:    emails,
		sms:       sms,
	}
}

// SetApprovalNotifier holds back login delivery and notifies support
// instead. Pair it with the RequireAdminApproval policy.
func (h *Handler) SetApprovalNotifier(n delivery.ApprovalNotifier) {
	h.approvals = n
	h.holdForApproval = true
}

// SetRateLimiter bounds token requests per contact.
func (h *Handler) SetRateLimiter(l flow.RateLimiter, limit int, window time.Duration) {
	h.limiter = l
	h.rateLimit = limit
	h.rateWindow = window
}

// SetAdminManager enables the approval routes. The caller is expected
// to guard the admin group with its own authorization middleware.
func (h *Handler) SetAdminManager(m *admin.Manager) {
	h.adminManager = m
}

// SetTelemetry records issue and exchange counters on the provider.
func (h *Handler) SetTelemetry(p *telemetry.Provider) {
	h.metrics = p
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/auth/email", h.HandleRequestEmailToken)
	g.POST("/auth/sms", h.HandleRequestSMSToken)
	g.POST("/auth/token", h.HandleExchange)

	protected := g.Group("")
	protected.Use(h.AuthMiddleware)
	protected.GET("/whoami", h.HandleWhoAmI)
}

// RegisterAdminRoutes mounts the approval endpoints on g.
func (h *Handler) RegisterAdminRoutes(g *echo.Group) {
	if h.adminManager == nil {
		return
	}
	g.GET("/tokens", h.HandleListPending)
	g.POST("/tokens/:token/approve", h.HandleApprove)
	g.POST("/tokens/:token/reject", h.HandleReject)
}

func (h *Handler) HandleRequestEmailToken(c echo.Context) error {
	var body struct {
		Email   string `json:"email"`
		NextURL string `json:"next_url"`
	}
	if err := c.Bind(&body); err != nil || body.Email == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "email required"})
	}

	address := domain.NormalizeEmail(body.Email)
	if limited, err := h.limited(c, address); err != nil {
		return err
	} else if limited {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
	}

	tok, err := h.generator.Generate(c.Request().Context(), flow.GenerateRequest{
		Email:          body.Email,
		NextURL:        body.NextURL,
		RequestingUser: h.requestingUser(c),
	})
	if err != nil {
		return h.generateFailure(c, err)
	}

	if h.holdForApproval && !tok.Approved {
		if err := h.approvals.SendApprovalRequest(c.Request().Context(), address, "email", tok.Token); err != nil {
			return h.deliveryFailure(c, err)
		}
	} else if err := h.emails.SendLoginEmail(c.Request().Context(), address, tok.Token); err != nil {
		return h.deliveryFailure(c, err)
	}

	if h.metrics != nil {
		h.metrics.RecordIssued(c.Request().Context(), "email")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": msgTokenSent})
}

func (h *Handler) HandleRequestSMSToken(c echo.Context) error {
	var body struct {
		PhoneNumber string `json:"phone_number"`
		NextURL     string `json:"next_url"`
	}
	if err := c.Bind(&body); err != nil || body.PhoneNumber == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "phone_number required"})
	}

	number := domain.NormalizePhoneNumber(body.PhoneNumber)
	if limited, err := h.limited(c, number); err != nil {
		return err
	} else if limited {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
	}

	tok, err := h.generator.Generate(c.Request().Context(), flow.GenerateRequest{
		PhoneNumber:    body.PhoneNumber,
		NextURL:        body.NextURL,
		RequestingUser: h.requestingUser(c),
	})
	if err != nil {
		return h.generateFailure(c, err)
	}

	if h.holdForApproval && !tok.Approved {
		if err := h.approvals.SendApprovalRequest(c.Request().Context(), number, "phone number", tok.Token); err != nil {
			return h.deliveryFailure(c, err)
		}
	} else if err := h.sms.SendLoginSMS(c.Request().Context(), number, tok.Token); err != nil {
		return h.deliveryFailure(c, err)
	}

	if h.metrics != nil {
		h.metrics.RecordIssued(c.Request().Context(), "sms")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": msgTokenSent})
}

func (h *Handler) HandleExchange(c echo.Context) error {
	var body struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&body); err != nil || body.Token == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": msgInvalidToken})
	}

	start := time.Now()
	res, err := h.exchanger.Exchange(c.Request().Context(), body.Token, h.requestingUser(c))
	if h.metrics != nil {
		status := "ok"
		if err != nil {
			status = "denied"
		}
		h.metrics.RecordExchange(c.Request().Context(), "token", status, time.Since(start))
	}
	if err != nil {
		if errors.Is(err, flow.ErrInvalidToken) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": msgInvalidToken})
		}
		logger.Log.Error("token exchange failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}

	sessionToken, err := h.sessions.Establish(res.User)
	if err != nil {
		logger.Log.Error("session establish failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}

	resp := map[string]string{"token": sessionToken}
	if res.NextURL != "" {
		resp["next_url"] = res.NextURL
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := h.sessionUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		c.Set("user_id", userID)
		return next(c)
	}
}

func (h *Handler) HandleWhoAmI(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "authenticated",
		"user_id": c.Get("user_id"),
	})
}

func (h *Handler) HandleListPending(c echo.Context) error {
	pending, err := h.adminManager.ListPending(c.Request().Context())
	if err != nil {
		logger.Log.Error("pending token list failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
	return c.JSON(http.StatusOK, pending)
}

func (h *Handler) HandleApprove(c echo.Context) error {
	adminID, _ := c.Get("user_id").(string)
	if err := h.adminManager.Approve(c.Request().Context(), c.Param("token"), adminID); err != nil {
		logger.Log.Error("token approval failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "approval failed"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "approved"})
}

func (h *Handler) HandleReject(c echo.Context) error {
	adminID, _ := c.Get("user_id").(string)
	if err := h.adminManager.Reject(c.Request().Context(), c.Param("token"), adminID); err != nil {
		logger.Log.Error("token rejection failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "rejection failed"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "rejected"})
}

// requestingUser resolves the authenticated caller, if any. Anonymous
// requests are the normal case.
func (h *Handler) requestingUser(c echo.Context) domain.User {
	userID, err := h.sessionUserID(c)
	if err != nil {
		return nil
	}
	user, err := h.users.GetUser(c.Request().Context(), userID)
	if err != nil {
		return nil
	}
	return user
}

func (h *Handler) sessionUserID(c echo.Context) (string, error) {
	header := c.Request().Header.Get("Authorization")
	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == "" {
		return "", errors.New("missing session token")
	}
	return h.sessions.Validate(tokenString)
}

func (h *Handler) limited(c echo.Context, key string) (bool, error) {
	if h.limiter == nil {
		return false, nil
	}
	allowed, _, err := h.limiter.Allow(c.Request().Context(), key, h.rateLimit, h.rateWindow)
	if err != nil {
		// Fail open: a broken limiter must not lock everyone out.
		logger.Log.Warn("rate limiter unavailable", zap.Error(err))
		return false, nil
	}
	return !allowed, nil
}

// generateFailure hides ownership conflicts behind the generic success
// message so that account existence cannot be probed.
func (h *Handler) generateFailure(c echo.Context, err error) error {
	switch {
	case errors.Is(err, flow.ErrContactRequired):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "a contact method is required"})
	case errors.Is(err, flow.ErrOwnershipConflict):
		return c.JSON(http.StatusOK, map[string]string{"message": msgTokenSent})
	default:
		logger.Log.Error("token generation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// deliveryFailure is a hard failure of the whole request. The token
// row stays; retrying delivery is the caller's business.
func (h *Handler) deliveryFailure(c echo.Context, err error) error {
	logger.Log.Error("token delivery failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "delivery failed"})
}
