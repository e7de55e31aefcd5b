package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/tci-social/backend/internal/models"
	"github.com/emilythestrangee/tci-social/backend/internal/session"
)

const (
	SessionKey = "session"
	CSRFHeader = "X-CSRF-Token"
	CSRFField  = "csrf_token"
)

// SessionManager is the part of session.Manager the HTTP layer needs.
type SessionManager interface {
	Create(ctx context.Context, userID uint) (*session.Session, error)
	Regenerate(ctx context.Context, old *session.Session, userID uint) (*session.Session, error)
	Destroy(ctx context.Context, id string) error
	Resolve(ctx context.Context, cookie string) (*session.Session, error)
	Sign(s *session.Session) (string, error)
	TTL() time.Duration
}

type CookieConfig struct {
	Name   string
	Secure bool
}

// Sessions binds the session store to the request cookie.
type Sessions struct {
	manager SessionManager
	cookie  CookieConfig
	logger  *slog.Logger
}

func NewSessions(manager SessionManager, cookie CookieConfig, logger *slog.Logger) *Sessions {
	return &Sessions{
		manager: manager,
		cookie:  cookie,
		logger:  logger,
	}
}

// Load resolves the session cookie, if any, into the request context.
// A forged, expired or unknown cookie leaves the request anonymous.
func (m *Sessions) Load() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(m.cookie.Name)
		if err != nil || cookie == "" {
			c.Next()
			return
		}

		s, err := m.manager.Resolve(c.Request.Context(), cookie)
		switch {
		case err == nil:
			c.Set(SessionKey, s)
		case errors.Is(err, session.ErrInvalidToken), errors.Is(err, session.ErrNotFound):
			m.clearCookie(c)
		default:
			m.logger.ErrorContext(c.Request.Context(), "Failed to load session",
				"request_id", c.GetString(RequestIDKey),
				"error", err,
			)
			abort(c, http.StatusInternalServerError, "storage_unavailable", "Service temporarily unavailable")
			return
		}
		c.Next()
	}
}

// Ensure returns the current session, creating an anonymous one when there is none.
func (m *Sessions) Ensure(c *gin.Context) (*session.Session, error) {
	if s := Current(c); s != nil {
		return s, nil
	}
	s, err := m.manager.Create(c.Request.Context(), 0)
	if err != nil {
		return nil, err
	}
	return s, m.issue(c, s)
}

// Start replaces the current session with a fresh one bound to userID.
func (m *Sessions) Start(c *gin.Context, userID uint) (*session.Session, error) {
	s, err := m.manager.Regenerate(c.Request.Context(), Current(c), userID)
	if err != nil {
		return nil, err
	}
	return s, m.issue(c, s)
}

// End destroys the current session and clears the cookie.
func (m *Sessions) End(c *gin.Context) error {
	if s := Current(c); s != nil {
		if err := m.manager.Destroy(c.Request.Context(), s.ID); err != nil {
			return err
		}
	}
	m.clearCookie(c)
	c.Set(SessionKey, (*session.Session)(nil))
	return nil
}

func (m *Sessions) issue(c *gin.Context, s *session.Session) error {
	value, err := m.manager.Sign(s)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookie.Name, value, int(m.manager.TTL().Seconds()), "/", "", m.cookie.Secure, true)
	c.Set(SessionKey, s)
	return nil
}

func (m *Sessions) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookie.Name, "", -1, "/", "", m.cookie.Secure, true)
}

// Current returns the request's session, or nil.
func Current(c *gin.Context) *session.Session {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*session.Session)
	return s
}

// Identity returns the authenticated caller, or nil for anonymous requests.
func Identity(c *gin.Context) *models.Identity {
	return Current(c).Identity()
}

// RequireAuth rejects requests without an authenticated session.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Identity(c) == nil {
			abort(c, http.StatusUnauthorized, "unauthenticated", "Authentication required")
			return
		}
		c.Next()
	}
}

// RequireCSRF rejects requests whose anti-forgery token does not match the session's.
func RequireCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(CSRFHeader)
		if token == "" {
			token = c.PostForm(CSRFField)
		}
		if !Current(c).VerifyCSRF(token) {
			abort(c, http.StatusForbidden, "forbidden", "Invalid or missing CSRF token")
			return
		}
		c.Next()
	}
}
