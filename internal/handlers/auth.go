package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/tci-social/backend/internal/middleware"
	"github.com/emilythestrangee/tci-social/backend/internal/models"
)

type AuthHandler struct {
	identity IdentityService
	sessions SessionControl
	logger   *slog.Logger
}

func NewAuthHandler(identity IdentityService, sessions SessionControl, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		identity: identity,
		sessions: sessions,
		logger:   logger,
	}
}

// CSRFToken returns the anti-forgery token of the caller's session, starting one if needed
func (h *AuthHandler) CSRFToken(c *gin.Context) {
	s, err := h.sessions.Ensure(c)
	if err != nil {
		h.sessionFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"csrf_token": s.CSRFToken})
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid registration data")
		return
	}

	user, err := h.identity.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.signIn(c, user, http.StatusCreated)
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid login data")
		return
	}

	user, err := h.identity.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.signIn(c, user, http.StatusOK)
}

// Logout ends the current session (PROTECTED - requires authentication)
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.End(c); err != nil {
		h.sessionFailed(c, err)
		return
	}

	if !wantsJSON(c) {
		redirectHome(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// GetMe returns the current authenticated user
func (h *AuthHandler) GetMe(c *gin.Context) {
	identity := middleware.Identity(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required", "code": "unauthenticated"})
		return
	}

	user, err := h.identity.GetProfile(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user.Profile(true))
}

// signIn rotates the session to the user so an id seen before login is worthless.
func (h *AuthHandler) signIn(c *gin.Context, user *models.User, status int) {
	s, err := h.sessions.Start(c, user.ID)
	if err != nil {
		h.sessionFailed(c, err)
		return
	}

	if !wantsJSON(c) {
		redirectHome(c)
		return
	}
	c.JSON(status, gin.H{
		"user":       user.Profile(true),
		"csrf_token": s.CSRFToken,
	})
}

func (h *AuthHandler) sessionFailed(c *gin.Context, err error) {
	h.logger.ErrorContext(c.Request.Context(), "Session store failure",
		"request_id", c.GetString(middleware.RequestIDKey),
		"error", err,
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Service temporarily unavailable", "code": "storage_unavailable"})
}
