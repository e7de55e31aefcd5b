package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/tci-social/backend/internal/middleware"
	"github.com/emilythestrangee/tci-social/backend/internal/models"
	"github.com/emilythestrangee/tci-social/backend/internal/services"
)

type UserHandler struct {
	identity IdentityService
	logger   *slog.Logger
}

func NewUserHandler(identity IdentityService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		identity: identity,
		logger:   logger,
	}
}

// GetUserProfile returns a user's public profile
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	userID, ok := parseID(c, "id")
	if !ok {
		return
	}

	user, err := h.identity.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	self := false
	if viewer := middleware.Identity(c); viewer != nil {
		self = viewer.UserID == user.ID
	}
	c.JSON(http.StatusOK, user.Profile(self))
}

// UpdateProfile updates the caller's bio, social links and avatar (PROTECTED - requires authentication)
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid profile data")
		return
	}

	var avatar services.Attachment
	if fh, err := c.FormFile("avatar"); err == nil {
		avatar = fileAttachment{header: fh}
	}

	user, outcome, err := h.identity.UpdateProfile(c.Request.Context(), middleware.Identity(c), req, avatar)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if !wantsJSON(c) {
		redirectHome(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":   user.Profile(true),
		"avatar": outcome,
	})
}
