package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/tci-social/backend/internal/middleware"
	"github.com/emilythestrangee/tci-social/backend/internal/models"
)

type CommentHandler struct {
	engagement EngagementService
	logger     *slog.Logger
}

func NewCommentHandler(engagement EngagementService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{
		engagement: engagement,
		logger:     logger,
	}
}

// GetComments returns all comments for a post, oldest first
func (h *CommentHandler) GetComments(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}

	comments, err := h.engagement.ListComments(c.Request.Context(), postID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if comments == nil {
		comments = []models.CommentView{}
	}
	c.JSON(http.StatusOK, comments)
}

// CreateComment creates a new comment on a post (PROTECTED - requires authentication)
func (h *CommentHandler) CreateComment(c *gin.Context) {
	var req models.AddCommentRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid comment data")
		return
	}

	commentID, err := h.engagement.AddComment(c.Request.Context(), middleware.Identity(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment_id": commentID})
}
