package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/tci-social/backend/internal/middleware"
	"github.com/emilythestrangee/tci-social/backend/internal/models"
)

type PostHandler struct {
	feed       FeedService
	posts      PostService
	engagement EngagementService
	logger     *slog.Logger
}

func NewPostHandler(feed FeedService, posts PostService, engagement EngagementService, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		feed:       feed,
		posts:      posts,
		engagement: engagement,
		logger:     logger,
	}
}

// GetFeed returns one page of posts, newest first
func (h *PostHandler) GetFeed(c *gin.Context) {
	offset := 0
	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "Offset must be a number")
			return
		}
		offset = n
	}

	items, err := h.feed.GetFeed(c.Request.Context(), middleware.Identity(c), offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	// If no posts, return empty array not null
	if items == nil {
		items = []models.FeedItem{}
	}
	c.JSON(http.StatusOK, items)
}

// GetPost returns a single post by ID with its comments
func (h *PostHandler) GetPost(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.feed.GetPost(c.Request.Context(), middleware.Identity(c), postID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// CreatePost creates a new post (PROTECTED - requires authentication)
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req models.CreatePostRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "Invalid post data")
		return
	}

	uploads := uploadedFiles(c, "media", "media[]")

	result, err := h.posts.CreatePost(c.Request.Context(), middleware.Identity(c), req, uploads)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if !wantsJSON(c) {
		redirectHome(c)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// DeletePost deletes a post (PROTECTED - requires ownership)
func (h *PostHandler) DeletePost(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.posts.DeletePost(c.Request.Context(), middleware.Identity(c), postID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// ToggleLike likes or unlikes a post (PROTECTED - requires authentication)
func (h *PostHandler) ToggleLike(c *gin.Context) {
	var req models.ToggleLikeRequest
	if err := c.ShouldBind(&req); err != nil || req.PostID == 0 {
		badRequest(c, "Invalid post_id")
		return
	}

	result, err := h.engagement.ToggleLike(c.Request.Context(), middleware.Identity(c), req.PostID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
