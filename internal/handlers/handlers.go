package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/tci-social/backend/internal/middleware"
	"github.com/emilythestrangee/tci-social/backend/internal/models"
	"github.com/emilythestrangee/tci-social/backend/internal/services"
	"github.com/emilythestrangee/tci-social/backend/internal/session"
)

type FeedService interface {
	GetFeed(ctx context.Context, viewer *models.Identity, offset int) ([]models.FeedItem, error)
	GetPost(ctx context.Context, viewer *models.Identity, postID uint) (*models.PostDetail, error)
}

type PostService interface {
	CreatePost(ctx context.Context, author *models.Identity, req models.CreatePostRequest, uploads []services.Attachment) (*models.CreatePostResult, error)
	DeletePost(ctx context.Context, user *models.Identity, postID uint) error
}

type EngagementService interface {
	ToggleLike(ctx context.Context, user *models.Identity, postID uint) (*models.ToggleLikeResult, error)
	AddComment(ctx context.Context, user *models.Identity, req models.AddCommentRequest) (uint, error)
	ListComments(ctx context.Context, postID uint) ([]models.CommentView, error)
}

type IdentityService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.User, error)
	GetProfile(ctx context.Context, userID uint) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.Identity, req models.UpdateProfileRequest, avatar services.Attachment) (*models.User, *models.AttachmentOutcome, error)
}

// SessionControl issues, rotates and ends the caller's session cookie.
type SessionControl interface {
	Ensure(c *gin.Context) (*session.Session, error)
	Start(c *gin.Context, userID uint) (*session.Session, error)
	End(c *gin.Context) error
}

type Dependencies struct {
	Feed       FeedService
	Posts      PostService
	Engagement EngagementService
	Identity   IdentityService
	Sessions   SessionControl
}

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Post    *PostHandler
	Comment *CommentHandler
	User    *UserHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(deps Dependencies, logger *slog.Logger) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(deps.Identity, deps.Sessions, logger),
		Post:    NewPostHandler(deps.Feed, deps.Posts, deps.Engagement, logger),
		Comment: NewCommentHandler(deps.Engagement, logger),
		User:    NewUserHandler(deps.Identity, logger),
	}
}

// respondError maps service errors to status codes. 5xx causes are only logged.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var verr *services.ValidationFailedError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid input",
			"code":    "invalid_input",
			"details": verr.Errors,
		})
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": message(err, services.ErrInvalidInput, "Invalid input"), "code": "invalid_input"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials", "code": "unauthenticated"})
	case errors.Is(err, services.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required", "code": "unauthenticated"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": message(err, services.ErrForbidden, "Forbidden"), "code": "forbidden"})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": message(err, services.ErrNotFound, "Not found"), "code": "not_found"})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": message(err, services.ErrConflict, "Conflict"), "code": "conflict"})
	default:
		code := "internal_error"
		if errors.Is(err, services.ErrStorageUnavailable) {
			code = "storage_unavailable"
		}
		logger.ErrorContext(c.Request.Context(), "Request failed",
			"request_id", c.GetString(middleware.RequestIDKey),
			"path", c.FullPath(),
			"code", code,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": code})
	}
}

// message strips the sentinel prefix from wrapped errors, e.g. "not found: post not found".
func message(err, sentinel error, fallback string) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	if msg == sentinel.Error() || msg == "" {
		return fallback
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": "invalid_input"})
}

// parseID reads a positive numeric path parameter, answering 400 when it is not one.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// wantsJSON is false for plain browser form posts, which get a redirect instead.
func wantsJSON(c *gin.Context) bool {
	if c.GetHeader("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "application/json") || !strings.Contains(accept, "text/html")
}

func redirectHome(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/")
}

// fileAttachment adapts a multipart upload to services.Attachment.
type fileAttachment struct {
	header *multipart.FileHeader
}

func (f fileAttachment) Filename() string {
	return f.header.Filename
}

func (f fileAttachment) Size() int64 {
	return f.header.Size
}

func (f fileAttachment) Open() (io.ReadCloser, error) {
	return f.header.Open()
}

// uploadedFiles collects files sent under any of the given field names, in order.
func uploadedFiles(c *gin.Context, fields ...string) []services.Attachment {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	var out []services.Attachment
	for _, field := range fields {
		for _, fh := range form.File[field] {
			out = append(out, fileAttachment{header: fh})
		}
	}
	return out
}
