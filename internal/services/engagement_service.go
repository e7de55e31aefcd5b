package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/emilythestrangee/tci-social/backend/internal/models"
	"github.com/emilythestrangee/tci-social/backend/internal/repositories"
	"github.com/emilythestrangee/tci-social/backend/internal/validator"
)

// EngagementService handles likes and comments.
type EngagementService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewEngagementService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator) *EngagementService {
	return &EngagementService{
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

// ToggleLike flips the caller's like on a post. Two concurrent likes from the same
// user converge on the unique index: the loser sees ErrDuplicate and reports liked.
func (s *EngagementService) ToggleLike(ctx context.Context, user *models.Identity, postID uint) (*models.ToggleLikeResult, error) {
	if user == nil {
		return nil, ErrUnauthenticated
	}
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	exists, err := s.repo.Likes().Exists(ctx, user.UserID, postID)
	if err != nil {
		return nil, storageError("check like", err)
	}

	if exists {
		if _, err := s.repo.Likes().Delete(ctx, user.UserID, postID); err != nil {
			return nil, storageError("delete like", err)
		}
		return &models.ToggleLikeResult{Liked: false}, nil
	}

	err = s.repo.Likes().Insert(ctx, &models.Like{UserID: user.UserID, PostID: postID})
	if errors.Is(err, repositories.ErrDuplicate) {
		s.logger.DebugContext(ctx, "Concurrent like collapsed", "user_id", user.UserID, "post_id", postID)
		return &models.ToggleLikeResult{Liked: true}, nil
	}
	if err != nil {
		return nil, notFoundOr("insert like", "post not found", err)
	}
	return &models.ToggleLikeResult{Liked: true}, nil
}

// AddComment appends an escaped comment and returns its id.
func (s *EngagementService) AddComment(ctx context.Context, user *models.Identity, req models.AddCommentRequest) (uint, error) {
	if user == nil {
		return 0, ErrUnauthenticated
	}

	req.Text = strings.TrimSpace(req.Text)
	if errs := s.validator.Validate(&req); errs != nil {
		return 0, &ValidationFailedError{Errors: errs}
	}
	if err := s.requirePost(ctx, req.PostID); err != nil {
		return 0, err
	}

	comment := &models.Comment{
		PostID: req.PostID,
		UserID: user.UserID,
		Text:   html.EscapeString(req.Text),
	}
	if err := s.repo.Comments().Create(ctx, comment); err != nil {
		return 0, notFoundOr("create comment", "post not found", err)
	}

	s.logger.InfoContext(ctx, "Comment added", "comment_id", comment.ID, "post_id", req.PostID, "user_id", user.UserID)
	return comment.ID, nil
}

// ListComments returns a post's comments, oldest first.
func (s *EngagementService) ListComments(ctx context.Context, postID uint) ([]models.CommentView, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.repo.Comments().ListByPost(ctx, postID)
	if err != nil {
		return nil, storageError("list comments", err)
	}
	return commentViews(comments)
}

func (s *EngagementService) requirePost(ctx context.Context, postID uint) error {
	ok, err := s.repo.Posts().Exists(ctx, postID)
	if err != nil {
		return storageError("check post", err)
	}
	if !ok {
		return fmt.Errorf("%w: post not found", ErrNotFound)
	}
	return nil
}

func commentViews(comments []models.Comment) ([]models.CommentView, error) {
	views := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		if c.User.ID == 0 || c.User.ID != c.UserID {
			return nil, fmt.Errorf("%w: comment %d references missing author %d", ErrDataIntegrity, c.ID, c.UserID)
		}
		views = append(views, models.CommentView{
			ID:        c.ID,
			PostID:    c.PostID,
			Author:    c.User.Summary(),
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		})
	}
	return views, nil
}
