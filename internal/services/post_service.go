package services

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/emilythestrangee/tci-social/backend/internal/models"
	"github.com/emilythestrangee/tci-social/backend/internal/repositories"
	"github.com/emilythestrangee/tci-social/backend/internal/storage"
	"github.com/emilythestrangee/tci-social/backend/internal/validator"
)

type PostService struct {
	repo      repositories.Repository
	blobs     storage.BlobStore
	logger    *slog.Logger
	validator *validator.Validator
}

func NewPostService(repo repositories.Repository, blobs storage.BlobStore, logger *slog.Logger, v *validator.Validator) *PostService {
	return &PostService{
		repo:      repo,
		blobs:     blobs,
		logger:    logger,
		validator: v,
	}
}

// CreatePost stores the post and then as many attachments as the policy allows.
// A failing attachment never fails the post; its outcome says what happened.
func (s *PostService) CreatePost(ctx context.Context, author *models.Identity, req models.CreatePostRequest, uploads []Attachment) (*models.CreatePostResult, error) {
	if author == nil {
		return nil, ErrUnauthenticated
	}

	trimAll(&req.Title, &req.Body, &req.Price, &req.ContactInfo)
	if errs := s.validator.Validate(&req); errs != nil {
		return nil, &ValidationFailedError{Errors: errs}
	}

	user, err := s.repo.Users().GetByID(ctx, author.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUnauthenticated
		}
		return nil, storageError("load author", err)
	}

	if req.HasCommerceFields() && !user.IsInnovator() {
		return nil, fmt.Errorf("%w: only innovators can set a price or contact info", ErrForbidden)
	}

	post := &models.Post{
		UserID:      user.ID,
		Title:       html.EscapeString(req.Title),
		Body:        html.EscapeString(req.Body),
		Price:       optional(req.Price),
		ContactInfo: optional(html.EscapeString(req.ContactInfo)),
	}
	if err := s.repo.Posts().Create(ctx, post); err != nil {
		return nil, storageError("create post", err)
	}

	result := &models.CreatePostResult{
		PostID:      post.ID,
		Attachments: make([]models.AttachmentOutcome, 0, len(uploads)),
	}

	stored := 0
	for i, upload := range uploads {
		outcome := models.AttachmentOutcome{Index: i, FileName: displayName(upload)}

		if stored >= MaxPostAttachments {
			outcome.Status = models.AttachmentDropped
			outcome.Reason = fmt.Sprintf("only %d attachments are kept per post", MaxPostAttachments)
			result.Attachments = append(result.Attachments, outcome)
			continue
		}

		media, err := s.storePostMedia(ctx, post.ID, user.ID, stored, upload)
		if err != nil {
			outcome.Status, outcome.Reason = outcomeFor(err)
			if outcome.Status == models.AttachmentFailed {
				s.logger.ErrorContext(ctx, "Failed to store attachment", "post_id", post.ID, "index", i, "error", err)
			}
			result.Attachments = append(result.Attachments, outcome)
			continue
		}

		stored++
		outcome.Status = models.AttachmentStored
		outcome.MediaID = media.ID
		outcome.URL = s.blobs.URL(media.FileName)
		result.Attachments = append(result.Attachments, outcome)
	}

	s.logger.InfoContext(ctx, "Post created",
		"post_id", post.ID,
		"author_id", user.ID,
		"attachments_stored", stored,
		"attachments_total", len(uploads),
	)
	return result, nil
}

func (s *PostService) storePostMedia(ctx context.Context, postID, userID uint, position int, upload Attachment) (*models.Media, error) {
	blob, err := storeAttachment(ctx, s.blobs, upload, postMediaPolicy)
	if err != nil {
		return nil, err
	}

	media := &models.Media{
		PostID:   &postID,
		UserID:   userID,
		FileName: blob.name,
		Kind:     blob.kind,
		MimeType: blob.mime,
		Size:     blob.size,
		Position: position,
	}
	if err := s.repo.Media().Create(ctx, media); err != nil {
		if delErr := s.blobs.Delete(ctx, blob.name); delErr != nil {
			s.logger.WarnContext(ctx, "Failed to remove orphaned blob", "file", blob.name, "error", delErr)
		}
		return nil, fmt.Errorf("failed to record media: %w", err)
	}
	return media, nil
}

// DeletePost removes an owned post with its media, likes and comments.
// Stored files are removed after the rows are gone; leftovers are only logged.
func (s *PostService) DeletePost(ctx context.Context, user *models.Identity, postID uint) error {
	if user == nil {
		return ErrUnauthenticated
	}

	post, err := s.repo.Posts().GetByID(ctx, postID)
	if err != nil {
		return notFoundOr("get post", "post not found", err)
	}
	if post.UserID != user.UserID {
		return fmt.Errorf("%w: you can only delete your own posts", ErrForbidden)
	}

	var media []models.Media
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		grouped, err := tx.Media().ListByPosts(ctx, []uint{postID})
		if err != nil {
			return err
		}
		media = grouped[postID]

		if err := tx.Likes().DeleteByPost(ctx, postID); err != nil {
			return err
		}
		if err := tx.Comments().DeleteByPost(ctx, postID); err != nil {
			return err
		}
		if err := tx.Media().DeleteByPost(ctx, postID); err != nil {
			return err
		}
		return tx.Posts().Delete(ctx, postID)
	})
	if err != nil {
		return notFoundOr("delete post", "post not found", err)
	}

	for _, m := range media {
		if err := s.blobs.Delete(ctx, m.FileName); err != nil {
			s.logger.WarnContext(ctx, "Failed to remove media file", "post_id", postID, "file", m.FileName, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "Post deleted", "post_id", postID, "user_id", user.UserID, "media", len(media))
	return nil
}
