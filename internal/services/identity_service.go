package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/emilythestrangee/tci-social/backend/internal/models"
	"github.com/emilythestrangee/tci-social/backend/internal/repositories"
	"github.com/emilythestrangee/tci-social/backend/internal/storage"
	"github.com/emilythestrangee/tci-social/backend/internal/validator"
)

// IdentityService covers registration, login and profile editing.
type IdentityService struct {
	repo      repositories.Repository
	blobs     storage.BlobStore
	logger    *slog.Logger
	validator *validator.Validator
	hashCost  int
}

func NewIdentityService(repo repositories.Repository, blobs storage.BlobStore, logger *slog.Logger, v *validator.Validator) *IdentityService {
	return &IdentityService{
		repo:      repo,
		blobs:     blobs,
		logger:    logger,
		validator: v,
		hashCost:  bcrypt.DefaultCost,
	}
}

// Register creates a user with an empty socials row. Role defaults to student.
func (s *IdentityService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Role == "" {
		req.Role = models.RoleStudent
	}
	if errs := s.validator.Validate(&req); errs != nil {
		return nil, &ValidationFailedError{Errors: errs}
	}

	taken, err := s.repo.Users().ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		return nil, storageError("check user", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: username or email already exists", ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
	}
	if err := s.repo.Users().Create(ctx, user); err != nil {
		// Lost a race with another registration for the same name.
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("%w: username or email already exists", ErrConflict)
		}
		return nil, storageError("create user", err)
	}

	s.logger.InfoContext(ctx, "User registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login checks credentials. Unknown email and wrong password look the same.
func (s *IdentityService) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if errs := s.validator.Validate(&req); errs != nil {
		return nil, &ValidationFailedError{Errors: errs}
	}

	user, err := s.repo.Users().GetByEmail(ctx, req.Email)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, storageError("load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.logger.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return user, nil
}

func (s *IdentityService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repo.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr("get user", "user not found", err)
	}
	return user, nil
}

// UpdateProfile saves bio and social links, then the avatar if one was sent.
// An avatar that cannot be kept is reported in the outcome; the text is saved anyway.
func (s *IdentityService) UpdateProfile(ctx context.Context, user *models.Identity, req models.UpdateProfileRequest, avatar Attachment) (*models.User, *models.AttachmentOutcome, error) {
	if user == nil {
		return nil, nil, ErrUnauthenticated
	}

	trimAll(&req.Bio, &req.Phone, &req.Facebook, &req.Instagram, &req.TikTok, &req.GitHub, &req.Discord)
	if errs := s.validator.Validate(&req); errs != nil {
		return nil, nil, &ValidationFailedError{Errors: errs}
	}

	socials := models.UserSocials{
		Phone:     optional(req.Phone),
		Facebook:  optional(req.Facebook),
		Instagram: optional(req.Instagram),
		TikTok:    optional(req.TikTok),
		GitHub:    optional(req.GitHub),
		Discord:   optional(req.Discord),
	}
	if err := s.repo.Users().UpdateProfile(ctx, user.UserID, html.EscapeString(req.Bio), socials); err != nil {
		return nil, nil, notFoundOr("update profile", "user not found", err)
	}

	var outcome *models.AttachmentOutcome
	if avatar != nil {
		outcome = s.replaceAvatar(ctx, user.UserID, avatar)
	}

	updated, err := s.repo.Users().GetByID(ctx, user.UserID)
	if err != nil {
		return nil, nil, notFoundOr("get user", "user not found", err)
	}

	s.logger.InfoContext(ctx, "Profile updated", "user_id", user.UserID, "avatar", outcome != nil && outcome.Status == models.AttachmentStored)
	return updated, outcome, nil
}

// replaceAvatar keeps at most one profile-picture row per user. Old files are
// removed after the new row commits.
func (s *IdentityService) replaceAvatar(ctx context.Context, userID uint, avatar Attachment) *models.AttachmentOutcome {
	outcome := &models.AttachmentOutcome{FileName: displayName(avatar)}

	blob, err := storeAttachment(ctx, s.blobs, avatar, avatarPolicy)
	if err != nil {
		outcome.Status, outcome.Reason = outcomeFor(err)
		if outcome.Status == models.AttachmentFailed {
			s.logger.ErrorContext(ctx, "Failed to store avatar", "user_id", userID, "error", err)
		}
		return outcome
	}

	media := &models.Media{
		UserID:   userID,
		FileName: blob.name,
		Kind:     blob.kind,
		MimeType: blob.mime,
		Size:     blob.size,
	}
	url := s.blobs.URL(blob.name)

	var previous []models.Media
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		removed, err := tx.Media().DeleteAvatars(ctx, userID)
		if err != nil {
			return err
		}
		if err := tx.Media().Create(ctx, media); err != nil {
			return err
		}
		if err := tx.Users().UpdateAvatar(ctx, userID, url); err != nil {
			return err
		}
		previous = removed
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to record avatar", "user_id", userID, "error", err)
		if delErr := s.blobs.Delete(ctx, blob.name); delErr != nil {
			s.logger.WarnContext(ctx, "Failed to remove orphaned blob", "file", blob.name, "error", delErr)
		}
		outcome.Status = models.AttachmentFailed
		outcome.Reason = "could not be saved"
		return outcome
	}

	for _, m := range previous {
		if err := s.blobs.Delete(ctx, m.FileName); err != nil {
			s.logger.WarnContext(ctx, "Failed to remove old avatar file", "user_id", userID, "file", m.FileName, "error", err)
		}
	}

	outcome.Status = models.AttachmentStored
	outcome.MediaID = media.ID
	outcome.URL = url
	return outcome
}
