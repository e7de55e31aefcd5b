package services

import (
	"log/slog"
	"strings"

	"github.com/emilythestrangee/tci-social/backend/internal/repositories"
	"github.com/emilythestrangee/tci-social/backend/internal/storage"
	"github.com/emilythestrangee/tci-social/backend/internal/validator"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Feed       *FeedService
	Posts      *PostService
	Engagement *EngagementService
	Identity   *IdentityService
}

func New(repo repositories.Repository, blobs storage.BlobStore, logger *slog.Logger, v *validator.Validator) *Services {
	return &Services{
		Feed:       NewFeedService(repo, blobs, logger),
		Posts:      NewPostService(repo, blobs, logger, v),
		Engagement: NewEngagementService(repo, logger, v),
		Identity:   NewIdentityService(repo, blobs, logger, v),
	}
}

// optional returns nil for blank strings so nullable columns stay NULL.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func trimAll(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
