package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emilythestrangee/tci-social/backend/internal/models"
	"github.com/emilythestrangee/tci-social/backend/internal/repositories"
	"github.com/emilythestrangee/tci-social/backend/internal/storage"
)

// FeedService composes posts, media and engagement into feed items.
type FeedService struct {
	repo   repositories.Repository
	blobs  storage.BlobStore
	logger *slog.Logger
}

func NewFeedService(repo repositories.Repository, blobs storage.BlobStore, logger *slog.Logger) *FeedService {
	return &FeedService{
		repo:   repo,
		blobs:  blobs,
		logger: logger,
	}
}

// GetFeed returns one page of the feed, newest first. viewer may be nil.
func (s *FeedService) GetFeed(ctx context.Context, viewer *models.Identity, offset int) ([]models.FeedItem, error) {
	if offset < 0 {
		return nil, invalidInput("offset", "offset must not be negative")
	}

	posts, err := s.repo.Posts().ListRecent(ctx, offset, models.FeedPageSize)
	if err != nil {
		return nil, storageError("list posts", err)
	}

	items, err := s.compose(ctx, viewer, posts)
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "Feed page composed", "offset", offset, "items", len(items))
	return items, nil
}

// GetPost returns a single post with its comment thread.
func (s *FeedService) GetPost(ctx context.Context, viewer *models.Identity, postID uint) (*models.PostDetail, error) {
	post, err := s.repo.Posts().GetByID(ctx, postID)
	if err != nil {
		return nil, notFoundOr("get post", "post not found", err)
	}

	items, err := s.compose(ctx, viewer, []models.Post{*post})
	if err != nil {
		return nil, err
	}

	comments, err := s.repo.Comments().ListByPost(ctx, postID)
	if err != nil {
		return nil, storageError("list comments", err)
	}
	views, err := commentViews(comments)
	if err != nil {
		return nil, err
	}

	return &models.PostDetail{
		FeedItem: items[0],
		Comments: views,
	}, nil
}

// compose resolves media, counts and viewer state for posts with one query per concern.
func (s *FeedService) compose(ctx context.Context, viewer *models.Identity, posts []models.Post) ([]models.FeedItem, error) {
	items := make([]models.FeedItem, 0, len(posts))
	if len(posts) == 0 {
		return items, nil
	}

	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		if p.User.ID == 0 || p.User.ID != p.UserID {
			return nil, fmt.Errorf("%w: post %d references missing author %d", ErrDataIntegrity, p.ID, p.UserID)
		}
		ids = append(ids, p.ID)
	}

	media, err := s.repo.Media().ListByPosts(ctx, ids)
	if err != nil {
		return nil, storageError("list media", err)
	}
	likeCounts, err := s.repo.Likes().CountByPosts(ctx, ids)
	if err != nil {
		return nil, storageError("count likes", err)
	}
	commentCounts, err := s.repo.Comments().CountByPosts(ctx, ids)
	if err != nil {
		return nil, storageError("count comments", err)
	}

	liked := map[uint]bool{}
	if viewer != nil {
		liked, err = s.repo.Likes().LikedPostIDs(ctx, viewer.UserID, ids)
		if err != nil {
			return nil, storageError("load viewer likes", err)
		}
	}

	for _, p := range posts {
		items = append(items, models.FeedItem{
			Post: models.FeedPost{
				ID:          p.ID,
				Title:       p.Title,
				Body:        p.Body,
				Price:       p.Price,
				ContactInfo: p.ContactInfo,
				Author:      p.User.Summary(),
				CreatedAt:   p.CreatedAt,
			},
			Media:          s.mediaViews(media[p.ID]),
			LikeCount:      likeCounts[p.ID],
			CommentCount:   commentCounts[p.ID],
			ViewerHasLiked: liked[p.ID],
		})
	}
	return items, nil
}

func (s *FeedService) mediaViews(media []models.Media) []models.MediaView {
	views := make([]models.MediaView, 0, len(media))
	for _, m := range media {
		views = append(views, models.MediaView{
			ID:       m.ID,
			URL:      s.blobs.URL(m.FileName),
			Kind:     m.Kind,
			MimeType: m.MimeType,
			Size:     m.Size,
		})
	}
	return views
}
