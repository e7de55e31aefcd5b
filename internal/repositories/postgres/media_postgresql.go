package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/emilythestrangee/tci-social/backend/internal/models"
)

type MediaPostgreSQL struct {
	db *gorm.DB
}

func NewMediaPostgreSQL(db *gorm.DB) *MediaPostgreSQL {
	return &MediaPostgreSQL{db: db}
}

func (r *MediaPostgreSQL) Create(ctx context.Context, media *models.Media) error {
	return translateError(r.db.WithContext(ctx).Create(media).Error)
}

func (r *MediaPostgreSQL) ListByPosts(ctx context.Context, postIDs []uint) (map[uint][]models.Media, error) {
	grouped := make(map[uint][]models.Media, len(postIDs))
	if len(postIDs) == 0 {
		return grouped, nil
	}

	var media []models.Media
	err := r.db.WithContext(ctx).
		Where("post_id IN ?", postIDs).
		Order("post_id").
		Order("position ASC").
		Order("id ASC").
		Find(&media).Error
	if err != nil {
		return nil, translateError(err)
	}

	for _, m := range media {
		grouped[*m.PostID] = append(grouped[*m.PostID], m)
	}
	return grouped, nil
}

func (r *MediaPostgreSQL) DeleteByPost(ctx context.Context, postID uint) error {
	return translateError(r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.Media{}).Error)
}

func (r *MediaPostgreSQL) DeleteAvatars(ctx context.Context, userID uint) ([]models.Media, error) {
	var media []models.Media
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id IS NULL", userID).
		Find(&media).Error
	if err != nil {
		return nil, translateError(err)
	}
	if len(media) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(media))
	for _, m := range media {
		ids = append(ids, m.ID)
	}
	if err := r.db.WithContext(ctx).Delete(&models.Media{}, ids).Error; err != nil {
		return nil, translateError(err)
	}
	return media, nil
}
