package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/emilythestrangee/tci-social/backend/internal/models"
	"github.com/emilythestrangee/tci-social/backend/internal/repositories"
)

type PostPostgreSQL struct {
	db *gorm.DB
}

func NewPostPostgreSQL(db *gorm.DB) *PostPostgreSQL {
	return &PostPostgreSQL{db: db}
}

func (r *PostPostgreSQL) Create(ctx context.Context, post *models.Post) error {
	return translateError(r.db.WithContext(ctx).Omit("User").Create(post).Error)
}

func (r *PostPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("User").First(&post, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &post, nil
}

func (r *PostPostgreSQL) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error
	return count > 0, translateError(err)
}

// ListRecent orders by id as a tiebreaker so offset pages never overlap.
func (r *PostPostgreSQL) ListRecent(ctx context.Context, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, translateError(err)
	}
	return posts, nil
}

func (r *PostPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
