package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/emilythestrangee/tci-social/backend/internal/models"
)

type LikePostgreSQL struct {
	db *gorm.DB
}

func NewLikePostgreSQL(db *gorm.DB) *LikePostgreSQL {
	return &LikePostgreSQL{db: db}
}

func (r *LikePostgreSQL) Exists(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	return count > 0, translateError(err)
}

// Insert relies on idx_likes_user_post; a concurrent duplicate surfaces as ErrDuplicate
// and a post deleted in the meantime as ErrNotFound.
func (r *LikePostgreSQL) Insert(ctx context.Context, like *models.Like) error {
	return translateError(r.db.WithContext(ctx).Omit("Post").Create(like).Error)
}

func (r *LikePostgreSQL) Delete(ctx context.Context, userID, postID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{})
	return result.RowsAffected, translateError(result.Error)
}

func (r *LikePostgreSQL) CountByPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	if len(postIDs) == 0 {
		return map[uint]int64{}, nil
	}
	var rows []postCount
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	return countsByPost(rows), nil
}

func (r *LikePostgreSQL) LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error) {
	liked := make(map[uint]bool)
	if len(postIDs) == 0 {
		return liked, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, translateError(err)
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

func (r *LikePostgreSQL) DeleteByPost(ctx context.Context, postID uint) error {
	return translateError(r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.Like{}).Error)
}

type CommentPostgreSQL struct {
	db *gorm.DB
}

func NewCommentPostgreSQL(db *gorm.DB) *CommentPostgreSQL {
	return &CommentPostgreSQL{db: db}
}

func (r *CommentPostgreSQL) Create(ctx context.Context, comment *models.Comment) error {
	return translateError(r.db.WithContext(ctx).Omit("User", "Post").Create(comment).Error)
}

func (r *CommentPostgreSQL) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, translateError(err)
	}
	return comments, nil
}

func (r *CommentPostgreSQL) CountByPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	if len(postIDs) == 0 {
		return map[uint]int64{}, nil
	}
	var rows []postCount
	err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	return countsByPost(rows), nil
}

func (r *CommentPostgreSQL) DeleteByPost(ctx context.Context, postID uint) error {
	return translateError(r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.Comment{}).Error)
}
