package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/emilythestrangee/tci-social/backend/internal/models"
	"github.com/emilythestrangee/tci-social/backend/internal/repositories"
)

type UserPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) *UserPostgreSQL {
	return &UserPostgreSQL{db: db}
}

func (r *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Socials").Create(user).Error; err != nil {
			return err
		}
		user.Socials = models.UserSocials{UserID: user.ID}
		return tx.Create(&user.Socials).Error
	})
	return translateError(err)
}

func (r *UserPostgreSQL) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Socials").First(&user, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *UserPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *UserPostgreSQL) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	return count > 0, translateError(err)
}

func (r *UserPostgreSQL) UpdateProfile(ctx context.Context, id uint, bio string, socials models.UserSocials) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).Where("id = ?", id).Update("bio", bio)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return repositories.ErrNotFound
		}

		values := map[string]interface{}{
			"phone":     socials.Phone,
			"facebook":  socials.Facebook,
			"instagram": socials.Instagram,
			"tiktok":    socials.TikTok,
			"github":    socials.GitHub,
			"discord":   socials.Discord,
		}
		result = tx.Model(&models.UserSocials{}).Where("user_id = ?", id).Updates(values)
		if result.Error != nil {
			return result.Error
		}
		// Users created before the socials table existed get their row lazily.
		if result.RowsAffected == 0 {
			socials.UserID = id
			return tx.Create(&socials).Error
		}
		return nil
	})
	return translateError(err)
}

func (r *UserPostgreSQL) UpdateAvatar(ctx context.Context, id uint, avatar string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("avatar", avatar)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
