package repositories

import (
	"context"
	"errors"

	"github.com/emilythestrangee/tci-social/backend/internal/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
)

type UserRepository interface {
	// Create inserts the user together with its empty socials row.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	UpdateProfile(ctx context.Context, id uint, bio string, socials models.UserSocials) error
	UpdateAvatar(ctx context.Context, id uint, avatar string) error
}

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	// GetByID loads the post with its author.
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Exists(ctx context.Context, id uint) (bool, error)
	// ListRecent returns posts with authors, newest first.
	ListRecent(ctx context.Context, offset, limit int) ([]models.Post, error)
	Delete(ctx context.Context, id uint) error
}

type MediaRepository interface {
	Create(ctx context.Context, media *models.Media) error
	// ListByPosts groups media by post id, each group in insertion order.
	ListByPosts(ctx context.Context, postIDs []uint) (map[uint][]models.Media, error)
	DeleteByPost(ctx context.Context, postID uint) error
	// DeleteAvatars removes the user's profile-picture rows and returns them.
	DeleteAvatars(ctx context.Context, userID uint) ([]models.Media, error)
}

type LikeRepository interface {
	Exists(ctx context.Context, userID, postID uint) (bool, error)
	// Insert returns ErrDuplicate when the (user, post) pair already exists.
	Insert(ctx context.Context, like *models.Like) error
	Delete(ctx context.Context, userID, postID uint) (int64, error)
	CountByPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error)
	LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error)
	DeleteByPost(ctx context.Context, postID uint) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	// ListByPost returns comments with authors, oldest first.
	ListByPost(ctx context.Context, postID uint) ([]models.Comment, error)
	CountByPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error)
	DeleteByPost(ctx context.Context, postID uint) error
}

// Repository groups the stores behind one handle that can run them in a transaction.
type Repository interface {
	Users() UserRepository
	Posts() PostRepository
	Media() MediaRepository
	Likes() LikeRepository
	Comments() CommentRepository

	WithTransaction(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
}
