package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/emilythestrangee/tci-social/backend/internal/repositories"
)

// SQLSTATE codes postgres reports for constraint violations.
const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

// PostgreSQLRepository implements repositories.Repository on top of gorm.
type PostgreSQLRepository struct {
	db *gorm.DB

	users    repositories.UserRepository
	posts    repositories.PostRepository
	media    repositories.MediaRepository
	likes    repositories.LikeRepository
	comments repositories.CommentRepository
}

// NewPostgreSQLRepository wires every store to the same connection (or transaction).
func NewPostgreSQLRepository(db *gorm.DB) *PostgreSQLRepository {
	return &PostgreSQLRepository{
		db:       db,
		users:    NewUserPostgreSQL(db),
		posts:    NewPostPostgreSQL(db),
		media:    NewMediaPostgreSQL(db),
		likes:    NewLikePostgreSQL(db),
		comments: NewCommentPostgreSQL(db),
	}
}

func (r *PostgreSQLRepository) Users() repositories.UserRepository       { return r.users }
func (r *PostgreSQLRepository) Posts() repositories.PostRepository       { return r.posts }
func (r *PostgreSQLRepository) Media() repositories.MediaRepository      { return r.media }
func (r *PostgreSQLRepository) Likes() repositories.LikeRepository       { return r.likes }
func (r *PostgreSQLRepository) Comments() repositories.CommentRepository { return r.comments }

// WithTransaction runs fn against repositories bound to a single transaction.
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewPostgreSQLRepository(tx))
	})
}

// Ping checks the underlying connection.
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// translateError maps driver errors to the repository sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repositories.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", repositories.ErrDuplicate, err)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return fmt.Errorf("%w: %v", repositories.ErrNotFound, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%w: %s", repositories.ErrDuplicate, pgErr.ConstraintName)
		case foreignKeyViolation:
			return fmt.Errorf("%w: %s", repositories.ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}

type postCount struct {
	PostID uint
	Count  int64
}

func countsByPost(rows []postCount) map[uint]int64 {
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.PostID] = row.Count
	}
	return counts
}
