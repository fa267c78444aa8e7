package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/crossposthq/crosspost/internal/models"
)

// PostTargetRepository owns the fan-out links between posts and accounts.
// Links are created with the post (or via an explicit retarget before
// scheduling) and carry the per-target provider post id and last error.
type PostTargetRepository interface {
	Create(ctx context.Context, tx *sql.Tx, target *models.PostTarget) error
	ListByPostID(ctx context.Context, postID int64) ([]*models.PostTarget, error)
	SetProviderPostID(ctx context.Context, postID, accountID int64, providerPostID string) error
	SetLastError(ctx context.Context, postID, accountID int64, message string) error
	DeleteByPostID(ctx context.Context, tx *sql.Tx, postID int64) error
}

type postTargetRepository struct {
	db *sql.DB
}

func NewPostTargetRepository(db *sql.DB) PostTargetRepository {
	return &postTargetRepository{db: db}
}

func (r *postTargetRepository) Create(ctx context.Context, tx *sql.Tx, target *models.PostTarget) error {
	query := `
		INSERT INTO post_targets (post_id, account_id)
		VALUES ($1, $2)
		ON CONFLICT (post_id, account_id) DO NOTHING
	`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, target.PostID, target.AccountID)
	} else {
		_, err = r.db.ExecContext(ctx, query, target.PostID, target.AccountID)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postTargetRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PostTarget, error) {
	query := `SELECT post_id, account_id, provider_post_id, last_error, created_at, updated_at
		FROM post_targets WHERE post_id = $1 ORDER BY account_id`
	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var targets []*models.PostTarget
	for rows.Next() {
		var target models.PostTarget
		err := rows.Scan(&target.PostID, &target.AccountID, &target.ProviderPostID,
			&target.LastError, &target.CreatedAt, &target.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		targets = append(targets, &target)
	}
	return targets, nil
}

func (r *postTargetRepository) SetProviderPostID(ctx context.Context, postID, accountID int64, providerPostID string) error {
	query := `
		UPDATE post_targets
		SET provider_post_id = $1,
			last_error = NULL,
			updated_at = $2
		WHERE post_id = $3 AND account_id = $4
	`
	_, err := r.db.ExecContext(ctx, query, providerPostID, time.Now(), postID, accountID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postTargetRepository) SetLastError(ctx context.Context, postID, accountID int64, message string) error {
	query := `
		UPDATE post_targets
		SET last_error = $1,
			updated_at = $2
		WHERE post_id = $3 AND account_id = $4
	`
	_, err := r.db.ExecContext(ctx, query, message, time.Now(), postID, accountID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postTargetRepository) DeleteByPostID(ctx context.Context, tx *sql.Tx, postID int64) error {
	query := `DELETE FROM post_targets WHERE post_id = $1`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, postID)
	} else {
		_, err = r.db.ExecContext(ctx, query, postID)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
