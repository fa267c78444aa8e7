package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/crossposthq/crosspost/internal/models"
)

type ApiKeyRepository interface {
	Create(ctx context.Context, key *models.ApiKey) (int64, error)
	GetUserIDByHash(ctx context.Context, keyHash string) (int64, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.ApiKey, error)
	Remove(ctx context.Context, id, userID int64) error
}

type apiKeyRepository struct {
	db *sql.DB
}

func NewApiKeyRepository(db *sql.DB) ApiKeyRepository {
	return &apiKeyRepository{db: db}
}

func (r *apiKeyRepository) Create(ctx context.Context, key *models.ApiKey) (int64, error) {
	query := `
		INSERT INTO api_keys (user_id, key_hash, prefix)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, key.UserID, key.KeyHash, key.Prefix).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *apiKeyRepository) GetUserIDByHash(ctx context.Context, keyHash string) (int64, error) {
	query := `SELECT user_id FROM api_keys WHERE key_hash = $1`

	var userID int64
	err := r.db.QueryRowContext(ctx, query, keyHash).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		slog.Info(err.Error())
		return 0, err
	}
	return userID, nil
}

func (r *apiKeyRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.ApiKey, error) {
	query := `SELECT id, user_id, key_hash, prefix, created_at FROM api_keys WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var keys []*models.ApiKey
	for rows.Next() {
		var key models.ApiKey
		err := rows.Scan(&key.ID, &key.UserID, &key.KeyHash, &key.Prefix, &key.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		keys = append(keys, &key)
	}
	return keys, nil
}

func (r *apiKeyRepository) Remove(ctx context.Context, id, userID int64) error {
	query := `DELETE FROM api_keys WHERE id = $1 AND user_id = $2`
	_, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
