package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/crossposthq/crosspost/internal/models"
)

type ProviderConfigRepository interface {
	Create(ctx context.Context, tx *sql.Tx, cfg *models.ProviderConfig) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.ProviderConfig, error)
	GetByUserAndVariant(ctx context.Context, userID int64, variant string) (*models.ProviderConfig, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.ProviderConfig, error)
	ListActive(ctx context.Context) ([]*models.ProviderConfig, error)
	UpdateCredentials(ctx context.Context, id int64, apiKey, accessToken string) error
	SetStatus(ctx context.Context, id int64, status string) error
	CheckByUserID(ctx context.Context, configID, userID int64) (bool, error)
	Remove(ctx context.Context, id int64) error
}

type providerConfigRepository struct {
	db *sql.DB
}

func NewProviderConfigRepository(db *sql.DB) ProviderConfigRepository {
	return &providerConfigRepository{db: db}
}

const providerConfigColumns = `id, user_id, variant, api_key, access_token, status, created_at, updated_at`

func scanProviderConfig(row interface{ Scan(...any) error }) (*models.ProviderConfig, error) {
	var cfg models.ProviderConfig
	err := row.Scan(&cfg.ID, &cfg.UserID, &cfg.Variant, &cfg.APIKey, &cfg.AccessToken,
		&cfg.Status, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Create inserts a configuration. The unique (user_id, variant) index keeps
// one active configuration per owner and variant.
func (r *providerConfigRepository) Create(ctx context.Context, tx *sql.Tx, cfg *models.ProviderConfig) (int64, error) {
	query := `
		INSERT INTO provider_configs (user_id, variant, api_key, access_token, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, variant) DO UPDATE
		SET api_key = EXCLUDED.api_key,
			access_token = EXCLUDED.access_token,
			status = EXCLUDED.status,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	status := cfg.Status
	if status == "" {
		status = models.ProviderConfigStatusActive
	}

	var id int64
	var err error
	args := []any{cfg.UserID, cfg.Variant, cfg.APIKey, cfg.AccessToken, status}
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *providerConfigRepository) GetByID(ctx context.Context, id int64) (*models.ProviderConfig, error) {
	query := `SELECT ` + providerConfigColumns + ` FROM provider_configs WHERE id = $1`
	cfg, err := scanProviderConfig(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return cfg, nil
}

func (r *providerConfigRepository) GetByUserAndVariant(ctx context.Context, userID int64, variant string) (*models.ProviderConfig, error) {
	query := `SELECT ` + providerConfigColumns + ` FROM provider_configs WHERE user_id = $1 AND variant = $2`
	cfg, err := scanProviderConfig(r.db.QueryRowContext(ctx, query, userID, variant))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return cfg, nil
}

func (r *providerConfigRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.ProviderConfig, error) {
	query := `SELECT ` + providerConfigColumns + ` FROM provider_configs WHERE user_id = $1 ORDER BY id`
	return r.queryConfigs(ctx, query, userID)
}

func (r *providerConfigRepository) ListActive(ctx context.Context) ([]*models.ProviderConfig, error) {
	query := `SELECT ` + providerConfigColumns + ` FROM provider_configs WHERE status = $1 ORDER BY id`
	return r.queryConfigs(ctx, query, models.ProviderConfigStatusActive)
}

func (r *providerConfigRepository) queryConfigs(ctx context.Context, query string, args ...any) ([]*models.ProviderConfig, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var configs []*models.ProviderConfig
	for rows.Next() {
		cfg, err := scanProviderConfig(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func (r *providerConfigRepository) UpdateCredentials(ctx context.Context, id int64, apiKey, accessToken string) error {
	query := `
		UPDATE provider_configs
		SET api_key = COALESCE(NULLIF($1, ''), api_key),
			access_token = COALESCE(NULLIF($2, ''), access_token),
			status = $3,
			updated_at = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, apiKey, accessToken, models.ProviderConfigStatusActive, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *providerConfigRepository) SetStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE provider_configs SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *providerConfigRepository) CheckByUserID(ctx context.Context, configID, userID int64) (bool, error) {
	query := "SELECT 1 FROM provider_configs WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, configID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}
	return result == 1, nil
}

func (r *providerConfigRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM provider_configs WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
