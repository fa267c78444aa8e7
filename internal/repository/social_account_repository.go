package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/crossposthq/crosspost/internal/models"
	"github.com/lib/pq"
)

type SocialAccountRepository interface {
	Create(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.SocialAccount, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	ListByIDs(ctx context.Context, userID int64, ids []int64) ([]*models.SocialAccount, error)
	CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	SetPrimary(ctx context.Context, userID, accountID int64) error
	UpsertFromProfile(ctx context.Context, sa *models.SocialAccount) (int64, error)
	Remove(ctx context.Context, id int64) error
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

const accountColumns = `id, user_id, platform, profile_id, account_name, handle, status, is_primary, metadata, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*models.SocialAccount, error) {
	var sa models.SocialAccount
	var metadata []byte
	err := row.Scan(&sa.ID, &sa.UserID, &sa.Platform, &sa.ProfileID, &sa.AccountName,
		&sa.Handle, &sa.Status, &sa.IsPrimary, &metadata, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &sa.Metadata); err != nil {
			slog.Info(err.Error())
		}
	}
	return &sa, nil
}

func (r *socialAccountRepository) Create(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error) {
	query := `
		INSERT INTO social_accounts (user_id, platform, profile_id, account_name, handle, status, is_primary, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	metadata, err := json.Marshal(sa.Metadata)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	status := sa.Status
	if status == "" {
		status = models.AccountStatusActive
	}

	var id int64
	args := []any{sa.UserID, sa.Platform, sa.ProfileID, sa.AccountName, sa.Handle, status, sa.IsPrimary, metadata}
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

func (r *socialAccountRepository) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE id = $1`
	sa, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return sa, nil
}

func (r *socialAccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE user_id = $1 ORDER BY id`
	return r.queryAccounts(ctx, query, userID)
}

func (r *socialAccountRepository) ListByIDs(ctx context.Context, userID int64, ids []int64) ([]*models.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts WHERE user_id = $1 AND id = ANY($2) ORDER BY id`
	return r.queryAccounts(ctx, query, userID, pq.Array(ids))
}

func (r *socialAccountRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]*models.SocialAccount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		sa, err := scanAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, sa)
	}
	return accounts, nil
}

func (r *socialAccountRepository) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	query := "SELECT 1 FROM social_accounts WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, accountID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}
	return result == 1, nil
}

func (r *socialAccountRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE social_accounts SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// SetPrimary marks one account primary and clears the flag on every other
// account the user has for the same (platform, profile id) tuple.
func (r *socialAccountRepository) SetPrimary(ctx context.Context, userID, accountID int64) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer tx.Rollback()

	clearQuery := `
		UPDATE social_accounts SET is_primary = FALSE, updated_at = $1
		WHERE user_id = $2
		AND (platform, profile_id) = (SELECT platform, profile_id FROM social_accounts WHERE id = $3)
	`
	if _, err := tx.ExecContext(ctx, clearQuery, time.Now(), userID, accountID); err != nil {
		slog.Info(err.Error())
		return err
	}

	setQuery := `UPDATE social_accounts SET is_primary = TRUE, updated_at = $1 WHERE id = $2 AND user_id = $3`
	if _, err := tx.ExecContext(ctx, setQuery, time.Now(), accountID, userID); err != nil {
		slog.Info(err.Error())
		return err
	}

	if err := tx.Commit(); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialAccountRepository) UpsertFromProfile(ctx context.Context, sa *models.SocialAccount) (int64, error) {
	query := `
		INSERT INTO social_accounts (user_id, platform, profile_id, account_name, handle, status, is_primary, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)
		ON CONFLICT (user_id, platform, profile_id) DO UPDATE
		SET account_name = EXCLUDED.account_name,
			handle = EXCLUDED.handle,
			status = EXCLUDED.status,
			metadata = EXCLUDED.metadata,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	metadata, err := json.Marshal(sa.Metadata)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	var id int64
	err = r.db.QueryRowContext(ctx, query, sa.UserID, sa.Platform, sa.ProfileID,
		sa.AccountName, sa.Handle, sa.Status, metadata).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *socialAccountRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM social_accounts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
