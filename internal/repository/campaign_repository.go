package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/crossposthq/crosspost/internal/models"
	"github.com/lib/pq"
)

type CampaignRepository interface {
	Create(ctx context.Context, tx *sql.Tx, campaign *models.Campaign) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Campaign, error)
	ListByUserID(ctx context.Context, userID int64, status, campaignType string, limit, offset int) ([]*models.Campaign, error)
	Update(ctx context.Context, campaign *models.Campaign) error
	CheckByUserID(ctx context.Context, campaignID, userID int64) (bool, error)
	Remove(ctx context.Context, id int64) error
}

type campaignRepository struct {
	db *sql.DB
}

func NewCampaignRepository(db *sql.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

const campaignColumns = `id, user_id, name, description, campaign_type, status, start_date, end_date, platforms, goals, created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*models.Campaign, error) {
	var c models.Campaign
	var goals []byte
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.CampaignType, &c.Status,
		&c.StartDate, &c.EndDate, pq.Array(&c.Platforms), &goals, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(goals) > 0 {
		if err := json.Unmarshal(goals, &c.Goals); err != nil {
			slog.Info(err.Error())
		}
	}
	return &c, nil
}

func (r *campaignRepository) Create(ctx context.Context, tx *sql.Tx, campaign *models.Campaign) (int64, error) {
	query := `
		INSERT INTO campaigns (user_id, name, description, campaign_type, status, start_date, end_date, platforms, goals)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	goals, err := json.Marshal(campaign.Goals)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	status := campaign.Status
	if status == "" {
		status = models.CampaignStatusDraft
	}

	var id int64
	args := []any{campaign.UserID, campaign.Name, campaign.Description, campaign.CampaignType,
		status, campaign.StartDate, campaign.EndDate, pq.Array(campaign.Platforms), goals}
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

func (r *campaignRepository) GetByID(ctx context.Context, id int64) (*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	campaign, err := scanCampaign(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return campaign, nil
}

func (r *campaignRepository) ListByUserID(ctx context.Context, userID int64, status, campaignType string, limit, offset int) ([]*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE user_id = $1`
	args := []any{userID}

	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if campaignType != "" {
		args = append(args, campaignType)
		query += fmt.Sprintf(" AND campaign_type = $%d", len(args))
	}

	query += " ORDER BY created_at DESC"
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var campaigns []*models.Campaign
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		campaigns = append(campaigns, campaign)
	}
	return campaigns, nil
}

func (r *campaignRepository) Update(ctx context.Context, campaign *models.Campaign) error {
	query := `
		UPDATE campaigns
		SET name = $1,
			description = $2,
			status = $3,
			start_date = $4,
			end_date = $5,
			platforms = $6,
			goals = $7,
			updated_at = $8
		WHERE id = $9
	`

	goals, err := json.Marshal(campaign.Goals)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	_, err = r.db.ExecContext(ctx, query, campaign.Name, campaign.Description, campaign.Status,
		campaign.StartDate, campaign.EndDate, pq.Array(campaign.Platforms), goals, time.Now(), campaign.ID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *campaignRepository) CheckByUserID(ctx context.Context, campaignID, userID int64) (bool, error) {
	query := "SELECT 1 FROM campaigns WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, campaignID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}
	return result == 1, nil
}

// Remove deletes a campaign. Posts keep existing: the campaign_id foreign
// key is ON DELETE SET NULL.
func (r *campaignRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM campaigns WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
