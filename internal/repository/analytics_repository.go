package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/crossposthq/crosspost/internal/models"
	"github.com/crossposthq/crosspost/internal/transfer"
)

// MetricTotals is a raw sum over analytics records. The weighted engagement
// rate is derived from these sums by the service layer, never averaged.
type MetricTotals struct {
	Records     int64
	Likes       int64
	Comments    int64
	Shares      int64
	Clicks      int64
	Reach       int64
	Impressions int64
}

type AnalyticsRepository interface {
	Create(ctx context.Context, record *models.PostAnalytics) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.PostAnalytics, error)
	ListByPostID(ctx context.Context, postID int64, filter transfer.AnalyticsFilter) ([]*models.PostAnalytics, error)
	ListByUserID(ctx context.Context, userID int64, filter transfer.AnalyticsFilter) ([]*models.PostAnalytics, error)
	TotalsByPostID(ctx context.Context, postID int64) (*MetricTotals, error)
	TotalsByAccountID(ctx context.Context, accountID int64) (*MetricTotals, error)
	TotalsByCampaignID(ctx context.Context, campaignID int64) (*MetricTotals, error)
	TotalsByUserID(ctx context.Context, userID int64, filter transfer.AnalyticsFilter) (*MetricTotals, error)
}

type analyticsRepository struct {
	db *sql.DB
}

func NewAnalyticsRepository(db *sql.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

const analyticsColumns = `id, post_id, account_id, platform, likes, comments, shares, clicks, reach, impressions, engagement_rate, raw_payload, recorded_at`

func scanAnalytics(row interface{ Scan(...any) error }) (*models.PostAnalytics, error) {
	var rec models.PostAnalytics
	err := row.Scan(&rec.ID, &rec.PostID, &rec.AccountID, &rec.Platform, &rec.Likes,
		&rec.Comments, &rec.Shares, &rec.Clicks, &rec.Reach, &rec.Impressions,
		&rec.EngagementRate, &rec.RawPayload, &rec.RecordedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *analyticsRepository) Create(ctx context.Context, record *models.PostAnalytics) (int64, error) {
	query := `
		INSERT INTO post_analytics (post_id, account_id, platform, likes, comments, shares, clicks, reach, impressions, engagement_rate, raw_payload, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, record.PostID, record.AccountID, record.Platform,
		record.Likes, record.Comments, record.Shares, record.Clicks, record.Reach,
		record.Impressions, record.EngagementRate, []byte(record.RawPayload), record.RecordedAt).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *analyticsRepository) GetByID(ctx context.Context, id int64) (*models.PostAnalytics, error) {
	query := `SELECT ` + analyticsColumns + ` FROM post_analytics WHERE id = $1`
	rec, err := scanAnalytics(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return rec, nil
}

func (r *analyticsRepository) ListByPostID(ctx context.Context, postID int64, filter transfer.AnalyticsFilter) ([]*models.PostAnalytics, error) {
	query := `SELECT ` + analyticsColumns + ` FROM post_analytics WHERE post_id = $1`
	args := []any{postID}
	query, args = appendTimeFilter(query, args, filter)
	query += " ORDER BY recorded_at DESC"
	return r.queryRecords(ctx, query, args...)
}

func (r *analyticsRepository) ListByUserID(ctx context.Context, userID int64, filter transfer.AnalyticsFilter) ([]*models.PostAnalytics, error) {
	query := `SELECT a.id, a.post_id, a.account_id, a.platform, a.likes, a.comments, a.shares, a.clicks, a.reach, a.impressions, a.engagement_rate, a.raw_payload, a.recorded_at
		FROM post_analytics a
		JOIN posts p ON p.id = a.post_id
		WHERE p.user_id = $1`
	args := []any{userID}
	query, args = appendTimeFilter(query, args, filter)
	query += " ORDER BY a.recorded_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return r.queryRecords(ctx, query, args...)
}

func appendTimeFilter(query string, args []any, filter transfer.AnalyticsFilter) (string, []any) {
	if !filter.Start.IsZero() {
		args = append(args, filter.Start)
		query += fmt.Sprintf(" AND recorded_at >= $%d", len(args))
	}
	if !filter.End.IsZero() {
		args = append(args, filter.End)
		query += fmt.Sprintf(" AND recorded_at <= $%d", len(args))
	}
	return query, args
}

func (r *analyticsRepository) queryRecords(ctx context.Context, query string, args ...any) ([]*models.PostAnalytics, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var records []*models.PostAnalytics
	for rows.Next() {
		rec, err := scanAnalytics(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return records, nil
}

const totalsSelect = `SELECT COUNT(*),
	COALESCE(SUM(likes), 0), COALESCE(SUM(comments), 0), COALESCE(SUM(shares), 0),
	COALESCE(SUM(clicks), 0), COALESCE(SUM(reach), 0), COALESCE(SUM(impressions), 0)`

func (r *analyticsRepository) TotalsByPostID(ctx context.Context, postID int64) (*MetricTotals, error) {
	query := totalsSelect + ` FROM post_analytics WHERE post_id = $1`
	return r.queryTotals(ctx, query, postID)
}

func (r *analyticsRepository) TotalsByAccountID(ctx context.Context, accountID int64) (*MetricTotals, error) {
	query := totalsSelect + ` FROM post_analytics WHERE account_id = $1`
	return r.queryTotals(ctx, query, accountID)
}

func (r *analyticsRepository) TotalsByCampaignID(ctx context.Context, campaignID int64) (*MetricTotals, error) {
	query := `SELECT COUNT(*),
		COALESCE(SUM(a.likes), 0), COALESCE(SUM(a.comments), 0), COALESCE(SUM(a.shares), 0),
		COALESCE(SUM(a.clicks), 0), COALESCE(SUM(a.reach), 0), COALESCE(SUM(a.impressions), 0)
		FROM post_analytics a
		JOIN posts p ON p.id = a.post_id
		WHERE p.campaign_id = $1`
	return r.queryTotals(ctx, query, campaignID)
}

func (r *analyticsRepository) TotalsByUserID(ctx context.Context, userID int64, filter transfer.AnalyticsFilter) (*MetricTotals, error) {
	query := `SELECT COUNT(*),
		COALESCE(SUM(a.likes), 0), COALESCE(SUM(a.comments), 0), COALESCE(SUM(a.shares), 0),
		COALESCE(SUM(a.clicks), 0), COALESCE(SUM(a.reach), 0), COALESCE(SUM(a.impressions), 0)
		FROM post_analytics a
		JOIN posts p ON p.id = a.post_id
		WHERE p.user_id = $1`
	args := []any{userID}
	if !filter.Start.IsZero() {
		args = append(args, filter.Start)
		query += fmt.Sprintf(" AND a.recorded_at >= $%d", len(args))
	}
	if !filter.End.IsZero() {
		args = append(args, filter.End)
		query += fmt.Sprintf(" AND a.recorded_at <= $%d", len(args))
	}
	return r.queryTotals(ctx, query, args...)
}

func (r *analyticsRepository) queryTotals(ctx context.Context, query string, args ...any) (*MetricTotals, error) {
	var totals MetricTotals
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&totals.Records, &totals.Likes,
		&totals.Comments, &totals.Shares, &totals.Clicks, &totals.Reach, &totals.Impressions)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return &totals, nil
}
