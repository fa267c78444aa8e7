package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/crossposthq/crosspost/internal/models"
	"github.com/crossposthq/crosspost/internal/transfer"
	"github.com/lib/pq"
)

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	List(ctx context.Context, userID int64, filter transfer.PostFilter) ([]*models.Post, error)
	ListByTimeRange(ctx context.Context, userID int64, start, end time.Time) ([]*models.Post, error)
	ListPublishedSince(ctx context.Context, userID int64, cutoff time.Time) ([]*models.Post, error)
	ListByCampaignID(ctx context.Context, campaignID int64) ([]*models.Post, error)
	UpdateContent(ctx context.Context, post *models.Post) error
	UpdateStatus(ctx context.Context, postID int64, status, errorMessage string) error
	MarkPublished(ctx context.Context, postID int64, publishedAt time.Time) error
	CheckByUserID(ctx context.Context, postID, userID int64) (bool, error)
	Remove(ctx context.Context, id int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, campaign_id, post_type, content, media_urls, platforms, scheduled_time, published_time, status, error_message, created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (*models.Post, error) {
	var post models.Post
	err := row.Scan(&post.ID, &post.UserID, &post.CampaignID, &post.PostType, &post.Content,
		pq.Array(&post.MediaURLs), pq.Array(&post.Platforms), &post.ScheduledTime,
		&post.PublishedTime, &post.Status, &post.ErrorMessage, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (user_id, campaign_id, post_type, content, media_urls, platforms, scheduled_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id int64
	var err error

	args := []any{post.UserID, post.CampaignID, post.PostType, post.Content,
		pq.Array(post.MediaURLs), pq.Array(post.Platforms), post.ScheduledTime, post.Status}

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

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) List(ctx context.Context, userID int64, filter transfer.PostFilter) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1`
	args := []any{userID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.PostType != "" {
		args = append(args, filter.PostType)
		query += fmt.Sprintf(" AND post_type = $%d", len(args))
	}
	if filter.CampaignID != 0 {
		args = append(args, filter.CampaignID)
		query += fmt.Sprintf(" AND campaign_id = $%d", len(args))
	}
	if !filter.Start.IsZero() {
		args = append(args, filter.Start)
		query += fmt.Sprintf(" AND scheduled_time >= $%d", len(args))
	}
	if !filter.End.IsZero() {
		args = append(args, filter.End)
		query += fmt.Sprintf(" AND scheduled_time <= $%d", len(args))
	}

	query += " ORDER BY scheduled_time DESC"

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

	return r.queryPosts(ctx, query, args...)
}

func (r *postRepository) ListByTimeRange(ctx context.Context, userID int64, start, end time.Time) ([]*models.Post, error) {
	// Published posts are placed by their actual publish time; everything
	// else by the requested time. Both endpoints are inclusive.
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE user_id = $1
		AND COALESCE(published_time, scheduled_time) >= $2
		AND COALESCE(published_time, scheduled_time) <= $3
		ORDER BY COALESCE(published_time, scheduled_time) ASC`
	return r.queryPosts(ctx, query, userID, start, end)
}

func (r *postRepository) ListPublishedSince(ctx context.Context, userID int64, cutoff time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE user_id = $1 AND status = $2 AND published_time >= $3
		ORDER BY published_time DESC`
	return r.queryPosts(ctx, query, userID, models.PostStatusPublished, cutoff)
}

func (r *postRepository) ListByCampaignID(ctx context.Context, campaignID int64) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE campaign_id = $1 ORDER BY scheduled_time ASC`
	return r.queryPosts(ctx, query, campaignID)
}

func (r *postRepository) queryPosts(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) UpdateContent(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET content = $1,
			post_type = $2,
			media_urls = $3,
			platforms = $4,
			scheduled_time = $5,
			campaign_id = $6,
			updated_at = $7
		WHERE id = $8
	`
	_, err := r.db.ExecContext(ctx, query, post.Content, post.PostType,
		pq.Array(post.MediaURLs), pq.Array(post.Platforms), post.ScheduledTime,
		post.CampaignID, time.Now(), post.ID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) UpdateStatus(ctx context.Context, postID int64, status, errorMessage string) error {
	query := `
		UPDATE posts
		SET status = $1,
			error_message = NULLIF($2, ''),
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, status, errorMessage, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) MarkPublished(ctx context.Context, postID int64, publishedAt time.Time) error {
	query := `
		UPDATE posts
		SET status = $1,
			published_time = $2,
			error_message = NULL,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusPublished, publishedAt, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	query := "SELECT 1 FROM posts WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *postRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
