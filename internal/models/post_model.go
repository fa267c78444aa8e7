package models

import (
	"database/sql"
	"time"
)

type Post struct {
	ID            int64          `db:"id" json:"id"`
	UserID        int64          `db:"user_id" json:"user_id"`
	CampaignID    sql.NullInt64  `db:"campaign_id" json:"campaign_id"`
	PostType      string         `db:"post_type" json:"post_type"`
	Content       string         `db:"content" json:"content"`
	MediaURLs     []string       `db:"media_urls" json:"media_urls"`
	Platforms     []string       `db:"platforms" json:"platforms"`
	ScheduledTime time.Time      `db:"scheduled_time" json:"scheduled_time"`
	PublishedTime sql.NullTime   `db:"published_time" json:"published_time"`
	Status        string         `db:"status" json:"status"`
	ErrorMessage  sql.NullString `db:"error_message" json:"error_message"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// PostTarget links a post to one target social account. The provider post id
// and last error are recorded per target, since each remote delivery is an
// independent operation.
type PostTarget struct {
	PostID         int64          `db:"post_id" json:"post_id"`
	AccountID      int64          `db:"account_id" json:"account_id"`
	ProviderPostID sql.NullString `db:"provider_post_id" json:"provider_post_id"`
	LastError      sql.NullString `db:"last_error" json:"last_error"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
	PostStatusCancelled = "cancelled"
)

const (
	PostTypeText     = "text"
	PostTypeImage    = "image"
	PostTypeVideo    = "video"
	PostTypeLink     = "link"
	PostTypeCarousel = "carousel"
)

var postTransitions = map[string][]string{
	PostStatusDraft:     {PostStatusScheduled, PostStatusCancelled},
	PostStatusScheduled: {PostStatusPublished, PostStatusCancelled, PostStatusFailed},
	PostStatusFailed:    {PostStatusScheduled},
}

// CanTransition reports whether a post status change follows a valid edge of
// the lifecycle. Published and cancelled are terminal.
func CanTransition(from, to string) bool {
	for _, next := range postTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsValidPostType(t string) bool {
	switch t {
	case PostTypeText, PostTypeImage, PostTypeVideo, PostTypeLink, PostTypeCarousel:
		return true
	}
	return false
}

func IsTerminalStatus(status string) bool {
	return status == PostStatusPublished || status == PostStatusCancelled
}
