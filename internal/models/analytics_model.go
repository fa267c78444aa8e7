package models

import (
	"encoding/json"
	"time"
)

// PostAnalytics is one snapshot of metrics for a (post, account) pair.
// Records are append-only; every sync produces a new row.
type PostAnalytics struct {
	ID             int64           `db:"id" json:"id"`
	PostID         int64           `db:"post_id" json:"post_id"`
	AccountID      int64           `db:"account_id" json:"account_id"`
	Platform       string          `db:"platform" json:"platform"`
	Likes          int64           `db:"likes" json:"likes"`
	Comments       int64           `db:"comments" json:"comments"`
	Shares         int64           `db:"shares" json:"shares"`
	Clicks         int64           `db:"clicks" json:"clicks"`
	Reach          int64           `db:"reach" json:"reach"`
	Impressions    int64           `db:"impressions" json:"impressions"`
	EngagementRate float64         `db:"engagement_rate" json:"engagement_rate"`
	RawPayload     json.RawMessage `db:"raw_payload" json:"raw_payload"`
	RecordedAt     time.Time       `db:"recorded_at" json:"recorded_at"`
}

// EngagementRate derives the canonical rate from a metric set. It is never
// taken from a caller or a provider payload directly.
func EngagementRate(likes, shares, comments, impressions int64) float64 {
	denom := impressions
	if denom < 1 {
		denom = 1
	}
	return float64(likes+shares+comments) / float64(denom)
}
