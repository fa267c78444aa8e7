package transfer

import (
	"time"

	"github.com/crossposthq/crosspost/internal/models"
)

type PostCreation struct {
	Content       string    `json:"content"`
	PostType      string    `json:"post_type"`
	MediaURLs     []string  `json:"media_urls"`
	Platforms     []string  `json:"platforms"`
	ScheduledTime time.Time `json:"scheduled_time"`
	AccountIDs    []int64   `json:"account_ids"`
	CampaignID    *int64    `json:"campaign_id"`
}

// PostUpdate carries only the fields being changed; nil means unchanged.
type PostUpdate struct {
	Content       *string    `json:"content"`
	PostType      *string    `json:"post_type"`
	MediaURLs     []string   `json:"media_urls"`
	ScheduledTime *time.Time `json:"scheduled_time"`
	CampaignID    *int64     `json:"campaign_id"`
	AccountIDs    []int64    `json:"account_ids"`
}

type PostFilter struct {
	Status     string
	PostType   string
	CampaignID int64
	Start      time.Time
	End        time.Time
	Limit      int
	Offset     int
}

// TargetOutcome is the per-account result of one fan-out delivery attempt.
type TargetOutcome struct {
	AccountID      int64  `json:"account_id"`
	ProfileID      string `json:"profile_id"`
	ProviderPostID string `json:"provider_post_id,omitempty"`
	Error          string `json:"error,omitempty"`
	Accepted       bool   `json:"accepted"`
}

type ScheduleResult struct {
	Post    *models.Post    `json:"post"`
	Targets []TargetOutcome `json:"targets"`
}

const (
	BulkOutcomeSuccess = "success"
	BulkOutcomeFailure = "failure"
	BulkOutcomePending = "pending"
)

// BulkItemOutcome reports one item of a bulk schedule. The outcome list is
// positional and always has exactly one entry per input item.
type BulkItemOutcome struct {
	Index   int             `json:"index"`
	Status  string          `json:"status"`
	PostID  int64           `json:"post_id,omitempty"`
	Error   string          `json:"error,omitempty"`
	Targets []TargetOutcome `json:"targets,omitempty"`
}

type CalendarDay struct {
	Date  string         `json:"date"`
	Posts []*models.Post `json:"posts"`
}
