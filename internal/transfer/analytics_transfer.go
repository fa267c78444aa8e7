package transfer

import "time"

// SyncOutcome is the per-post result of a bulk analytics sync.
type SyncOutcome struct {
	PostID  int64  `json:"post_id"`
	Status  string `json:"status"`
	Records int    `json:"records"`
	Skipped int    `json:"skipped"`
	Error   string `json:"error,omitempty"`
}

type SyncReport struct {
	Synced   int           `json:"synced"`
	Failed   int           `json:"failed"`
	Pending  int           `json:"pending"`
	Outcomes []SyncOutcome `json:"outcomes"`
}

// AnalyticsSummary aggregates analytics records for a post, account,
// campaign, or owner. The engagement rate is weighted: computed from the
// summed numerator and denominator, never averaged per-record rates.
type AnalyticsSummary struct {
	TotalRecords       int64   `json:"total_records"`
	TotalLikes         int64   `json:"total_likes"`
	TotalComments      int64   `json:"total_comments"`
	TotalShares        int64   `json:"total_shares"`
	TotalClicks        int64   `json:"total_clicks"`
	TotalReach         int64   `json:"total_reach"`
	TotalImpressions   int64   `json:"total_impressions"`
	AvgLikes           float64 `json:"avg_likes"`
	AvgImpressions     float64 `json:"avg_impressions"`
	EngagementRate     float64 `json:"engagement_rate"`
}

type AnalyticsFilter struct {
	Start  time.Time
	End    time.Time
	Limit  int
	Offset int
}
