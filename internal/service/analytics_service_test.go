package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/crossposthq/crosspost/internal/models"
	"github.com/crossposthq/crosspost/internal/provider"
	"github.com/crossposthq/crosspost/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// publishedPost seeds a published post with one delivered and one undelivered
// target. Returns the post id.
func publishedPost(t *testing.T, e *testEnv) int64 {
	t.Helper()
	post := e.createDraft(t, futureTime(), 1, 2)
	require.NoError(t, e.targets.SetProviderPostID(context.Background(), post.ID, 1, "remote-prof-a"))
	require.NoError(t, e.posts.MarkPublished(context.Background(), post.ID, time.Now()))
	return post.ID
}

func TestSyncPostSkipsUndeliveredTargets(t *testing.T) {
	e := newTestEnv(t)
	postID := publishedPost(t, e)

	e.provider.analyticsFn = func(providerPostID string) (*provider.MetricSnapshot, error) {
		assert.Equal(t, "remote-prof-a", providerPostID)
		return &provider.MetricSnapshot{Likes: 40, Shares: 10, Comments: 10, Impressions: 1000, RetrievedAt: time.Now()}, nil
	}

	outcome, err := e.asvc.SyncPost(context.Background(), testUserID, postID)
	require.NoError(t, err)

	assert.Equal(t, transfer.BulkOutcomeSuccess, outcome.Status)
	assert.Equal(t, 1, outcome.Records)
	assert.Equal(t, 1, outcome.Skipped)

	records, err := e.analytics.ListByPostID(context.Background(), postID, transfer.AnalyticsFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(1), records[0].AccountID)
	assert.Equal(t, "twitter", records[0].Platform)
	assert.Equal(t, int64(40), records[0].Likes)

	// The rate is recomputed locally, never taken from the provider payload.
	assert.InDelta(t, 0.06, records[0].EngagementRate, 1e-9)
}

func TestSyncPostForgottenRemotePostIsSkipped(t *testing.T) {
	e := newTestEnv(t)
	postID := publishedPost(t, e)

	e.provider.analyticsFn = func(providerPostID string) (*provider.MetricSnapshot, error) {
		return nil, &provider.Error{Kind: provider.KindNotFound, Message: "post expired"}
	}

	outcome, err := e.asvc.SyncPost(context.Background(), testUserID, postID)
	require.NoError(t, err)
	assert.Equal(t, transfer.BulkOutcomeSuccess, outcome.Status)
	assert.Equal(t, 0, outcome.Records)
	assert.Equal(t, 2, outcome.Skipped)
	assert.Zero(t, e.analytics.recordCount())
}

func TestSyncPostAuthFailureFlagsConfiguration(t *testing.T) {
	e := newTestEnv(t)
	postID := publishedPost(t, e)

	e.provider.analyticsFn = func(providerPostID string) (*provider.MetricSnapshot, error) {
		return nil, &provider.Error{Kind: provider.KindAuthentication, Message: "key revoked"}
	}

	outcome, err := e.asvc.SyncPost(context.Background(), testUserID, postID)
	require.Error(t, err)
	require.NotNil(t, outcome)
	assert.Equal(t, transfer.BulkOutcomeFailure, outcome.Status)
	assert.Contains(t, outcome.Error, "key revoked")
	assert.Equal(t, models.ProviderConfigStatusError, e.configs.status(e.configID))
}

func TestSyncPostOwnership(t *testing.T) {
	e := newTestEnv(t)
	postID := publishedPost(t, e)

	_, err := e.asvc.SyncPost(context.Background(), 99, postID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSyncPostNoDeliveredTargets(t *testing.T) {
	e := newTestEnv(t)
	post := e.createDraft(t, futureTime(), 1)

	outcome, err := e.asvc.SyncPost(context.Background(), testUserID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, transfer.BulkOutcomeSuccess, outcome.Status)
	assert.Equal(t, 0, outcome.Records)
	assert.Equal(t, 1, outcome.Skipped)
	assert.Zero(t, e.provider.createCount())
}

func TestSyncRecentTalliesOutcomes(t *testing.T) {
	e := newTestEnv(t)
	good := publishedPost(t, e)
	bad := publishedPost(t, e)

	// The second post carries a delivered target whose remote analytics call
	// fails hard.
	e.targets.seed(&models.PostTarget{
		PostID:         bad,
		AccountID:      2,
		ProviderPostID: sql.NullString{String: "remote-broken", Valid: true},
	})
	e.provider.analyticsFn = func(providerPostID string) (*provider.MetricSnapshot, error) {
		if providerPostID == "remote-broken" {
			return nil, &provider.Error{Kind: provider.KindPermanent, Message: "corrupt record"}
		}
		return &provider.MetricSnapshot{Likes: 1, Impressions: 10, RetrievedAt: time.Now()}, nil
	}

	report, err := e.asvc.SyncRecent(context.Background(), testUserID, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, 1, report.Synced)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Pending)

	byPost := make(map[int64]transfer.SyncOutcome)
	for _, o := range report.Outcomes {
		byPost[o.PostID] = o
	}
	assert.Equal(t, transfer.BulkOutcomeSuccess, byPost[good].Status)
	assert.Equal(t, transfer.BulkOutcomeFailure, byPost[bad].Status)
}

func TestSyncRecentIgnoresOldPosts(t *testing.T) {
	e := newTestEnv(t)
	stale := publishedPost(t, e)
	require.NoError(t, e.posts.MarkPublished(context.Background(), stale, time.Now().Add(-30*24*time.Hour)))

	report, err := e.asvc.SyncRecent(context.Background(), testUserID, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, report.Outcomes)
}

func TestSummaryUsesWeightedEngagementRate(t *testing.T) {
	e := newTestEnv(t)
	postID := publishedPost(t, e)
	ctx := context.Background()

	// Two records with very different per-record rates. A naive average of
	// 1.0 and ~0.001 would be ~0.5; the weighted rate is dominated by the
	// record with real reach.
	_, err := e.analytics.Create(ctx, &models.PostAnalytics{
		PostID: postID, AccountID: 1, Likes: 1, Impressions: 1,
		EngagementRate: 1.0, RecordedAt: time.Now(),
	})
	require.NoError(t, err)
	_, err = e.analytics.Create(ctx, &models.PostAnalytics{
		PostID: postID, AccountID: 2, Likes: 9, Impressions: 9999,
		EngagementRate: 0.0009, RecordedAt: time.Now(),
	})
	require.NoError(t, err)

	summary, err := e.asvc.SummaryForPost(ctx, testUserID, postID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), summary.TotalRecords)
	assert.Equal(t, int64(10), summary.TotalLikes)
	assert.Equal(t, int64(10000), summary.TotalImpressions)
	assert.InDelta(t, 0.001, summary.EngagementRate, 1e-9)
	assert.InDelta(t, 5.0, summary.AvgLikes, 1e-9)
}

func TestSummaryEmptyTotals(t *testing.T) {
	e := newTestEnv(t)
	postID := publishedPost(t, e)

	summary, err := e.asvc.SummaryForPost(context.Background(), testUserID, postID)
	require.NoError(t, err)
	assert.Zero(t, summary.TotalRecords)
	assert.Zero(t, summary.EngagementRate)
	assert.Zero(t, summary.AvgLikes)
}

func TestSummaryOwnershipChecks(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	_, err := e.asvc.SummaryForPost(ctx, testUserID, 777)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.asvc.SummaryForAccount(ctx, 99, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.asvc.SummaryForCampaign(ctx, testUserID, 777)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSummaryForCampaignAggregatesItsPosts(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	campaignID, err := e.campaigns.Create(ctx, nil, &models.Campaign{UserID: testUserID, Name: "launch"})
	require.NoError(t, err)

	inCampaign, err := e.svc.Create(ctx, testUserID, &transfer.PostCreation{
		Content: "in", ScheduledTime: futureTime(), AccountIDs: []int64{1}, CampaignID: &campaignID,
	})
	require.NoError(t, err)
	outside := e.createDraft(t, futureTime(), 1)

	_, err = e.analytics.Create(ctx, &models.PostAnalytics{PostID: inCampaign.ID, AccountID: 1, Likes: 7, Impressions: 100, RecordedAt: time.Now()})
	require.NoError(t, err)
	_, err = e.analytics.Create(ctx, &models.PostAnalytics{PostID: outside.ID, AccountID: 1, Likes: 500, Impressions: 100, RecordedAt: time.Now()})
	require.NoError(t, err)

	summary, err := e.asvc.SummaryForCampaign(ctx, testUserID, campaignID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.TotalRecords)
	assert.Equal(t, int64(7), summary.TotalLikes)
}

func TestListByPostHonorsTimeFilter(t *testing.T) {
	e := newTestEnv(t)
	postID := publishedPost(t, e)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now().Add(-time.Hour)
	_, err := e.analytics.Create(ctx, &models.PostAnalytics{PostID: postID, AccountID: 1, RecordedAt: old})
	require.NoError(t, err)
	_, err = e.analytics.Create(ctx, &models.PostAnalytics{PostID: postID, AccountID: 1, RecordedAt: recent})
	require.NoError(t, err)

	records, err := e.asvc.ListByPost(ctx, testUserID, postID, transfer.AnalyticsFilter{Start: time.Now().Add(-24 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].RecordedAt.Equal(recent))
}
