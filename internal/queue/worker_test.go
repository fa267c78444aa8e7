package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/crossposthq/crosspost/internal/models"
	"github.com/crossposthq/crosspost/internal/transfer"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPostRepo struct {
	post *models.Post

	publishedAt  *time.Time
	statusUpdate string
	statusError  string
}

func (r *stubPostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	return 0, nil
}

func (r *stubPostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	if r.post == nil || r.post.ID != id {
		return nil, nil
	}
	cp := *r.post
	return &cp, nil
}

func (r *stubPostRepo) List(ctx context.Context, userID int64, filter transfer.PostFilter) ([]*models.Post, error) {
	return nil, nil
}

func (r *stubPostRepo) ListByTimeRange(ctx context.Context, userID int64, start, end time.Time) ([]*models.Post, error) {
	return nil, nil
}

func (r *stubPostRepo) ListPublishedSince(ctx context.Context, userID int64, cutoff time.Time) ([]*models.Post, error) {
	return nil, nil
}

func (r *stubPostRepo) ListByCampaignID(ctx context.Context, campaignID int64) ([]*models.Post, error) {
	return nil, nil
}

func (r *stubPostRepo) UpdateContent(ctx context.Context, post *models.Post) error { return nil }

func (r *stubPostRepo) UpdateStatus(ctx context.Context, postID int64, status, errorMessage string) error {
	r.statusUpdate = status
	r.statusError = errorMessage
	return nil
}

func (r *stubPostRepo) MarkPublished(ctx context.Context, postID int64, publishedAt time.Time) error {
	r.publishedAt = &publishedAt
	return nil
}

func (r *stubPostRepo) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	return false, nil
}

func (r *stubPostRepo) Remove(ctx context.Context, id int64) error { return nil }

type stubTargetRepo struct {
	targets []*models.PostTarget
}

func (r *stubTargetRepo) Create(ctx context.Context, tx *sql.Tx, target *models.PostTarget) error {
	return nil
}

func (r *stubTargetRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.PostTarget, error) {
	return r.targets, nil
}

func (r *stubTargetRepo) SetProviderPostID(ctx context.Context, postID, accountID int64, providerPostID string) error {
	return nil
}

func (r *stubTargetRepo) SetLastError(ctx context.Context, postID, accountID int64, message string) error {
	return nil
}

func (r *stubTargetRepo) DeleteByPostID(ctx context.Context, tx *sql.Tx, postID int64) error {
	return nil
}

type stubAnalytics struct {
	syncedUserID int64
	syncedPostID int64
	err          error
}

func (s *stubAnalytics) SyncPost(ctx context.Context, userID, postID int64) (*transfer.SyncOutcome, error) {
	s.syncedUserID = userID
	s.syncedPostID = postID
	if s.err != nil {
		return &transfer.SyncOutcome{PostID: postID, Status: transfer.BulkOutcomeFailure}, s.err
	}
	return &transfer.SyncOutcome{PostID: postID, Status: transfer.BulkOutcomeSuccess, Records: 1}, nil
}

func (s *stubAnalytics) SyncRecent(ctx context.Context, userID int64, lookback time.Duration) (*transfer.SyncReport, error) {
	return &transfer.SyncReport{}, nil
}

func (s *stubAnalytics) ListByPost(ctx context.Context, userID, postID int64, filter transfer.AnalyticsFilter) ([]*models.PostAnalytics, error) {
	return nil, nil
}

func (s *stubAnalytics) ListByUser(ctx context.Context, userID int64, filter transfer.AnalyticsFilter) ([]*models.PostAnalytics, error) {
	return nil, nil
}

func (s *stubAnalytics) SummaryForPost(ctx context.Context, userID, postID int64) (*transfer.AnalyticsSummary, error) {
	return nil, nil
}

func (s *stubAnalytics) SummaryForAccount(ctx context.Context, userID, accountID int64) (*transfer.AnalyticsSummary, error) {
	return nil, nil
}

func (s *stubAnalytics) SummaryForCampaign(ctx context.Context, userID, campaignID int64) (*transfer.AnalyticsSummary, error) {
	return nil, nil
}

func (s *stubAnalytics) SummaryForUser(ctx context.Context, userID int64, filter transfer.AnalyticsFilter) (*transfer.AnalyticsSummary, error) {
	return nil, nil
}

type stubEnqueuer struct {
	syncPostID int64
	syncUserID int64
	syncDelay  time.Duration
	syncCalls  int
}

func (e *stubEnqueuer) EnqueuePublish(postID int64, at time.Time) error { return nil }

func (e *stubEnqueuer) EnqueueAnalyticsSync(postID, userID int64, delay time.Duration) error {
	e.syncPostID = postID
	e.syncUserID = userID
	e.syncDelay = delay
	e.syncCalls++
	return nil
}

func publishTask(t *testing.T, postID int64) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(PublishPostPayload{PostID: postID})
	require.NoError(t, err)
	return asynq.NewTask(TaskTypePublishPost, payload)
}

func deliveredTarget(postID, accountID int64) *models.PostTarget {
	return &models.PostTarget{
		PostID:         postID,
		AccountID:      accountID,
		ProviderPostID: sql.NullString{String: "remote-1", Valid: true},
	}
}

func TestHandlePublishPostConfirms(t *testing.T) {
	scheduled := time.Now().Add(-time.Minute)
	pr := &stubPostRepo{post: &models.Post{
		ID: 7, UserID: 3, Status: models.PostStatusScheduled, ScheduledTime: scheduled,
	}}
	pt := &stubTargetRepo{targets: []*models.PostTarget{deliveredTarget(7, 1)}}
	tq := &stubEnqueuer{}
	q := NewQueue(pr, pt, &stubAnalytics{}, tq)

	require.NoError(t, q.HandlePublishPostTask(context.Background(), publishTask(t, 7)))

	// The publish time recorded is the scheduled time, when the provider
	// actually delivered, not when the confirmation ran.
	require.NotNil(t, pr.publishedAt)
	assert.True(t, pr.publishedAt.Equal(scheduled))

	assert.Equal(t, 1, tq.syncCalls)
	assert.Equal(t, int64(7), tq.syncPostID)
	assert.Equal(t, int64(3), tq.syncUserID)
	assert.Equal(t, firstSyncDelay, tq.syncDelay)
}

func TestHandlePublishPostMissingPost(t *testing.T) {
	pr := &stubPostRepo{}
	q := NewQueue(pr, &stubTargetRepo{}, &stubAnalytics{}, &stubEnqueuer{})

	require.NoError(t, q.HandlePublishPostTask(context.Background(), publishTask(t, 7)))
	assert.Nil(t, pr.publishedAt)
	assert.Empty(t, pr.statusUpdate)
}

func TestHandlePublishPostLeavesCancelledAlone(t *testing.T) {
	pr := &stubPostRepo{post: &models.Post{
		ID: 7, Status: models.PostStatusCancelled, ScheduledTime: time.Now().Add(-time.Minute),
	}}
	q := NewQueue(pr, &stubTargetRepo{}, &stubAnalytics{}, &stubEnqueuer{})

	require.NoError(t, q.HandlePublishPostTask(context.Background(), publishTask(t, 7)))
	assert.Nil(t, pr.publishedAt)
	assert.Empty(t, pr.statusUpdate)
}

func TestHandlePublishPostSkipsRescheduled(t *testing.T) {
	// The scheduled time moved into the future after this task was enqueued;
	// the task enqueued by the reschedule owns the confirmation.
	pr := &stubPostRepo{post: &models.Post{
		ID: 7, Status: models.PostStatusScheduled, ScheduledTime: time.Now().Add(time.Hour),
	}}
	pt := &stubTargetRepo{targets: []*models.PostTarget{deliveredTarget(7, 1)}}
	tq := &stubEnqueuer{}
	q := NewQueue(pr, pt, &stubAnalytics{}, tq)

	require.NoError(t, q.HandlePublishPostTask(context.Background(), publishTask(t, 7)))
	assert.Nil(t, pr.publishedAt)
	assert.Zero(t, tq.syncCalls)
}

func TestHandlePublishPostNoDeliveredTargets(t *testing.T) {
	pr := &stubPostRepo{post: &models.Post{
		ID: 7, Status: models.PostStatusScheduled, ScheduledTime: time.Now().Add(-time.Minute),
	}}
	pt := &stubTargetRepo{targets: []*models.PostTarget{{PostID: 7, AccountID: 1}}}
	tq := &stubEnqueuer{}
	q := NewQueue(pr, pt, &stubAnalytics{}, tq)

	require.NoError(t, q.HandlePublishPostTask(context.Background(), publishTask(t, 7)))
	assert.Nil(t, pr.publishedAt)
	assert.Equal(t, models.PostStatusFailed, pr.statusUpdate)
	assert.NotEmpty(t, pr.statusError)
	assert.Zero(t, tq.syncCalls)
}

func TestHandleSyncAnalyticsTask(t *testing.T) {
	as := &stubAnalytics{}
	q := NewQueue(&stubPostRepo{}, &stubTargetRepo{}, as, &stubEnqueuer{})

	payload, err := json.Marshal(SyncAnalyticsPayload{PostID: 7, UserID: 3})
	require.NoError(t, err)
	task := asynq.NewTask(TaskTypeSyncAnalytics, payload)

	require.NoError(t, q.HandleSyncAnalyticsTask(context.Background(), task))
	assert.Equal(t, int64(3), as.syncedUserID)
	assert.Equal(t, int64(7), as.syncedPostID)

	as.err = assert.AnError
	assert.Error(t, q.HandleSyncAnalyticsTask(context.Background(), task))
}
