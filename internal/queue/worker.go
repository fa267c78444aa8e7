package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/crossposthq/crosspost/internal/models"
	"github.com/hibiken/asynq"
)

// firstSyncDelay is how long after confirmed publication the first analytics
// pull runs.
const firstSyncDelay = time.Hour

// HandlePublishPostTask runs at a post's scheduled time. The provider
// delivers on its own; this handler confirms at least one target went out and
// flips the post to published. A post cancelled in the meantime is left
// alone.
func (j *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	post, err := j.pr.GetByID(ctx, payload.PostID)
	if err != nil {
		return err
	}
	if post == nil || post.Status != models.PostStatusScheduled {
		return nil
	}
	if post.ScheduledTime.After(time.Now()) {
		// Rescheduled after this task was enqueued; the new task owns it.
		return nil
	}

	targets, err := j.pt.ListByPostID(ctx, post.ID)
	if err != nil {
		return err
	}
	delivered := 0
	for _, t := range targets {
		if t.ProviderPostID.Valid && t.ProviderPostID.String != "" {
			delivered++
		}
	}
	if delivered == 0 {
		slog.Info("publish confirmation found no delivered targets", "post_id", post.ID)
		return j.pr.UpdateStatus(ctx, post.ID, models.PostStatusFailed, "no targets were delivered to the provider")
	}

	if err := j.pr.MarkPublished(ctx, post.ID, post.ScheduledTime); err != nil {
		return err
	}

	if j.tq != nil {
		if err := j.tq.EnqueueAnalyticsSync(post.ID, post.UserID, firstSyncDelay); err != nil {
			slog.Info(err.Error())
		}
	}
	return nil
}

// HandleSyncAnalyticsTask pulls fresh metrics for one post.
func (j *Queue) HandleSyncAnalyticsTask(ctx context.Context, task *asynq.Task) error {
	var payload SyncAnalyticsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	outcome, err := j.as.SyncPost(ctx, payload.UserID, payload.PostID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	slog.Info("analytics sync finished", "post_id", payload.PostID, "records", outcome.Records, "skipped", outcome.Skipped)
	return nil
}
