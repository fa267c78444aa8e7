package queue

import (
	"github.com/crossposthq/crosspost/internal/repository"
	"github.com/crossposthq/crosspost/internal/service"
)

// Queue owns the asynq task handlers. Delivery itself is delegated to the
// provider at schedule time; the publish task only confirms that the remote
// delivery window has passed and flips the local status.
type Queue struct {
	pr repository.PostRepository
	pt repository.PostTargetRepository
	as service.AnalyticsService
	tq service.TaskEnqueuer
}

func NewQueue(
	pr repository.PostRepository,
	pt repository.PostTargetRepository,
	as service.AnalyticsService,
	tq service.TaskEnqueuer) *Queue {
	return &Queue{
		pr: pr,
		pt: pt,
		as: as,
		tq: tq,
	}
}

const (
	TaskTypePublishPost   = "post:publish"
	TaskTypeSyncAnalytics = "analytics:sync"
)

type PublishPostPayload struct {
	PostID int64 `json:"post_id"`
}

type SyncAnalyticsPayload struct {
	PostID int64 `json:"post_id"`
	UserID int64 `json:"user_id"`
}
