package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Client wraps the asynq client behind the enqueuer interface the services
// depend on.
type Client struct {
	asynq *asynq.Client
}

func NewClient(asynqClient *asynq.Client) *Client {
	return &Client{asynq: asynqClient}
}

// EnqueuePublish schedules the publish confirmation for a post at its
// scheduled time.
func (c *Client) EnqueuePublish(postID int64, at time.Time) error {
	payload, err := json.Marshal(PublishPostPayload{PostID: postID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishPost, payload)
	_, err = c.asynq.Enqueue(task, asynq.ProcessAt(at), asynq.MaxRetry(3))
	return err
}

// EnqueueAnalyticsSync schedules a metrics pull for a post after a delay.
func (c *Client) EnqueueAnalyticsSync(postID, userID int64, delay time.Duration) error {
	payload, err := json.Marshal(SyncAnalyticsPayload{PostID: postID, UserID: userID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeSyncAnalytics, payload)
	_, err = c.asynq.Enqueue(task, asynq.ProcessIn(delay), asynq.MaxRetry(3))
	return err
}
