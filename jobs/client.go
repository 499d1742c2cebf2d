package jobs

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

// Client submits snapshot tasks.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an asynq-backed Client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	return &Client{client: asynq.NewClient(redisOpts)}, nil
}

// EnqueueSnapshotRefresh queues an immediate refresh of sources (all when empty). A second
// request for the same sources within a minute fails with asynq.ErrDuplicateTask.
func (c *Client) EnqueueSnapshotRefresh(ctx context.Context, sources ...string) (*asynq.TaskInfo, error) {
	task, err := NewSnapshotRefreshTask(sources...)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueSnapshots),
		asynq.Unique(time.Minute),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute))
}

// Close releases the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
