package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hibiken/asynq"

	"github.com/tablero-fiscal/tablero/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    jobs.Enqueuer
	inspector jobs.QueueInspector
}

// NewJobsCLI wires the enqueuer and inspector. Either may be nil.
func NewJobsCLI(client jobs.Enqueuer, inspector jobs.QueueInspector) *JobsCLI {
	return &JobsCLI{client: client, inspector: inspector}
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// RefreshCommand enqueues a snapshot refresh for sources, or all of them when empty.
func (c *JobsCLI) RefreshCommand(ctx context.Context, sources []string, stdout, stderr io.Writer) int {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	if c == nil || c.client == nil {
		_, _ = fmt.Fprintln(stderr, "jobs refresh: client not configured")
		return 1
	}
	info, err := c.client.EnqueueSnapshotRefresh(ctx, sources...)
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			_, _ = fmt.Fprintln(stdout, "a refresh is already queued")
			return 0
		}
		_, _ = fmt.Fprintf(stderr, "jobs refresh: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "enqueued %s on %s (id %s)\n", info.Type, info.Queue, info.ID)
	return 0
}

// InspectQueue reports the metrics of the snapshots queue. A queue that was never
// written to reports zero counts.
func (c *JobsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	stats := QueueStats{Queue: jobs.QueueSnapshots}
	info, err := c.inspector.GetQueueInfo(jobs.QueueSnapshots)
	if errors.Is(err, asynq.ErrQueueNotFound) {
		return stats, nil
	}
	if err != nil {
		return QueueStats{}, err
	}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
	}
	return stats, nil
}

// StatsCommand prints the snapshots queue state.
func (c *JobsCLI) StatsCommand(ctx context.Context, stdout, stderr io.Writer) int {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	stats, err := c.InspectQueue(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "jobs stats: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
		stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	return 0
}
