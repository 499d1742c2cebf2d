package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueSnapshots holds snapshot maintenance tasks.
	QueueSnapshots = "snapshots"
	// TaskSnapshotRefresh re-fetches upstream snapshots and invalidates the cache.
	TaskSnapshotRefresh = "snapshot:refresh"
)

// SnapshotRefreshPayload names the sources to refresh. Empty means all.
type SnapshotRefreshPayload struct {
	Sources []string `json:"sources,omitempty"`
}

// NewSnapshotRefreshTask constructs an Asynq task.
func NewSnapshotRefreshTask(sources ...string) (*asynq.Task, error) {
	data, err := json.Marshal(SnapshotRefreshPayload{Sources: sources})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSnapshotRefresh, data), nil
}
