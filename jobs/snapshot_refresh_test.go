package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tablero-fiscal/tablero/internal/dataset"
	jobmetrics "github.com/tablero-fiscal/tablero/internal/jobs"
)

type countingBumper struct {
	bumps int
	err   error
}

func (b *countingBumper) Bump(ctx context.Context) error {
	b.bumps++
	return b.err
}

type brokenProvider struct{}

func (brokenProvider) Fetch(ctx context.Context, source dataset.Source) ([]byte, error) {
	if source == dataset.SourcePersonal {
		return []byte(`{"kpi": [}`), nil
	}
	return []byte(`{"meta":{"available_periods":[],"default_period_id":""},"data":{}}`), nil
}

func newJob(provider dataset.Provider, bumper Bumper) *SnapshotRefreshJob {
	return NewSnapshotRefreshJob(provider, bumper, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
}

func TestSnapshotRefreshBumpsAfterValidation(t *testing.T) {
	bumper := &countingBumper{}
	job := newJob(dataset.NewFileProvider("../internal/dataset/testdata"), bumper)

	task, err := NewSnapshotRefreshTask()
	if err != nil {
		t.Fatalf("task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if bumper.bumps != 1 {
		t.Fatalf("expected one bump, got %d", bumper.bumps)
	}
}

func TestSnapshotRefreshSkipsBumpOnInvalidSnapshot(t *testing.T) {
	bumper := &countingBumper{}
	job := newJob(brokenProvider{}, bumper)

	err := job.Refresh(context.Background(), dataset.Sources)
	var fe *dataset.FetchError
	if !errors.As(err, &fe) || fe.Source != dataset.SourcePersonal {
		t.Fatalf("expected personal FetchError, got %v", err)
	}
	if bumper.bumps != 0 {
		t.Fatalf("cache must not be bumped after a failed validation")
	}
}

func TestSnapshotRefreshRejectsUnknownSource(t *testing.T) {
	job := newJob(dataset.NewFileProvider("../internal/dataset/testdata"), &countingBumper{})
	task, err := NewSnapshotRefreshTask("ventas")
	if err != nil {
		t.Fatalf("task: %v", err)
	}
	err = job.Handle(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}
