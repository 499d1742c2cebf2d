package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tablero-fiscal/tablero/internal/dataset"
	jobmetrics "github.com/tablero-fiscal/tablero/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Bumper invalidates cached snapshots.
type Bumper interface {
	Bump(ctx context.Context) error
}

// SnapshotRefreshJob validates fresh upstream snapshots and, when every requested source
// decodes, bumps the cache version so the dashboards pick them up.
type SnapshotRefreshJob struct {
	Upstream dataset.Provider
	Cache    Bumper
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewSnapshotRefreshJob wires dependencies for the refresh handler.
func NewSnapshotRefreshJob(upstream dataset.Provider, cache Bumper, logger *slog.Logger, metrics *jobmetrics.Metrics) *SnapshotRefreshJob {
	return &SnapshotRefreshJob{
		Upstream: upstream,
		Cache:    cache,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes snapshot refresh tasks.
func (j *SnapshotRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Upstream == nil {
		return errors.New("snapshot refresh: handler not configured")
	}
	var payload SnapshotRefreshPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	sources, err := parseSources(payload.Sources)
	if err != nil {
		j.logger().Error("snapshot refresh payload", slog.Any("error", err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return j.Refresh(ctx, sources)
}

// Refresh fetches and validates each source, then bumps the cache once.
func (j *SnapshotRefreshJob) Refresh(ctx context.Context, sources []dataset.Source) (resultErr error) {
	tracker := j.metrics().Track(TaskSnapshotRefresh)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	start := j.clock()
	for _, source := range sources {
		fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		raw, err := j.Upstream.Fetch(fetchCtx, source)
		cancel()
		if err != nil {
			logger.Error("snapshot refresh fetch", slog.String("source", string(source)), slog.Any("error", err))
			return err
		}
		ds, err := dataset.DecodeSource(source, raw)
		if err != nil {
			logger.Error("snapshot refresh decode", slog.String("source", string(source)), slog.Any("error", err))
			return &dataset.FetchError{Source: source, Err: err}
		}
		j.metrics().ObserveSnapshot(string(source), len(raw), j.clock())
		logger.Info("snapshot validated",
			slog.String("source", string(source)),
			slog.Int("periods", len(ds.Meta.AvailablePeriods)),
			slog.String("default_period", ds.DefaultPeriod()),
		)
	}
	if j.Cache != nil {
		if err := j.Cache.Bump(ctx); err != nil {
			logger.Error("snapshot cache bump", slog.Any("error", err))
			return err
		}
	}
	logger.Info("completed snapshot refresh", slog.Int("sources", len(sources)), slog.Duration("duration", j.clock().Sub(start)))
	return nil
}

func parseSources(names []string) ([]dataset.Source, error) {
	if len(names) == 0 {
		return dataset.Sources, nil
	}
	out := make([]dataset.Source, 0, len(names))
	for _, name := range names {
		src, err := dataset.ParseSource(name)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

func (j *SnapshotRefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSnapshotRefresh))
	}
	return slog.Default().With(slog.String("job", TaskSnapshotRefresh))
}

func (j *SnapshotRefreshJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
