package jobs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/tablero-fiscal/tablero/internal/platform/httpx"
)

// Enqueuer submits snapshot refreshes.
type Enqueuer interface {
	EnqueueSnapshotRefresh(ctx context.Context, sources ...string) (*asynq.TaskInfo, error)
}

// QueueInspector reads queue state.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// Handler exposes operator endpoints for the snapshot queue.
type Handler struct {
	inspector QueueInspector
	client    Enqueuer
	logger    *slog.Logger
}

// NewHandler wires the inspector and client. Either may be nil; the matching endpoint then
// answers 503.
func NewHandler(inspector QueueInspector, client Enqueuer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{inspector: inspector, client: client, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
	r.Post("/refresh", h.refresh)
}

type refreshResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		httpx.RespondError(w, httpx.ErrUnavailable)
		return
	}
	info, err := h.client.EnqueueSnapshotRefresh(r.Context(), r.URL.Query()["source"]...)
	switch {
	case errors.Is(err, asynq.ErrDuplicateTask):
		httpx.JSON(w, http.StatusAccepted, refreshResponse{Status: "already_queued"})
	case err != nil:
		h.logger.Error("enqueue snapshot refresh", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "queue unreachable")
	default:
		h.logger.Info("snapshot refresh enqueued", slog.String("task_id", info.ID))
		httpx.JSON(w, http.StatusAccepted, refreshResponse{Status: "queued", ID: info.ID})
	}
}

type queueHealth struct {
	Queue     string `json:"queue"`
	Paused    bool   `json:"paused"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
	Processed int    `json:"processed_today"`
	Failed    int    `json:"failed_today"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if h.inspector == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "queue inspector not configured")
		return
	}
	info, err := h.inspector.GetQueueInfo(QueueSnapshots)
	if err != nil {
		// The queue does not exist until the first task is enqueued.
		if errors.Is(err, asynq.ErrQueueNotFound) {
			httpx.JSON(w, http.StatusOK, queueHealth{Queue: QueueSnapshots})
			return
		}
		h.logger.Warn("jobs health", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "queue unreachable")
		return
	}
	httpx.JSON(w, http.StatusOK, queueHealth{
		Queue:     info.Queue,
		Paused:    info.Paused,
		Pending:   info.Pending,
		Active:    info.Active,
		Retry:     info.Retry,
		Archived:  info.Archived,
		Processed: info.Processed,
		Failed:    info.Failed,
	})
}
