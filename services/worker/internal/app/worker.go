// Package app runs verse-generation jobs consumed from the broker.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"palavraviva/pkg/generation"
	"palavraviva/pkg/queue"
)

// Tracker records job state transitions for API-side polling.
type Tracker interface {
	SetProcessing(ctx context.Context, jobID string) error
	SetDone(ctx context.Context, jobID string, generated int, complete bool) error
	SetFailed(ctx context.Context, jobID, errMsg string) error
}

// Worker executes generation jobs and reports their status.
type Worker struct {
	generator *generation.Service
	tracker   Tracker
	logger    *slog.Logger
}

// New builds a worker around the shared generation service.
func New(generator *generation.Service, tracker Tracker, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{generator: generator, tracker: tracker, logger: logger}
}

// HandleJob runs one job end to end. A partial batch still counts as
// done; only a job that produced nothing is marked failed.
func (w *Worker) HandleJob(ctx context.Context, job queue.GenerationJob) error {
	w.logger.Info("generation job started",
		"job_id", job.ID,
		"count", job.Count,
		"requested_by", job.RequestedBy,
	)
	if err := w.tracker.SetProcessing(ctx, job.ID); err != nil {
		w.logger.Warn("track processing", "job_id", job.ID, "error", err)
	}

	batch, err := w.generator.Append(ctx, job.Count)
	if err != nil && len(batch.Verses) == 0 {
		if trackErr := w.tracker.SetFailed(ctx, job.ID, err.Error()); trackErr != nil {
			w.logger.Warn("track failure", "job_id", job.ID, "error", trackErr)
		}
		return fmt.Errorf("run generation job: %w", err)
	}

	if trackErr := w.tracker.SetDone(ctx, job.ID, len(batch.Verses), batch.Complete); trackErr != nil {
		w.logger.Warn("track completion", "job_id", job.ID, "error", trackErr)
	}
	w.logger.Info("generation job finished",
		"job_id", job.ID,
		"generated", len(batch.Verses),
		"complete", batch.Complete,
	)
	return nil
}
