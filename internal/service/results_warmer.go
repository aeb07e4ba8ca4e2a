package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-results-api/pkg/jobs"
)

const warmClassJobType = "warm_class_results"

type classResultsWarmer interface {
	WarmClass(ctx context.Context, classID string) error
}

// ResultsWarmer recomputes class rankings in the background after scores change.
type ResultsWarmer struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewResultsWarmer builds the warm-up queue around results. Outcomes are reported to metrics.
func NewResultsWarmer(results classResultsWarmer, metrics *MetricsService, cfg jobs.QueueConfig) *ResultsWarmer {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	cfg.OnDone = func(job jobs.Job, err error) {
		metrics.RecordWarmerJob(err)
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		classID, ok := job.Payload.(string)
		if !ok {
			return fmt.Errorf("unexpected payload %T", job.Payload)
		}
		return results.WarmClass(ctx, classID)
	}
	return &ResultsWarmer{
		queue:  jobs.NewQueue("results-warmer", handler, cfg),
		logger: cfg.Logger,
	}
}

// Start launches the workers.
func (w *ResultsWarmer) Start(ctx context.Context) {
	if w == nil {
		return
	}
	w.queue.Start(ctx)
}

// Stop waits for the workers to exit.
func (w *ResultsWarmer) Stop() {
	if w == nil {
		return
	}
	w.queue.Stop()
}

// Schedule queues a warm-up of classID. Repeated requests for a class still waiting are merged.
func (w *ResultsWarmer) Schedule(classID string) {
	if w == nil || classID == "" {
		return
	}
	err := w.queue.Enqueue(jobs.Job{ID: classID, Type: warmClassJobType, Key: classID, Payload: classID})
	if err != nil {
		w.logger.Warn("results warm-up not scheduled", zap.String("class_id", classID), zap.Error(err))
	}
}

// Stats exposes the queue counters.
func (w *ResultsWarmer) Stats() jobs.Stats {
	if w == nil {
		return jobs.Stats{}
	}
	return w.queue.Stats()
}
