package app

import (
	"context"
	"log"
	"time"
)

// ExportWorker polls for queued export jobs. Multiple workers can run
// against the same database; job claiming uses SKIP LOCKED so they never
// process the same job twice.
type ExportWorker struct {
	svc      *ExportService
	interval time.Duration
	logger   *log.Logger
}

const defaultPollInterval = time.Second

func NewExportWorker(svc *ExportService, logger *log.Logger, opts ...ExportWorkerOption) *ExportWorker {
	w := &ExportWorker{
		svc:      svc,
		interval: defaultPollInterval,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type ExportWorkerOption func(*ExportWorker)

// WithPollInterval overrides how often the worker checks for queued jobs.
func WithPollInterval(d time.Duration) ExportWorkerOption {
	return func(w *ExportWorker) {
		if d > 0 {
			w.interval = d
		}
	}
}

// Run processes jobs until the context is canceled.
func (w *ExportWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExportWorker) sweep(ctx context.Context) {
	if err := w.svc.RequeueStale(ctx); err != nil && ctx.Err() == nil {
		w.logger.Printf("export worker: requeue stale: %v", err)
	}
	for {
		processed, err := w.svc.ProcessNext(ctx)
		if err != nil {
			if ctx.Err() == nil {
				w.logger.Printf("export worker: %v", err)
			}
			return
		}
		if !processed {
			break
		}
	}
	if err := w.svc.Prune(ctx); err != nil && ctx.Err() == nil {
		w.logger.Printf("export worker: prune: %v", err)
	}
}
