package analysis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
	"github.com/johnquangdev/interview-analyzer/internal/domain/repositories"
	"github.com/johnquangdev/interview-analyzer/pkg/jobcontext"
)

const retryJobType = "analysis_retry"

// Analyzer is the part of Service the retry worker drives
type Analyzer interface {
	Analyze(ctx context.Context, in Input) (*Result, error)
}

// WorkerOptions tunes the retry worker
type WorkerOptions struct {
	Interval    time.Duration
	Concurrency int
	MaxAttempts int
	BatchSize   int
	// JobTimeout bounds one call's retry job, LLM deadline included
	JobTimeout time.Duration
}

// Worker re-runs analyses that ended in a timeout. Calls are claimed atomically so
// several API instances can run the worker side by side.
type Worker struct {
	analyzer Analyzer
	calls    repositories.CallRepository
	opts     WorkerOptions
	logger   *zap.Logger
}

// NewWorker creates the timeout retry worker
func NewWorker(analyzer Analyzer, calls repositories.CallRepository, opts WorkerOptions, logger *zap.Logger) *Worker {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 2
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = opts.Concurrency * 4
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 2 * time.Minute
	}
	return &Worker{analyzer: analyzer, calls: calls, opts: opts, logger: logger}
}

// Start polls until ctx is cancelled
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	if w.logger != nil {
		w.logger.Info("👷 Analysis retry worker started",
			zap.Duration("interval", w.opts.Interval),
			zap.Int("concurrency", w.opts.Concurrency),
			zap.Int("max_attempts", w.opts.MaxAttempts),
		)
	}

	for {
		select {
		case <-ctx.Done():
			if w.logger != nil {
				w.logger.Info("👷 Analysis retry worker stopping")
			}
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil && w.logger != nil && ctx.Err() == nil {
				w.logger.Error("❌ Failed to poll timed-out analyses", zap.Error(err))
			}
		}
	}
}

// RunOnce processes one batch of retryable calls and returns how many it claimed
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	calls, err := w.calls.FindRetryable(ctx, w.opts.MaxAttempts, w.opts.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to find retryable calls: %w", err)
	}
	if len(calls) == 0 {
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.Concurrency)

	claimed := make(chan struct{}, len(calls))
	for i, call := range calls {
		workerID := i % w.opts.Concurrency
		call := call
		g.Go(func() error {
			ok, err := w.calls.ClaimForAnalysis(gctx, call.ID, entities.AnalysisStatusTimeout)
			if err != nil {
				if w.logger != nil {
					w.logger.Error("❌ Failed to claim call",
						zap.String("call_id", call.ID.String()),
						zap.Error(err),
					)
				}
				return nil
			}
			if !ok {
				if w.logger != nil {
					w.logger.Info("⏭️ Call already claimed by another worker",
						zap.String("call_id", call.ID.String()),
					)
				}
				return nil
			}
			claimed <- struct{}{}
			w.process(gctx, call, workerID)
			return nil
		})
	}
	err = g.Wait()
	close(claimed)

	return len(claimed), err
}

func (w *Worker) process(parentCtx context.Context, call *entities.Call, workerID int) {
	if w.logger != nil {
		w.logger.Info("👷 Worker claimed call",
			zap.Int("worker_id", workerID),
			zap.String("call_id", call.ID.String()),
			zap.Int("attempt", call.AnalysisAttempts+1),
		)
	}

	jobCtx, cancel := jobcontext.JobBegin(parentCtx, call.ID, retryJobType, workerID,
		jobcontext.WithTimeout(w.opts.JobTimeout),
	)
	defer cancel()

	var result *Result
	err := jobcontext.JobEnd(jobCtx, func(ctx context.Context) error {
		res, err := w.analyzer.Analyze(ctx, Input{
			CallID: call.ID,
			UserID: call.OwnerID,
			Role:   entities.RoleRecruiter,
		})
		if err != nil {
			// only transport and storage hiccups are worth retrying in-process;
			// a timeout is left for the next poll
			if OutcomeOf(err) != OutcomeInternal {
				return jobcontext.Permanent(err)
			}
			return err
		}
		result = res
		return nil
	})

	if err != nil {
		if w.logger != nil {
			w.logger.Warn("⚠️ Analysis retry failed",
				zap.String("call_id", call.ID.String()),
				zap.String("outcome", OutcomeOf(err).String()),
				zap.Error(err),
			)
		}
		return
	}

	if w.logger != nil {
		w.logger.Info("✅ Analysis retry completed",
			zap.String("call_id", call.ID.String()),
			zap.String("report_id", result.ReportID.String()),
		)
	}
}
