package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/carebridge/referral-service/internal/repository"
	"github.com/carebridge/referral-service/internal/service"
	"github.com/carebridge/referral-service/internal/workflow"
)

// give up on a dead letter after this many total attempts
const maxFailureAttempts = 10

// Advancer re-runs a workflow advancement. Satisfied by
// service.WorkflowService.
type Advancer interface {
	Advance(ctx context.Context, referralID string, userID *string) (*service.AdvanceResult, error)
	AdvanceTo(ctx context.Context, referralID string, target workflow.Stage, userID *string) (*service.AdvanceResult, error)
}

// RetryWorker periodically re-runs dead-lettered workflow advancements
// recorded by batch processing.
type RetryWorker struct {
	failures  repository.FailureRepository
	workflows Advancer
	logger    *zap.Logger
	interval  time.Duration
}

// NewRetryWorker constructs the worker.
func NewRetryWorker(failures repository.FailureRepository, workflows Advancer, logger *zap.Logger, interval time.Duration) *RetryWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &RetryWorker{
		failures:  failures,
		workflows: workflows,
		logger:    logger,
		interval:  interval,
	}
}

// Run processes unresolved failures on a ticker until ctx is done.
func (w *RetryWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processOnce(ctx)
		}
	}
}

func (w *RetryWorker) processOnce(ctx context.Context) {
	failures, err := w.failures.ListUnresolved(ctx, 50)
	if err != nil {
		w.logger.Error("listing workflow failures", zap.Error(err))
		return
	}

	for _, failure := range failures {
		if failure.Attempts >= maxFailureAttempts {
			w.logger.Warn("abandoning workflow failure after max attempts",
				zap.String("failure_id", failure.ID),
				zap.String("referral_id", failure.ReferralID),
				zap.Int("attempts", failure.Attempts))
			if err := w.failures.MarkResolved(ctx, failure.ID); err != nil {
				w.logger.Error("marking abandoned failure resolved", zap.Error(err))
			}
			continue
		}

		var result *service.AdvanceResult
		if failure.TargetStage != "" {
			result, err = w.workflows.AdvanceTo(ctx, failure.ReferralID, workflow.Stage(failure.TargetStage), nil)
		} else {
			result, err = w.workflows.Advance(ctx, failure.ReferralID, nil)
		}
		if err != nil {
			if recErr := w.failures.RecordAttempt(ctx, failure.ID, err.Error()); recErr != nil {
				w.logger.Error("recording retry attempt", zap.Error(recErr))
			}
			continue
		}

		// a business rejection also resolves the dead letter: the
		// referral needs operator action, not another retry
		if err := w.failures.MarkResolved(ctx, failure.ID); err != nil {
			w.logger.Error("marking failure resolved", zap.Error(err))
			continue
		}
		w.logger.Info("retried workflow failure",
			zap.String("referral_id", failure.ReferralID),
			zap.Bool("advanced", result.Success))
	}
}
