package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/carebridge/referral-service/internal/cache"
	"github.com/carebridge/referral-service/internal/domain"
	"github.com/carebridge/referral-service/internal/events"
	"github.com/carebridge/referral-service/internal/observability"
	"github.com/carebridge/referral-service/internal/repository"
	"github.com/carebridge/referral-service/internal/workflow"
	apperrors "github.com/carebridge/referral-service/pkg/util"
)

// AdvanceResult reports one advancement attempt. A validation failure
// is a result, not an error: Success is false and the referral is
// untouched.
type AdvanceResult struct {
	Success             bool                       `json:"success"`
	ReferralID          string                     `json:"referral_id"`
	PreviousStage       workflow.Stage             `json:"previous_stage"`
	CurrentStage        workflow.Stage             `json:"current_stage"`
	Message             string                     `json:"message,omitempty"`
	RequiredActions     []string                   `json:"required_actions,omitempty"`
	Automation          workflow.AutomationOutcome `json:"automation"`
	NextRecommendations []string                   `json:"next_recommendations,omitempty"`
	ProcessingTimeMS    int64                      `json:"processing_time_ms"`
}

// BatchItemResult is the per-referral outcome of a batch run.
type BatchItemResult struct {
	ReferralID   string         `json:"referral_id"`
	Success      bool           `json:"success"`
	CurrentStage workflow.Stage `json:"current_stage,omitempty"`
	Message      string         `json:"message,omitempty"`
	Attempts     int            `json:"attempts"`
	DeadLettered bool           `json:"dead_lettered,omitempty"`
}

// BatchResult aggregates a batch advancement.
type BatchResult struct {
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Rounds    int               `json:"rounds"`
	Items     []BatchItemResult `json:"items"`
}

// AgreementResult reports standalone agreement generation.
type AgreementResult struct {
	ReferralID  string  `json:"referral_id"`
	AgreementID string  `json:"agreement_id"`
	MonthlyCost float64 `json:"monthly_cost"`
	AnnualCost  float64 `json:"annual_cost"`
	Summary     string  `json:"summary"`
}

// WorkflowAnalytics summarizes pipeline activity for a timeframe.
type WorkflowAnalytics struct {
	Since           time.Time                     `json:"since"`
	Transitions     []repository.StageCount       `json:"transitions"`
	Rejections      int                           `json:"rejections"`
	Completed       int                           `json:"completed"`
	PipelineByStage map[string]int                `json:"pipeline_by_stage"`
	StageTimings    []observability.StageSnapshot `json:"stage_timings"`
}

// WorkflowTuning carries orchestrator knobs from config.
type WorkflowTuning struct {
	BatchSize        int
	MaxRetries       int
	RetryBaseBackoff time.Duration
}

// WorkflowDependencies bundles collaborators for the orchestrator.
type WorkflowDependencies struct {
	ReferralRepo repository.ReferralRepository
	FailureRepo  repository.FailureRepository
	AuditRepo    repository.AuditRepository
	UnitOfWork   repository.UnitOfWork
	Validator    *workflow.RuleValidator
	Executor     *workflow.Executor
	Lock         *cache.AdvanceLock
	Dispatcher   events.Dispatcher
	Monitor      *observability.StageMonitor
	Logger       *zap.Logger
	Tuning       WorkflowTuning
}

// WorkflowService drives referrals through the onboarding stages:
// route, validate, automate, persist and audit in one transaction.
type WorkflowService struct {
	referrals  repository.ReferralRepository
	failures   repository.FailureRepository
	audit      repository.AuditRepository
	uow        repository.UnitOfWork
	validator  *workflow.RuleValidator
	executor   *workflow.Executor
	lock       *cache.AdvanceLock
	dispatcher events.Dispatcher
	monitor    *observability.StageMonitor
	logger     *zap.Logger
	tuning     WorkflowTuning
	sleep      func(context.Context, time.Duration) error
}

// NewWorkflowService constructs the orchestrator.
func NewWorkflowService(deps WorkflowDependencies) *WorkflowService {
	tuning := deps.Tuning
	if tuning.BatchSize <= 0 {
		tuning.BatchSize = 10
	}
	if tuning.MaxRetries <= 0 {
		tuning.MaxRetries = 3
	}
	if tuning.RetryBaseBackoff <= 0 {
		tuning.RetryBaseBackoff = 100 * time.Millisecond
	}
	return &WorkflowService{
		referrals:  deps.ReferralRepo,
		failures:   deps.FailureRepo,
		audit:      deps.AuditRepo,
		uow:        deps.UnitOfWork,
		validator:  deps.Validator,
		executor:   deps.Executor,
		lock:       deps.Lock,
		dispatcher: deps.Dispatcher,
		monitor:    deps.Monitor,
		logger:     deps.Logger,
		tuning:     tuning,
		sleep:      sleepCtx,
	}
}

// Advance moves a referral to its next workflow stage.
func (s *WorkflowService) Advance(ctx context.Context, referralID string, userID *string) (*AdvanceResult, error) {
	return s.advance(ctx, referralID, "", userID, domain.AuditActionStageAdvanced)
}

// AdvanceTo moves a referral to an explicit target stage, used by batch
// callers that know where each referral should land.
func (s *WorkflowService) AdvanceTo(ctx context.Context, referralID string, target workflow.Stage, userID *string) (*AdvanceResult, error) {
	if target != "" && !target.IsValid() {
		return nil, apperrors.NewValidationError("unknown target stage", map[string]any{"target_stage": string(target)})
	}
	return s.advance(ctx, referralID, target, userID, domain.AuditActionStageAdvanced)
}

func (s *WorkflowService) advance(ctx context.Context, referralID string, explicit workflow.Stage, userID *string, action domain.AuditAction) (*AdvanceResult, error) {
	start := time.Now()

	referral, err := s.referrals.GetByID(ctx, referralID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("referral", map[string]any{"referral_id": referralID})
		}
		return nil, apperrors.MapError(err)
	}

	current := workflow.Stage(referral.WorkflowStatus)
	target := explicit
	if target == "" {
		next, ok := workflow.NextStage(current, workflow.RouteContext{
			UrgencyLevel: referral.UrgencyLevel,
			ServiceType:  referral.ServiceType,
		})
		if !ok {
			return &AdvanceResult{
				Success:          false,
				ReferralID:       referralID,
				PreviousStage:    current,
				CurrentStage:     current,
				Message:          "no further automatic progression",
				ProcessingTimeMS: time.Since(start).Milliseconds(),
			}, nil
		}
		target = next
	}

	validation, err := s.validator.Validate(ctx, referral, target)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !validation.Valid {
		s.recordRejection(ctx, referral, current, target, userID, validation)
		return &AdvanceResult{
			Success:          false,
			ReferralID:       referralID,
			PreviousStage:    current,
			CurrentStage:     current,
			Message:          validation.Reason,
			RequiredActions:  validation.RequiredActions,
			ProcessingTimeMS: time.Since(start).Milliseconds(),
		}, nil
	}

	token, acquired := s.lock.Acquire(ctx, referralID)
	if !acquired {
		return nil, apperrors.NewConflict("advancement already in progress", map[string]any{"referral_id": referralID})
	}
	defer s.lock.Release(ctx, referralID, token)

	var outcome workflow.AutomationOutcome
	err = s.uow.WithinTx(ctx, func(tx repository.TxRepos) error {
		var execErr error
		outcome, execErr = s.executor.Execute(ctx, tx, referral, target)
		if execErr != nil {
			return execErr
		}
		if err := tx.Referrals.UpdateStage(ctx, referral.ID, target.String(), referral.Version); err != nil {
			return err
		}
		return tx.Audit.Append(ctx, &domain.WorkflowAuditEntry{
			EntityType: "referral",
			EntityID:   referral.ID,
			Action:     action,
			UserID:     userID,
			FromStage:  current.String(),
			ToStage:    target.String(),
			Details: map[string]any{
				"summary":           outcome.Summary,
				"actions_performed": outcome.ActionsPerformed,
			},
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, apperrors.NewConflict("referral was modified concurrently", map[string]any{"referral_id": referralID})
		}
		return nil, apperrors.MapError(err)
	}

	elapsed := time.Since(start)
	if s.monitor != nil {
		s.monitor.Record(ctx, target, elapsed)
	}
	s.publishAdvanced(ctx, referral.ID, userID, current, target, outcome)

	referral.WorkflowStatus = target.String()
	return &AdvanceResult{
		Success:             true,
		ReferralID:          referralID,
		PreviousStage:       current,
		CurrentStage:        target,
		Automation:          outcome,
		NextRecommendations: s.recommendations(ctx, referral, target),
		ProcessingTimeMS:    elapsed.Milliseconds(),
	}, nil
}

type batchItem struct {
	referralID string
	target     workflow.Stage
}

// AdvanceBatch advances many referrals, processed in rounds of the
// configured batch size with per-item bounded retry. Items that
// exhaust their retries are dead-lettered for the retry worker;
// completion order within a round is unspecified.
func (s *WorkflowService) AdvanceBatch(ctx context.Context, referralIDs []string, targetStages []string, userID *string) (*BatchResult, error) {
	if len(referralIDs) == 0 {
		return nil, apperrors.NewValidationError("referral_ids required", nil)
	}
	if len(targetStages) > 0 && len(targetStages) != len(referralIDs) {
		return nil, apperrors.NewValidationError("target_stages must match referral_ids length", nil)
	}

	items := make([]batchItem, len(referralIDs))
	for i, id := range referralIDs {
		items[i] = batchItem{referralID: id}
		if len(targetStages) > 0 {
			target := workflow.Stage(targetStages[i])
			if target != "" && !target.IsValid() {
				return nil, apperrors.NewValidationError("unknown target stage", map[string]any{
					"target_stage": targetStages[i],
					"referral_id":  id,
				})
			}
			items[i].target = target
		}
	}

	result := &BatchResult{
		Total: len(items),
		Items: make([]BatchItemResult, len(items)),
	}

	// one prefetch surfaces unknown ids before any workers start
	known, err := s.referrals.GetByIDs(ctx, referralIDs)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	exists := make(map[string]bool, len(known))
	for _, ref := range known {
		exists[ref.ID] = true
	}
	pending := make([]int, 0, len(items))
	for i, item := range items {
		if !exists[item.referralID] {
			result.Items[i] = BatchItemResult{ReferralID: item.referralID, Message: "referral not found"}
			continue
		}
		pending = append(pending, i)
	}

	for offset := 0; offset < len(pending); offset += s.tuning.BatchSize {
		end := offset + s.tuning.BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		result.Rounds++

		group, groupCtx := errgroup.WithContext(ctx)
		for _, i := range pending[offset:end] {
			i := i
			group.Go(func() error {
				result.Items[i] = s.advanceWithRetry(groupCtx, items[i], userID)
				return nil
			})
		}
		// workers never return errors; Wait only propagates ctx cancellation
		if err := group.Wait(); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	for _, item := range result.Items {
		if item.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	s.publishBatchCompleted(ctx, result)
	return result, nil
}

// advanceWithRetry retries transient advancement errors with
// exponential backoff. Business rejections (validation failures, no
// next stage) are final on the first attempt.
func (s *WorkflowService) advanceWithRetry(ctx context.Context, item batchItem, userID *string) BatchItemResult {
	out := BatchItemResult{ReferralID: item.referralID}
	var lastErr error

	for attempt := 0; attempt < s.tuning.MaxRetries; attempt++ {
		out.Attempts = attempt + 1
		if attempt > 0 {
			if err := s.sleep(ctx, s.tuning.RetryBaseBackoff<<(attempt-1)); err != nil {
				lastErr = err
				break
			}
		}

		var res *AdvanceResult
		var err error
		if item.target != "" {
			res, err = s.advance(ctx, item.referralID, item.target, userID, domain.AuditActionBatchAdvanced)
		} else {
			res, err = s.advance(ctx, item.referralID, "", userID, domain.AuditActionBatchAdvanced)
		}
		if err == nil {
			out.Success = res.Success
			out.CurrentStage = res.CurrentStage
			out.Message = res.Message
			return out
		}

		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) && domainErr.HTTPStatus < 500 {
			// not-found/conflict/validation will not heal on retry
			out.Message = domainErr.Message
			return out
		}
		lastErr = err
		s.logger.Warn("batch advancement attempt failed",
			zap.String("referral_id", item.referralID),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	out.Message = "advancement failed after retries"
	if lastErr != nil {
		out.Message = lastErr.Error()
	}
	out.DeadLettered = s.deadLetter(ctx, item, out.Attempts, lastErr)
	return out
}

func (s *WorkflowService) deadLetter(ctx context.Context, item batchItem, attempts int, cause error) bool {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	failure := &domain.WorkflowFailure{
		ReferralID:  item.referralID,
		TargetStage: item.target.String(),
		Attempts:    attempts,
		LastError:   msg,
	}
	if err := s.failures.Create(ctx, failure); err != nil {
		s.logger.Error("failed to record workflow failure",
			zap.String("referral_id", item.referralID),
			zap.Error(err))
		return false
	}
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:         uuid.NewString(),
			Type:       events.EventFailureRecorded,
			ReferralID: item.referralID,
			Timestamp:  time.Now(),
			Payload: events.FailureRecordedPayload{
				TargetStage: item.target,
				Attempts:    attempts,
				LastError:   msg,
			},
		})
	}
	return true
}

// GenerateServiceAgreement drafts an agreement for a referral without
// advancing its stage.
func (s *WorkflowService) GenerateServiceAgreement(ctx context.Context, referralID string) (*AgreementResult, error) {
	referral, err := s.referrals.GetByID(ctx, referralID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("referral", map[string]any{"referral_id": referralID})
		}
		return nil, apperrors.MapError(err)
	}

	validation, err := s.validator.Validate(ctx, referral, workflow.StageAgreementPrepared)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !validation.Valid {
		return nil, apperrors.NewValidationError(validation.Reason, map[string]any{
			"required_actions": validation.RequiredActions,
		})
	}

	var outcome workflow.AutomationOutcome
	err = s.uow.WithinTx(ctx, func(tx repository.TxRepos) error {
		var execErr error
		outcome, execErr = s.executor.Execute(ctx, tx, referral, workflow.StageAgreementPrepared)
		return execErr
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:         uuid.NewString(),
			Type:       events.EventAgreementGenerated,
			ReferralID: referral.ID,
			Timestamp:  time.Now(),
			Payload: events.AgreementGeneratedPayload{
				AgreementID: outcome.AgreementID,
				MonthlyCost: outcome.MonthlyCost,
				AnnualCost:  outcome.AnnualCost,
			},
		})
	}

	return &AgreementResult{
		ReferralID:  referralID,
		AgreementID: outcome.AgreementID,
		MonthlyCost: outcome.MonthlyCost,
		AnnualCost:  outcome.AnnualCost,
		Summary:     outcome.Summary,
	}, nil
}

// Analytics summarizes workflow activity since the given time.
func (s *WorkflowService) Analytics(ctx context.Context, since time.Time) (*WorkflowAnalytics, error) {
	transitions, err := s.audit.CountByToStage(ctx, since)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	rejections, err := s.audit.CountByAction(ctx, domain.AuditActionAdvanceRejected, since)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	pipeline, err := s.referrals.CountByStage(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	completed := 0
	for _, t := range transitions {
		if t.Stage == workflow.StageServiceCommenced.String() {
			completed = t.Count
		}
	}

	analytics := &WorkflowAnalytics{
		Since:           since,
		Transitions:     transitions,
		Rejections:      rejections,
		Completed:       completed,
		PipelineByStage: pipeline,
	}
	if s.monitor != nil {
		analytics.StageTimings = s.monitor.Snapshot()
	}
	return analytics, nil
}

// recommendations previews what the referral needs for its next hop.
func (s *WorkflowService) recommendations(ctx context.Context, referral *domain.Referral, current workflow.Stage) []string {
	next, ok := workflow.NextStage(current, workflow.RouteContext{
		UrgencyLevel: referral.UrgencyLevel,
		ServiceType:  referral.ServiceType,
	})
	if !ok {
		return []string{"onboarding complete"}
	}
	recs := []string{fmt.Sprintf("next stage: %s", next)}
	validation, err := s.validator.Validate(ctx, referral, next)
	if err == nil && !validation.Valid {
		recs = append(recs, validation.RequiredActions...)
	}
	return recs
}

func (s *WorkflowService) recordRejection(ctx context.Context, referral *domain.Referral, current, target workflow.Stage, userID *string, validation workflow.ValidationResult) {
	entry := &domain.WorkflowAuditEntry{
		EntityType: "referral",
		EntityID:   referral.ID,
		Action:     domain.AuditActionAdvanceRejected,
		UserID:     userID,
		FromStage:  current.String(),
		ToStage:    target.String(),
		Details: map[string]any{
			"reason":           validation.Reason,
			"required_actions": validation.RequiredActions,
		},
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to audit rejected advancement",
			zap.String("referral_id", referral.ID),
			zap.Error(err))
	}
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:         uuid.NewString(),
			Type:       events.EventAdvanceRejected,
			ReferralID: referral.ID,
			UserID:     userID,
			Timestamp:  time.Now(),
			Payload: events.AdvanceRejectedPayload{
				TargetStage:     target,
				Reason:          validation.Reason,
				RequiredActions: validation.RequiredActions,
			},
		})
	}
}

func (s *WorkflowService) publishAdvanced(ctx context.Context, referralID string, userID *string, from, to workflow.Stage, outcome workflow.AutomationOutcome) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:         uuid.NewString(),
		Type:       events.EventReferralStageChanged,
		ReferralID: referralID,
		UserID:     userID,
		Timestamp:  time.Now(),
		Payload: events.StageChangedPayload{
			FromStage: from,
			ToStage:   to,
			Automated: len(outcome.ActionsPerformed) > 0,
		},
	})
	if outcome.AgreementID != "" {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:         uuid.NewString(),
			Type:       events.EventAgreementGenerated,
			ReferralID: referralID,
			UserID:     userID,
			Timestamp:  time.Now(),
			Payload: events.AgreementGeneratedPayload{
				AgreementID: outcome.AgreementID,
				MonthlyCost: outcome.MonthlyCost,
				AnnualCost:  outcome.AnnualCost,
			},
		})
	}
	if to == workflow.StageAgreementSent {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:         uuid.NewString(),
			Type:       events.EventAgreementDispatched,
			ReferralID: referralID,
			UserID:     userID,
			Timestamp:  time.Now(),
			Payload: events.AgreementDispatchedPayload{
				Summary: outcome.Summary,
			},
		})
	}
}

func (s *WorkflowService) publishBatchCompleted(ctx context.Context, result *BatchResult) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventBatchCompleted,
		Timestamp: time.Now(),
		Payload: events.BatchCompletedPayload{
			Total:     result.Total,
			Succeeded: result.Succeeded,
			Failed:    result.Failed,
			Rounds:    result.Rounds,
		},
	})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
