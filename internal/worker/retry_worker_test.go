package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carebridge/referral-service/internal/domain"
	"github.com/carebridge/referral-service/internal/service"
	"github.com/carebridge/referral-service/internal/workflow"
)

type memFailureRepo struct {
	mu       sync.Mutex
	failures []domain.WorkflowFailure
}

func (r *memFailureRepo) Create(ctx context.Context, failure *domain.WorkflowFailure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, *failure)
	return nil
}

func (r *memFailureRepo) ListUnresolved(ctx context.Context, limit int) ([]domain.WorkflowFailure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.WorkflowFailure{}
	for _, f := range r.failures {
		if !f.Resolved {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memFailureRepo) RecordAttempt(ctx context.Context, id string, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.failures {
		if r.failures[i].ID == id {
			r.failures[i].Attempts++
			r.failures[i].LastError = lastError
		}
	}
	return nil
}

func (r *memFailureRepo) MarkResolved(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.failures {
		if r.failures[i].ID == id {
			r.failures[i].Resolved = true
		}
	}
	return nil
}

func (r *memFailureRepo) byID(id string) domain.WorkflowFailure {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.failures {
		if f.ID == id {
			return f
		}
	}
	return domain.WorkflowFailure{}
}

type stubAdvancer struct {
	mu       sync.Mutex
	calls    []string
	targeted []workflow.Stage
	err      error
	success  bool
}

func (a *stubAdvancer) Advance(ctx context.Context, referralID string, userID *string) (*service.AdvanceResult, error) {
	a.mu.Lock()
	a.calls = append(a.calls, referralID)
	a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	return &service.AdvanceResult{ReferralID: referralID, Success: a.success}, nil
}

func (a *stubAdvancer) AdvanceTo(ctx context.Context, referralID string, target workflow.Stage, userID *string) (*service.AdvanceResult, error) {
	a.mu.Lock()
	a.calls = append(a.calls, referralID)
	a.targeted = append(a.targeted, target)
	a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	return &service.AdvanceResult{ReferralID: referralID, Success: a.success}, nil
}

func TestProcessOnceResolvesOnSuccessfulRetry(t *testing.T) {
	repo := &memFailureRepo{failures: []domain.WorkflowFailure{
		{ID: "f1", ReferralID: "ref-1", TargetStage: "data_verified", Attempts: 2},
	}}
	advancer := &stubAdvancer{success: true}
	w := NewRetryWorker(repo, advancer, zap.NewNop(), time.Minute)

	w.processOnce(context.Background())

	assert.True(t, repo.byID("f1").Resolved)
	require.Len(t, advancer.targeted, 1)
	assert.Equal(t, workflow.StageDataVerified, advancer.targeted[0])
}

func TestProcessOnceResolvesOnBusinessRejection(t *testing.T) {
	// a rejection means the referral needs operator action, not more
	// retries; the dead letter is done
	repo := &memFailureRepo{failures: []domain.WorkflowFailure{
		{ID: "f1", ReferralID: "ref-1", Attempts: 1},
	}}
	advancer := &stubAdvancer{success: false}
	w := NewRetryWorker(repo, advancer, zap.NewNop(), time.Minute)

	w.processOnce(context.Background())

	assert.True(t, repo.byID("f1").Resolved)
}

func TestProcessOnceRecordsFailedAttempt(t *testing.T) {
	repo := &memFailureRepo{failures: []domain.WorkflowFailure{
		{ID: "f1", ReferralID: "ref-1", Attempts: 4},
	}}
	advancer := &stubAdvancer{err: errors.New("still broken")}
	w := NewRetryWorker(repo, advancer, zap.NewNop(), time.Minute)

	w.processOnce(context.Background())

	failure := repo.byID("f1")
	assert.False(t, failure.Resolved)
	assert.Equal(t, 5, failure.Attempts)
	assert.Equal(t, "still broken", failure.LastError)
}

func TestProcessOnceAbandonsAfterMaxAttempts(t *testing.T) {
	repo := &memFailureRepo{failures: []domain.WorkflowFailure{
		{ID: "f1", ReferralID: "ref-1", Attempts: maxFailureAttempts},
	}}
	advancer := &stubAdvancer{success: true}
	w := NewRetryWorker(repo, advancer, zap.NewNop(), time.Minute)

	w.processOnce(context.Background())

	assert.True(t, repo.byID("f1").Resolved)
	assert.Empty(t, advancer.calls, "abandoned failures are not retried")
}

func TestRunStopsOnContextCancel(t *testing.T) {
	repo := &memFailureRepo{}
	w := NewRetryWorker(repo, &stubAdvancer{}, zap.NewNop(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
