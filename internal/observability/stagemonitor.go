package observability

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carebridge/referral-service/internal/events"
	"github.com/carebridge/referral-service/internal/workflow"
)

// alertFactor scales the stage threshold before an alert fires.
const alertFactor = 1.5

// minimum gap between alerts for the same stage
const alertCooldown = time.Minute

// defaultStageThresholds are the expected per-stage processing budgets.
var defaultStageThresholds = map[workflow.Stage]time.Duration{
	workflow.StageReferralReceived:      2 * time.Second,
	workflow.StageDataVerified:          5 * time.Second,
	workflow.StageAgreementPrepared:     8 * time.Second,
	workflow.StageAgreementSent:         3 * time.Second,
	workflow.StageAgreementSigned:       2 * time.Second,
	workflow.StageFundingVerification:   6 * time.Second,
	workflow.StageFundingVerified:       2 * time.Second,
	workflow.StageStaffAllocation:       10 * time.Second,
	workflow.StageStaffAllocated:        2 * time.Second,
	workflow.StageCommencementScheduled: 2 * time.Second,
	workflow.StageServiceCommenced:      2 * time.Second,
}

type stageStats struct {
	samples   int
	totalMs   float64
	lastAlert time.Time
}

// StageSnapshot is a read-only view of one stage's timing stats.
type StageSnapshot struct {
	Stage     workflow.Stage `json:"stage"`
	Samples   int            `json:"samples"`
	AverageMs float64        `json:"average_ms"`
}

// StageMonitor tracks moving-average processing time per workflow
// stage and emits a latency alert event when a stage's average exceeds
// its budget.
type StageMonitor struct {
	mu         sync.Mutex
	stats      map[workflow.Stage]*stageStats
	thresholds map[workflow.Stage]time.Duration
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewStageMonitor builds a monitor with the default thresholds.
func NewStageMonitor(dispatcher events.Dispatcher, logger *zap.Logger) *StageMonitor {
	return &StageMonitor{
		stats:      make(map[workflow.Stage]*stageStats),
		thresholds: defaultStageThresholds,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Record adds one timing sample for a transition into stage.
func (m *StageMonitor) Record(ctx context.Context, stage workflow.Stage, duration time.Duration) {
	threshold, ok := m.thresholds[stage]
	if !ok {
		return
	}

	m.mu.Lock()
	st, ok := m.stats[stage]
	if !ok {
		st = &stageStats{}
		m.stats[stage] = st
	}
	st.samples++
	st.totalMs += float64(duration.Milliseconds())
	avg := st.totalMs / float64(st.samples)
	thresholdMs := float64(threshold.Milliseconds())

	shouldAlert := avg > thresholdMs*alertFactor && m.now().Sub(st.lastAlert) >= alertCooldown
	if shouldAlert {
		st.lastAlert = m.now()
	}
	samples := st.samples
	m.mu.Unlock()

	if !shouldAlert {
		return
	}

	m.logger.Warn("stage latency above budget",
		zap.String("stage", stage.String()),
		zap.Float64("average_ms", avg),
		zap.Float64("threshold_ms", thresholdMs),
		zap.Int("samples", samples),
	)
	if m.dispatcher != nil {
		_ = m.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventStageLatencyAlert,
			Timestamp: m.now(),
			Payload: events.StageLatencyAlertPayload{
				Stage:       stage,
				AverageMs:   avg,
				ThresholdMs: thresholdMs,
				Samples:     samples,
			},
		})
	}
}

// Snapshot returns current per-stage averages, for analytics.
func (m *StageMonitor) Snapshot() []StageSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]StageSnapshot, 0, len(m.stats))
	for _, stage := range workflow.Stages() {
		st, ok := m.stats[stage]
		if !ok {
			continue
		}
		out = append(out, StageSnapshot{
			Stage:     stage,
			Samples:   st.samples,
			AverageMs: st.totalMs / float64(st.samples),
		})
	}
	return out
}
