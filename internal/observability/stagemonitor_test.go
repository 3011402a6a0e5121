package observability

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carebridge/referral-service/internal/events"
	"github.com/carebridge/referral-service/internal/workflow"
)

type alertCollector struct {
	mu     sync.Mutex
	alerts []events.Event
}

func (c *alertCollector) handle(ctx context.Context, e events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, e)
	return nil
}

func (c *alertCollector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.alerts)
}

func newTestMonitor() (*StageMonitor, *alertCollector, *time.Time) {
	dispatcher := events.NewInMemoryDispatcher()
	collector := &alertCollector{}
	dispatcher.Subscribe(events.EventStageLatencyAlert, collector.handle)

	monitor := NewStageMonitor(dispatcher, zap.NewNop())
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	monitor.now = func() time.Time { return clock }
	return monitor, collector, &clock
}

func TestRecordBelowBudgetDoesNotAlert(t *testing.T) {
	monitor, collector, _ := newTestMonitor()

	// data_verified budget is 5s; well under 1.5x
	for i := 0; i < 10; i++ {
		monitor.Record(context.Background(), workflow.StageDataVerified, 4*time.Second)
	}
	assert.Equal(t, 0, collector.count())
}

func TestRecordAboveBudgetAlertsOnce(t *testing.T) {
	monitor, collector, _ := newTestMonitor()

	// 9s average against a 5s budget exceeds the 1.5x factor
	monitor.Record(context.Background(), workflow.StageDataVerified, 9*time.Second)
	assert.Equal(t, 1, collector.count())

	// cooldown suppresses a second alert for the same stage
	monitor.Record(context.Background(), workflow.StageDataVerified, 9*time.Second)
	assert.Equal(t, 1, collector.count())
}

func TestRecordAlertsAgainAfterCooldown(t *testing.T) {
	monitor, collector, clock := newTestMonitor()

	monitor.Record(context.Background(), workflow.StageDataVerified, 9*time.Second)
	require.Equal(t, 1, collector.count())

	*clock = clock.Add(2 * time.Minute)
	monitor.Record(context.Background(), workflow.StageDataVerified, 9*time.Second)
	assert.Equal(t, 2, collector.count())
}

func TestRecordIgnoresUnknownStage(t *testing.T) {
	monitor, collector, _ := newTestMonitor()

	monitor.Record(context.Background(), workflow.Stage("bogus"), time.Hour)
	assert.Equal(t, 0, collector.count())
	assert.Empty(t, monitor.Snapshot())
}

func TestSnapshotAverages(t *testing.T) {
	monitor, _, _ := newTestMonitor()

	monitor.Record(context.Background(), workflow.StageDataVerified, 2*time.Second)
	monitor.Record(context.Background(), workflow.StageDataVerified, 4*time.Second)
	monitor.Record(context.Background(), workflow.StageStaffAllocation, 6*time.Second)

	snaps := monitor.Snapshot()
	require.Len(t, snaps, 2)

	// snapshot follows stage order: data_verified before staff_allocation
	assert.Equal(t, workflow.StageDataVerified, snaps[0].Stage)
	assert.Equal(t, 2, snaps[0].Samples)
	assert.InDelta(t, 3000, snaps[0].AverageMs, 1e-9)

	assert.Equal(t, workflow.StageStaffAllocation, snaps[1].Stage)
	assert.Equal(t, 1, snaps[1].Samples)
	assert.InDelta(t, 6000, snaps[1].AverageMs, 1e-9)
}
