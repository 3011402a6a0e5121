package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []Event
	d.Subscribe(EventReferralStageChanged, func(ctx context.Context, e Event) error {
		got = append(got, e)
		return nil
	})

	err := d.Publish(context.Background(), Event{ID: "e1", Type: EventReferralStageChanged, ReferralID: "ref-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ref-1", got[0].ReferralID)
}

func TestDispatcherIgnoresUnrelatedTypes(t *testing.T) {
	d := NewInMemoryDispatcher()

	calls := 0
	d.Subscribe(EventAdvanceRejected, func(ctx context.Context, e Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventBatchCompleted})
	require.NoError(t, err)
	assert.Equal(t, 0, calls)
}

func TestDispatcherRunsAllHandlersAndReturnsFirstError(t *testing.T) {
	d := NewInMemoryDispatcher()

	first := errors.New("first failure")
	ran := []string{}
	d.Subscribe(EventStaffMatched, func(ctx context.Context, e Event) error {
		ran = append(ran, "a")
		return first
	})
	d.Subscribe(EventStaffMatched, func(ctx context.Context, e Event) error {
		ran = append(ran, "b")
		return errors.New("second failure")
	})
	d.Subscribe(EventStaffMatched, func(ctx context.Context, e Event) error {
		ran = append(ran, "c")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventStaffMatched})
	assert.ErrorIs(t, err, first)
	assert.Equal(t, []string{"a", "b", "c"}, ran, "a failing handler must not starve later handlers")
}

func TestDispatcherPublishWithoutSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventStageLatencyAlert}))
}
