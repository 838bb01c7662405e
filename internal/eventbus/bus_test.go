package eventbus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/grachmannico95/einvoice-sync/internal/domain"
	"github.com/grachmannico95/einvoice-sync/internal/storage"
	"github.com/grachmannico95/einvoice-sync/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T, consumers map[EventType]Consumer) EventBus {
	t.Helper()

	bus := New(logger.NewNop(), &Config{
		ChannelBuffer:  10,
		MaxRetries:     3,
		RetryBaseDelay: time.Millisecond,
	})
	for eventType, consumer := range consumers {
		require.NoError(t, bus.Subscribe(eventType, consumer))
	}
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Shutdown(context.Background()) })

	return bus
}

func syncEvent(id, runID string) Event {
	return Event{
		ID:   id,
		Type: EventTypeSyncCompleted,
		Payload: SyncEvent{Run: domain.SyncRun{
			ID:        runID,
			CarrierID: "carrier-1",
			Status:    domain.SyncRunStatusSuccess,
			Created:   3,
		}},
		Timestamp: time.Now(),
	}
}

func TestSyncHistoryConsumer_RecordsRunOnce(t *testing.T) {
	repo := storage.NewMemoryStore()
	consumer := NewSyncHistoryConsumer(repo, logger.NewNop(), 1)
	bus := newTestBus(t, map[EventType]Consumer{EventTypeSyncCompleted: consumer})
	ctx := context.Background()

	require.NoError(t, bus.Publish(ctx, syncEvent("evt-1", "run-1")))
	require.NoError(t, bus.Publish(ctx, syncEvent("evt-1", "run-1")))

	assert.Eventually(t, func() bool {
		processed, _ := repo.IsEventProcessed(ctx, "evt-1")
		return processed
	}, time.Second, 10*time.Millisecond)

	// let the duplicate drain
	time.Sleep(20 * time.Millisecond)

	runs, err := repo.ListSyncRuns(ctx, "carrier-1", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, 3, runs[0].Created)
}

func TestSyncHistoryConsumer_InvalidPayload(t *testing.T) {
	repo := storage.NewMemoryStore()
	consumer := NewSyncHistoryConsumer(repo, logger.NewNop(), 1)

	err := consumer.Consume(context.Background(), Event{ID: "evt-x", Type: EventTypeSyncFailed, Payload: "nope"})
	assert.Error(t, err)

	processed, err := repo.IsEventProcessed(context.Background(), "evt-x")
	require.NoError(t, err)
	assert.False(t, processed)
}

type flakyConsumer struct {
	failures int32
	calls    atomic.Int32
}

func (f *flakyConsumer) Consume(ctx context.Context, event Event) error {
	if f.calls.Add(1) <= f.failures {
		return errors.New("temporary")
	}
	return nil
}

func (f *flakyConsumer) GetWorkerCount() int { return 1 }

func TestEventBus_RetriesFailedConsumer(t *testing.T) {
	consumer := &flakyConsumer{failures: 2}
	bus := newTestBus(t, map[EventType]Consumer{EventTypeSyncFailed: consumer})

	require.NoError(t, bus.Publish(context.Background(), Event{ID: "evt-1", Type: EventTypeSyncFailed}))

	assert.Eventually(t, func() bool {
		return consumer.calls.Load() == 3
	}, time.Second, 5*time.Millisecond)
}

func TestEventBus_SubscribeAfterStart(t *testing.T) {
	bus := newTestBus(t, nil)

	err := bus.Subscribe(EventTypeSyncCompleted, &flakyConsumer{})
	assert.ErrorIs(t, err, ErrBusStarted)
}

func TestEventBus_PublishWithoutSubscriber(t *testing.T) {
	bus := newTestBus(t, nil)

	err := bus.Publish(context.Background(), syncEvent("evt-1", "run-1"))
	assert.NoError(t, err)
}
