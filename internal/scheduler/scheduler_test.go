package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/grachmannico95/einvoice-sync/internal/domain"
	"github.com/grachmannico95/einvoice-sync/internal/service"
	"github.com/grachmannico95/einvoice-sync/internal/taxbureau"
	"github.com/grachmannico95/einvoice-sync/mocks"
	"github.com/grachmannico95/einvoice-sync/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T, cfg Config) (*Scheduler, *mocks.MockInvoiceSyncer, *time.Time) {
	t.Helper()

	syncer := mocks.NewMockInvoiceSyncer(t)
	s := New(syncer, logger.NewNop(), cfg)

	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	return s, syncer, &now
}

func TestNew_Defaults(t *testing.T) {
	s := New(nil, logger.NewNop(), Config{})

	assert.Equal(t, DefaultInterval, s.cfg.Interval)
	assert.Equal(t, 3, s.cfg.FailureThreshold)
	assert.Equal(t, 6*time.Hour, s.cfg.Cooldown)
}

func TestRunOnce_SyncsDefaultCarrier(t *testing.T) {
	s, syncer, _ := newTestScheduler(t, Config{})

	syncer.EXPECT().
		SyncInvoices(mock.Anything, service.SyncRequest{}).
		Return(&domain.SyncSummary{Created: 2}, nil).
		Once()

	require.NoError(t, s.RunOnce(context.Background()))
}

func TestRunOnce_CircuitOpensAfterThreshold(t *testing.T) {
	s, syncer, now := newTestScheduler(t, Config{FailureThreshold: 2, Cooldown: time.Hour})
	upstream := taxbureau.ErrNetwork

	syncer.EXPECT().
		SyncInvoices(mock.Anything, mock.Anything).
		Return(nil, upstream).
		Times(2)

	ctx := context.Background()
	assert.ErrorIs(t, s.RunOnce(ctx), upstream)
	assert.ErrorIs(t, s.RunOnce(ctx), upstream)

	// third tick inside the cooldown never reaches the syncer
	assert.ErrorIs(t, s.RunOnce(ctx), domain.ErrSyncCircuitOpen)

	*now = now.Add(30 * time.Minute)
	assert.ErrorIs(t, s.RunOnce(ctx), domain.ErrSyncCircuitOpen)
}

func TestRunOnce_HalfOpenRecovers(t *testing.T) {
	s, syncer, now := newTestScheduler(t, Config{FailureThreshold: 1, Cooldown: time.Hour})
	ctx := context.Background()

	syncer.EXPECT().
		SyncInvoices(mock.Anything, mock.Anything).
		Return(nil, errors.New("boom")).
		Once()
	assert.Error(t, s.RunOnce(ctx))
	assert.ErrorIs(t, s.RunOnce(ctx), domain.ErrSyncCircuitOpen)

	*now = now.Add(2 * time.Hour)
	syncer.EXPECT().
		SyncInvoices(mock.Anything, mock.Anything).
		Return(&domain.SyncSummary{}, nil).
		Once()
	require.NoError(t, s.RunOnce(ctx))

	assert.Equal(t, 0, s.failures)
	assert.True(t, s.openUntil.IsZero())
}

func TestRunOnce_NoCarrierDoesNotTrip(t *testing.T) {
	s, syncer, _ := newTestScheduler(t, Config{FailureThreshold: 1})

	syncer.EXPECT().
		SyncInvoices(mock.Anything, mock.Anything).
		Return(nil, domain.ErrNoCarrier).
		Times(3)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, s.RunOnce(ctx), domain.ErrNoCarrier)
	}
	assert.Equal(t, 0, s.failures)
}

func TestEnableAutoSync_TicksUntilDisabled(t *testing.T) {
	syncer := mocks.NewMockInvoiceSyncer(t)
	s := New(syncer, logger.NewNop(), Config{})

	var calls atomic.Int32
	syncer.EXPECT().
		SyncInvoices(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, req service.SyncRequest) (*domain.SyncSummary, error) {
			calls.Add(1)
			return &domain.SyncSummary{}, nil
		})

	s.EnableAutoSync(context.Background(), 5*time.Millisecond)
	assert.True(t, s.Running())

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	s.DisableAutoSync()
	assert.False(t, s.Running())

	stopped := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, calls.Load())
}

func TestDisableAutoSync_WhenNotRunning(t *testing.T) {
	s := New(nil, logger.NewNop(), Config{})

	assert.NotPanics(t, s.DisableAutoSync)
	assert.False(t, s.Running())
}

func TestEnableAutoSync_ConcurrentEnablesLeaveOneLoop(t *testing.T) {
	syncer := mocks.NewMockInvoiceSyncer(t)
	s := New(syncer, logger.NewNop(), Config{})

	var calls atomic.Int32
	syncer.EXPECT().
		SyncInvoices(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, req service.SyncRequest) (*domain.SyncSummary, error) {
			calls.Add(1)
			return &domain.SyncSummary{}, nil
		}).
		Maybe()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.EnableAutoSync(context.Background(), 2*time.Millisecond)
		}()
	}
	wg.Wait()
	require.True(t, s.Running())

	s.DisableAutoSync()
	assert.False(t, s.Running())

	// every loop was stopped, so no tick lands after disable returns
	stopped := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, calls.Load())
}

func TestEnableAutoSync_ReplacesRunningSchedule(t *testing.T) {
	s := New(nil, logger.NewNop(), Config{Interval: time.Hour})

	s.EnableAutoSync(context.Background(), 0)
	s.mu.Lock()
	firstDone := s.done
	s.mu.Unlock()

	s.EnableAutoSync(context.Background(), time.Hour)

	select {
	case <-firstDone:
	default:
		t.Fatal("previous loop still running")
	}

	s.DisableAutoSync()
	assert.False(t, s.Running())
}
