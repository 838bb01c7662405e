package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/grachmannico95/einvoice-sync/internal/domain"
	"github.com/grachmannico95/einvoice-sync/internal/service"
	"github.com/grachmannico95/einvoice-sync/pkg/logger"
)

const DefaultInterval = time.Hour

// InvoiceSyncer is the part of the sync engine the scheduler drives.
type InvoiceSyncer interface {
	SyncInvoices(ctx context.Context, req service.SyncRequest) (*domain.SyncSummary, error)
}

type Config struct {
	Interval         time.Duration
	FailureThreshold int
	Cooldown         time.Duration
}

// Scheduler runs a default-carrier sync on a fixed interval. After FailureThreshold
// consecutive failures it skips ticks until Cooldown has passed.
type Scheduler struct {
	syncer InvoiceSyncer
	logger *logger.Logger
	cfg    Config
	now    func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	failures  int
	openUntil time.Time
}

func New(syncer InvoiceSyncer, log *logger.Logger, cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 6 * time.Hour
	}

	return &Scheduler{
		syncer: syncer,
		logger: log,
		cfg:    cfg,
		now:    time.Now,
	}
}

// EnableAutoSync starts the periodic sync, replacing any running schedule. A
// non-positive interval falls back to the configured one.
func (s *Scheduler) EnableAutoSync(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.cfg.Interval
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	// swap under one lock so concurrent enables never orphan a loop
	s.mu.Lock()
	prevCancel, prevDone := s.cancel, s.done
	s.cancel, s.done = cancel, done
	go s.loop(runCtx, interval, done)
	s.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
		<-prevDone
	}

	s.logger.Info(ctx, "Auto sync enabled", "interval", interval.String())
}

// DisableAutoSync stops the schedule and waits for an in-progress tick to return.
func (s *Scheduler) DisableAutoSync() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done

	s.logger.Info(context.Background(), "Auto sync disabled")
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cancel != nil
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.RunOnce(ctx)
		}
	}
}

// RunOnce performs one scheduled sync, honoring the circuit breaker.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	ctx = logger.WithTraceID(ctx, "scheduler-"+s.now().Format("20060102T150405"))

	if until, open := s.circuitOpen(); open {
		s.logger.Warn(ctx, "Skipping scheduled sync, circuit open",
			"retry_after", until.Format(time.RFC3339),
		)
		return domain.ErrSyncCircuitOpen
	}

	summary, err := s.syncer.SyncInvoices(ctx, service.SyncRequest{})
	switch {
	case err == nil:
		s.recordSuccess()
		s.logger.Info(ctx, "Scheduled sync finished",
			"created", summary.Created,
			"duplicates", summary.Duplicates,
		)
	case errors.Is(err, domain.ErrNoCarrier):
		// nothing to sync is not a fault of the upstream
		s.logger.Debug(ctx, "Scheduled sync skipped, no carrier")
	default:
		s.recordFailure(ctx, err)
	}

	return err
}

func (s *Scheduler) circuitOpen() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.openUntil.IsZero() {
		return time.Time{}, false
	}
	if s.now().Before(s.openUntil) {
		return s.openUntil, true
	}

	// half-open: allow one attempt, a failure reopens immediately
	s.openUntil = time.Time{}
	s.failures = s.cfg.FailureThreshold - 1
	return time.Time{}, false
}

func (s *Scheduler) recordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures = 0
	s.openUntil = time.Time{}
}

func (s *Scheduler) recordFailure(ctx context.Context, err error) {
	s.mu.Lock()
	s.failures++
	failures := s.failures
	if failures >= s.cfg.FailureThreshold {
		s.openUntil = s.now().Add(s.cfg.Cooldown)
	}
	openUntil := s.openUntil
	s.mu.Unlock()

	s.logger.Error(ctx, "Scheduled sync failed",
		"consecutive_failures", failures,
		"error", err,
	)
	if !openUntil.IsZero() {
		s.logger.Warn(ctx, "Scheduled sync paused",
			"until", openUntil.Format(time.RFC3339),
		)
	}
}
