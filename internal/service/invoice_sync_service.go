package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/grachmannico95/einvoice-sync/internal/domain"
	"github.com/grachmannico95/einvoice-sync/internal/eventbus"
	"github.com/grachmannico95/einvoice-sync/internal/taxbureau"
	"github.com/grachmannico95/einvoice-sync/pkg/logger"
	"golang.org/x/sync/singleflight"
)

type SyncRequest struct {
	CarrierID string     `json:"carrier_id,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

type InvoiceSyncService interface {
	// SyncInvoices fetches the carrier's invoices for the range and records each new
	// one as a transaction. The carrier defaults to the user's default carrier and the
	// range to the month before now.
	SyncInvoices(ctx context.Context, req SyncRequest) (*domain.SyncSummary, error)
	ReconcileInvoices(ctx context.Context, carrier *domain.Carrier, invoices []domain.InvoiceInfo, method domain.InputMethod) (*domain.SyncSummary, error)
	Status() domain.SyncStatus
}

// SyncRepository is the slice of the store the sync engine writes to.
type SyncRepository interface {
	domain.TransactionRepository
	UpdateCarrierSyncTime(ctx context.Context, carrierID string, at time.Time) error
}

type SyncOption func(*invoiceSyncService)

func WithSyncClock(now func() time.Time) SyncOption {
	return func(s *invoiceSyncService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithPublisher(publisher eventbus.Publisher) SyncOption {
	return func(s *invoiceSyncService) {
		s.publisher = publisher
	}
}

type invoiceSyncService struct {
	fetcher     domain.InvoiceFetcher
	carriers    CarrierService
	repo        SyncRepository
	categorizer Categorizer
	publisher   eventbus.Publisher
	logger      *logger.Logger
	now         func() time.Time

	// flights joins concurrent syncs of the same carrier and range.
	flights singleflight.Group
	// reconcileMu orders every dedupe read before the other cycles' inserts.
	reconcileMu sync.Mutex

	mu         sync.RWMutex
	inFlight   int
	lastError  string
	lastSyncAt *time.Time
}

func NewInvoiceSyncService(
	fetcher domain.InvoiceFetcher,
	carriers CarrierService,
	repo SyncRepository,
	categorizer Categorizer,
	log *logger.Logger,
	opts ...SyncOption,
) InvoiceSyncService {
	s := &invoiceSyncService{
		fetcher:     fetcher,
		carriers:    carriers,
		repo:        repo,
		categorizer: categorizer,
		logger:      log,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *invoiceSyncService) SyncInvoices(ctx context.Context, req SyncRequest) (*domain.SyncSummary, error) {
	carrier, err := s.resolveCarrier(ctx, req.CarrierID)
	if err != nil {
		s.setLastError(err)
		s.logger.Warn(ctx, "Cannot sync invoices",
			"error", err,
		)
		return nil, err
	}

	ctx = logger.WithCarrierID(ctx, carrier.ID)

	startDate, endDate, err := s.resolveRange(req)
	if err != nil {
		s.setLastError(err)
		return nil, err
	}

	// the cycle outlives any single caller; the HTTP client timeout bounds it
	cycleCtx := context.WithoutCancel(ctx)
	key := fmt.Sprintf("%s|%s|%s", carrier.ID, startDate.Format(time.RFC3339), endDate.Format(time.RFC3339))
	ch := s.flights.DoChan(key, func() (interface{}, error) {
		return s.runCycle(cycleCtx, carrier, startDate, endDate)
	})

	select {
	case <-ctx.Done():
		s.logger.Warn(ctx, "Caller left before sync finished",
			"error", ctx.Err(),
		)
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			s.logger.Debug(ctx, "Joined in-flight sync")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.SyncSummary), nil
	}
}

func (s *invoiceSyncService) resolveCarrier(ctx context.Context, carrierID string) (*domain.Carrier, error) {
	if carrierID != "" {
		return s.carriers.GetCarrier(ctx, carrierID)
	}
	return s.carriers.DefaultCarrier(ctx)
}

func (s *invoiceSyncService) resolveRange(req SyncRequest) (time.Time, time.Time, error) {
	now := s.now()

	endDate := now
	if req.EndDate != nil {
		endDate = *req.EndDate
	}

	startDate := monthBefore(now)
	if req.StartDate != nil {
		startDate = *req.StartDate
	}

	if startDate.After(endDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start %s is after end %s",
			domain.ErrInvalidDateRange, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	}

	return startDate, endDate, nil
}

// monthBefore steps back one calendar month, clamping the day to the end of the
// shorter month.
func monthBefore(t time.Time) time.Time {
	year, month, day := t.Date()
	firstOfPrev := time.Date(year, month-1, 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfPrev.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfPrev.Year(), firstOfPrev.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func (s *invoiceSyncService) runCycle(ctx context.Context, carrier *domain.Carrier, startDate, endDate time.Time) (*domain.SyncSummary, error) {
	startedAt := s.begin()
	defer s.end()

	s.logger.Info(ctx, "Starting invoice sync",
		"start_date", startDate.Format("2006-01-02"),
		"end_date", endDate.Format("2006-01-02"),
	)

	invoices, err := s.fetcher.FetchInvoicesByCarrier(ctx, carrier.Type, carrier.Number, startDate, endDate)
	if err != nil {
		s.fail(ctx, carrier, startedAt, len(invoices), err)
		return nil, err
	}

	summary, err := s.reconcile(ctx, carrier, invoices, domain.InputMethodInvoiceSync)
	if err != nil {
		s.fail(ctx, carrier, startedAt, len(invoices), err)
		return nil, err
	}

	finishedAt := s.now()
	if err := s.repo.UpdateCarrierSyncTime(ctx, carrier.ID, finishedAt); err != nil {
		s.logger.Error(ctx, "Failed to update carrier sync time",
			"error", err,
		)
	}

	summary.StartDate = startDate
	summary.EndDate = endDate
	s.succeed(ctx, summary, startedAt, finishedAt)

	return summary, nil
}

func (s *invoiceSyncService) ReconcileInvoices(ctx context.Context, carrier *domain.Carrier, invoices []domain.InvoiceInfo, method domain.InputMethod) (*domain.SyncSummary, error) {
	ctx = logger.WithCarrierID(ctx, carrier.ID)

	startedAt := s.begin()
	defer s.end()

	summary, err := s.reconcile(ctx, carrier, invoices, method)
	if err != nil {
		s.fail(ctx, carrier, startedAt, len(invoices), err)
		return nil, err
	}

	s.succeed(ctx, summary, startedAt, s.now())

	return summary, nil
}

// reconcile drops invoices already in the ledger and saves the rest in one batch.
func (s *invoiceSyncService) reconcile(ctx context.Context, carrier *domain.Carrier, invoices []domain.InvoiceInfo, method domain.InputMethod) (*domain.SyncSummary, error) {
	s.reconcileMu.Lock()
	defer s.reconcileMu.Unlock()

	existing, err := s.repo.ListInvoiceNumbers(ctx)
	if err != nil {
		s.logger.Error(ctx, "Failed to load existing invoice numbers",
			"error", err,
		)
		return nil, err
	}

	seen := make(map[string]struct{}, len(existing)+len(invoices))
	for _, number := range existing {
		seen[number] = struct{}{}
	}

	summary := &domain.SyncSummary{
		CarrierID: carrier.ID,
		Fetched:   len(invoices),
	}

	createdAt := s.now()
	txs := make([]domain.Transaction, 0, len(invoices))
	for _, invoice := range invoices {
		if _, dup := seen[invoice.Number]; dup {
			summary.Duplicates++
			continue
		}
		seen[invoice.Number] = struct{}{}

		txs = append(txs, s.buildTransaction(carrier, invoice, method, createdAt))
	}

	if len(txs) > 0 {
		if err := s.repo.SaveTransactions(ctx, txs); err != nil {
			s.logger.Error(ctx, "Failed to save transactions",
				"count", len(txs),
				"error", err,
			)
			return nil, fmt.Errorf("%w: %w", domain.ErrSaveTransactions, err)
		}
	}

	summary.Created = len(txs)
	summary.Transactions = txs

	return summary, nil
}

func (s *invoiceSyncService) buildTransaction(carrier *domain.Carrier, invoice domain.InvoiceInfo, method domain.InputMethod, createdAt time.Time) domain.Transaction {
	number := invoice.Number
	invoiceDate := invoice.Date

	description := invoice.SellerName
	if description == "" {
		description = "Invoice " + number
	}

	return domain.Transaction{
		ID:              uuid.New().String(),
		UserID:          carrier.UserID,
		CarrierID:       carrier.ID,
		Amount:          invoice.Amount,
		Type:            domain.TransactionTypeExpense,
		Category:        s.categorizer.Categorize(invoice.SellerName),
		Description:     description,
		Date:            invoice.Date,
		Notes:           itemNotes(invoice.Items),
		InvoiceNumber:   &number,
		InvoiceDate:     &invoiceDate,
		MerchantName:    invoice.SellerName,
		TaxAmount:       invoice.TaxAmount,
		InputMethod:     method,
		AutoCategorized: true,
		CreatedAt:       createdAt,
	}
}

func itemNotes(items []domain.LineItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if item.Name == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s x%s", item.Name, item.Quantity.String()))
	}
	return strings.Join(parts, ", ")
}

func (s *invoiceSyncService) Status() domain.SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := domain.SyncStatus{
		IsSyncing: s.inFlight > 0,
		LastError: s.lastError,
	}
	if s.lastSyncAt != nil {
		t := *s.lastSyncAt
		status.LastSyncAt = &t
	}
	return status
}

func (s *invoiceSyncService) begin() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight++
	s.lastError = ""

	return s.now()
}

func (s *invoiceSyncService) end() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight--
}

func (s *invoiceSyncService) setLastError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastError = UserMessage(err)
}

func (s *invoiceSyncService) succeed(ctx context.Context, summary *domain.SyncSummary, startedAt, finishedAt time.Time) {
	summary.StartedAt = startedAt
	summary.FinishedAt = finishedAt

	s.mu.Lock()
	s.lastSyncAt = &finishedAt
	s.mu.Unlock()

	s.logger.Info(ctx, "Invoice sync completed",
		"fetched", summary.Fetched,
		"created", summary.Created,
		"duplicates", summary.Duplicates,
	)

	s.publish(ctx, eventbus.EventTypeSyncCompleted, domain.SyncRun{
		ID:         uuid.New().String(),
		CarrierID:  summary.CarrierID,
		Status:     domain.SyncRunStatusSuccess,
		Fetched:    summary.Fetched,
		Created:    summary.Created,
		Duplicates: summary.Duplicates,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	})
}

func (s *invoiceSyncService) fail(ctx context.Context, carrier *domain.Carrier, startedAt time.Time, fetched int, err error) {
	s.setLastError(err)

	s.logger.Error(ctx, "Invoice sync failed",
		"error", err,
	)

	s.publish(ctx, eventbus.EventTypeSyncFailed, domain.SyncRun{
		ID:         uuid.New().String(),
		CarrierID:  carrier.ID,
		Status:     domain.SyncRunStatusFailed,
		Fetched:    fetched,
		Error:      err.Error(),
		StartedAt:  startedAt,
		FinishedAt: s.now(),
	})
}

func (s *invoiceSyncService) publish(ctx context.Context, eventType eventbus.EventType, run domain.SyncRun) {
	if s.publisher == nil {
		return
	}

	event := eventbus.Event{
		ID:        run.ID,
		Type:      eventType,
		Payload:   eventbus.SyncEvent{Run: run},
		Timestamp: run.FinishedAt,
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn(ctx, "Failed to publish sync event",
			"event_id", event.ID,
			"error", err,
		)
	}
}

// UserMessage turns a sync error into the short text shown to the user.
func UserMessage(err error) string {
	var httpErr *taxbureau.HTTPError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrNoCarrier):
		return "No invoice carrier is configured. Add a carrier first."
	case errors.Is(err, domain.ErrCarrierNotFound):
		return "The selected carrier no longer exists."
	case errors.Is(err, domain.ErrInvalidDateRange):
		return "The start date must be before the end date."
	case errors.Is(err, taxbureau.ErrInvalidAPIKey):
		return "The tax bureau API key is missing or invalid."
	case errors.Is(err, taxbureau.ErrNetwork):
		return "Could not reach the tax bureau. Check your connection and try again."
	case errors.As(err, &httpErr):
		return fmt.Sprintf("The tax bureau service returned an error (HTTP %d).", httpErr.StatusCode)
	case errors.Is(err, taxbureau.ErrParse), errors.Is(err, taxbureau.ErrInvalidResponse):
		return "The tax bureau returned data that could not be read."
	case errors.Is(err, taxbureau.ErrInvalidURL):
		return "The tax bureau address is misconfigured."
	case errors.Is(err, domain.ErrSaveTransactions):
		return "Synced invoices could not be saved."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "The sync was cancelled before it finished."
	default:
		return "Invoice sync failed."
	}
}
