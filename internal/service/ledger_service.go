package service

import (
	"context"

	"github.com/grachmannico95/einvoice-sync/internal/domain"
	"github.com/grachmannico95/einvoice-sync/pkg/logger"
)

const (
	defaultPerPage  = 20
	maxPerPage      = 100
	defaultRunLimit = 20
)

// LedgerService serves the read side: recorded transactions and sync history.
type LedgerService interface {
	ListTransactions(ctx context.Context, page, perPage int) ([]domain.Transaction, int, error)
	ListSyncRuns(ctx context.Context, carrierID string, limit int) ([]domain.SyncRun, error)
}

type ledgerService struct {
	transactions domain.TransactionRepository
	history      domain.SyncHistoryRepository
	carriers     CarrierService
	users        UserResolver
	logger       *logger.Logger
}

func NewLedgerService(
	transactions domain.TransactionRepository,
	history domain.SyncHistoryRepository,
	carriers CarrierService,
	users UserResolver,
	log *logger.Logger,
) LedgerService {
	return &ledgerService{
		transactions: transactions,
		history:      history,
		carriers:     carriers,
		users:        users,
		logger:       log,
	}
}

func (s *ledgerService) ListTransactions(ctx context.Context, page, perPage int) ([]domain.Transaction, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	user, err := s.users.CurrentUser(ctx)
	if err != nil {
		return nil, 0, err
	}

	txs, total, err := s.transactions.ListTransactions(ctx, user.ID, page, perPage)
	if err != nil {
		s.logger.Error(ctx, "Failed to list transactions",
			"page", page,
			"per_page", perPage,
			"error", err,
		)
		return nil, 0, err
	}

	return txs, total, nil
}

// ListSyncRuns returns recent runs for one carrier, or the default carrier when
// carrierID is empty.
func (s *ledgerService) ListSyncRuns(ctx context.Context, carrierID string, limit int) ([]domain.SyncRun, error) {
	var (
		carrier *domain.Carrier
		err     error
	)
	if carrierID != "" {
		carrier, err = s.carriers.GetCarrier(ctx, carrierID)
	} else {
		carrier, err = s.carriers.DefaultCarrier(ctx)
	}
	if err != nil {
		return nil, err
	}

	if limit < 1 || limit > maxPerPage {
		limit = defaultRunLimit
	}

	return s.history.ListSyncRuns(ctx, carrier.ID, limit)
}
