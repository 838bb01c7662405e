package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/grachmannico95/einvoice-sync/internal/domain"
)

type MemoryStore struct {
	users           map[string]domain.User
	carriers        map[string]domain.Carrier
	transactions    []domain.Transaction
	invoiceIndex    map[string]struct{}
	syncRuns        []domain.SyncRun
	processedEvents map[string]bool
	mu              sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:           make(map[string]domain.User),
		carriers:        make(map[string]domain.Carrier),
		invoiceIndex:    make(map[string]struct{}),
		processedEvents: make(map[string]bool),
	}
}

func (s *MemoryStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[userID]
	if !exists {
		return nil, domain.ErrUserNotFound
	}

	return &user, nil
}

func (s *MemoryStore) SaveUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user.ID] = *user

	return nil
}

func (s *MemoryStore) ListCarriers(ctx context.Context, userID string) ([]domain.Carrier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	carriers := []domain.Carrier{}
	for _, c := range s.carriers {
		if c.UserID == userID {
			carriers = append(carriers, c)
		}
	}

	sortCarriers(carriers)

	return carriers, nil
}

func (s *MemoryStore) GetCarrier(ctx context.Context, carrierID string) (*domain.Carrier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	carrier, exists := s.carriers[carrierID]
	if !exists {
		return nil, domain.ErrCarrierNotFound
	}

	return &carrier, nil
}

func (s *MemoryStore) FindCarrier(ctx context.Context, userID string, carrierType domain.CarrierType, number string) (*domain.Carrier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.carriers {
		if c.UserID == userID && c.Type == carrierType && c.Number == number {
			return &c, nil
		}
	}

	return nil, domain.ErrCarrierNotFound
}

func (s *MemoryStore) CreateCarrier(ctx context.Context, carrier *domain.Carrier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.carriers {
		if c.UserID == carrier.UserID && c.Type == carrier.Type && c.Number == carrier.Number {
			return domain.ErrDuplicateCarrier
		}
	}

	if carrier.IsDefault {
		s.clearDefaultLocked(carrier.UserID, carrier.CreatedAt)
	}

	s.carriers[carrier.ID] = *carrier

	return nil
}

func (s *MemoryStore) SetDefaultCarrier(ctx context.Context, userID, carrierID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	carrier, exists := s.carriers[carrierID]
	if !exists || carrier.UserID != userID {
		return domain.ErrCarrierNotFound
	}

	s.clearDefaultLocked(userID, at)

	carrier.IsDefault = true
	carrier.UpdatedAt = at
	s.carriers[carrierID] = carrier

	return nil
}

func (s *MemoryStore) clearDefaultLocked(userID string, at time.Time) {
	for id, c := range s.carriers {
		if c.UserID == userID && c.IsDefault {
			c.IsDefault = false
			c.UpdatedAt = at
			s.carriers[id] = c
		}
	}
}

func (s *MemoryStore) UpdateCarrierSyncTime(ctx context.Context, carrierID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	carrier, exists := s.carriers[carrierID]
	if !exists {
		return domain.ErrCarrierNotFound
	}

	carrier.LastSyncAt = &at
	carrier.UpdatedAt = at
	s.carriers[carrierID] = carrier

	return nil
}

func (s *MemoryStore) DeleteCarrier(ctx context.Context, carrierID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.carriers[carrierID]; !exists {
		return domain.ErrCarrierNotFound
	}

	delete(s.carriers, carrierID)

	return nil
}

func (s *MemoryStore) ListInvoiceNumbers(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	numbers := make([]string, 0, len(s.invoiceIndex))
	for number := range s.invoiceIndex {
		numbers = append(numbers, number)
	}

	return numbers, nil
}

// SaveTransactions validates the whole batch before appending any of it.
func (s *MemoryStore) SaveTransactions(ctx context.Context, txs []domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		if tx.InvoiceNumber == nil {
			continue
		}
		number := *tx.InvoiceNumber
		if _, exists := s.invoiceIndex[number]; exists {
			return domain.ErrDuplicateInvoice
		}
		if _, exists := batch[number]; exists {
			return domain.ErrDuplicateInvoice
		}
		batch[number] = struct{}{}
	}

	s.transactions = append(s.transactions, txs...)
	for number := range batch {
		s.invoiceIndex[number] = struct{}{}
	}

	return nil
}

func (s *MemoryStore) ListTransactions(ctx context.Context, userID string, page, perPage int) ([]domain.Transaction, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []domain.Transaction
	for _, tx := range s.transactions {
		if userID != "" && tx.UserID != userID {
			continue
		}
		filtered = append(filtered, tx)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Date.After(filtered[j].Date)
	})

	total := len(filtered)
	start, end := pageBounds(page, perPage, total)

	return append([]domain.Transaction{}, filtered[start:end]...), total, nil
}

func (s *MemoryStore) RecordSyncRun(ctx context.Context, run domain.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.syncRuns = append(s.syncRuns, run)

	return nil
}

func (s *MemoryStore) ListSyncRuns(ctx context.Context, carrierID string, limit int) ([]domain.SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := []domain.SyncRun{}
	for i := len(s.syncRuns) - 1; i >= 0; i-- {
		run := s.syncRuns[i]
		if carrierID != "" && run.CarrierID != carrierID {
			continue
		}
		runs = append(runs, run)
		if limit > 0 && len(runs) == limit {
			break
		}
	}

	return runs, nil
}

func (s *MemoryStore) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.processedEvents[eventID], nil
}

func (s *MemoryStore) MarkEventProcessed(ctx context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.processedEvents[eventID] = true

	return nil
}

// sortCarriers orders the default carrier first, then newest first.
func sortCarriers(carriers []domain.Carrier) {
	sort.SliceStable(carriers, func(i, j int) bool {
		if carriers[i].IsDefault != carriers[j].IsDefault {
			return carriers[i].IsDefault
		}
		return carriers[i].CreatedAt.After(carriers[j].CreatedAt)
	})
}

func pageBounds(page, perPage, total int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	start := (page - 1) * perPage
	if start >= total {
		return total, total
	}

	end := start + perPage
	if end > total {
		end = total
	}

	return start, end
}
