package domain

import (
	"context"
	"time"
)

type UserRepository interface {
	GetUser(ctx context.Context, userID string) (*User, error)
	SaveUser(ctx context.Context, user *User) error
}

type CarrierRepository interface {
	// ListCarriers returns the user's carriers, default first, then newest first.
	ListCarriers(ctx context.Context, userID string) ([]Carrier, error)
	GetCarrier(ctx context.Context, carrierID string) (*Carrier, error)
	FindCarrier(ctx context.Context, userID string, carrierType CarrierType, number string) (*Carrier, error)
	// CreateCarrier inserts the carrier. When carrier.IsDefault is set, the user's other
	// carriers lose the flag in the same write.
	CreateCarrier(ctx context.Context, carrier *Carrier) error
	SetDefaultCarrier(ctx context.Context, userID, carrierID string, at time.Time) error
	UpdateCarrierSyncTime(ctx context.Context, carrierID string, at time.Time) error
	DeleteCarrier(ctx context.Context, carrierID string) error
}

type TransactionRepository interface {
	// ListInvoiceNumbers returns every invoice number already linked to a transaction.
	ListInvoiceNumbers(ctx context.Context) ([]string, error)
	// SaveTransactions persists the whole batch or nothing.
	SaveTransactions(ctx context.Context, txs []Transaction) error
	ListTransactions(ctx context.Context, userID string, page, perPage int) ([]Transaction, int, error)
}

type SyncHistoryRepository interface {
	RecordSyncRun(ctx context.Context, run SyncRun) error
	ListSyncRuns(ctx context.Context, carrierID string, limit int) ([]SyncRun, error)

	// Idempotency tracking
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID string) error
}

type Repository interface {
	UserRepository
	CarrierRepository
	TransactionRepository
	SyncHistoryRepository
}

// InvoiceFetcher is the tax bureau surface the services depend on.
type InvoiceFetcher interface {
	FetchInvoicesByCarrier(ctx context.Context, carrierType CarrierType, carrierNumber string, startDate, endDate time.Time) ([]InvoiceInfo, error)
	FetchInvoiceByNumber(ctx context.Context, invoiceNumber string, invoiceDate time.Time) (*InvoiceInfo, error)
	QueryInvoiceDetail(ctx context.Context, invoiceNumber, randomCode string) (*InvoiceInfo, error)
}
