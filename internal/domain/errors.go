package domain

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrCarrierNotFound  = errors.New("carrier not found")
	ErrDuplicateCarrier = errors.New("carrier already exists")
	ErrNoCarrier        = errors.New("no carrier configured")
	ErrInvalidCarrier   = errors.New("invalid carrier")
	ErrDuplicateInvoice = errors.New("invoice already recorded")
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrInvalidCSVFormat = errors.New("invalid CSV format")
	ErrSyncCircuitOpen  = errors.New("sync paused after repeated failures")
	ErrSaveTransactions = errors.New("failed to save transactions")

	ErrInvalidInvoiceNumber = errors.New("invalid invoice number")
)
