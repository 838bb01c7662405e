package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/grachmannico95/einvoice-sync/internal/domain"
	"github.com/grachmannico95/einvoice-sync/pkg/logger"
)

var (
	invoiceNumberPattern = regexp.MustCompile(`^[A-Z]{2}\d{8}$`)
	randomCodePattern    = regexp.MustCompile(`^\d{4}$`)
)

// InvoiceLookup is a single invoice fetched on demand, with whether it is already in the ledger.
type InvoiceLookup struct {
	Invoice           *domain.InvoiceInfo `json:"invoice"`
	Recorded          bool                `json:"recorded"`
	SuggestedCategory domain.Category     `json:"suggested_category"`
}

type InvoiceLookupService interface {
	LookupInvoice(ctx context.Context, invoiceNumber string, invoiceDate time.Time) (*InvoiceLookup, error)
	// ScanInvoice resolves an invoice from the number and random code printed on a paper receipt.
	ScanInvoice(ctx context.Context, invoiceNumber, randomCode string) (*InvoiceLookup, error)
}

type invoiceLookupService struct {
	fetcher     domain.InvoiceFetcher
	repo        domain.TransactionRepository
	categorizer Categorizer
	logger      *logger.Logger
}

func NewInvoiceLookupService(fetcher domain.InvoiceFetcher, repo domain.TransactionRepository, categorizer Categorizer, log *logger.Logger) InvoiceLookupService {
	return &invoiceLookupService{
		fetcher:     fetcher,
		repo:        repo,
		categorizer: categorizer,
		logger:      log,
	}
}

func (s *invoiceLookupService) LookupInvoice(ctx context.Context, invoiceNumber string, invoiceDate time.Time) (*InvoiceLookup, error) {
	number, err := normalizeInvoiceNumber(invoiceNumber)
	if err != nil {
		return nil, err
	}

	invoice, err := s.fetcher.FetchInvoiceByNumber(ctx, number, invoiceDate)
	if err != nil {
		s.logger.Warn(ctx, "Invoice lookup failed",
			"invoice_number", number,
			"error", err,
		)
		return nil, err
	}

	return s.describe(ctx, invoice)
}

func (s *invoiceLookupService) ScanInvoice(ctx context.Context, invoiceNumber, randomCode string) (*InvoiceLookup, error) {
	number, err := normalizeInvoiceNumber(invoiceNumber)
	if err != nil {
		return nil, err
	}

	randomCode = strings.TrimSpace(randomCode)
	if !randomCodePattern.MatchString(randomCode) {
		return nil, fmt.Errorf("%w: random code must be 4 digits", domain.ErrInvalidInvoiceNumber)
	}

	invoice, err := s.fetcher.QueryInvoiceDetail(ctx, number, randomCode)
	if err != nil {
		s.logger.Warn(ctx, "Invoice scan failed",
			"invoice_number", number,
			"error", err,
		)
		return nil, err
	}

	return s.describe(ctx, invoice)
}

func (s *invoiceLookupService) describe(ctx context.Context, invoice *domain.InvoiceInfo) (*InvoiceLookup, error) {
	existing, err := s.repo.ListInvoiceNumbers(ctx)
	if err != nil {
		return nil, err
	}

	recorded := false
	for _, number := range existing {
		if number == invoice.Number {
			recorded = true
			break
		}
	}

	return &InvoiceLookup{
		Invoice:           invoice,
		Recorded:          recorded,
		SuggestedCategory: s.categorizer.Categorize(invoice.SellerName),
	}, nil
}

func normalizeInvoiceNumber(number string) (string, error) {
	number = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(number), "-", ""))
	if !invoiceNumberPattern.MatchString(number) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidInvoiceNumber, number)
	}
	return number, nil
}
