package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/grachmannico95/einvoice-sync/internal/domain"
	"github.com/grachmannico95/einvoice-sync/pkg/logger"
	"github.com/shopspring/decimal"
)

// Column layout of the tax bureau's carrier export. M rows are invoice headers,
// D rows are line items belonging to the M row with the same invoice number.
const (
	rowTypeHeader = "M"
	rowTypeDetail = "D"

	voidedStatus = "作廢"

	headerFieldCount = 8
	detailFieldCount = 4
)

type ImportResult struct {
	Rows    int                 `json:"rows"`
	Parsed  int                 `json:"parsed"`
	Skipped int                 `json:"skipped"`
	Summary *domain.SyncSummary `json:"summary"`
}

type InvoiceImporter interface {
	Import(ctx context.Context, carrierID string, reader io.Reader) (*ImportResult, error)
}

type invoiceImporter struct {
	carriers CarrierService
	sync     InvoiceSyncService
	taxRate  decimal.Decimal
	loc      *time.Location
	logger   *logger.Logger
}

func NewInvoiceImporter(carriers CarrierService, sync InvoiceSyncService, taxRate float64, log *logger.Logger) InvoiceImporter {
	return &invoiceImporter{
		carriers: carriers,
		sync:     sync,
		taxRate:  decimal.NewFromFloat(taxRate),
		loc:      time.FixedZone("CST", 8*60*60),
		logger:   log,
	}
}

func (i *invoiceImporter) Import(ctx context.Context, carrierID string, reader io.Reader) (*ImportResult, error) {
	var (
		carrier *domain.Carrier
		err     error
	)
	if carrierID != "" {
		carrier, err = i.carriers.GetCarrier(ctx, carrierID)
	} else {
		carrier, err = i.carriers.DefaultCarrier(ctx)
	}
	if err != nil {
		return nil, err
	}

	ctx = logger.WithCarrierID(ctx, carrier.ID)
	i.logger.Info(ctx, "Starting invoice import")

	invoices, result, err := i.parse(ctx, reader)
	if err != nil {
		return nil, err
	}

	summary, err := i.sync.ReconcileInvoices(ctx, carrier, invoices, domain.InputMethodInvoiceImport)
	if err != nil {
		return nil, err
	}
	result.Summary = summary

	i.logger.Info(ctx, "Invoice import completed",
		"rows", result.Rows,
		"parsed", result.Parsed,
		"skipped", result.Skipped,
		"created", summary.Created,
		"duplicates", summary.Duplicates,
	)

	return result, nil
}

func (i *invoiceImporter) parse(ctx context.Context, reader io.Reader) ([]domain.InvoiceInfo, *ImportResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.Comma = '|'
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true
	csvReader.TrimLeadingSpace = true

	result := &ImportResult{}
	var invoices []domain.InvoiceInfo
	index := make(map[string]int)
	lineNumber := 0
	headerRows := 0

	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		lineNumber++
		if err != nil {
			i.logger.Warn(ctx, "Failed to read import line",
				"line", lineNumber,
				"error", err,
			)
			result.Skipped++
			continue
		}

		if len(record) == 0 {
			continue
		}
		result.Rows++

		switch strings.TrimSpace(record[0]) {
		case rowTypeHeader:
			headerRows++
			invoice, voided, err := i.parseHeader(record)
			if err != nil {
				i.logger.Warn(ctx, "Skipping invoice row",
					"line", lineNumber,
					"error", err,
				)
				result.Skipped++
				continue
			}
			if voided {
				result.Skipped++
				continue
			}
			if _, exists := index[invoice.Number]; exists {
				result.Skipped++
				continue
			}
			index[invoice.Number] = len(invoices)
			invoices = append(invoices, invoice)

		case rowTypeDetail:
			number, item, err := parseDetail(record)
			if err != nil {
				i.logger.Warn(ctx, "Skipping item row",
					"line", lineNumber,
					"error", err,
				)
				result.Skipped++
				continue
			}
			pos, ok := index[number]
			if !ok {
				result.Skipped++
				continue
			}
			invoices[pos].Items = append(invoices[pos].Items, item)

		default:
			// header line or anything the export adds later
			result.Skipped++
		}
	}

	if headerRows == 0 {
		return nil, nil, fmt.Errorf("%w: no invoice rows found", domain.ErrInvalidCSVFormat)
	}

	result.Parsed = len(invoices)

	return invoices, result, nil
}

// parseHeader reads M|carrier name|carrier number|yyyyMMdd|seller BAN|seller name|invoice number|amount|status.
func (i *invoiceImporter) parseHeader(record []string) (domain.InvoiceInfo, bool, error) {
	if len(record) < headerFieldCount {
		return domain.InvoiceInfo{}, false, fmt.Errorf("expected at least %d fields, got %d", headerFieldCount, len(record))
	}

	field := func(n int) string {
		if n >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[n])
	}

	if field(8) == voidedStatus {
		return domain.InvoiceInfo{}, true, nil
	}

	number := strings.ToUpper(field(6))
	if number == "" {
		return domain.InvoiceInfo{}, false, errors.New("missing invoice number")
	}

	date, err := time.ParseInLocation("20060102", field(3), i.loc)
	if err != nil {
		return domain.InvoiceInfo{}, false, fmt.Errorf("invalid invoice date %q", field(3))
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(field(7), ",", ""))
	if err != nil {
		return domain.InvoiceInfo{}, false, fmt.Errorf("invalid amount %q", field(7))
	}

	tax := amount.Mul(i.taxRate).Div(decimal.NewFromInt(1).Add(i.taxRate)).Round(2)

	return domain.InvoiceInfo{
		Number:        number,
		Date:          date,
		SellerName:    field(5),
		SellerBan:     field(4),
		Amount:        amount,
		TaxAmount:     tax,
		CarrierNumber: field(2),
	}, false, nil
}

// parseDetail reads D|invoice number|amount|item name.
func parseDetail(record []string) (string, domain.LineItem, error) {
	if len(record) < detailFieldCount {
		return "", domain.LineItem{}, fmt.Errorf("expected %d fields, got %d", detailFieldCount, len(record))
	}

	number := strings.ToUpper(strings.TrimSpace(record[1]))
	amount, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(record[2]), ",", ""))
	if err != nil {
		return "", domain.LineItem{}, fmt.Errorf("invalid item amount %q", record[2])
	}

	return number, domain.LineItem{
		Name:      strings.TrimSpace(record[3]),
		Quantity:  decimal.NewFromInt(1),
		UnitPrice: amount,
		Amount:    amount,
	}, nil
}
