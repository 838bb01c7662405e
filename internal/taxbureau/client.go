// Package taxbureau queries the government e-invoice API and normalizes its
// list and detail responses into domain.InvoiceInfo values.
package taxbureau

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/grachmannico95/einvoice-sync/internal/domain"
	"github.com/grachmannico95/einvoice-sync/pkg/logger"
	"github.com/grachmannico95/einvoice-sync/pkg/retry"
	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL = "https://api.einvoice.nat.gov.tw/PB2CAPIVAN/invapp/InvApp"
	DefaultVersion = "0.5"

	actionCarrierInvoices = "qryWinningInv"
	actionInvoiceDetail   = "qryInvDetail"

	queryDateLayout  = "2006-01-02"
	successCode      = "200"
	unauthorizedCode = "401"

	maxRetryDelay = 10 * time.Second
)

// DefaultTaxRate is the flat VAT assumed for list results and used to back out tax
// from detail totals. The list endpoint does not return tax, so this is unverified.
var DefaultTaxRate = decimal.NewFromFloat(0.05)

type Config struct {
	BaseURL        string
	APIKey         string
	Version        string
	Timeout        time.Duration
	// nil rates fall back to DefaultTaxRate; an explicit zero is kept
	ListTaxRate    *decimal.Decimal
	DetailTaxRate  *decimal.Decimal
	MaxRetries     int
	RetryBaseDelay time.Duration
	ProbeMonths    int
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		if loc != nil {
			c.location = loc
		}
	}
}

type Client struct {
	httpClient     *http.Client
	logger         *logger.Logger
	baseURL        string
	version        string
	listTaxRate    decimal.Decimal
	detailTaxRate  decimal.Decimal
	maxRetries     int
	retryBaseDelay time.Duration
	probeMonths    int
	location       *time.Location
	now            func() time.Time

	mu     sync.RWMutex
	apiKey string
}

func NewClient(cfg Config, log *logger.Logger, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	listTaxRate := DefaultTaxRate
	if cfg.ListTaxRate != nil {
		listTaxRate = *cfg.ListTaxRate
	}
	detailTaxRate := DefaultTaxRate
	if cfg.DetailTaxRate != nil {
		detailTaxRate = *cfg.DetailTaxRate
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	if cfg.ProbeMonths <= 0 {
		cfg.ProbeMonths = 3
	}

	c := &Client{
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		logger:         log,
		baseURL:        cfg.BaseURL,
		version:        cfg.Version,
		listTaxRate:    listTaxRate,
		detailTaxRate:  detailTaxRate,
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
		probeMonths:    cfg.ProbeMonths,
		location:       time.FixedZone("CST", 8*60*60),
		now:            time.Now,
		apiKey:         cfg.APIKey,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = key
}

func (c *Client) getAPIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

// FetchInvoicesByCarrier lists the carrier's invoices between startDate and endDate.
// Records with an unusable number, date or amount are skipped, not fatal.
func (c *Client) FetchInvoicesByCarrier(ctx context.Context, carrierType domain.CarrierType, carrierNumber string, startDate, endDate time.Time) ([]domain.InvoiceInfo, error) {
	typeCode := carrierType.APICode()
	if typeCode == "" {
		return nil, fmt.Errorf("%w: unsupported carrier type %q", domain.ErrInvalidCarrier, carrierType)
	}

	params := url.Values{}
	params.Set("action", actionCarrierInvoices)
	params.Set("carrierType", typeCode)
	params.Set("carrierId", carrierNumber)
	params.Set("invDate", startDate.In(c.location).Format(queryDateLayout))
	params.Set("invEndDate", endDate.In(c.location).Format(queryDateLayout))

	var resp listResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, err
	}
	if err := resp.check(); err != nil {
		return nil, err
	}

	invoices := make([]domain.InvoiceInfo, 0, len(resp.Invoices))
	skipped := 0
	for _, record := range resp.Invoices {
		invoice, err := record.toInvoice(c.location, c.listTaxRate, typeCode, carrierNumber)
		if err != nil {
			skipped++
			c.logger.Warn(ctx, "Skipping unparseable invoice record",
				"error", err,
			)
			continue
		}
		invoices = append(invoices, invoice)
	}

	c.logger.Debug(ctx, "Fetched carrier invoices",
		"start_date", startDate.Format(queryDateLayout),
		"end_date", endDate.Format(queryDateLayout),
		"parsed", len(invoices),
		"skipped", skipped,
	)

	return invoices, nil
}

func (c *Client) FetchInvoiceByNumber(ctx context.Context, invoiceNumber string, invoiceDate time.Time) (*domain.InvoiceInfo, error) {
	return c.fetchDetail(ctx, invoiceNumber, invoiceDate, "")
}

type probeOutcome int

const (
	probeExhausted probeOutcome = iota
	probeMatched
)

// QueryInvoiceDetail looks up a scanned invoice whose issue month is unknown by probing
// the current month and the preceding ones, newest first.
//
// randomCode is forwarded to the API but the response is not checked against it.
func (c *Client) QueryInvoiceDetail(ctx context.Context, invoiceNumber, randomCode string) (*domain.InvoiceInfo, error) {
	periods := candidatePeriods(c.now().In(c.location), c.probeMonths)

	invoice, outcome, err := c.probe(ctx, invoiceNumber, randomCode, periods)
	if err != nil {
		return nil, err
	}

	switch outcome {
	case probeMatched:
		return invoice, nil
	default:
		return nil, parseError("invoice %s not found in the last %d months", invoiceNumber, len(periods))
	}
}

func (c *Client) probe(ctx context.Context, invoiceNumber, randomCode string, periods []time.Time) (*domain.InvoiceInfo, probeOutcome, error) {
	for _, period := range periods {
		invoice, err := c.fetchDetail(ctx, invoiceNumber, period, randomCode)
		if err == nil {
			return invoice, probeMatched, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, probeExhausted, ctxErr
		}
		// a bad key or URL fails every period the same way
		if errors.Is(err, ErrInvalidAPIKey) || errors.Is(err, ErrInvalidURL) {
			return nil, probeExhausted, err
		}

		c.logger.Debug(ctx, "No match for invoice in period",
			"invoice_number", invoiceNumber,
			"period", period.Format("2006-01"),
			"error", err,
		)
	}
	return nil, probeExhausted, nil
}

// candidatePeriods returns the first day of now's month and the n-1 months before it.
func candidatePeriods(now time.Time, n int) []time.Time {
	periods := make([]time.Time, 0, n)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := 0; i < n; i++ {
		periods = append(periods, first.AddDate(0, -i, 0))
	}
	return periods
}

func (c *Client) fetchDetail(ctx context.Context, invoiceNumber string, invoiceDate time.Time, randomCode string) (*domain.InvoiceInfo, error) {
	params := url.Values{}
	params.Set("action", actionInvoiceDetail)
	params.Set("invNum", invoiceNumber)
	params.Set("invDate", invoiceDate.In(c.location).Format(queryDateLayout))
	if randomCode != "" {
		params.Set("randomNumber", randomCode)
	}

	var resp detailResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, err
	}
	if err := resp.check(); err != nil {
		return nil, err
	}

	invoice, err := resp.toInvoice(c.location, c.detailTaxRate)
	if err != nil {
		return nil, err
	}
	if invoice.Number != invoiceNumber {
		return nil, parseError("requested invoice %s, got %s", invoiceNumber, invoice.Number)
	}

	return invoice, nil
}

func (e envelope) check() error {
	switch e.Code.String() {
	case successCode:
		return nil
	case unauthorizedCode:
		return fmt.Errorf("%w: %s", ErrInvalidAPIKey, e.Msg)
	default:
		return parseError("api code %q: %s", e.Code.String(), e.Msg)
	}
}

func (c *Client) get(ctx context.Context, params url.Values, out interface{}) error {
	apiKey := c.getAPIKey()
	if apiKey == "" {
		return ErrInvalidAPIKey
	}

	endpoint, err := url.Parse(c.baseURL)
	if err != nil || endpoint.Scheme == "" || endpoint.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, c.baseURL)
	}

	params.Set("version", c.version)
	params.Set("appID", apiKey)
	endpoint.RawQuery = params.Encode()

	var body []byte
	err = retry.Do(ctx, func() error {
		var doErr error
		body, doErr = c.do(ctx, endpoint.String())
		return doErr
	},
		retry.WithMaxAttempts(c.maxRetries),
		retry.WithBaseDelay(c.retryBaseDelay),
		retry.WithMaxDelay(maxRetryDelay),
		retry.WithRetryIf(IsRetryable),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Error(ctx, "Tax bureau request failed",
			"action", params.Get("action"),
			"error", err,
		)
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return body, nil
}
