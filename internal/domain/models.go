package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CarrierType string

const (
	CarrierTypeMobileBarcode      CarrierType = "mobile_barcode"
	CarrierTypeCitizenCertificate CarrierType = "citizen_certificate"
	CarrierTypeEasyCard           CarrierType = "easycard"
)

// APICode returns the carrier type code the tax bureau expects in carrierType.
func (t CarrierType) APICode() string {
	switch t {
	case CarrierTypeMobileBarcode:
		return "3J0002"
	case CarrierTypeCitizenCertificate:
		return "CQ0001"
	case CarrierTypeEasyCard:
		return "1K0001"
	default:
		return ""
	}
}

func (t CarrierType) Valid() bool {
	return t.APICode() != ""
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Carrier struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	Type       CarrierType `json:"type"`
	Number     string      `json:"number"`
	Name       string      `json:"name"`
	IsDefault  bool        `json:"is_default"`
	LastSyncAt *time.Time  `json:"last_sync_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

type LineItem struct {
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

// InvoiceInfo is one government invoice record, normalized from either API response shape.
// It is built once per fetch and not modified afterwards.
type InvoiceInfo struct {
	Number        string          `json:"number"`
	Date          time.Time       `json:"date"`
	Period        string          `json:"period,omitempty"`
	SellerName    string          `json:"seller_name"`
	SellerBan     string          `json:"seller_ban,omitempty"`
	BuyerBan      string          `json:"buyer_ban,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	Items         []LineItem      `json:"items,omitempty"`
	CarrierType   string          `json:"carrier_type,omitempty"`
	CarrierNumber string          `json:"carrier_number,omitempty"`
}

type TransactionType string

const (
	TransactionTypeExpense TransactionType = "expense"
	TransactionTypeIncome  TransactionType = "income"
)

type Category string

const (
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryMedical       Category = "medical"
	CategoryEducation     Category = "education"
	CategoryShopping      Category = "shopping"
	CategoryEntertainment Category = "entertainment"
	CategoryHousing       Category = "housing"
	CategoryOther         Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryTransport, CategoryMedical, CategoryEducation,
		CategoryShopping, CategoryEntertainment, CategoryHousing, CategoryOther:
		return true
	}
	return false
}

type InputMethod string

const (
	InputMethodManual        InputMethod = "manual"
	InputMethodInvoiceSync   InputMethod = "invoice_sync"
	InputMethodInvoiceImport InputMethod = "invoice_import"
)

type Transaction struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	CarrierID       string          `json:"carrier_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Type            TransactionType `json:"type"`
	Category        Category        `json:"category"`
	Description     string          `json:"description"`
	Date            time.Time       `json:"date"`
	Notes           string          `json:"notes,omitempty"`
	InvoiceNumber   *string         `json:"invoice_number,omitempty"`
	InvoiceDate     *time.Time      `json:"invoice_date,omitempty"`
	MerchantName    string          `json:"merchant_name,omitempty"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	InputMethod     InputMethod     `json:"input_method"`
	AutoCategorized bool            `json:"auto_categorized"`
	CreatedAt       time.Time       `json:"created_at"`
}

type SyncRunStatus string

const (
	SyncRunStatusSuccess SyncRunStatus = "success"
	SyncRunStatusFailed  SyncRunStatus = "failed"
)

// SyncRun is the persisted outcome of one reconciliation cycle.
type SyncRun struct {
	ID         string        `json:"id"`
	CarrierID  string        `json:"carrier_id"`
	Status     SyncRunStatus `json:"status"`
	Fetched    int           `json:"fetched"`
	Created    int           `json:"created"`
	Duplicates int           `json:"duplicates"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

type SyncSummary struct {
	CarrierID    string        `json:"carrier_id"`
	StartDate    time.Time     `json:"start_date"`
	EndDate      time.Time     `json:"end_date"`
	Fetched      int           `json:"fetched"`
	Created      int           `json:"created"`
	Duplicates   int           `json:"duplicates"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
	Transactions []Transaction `json:"transactions,omitempty"`
}

type SyncStatus struct {
	IsSyncing  bool       `json:"is_syncing"`
	LastError  string     `json:"last_error,omitempty"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
}
