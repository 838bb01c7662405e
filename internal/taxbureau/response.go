package taxbureau

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/grachmannico95/einvoice-sync/internal/domain"
	"github.com/shopspring/decimal"
)

// flexString accepts a JSON string, number or null. The API is inconsistent about quoting.
// Any other JSON value decodes to empty so only the record holding it is rejected.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		*f = ""
		return nil
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string {
	return strings.TrimSpace(string(f))
}

type envelope struct {
	Code flexString `json:"code"`
	Msg  string     `json:"msg"`
}

type listResponse struct {
	envelope
	Invoices []listRecord `json:"invNum"`
}

type listRecord struct {
	InvNum     flexString `json:"invNum"`
	InvDate    flexString `json:"invDate"`
	InvPeriod  flexString `json:"invPeriod"`
	SellerName flexString `json:"sellerName"`
	SellerBan  flexString `json:"sellerBan"`
	BuyerBan   flexString `json:"buyerBan"`
	Amount     flexString `json:"amount"`
	CardType   flexString `json:"cardType"`
	CardNo     flexString `json:"cardNo"`
}

type detailResponse struct {
	envelope
	InvNum     flexString   `json:"invNum"`
	InvDate    flexString   `json:"invDate"`
	InvPeriod  flexString   `json:"invPeriod"`
	InvStatus  string       `json:"invStatus"`
	SellerName string       `json:"sellerName"`
	SellerBan  flexString   `json:"sellerBan"`
	BuyerBan   flexString   `json:"buyerBan"`
	Amount     flexString   `json:"amount"`
	Details    []detailItem `json:"invDetail"`
}

type detailItem struct {
	RowNum      flexString `json:"rowNum"`
	Description string     `json:"description"`
	Quantity    flexString `json:"quantity"`
	UnitPrice   flexString `json:"unitPrice"`
	Amount      flexString `json:"amount"`
}

var dateLayouts = []string{"2006-01-02", "20060102", "2006/01/02"}

func parseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

func parseAmount(value string) (decimal.Decimal, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if value == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}

// toInvoice converts one list record. Records without a number, date or amount are rejected.
func (r listRecord) toInvoice(loc *time.Location, taxRate decimal.Decimal, carrierType, carrierNumber string) (domain.InvoiceInfo, error) {
	number := r.InvNum.String()
	if number == "" {
		return domain.InvoiceInfo{}, fmt.Errorf("missing invoice number")
	}

	date, err := parseDate(r.InvDate.String(), loc)
	if err != nil {
		return domain.InvoiceInfo{}, fmt.Errorf("invoice %s: %w", number, err)
	}

	amount, err := parseAmount(r.Amount.String())
	if err != nil {
		return domain.InvoiceInfo{}, fmt.Errorf("invoice %s: %w", number, err)
	}

	return domain.InvoiceInfo{
		Number:        number,
		Date:          date,
		Period:        r.InvPeriod.String(),
		SellerName:    r.SellerName.String(),
		SellerBan:     r.SellerBan.String(),
		BuyerBan:      r.BuyerBan.String(),
		Amount:        amount,
		TaxAmount:     amount.Mul(taxRate).Round(2),
		CarrierType:   carrierType,
		CarrierNumber: carrierNumber,
	}, nil
}

// toInvoice converts a detail response. Any date or amount problem fails the whole record.
func (r detailResponse) toInvoice(loc *time.Location, taxRate decimal.Decimal) (*domain.InvoiceInfo, error) {
	number := r.InvNum.String()
	if number == "" {
		return nil, parseError("missing invoice number")
	}

	date, err := parseDate(r.InvDate.String(), loc)
	if err != nil {
		return nil, parseError("invoice %s: %v", number, err)
	}

	total, err := parseAmount(r.Amount.String())
	if err != nil {
		return nil, parseError("invoice %s: %v", number, err)
	}

	items := make([]domain.LineItem, 0, len(r.Details))
	for _, d := range r.Details {
		item, ok := d.toLineItem()
		if !ok {
			continue
		}
		items = append(items, item)
	}

	// total is tax inclusive
	tax := total.Mul(taxRate).Div(decimal.NewFromInt(1).Add(taxRate)).Round(2)

	return &domain.InvoiceInfo{
		Number:     number,
		Date:       date,
		Period:     r.InvPeriod.String(),
		SellerName: strings.TrimSpace(r.SellerName),
		SellerBan:  r.SellerBan.String(),
		BuyerBan:   r.BuyerBan.String(),
		Amount:     total,
		TaxAmount:  tax,
		Items:      items,
	}, nil
}

func (d detailItem) toLineItem() (domain.LineItem, bool) {
	amount, err := parseAmount(d.Amount.String())
	if err != nil {
		return domain.LineItem{}, false
	}

	quantity, err := parseAmount(d.Quantity.String())
	if err != nil {
		quantity = decimal.NewFromInt(1)
	}

	unitPrice, err := parseAmount(d.UnitPrice.String())
	if err != nil {
		unitPrice = amount
		if !quantity.IsZero() {
			unitPrice = amount.Div(quantity).Round(2)
		}
	}

	return domain.LineItem{
		Name:      strings.TrimSpace(d.Description),
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Amount:    amount,
	}, true
}
