package exchange

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/krarar/debt-manager/internal/model"
	"github.com/shopspring/decimal"
)

// DateLayout is the timestamp format of CSV sheets.
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	debtorSheetHeader = []string{"Date", "Type", "Amount", "Currency", "Product", "Notes", "Payment Method"}
	ledgerSheetHeader = []string{"ID", "Debtor Name", "Date", "Type", "Amount", "Currency", "Product", "Notes", "Payment Method"}
)

// accepted when parsing, most specific first
var parseLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"1/2/2006",
}

func currencyOf(t *model.Transaction) string {
	if t.Currency == "" {
		return model.DefaultCurrency
	}
	return t.Currency
}

// WriteDebtorCSV writes the per-debtor sheet: a short preamble with the
// debtor's details and balance, a blank line, then one row per transaction.
func WriteDebtorCSV(w io.Writer, debtor *model.Debtor, txs []*model.Transaction, balance decimal.Decimal) error {
	_, err := fmt.Fprintf(w, "Debtor: %s\nPhone: %s\nAddress: %s\nCurrent Balance: %s\n\n",
		debtor.Name, debtor.Phone, debtor.Address, balance.String())
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(debtorSheetHeader); err != nil {
		return err
	}
	for _, t := range txs {
		row := []string{
			t.CreatedAt.UTC().Format(DateLayout),
			string(t.Type),
			t.Amount.String(),
			currencyOf(t),
			t.Product,
			t.Notes,
			t.PaymentMethod,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTransactionsCSV writes the whole-ledger sheet. names maps debtor id
// to display name; rows whose debtor is missing show "Unknown".
func WriteTransactionsCSV(w io.Writer, txs []*model.Transaction, names map[string]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ledgerSheetHeader); err != nil {
		return err
	}
	for _, t := range txs {
		name, ok := names[t.DebtorID]
		if !ok {
			name = "Unknown"
		}
		row := []string{
			t.ID,
			name,
			t.CreatedAt.UTC().Format(DateLayout),
			string(t.Type),
			t.Amount.String(),
			currencyOf(t),
			t.Product,
			t.Notes,
			t.PaymentMethod,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParseTransactionsCSV reads a transaction sheet in the per-debtor column
// order (Date, Type, Amount, Currency, Product, Notes, Payment Method).
// Everything up to and including the header row is skipped; without a
// "Date" header the first record is taken as the header. Rows with fewer
// than three fields or a non-positive amount are skipped. Type defaults to
// debt, currency to IQD and payment method to cash; an empty date means now.
func ParseTransactionsCSV(r io.Reader) ([]model.TransactionCreateRequest, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, model.NewValidationError("read csv: %v", err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, nil
	}

	start := 1
	for i, rec := range records {
		if strings.EqualFold(strings.TrimSpace(rec[0]), "date") {
			start = i + 1
			break
		}
	}

	now := model.Now()
	var out []model.TransactionCreateRequest
	for i := start; i < len(records); i++ {
		rec := records[i]
		if len(rec) < 3 {
			continue
		}
		field := func(n int) string {
			if n < len(rec) {
				return strings.TrimSpace(rec[n])
			}
			return ""
		}

		amount, err := decimal.NewFromString(field(2))
		if err != nil || !amount.IsPositive() {
			continue
		}

		created := now
		if s := field(0); s != "" {
			created, err = parseDate(s)
			if err != nil {
				return nil, model.NewValidationError("row %d: invalid date %q", i+1, s)
			}
		}

		typ := model.TransactionTypeDebt
		if strings.EqualFold(field(1), string(model.TransactionTypePayment)) {
			typ = model.TransactionTypePayment
		}

		req := model.TransactionCreateRequest{
			Type:          typ,
			Amount:        amount,
			Currency:      field(3),
			Product:       field(4),
			Notes:         field(5),
			PaymentMethod: field(6),
			CreatedAt:     created,
		}
		if req.Currency == "" {
			req.Currency = model.DefaultCurrency
		}
		if req.PaymentMethod == "" {
			req.PaymentMethod = "cash"
		}
		out = append(out, req)
	}
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Millisecond), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
