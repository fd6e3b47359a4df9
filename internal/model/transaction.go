package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Export files and the remote store carry amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

const DefaultCurrency = "IQD"

// TransactionType is the closed set of ledger entry kinds.
type TransactionType string

const (
	TransactionTypeDebt    TransactionType = "debt"
	TransactionTypePayment TransactionType = "payment"
)

func (t TransactionType) Valid() bool {
	return t == TransactionTypeDebt || t == TransactionTypePayment
}

func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(s)
	if !t.Valid() {
		return "", NewValidationError("invalid transaction type %q", s)
	}
	return t, nil
}

func (t *TransactionType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("transaction type: %w", err)
	}
	parsed, err := ParseTransactionType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

type Transaction struct {
	ID            string          `json:"id"`
	DebtorID      string          `json:"debtorId"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Product       string          `json:"product,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Signed returns the amount as it contributes to the debtor's balance.
func (t *Transaction) Signed() decimal.Decimal {
	if t.Type == TransactionTypePayment {
		return t.Amount.Neg()
	}
	return t.Amount
}

// TransactionCreateRequest is the input for recording a debt or payment.
// Callers must reject a non-positive Amount before passing it on.
type TransactionCreateRequest struct {
	DebtorID      string          `json:"debtorId"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency,omitempty"`
	Product       string          `json:"product,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	// CreatedAt backdates the entry (CSV import); zero means now.
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

func (r TransactionCreateRequest) Validate() error {
	if r.DebtorID == "" {
		return NewValidationError("debtorId is required")
	}
	if !r.Type.Valid() {
		return NewValidationError("invalid transaction type %q", r.Type)
	}
	if !r.Amount.IsPositive() {
		return NewValidationError("amount must be greater than zero")
	}
	return nil
}

type TransactionPatch struct {
	Type          *TransactionType `json:"type,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Currency      *string          `json:"currency,omitempty"`
	Product       *string          `json:"product,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
	PaymentMethod *string          `json:"paymentMethod,omitempty"`
}

func (p TransactionPatch) Validate() error {
	if p.Amount != nil && !p.Amount.IsPositive() {
		return NewValidationError("amount must be greater than zero")
	}
	return nil
}

func (p TransactionPatch) Apply(t *Transaction) {
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Currency != nil {
		t.Currency = *p.Currency
	}
	if p.Product != nil {
		t.Product = *p.Product
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.PaymentMethod != nil {
		t.PaymentMethod = *p.PaymentMethod
	}
}
