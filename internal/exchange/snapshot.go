// Package exchange reads and writes the ledger's file formats: the JSON
// snapshot used for backup and restore, and the CSV transaction sheets.
package exchange

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/krarar/debt-manager/internal/model"
	"github.com/shopspring/decimal"
)

type debtorDTO struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Address   string     `json:"address"`
	Notes     string     `json:"notes"`
	CreatedAt *time.Time `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

type transactionDTO struct {
	ID            string           `json:"id"`
	DebtorID      string           `json:"debtorId"`
	Type          string           `json:"type"`
	Amount        *decimal.Decimal `json:"amount"`
	Currency      string           `json:"currency"`
	Product       string           `json:"product"`
	Notes         string           `json:"notes"`
	PaymentMethod string           `json:"paymentMethod"`
	CreatedAt     *time.Time       `json:"createdAt"`
	UpdatedAt     *time.Time       `json:"updatedAt"`
}

type snapshotDTO struct {
	Debtors      *[]debtorDTO               `json:"debtors"`
	Transactions *[]transactionDTO          `json:"transactions"`
	Settings     map[string]json.RawMessage `json:"settings"`
	ExportedAt   *time.Time                 `json:"exportedAt"`
	Version      int                        `json:"version"`
}

// DecodeSnapshot parses and validates an export document. Any invalid
// record rejects the whole document with a model.ValidationError.
func DecodeSnapshot(r io.Reader) (*model.Snapshot, error) {
	var dto snapshotDTO
	if err := json.NewDecoder(r).Decode(&dto); err != nil {
		var validationErr *model.ValidationError
		if errors.As(err, &validationErr) {
			return nil, err
		}
		return nil, model.NewValidationError("invalid data format: %v", err)
	}
	return dto.toModel()
}

func (dto *snapshotDTO) toModel() (*model.Snapshot, error) {
	if dto.Debtors == nil && dto.Transactions == nil && dto.Settings == nil {
		return nil, model.NewValidationError("no valid data found")
	}

	now := model.Now()
	snap := &model.Snapshot{
		Settings: dto.Settings,
		Version:  dto.Version,
	}
	if snap.Settings == nil {
		snap.Settings = map[string]json.RawMessage{}
	}
	if dto.ExportedAt != nil {
		snap.ExportedAt = dto.ExportedAt.UTC()
	}

	if dto.Debtors != nil {
		for i, d := range *dto.Debtors {
			if d.ID == "" || d.Name == "" {
				return nil, model.NewValidationError("invalid debtor data at %d: missing id or name", i)
			}
			created := timeOr(d.CreatedAt, now)
			snap.Debtors = append(snap.Debtors, &model.Debtor{
				ID:        d.ID,
				Name:      d.Name,
				Phone:     d.Phone,
				Address:   d.Address,
				Notes:     d.Notes,
				CreatedAt: created,
				UpdatedAt: timeOr(d.UpdatedAt, created),
			})
		}
	}

	if dto.Transactions != nil {
		for i, t := range *dto.Transactions {
			if t.ID == "" || t.DebtorID == "" || t.Type == "" || t.Amount == nil {
				return nil, model.NewValidationError("invalid transaction data at %d: missing required fields", i)
			}
			typ, err := model.ParseTransactionType(t.Type)
			if err != nil {
				return nil, err
			}
			if !t.Amount.IsPositive() {
				return nil, model.NewValidationError("invalid transaction data at %d: amount must be greater than zero", i)
			}
			currency := t.Currency
			if currency == "" {
				currency = model.DefaultCurrency
			}
			created := timeOr(t.CreatedAt, now)
			snap.Transactions = append(snap.Transactions, &model.Transaction{
				ID:            t.ID,
				DebtorID:      t.DebtorID,
				Type:          typ,
				Amount:        *t.Amount,
				Currency:      currency,
				Product:       t.Product,
				Notes:         t.Notes,
				PaymentMethod: t.PaymentMethod,
				CreatedAt:     created,
				UpdatedAt:     timeOr(t.UpdatedAt, created),
			})
		}
	}
	return snap, nil
}

func timeOr(t *time.Time, fallback time.Time) time.Time {
	if t == nil || t.IsZero() {
		return fallback
	}
	return t.UTC().Truncate(time.Millisecond)
}

// EncodeSnapshot writes the snapshot as indented JSON.
func EncodeSnapshot(w io.Writer, snap *model.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

func EncodeDebtorReport(w io.Writer, report *model.DebtorReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
