package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Stats is the ledger-wide rollup. TotalBalance sums only positive
// per-debtor balances; overpaid debtors do not offset others.
type Stats struct {
	TotalDebtors   int                        `json:"totalDebtors"`
	TotalDebts     decimal.Decimal            `json:"totalDebts"`
	TotalPayments  decimal.Decimal            `json:"totalPayments"`
	TotalBalance   decimal.Decimal            `json:"totalBalance"`
	DebtorBalances map[string]decimal.Decimal `json:"debtorBalances"`
}

// Snapshot is the full export document.
type Snapshot struct {
	Debtors      []*Debtor                  `json:"debtors"`
	Transactions []*Transaction             `json:"transactions"`
	Settings     map[string]json.RawMessage `json:"settings"`
	ExportedAt   time.Time                  `json:"exportedAt"`
	Version      int                        `json:"version"`
}

// SnapshotVersion is written into every export.
const SnapshotVersion = 1

type ImportOptions struct {
	Merge bool
}

// DebtorReport is the single-debtor export: the record, its transactions
// and the balance derived from them.
type DebtorReport struct {
	Debtor       *Debtor         `json:"debtor"`
	Transactions []*Transaction  `json:"transactions"`
	Balance      decimal.Decimal `json:"balance"`
	ExportedAt   time.Time       `json:"exportedAt"`
}

// ImportSummary counts what an import wrote.
type ImportSummary struct {
	Debtors      int `json:"debtors"`
	Transactions int `json:"transactions"`
	Settings     int `json:"settings"`
}
