package services

import (
	"context"
	"strings"
	"time"

	"github.com/krarar/debt-manager/internal/model"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// GetDebtorBalance is Σdebt − Σpayment over the debtor's transactions,
// recomputed on every call. An unknown debtor has balance zero.
func (s *LedgerService) GetDebtorBalance(ctx context.Context, debtorID string) (decimal.Decimal, error) {
	txs, err := s.transactions.GetAllByIndex(ctx, "debtorId", debtorID)
	if err != nil {
		return decimal.Zero, err
	}
	balance := decimal.Zero
	for _, t := range txs {
		balance = balance.Add(t.Signed())
	}
	return balance, nil
}

// GetDebtorStats aggregates the whole ledger in one pass over transactions.
func (s *LedgerService) GetDebtorStats(ctx context.Context) (*model.Stats, error) {
	debtors, err := s.debtors.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := s.transactions.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &model.Stats{
		TotalDebtors:   len(debtors),
		TotalDebts:     decimal.Zero,
		TotalPayments:  decimal.Zero,
		TotalBalance:   decimal.Zero,
		DebtorBalances: make(map[string]decimal.Decimal),
	}
	for _, t := range txs {
		switch t.Type {
		case model.TransactionTypeDebt:
			stats.TotalDebts = stats.TotalDebts.Add(t.Amount)
		case model.TransactionTypePayment:
			stats.TotalPayments = stats.TotalPayments.Add(t.Amount)
		}
		stats.DebtorBalances[t.DebtorID] = stats.DebtorBalances[t.DebtorID].Add(t.Signed())
	}
	for _, b := range stats.DebtorBalances {
		if b.IsPositive() {
			stats.TotalBalance = stats.TotalBalance.Add(b)
		}
	}
	return stats, nil
}

// GetTransactionsInDateRange returns transactions created within
// [start, end], both bounds inclusive.
func (s *LedgerService) GetTransactionsInDateRange(ctx context.Context, start, end time.Time) ([]*model.Transaction, error) {
	if end.Before(start) {
		return nil, model.NewValidationError("range end %s is before start %s", end, start)
	}
	return s.transactions.GetCreatedBetween(ctx, start, end)
}

func (s *LedgerService) SearchDebtors(ctx context.Context, query string) ([]*model.Debtor, error) {
	debtors, err := s.debtors.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	m := newMatcher(query)
	var out []*model.Debtor
	for _, d := range debtors {
		if m.any(d.Name, d.Phone, d.Address, d.Notes) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *LedgerService) SearchTransactions(ctx context.Context, query string) ([]*model.Transaction, error) {
	txs, err := s.transactions.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	m := newMatcher(query)
	var out []*model.Transaction
	for _, t := range txs {
		if m.any(t.Product, t.Notes, t.Amount.String()) {
			out = append(out, t)
		}
	}
	return out, nil
}

// matcher does case-insensitive substring matching with Unicode case
// folding.
type matcher struct {
	fold  cases.Caser
	query string
}

func newMatcher(query string) *matcher {
	fold := cases.Fold()
	return &matcher{fold: fold, query: fold.String(strings.TrimSpace(query))}
}

func (m *matcher) any(fields ...string) bool {
	for _, f := range fields {
		if f != "" && strings.Contains(m.fold.String(f), m.query) {
			return true
		}
	}
	return false
}
