package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/krarar/debt-manager/internal/exchange"
	"github.com/krarar/debt-manager/internal/model"
	"github.com/krarar/debt-manager/pkg/logger"
)

func (s *LedgerService) ExportData(ctx context.Context) (*model.Snapshot, error) {
	snap := &model.Snapshot{
		Settings:   map[string]json.RawMessage{},
		ExportedAt: model.Now(),
		Version:    model.SnapshotVersion,
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if snap.Debtors, err = s.debtors.GetAll(ctx); err != nil {
			return err
		}
		if snap.Transactions, err = s.transactions.GetAll(ctx); err != nil {
			return err
		}
		settings, err := s.settings.GetAll(ctx)
		if err != nil {
			return err
		}
		for _, st := range settings {
			snap.Settings[st.Key] = st.Value
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if snap.Debtors == nil {
		snap.Debtors = []*model.Debtor{}
	}
	if snap.Transactions == nil {
		snap.Transactions = []*model.Transaction{}
	}
	return snap, nil
}

// ExportDebtor returns one debtor with its transactions and balance.
func (s *LedgerService) ExportDebtor(ctx context.Context, id string) (*model.DebtorReport, error) {
	d, err := s.GetDebtor(ctx, id)
	if err != nil {
		return nil, err
	}
	txs, err := s.GetTransactionsByDebtor(ctx, id)
	if err != nil {
		return nil, err
	}
	balance, err := s.GetDebtorBalance(ctx, id)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []*model.Transaction{}
	}
	return &model.DebtorReport{
		Debtor:       d,
		Transactions: txs,
		Balance:      balance,
		ExportedAt:   model.Now(),
	}, nil
}

// ImportData loads a snapshot. Without merge every collection, the outbox
// included, is wiped first and records keep their ids and timestamps. With
// merge every debtor and transaction gets a fresh id, transactions follow
// their debtor's new id, and updatedAt is set to now so the imported
// records win the next sync. Settings are applied first, except the ones
// tied to this installation, which keep their local values. The import is a
// bulk load and does not enqueue outbox entries; it is all or nothing.
func (s *LedgerService) ImportData(ctx context.Context, snap *model.Snapshot, opts model.ImportOptions) (*model.ImportSummary, error) {
	if snap == nil {
		return nil, model.NewValidationError("invalid import data")
	}

	summary := &model.ImportSummary{}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if !opts.Merge {
			kept, err := s.installationSettings(ctx)
			if err != nil {
				return err
			}
			if err := s.clearAll(ctx); err != nil {
				return err
			}
			for _, st := range kept {
				if err := s.settings.Put(ctx, st); err != nil {
					return fmt.Errorf("keep setting %s: %w", st.Key, err)
				}
			}
		}

		for key, value := range snap.Settings {
			if model.IsInstallationSetting(key) {
				continue
			}
			if err := s.settings.Put(ctx, &model.Setting{Key: key, Value: value}); err != nil {
				return fmt.Errorf("import setting %s: %w", key, err)
			}
			summary.Settings++
		}

		now := model.Now()
		idMap := make(map[string]string, len(snap.Debtors))
		for _, src := range snap.Debtors {
			d := *src
			if opts.Merge {
				d.ID = model.NewID()
				d.UpdatedAt = now
				idMap[src.ID] = d.ID
			}
			if err := s.debtors.Put(ctx, &d); err != nil {
				return fmt.Errorf("import debtor %s: %w", src.ID, err)
			}
			summary.Debtors++
		}

		for _, src := range snap.Transactions {
			t := *src
			if opts.Merge {
				t.ID = model.NewID()
				t.UpdatedAt = now
				if mapped, ok := idMap[src.DebtorID]; ok {
					t.DebtorID = mapped
				} else {
					parent, err := s.debtors.Get(ctx, src.DebtorID)
					if err != nil {
						return err
					}
					if parent == nil {
						return model.NewValidationError("transaction %s references unknown debtor %s", src.ID, src.DebtorID)
					}
				}
			}
			if err := s.transactions.Put(ctx, &t); err != nil {
				return fmt.Errorf("import transaction %s: %w", src.ID, err)
			}
			summary.Transactions++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("ledger imported",
		"merge", opts.Merge,
		"debtors", summary.Debtors,
		"transactions", summary.Transactions,
		"settings", summary.Settings)
	return summary, nil
}

func (s *LedgerService) installationSettings(ctx context.Context) ([]*model.Setting, error) {
	var kept []*model.Setting
	for _, key := range model.InstallationSettings {
		st, err := s.settings.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if st != nil {
			kept = append(kept, st)
		}
	}
	return kept, nil
}

// ImportTransactionsCSV records every usable row of a transaction sheet
// against debtorID through the regular add path, so each row reaches the
// outbox. Either all rows are recorded or none.
func (s *LedgerService) ImportTransactionsCSV(ctx context.Context, debtorID string, r io.Reader) (int, error) {
	rows, err := exchange.ParseTransactionsCSV(r)
	if err != nil {
		return 0, err
	}

	var imported []*model.Transaction
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, row := range rows {
			row.DebtorID = debtorID
			t, err := s.AddTransaction(ctx, row)
			if err != nil {
				return err
			}
			imported = append(imported, t)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(imported), nil
}

// ClearAllData empties all four collections.
func (s *LedgerService) ClearAllData(ctx context.Context) error {
	return s.tx.WithinTransaction(ctx, s.clearAll)
}

func (s *LedgerService) clearAll(ctx context.Context) error {
	if err := s.transactions.Clear(ctx); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	if err := s.debtors.Clear(ctx); err != nil {
		return fmt.Errorf("clear debtors: %w", err)
	}
	if err := s.settings.Clear(ctx); err != nil {
		return fmt.Errorf("clear settings: %w", err)
	}
	if err := s.outbox.Clear(ctx); err != nil {
		return fmt.Errorf("clear outbox: %w", err)
	}
	return nil
}
