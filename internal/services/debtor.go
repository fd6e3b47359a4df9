package services

import (
	"context"
	"fmt"

	"github.com/krarar/debt-manager/internal/model"
)

func (s *LedgerService) AddDebtor(ctx context.Context, req model.DebtorCreateRequest) (*model.Debtor, error) {
	now := model.Now()
	d := &model.Debtor{
		ID:        model.NewID(),
		Name:      req.Name,
		Phone:     req.Phone,
		Address:   req.Address,
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.debtors.Put(ctx, d); err != nil {
			return fmt.Errorf("put debtor: %w", err)
		}
		return s.outbox.Enqueue(ctx, model.OpCreateDebtor, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *LedgerService) GetDebtor(ctx context.Context, id string) (*model.Debtor, error) {
	d, err := s.debtors.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, model.ErrDebtorNotFound
	}
	return d, nil
}

func (s *LedgerService) GetAllDebtors(ctx context.Context) ([]*model.Debtor, error) {
	return s.debtors.GetAll(ctx)
}

func (s *LedgerService) UpdateDebtor(ctx context.Context, id string, patch model.DebtorPatch) (*model.Debtor, error) {
	var updated *model.Debtor
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		d, err := s.updateDebtor(ctx, id, patch)
		updated = d
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// updateDebtor must run inside a store transaction. The zero patch is the
// parent touch used by transaction mutations.
func (s *LedgerService) updateDebtor(ctx context.Context, id string, patch model.DebtorPatch) (*model.Debtor, error) {
	d, err := s.debtors.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, model.ErrDebtorNotFound
	}

	patch.Apply(d)
	d.UpdatedAt = advance(d.UpdatedAt)

	if err := s.debtors.Put(ctx, d); err != nil {
		return nil, fmt.Errorf("put debtor: %w", err)
	}
	if err := s.outbox.Enqueue(ctx, model.OpUpdateDebtor, d); err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDebtor removes the debtor and every transaction that references it.
// Each transaction goes through the regular delete path, so the outbox gets
// one DELETE_TRANSACTION per transaction followed by DELETE_DEBTOR. Nothing
// is removed if any step fails.
func (s *LedgerService) DeleteDebtor(ctx context.Context, id string) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		d, err := s.debtors.Get(ctx, id)
		if err != nil {
			return err
		}
		if d == nil {
			return model.ErrDebtorNotFound
		}

		txs, err := s.transactions.GetAllByIndex(ctx, "debtorId", id)
		if err != nil {
			return fmt.Errorf("list transactions of %s: %w", id, err)
		}
		for _, t := range txs {
			if err := s.deleteTransaction(ctx, t.ID); err != nil {
				return err
			}
		}

		if err := s.debtors.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete debtor: %w", err)
		}
		return s.outbox.Enqueue(ctx, model.OpDeleteDebtor, model.DeletePayload{ID: id})
	})
}
