package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/krarar/debt-manager/internal/model"
	"github.com/krarar/debt-manager/pkg/logger"
)

// advance returns now, or one millisecond past prev when the clock has not
// moved on since the previous write.
func advance(prev time.Time) time.Time {
	now := model.Now()
	if !now.After(prev) {
		return prev.Add(time.Millisecond)
	}
	return now
}

// AddTransaction records a debt or payment and touches the parent debtor.
// The amount is not re-checked here; callers reject non-positive amounts.
func (s *LedgerService) AddTransaction(ctx context.Context, req model.TransactionCreateRequest) (*model.Transaction, error) {
	if !req.Type.Valid() {
		return nil, model.NewValidationError("invalid transaction type %q", req.Type)
	}

	now := model.Now()
	created := now
	if !req.CreatedAt.IsZero() {
		created = req.CreatedAt.UTC().Truncate(time.Millisecond)
	}
	currency := req.Currency
	if currency == "" {
		currency = model.DefaultCurrency
	}

	t := &model.Transaction{
		ID:            model.NewID(),
		DebtorID:      req.DebtorID,
		Type:          req.Type,
		Amount:        req.Amount,
		Currency:      currency,
		Product:       req.Product,
		Notes:         req.Notes,
		PaymentMethod: req.PaymentMethod,
		CreatedAt:     created,
		UpdatedAt:     now,
	}
	if t.UpdatedAt.Before(t.CreatedAt) {
		t.UpdatedAt = t.CreatedAt
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.addTransaction(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *LedgerService) addTransaction(ctx context.Context, t *model.Transaction) error {
	parent, err := s.debtors.Get(ctx, t.DebtorID)
	if err != nil {
		return err
	}
	if parent == nil {
		return model.ErrDebtorNotFound
	}

	if err := s.transactions.Put(ctx, t); err != nil {
		return fmt.Errorf("put transaction: %w", err)
	}
	if err := s.touchDebtor(ctx, t.DebtorID); err != nil {
		return err
	}
	return s.outbox.Enqueue(ctx, model.OpCreateTransaction, t)
}

// touchDebtor advances the parent's updatedAt. A transaction downloaded
// ahead of its debtor has no parent to touch; that is not an error.
func (s *LedgerService) touchDebtor(ctx context.Context, debtorID string) error {
	_, err := s.updateDebtor(ctx, debtorID, model.DebtorPatch{})
	if errors.Is(err, model.ErrDebtorNotFound) {
		logger.Debug("transaction parent missing, touch skipped", "debtorId", debtorID)
		return nil
	}
	return err
}

func (s *LedgerService) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	t, err := s.transactions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, model.ErrTransactionNotFound
	}
	return t, nil
}

func (s *LedgerService) GetAllTransactions(ctx context.Context) ([]*model.Transaction, error) {
	return s.transactions.GetAll(ctx)
}

func (s *LedgerService) GetTransactionsByDebtor(ctx context.Context, debtorID string) ([]*model.Transaction, error) {
	return s.transactions.GetAllByIndex(ctx, "debtorId", debtorID)
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, id string, patch model.TransactionPatch) (*model.Transaction, error) {
	if patch.Type != nil && !patch.Type.Valid() {
		return nil, model.NewValidationError("invalid transaction type %q", *patch.Type)
	}

	var updated *model.Transaction
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		t, err := s.transactions.Get(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return model.ErrTransactionNotFound
		}

		patch.Apply(t)
		t.UpdatedAt = advance(t.UpdatedAt)

		if err := s.transactions.Put(ctx, t); err != nil {
			return fmt.Errorf("put transaction: %w", err)
		}
		if err := s.touchDebtor(ctx, t.DebtorID); err != nil {
			return err
		}
		if err := s.outbox.Enqueue(ctx, model.OpUpdateTransaction, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.deleteTransaction(ctx, id)
	})
}

func (s *LedgerService) deleteTransaction(ctx context.Context, id string) error {
	t, err := s.transactions.Get(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return model.ErrTransactionNotFound
	}

	if err := s.transactions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if err := s.touchDebtor(ctx, t.DebtorID); err != nil {
		return err
	}
	return s.outbox.Enqueue(ctx, model.OpDeleteTransaction, model.DeletePayload{ID: id})
}
