package services

import (
	"context"
	"time"

	"github.com/krarar/debt-manager/internal/model"
)

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type DebtorRepository interface {
	Put(ctx context.Context, d *model.Debtor) error
	Get(ctx context.Context, id string) (*model.Debtor, error)
	GetAll(ctx context.Context) ([]*model.Debtor, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

type TransactionRepository interface {
	Put(ctx context.Context, t *model.Transaction) error
	Get(ctx context.Context, id string) (*model.Transaction, error)
	GetAll(ctx context.Context) ([]*model.Transaction, error)
	GetAllByIndex(ctx context.Context, index string, value any) ([]*model.Transaction, error)
	GetCreatedBetween(ctx context.Context, from, to time.Time) ([]*model.Transaction, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

type SettingRepository interface {
	Put(ctx context.Context, s *model.Setting) error
	Get(ctx context.Context, key string) (*model.Setting, error)
	GetAll(ctx context.Context) ([]*model.Setting, error)
	Clear(ctx context.Context) error
}

// Outbox receives one entry per local mutation.
type Outbox interface {
	Enqueue(ctx context.Context, op model.OpType, payload any) error
	Clear(ctx context.Context) error
}

// LedgerService owns every mutation of the local ledger. Each mutation,
// together with the parent debtor touch and its outbox entry, commits as
// one store transaction.
type LedgerService struct {
	tx           Transactor
	debtors      DebtorRepository
	transactions TransactionRepository
	settings     SettingRepository
	outbox       Outbox
}

func NewLedgerService(tx Transactor, debtors DebtorRepository, transactions TransactionRepository, settings SettingRepository, outbox Outbox) *LedgerService {
	return &LedgerService{
		tx:           tx,
		debtors:      debtors,
		transactions: transactions,
		settings:     settings,
		outbox:       outbox,
	}
}
