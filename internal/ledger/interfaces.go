package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plantdesk/dms/internal/domain"
)

type transactionRepository interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.WalletTransaction) error
	ListByAccount(ctx context.Context, ref domain.AccountRef) ([]domain.WalletTransaction, error)
	ListByAccountTx(ctx context.Context, tx *sql.Tx, ref domain.AccountRef) ([]domain.WalletTransaction, error)
	ListInRange(ctx context.Context, ref domain.AccountRef, from, to time.Time) ([]domain.WalletTransaction, error)
	GetLatest(ctx context.Context, tx *sql.Tx, ref domain.AccountRef) (*domain.WalletTransaction, error)
	GetPreceding(ctx context.Context, tx *sql.Tx, ref domain.AccountRef, date time.Time, seq int64) (*domain.WalletTransaction, error)
	GetLastBefore(ctx context.Context, ref domain.AccountRef, cutoff time.Time) (*domain.WalletTransaction, error)
	UpdateBalanceAfter(ctx context.Context, tx *sql.Tx, id uuid.UUID, balance decimal.Decimal) error
	ShiftBalancesAfter(ctx context.Context, tx *sql.Tx, ref domain.AccountRef, date time.Time, seq int64, delta decimal.Decimal) (int64, error)
}

type walletRepository interface {
	Balance(ctx context.Context, ref domain.AccountRef) (decimal.Decimal, error)
	BalanceForUpdate(ctx context.Context, tx *sql.Tx, ref domain.AccountRef) (decimal.Decimal, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, ref domain.AccountRef, balance decimal.Decimal) error
}

type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
