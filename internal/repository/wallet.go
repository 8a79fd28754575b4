package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/plantdesk/dms/internal/domain"
)

// WalletRepository reads and writes the cached wallet_balance column on
// whichever table owns the account.
type WalletRepository struct {
	db *sql.DB
}

func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func walletTable(kind domain.AccountKind) (string, error) {
	switch kind {
	case domain.AccountKindDistributor:
		return "distributors", nil
	case domain.AccountKindStore:
		return "stores", nil
	default:
		return "", fmt.Errorf("unknown account kind %q", kind)
	}
}

func accountColumn(kind domain.AccountKind) (string, error) {
	switch kind {
	case domain.AccountKindDistributor:
		return "distributor_id", nil
	case domain.AccountKindStore:
		return "store_id", nil
	default:
		return "", fmt.Errorf("unknown account kind %q", kind)
	}
}

func (r *WalletRepository) Balance(ctx context.Context, ref domain.AccountRef) (decimal.Decimal, error) {
	return r.balance(ctx, r.db, ref, "")
}

// BalanceForUpdate locks the account row for the life of tx. Every ledger
// mutation takes this lock before touching transaction rows.
func (r *WalletRepository) BalanceForUpdate(ctx context.Context, tx *sql.Tx, ref domain.AccountRef) (decimal.Decimal, error) {
	return r.balance(ctx, tx, ref, " FOR UPDATE")
}

func (r *WalletRepository) balance(ctx context.Context, q querier, ref domain.AccountRef, suffix string) (decimal.Decimal, error) {
	table, err := walletTable(ref.Kind)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("Balance: %w", err)
	}

	var balance decimal.Decimal
	err = q.QueryRowContext(ctx,
		`SELECT wallet_balance FROM `+table+` WHERE id = $1`+suffix, ref.ID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Decimal{}, fmt.Errorf("Balance: %w", domain.ErrAccountNotFound)
		}
		return decimal.Decimal{}, fmt.Errorf("Balance: %w", err)
	}
	return balance, nil
}

func (r *WalletRepository) UpdateBalance(ctx context.Context, tx *sql.Tx, ref domain.AccountRef, balance decimal.Decimal) error {
	table, err := walletTable(ref.Kind)
	if err != nil {
		return fmt.Errorf("UpdateBalance: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE `+table+` SET wallet_balance = $1 WHERE id = $2`,
		balance, ref.ID,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalance: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateBalance: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateBalance: %w", domain.ErrAccountNotFound)
	}
	return nil
}
