package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plantdesk/dms/internal/domain"
)

const transactionColumns = `id, seq, distributor_id, store_id, date, type, amount,
	balance_after, order_id, transfer_id, return_id, payment_method, remarks,
	initiated_by, created_at`

type WalletTransactionRepository struct {
	db *sql.DB
}

func NewWalletTransactionRepository(db *sql.DB) *WalletTransactionRepository {
	return &WalletTransactionRepository{db: db}
}

// Create inserts the row and fills in the store-assigned Seq. Amount must
// already be in signed form.
func (r *WalletTransactionRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.WalletTransaction) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO wallet_transactions (
			id, distributor_id, store_id, date, type, amount, balance_after,
			order_id, transfer_id, return_id, payment_method, remarks,
			initiated_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING seq`,
		t.ID, t.DistributorID, t.StoreID, t.Date, t.Type, t.Amount, t.BalanceAfter,
		t.OrderID, t.TransferID, t.ReturnID, t.PaymentMethod, t.Remarks,
		t.InitiatedBy, t.CreatedAt,
	).Scan(&t.Seq)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *WalletTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.WalletTransaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM wallet_transactions WHERE id = $1`, id,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

// ListByAccount returns every row for the account in (date, seq) order.
func (r *WalletTransactionRepository) ListByAccount(ctx context.Context, ref domain.AccountRef) ([]domain.WalletTransaction, error) {
	return r.listByAccount(ctx, r.db, ref)
}

// ListByAccountTx is ListByAccount inside a transaction, so a recomputation
// sees rows inserted earlier in the same transaction.
func (r *WalletTransactionRepository) ListByAccountTx(ctx context.Context, tx *sql.Tx, ref domain.AccountRef) ([]domain.WalletTransaction, error) {
	return r.listByAccount(ctx, tx, ref)
}

func (r *WalletTransactionRepository) listByAccount(ctx context.Context, q querier, ref domain.AccountRef) ([]domain.WalletTransaction, error) {
	column, err := accountColumn(ref.Kind)
	if err != nil {
		return nil, fmt.Errorf("ListByAccount: %w", err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM wallet_transactions
		WHERE `+column+` = $1 ORDER BY date, seq`, ref.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByAccount: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows, "ListByAccount")
}

// ListInRange returns rows with from <= date <= to in (date, seq) order.
func (r *WalletTransactionRepository) ListInRange(ctx context.Context, ref domain.AccountRef, from, to time.Time) ([]domain.WalletTransaction, error) {
	column, err := accountColumn(ref.Kind)
	if err != nil {
		return nil, fmt.Errorf("ListInRange: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM wallet_transactions
		WHERE `+column+` = $1 AND date >= $2 AND date <= $3
		ORDER BY date, seq`, ref.ID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("ListInRange: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows, "ListInRange")
}

// ListRecent pages the account's rows newest first.
func (r *WalletTransactionRepository) ListRecent(ctx context.Context, ref domain.AccountRef, limit, offset int) ([]domain.WalletTransaction, int, error) {
	column, err := accountColumn(ref.Kind)
	if err != nil {
		return nil, 0, fmt.Errorf("ListRecent: %w", err)
	}

	var total int
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wallet_transactions WHERE `+column+` = $1`, ref.ID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ListRecent: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM wallet_transactions
		WHERE `+column+` = $1 ORDER BY date DESC, seq DESC LIMIT $2 OFFSET $3`,
		ref.ID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ListRecent: %w", err)
	}
	defer rows.Close()

	list, err := collectTransactions(rows, "ListRecent")
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// GetLatest returns the chronologically last row for the account.
func (r *WalletTransactionRepository) GetLatest(ctx context.Context, tx *sql.Tx, ref domain.AccountRef) (*domain.WalletTransaction, error) {
	column, err := accountColumn(ref.Kind)
	if err != nil {
		return nil, fmt.Errorf("GetLatest: %w", err)
	}

	row := tx.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM wallet_transactions
		WHERE `+column+` = $1 ORDER BY date DESC, seq DESC LIMIT 1`, ref.ID,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetLatest: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetLatest: %w", err)
	}
	return t, nil
}

// GetPreceding returns the row immediately before position (date, seq), or
// ErrNotFound when the position is the earliest for the account.
func (r *WalletTransactionRepository) GetPreceding(ctx context.Context, tx *sql.Tx, ref domain.AccountRef, date time.Time, seq int64) (*domain.WalletTransaction, error) {
	column, err := accountColumn(ref.Kind)
	if err != nil {
		return nil, fmt.Errorf("GetPreceding: %w", err)
	}

	row := tx.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM wallet_transactions
		WHERE `+column+` = $1 AND (date, seq) < ($2, $3)
		ORDER BY date DESC, seq DESC LIMIT 1`, ref.ID, date, seq,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetPreceding: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetPreceding: %w", err)
	}
	return t, nil
}

// GetLastBefore returns the last row dated strictly before cutoff, ignoring
// seq ties at the cutoff itself. Statement opening balances derive from it.
func (r *WalletTransactionRepository) GetLastBefore(ctx context.Context, ref domain.AccountRef, cutoff time.Time) (*domain.WalletTransaction, error) {
	column, err := accountColumn(ref.Kind)
	if err != nil {
		return nil, fmt.Errorf("GetLastBefore: %w", err)
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM wallet_transactions
		WHERE `+column+` = $1 AND date < $2
		ORDER BY date DESC, seq DESC LIMIT 1`, ref.ID, cutoff,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetLastBefore: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetLastBefore: %w", err)
	}
	return t, nil
}

func (r *WalletTransactionRepository) UpdateBalanceAfter(ctx context.Context, tx *sql.Tx, id uuid.UUID, balance decimal.Decimal) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE wallet_transactions SET balance_after = $1 WHERE id = $2`,
		balance, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalanceAfter: %w", err)
	}
	return nil
}

// ShiftBalancesAfter adds delta to balance_after of every row strictly after
// position (date, seq) and reports how many rows moved.
func (r *WalletTransactionRepository) ShiftBalancesAfter(ctx context.Context, tx *sql.Tx, ref domain.AccountRef, date time.Time, seq int64, delta decimal.Decimal) (int64, error) {
	column, err := accountColumn(ref.Kind)
	if err != nil {
		return 0, fmt.Errorf("ShiftBalancesAfter: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE wallet_transactions SET balance_after = balance_after + $1
		WHERE `+column+` = $2 AND (date, seq) > ($3, $4)`,
		delta, ref.ID, date, seq,
	)
	if err != nil {
		return 0, fmt.Errorf("ShiftBalancesAfter: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ShiftBalancesAfter: rows affected: %w", err)
	}
	return rows, nil
}

func collectTransactions(rows *sql.Rows, op string) ([]domain.WalletTransaction, error) {
	var list []domain.WalletTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		list = append(list, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return list, nil
}

func scanTransaction(s scanner) (*domain.WalletTransaction, error) {
	var t domain.WalletTransaction
	err := s.Scan(
		&t.ID, &t.Seq, &t.DistributorID, &t.StoreID, &t.Date, &t.Type,
		&t.Amount, &t.BalanceAfter,
		&t.OrderID, &t.TransferID, &t.ReturnID, &t.PaymentMethod, &t.Remarks,
		&t.InitiatedBy, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
