package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/plantdesk/dms/internal/domain"
	"github.com/plantdesk/dms/internal/metrics"
)

type RecalcResult struct {
	FinalBalance        decimal.Decimal
	TransactionsUpdated int
}

// Recalculate rebuilds every snapshot for the account from scratch and points
// the cached balance at the result. It is the repair tool for drift and is
// idempotent: a second run with no intervening appends rewrites the same
// values and reports the same result.
func (e *Engine) Recalculate(ctx context.Context, ref domain.AccountRef) (*RecalcResult, error) {
	release, err := e.locker.Acquire(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("Recalculate: %w", err)
	}
	defer release()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Recalculate: %w", err)
	}
	defer tx.Rollback()

	// row lock first, same order as append
	if _, err := e.wallets.BalanceForUpdate(ctx, tx, ref); err != nil {
		return nil, fmt.Errorf("Recalculate: %w", err)
	}

	entries, final, err := e.rewriteSnapshots(ctx, tx, ref)
	if err != nil {
		return nil, fmt.Errorf("Recalculate: %w", err)
	}

	if err := e.wallets.UpdateBalance(ctx, tx, ref, final); err != nil {
		return nil, fmt.Errorf("Recalculate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Recalculate: commit: %w", err)
	}

	metrics.LedgerRecalcRows.Observe(float64(len(entries)))
	return &RecalcResult{
		FinalBalance:        final,
		TransactionsUpdated: len(entries),
	}, nil
}
