package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/plantdesk/dms/internal/domain"
)

type StatementLine struct {
	Transaction domain.WalletTransaction
	Balance     decimal.Decimal
}

type Statement struct {
	Account        domain.AccountRef
	From           time.Time
	To             time.Time
	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
	Lines          []StatementLine
}

// Statement reports the account's activity in [from, to], both ends
// inclusive. The opening balance is the snapshot of the last transaction
// strictly before from (zero when there is none); line balances are recomputed
// from it on the fly, so stored snapshots are neither trusted nor touched.
func (e *Engine) Statement(ctx context.Context, ref domain.AccountRef, from, to time.Time) (*Statement, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("Statement: %w", domain.ErrInvalidDateRange)
	}

	// account must exist even if it has no transactions
	if _, err := e.wallets.Balance(ctx, ref); err != nil {
		return nil, fmt.Errorf("Statement: %w", err)
	}

	opening := decimal.Zero
	last, err := e.transactions.GetLastBefore(ctx, ref, from)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("Statement: %w", err)
	}
	if last != nil {
		opening = last.BalanceAfter
	}

	entries, err := e.transactions.ListInRange(ctx, ref, from, to)
	if err != nil {
		return nil, fmt.Errorf("Statement: %w", err)
	}

	return buildStatement(ref, from, to, opening, entries), nil
}

func buildStatement(ref domain.AccountRef, from, to time.Time, opening decimal.Decimal, entries []domain.WalletTransaction) *Statement {
	running := opening
	lines := make([]StatementLine, 0, len(entries))
	for _, t := range entries {
		running = running.Add(t.Amount)
		lines = append(lines, StatementLine{Transaction: t, Balance: running})
	}

	return &Statement{
		Account:        ref,
		From:           from,
		To:             to,
		OpeningBalance: opening,
		ClosingBalance: running,
		Lines:          lines,
	}
}
