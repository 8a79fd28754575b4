package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/plantdesk/dms/internal/domain"
	"github.com/plantdesk/dms/internal/logging"
)

// Drift describes a verification failure: the cached balance disagrees with
// the recomputed sum, or individual snapshots are stale.
type Drift struct {
	Account       domain.AccountRef
	CachedBalance decimal.Decimal
	LedgerBalance decimal.Decimal
	StaleRows     int
}

// Verify recomputes the account's running sum read-only and compares it
// against the cached balance and each stored snapshot. On disagreement it
// returns the findings wrapped in ErrBalanceDrift; repair is the caller's
// call (Recalculate).
func (e *Engine) Verify(ctx context.Context, ref domain.AccountRef) (*Drift, error) {
	cached, err := e.wallets.Balance(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("Verify: %w", err)
	}

	entries, err := e.transactions.ListByAccount(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("Verify: %w", err)
	}

	balances, final := runningBalances(entries)
	stale := 0
	for i := range entries {
		if !entries[i].BalanceAfter.Equal(balances[i]) {
			stale++
		}
	}

	if cached.Equal(final) && stale == 0 {
		return nil, nil
	}

	drift := &Drift{
		Account:       ref,
		CachedBalance: cached,
		LedgerBalance: final,
		StaleRows:     stale,
	}
	logging.FromContext(ctx).Warn("wallet balance drift found",
		"account", ref.String(),
		"cached", cached.String(),
		"ledger", final.String(),
		"stale_rows", stale,
	)
	return drift, fmt.Errorf("Verify %s: cached %s, ledger %s, stale rows %d: %w",
		ref, cached, final, stale, domain.ErrBalanceDrift)
}
