// Package ledger keeps each account's append-only wallet transaction log and
// its cached wallet_balance in agreement: every row's balance_after is the
// running sum of signed amounts in (date, seq) order, and the cached balance
// equals the last row's snapshot. Backdated inserts rewrite the snapshots of
// everything that now follows them.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plantdesk/dms/internal/domain"
	"github.com/plantdesk/dms/internal/logging"
	"github.com/plantdesk/dms/internal/metrics"
)

// Strategy selects how an append reconciles balance_after snapshots.
type Strategy string

const (
	// StrategyRecalculate re-reads every row and recomputes all snapshots
	// from zero on each append. O(n) per insert, trivially correct.
	StrategyRecalculate Strategy = "recalculate"

	// StrategyPatchForward seeds the new row's snapshot from its predecessor
	// and shifts only the rows after the insertion point by the new amount.
	// O(entries after insertion point); equivalent by construction.
	StrategyPatchForward Strategy = "patch_forward"
)

// Entry is one mutation to record. Amount may carry the caller's magnitude or
// an already-signed value; it is normalized by Type before storage.
type Entry struct {
	Type          domain.TransactionType
	Amount        decimal.Decimal
	Date          time.Time // zero means now
	OrderID       *uuid.UUID
	TransferID    *uuid.UUID
	ReturnID      *uuid.UUID
	PaymentMethod *string
	Remarks       *string
	InitiatedBy   string
}

type Engine struct {
	db           txBeginner
	transactions transactionRepository
	wallets      walletRepository
	locker       *Locker
	strategy     Strategy
}

func NewEngine(db txBeginner, transactions transactionRepository, wallets walletRepository, locker *Locker, strategy Strategy) *Engine {
	if strategy == "" {
		strategy = StrategyRecalculate
	}
	return &Engine{
		db:           db,
		transactions: transactions,
		wallets:      wallets,
		locker:       locker,
		strategy:     strategy,
	}
}

// Lock takes the account's exclusive mutation lock. Callers composing
// AppendTx with their own writes must hold it for the whole transaction.
func (e *Engine) Lock(ctx context.Context, ref domain.AccountRef) (func(), error) {
	release, err := e.locker.Acquire(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("Lock: %w", err)
	}
	return release, nil
}

// Append records entry against ref in its own transaction, taking the account
// lock itself.
func (e *Engine) Append(ctx context.Context, ref domain.AccountRef, entry Entry) (*domain.WalletTransaction, error) {
	release, err := e.locker.Acquire(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("Append: %w", err)
	}
	defer release()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Append: %w", err)
	}
	defer tx.Rollback()

	t, err := e.append(ctx, tx, ref, entry)
	if err != nil {
		return nil, fmt.Errorf("Append: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Append: commit: %w", err)
	}
	return t, nil
}

// AppendTx records entry inside the caller's transaction, so an order row and
// its debit commit or roll back together. The caller must already hold the
// account lock via Lock.
func (e *Engine) AppendTx(ctx context.Context, tx *sql.Tx, ref domain.AccountRef, entry Entry) (*domain.WalletTransaction, error) {
	t, err := e.append(ctx, tx, ref, entry)
	if err != nil {
		return nil, fmt.Errorf("AppendTx: %w", err)
	}
	return t, nil
}

func (e *Engine) append(ctx context.Context, tx *sql.Tx, ref domain.AccountRef, entry Entry) (*domain.WalletTransaction, error) {
	amount, err := entry.Type.SignedAmount(entry.Amount)
	if err != nil {
		return nil, err
	}

	cached, err := e.wallets.BalanceForUpdate(ctx, tx, ref)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	date := entry.Date
	if date.IsZero() {
		date = now
	}

	t := &domain.WalletTransaction{
		ID:            uuid.New(),
		Date:          date,
		Type:          entry.Type,
		Amount:        amount,
		OrderID:       entry.OrderID,
		TransferID:    entry.TransferID,
		ReturnID:      entry.ReturnID,
		PaymentMethod: entry.PaymentMethod,
		Remarks:       entry.Remarks,
		InitiatedBy:   entry.InitiatedBy,
		CreatedAt:     now,
	}
	switch ref.Kind {
	case domain.AccountKindDistributor:
		id := ref.ID
		t.DistributorID = &id
	case domain.AccountKindStore:
		id := ref.ID
		t.StoreID = &id
	default:
		return nil, fmt.Errorf("unknown account kind %q", ref.Kind)
	}

	// balance_after is provisional until the strategy reconciles it
	if err := e.transactions.Create(ctx, tx, t); err != nil {
		return nil, err
	}

	var final decimal.Decimal
	var backdated bool
	switch e.strategy {
	case StrategyPatchForward:
		final, backdated, err = e.patchForward(ctx, tx, ref, t, cached)
	default:
		final, backdated, err = e.recomputeAll(ctx, tx, ref, t)
	}
	if err != nil {
		return nil, err
	}

	if err := e.wallets.UpdateBalance(ctx, tx, ref, final); err != nil {
		return nil, err
	}

	if err := e.checkConsistency(ctx, tx, ref, t, final); err != nil {
		return nil, err
	}

	metrics.LedgerAppends.WithLabelValues(string(entry.Type), string(e.strategy)).Inc()
	if backdated {
		metrics.LedgerBackdated.Inc()
	}
	return t, nil
}

// recomputeAll rebuilds every snapshot for the account from zero and reports
// the final balance and whether t landed anywhere but last.
func (e *Engine) recomputeAll(ctx context.Context, tx *sql.Tx, ref domain.AccountRef, t *domain.WalletTransaction) (decimal.Decimal, bool, error) {
	entries, final, err := e.rewriteSnapshots(ctx, tx, ref)
	if err != nil {
		return decimal.Decimal{}, false, err
	}

	backdated := false
	for i := range entries {
		if entries[i].ID == t.ID {
			t.BalanceAfter = entries[i].BalanceAfter
			backdated = i != len(entries)-1
			break
		}
	}
	return final, backdated, nil
}

// patchForward seeds t's snapshot from its predecessor and shifts every later
// snapshot by t's amount. The cached balance moves by the same delta.
func (e *Engine) patchForward(ctx context.Context, tx *sql.Tx, ref domain.AccountRef, t *domain.WalletTransaction, cached decimal.Decimal) (decimal.Decimal, bool, error) {
	opening := decimal.Zero
	prev, err := e.transactions.GetPreceding(ctx, tx, ref, t.Date, t.Seq)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return decimal.Decimal{}, false, err
	}
	if prev != nil {
		opening = prev.BalanceAfter
	}

	t.BalanceAfter = opening.Add(t.Amount)
	if err := e.transactions.UpdateBalanceAfter(ctx, tx, t.ID, t.BalanceAfter); err != nil {
		return decimal.Decimal{}, false, err
	}

	shifted, err := e.transactions.ShiftBalancesAfter(ctx, tx, ref, t.Date, t.Seq, t.Amount)
	if err != nil {
		return decimal.Decimal{}, false, err
	}

	return cached.Add(t.Amount), shifted > 0, nil
}

// rewriteSnapshots recomputes and writes back balance_after for every row of
// the account inside tx, returning the refreshed rows and the final balance.
func (e *Engine) rewriteSnapshots(ctx context.Context, tx *sql.Tx, ref domain.AccountRef) ([]domain.WalletTransaction, decimal.Decimal, error) {
	entries, err := e.transactions.ListByAccountTx(ctx, tx, ref)
	if err != nil {
		return nil, decimal.Decimal{}, err
	}

	balances, final := runningBalances(entries)
	for i := range entries {
		if err := e.transactions.UpdateBalanceAfter(ctx, tx, entries[i].ID, balances[i]); err != nil {
			return nil, decimal.Decimal{}, err
		}
		entries[i].BalanceAfter = balances[i]
	}
	return entries, final, nil
}

// checkConsistency is the post-mutation guard: the cached balance must equal
// the chronologically last snapshot. A mismatch means drift predating this
// append; it is logged, counted, and repaired in place by a full recompute
// before the transaction commits.
func (e *Engine) checkConsistency(ctx context.Context, tx *sql.Tx, ref domain.AccountRef, t *domain.WalletTransaction, cached decimal.Decimal) error {
	latest, err := e.transactions.GetLatest(ctx, tx, ref)
	if err != nil {
		return err
	}
	if latest.BalanceAfter.Equal(cached) {
		return nil
	}

	logging.FromContext(ctx).Error("wallet balance drift detected, recalculating",
		"account", ref.String(),
		"cached", cached.String(),
		"ledger", latest.BalanceAfter.String(),
	)
	metrics.LedgerDriftRepairs.Inc()

	entries, final, err := e.rewriteSnapshots(ctx, tx, ref)
	if err != nil {
		return err
	}
	if err := e.wallets.UpdateBalance(ctx, tx, ref, final); err != nil {
		return err
	}
	for i := range entries {
		if entries[i].ID == t.ID {
			t.BalanceAfter = entries[i].BalanceAfter
			break
		}
	}
	return nil
}

// Balance reads the cached balance without touching transaction rows.
func (e *Engine) Balance(ctx context.Context, ref domain.AccountRef) (decimal.Decimal, error) {
	balance, err := e.wallets.Balance(ctx, ref)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("Balance: %w", err)
	}
	return balance, nil
}
