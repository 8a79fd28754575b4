package ledger_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantdesk/dms/internal/domain"
	"github.com/plantdesk/dms/internal/ledger"
	"github.com/plantdesk/dms/internal/repository"
	"github.com/plantdesk/dms/internal/testutil"
)

func newTestEngine(t *testing.T, db *sql.DB, strategy ledger.Strategy) *ledger.Engine {
	t.Helper()
	return ledger.NewEngine(
		db,
		repository.NewWalletTransactionRepository(db),
		repository.NewWalletRepository(db),
		ledger.NewLocker(5*time.Second),
		strategy,
	)
}

func listTransactions(t *testing.T, db *sql.DB, ref domain.AccountRef) []domain.WalletTransaction {
	t.Helper()
	list, err := repository.NewWalletTransactionRepository(db).ListByAccount(context.Background(), ref)
	require.NoError(t, err)
	return list
}

func day(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestAppend_SumInvariant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	eng := newTestEngine(t, db, ledger.StrategyRecalculate)
	ctx := context.Background()

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)
	ref := domain.DistributorRef(d.ID)

	_, err := eng.Append(ctx, ref, ledger.Entry{
		Type: domain.TransactionTypeRecharge, Amount: decimal.NewFromInt(100), Date: day(1), InitiatedBy: "ops",
	})
	require.NoError(t, err)
	_, err = eng.Append(ctx, ref, ledger.Entry{
		Type: domain.TransactionTypeOrderPayment, Amount: decimal.NewFromInt(40), Date: day(2), InitiatedBy: "ops",
	})
	require.NoError(t, err)
	_, err = eng.Append(ctx, ref, ledger.Entry{
		Type: domain.TransactionTypeJournalVoucher, Amount: decimal.NewFromInt(25), Date: day(3), InitiatedBy: "ops",
	})
	require.NoError(t, err)

	entries := listTransactions(t, db, ref)
	require.Len(t, entries, 3)

	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount)
		assert.True(t, sum.Equal(e.BalanceAfter), "row %s: want %s, got %s", e.ID, sum, e.BalanceAfter)
	}
	assert.True(t, decimal.NewFromInt(85).Equal(sum))
	assert.True(t, sum.Equal(testutil.GetWalletBalance(t, db, ref)))
}

func TestAppend_BackdatedShiftsForward(t *testing.T) {
	db := testutil.SetupTestDB(t)
	eng := newTestEngine(t, db, ledger.StrategyRecalculate)
	ctx := context.Background()

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)
	ref := domain.DistributorRef(d.ID)

	// balances run [100, 150, 130]
	_, err := eng.Append(ctx, ref, ledger.Entry{
		Type: domain.TransactionTypeRecharge, Amount: decimal.NewFromInt(100), Date: day(10), InitiatedBy: "ops",
	})
	require.NoError(t, err)
	_, err = eng.Append(ctx, ref, ledger.Entry{
		Type: domain.TransactionTypeRecharge, Amount: decimal.NewFromInt(50), Date: day(11), InitiatedBy: "ops",
	})
	require.NoError(t, err)
	_, err = eng.Append(ctx, ref, ledger.Entry{
		Type: domain.TransactionTypeOrderPayment, Amount: decimal.NewFromInt(20), Date: day(12), InitiatedBy: "ops",
	})
	require.NoError(t, err)

	// +30 dated before everything shifts the run to [30, 130, 180, 160]
	backdated, err := eng.Append(ctx, ref, ledger.Entry{
		Type: domain.TransactionTypeRecharge, Amount: decimal.NewFromInt(30), Date: day(5), InitiatedBy: "ops",
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(30).Equal(backdated.BalanceAfter))

	entries := listTransactions(t, db, ref)
	require.Len(t, entries, 4)

	wantBalances := []int64{30, 130, 180, 160}
	for i, want := range wantBalances {
		assert.True(t, decimal.NewFromInt(want).Equal(entries[i].BalanceAfter),
			"row %d: want %d, got %s", i, want, entries[i].BalanceAfter)
	}
	assert.True(t, decimal.NewFromInt(160).Equal(testutil.GetWalletBalance(t, db, ref)))
}

func TestAppend_SameDateLandsAfterExistingRows(t *testing.T) {
	db := testutil.SetupTestDB(t)
	eng := newTestEngine(t, db, ledger.StrategyRecalculate)
	ctx := context.Background()

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)
	ref := domain.DistributorRef(d.ID)

	_, err := eng.Append(ctx, ref, ledger.Entry{
		Type: domain.TransactionTypeRecharge, Amount: decimal.NewFromInt(100), Date: day(1), InitiatedBy: "ops",
	})
	require.NoError(t, err)
	_, err = eng.Append(ctx, ref, ledger.Entry{
		Type: domain.TransactionTypeOrderPayment, Amount: decimal.NewFromInt(40), Date: day(2), InitiatedBy: "ops",
	})
	require.NoError(t, err)

	// same value date as the first row; insertion order breaks the tie
	_, err = eng.Append(ctx, ref, ledger.Entry{
		Type: domain.TransactionTypeRecharge, Amount: decimal.NewFromInt(10), Date: day(1), InitiatedBy: "ops",
	})
	require.NoError(t, err)

	entries := listTransactions(t, db, ref)
	require.Len(t, entries, 3)

	assert.True(t, decimal.NewFromInt(100).Equal(entries[0].Amount))
	assert.True(t, decimal.NewFromInt(10).Equal(entries[1].Amount))
	assert.True(t, decimal.NewFromInt(-40).Equal(entries[2].Amount))

	wantBalances := []int64{100, 110, 70}
	for i, want := range wantBalances {
		assert.True(t, decimal.NewFromInt(want).Equal(entries[i].BalanceAfter),
			"row %d: want %d, got %s", i, want, entries[i].BalanceAfter)
	}
}

func TestAppend_InsertOrderIndependence(t *testing.T) {
	db := testutil.SetupTestDB(t)
	eng := newTestEngine(t, db, ledger.StrategyRecalculate)
	ctx := context.Background()

	a := testutil.SeedDistributor(t, db, "Arrival Order A", decimal.Zero)
	b := testutil.SeedDistributor(t, db, "Arrival Order B", decimal.Zero)
	refA := domain.DistributorRef(a.ID)
	refB := domain.DistributorRef(b.ID)

	entries := []ledger.Entry{
		{Type: domain.TransactionTypeRecharge, Amount: decimal.NewFromInt(100), Date: day(1), InitiatedBy: "ops"},
		{Type: domain.TransactionTypeOrderPayment, Amount: decimal.NewFromInt(40), Date: day(2), InitiatedBy: "ops"},
		{Type: domain.TransactionTypeJournalVoucher, Amount: decimal.NewFromInt(25), Date: day(3), InitiatedBy: "ops"},
	}

	for _, i := range []int{0, 1, 2} {
		_, err := eng.Append(ctx, refA, entries[i])
		require.NoError(t, err)
	}
	for _, i := range []int{2, 0, 1} {
		_, err := eng.Append(ctx, refB, entries[i])
		require.NoError(t, err)
	}

	listA := listTransactions(t, db, refA)
	listB := listTransactions(t, db, refB)
	require.Len(t, listA, 3)
	require.Len(t, listB, 3)

	for i := range listA {
		assert.Equal(t, listA[i].Date, listB[i].Date)
		assert.True(t, listA[i].Amount.Equal(listB[i].Amount))
		assert.True(t, listA[i].BalanceAfter.Equal(listB[i].BalanceAfter),
			"row %d: %s vs %s", i, listA[i].BalanceAfter, listB[i].BalanceAfter)
	}
	assert.True(t, testutil.GetWalletBalance(t, db, refA).Equal(testutil.GetWalletBalance(t, db, refB)))
}

func TestAppend_StrategyEquivalence(t *testing.T) {
	db := testutil.SetupTestDB(t)
	recalcEng := newTestEngine(t, db, ledger.StrategyRecalculate)
	patchEng := newTestEngine(t, db, ledger.StrategyPatchForward)
	ctx := context.Background()

	a := testutil.SeedDistributor(t, db, "Strategy Recalc", decimal.Zero)
	b := testutil.SeedDistributor(t, db, "Strategy Patch", decimal.Zero)
	refA := domain.DistributorRef(a.ID)
	refB := domain.DistributorRef(b.ID)

	// exercises append-at-end, backdated, mid-insert and same-date ties
	script := []ledger.Entry{
		{Type: domain.TransactionTypeRecharge, Amount: decimal.NewFromInt(100), Date: day(10), InitiatedBy: "ops"},
		{Type: domain.TransactionTypeOrderPayment, Amount: decimal.NewFromInt(40), Date: day(12), InitiatedBy: "ops"},
		{Type: domain.TransactionTypeRecharge, Amount: decimal.NewFromInt(30), Date: day(5), InitiatedBy: "ops"},
		{Type: domain.TransactionTypeJournalVoucher, Amount: decimal.NewFromInt(-15), Date: day(11), InitiatedBy: "ops"},
		{Type: domain.TransactionTypeReturnCredit, Amount: decimal.NewFromInt(20), Date: day(12), InitiatedBy: "ops"},
	}

	for _, entry := range script {
		_, err := recalcEng.Append(ctx, refA, entry)
		require.NoError(t, err)
		_, err = patchEng.Append(ctx, refB, entry)
		require.NoError(t, err)
	}

	listA := listTransactions(t, db, refA)
	listB := listTransactions(t, db, refB)
	require.Len(t, listA, len(script))
	require.Len(t, listB, len(script))

	for i := range listA {
		assert.Equal(t, listA[i].Date, listB[i].Date, "row %d date", i)
		assert.Equal(t, listA[i].Type, listB[i].Type, "row %d type", i)
		assert.True(t, listA[i].Amount.Equal(listB[i].Amount), "row %d amount", i)
		assert.True(t, listA[i].BalanceAfter.Equal(listB[i].BalanceAfter),
			"row %d: recalculate %s, patch-forward %s", i, listA[i].BalanceAfter, listB[i].BalanceAfter)
	}
	assert.True(t, testutil.GetWalletBalance(t, db, refA).Equal(testutil.GetWalletBalance(t, db, refB)))
}

func TestAppend_ZeroAmountRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	eng := newTestEngine(t, db, ledger.StrategyRecalculate)
	ctx := context.Background()

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)
	ref := domain.DistributorRef(d.ID)

	_, err := eng.Append(ctx, ref, ledger.Entry{
		Type: domain.TransactionTypeRecharge, Amount: decimal.Zero, InitiatedBy: "ops",
	})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.Equal(t, 0, testutil.CountTransactions(t, db, ref))
}

func TestAppend_UnknownAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	eng := newTestEngine(t, db, ledger.StrategyRecalculate)

	_, err := eng.Append(context.Background(), domain.DistributorRef(uuid.New()), ledger.Entry{
		Type: domain.TransactionTypeRecharge, Amount: decimal.NewFromInt(10), InitiatedBy: "ops",
	})
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAppend_RepairsPriorDrift(t *testing.T) {
	db := testutil.SetupTestDB(t)
	// patch-forward trusts the cached balance, so a corrupted cache must trip
	// the post-append check and trigger an in-place recompute
	eng := newTestEngine(t, db, ledger.StrategyPatchForward)
	ctx := context.Background()

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)
	ref := domain.DistributorRef(d.ID)

	_, err := eng.Append(ctx, ref, ledger.Entry{
		Type: domain.TransactionTypeRecharge, Amount: decimal.NewFromInt(100), Date: day(1), InitiatedBy: "ops",
	})
	require.NoError(t, err)

	_, err = db.Exec(`UPDATE distributors SET wallet_balance = 500 WHERE id = $1`, d.ID)
	require.NoError(t, err)

	txn, err := eng.Append(ctx, ref, ledger.Entry{
		Type: domain.TransactionTypeRecharge, Amount: decimal.NewFromInt(50), Date: day(2), InitiatedBy: "ops",
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Equal(txn.BalanceAfter))

	entries := listTransactions(t, db, ref)
	require.Len(t, entries, 2)
	assert.True(t, decimal.NewFromInt(100).Equal(entries[0].BalanceAfter))
	assert.True(t, decimal.NewFromInt(150).Equal(entries[1].BalanceAfter))
	assert.True(t, decimal.NewFromInt(150).Equal(testutil.GetWalletBalance(t, db, ref)))
}

func TestAppend_ConcurrentSerializes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	eng := newTestEngine(t, db, ledger.StrategyRecalculate)
	ctx := context.Background()

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)
	ref := domain.DistributorRef(d.ID)

	var wg sync.WaitGroup
	results := make(chan error, 10)

	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.Append(ctx, ref, ledger.Entry{
				Type: domain.TransactionTypeRecharge, Amount: decimal.NewFromInt(10), InitiatedBy: "ops",
			})
			results <- err
		}()
	}

	wg.Wait()
	close(results)
	for err := range results {
		require.NoError(t, err)
	}

	entries := listTransactions(t, db, ref)
	require.Len(t, entries, 10)

	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount)
		assert.True(t, sum.Equal(e.BalanceAfter))
	}
	assert.True(t, decimal.NewFromInt(100).Equal(testutil.GetWalletBalance(t, db, ref)))
}

func TestJournalVoucher_BothSigns(t *testing.T) {
	db := testutil.SetupTestDB(t)
	eng := newTestEngine(t, db, ledger.StrategyRecalculate)
	ctx := context.Background()

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)
	ref := domain.DistributorRef(d.ID)

	up, err := eng.Append(ctx, ref, ledger.Entry{
		Type: domain.TransactionTypeJournalVoucher, Amount: decimal.NewFromInt(25), Date: day(1), InitiatedBy: "ops",
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(25).Equal(up.Amount))
	assert.True(t, decimal.NewFromInt(25).Equal(testutil.GetWalletBalance(t, db, ref)))

	down, err := eng.Append(ctx, ref, ledger.Entry{
		Type: domain.TransactionTypeJournalVoucher, Amount: decimal.NewFromInt(-25), Date: day(2), InitiatedBy: "ops",
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(-25).Equal(down.Amount))
	assert.True(t, testutil.GetWalletBalance(t, db, ref).IsZero())
}

func TestRecalculate_RepairsAndIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	eng := newTestEngine(t, db, ledger.StrategyRecalculate)
	ctx := context.Background()

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)
	ref := domain.DistributorRef(d.ID)

	amounts := []int64{100, -40, 25}
	types := []domain.TransactionType{
		domain.TransactionTypeRecharge,
		domain.TransactionTypeOrderPayment,
		domain.TransactionTypeJournalVoucher,
	}
	for i := range amounts {
		_, err := eng.Append(ctx, ref, ledger.Entry{
			Type: types[i], Amount: decimal.NewFromInt(amounts[i]), Date: day(i + 1), InitiatedBy: "ops",
		})
		require.NoError(t, err)
	}

	_, err := db.Exec(`UPDATE wallet_transactions SET balance_after = 999 WHERE distributor_id = $1`, d.ID)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE distributors SET wallet_balance = 777 WHERE id = $1`, d.ID)
	require.NoError(t, err)

	first, err := eng.Recalculate(ctx, ref)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(85).Equal(first.FinalBalance))
	assert.Equal(t, 3, first.TransactionsUpdated)

	entries := listTransactions(t, db, ref)
	wantBalances := []int64{100, 60, 85}
	for i, want := range wantBalances {
		assert.True(t, decimal.NewFromInt(want).Equal(entries[i].BalanceAfter))
	}
	assert.True(t, decimal.NewFromInt(85).Equal(testutil.GetWalletBalance(t, db, ref)))

	second, err := eng.Recalculate(ctx, ref)
	require.NoError(t, err)
	assert.True(t, first.FinalBalance.Equal(second.FinalBalance))
	assert.Equal(t, first.TransactionsUpdated, second.TransactionsUpdated)
}

func TestRecalculate_EmptyAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	eng := newTestEngine(t, db, ledger.StrategyRecalculate)

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)
	ref := domain.DistributorRef(d.ID)

	result, err := eng.Recalculate(context.Background(), ref)
	require.NoError(t, err)
	assert.True(t, result.FinalBalance.IsZero())
	assert.Equal(t, 0, result.TransactionsUpdated)
	assert.True(t, testutil.GetWalletBalance(t, db, ref).IsZero())
}

func TestStatement_OpeningBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	eng := newTestEngine(t, db, ledger.StrategyRecalculate)
	ctx := context.Background()

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)
	ref := domain.DistributorRef(d.ID)

	jan := func(day int) time.Time {
		return time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC)
	}

	_, err := eng.Append(ctx, ref, ledger.Entry{
		Type: domain.TransactionTypeRecharge, Amount: decimal.NewFromInt(100), Date: jan(1), InitiatedBy: "ops",
	})
	require.NoError(t, err)
	_, err = eng.Append(ctx, ref, ledger.Entry{
		Type: domain.TransactionTypeOrderPayment, Amount: decimal.NewFromInt(40), Date: jan(10), InitiatedBy: "ops",
	})
	require.NoError(t, err)

	st, err := eng.Statement(ctx, ref, jan(5), jan(31))
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(100).Equal(st.OpeningBalance))
	require.Len(t, st.Lines, 1)
	assert.True(t, decimal.NewFromInt(-40).Equal(st.Lines[0].Transaction.Amount))
	assert.True(t, decimal.NewFromInt(60).Equal(st.Lines[0].Balance))
	assert.True(t, decimal.NewFromInt(60).Equal(st.ClosingBalance))
}

func TestStatement_ZeroTransactionAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	eng := newTestEngine(t, db, ledger.StrategyRecalculate)

	s := testutil.SeedStore(t, db, "MG Road Store")
	ref := domain.StoreRef(s.ID)

	st, err := eng.Statement(context.Background(), ref, day(1), day(31))
	require.NoError(t, err)
	assert.True(t, st.OpeningBalance.IsZero())
	assert.True(t, st.ClosingBalance.IsZero())
	assert.Empty(t, st.Lines)
}

func TestStatement_InvalidRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	eng := newTestEngine(t, db, ledger.StrategyRecalculate)

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)

	_, err := eng.Statement(context.Background(), domain.DistributorRef(d.ID), day(20), day(10))
	require.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestStatement_LeavesSnapshotsAlone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	eng := newTestEngine(t, db, ledger.StrategyRecalculate)
	ctx := context.Background()

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)
	ref := domain.DistributorRef(d.ID)

	_, err := eng.Append(ctx, ref, ledger.Entry{
		Type: domain.TransactionTypeRecharge, Amount: decimal.NewFromInt(100), Date: day(1), InitiatedBy: "ops",
	})
	require.NoError(t, err)
	_, err = eng.Append(ctx, ref, ledger.Entry{
		Type: domain.TransactionTypeOrderPayment, Amount: decimal.NewFromInt(40), Date: day(2), InitiatedBy: "ops",
	})
	require.NoError(t, err)

	_, err = db.Exec(`UPDATE wallet_transactions SET balance_after = 999 WHERE distributor_id = $1`, d.ID)
	require.NoError(t, err)

	st, err := eng.Statement(ctx, ref, day(1), day(28))
	require.NoError(t, err)

	// line balances come out of the running sum, not the rotten snapshots
	require.Len(t, st.Lines, 2)
	assert.True(t, decimal.NewFromInt(100).Equal(st.Lines[0].Balance))
	assert.True(t, decimal.NewFromInt(60).Equal(st.Lines[1].Balance))

	// and the read repaired nothing
	var stale int
	err = db.QueryRow(`SELECT COUNT(*) FROM wallet_transactions WHERE distributor_id = $1 AND balance_after = 999`, d.ID).Scan(&stale)
	require.NoError(t, err)
	assert.Equal(t, 2, stale)
}

func TestVerify_ReportsDrift(t *testing.T) {
	db := testutil.SetupTestDB(t)
	eng := newTestEngine(t, db, ledger.StrategyRecalculate)
	ctx := context.Background()

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)
	ref := domain.DistributorRef(d.ID)

	_, err := eng.Append(ctx, ref, ledger.Entry{
		Type: domain.TransactionTypeRecharge, Amount: decimal.NewFromInt(100), Date: day(1), InitiatedBy: "ops",
	})
	require.NoError(t, err)

	drift, err := eng.Verify(ctx, ref)
	require.NoError(t, err)
	assert.Nil(t, drift)

	_, err = db.Exec(`UPDATE distributors SET wallet_balance = 250 WHERE id = $1`, d.ID)
	require.NoError(t, err)

	drift, err = eng.Verify(ctx, ref)
	require.ErrorIs(t, err, domain.ErrBalanceDrift)
	require.NotNil(t, drift)
	assert.True(t, decimal.NewFromInt(250).Equal(drift.CachedBalance))
	assert.True(t, decimal.NewFromInt(100).Equal(drift.LedgerBalance))
	assert.Equal(t, 0, drift.StaleRows)

	_, err = db.Exec(`UPDATE wallet_transactions SET balance_after = 999 WHERE distributor_id = $1`, d.ID)
	require.NoError(t, err)

	drift, err = eng.Verify(ctx, ref)
	require.ErrorIs(t, err, domain.ErrBalanceDrift)
	require.NotNil(t, drift)
	assert.Equal(t, 1, drift.StaleRows)

	_, err = eng.Recalculate(ctx, ref)
	require.NoError(t, err)

	drift, err = eng.Verify(ctx, ref)
	require.NoError(t, err)
	assert.Nil(t, drift)
}

func TestLock_TimesOutFailFast(t *testing.T) {
	db := testutil.SetupTestDB(t)
	eng := ledger.NewEngine(
		db,
		repository.NewWalletTransactionRepository(db),
		repository.NewWalletRepository(db),
		ledger.NewLocker(100*time.Millisecond),
		ledger.StrategyRecalculate,
	)
	ctx := context.Background()

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)
	ref := domain.DistributorRef(d.ID)

	release, err := eng.Lock(ctx, ref)
	require.NoError(t, err)
	defer release()

	_, err = eng.Append(ctx, ref, ledger.Entry{
		Type: domain.TransactionTypeRecharge, Amount: decimal.NewFromInt(10), InitiatedBy: "ops",
	})
	require.ErrorIs(t, err, domain.ErrLockTimeout)
	assert.Equal(t, 0, testutil.CountTransactions(t, db, ref))
}
