package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantdesk/dms/internal/domain"
)

func txnWithAmount(amount int64) domain.WalletTransaction {
	return domain.WalletTransaction{Amount: decimal.NewFromInt(amount)}
}

func TestRunningBalances(t *testing.T) {
	entries := []domain.WalletTransaction{
		txnWithAmount(100),
		txnWithAmount(-40),
		txnWithAmount(25),
	}

	balances, final := runningBalances(entries)

	require.Len(t, balances, 3)
	assert.True(t, decimal.NewFromInt(100).Equal(balances[0]))
	assert.True(t, decimal.NewFromInt(60).Equal(balances[1]))
	assert.True(t, decimal.NewFromInt(85).Equal(balances[2]))
	assert.True(t, decimal.NewFromInt(85).Equal(final))
}

func TestRunningBalances_Empty(t *testing.T) {
	balances, final := runningBalances(nil)

	assert.Empty(t, balances)
	assert.True(t, final.IsZero())
}

func TestRunningBalances_IgnoresStoredSnapshots(t *testing.T) {
	entries := []domain.WalletTransaction{
		{Amount: decimal.NewFromInt(50), BalanceAfter: decimal.NewFromInt(9999)},
		{Amount: decimal.NewFromInt(-20), BalanceAfter: decimal.NewFromInt(-1)},
	}

	balances, final := runningBalances(entries)

	require.Len(t, balances, 2)
	assert.True(t, decimal.NewFromInt(50).Equal(balances[0]))
	assert.True(t, decimal.NewFromInt(30).Equal(balances[1]))
	assert.True(t, decimal.NewFromInt(30).Equal(final))
}
