package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/plantdesk/dms/internal/domain"
)

// runningBalances computes the balance after each entry as a pure running sum
// of signed amounts, starting from zero. Entries must already be in
// (date, seq) order. No type branching happens here: amounts are stored
// signed, so RECHARGE adds, ORDER_PAYMENT subtracts, and a JOURNAL_VOUCHER
// moves whichever way its sign says.
func runningBalances(entries []domain.WalletTransaction) ([]decimal.Decimal, decimal.Decimal) {
	balances := make([]decimal.Decimal, len(entries))
	running := decimal.Zero
	for i := range entries {
		running = running.Add(entries[i].Amount)
		balances[i] = running
	}
	return balances, running
}
