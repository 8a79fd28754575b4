package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeRecharge        TransactionType = "RECHARGE"
	TransactionTypeOrderPayment    TransactionType = "ORDER_PAYMENT"
	TransactionTypeTransferPayment TransactionType = "TRANSFER_PAYMENT"
	TransactionTypeOrderRefund     TransactionType = "ORDER_REFUND"
	TransactionTypeReturnCredit    TransactionType = "RETURN_CREDIT"
	TransactionTypeJournalVoucher  TransactionType = "JOURNAL_VOUCHER"
)

// SignedAmount normalizes a caller-supplied amount into stored form: credits
// positive, debits negative, journal vouchers kept as given. Debit magnitudes
// may be passed positive or already negated; both yield the same stored value.
func (t TransactionType) SignedAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsZero() {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	switch t {
	case TransactionTypeRecharge, TransactionTypeOrderRefund, TransactionTypeReturnCredit:
		return amount.Abs(), nil
	case TransactionTypeOrderPayment, TransactionTypeTransferPayment:
		return amount.Abs().Neg(), nil
	case TransactionTypeJournalVoucher:
		return amount, nil
	default:
		return decimal.Decimal{}, ErrInvalidTransactionType
	}
}

// WalletTransaction is one row of an account's append-only ledger. Amount is
// stored already signed; BalanceAfter is the running sum of signed amounts up
// to and including this row in (Date, Seq) order.
type WalletTransaction struct {
	ID            uuid.UUID
	Seq           int64
	DistributorID *uuid.UUID
	StoreID       *uuid.UUID
	Date          time.Time
	Type          TransactionType
	Amount        decimal.Decimal
	BalanceAfter  decimal.Decimal
	OrderID       *uuid.UUID
	TransferID    *uuid.UUID
	ReturnID      *uuid.UUID
	PaymentMethod *string
	Remarks       *string
	InitiatedBy   string
	CreatedAt     time.Time
}

func (t *WalletTransaction) Account() (AccountRef, error) {
	switch {
	case t.DistributorID != nil && t.StoreID == nil:
		return DistributorRef(*t.DistributorID), nil
	case t.StoreID != nil && t.DistributorID == nil:
		return StoreRef(*t.StoreID), nil
	default:
		return AccountRef{}, ErrAmbiguousAccount
	}
}
