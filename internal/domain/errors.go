package domain

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrAccountNotFound        = errors.New("account not found")
	ErrAmbiguousAccount       = errors.New("transaction must belong to exactly one account")
	ErrInvalidAmount          = errors.New("amount must be non-zero")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidQuantity        = errors.New("quantity must be greater than zero")
	ErrInvalidDateRange       = errors.New("invalid date range")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrLockTimeout            = errors.New("timed out waiting for account lock")
	ErrBalanceDrift           = errors.New("cached balance drifted from ledger")
	ErrOrderNotPending        = errors.New("order not in pending state")
	ErrOrderNotDelivered      = errors.New("order not delivered")
	ErrOrderNotRefundable     = errors.New("order cannot be refunded")
	ErrSKUInactive            = errors.New("sku inactive")
	ErrReturnProcessed        = errors.New("return already processed")
	ErrTransferDelivered      = errors.New("transfer already delivered")
	ErrEmptyItems             = errors.New("at least one item required")
	ErrRemarksRequired        = errors.New("remarks required")
)
