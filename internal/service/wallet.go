package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plantdesk/dms/internal/domain"
	"github.com/plantdesk/dms/internal/ledger"
	"github.com/plantdesk/dms/internal/logging"
)

type WalletService struct {
	engine       ledgerEngine
	transactions transactionReader
	audits       auditRepository
}

func NewWalletService(engine ledgerEngine, transactions transactionReader, audits auditRepository) *WalletService {
	return &WalletService{
		engine:       engine,
		transactions: transactions,
		audits:       audits,
	}
}

type RechargeRequest struct {
	Account       domain.AccountRef
	Amount        decimal.Decimal
	Date          time.Time // zero means now
	PaymentMethod *string
	Remarks       *string
	InitiatedBy   string
}

// Recharge credits the account wallet. A past Date backdates the entry; the
// engine rewrites every later snapshot to keep the running balances true.
func (s *WalletService) Recharge(ctx context.Context, req RechargeRequest) (*domain.WalletTransaction, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("Recharge: %w", domain.ErrInvalidAmount)
	}

	txn, err := s.engine.Append(ctx, req.Account, ledger.Entry{
		Type:          domain.TransactionTypeRecharge,
		Amount:        req.Amount,
		Date:          req.Date,
		PaymentMethod: req.PaymentMethod,
		Remarks:       req.Remarks,
		InitiatedBy:   req.InitiatedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("Recharge: %w", err)
	}

	logging.FromContext(ctx).Info("wallet recharged",
		"account", req.Account.String(),
		"amount", req.Amount.String(),
		"balance_after", txn.BalanceAfter.String(),
	)
	recordAudit(ctx, s.audits, "wallet.recharge", "wallet_transaction", txn.ID,
		req.InitiatedBy, nil, txn, req.Remarks)

	return txn, nil
}

type JournalVoucherRequest struct {
	Account     domain.AccountRef
	Amount      decimal.Decimal // signed: positive credits, negative debits
	Date        time.Time       // zero means now
	Remarks     *string
	InitiatedBy string
}

// JournalVoucher books a manual correction in either direction. Remarks are
// mandatory so the adjustment explains itself in the statement.
func (s *WalletService) JournalVoucher(ctx context.Context, req JournalVoucherRequest) (*domain.WalletTransaction, error) {
	if req.Remarks == nil || *req.Remarks == "" {
		return nil, fmt.Errorf("JournalVoucher: %w", domain.ErrRemarksRequired)
	}

	txn, err := s.engine.Append(ctx, req.Account, ledger.Entry{
		Type:        domain.TransactionTypeJournalVoucher,
		Amount:      req.Amount,
		Date:        req.Date,
		Remarks:     req.Remarks,
		InitiatedBy: req.InitiatedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("JournalVoucher: %w", err)
	}

	logging.FromContext(ctx).Info("journal voucher booked",
		"account", req.Account.String(),
		"amount", txn.Amount.String(),
		"balance_after", txn.BalanceAfter.String(),
	)
	recordAudit(ctx, s.audits, "wallet.journal_voucher", "wallet_transaction", txn.ID,
		req.InitiatedBy, nil, txn, req.Remarks)

	return txn, nil
}

func (s *WalletService) Balance(ctx context.Context, ref domain.AccountRef) (decimal.Decimal, error) {
	balance, err := s.engine.Balance(ctx, ref)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("Balance: %w", err)
	}
	return balance, nil
}

func (s *WalletService) Statement(ctx context.Context, ref domain.AccountRef, from, to time.Time) (*ledger.Statement, error) {
	st, err := s.engine.Statement(ctx, ref, from, to)
	if err != nil {
		return nil, fmt.Errorf("Statement: %w", err)
	}
	return st, nil
}

// Recalculate rebuilds the account's snapshots and cached balance. The result
// is audited so repairs leave a trace.
func (s *WalletService) Recalculate(ctx context.Context, ref domain.AccountRef, initiatedBy string) (*ledger.RecalcResult, error) {
	result, err := s.engine.Recalculate(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("Recalculate: %w", err)
	}

	logging.FromContext(ctx).Info("wallet recalculated",
		"account", ref.String(),
		"final_balance", result.FinalBalance.String(),
		"transactions_updated", result.TransactionsUpdated,
	)
	recordAudit(ctx, s.audits, "wallet.recalculate", string(ref.Kind), ref.ID,
		initiatedBy, nil, result, nil)

	return result, nil
}

func (s *WalletService) Verify(ctx context.Context, ref domain.AccountRef) (*ledger.Drift, error) {
	return s.engine.Verify(ctx, ref)
}

func (s *WalletService) Transaction(ctx context.Context, id uuid.UUID) (*domain.WalletTransaction, error) {
	txn, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Transaction: %w", err)
	}
	return txn, nil
}

// Transactions pages the account's history newest first, returning the total
// row count alongside the page.
func (s *WalletService) Transactions(ctx context.Context, ref domain.AccountRef, limit, offset int) ([]domain.WalletTransaction, int, error) {
	list, total, err := s.transactions.ListRecent(ctx, ref, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("Transactions: %w", err)
	}
	return list, total, nil
}
