package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/plantdesk/dms/internal/domain"
	"github.com/plantdesk/dms/internal/ledger"
	"github.com/plantdesk/dms/internal/repository"
	"github.com/plantdesk/dms/internal/service"
)

// testServices wires the full service stack against a test database. Alert
// thresholds are low 10 / critical 3 with a zero wallet floor, so alerts only
// fire when a test drives levels down on purpose.
type testServices struct {
	orders    *service.OrderService
	returns   *service.ReturnService
	transfers *service.TransferService
	wallets   *service.WalletService
	stock     *service.StockService
	engine    *ledger.Engine
}

func setupServices(t *testing.T, db *sql.DB) *testServices {
	t.Helper()

	transactions := repository.NewWalletTransactionRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	distributors := repository.NewDistributorRepository(db)
	stores := repository.NewStoreRepository(db)
	skus := repository.NewSKURepository(db)
	orders := repository.NewOrderRepository(db)
	returns := repository.NewReturnRepository(db)
	transfers := repository.NewStockTransferRepository(db)
	stock := repository.NewStockRepository(db)
	audits := repository.NewAuditRepository(db)
	notifications := repository.NewNotificationRepository(db)

	engine := ledger.NewEngine(db, transactions, walletRepo, ledger.NewLocker(5*time.Second), ledger.StrategyRecalculate)
	alerts := service.NewAlertService(notifications, stock, 10, 3, decimal.Zero)

	return &testServices{
		orders:    service.NewOrderService(db, engine, distributors, skus, orders, stock, audits, alerts),
		returns:   service.NewReturnService(db, engine, orders, returns, stock, audits),
		transfers: service.NewTransferService(db, engine, stores, skus, transfers, stock, audits, alerts),
		wallets:   service.NewWalletService(engine, transactions, audits),
		stock:     service.NewStockService(db, skus, stock, audits),
		engine:    engine,
	}
}

func accountTransactions(t *testing.T, db *sql.DB, ref domain.AccountRef) []domain.WalletTransaction {
	t.Helper()
	list, err := repository.NewWalletTransactionRepository(db).ListByAccount(context.Background(), ref)
	require.NoError(t, err)
	return list
}

func pendingNotifications(t *testing.T, db *sql.DB) []domain.Notification {
	t.Helper()
	list, err := repository.NewNotificationRepository(db).GetPending(context.Background(), 50)
	require.NoError(t, err)
	return list
}

func pendingNotificationTypes(t *testing.T, db *sql.DB) []domain.NotificationType {
	t.Helper()
	types := make([]domain.NotificationType, 0)
	for _, n := range pendingNotifications(t, db) {
		types = append(types, n.Type)
	}
	return types
}

func locationMovements(t *testing.T, db *sql.DB, locationID uuid.UUID) []domain.StockMovement {
	t.Helper()
	list, err := repository.NewStockRepository(db).ListMovements(context.Background(), locationID, 50)
	require.NoError(t, err)
	return list
}

func findMovement(movements []domain.StockMovement, typ domain.MovementType) *domain.StockMovement {
	for i := range movements {
		if movements[i].Type == typ {
			return &movements[i]
		}
	}
	return nil
}

func auditActions(t *testing.T, db *sql.DB, entityType string, entityID string) []string {
	t.Helper()
	entries, err := repository.NewAuditRepository(db).ListByEntity(context.Background(), entityType, entityID, 20)
	require.NoError(t, err)
	actions := make([]string, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	return actions
}

// rechargeWallet funds an account so flow tests start from a known balance.
func rechargeWallet(t *testing.T, svcs *testServices, ref domain.AccountRef, amount int64) {
	t.Helper()
	_, err := svcs.wallets.Recharge(context.Background(), service.RechargeRequest{
		Account:     ref,
		Amount:      decimal.NewFromInt(amount),
		InitiatedBy: "admin",
	})
	require.NoError(t, err)
}
