package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plantdesk/dms/internal/domain"
	"github.com/plantdesk/dms/internal/ledger"
)

type ledgerEngine interface {
	Lock(ctx context.Context, ref domain.AccountRef) (func(), error)
	Append(ctx context.Context, ref domain.AccountRef, entry ledger.Entry) (*domain.WalletTransaction, error)
	AppendTx(ctx context.Context, tx *sql.Tx, ref domain.AccountRef, entry ledger.Entry) (*domain.WalletTransaction, error)
	Balance(ctx context.Context, ref domain.AccountRef) (decimal.Decimal, error)
	Recalculate(ctx context.Context, ref domain.AccountRef) (*ledger.RecalcResult, error)
	Statement(ctx context.Context, ref domain.AccountRef, from, to time.Time) (*ledger.Statement, error)
	Verify(ctx context.Context, ref domain.AccountRef) (*ledger.Drift, error)
}

type distributorRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Distributor, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Distributor, error)
	SetLastOrderDate(ctx context.Context, tx *sql.Tx, id uuid.UUID, at time.Time) error
}

type storeRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Store, error)
}

type skuRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SKU, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.SKU, error)
	ListActive(ctx context.Context) ([]domain.SKU, error)
}

type orderRepository interface {
	Create(ctx context.Context, tx *sql.Tx, o *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Order, error)
	ListByDistributor(ctx context.Context, distributorID uuid.UUID, limit, offset int) ([]domain.Order, error)
	MarkDelivered(ctx context.Context, tx *sql.Tx, id uuid.UUID, at time.Time) error
	MarkCancelled(ctx context.Context, tx *sql.Tx, id uuid.UUID, at time.Time, remarks *string) error
	AddReturnedQuantity(ctx context.Context, tx *sql.Tx, itemID uuid.UUID, delta int64) error
}

type returnRepository interface {
	Create(ctx context.Context, tx *sql.Tx, ret *domain.Return) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Return, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Return, error)
	ListByStatus(ctx context.Context, status domain.ReturnStatus) ([]domain.Return, error)
	MarkCredited(ctx context.Context, tx *sql.Tx, id uuid.UUID, actualCredit decimal.Decimal, approvedBy string, at time.Time, remarks *string) error
	MarkRejected(ctx context.Context, tx *sql.Tx, id uuid.UUID, rejectedBy string, at time.Time, remarks *string) error
}

type transferRepository interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.StockTransfer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.StockTransfer, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.StockTransfer, error)
	ListByStatus(ctx context.Context, status domain.TransferStatus) ([]domain.StockTransfer, error)
	MarkDelivered(ctx context.Context, tx *sql.Tx, id uuid.UUID, at time.Time) error
}

type stockRepository interface {
	GetLevel(ctx context.Context, locationID, skuID uuid.UUID) (*domain.StockLevel, error)
	GetLevelForUpdate(ctx context.Context, tx *sql.Tx, locationID, skuID uuid.UUID) (*domain.StockLevel, error)
	AdjustLevel(ctx context.Context, tx *sql.Tx, locationID, skuID uuid.UUID, deltaQuantity, deltaReserved int64) (*domain.StockLevel, error)
	ListLevels(ctx context.Context, locationID uuid.UUID) ([]domain.StockLevel, error)
	ListBelow(ctx context.Context, threshold int64) ([]domain.LowStockItem, error)
	CreateMovement(ctx context.Context, tx *sql.Tx, m *domain.StockMovement) error
	ListMovements(ctx context.Context, locationID uuid.UUID, limit int) ([]domain.StockMovement, error)
}

type notificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	HasPendingStockAlert(ctx context.Context, locationID, skuID uuid.UUID) (bool, error)
}

type auditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}

type transactionReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WalletTransaction, error)
	ListRecent(ctx context.Context, ref domain.AccountRef, limit, offset int) ([]domain.WalletTransaction, int, error)
}
