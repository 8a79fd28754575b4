package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plantdesk/dms/internal/domain"
	"github.com/plantdesk/dms/internal/ledger"
	"github.com/plantdesk/dms/internal/logging"
)

type TransferService struct {
	db        *sql.DB
	engine    ledgerEngine
	stores    storeRepository
	skus      skuRepository
	transfers transferRepository
	stock     stockRepository
	audits    auditRepository
	alerts    *AlertService
}

func NewTransferService(
	db *sql.DB,
	engine ledgerEngine,
	stores storeRepository,
	skus skuRepository,
	transfers transferRepository,
	stock stockRepository,
	audits auditRepository,
	alerts *AlertService,
) *TransferService {
	return &TransferService{
		db:        db,
		engine:    engine,
		stores:    stores,
		skus:      skus,
		transfers: transfers,
		stock:     stock,
		audits:    audits,
		alerts:    alerts,
	}
}

type CreateTransferRequest struct {
	DestinationStoreID uuid.UUID
	Date               time.Time // zero means now
	InitiatedBy        string
	Items              []TransferItemRequest
}

type TransferItemRequest struct {
	SKUID    uuid.UUID
	Quantity int64
}

// Create opens a transfer to a store and reserves the quantities at the
// plant. Items are priced at current SKU prices; the store pays on delivery.
func (s *TransferService) Create(ctx context.Context, req CreateTransferRequest) (*domain.StockTransfer, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("Create: %w", domain.ErrEmptyItems)
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("Create: sku %s: %w", item.SKUID, domain.ErrInvalidQuantity)
		}
	}

	if _, err := s.stores.GetByID(ctx, req.DestinationStoreID); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	transfer, err := s.buildTransfer(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Create: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.reserveStock(ctx, tx, transfer); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	if err := s.transfers.Create(ctx, tx, transfer); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Create: commit: %w", err)
	}

	logging.FromContext(ctx).Info("stock transfer created",
		"transfer_id", transfer.ID,
		"store_id", transfer.DestinationStoreID,
		"total_value", transfer.TotalValue.String(),
	)
	recordAudit(ctx, s.audits, "transfer.create", "stock_transfer", transfer.ID,
		req.InitiatedBy, nil, transfer, nil)

	return transfer, nil
}

// Deliver completes a pending transfer: reserved plant stock moves into the
// store's location and the store wallet is debited with TRANSFER_PAYMENT.
func (s *TransferService) Deliver(ctx context.Context, transferID uuid.UUID, deliveredBy string) (*domain.StockTransfer, error) {
	log := logging.FromContext(ctx)

	existing, err := s.transfers.GetByID(ctx, transferID)
	if err != nil {
		return nil, fmt.Errorf("Deliver: %w", err)
	}

	ref := domain.StoreRef(existing.DestinationStoreID)
	release, err := s.engine.Lock(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("Deliver: %w", err)
	}
	defer release()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Deliver: begin tx: %w", err)
	}
	defer tx.Rollback()

	transfer, err := s.transfers.GetForUpdate(ctx, tx, transferID)
	if err != nil {
		return nil, fmt.Errorf("Deliver: %w", err)
	}
	if transfer.Status != domain.TransferStatusPending {
		return nil, fmt.Errorf("Deliver: %w", domain.ErrTransferDelivered)
	}

	now := time.Now().UTC()
	if err := s.moveStock(ctx, tx, transfer, now, deliveredBy); err != nil {
		return nil, fmt.Errorf("Deliver: %w", err)
	}

	if err := s.transfers.MarkDelivered(ctx, tx, transferID, now); err != nil {
		return nil, fmt.Errorf("Deliver: %w", err)
	}

	balanceAfter := decimal.Zero
	if !transfer.TotalValue.IsZero() {
		txn, err := s.engine.AppendTx(ctx, tx, ref, ledger.Entry{
			Type:        domain.TransactionTypeTransferPayment,
			Amount:      transfer.TotalValue,
			TransferID:  &transfer.ID,
			InitiatedBy: deliveredBy,
		})
		if err != nil {
			return nil, fmt.Errorf("Deliver: %w", err)
		}
		balanceAfter = txn.BalanceAfter
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Deliver: commit: %w", err)
	}

	transfer.Status = domain.TransferStatusDelivered
	transfer.DeliveredDate = &now

	log.Info("stock transfer delivered",
		"transfer_id", transferID,
		"store_id", transfer.DestinationStoreID,
		"total_value", transfer.TotalValue.String(),
		"store_balance_after", balanceAfter.String(),
	)
	recordAudit(ctx, s.audits, "transfer.deliver", "stock_transfer", transferID,
		deliveredBy, domain.TransferStatusPending, domain.TransferStatusDelivered, nil)

	// the outbound quantities may have pushed plant levels under the floor
	if _, err := s.alerts.ScanStock(ctx); err != nil {
		log.Warn("post-delivery stock scan failed", "error", err)
	}

	return transfer, nil
}

func (s *TransferService) Get(ctx context.Context, transferID uuid.UUID) (*domain.StockTransfer, error) {
	transfer, err := s.transfers.GetByID(ctx, transferID)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return transfer, nil
}

func (s *TransferService) ListPending(ctx context.Context) ([]domain.StockTransfer, error) {
	list, err := s.transfers.ListByStatus(ctx, domain.TransferStatusPending)
	if err != nil {
		return nil, fmt.Errorf("ListPending: %w", err)
	}
	return list, nil
}

func (s *TransferService) buildTransfer(ctx context.Context, req CreateTransferRequest) (*domain.StockTransfer, error) {
	ids := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.SKUID)
	}

	skus, err := s.skus.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("buildTransfer: %w", err)
	}

	now := time.Now().UTC()
	date := req.Date
	if date.IsZero() {
		date = now
	}

	transfer := &domain.StockTransfer{
		ID:                 uuid.New(),
		DestinationStoreID: req.DestinationStoreID,
		Date:               date,
		Status:             domain.TransferStatusPending,
		InitiatedBy:        req.InitiatedBy,
		CreatedAt:          now,
	}

	total := decimal.Zero
	for _, line := range req.Items {
		sku, ok := skus[line.SKUID]
		if !ok {
			return nil, fmt.Errorf("buildTransfer: sku %s: %w", line.SKUID, domain.ErrNotFound)
		}
		item := domain.StockTransferItem{
			ID:         uuid.New(),
			TransferID: transfer.ID,
			SKUID:      line.SKUID,
			Quantity:   line.Quantity,
			UnitPrice:  sku.Price,
		}
		total = total.Add(item.LineValue())
		transfer.Items = append(transfer.Items, item)
	}
	transfer.TotalValue = total
	return transfer, nil
}

// reserveStock holds the transfer's quantities at the plant so orders cannot
// sell them while the transfer is in flight.
func (s *TransferService) reserveStock(ctx context.Context, tx *sql.Tx, transfer *domain.StockTransfer) error {
	items := sortedTransferItems(transfer.Items)
	for _, item := range items {
		level, err := s.stock.GetLevelForUpdate(ctx, tx, domain.PlantLocationID, item.SKUID)
		if err != nil {
			return fmt.Errorf("reserveStock: %w", err)
		}
		if level.Available() < item.Quantity {
			return fmt.Errorf("reserveStock: sku %s: %w", item.SKUID, domain.ErrInsufficientStock)
		}
		if _, err := s.stock.AdjustLevel(ctx, tx, domain.PlantLocationID, item.SKUID, 0, item.Quantity); err != nil {
			return fmt.Errorf("reserveStock: %w", err)
		}
	}
	return nil
}

// moveStock releases each reservation, takes the quantity out of the plant,
// and books it into the store's location.
func (s *TransferService) moveStock(ctx context.Context, tx *sql.Tx, transfer *domain.StockTransfer, now time.Time, actor string) error {
	items := sortedTransferItems(transfer.Items)
	note := fmt.Sprintf("transfer %s", transfer.ID)

	for _, item := range items {
		out, err := s.stock.AdjustLevel(ctx, tx, domain.PlantLocationID, item.SKUID, -item.Quantity, -item.Quantity)
		if err != nil {
			return fmt.Errorf("moveStock: %w", err)
		}
		outMove := &domain.StockMovement{
			ID:             uuid.New(),
			Date:           now,
			SKUID:          item.SKUID,
			LocationID:     domain.PlantLocationID,
			QuantityChange: -item.Quantity,
			QuantityAfter:  out.Quantity,
			Type:           domain.MovementTypeTransferOut,
			Notes:          &note,
			InitiatedBy:    actor,
		}
		if err := s.stock.CreateMovement(ctx, tx, outMove); err != nil {
			return fmt.Errorf("moveStock: %w", err)
		}

		in, err := s.stock.AdjustLevel(ctx, tx, transfer.DestinationStoreID, item.SKUID, item.Quantity, 0)
		if err != nil {
			return fmt.Errorf("moveStock: %w", err)
		}
		inMove := &domain.StockMovement{
			ID:             uuid.New(),
			Date:           now,
			SKUID:          item.SKUID,
			LocationID:     transfer.DestinationStoreID,
			QuantityChange: item.Quantity,
			QuantityAfter:  in.Quantity,
			Type:           domain.MovementTypeTransferIn,
			Notes:          &note,
			InitiatedBy:    actor,
		}
		if err := s.stock.CreateMovement(ctx, tx, inMove); err != nil {
			return fmt.Errorf("moveStock: %w", err)
		}
	}
	return nil
}

func sortedTransferItems(items []domain.StockTransferItem) []domain.StockTransferItem {
	sorted := make([]domain.StockTransferItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].SKUID.String() < sorted[j].SKUID.String()
	})
	return sorted
}
