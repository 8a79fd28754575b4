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

type OrderService struct {
	db           *sql.DB
	engine       ledgerEngine
	distributors distributorRepository
	skus         skuRepository
	orders       orderRepository
	stock        stockRepository
	audits       auditRepository
	alerts       *AlertService
}

func NewOrderService(
	db *sql.DB,
	engine ledgerEngine,
	distributors distributorRepository,
	skus skuRepository,
	orders orderRepository,
	stock stockRepository,
	audits auditRepository,
	alerts *AlertService,
) *OrderService {
	return &OrderService{
		db:           db,
		engine:       engine,
		distributors: distributors,
		skus:         skus,
		orders:       orders,
		stock:        stock,
		audits:       audits,
		alerts:       alerts,
	}
}

type PlaceOrderRequest struct {
	DistributorID uuid.UUID
	Date          time.Time // zero means now
	PlacedBy      string
	Items         []OrderItemRequest
}

type OrderItemRequest struct {
	SKUID     uuid.UUID
	Quantity  int64
	IsFreebie bool
}

// Place books an order atomically: plant stock is deducted, the distributor's
// wallet is debited by ORDER_PAYMENT, and all of it commits or rolls back
// together. The order is accepted while wallet balance plus credit limit
// covers the total.
func (s *OrderService) Place(ctx context.Context, req PlaceOrderRequest) (*domain.Order, error) {
	log := logging.FromContext(ctx)

	if err := validateOrderItems(req.Items); err != nil {
		return nil, fmt.Errorf("Place: %w", err)
	}

	skus, err := s.resolveSKUs(ctx, req.Items)
	if err != nil {
		return nil, fmt.Errorf("Place: %w", err)
	}

	order := buildOrder(req, skus)
	ref := domain.DistributorRef(req.DistributorID)

	release, err := s.engine.Lock(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("Place: %w", err)
	}
	defer release()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Place: begin tx: %w", err)
	}
	defer tx.Rollback()

	d, err := s.distributors.GetForUpdate(ctx, tx, req.DistributorID)
	if err != nil {
		return nil, fmt.Errorf("Place: %w", err)
	}

	if d.WalletBalance.Add(d.CreditLimit).LessThan(order.TotalAmount) {
		s.alerts.OrderFailed(ctx, d.ID, order.TotalAmount, "insufficient funds")
		return nil, fmt.Errorf("Place: %w", domain.ErrInsufficientFunds)
	}

	if err := s.orders.Create(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("Place: %w", err)
	}

	if err := s.deductStock(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("Place: %w", err)
	}

	balanceAfter := d.WalletBalance
	if !order.TotalAmount.IsZero() {
		txn, err := s.engine.AppendTx(ctx, tx, ref, ledger.Entry{
			Type:        domain.TransactionTypeOrderPayment,
			Amount:      order.TotalAmount,
			Date:        order.Date,
			OrderID:     &order.ID,
			InitiatedBy: req.PlacedBy,
		})
		if err != nil {
			return nil, fmt.Errorf("Place: %w", err)
		}
		balanceAfter = txn.BalanceAfter
	}

	if err := s.distributors.SetLastOrderDate(ctx, tx, d.ID, order.Date); err != nil {
		return nil, fmt.Errorf("Place: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Place: commit: %w", err)
	}

	log.Info("order placed",
		"order_id", order.ID,
		"distributor_id", d.ID,
		"total_amount", order.TotalAmount.String(),
		"balance_after", balanceAfter.String(),
	)

	s.alerts.OrderPlaced(ctx, order)
	s.alerts.CheckWalletFloor(ctx, d, balanceAfter)
	recordAudit(ctx, s.audits, "order.place", "order", order.ID, req.PlacedBy, nil, order, nil)

	return order, nil
}

// Cancel refunds a pending order: stock goes back to the plant and the wallet
// is credited with ORDER_REFUND for the full amount.
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID, cancelledBy string, remarks *string) (*domain.Order, error) {
	log := logging.FromContext(ctx)

	// lock key comes from this unlocked read; state is re-read under the row lock
	existing, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("Cancel: %w", err)
	}

	ref := domain.DistributorRef(existing.DistributorID)
	release, err := s.engine.Lock(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("Cancel: %w", err)
	}
	defer release()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Cancel: begin tx: %w", err)
	}
	defer tx.Rollback()

	order, err := s.orders.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("Cancel: %w", err)
	}
	if order.Status != domain.OrderStatusPending {
		return nil, fmt.Errorf("Cancel: %w", domain.ErrOrderNotRefundable)
	}

	now := time.Now().UTC()
	if err := s.restock(ctx, tx, order, now, cancelledBy); err != nil {
		return nil, fmt.Errorf("Cancel: %w", err)
	}

	if err := s.orders.MarkCancelled(ctx, tx, orderID, now, remarks); err != nil {
		return nil, fmt.Errorf("Cancel: %w", err)
	}

	if !order.TotalAmount.IsZero() {
		_, err = s.engine.AppendTx(ctx, tx, ref, ledger.Entry{
			Type:        domain.TransactionTypeOrderRefund,
			Amount:      order.TotalAmount,
			OrderID:     &order.ID,
			Remarks:     remarks,
			InitiatedBy: cancelledBy,
		})
		if err != nil {
			return nil, fmt.Errorf("Cancel: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Cancel: commit: %w", err)
	}

	order.Status = domain.OrderStatusCancelled
	order.CancelledDate = &now
	order.CancelRemarks = remarks

	log.Info("order cancelled",
		"order_id", orderID,
		"distributor_id", order.DistributorID,
		"refund", order.TotalAmount.String(),
	)
	recordAudit(ctx, s.audits, "order.cancel", "order", orderID, cancelledBy,
		domain.OrderStatusPending, domain.OrderStatusCancelled, remarks)

	return order, nil
}

// Deliver marks a pending order delivered. Stock and wallet were already
// settled at placement, so only the status moves.
func (s *OrderService) Deliver(ctx context.Context, orderID uuid.UUID, deliveredBy string) (*domain.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Deliver: begin tx: %w", err)
	}
	defer tx.Rollback()

	order, err := s.orders.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("Deliver: %w", err)
	}
	if order.Status != domain.OrderStatusPending {
		return nil, fmt.Errorf("Deliver: %w", domain.ErrOrderNotPending)
	}

	now := time.Now().UTC()
	if err := s.orders.MarkDelivered(ctx, tx, orderID, now); err != nil {
		return nil, fmt.Errorf("Deliver: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Deliver: commit: %w", err)
	}

	order.Status = domain.OrderStatusDelivered
	order.DeliveredDate = &now

	logging.FromContext(ctx).Info("order delivered", "order_id", orderID, "delivered_by", deliveredBy)
	recordAudit(ctx, s.audits, "order.deliver", "order", orderID, deliveredBy,
		domain.OrderStatusPending, domain.OrderStatusDelivered, nil)

	return order, nil
}

func (s *OrderService) Get(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return order, nil
}

func (s *OrderService) ListByDistributor(ctx context.Context, distributorID uuid.UUID, limit, offset int) ([]domain.Order, error) {
	list, err := s.orders.ListByDistributor(ctx, distributorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ListByDistributor: %w", err)
	}
	return list, nil
}

func validateOrderItems(items []OrderItemRequest) error {
	if len(items) == 0 {
		return domain.ErrEmptyItems
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return fmt.Errorf("sku %s: %w", item.SKUID, domain.ErrInvalidQuantity)
		}
	}
	return nil
}

func (s *OrderService) resolveSKUs(ctx context.Context, items []OrderItemRequest) (map[uuid.UUID]domain.SKU, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.SKUID)
	}

	skus, err := s.skus.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolveSKUs: %w", err)
	}

	for _, item := range items {
		sku, ok := skus[item.SKUID]
		if !ok {
			return nil, fmt.Errorf("resolveSKUs: sku %s: %w", item.SKUID, domain.ErrNotFound)
		}
		if sku.Status != domain.SKUStatusActive {
			return nil, fmt.Errorf("resolveSKUs: sku %s: %w", item.SKUID, domain.ErrSKUInactive)
		}
	}
	return skus, nil
}

func buildOrder(req PlaceOrderRequest, skus map[uuid.UUID]domain.SKU) *domain.Order {
	now := time.Now().UTC()
	date := req.Date
	if date.IsZero() {
		date = now
	}

	order := &domain.Order{
		ID:            uuid.New(),
		DistributorID: req.DistributorID,
		Date:          date,
		Status:        domain.OrderStatusPending,
		PlacedBy:      req.PlacedBy,
		CreatedAt:     now,
	}

	total := decimal.Zero
	for _, line := range req.Items {
		item := domain.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			SKUID:     line.SKUID,
			Quantity:  line.Quantity,
			UnitPrice: skus[line.SKUID].Price,
			IsFreebie: line.IsFreebie,
		}
		total = total.Add(item.LineTotal())
		order.Items = append(order.Items, item)
	}
	order.TotalAmount = total
	return order
}

// deductStock takes each line out of plant stock. Level rows are locked in
// SKU order so concurrent flows cannot deadlock on them.
func (s *OrderService) deductStock(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	sort.Slice(items, func(i, j int) bool {
		return items[i].SKUID.String() < items[j].SKUID.String()
	})

	for _, item := range items {
		level, err := s.stock.GetLevelForUpdate(ctx, tx, domain.PlantLocationID, item.SKUID)
		if err != nil {
			return fmt.Errorf("deductStock: %w", err)
		}
		if level.Available() < item.Quantity {
			return fmt.Errorf("deductStock: sku %s: %w", item.SKUID, domain.ErrInsufficientStock)
		}

		after, err := s.stock.AdjustLevel(ctx, tx, domain.PlantLocationID, item.SKUID, -item.Quantity, 0)
		if err != nil {
			return fmt.Errorf("deductStock: %w", err)
		}

		movement := &domain.StockMovement{
			ID:             uuid.New(),
			Date:           order.Date,
			SKUID:          item.SKUID,
			LocationID:     domain.PlantLocationID,
			QuantityChange: -item.Quantity,
			QuantityAfter:  after.Quantity,
			Type:           domain.MovementTypeSale,
			InitiatedBy:    order.PlacedBy,
		}
		if err := s.stock.CreateMovement(ctx, tx, movement); err != nil {
			return fmt.Errorf("deductStock: %w", err)
		}
	}
	return nil
}

// restock puts a cancelled order's lines back into plant stock as adjustments.
func (s *OrderService) restock(ctx context.Context, tx *sql.Tx, order *domain.Order, now time.Time, actor string) error {
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	sort.Slice(items, func(i, j int) bool {
		return items[i].SKUID.String() < items[j].SKUID.String()
	})

	note := fmt.Sprintf("order %s cancelled", order.ID)
	for _, item := range items {
		after, err := s.stock.AdjustLevel(ctx, tx, domain.PlantLocationID, item.SKUID, item.Quantity, 0)
		if err != nil {
			return fmt.Errorf("restock: %w", err)
		}

		movement := &domain.StockMovement{
			ID:             uuid.New(),
			Date:           now,
			SKUID:          item.SKUID,
			LocationID:     domain.PlantLocationID,
			QuantityChange: item.Quantity,
			QuantityAfter:  after.Quantity,
			Type:           domain.MovementTypeAdjustment,
			Notes:          &note,
			InitiatedBy:    actor,
		}
		if err := s.stock.CreateMovement(ctx, tx, movement); err != nil {
			return fmt.Errorf("restock: %w", err)
		}
	}
	return nil
}
