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

type ReturnService struct {
	db      *sql.DB
	engine  ledgerEngine
	orders  orderRepository
	returns returnRepository
	stock   stockRepository
	audits  auditRepository
}

func NewReturnService(
	db *sql.DB,
	engine ledgerEngine,
	orders orderRepository,
	returns returnRepository,
	stock stockRepository,
	audits auditRepository,
) *ReturnService {
	return &ReturnService{
		db:      db,
		engine:  engine,
		orders:  orders,
		returns: returns,
		stock:   stock,
		audits:  audits,
	}
}

type CreateReturnRequest struct {
	OrderID   uuid.UUID
	CreatedBy string
	Remarks   *string
	Items     []ReturnItemRequest
}

type ReturnItemRequest struct {
	SKUID    uuid.UUID
	Quantity int64
	Reason   *string
}

// Create registers a return request against a delivered order. Credit is
// estimated from the order's own unit prices; nothing moves until approval.
func (s *ReturnService) Create(ctx context.Context, req CreateReturnRequest) (*domain.Return, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("Create: %w", domain.ErrEmptyItems)
	}

	order, err := s.orders.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	if order.Status != domain.OrderStatusDelivered {
		return nil, fmt.Errorf("Create: %w", domain.ErrOrderNotDelivered)
	}

	estimate, items, err := buildReturnItems(order, req.Items)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	now := time.Now().UTC()
	ret := &domain.Return{
		ID:              uuid.New(),
		OrderID:         order.ID,
		DistributorID:   order.DistributorID,
		Status:          domain.ReturnStatusPending,
		EstimatedCredit: estimate,
		Remarks:         req.Remarks,
		CreatedBy:       req.CreatedBy,
		CreatedAt:       now,
	}
	for i := range items {
		items[i].ReturnID = ret.ID
	}
	ret.Items = items

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Create: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.returns.Create(ctx, tx, ret); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Create: commit: %w", err)
	}

	logging.FromContext(ctx).Info("return created",
		"return_id", ret.ID,
		"order_id", order.ID,
		"estimated_credit", estimate.String(),
	)
	recordAudit(ctx, s.audits, "return.create", "return", ret.ID, req.CreatedBy, nil, ret, req.Remarks)

	return ret, nil
}

type ApproveReturnRequest struct {
	ReturnID     uuid.UUID
	ActualCredit *decimal.Decimal // nil honors the estimate
	ApprovedBy   string
	Remarks      *string
}

// Approve credits a pending return: goods go back to plant stock, the order's
// returned counters move, and the distributor wallet receives RETURN_CREDIT.
func (s *ReturnService) Approve(ctx context.Context, req ApproveReturnRequest) (*domain.Return, error) {
	log := logging.FromContext(ctx)

	existing, err := s.returns.GetByID(ctx, req.ReturnID)
	if err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}

	ref := domain.DistributorRef(existing.DistributorID)
	release, err := s.engine.Lock(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}
	defer release()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Approve: begin tx: %w", err)
	}
	defer tx.Rollback()

	ret, err := s.returns.GetForUpdate(ctx, tx, req.ReturnID)
	if err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}
	if ret.Status != domain.ReturnStatusPending {
		return nil, fmt.Errorf("Approve: %w", domain.ErrReturnProcessed)
	}

	order, err := s.orders.GetForUpdate(ctx, tx, ret.OrderID)
	if err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}

	credit := ret.EstimatedCredit
	if req.ActualCredit != nil {
		credit = *req.ActualCredit
	}
	if credit.IsNegative() {
		return nil, fmt.Errorf("Approve: %w", domain.ErrInvalidAmount)
	}

	now := time.Now().UTC()
	if err := s.restock(ctx, tx, ret, now, req.ApprovedBy); err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}

	if err := s.bumpReturnedQuantities(ctx, tx, order, ret.Items); err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}

	if err := s.returns.MarkCredited(ctx, tx, ret.ID, credit, req.ApprovedBy, now, req.Remarks); err != nil {
		return nil, fmt.Errorf("Approve: %w", err)
	}

	if !credit.IsZero() {
		retID := ret.ID
		_, err = s.engine.AppendTx(ctx, tx, ref, ledger.Entry{
			Type:        domain.TransactionTypeReturnCredit,
			Amount:      credit,
			ReturnID:    &retID,
			Remarks:     req.Remarks,
			InitiatedBy: req.ApprovedBy,
		})
		if err != nil {
			return nil, fmt.Errorf("Approve: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Approve: commit: %w", err)
	}

	ret.Status = domain.ReturnStatusCredited
	ret.ActualCredit = &credit
	ret.ApprovedBy = &req.ApprovedBy
	ret.ApprovedAt = &now
	ret.ApprovalRemarks = req.Remarks

	log.Info("return credited",
		"return_id", ret.ID,
		"distributor_id", ret.DistributorID,
		"credit", credit.String(),
	)
	recordAudit(ctx, s.audits, "return.approve", "return", ret.ID, req.ApprovedBy,
		domain.ReturnStatusPending, domain.ReturnStatusCredited, req.Remarks)

	return ret, nil
}

// Reject closes a pending return with no stock or wallet effect.
func (s *ReturnService) Reject(ctx context.Context, returnID uuid.UUID, rejectedBy string, remarks *string) (*domain.Return, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Reject: begin tx: %w", err)
	}
	defer tx.Rollback()

	ret, err := s.returns.GetForUpdate(ctx, tx, returnID)
	if err != nil {
		return nil, fmt.Errorf("Reject: %w", err)
	}
	if ret.Status != domain.ReturnStatusPending {
		return nil, fmt.Errorf("Reject: %w", domain.ErrReturnProcessed)
	}

	now := time.Now().UTC()
	if err := s.returns.MarkRejected(ctx, tx, returnID, rejectedBy, now, remarks); err != nil {
		return nil, fmt.Errorf("Reject: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Reject: commit: %w", err)
	}

	ret.Status = domain.ReturnStatusRejected
	ret.ApprovedBy = &rejectedBy
	ret.ApprovedAt = &now
	ret.ApprovalRemarks = remarks

	logging.FromContext(ctx).Info("return rejected", "return_id", returnID, "rejected_by", rejectedBy)
	recordAudit(ctx, s.audits, "return.reject", "return", returnID, rejectedBy,
		domain.ReturnStatusPending, domain.ReturnStatusRejected, remarks)

	return ret, nil
}

func (s *ReturnService) Get(ctx context.Context, returnID uuid.UUID) (*domain.Return, error) {
	ret, err := s.returns.GetByID(ctx, returnID)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return ret, nil
}

func (s *ReturnService) ListPending(ctx context.Context) ([]domain.Return, error) {
	list, err := s.returns.ListByStatus(ctx, domain.ReturnStatusPending)
	if err != nil {
		return nil, fmt.Errorf("ListPending: %w", err)
	}
	return list, nil
}

// buildReturnItems validates requested quantities against what the order can
// still give back and prices the estimate from the order's unit prices.
// Freebie lines carry no credit and no returnable quantity.
func buildReturnItems(order *domain.Order, reqs []ReturnItemRequest) (decimal.Decimal, []domain.ReturnItem, error) {
	type skuLine struct {
		remaining int64
		unitPrice decimal.Decimal
	}
	bySKU := make(map[uuid.UUID]*skuLine, len(order.Items))
	for _, item := range order.Items {
		if item.IsFreebie {
			continue
		}
		line, ok := bySKU[item.SKUID]
		if !ok {
			line = &skuLine{unitPrice: item.UnitPrice}
			bySKU[item.SKUID] = line
		}
		line.remaining += item.Quantity - item.ReturnedQuantity
	}

	estimate := decimal.Zero
	items := make([]domain.ReturnItem, 0, len(reqs))
	for _, req := range reqs {
		if req.Quantity <= 0 {
			return decimal.Decimal{}, nil, fmt.Errorf("sku %s: %w", req.SKUID, domain.ErrInvalidQuantity)
		}
		line, ok := bySKU[req.SKUID]
		if !ok || line.remaining < req.Quantity {
			return decimal.Decimal{}, nil, fmt.Errorf("sku %s: %w", req.SKUID, domain.ErrInvalidQuantity)
		}
		line.remaining -= req.Quantity

		estimate = estimate.Add(line.unitPrice.Mul(decimal.NewFromInt(req.Quantity)))
		items = append(items, domain.ReturnItem{
			ID:       uuid.New(),
			SKUID:    req.SKUID,
			Quantity: req.Quantity,
			Reason:   req.Reason,
		})
	}
	return estimate, items, nil
}

// restock puts approved return quantities back into plant stock.
func (s *ReturnService) restock(ctx context.Context, tx *sql.Tx, ret *domain.Return, now time.Time, actor string) error {
	items := make([]domain.ReturnItem, len(ret.Items))
	copy(items, ret.Items)
	sort.Slice(items, func(i, j int) bool {
		return items[i].SKUID.String() < items[j].SKUID.String()
	})

	note := fmt.Sprintf("return %s credited", ret.ID)
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
			Type:           domain.MovementTypeReturn,
			Notes:          &note,
			InitiatedBy:    actor,
		}
		if err := s.stock.CreateMovement(ctx, tx, movement); err != nil {
			return fmt.Errorf("restock: %w", err)
		}
	}
	return nil
}

// bumpReturnedQuantities spreads each returned quantity across the order's
// paid lines for that SKU, first line first.
func (s *ReturnService) bumpReturnedQuantities(ctx context.Context, tx *sql.Tx, order *domain.Order, items []domain.ReturnItem) error {
	for _, ri := range items {
		left := ri.Quantity
		for i := range order.Items {
			if left == 0 {
				break
			}
			line := &order.Items[i]
			if line.IsFreebie || line.SKUID != ri.SKUID {
				continue
			}
			take := line.Quantity - line.ReturnedQuantity
			if take > left {
				take = left
			}
			if take <= 0 {
				continue
			}
			if err := s.orders.AddReturnedQuantity(ctx, tx, line.ID, take); err != nil {
				return fmt.Errorf("bumpReturnedQuantities: %w", err)
			}
			line.ReturnedQuantity += take
			left -= take
		}
		if left > 0 {
			return fmt.Errorf("bumpReturnedQuantities: sku %s: %w", ri.SKUID, domain.ErrInvalidQuantity)
		}
	}
	return nil
}
