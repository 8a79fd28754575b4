package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plantdesk/dms/internal/domain"
	"github.com/plantdesk/dms/internal/logging"
)

type AlertService struct {
	notifications     notificationRepository
	stock             stockRepository
	lowThreshold      int64
	criticalThreshold int64
	walletFloor       decimal.Decimal
}

func NewAlertService(
	notifications notificationRepository,
	stock stockRepository,
	lowThreshold, criticalThreshold int64,
	walletFloor decimal.Decimal,
) *AlertService {
	return &AlertService{
		notifications:     notifications,
		stock:             stock,
		lowThreshold:      lowThreshold,
		criticalThreshold: criticalThreshold,
		walletFloor:       walletFloor,
	}
}

// CheckWalletFloor queues a low-balance notification when a debit lands the
// wallet under the floor. Best effort: failures are logged and swallowed.
func (s *AlertService) CheckWalletFloor(ctx context.Context, d *domain.Distributor, balance decimal.Decimal) {
	if balance.GreaterThanOrEqual(s.walletFloor) {
		return
	}

	severity := domain.SeverityWarning
	if balance.IsNegative() {
		severity = domain.SeverityCritical
	}

	id := d.ID
	n := &domain.Notification{
		ID:            uuid.New(),
		Type:          domain.NotificationTypeWalletLow,
		Severity:      severity,
		DistributorID: &id,
		Message:       fmt.Sprintf("wallet balance %s for %s is below %s", balance, d.Name, s.walletFloor),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		logging.FromContext(ctx).Warn("wallet alert not recorded",
			"distributor_id", d.ID,
			"error", err,
		)
	}
}

// OrderPlaced queues an informational notification for a booked order.
func (s *AlertService) OrderPlaced(ctx context.Context, order *domain.Order) {
	id := order.DistributorID
	n := &domain.Notification{
		ID:            uuid.New(),
		Type:          domain.NotificationTypeOrderPlaced,
		Severity:      domain.SeverityInfo,
		DistributorID: &id,
		Message:       fmt.Sprintf("order %s placed for %s", order.ID, order.TotalAmount.StringFixed(2)),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		logging.FromContext(ctx).Warn("order notification not recorded",
			"order_id", order.ID,
			"error", err,
		)
	}
}

// OrderFailed records a rejected order attempt so ops can follow up on
// distributors bouncing off their credit ceiling.
func (s *AlertService) OrderFailed(ctx context.Context, distributorID uuid.UUID, total decimal.Decimal, reason string) {
	id := distributorID
	n := &domain.Notification{
		ID:            uuid.New(),
		Type:          domain.NotificationTypeOrderFailed,
		Severity:      domain.SeverityWarning,
		DistributorID: &id,
		Message:       fmt.Sprintf("order for %s rejected: %s", total.StringFixed(2), reason),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		logging.FromContext(ctx).Warn("order notification not recorded",
			"distributor_id", distributorID,
			"error", err,
		)
	}
}

// ScanStock sweeps every level under the low threshold and queues one alert
// per (location, sku), skipping pairs that already have one pending. It
// returns how many alerts were queued.
func (s *AlertService) ScanStock(ctx context.Context) (int, error) {
	items, err := s.stock.ListBelow(ctx, s.lowThreshold)
	if err != nil {
		return 0, fmt.Errorf("ScanStock: %w", err)
	}

	queued := 0
	for _, item := range items {
		pending, err := s.notifications.HasPendingStockAlert(ctx, item.LocationID, item.SKUID)
		if err != nil {
			return queued, fmt.Errorf("ScanStock: %w", err)
		}
		if pending {
			continue
		}

		if err := s.notifications.Create(ctx, stockAlert(item, s.criticalThreshold)); err != nil {
			return queued, fmt.Errorf("ScanStock: %w", err)
		}
		queued++
	}

	if queued > 0 {
		logging.FromContext(ctx).Info("stock alerts queued", "count", queued)
	}
	return queued, nil
}

func stockAlert(item domain.LowStockItem, criticalThreshold int64) *domain.Notification {
	severity := domain.SeverityWarning
	if item.Available < criticalThreshold {
		severity = domain.SeverityCritical
	}

	location := "plant"
	var storeID *uuid.UUID
	if item.LocationID != domain.PlantLocationID {
		id := item.LocationID
		storeID = &id
		location = "store " + id.String()
	}

	skuID := item.SKUID
	return &domain.Notification{
		ID:        uuid.New(),
		Type:      domain.NotificationTypeStockLow,
		Severity:  severity,
		StoreID:   storeID,
		SKUID:     &skuID,
		Message:   fmt.Sprintf("stock for %s at %s down to %d", item.SKUName, location, item.Available),
		CreatedAt: time.Now().UTC(),
	}
}
