package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/plantdesk/dms/internal/domain"
	"github.com/plantdesk/dms/internal/logging"
)

type StockService struct {
	db     *sql.DB
	skus   skuRepository
	stock  stockRepository
	audits auditRepository
}

func NewStockService(db *sql.DB, skus skuRepository, stock stockRepository, audits auditRepository) *StockService {
	return &StockService{
		db:     db,
		skus:   skus,
		stock:  stock,
		audits: audits,
	}
}

type ProductionRequest struct {
	SKUID       uuid.UUID
	Quantity    int64
	Date        time.Time // zero means now
	Notes       *string
	InitiatedBy string
}

// RecordProduction books freshly produced quantity into plant stock.
func (s *StockService) RecordProduction(ctx context.Context, req ProductionRequest) (*domain.StockLevel, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("RecordProduction: %w", domain.ErrInvalidQuantity)
	}
	if _, err := s.skus.GetByID(ctx, req.SKUID); err != nil {
		return nil, fmt.Errorf("RecordProduction: %w", err)
	}

	now := time.Now().UTC()
	date := req.Date
	if date.IsZero() {
		date = now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("RecordProduction: begin tx: %w", err)
	}
	defer tx.Rollback()

	after, err := s.stock.AdjustLevel(ctx, tx, domain.PlantLocationID, req.SKUID, req.Quantity, 0)
	if err != nil {
		return nil, fmt.Errorf("RecordProduction: %w", err)
	}

	movement := &domain.StockMovement{
		ID:             uuid.New(),
		Date:           date,
		SKUID:          req.SKUID,
		LocationID:     domain.PlantLocationID,
		QuantityChange: req.Quantity,
		QuantityAfter:  after.Quantity,
		Type:           domain.MovementTypeProduction,
		Notes:          req.Notes,
		InitiatedBy:    req.InitiatedBy,
	}
	if err := s.stock.CreateMovement(ctx, tx, movement); err != nil {
		return nil, fmt.Errorf("RecordProduction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("RecordProduction: commit: %w", err)
	}

	logging.FromContext(ctx).Info("production recorded",
		"sku_id", req.SKUID,
		"quantity", req.Quantity,
		"level_after", after.Quantity,
	)
	recordAudit(ctx, s.audits, "stock.production", "stock_movement", movement.ID,
		req.InitiatedBy, nil, movement, req.Notes)

	return after, nil
}

// Adjust applies a manual correction to a location's level. Negative deltas
// must leave enough unreserved quantity behind.
func (s *StockService) Adjust(ctx context.Context, locationID, skuID uuid.UUID, delta int64, notes *string, initiatedBy string) (*domain.StockLevel, error) {
	if delta == 0 {
		return nil, fmt.Errorf("Adjust: %w", domain.ErrInvalidQuantity)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Adjust: begin tx: %w", err)
	}
	defer tx.Rollback()

	level, err := s.stock.GetLevelForUpdate(ctx, tx, locationID, skuID)
	if err != nil {
		return nil, fmt.Errorf("Adjust: %w", err)
	}
	if delta < 0 && level.Available() < -delta {
		return nil, fmt.Errorf("Adjust: sku %s: %w", skuID, domain.ErrInsufficientStock)
	}

	after, err := s.stock.AdjustLevel(ctx, tx, locationID, skuID, delta, 0)
	if err != nil {
		return nil, fmt.Errorf("Adjust: %w", err)
	}

	movement := &domain.StockMovement{
		ID:             uuid.New(),
		Date:           time.Now().UTC(),
		SKUID:          skuID,
		LocationID:     locationID,
		QuantityChange: delta,
		QuantityAfter:  after.Quantity,
		Type:           domain.MovementTypeAdjustment,
		Notes:          notes,
		InitiatedBy:    initiatedBy,
	}
	if err := s.stock.CreateMovement(ctx, tx, movement); err != nil {
		return nil, fmt.Errorf("Adjust: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Adjust: commit: %w", err)
	}

	logging.FromContext(ctx).Info("stock adjusted",
		"location_id", locationID,
		"sku_id", skuID,
		"delta", delta,
		"level_after", after.Quantity,
	)
	recordAudit(ctx, s.audits, "stock.adjust", "stock_movement", movement.ID,
		initiatedBy, level, after, notes)

	return after, nil
}

func (s *StockService) ActiveSKUs(ctx context.Context) ([]domain.SKU, error) {
	skus, err := s.skus.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("ActiveSKUs: %w", err)
	}
	return skus, nil
}

func (s *StockService) Level(ctx context.Context, locationID, skuID uuid.UUID) (*domain.StockLevel, error) {
	level, err := s.stock.GetLevel(ctx, locationID, skuID)
	if err != nil {
		return nil, fmt.Errorf("Level: %w", err)
	}
	return level, nil
}

func (s *StockService) Levels(ctx context.Context, locationID uuid.UUID) ([]domain.StockLevel, error) {
	levels, err := s.stock.ListLevels(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("Levels: %w", err)
	}
	return levels, nil
}

func (s *StockService) Movements(ctx context.Context, locationID uuid.UUID, limit int) ([]domain.StockMovement, error) {
	movements, err := s.stock.ListMovements(ctx, locationID, limit)
	if err != nil {
		return nil, fmt.Errorf("Movements: %w", err)
	}
	return movements, nil
}
