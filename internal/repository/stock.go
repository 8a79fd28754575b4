package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/plantdesk/dms/internal/domain"
)

const movementColumns = `id, date, sku_id, location_id, quantity_change,
	quantity_after, type, notes, initiated_by`

type StockRepository struct {
	db *sql.DB
}

func NewStockRepository(db *sql.DB) *StockRepository {
	return &StockRepository{db: db}
}

// GetLevel returns the level for (location, sku). A missing row reads as a
// zero level, not an error.
func (r *StockRepository) GetLevel(ctx context.Context, locationID, skuID uuid.UUID) (*domain.StockLevel, error) {
	return r.getLevel(ctx, r.db, locationID, skuID, "")
}

// GetLevelForUpdate locks the level row for the life of tx. A missing row
// still reads as a zero level; AdjustLevel creates it on first write.
func (r *StockRepository) GetLevelForUpdate(ctx context.Context, tx *sql.Tx, locationID, skuID uuid.UUID) (*domain.StockLevel, error) {
	return r.getLevel(ctx, tx, locationID, skuID, " FOR UPDATE")
}

func (r *StockRepository) getLevel(ctx context.Context, q querier, locationID, skuID uuid.UUID, suffix string) (*domain.StockLevel, error) {
	level := domain.StockLevel{LocationID: locationID, SKUID: skuID}
	err := q.QueryRowContext(ctx,
		`SELECT quantity, reserved FROM stock_levels
		WHERE location_id = $1 AND sku_id = $2`+suffix, locationID, skuID,
	).Scan(&level.Quantity, &level.Reserved)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &level, nil
		}
		return nil, fmt.Errorf("GetLevel: %w", err)
	}
	return &level, nil
}

// AdjustLevel applies the deltas atomically, creating the row when absent,
// and returns the resulting level.
func (r *StockRepository) AdjustLevel(ctx context.Context, tx *sql.Tx, locationID, skuID uuid.UUID, deltaQuantity, deltaReserved int64) (*domain.StockLevel, error) {
	level := domain.StockLevel{LocationID: locationID, SKUID: skuID}
	err := tx.QueryRowContext(ctx,
		`INSERT INTO stock_levels (location_id, sku_id, quantity, reserved)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (location_id, sku_id) DO UPDATE SET
			quantity = stock_levels.quantity + EXCLUDED.quantity,
			reserved = stock_levels.reserved + EXCLUDED.reserved
		RETURNING quantity, reserved`,
		locationID, skuID, deltaQuantity, deltaReserved,
	).Scan(&level.Quantity, &level.Reserved)
	if err != nil {
		return nil, fmt.Errorf("AdjustLevel: %w", err)
	}
	return &level, nil
}

func (r *StockRepository) ListLevels(ctx context.Context, locationID uuid.UUID) ([]domain.StockLevel, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT location_id, sku_id, quantity, reserved FROM stock_levels
		WHERE location_id = $1 ORDER BY sku_id`, locationID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListLevels: %w", err)
	}
	defer rows.Close()

	var list []domain.StockLevel
	for rows.Next() {
		var level domain.StockLevel
		err := rows.Scan(&level.LocationID, &level.SKUID, &level.Quantity, &level.Reserved)
		if err != nil {
			return nil, fmt.Errorf("ListLevels: scan: %w", err)
		}
		list = append(list, level)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListLevels: rows: %w", err)
	}
	return list, nil
}

// ListBelow returns every (location, sku) whose available quantity sits under
// threshold, with the SKU name joined in for alert messages.
func (r *StockRepository) ListBelow(ctx context.Context, threshold int64) ([]domain.LowStockItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT l.location_id, l.sku_id, s.name, l.quantity - l.reserved AS available
		FROM stock_levels l
		JOIN skus s ON s.id = l.sku_id
		WHERE l.quantity - l.reserved < $1
		ORDER BY available`, threshold,
	)
	if err != nil {
		return nil, fmt.Errorf("ListBelow: %w", err)
	}
	defer rows.Close()

	var list []domain.LowStockItem
	for rows.Next() {
		var item domain.LowStockItem
		err := rows.Scan(&item.LocationID, &item.SKUID, &item.SKUName, &item.Available)
		if err != nil {
			return nil, fmt.Errorf("ListBelow: scan: %w", err)
		}
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListBelow: rows: %w", err)
	}
	return list, nil
}

func (r *StockRepository) CreateMovement(ctx context.Context, tx *sql.Tx, m *domain.StockMovement) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO stock_movements (
			id, date, sku_id, location_id, quantity_change, quantity_after,
			type, notes, initiated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.Date, m.SKUID, m.LocationID, m.QuantityChange, m.QuantityAfter,
		m.Type, m.Notes, m.InitiatedBy,
	)
	if err != nil {
		return fmt.Errorf("CreateMovement: %w", err)
	}
	return nil
}

func (r *StockRepository) ListMovements(ctx context.Context, locationID uuid.UUID, limit int) ([]domain.StockMovement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+movementColumns+` FROM stock_movements
		WHERE location_id = $1 ORDER BY date DESC LIMIT $2`, locationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ListMovements: %w", err)
	}
	defer rows.Close()

	var list []domain.StockMovement
	for rows.Next() {
		var m domain.StockMovement
		err := rows.Scan(
			&m.ID, &m.Date, &m.SKUID, &m.LocationID, &m.QuantityChange,
			&m.QuantityAfter, &m.Type, &m.Notes, &m.InitiatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("ListMovements: scan: %w", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListMovements: rows: %w", err)
	}
	return list, nil
}
