package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/plantdesk/dms/internal/domain"
)

const skuColumns = `id, name, price, carton_size, gst_percentage, hsn_code, status`

type SKURepository struct {
	db *sql.DB
}

func NewSKURepository(db *sql.DB) *SKURepository {
	return &SKURepository{db: db}
}

func (r *SKURepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SKU, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+skuColumns+` FROM skus WHERE id = $1`, id,
	)
	sku, err := scanSKU(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return sku, nil
}

// GetByIDs returns the matching SKUs keyed by id. Missing ids are simply
// absent from the map; callers decide whether that is an error.
func (r *SKURepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.SKU, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+skuColumns+` FROM skus WHERE id = ANY($1)`, pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("GetByIDs: %w", err)
	}
	defer rows.Close()

	skus := make(map[uuid.UUID]domain.SKU, len(ids))
	for rows.Next() {
		sku, err := scanSKU(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByIDs: scan: %w", err)
		}
		skus[sku.ID] = *sku
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByIDs: rows: %w", err)
	}
	return skus, nil
}

func (r *SKURepository) ListActive(ctx context.Context) ([]domain.SKU, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+skuColumns+` FROM skus WHERE status = $1 ORDER BY name`,
		domain.SKUStatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer rows.Close()

	var list []domain.SKU
	for rows.Next() {
		sku, err := scanSKU(rows)
		if err != nil {
			return nil, fmt.Errorf("ListActive: scan: %w", err)
		}
		list = append(list, *sku)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListActive: rows: %w", err)
	}
	return list, nil
}

func (r *SKURepository) Create(ctx context.Context, sku *domain.SKU) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO skus (id, name, price, carton_size, gst_percentage, hsn_code, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sku.ID, sku.Name, sku.Price, sku.CartonSize, sku.GSTPercentage,
		sku.HSNCode, sku.Status,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func scanSKU(s scanner) (*domain.SKU, error) {
	var sku domain.SKU
	err := s.Scan(
		&sku.ID, &sku.Name, &sku.Price, &sku.CartonSize, &sku.GSTPercentage,
		&sku.HSNCode, &sku.Status,
	)
	if err != nil {
		return nil, err
	}
	return &sku, nil
}
