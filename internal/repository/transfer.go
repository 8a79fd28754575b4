package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/plantdesk/dms/internal/domain"
)

const transferColumns = `id, destination_store_id, date, status, total_value,
	initiated_by, delivered_date, created_at`

const transferItemColumns = `id, transfer_id, sku_id, quantity, unit_price`

type StockTransferRepository struct {
	db *sql.DB
}

func NewStockTransferRepository(db *sql.DB) *StockTransferRepository {
	return &StockTransferRepository{db: db}
}

func (r *StockTransferRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.StockTransfer) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO stock_transfers (
			id, destination_store_id, date, status, total_value, initiated_by,
			delivered_date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.DestinationStoreID, t.Date, t.Status, t.TotalValue,
		t.InitiatedBy, t.DeliveredDate, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}

	for i := range t.Items {
		item := &t.Items[i]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO stock_transfer_items (id, transfer_id, sku_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)`,
			item.ID, item.TransferID, item.SKUID, item.Quantity, item.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("Create: item: %w", err)
		}
	}
	return nil
}

func (r *StockTransferRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.StockTransfer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transferColumns+` FROM stock_transfers WHERE id = $1`, id,
	)
	t, err := scanTransfer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}

	t.Items, err = r.loadItems(ctx, r.db, id)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

func (r *StockTransferRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.StockTransfer, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+transferColumns+` FROM stock_transfers WHERE id = $1 FOR UPDATE`, id,
	)
	t, err := scanTransfer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}

	t.Items, err = r.loadItems(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return t, nil
}

func (r *StockTransferRepository) ListByStatus(ctx context.Context, status domain.TransferStatus) ([]domain.StockTransfer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transferColumns+` FROM stock_transfers WHERE status = $1 ORDER BY date`, status,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByStatus: %w", err)
	}
	defer rows.Close()

	var list []domain.StockTransfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByStatus: scan: %w", err)
		}
		list = append(list, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByStatus: rows: %w", err)
	}
	return list, nil
}

func (r *StockTransferRepository) MarkDelivered(ctx context.Context, tx *sql.Tx, id uuid.UUID, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE stock_transfers SET status = $1, delivered_date = $2 WHERE id = $3`,
		domain.TransferStatusDelivered, at, id,
	)
	if err != nil {
		return fmt.Errorf("MarkDelivered: %w", err)
	}
	return nil
}

func (r *StockTransferRepository) loadItems(ctx context.Context, q querier, transferID uuid.UUID) ([]domain.StockTransferItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+transferItemColumns+` FROM stock_transfer_items
		WHERE transfer_id = $1 ORDER BY id`, transferID,
	)
	if err != nil {
		return nil, fmt.Errorf("loadItems: %w", err)
	}
	defer rows.Close()

	var items []domain.StockTransferItem
	for rows.Next() {
		var item domain.StockTransferItem
		err := rows.Scan(&item.ID, &item.TransferID, &item.SKUID, &item.Quantity, &item.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("loadItems: scan: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loadItems: rows: %w", err)
	}
	return items, nil
}

func scanTransfer(s scanner) (*domain.StockTransfer, error) {
	var t domain.StockTransfer
	err := s.Scan(
		&t.ID, &t.DestinationStoreID, &t.Date, &t.Status, &t.TotalValue,
		&t.InitiatedBy, &t.DeliveredDate, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
