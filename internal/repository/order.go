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

const orderColumns = `id, distributor_id, date, total_amount, status, placed_by,
	delivered_date, cancelled_date, cancel_remarks, created_at`

const orderItemColumns = `id, order_id, sku_id, quantity, unit_price, is_freebie,
	returned_quantity`

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, tx *sql.Tx, o *domain.Order) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO orders (
			id, distributor_id, date, total_amount, status, placed_by,
			delivered_date, cancelled_date, cancel_remarks, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		o.ID, o.DistributorID, o.Date, o.TotalAmount, o.Status, o.PlacedBy,
		o.DeliveredDate, o.CancelledDate, o.CancelRemarks, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (
				id, order_id, sku_id, quantity, unit_price, is_freebie, returned_quantity
			) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			item.ID, item.OrderID, item.SKUID, item.Quantity, item.UnitPrice,
			item.IsFreebie, item.ReturnedQuantity,
		)
		if err != nil {
			return fmt.Errorf("Create: item: %w", err)
		}
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id,
	)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}

	o.Items, err = r.loadItems(ctx, r.db, id)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return o, nil
}

// GetForUpdate locks the order row and loads its items inside tx.
func (r *OrderRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Order, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id,
	)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}

	o.Items, err = r.loadItems(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) ListByDistributor(ctx context.Context, distributorID uuid.UUID, limit, offset int) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders
		WHERE distributor_id = $1 ORDER BY date DESC LIMIT $2 OFFSET $3`,
		distributorID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByDistributor: %w", err)
	}
	defer rows.Close()

	var list []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByDistributor: scan: %w", err)
		}
		list = append(list, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByDistributor: rows: %w", err)
	}
	return list, nil
}

func (r *OrderRepository) MarkDelivered(ctx context.Context, tx *sql.Tx, id uuid.UUID, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, delivered_date = $2 WHERE id = $3`,
		domain.OrderStatusDelivered, at, id,
	)
	if err != nil {
		return fmt.Errorf("MarkDelivered: %w", err)
	}
	return nil
}

func (r *OrderRepository) MarkCancelled(ctx context.Context, tx *sql.Tx, id uuid.UUID, at time.Time, remarks *string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, cancelled_date = $2, cancel_remarks = $3 WHERE id = $4`,
		domain.OrderStatusCancelled, at, remarks, id,
	)
	if err != nil {
		return fmt.Errorf("MarkCancelled: %w", err)
	}
	return nil
}

// AddReturnedQuantity bumps the returned counter on an order item after a
// return is approved.
func (r *OrderRepository) AddReturnedQuantity(ctx context.Context, tx *sql.Tx, itemID uuid.UUID, delta int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE order_items SET returned_quantity = returned_quantity + $1 WHERE id = $2`,
		delta, itemID,
	)
	if err != nil {
		return fmt.Errorf("AddReturnedQuantity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("AddReturnedQuantity: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("AddReturnedQuantity: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *OrderRepository) loadItems(ctx context.Context, q querier, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+orderItemColumns+` FROM order_items WHERE order_id = $1 ORDER BY id`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("loadItems: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.SKUID, &item.Quantity,
			&item.UnitPrice, &item.IsFreebie, &item.ReturnedQuantity,
		)
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

func scanOrder(s scanner) (*domain.Order, error) {
	var o domain.Order
	err := s.Scan(
		&o.ID, &o.DistributorID, &o.Date, &o.TotalAmount, &o.Status, &o.PlacedBy,
		&o.DeliveredDate, &o.CancelledDate, &o.CancelRemarks, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
