package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plantdesk/dms/internal/domain"
)

const returnColumns = `id, order_id, distributor_id, status, estimated_credit,
	actual_credit, remarks, approval_remarks, created_by, created_at,
	approved_by, approved_at`

const returnItemColumns = `id, return_id, sku_id, quantity, reason`

type ReturnRepository struct {
	db *sql.DB
}

func NewReturnRepository(db *sql.DB) *ReturnRepository {
	return &ReturnRepository{db: db}
}

func (r *ReturnRepository) Create(ctx context.Context, tx *sql.Tx, ret *domain.Return) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO returns (
			id, order_id, distributor_id, status, estimated_credit, actual_credit,
			remarks, approval_remarks, created_by, created_at, approved_by, approved_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		ret.ID, ret.OrderID, ret.DistributorID, ret.Status, ret.EstimatedCredit,
		ret.ActualCredit, ret.Remarks, ret.ApprovalRemarks, ret.CreatedBy,
		ret.CreatedAt, ret.ApprovedBy, ret.ApprovedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}

	for i := range ret.Items {
		item := &ret.Items[i]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO return_items (id, return_id, sku_id, quantity, reason)
			VALUES ($1, $2, $3, $4, $5)`,
			item.ID, item.ReturnID, item.SKUID, item.Quantity, item.Reason,
		)
		if err != nil {
			return fmt.Errorf("Create: item: %w", err)
		}
	}
	return nil
}

func (r *ReturnRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Return, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+returnColumns+` FROM returns WHERE id = $1`, id,
	)
	ret, err := scanReturn(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}

	ret.Items, err = r.loadItems(ctx, r.db, id)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return ret, nil
}

func (r *ReturnRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Return, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+returnColumns+` FROM returns WHERE id = $1 FOR UPDATE`, id,
	)
	ret, err := scanReturn(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}

	ret.Items, err = r.loadItems(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return ret, nil
}

func (r *ReturnRepository) ListByStatus(ctx context.Context, status domain.ReturnStatus) ([]domain.Return, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+returnColumns+` FROM returns WHERE status = $1 ORDER BY created_at`, status,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByStatus: %w", err)
	}
	defer rows.Close()

	var list []domain.Return
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByStatus: scan: %w", err)
		}
		list = append(list, *ret)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByStatus: rows: %w", err)
	}
	return list, nil
}

func (r *ReturnRepository) MarkCredited(ctx context.Context, tx *sql.Tx, id uuid.UUID, actualCredit decimal.Decimal, approvedBy string, at time.Time, remarks *string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE returns SET status = $1, actual_credit = $2, approved_by = $3,
			approved_at = $4, approval_remarks = $5
		WHERE id = $6`,
		domain.ReturnStatusCredited, actualCredit, approvedBy, at, remarks, id,
	)
	if err != nil {
		return fmt.Errorf("MarkCredited: %w", err)
	}
	return nil
}

func (r *ReturnRepository) MarkRejected(ctx context.Context, tx *sql.Tx, id uuid.UUID, rejectedBy string, at time.Time, remarks *string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE returns SET status = $1, approved_by = $2, approved_at = $3,
			approval_remarks = $4
		WHERE id = $5`,
		domain.ReturnStatusRejected, rejectedBy, at, remarks, id,
	)
	if err != nil {
		return fmt.Errorf("MarkRejected: %w", err)
	}
	return nil
}

func (r *ReturnRepository) loadItems(ctx context.Context, q querier, returnID uuid.UUID) ([]domain.ReturnItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+returnItemColumns+` FROM return_items WHERE return_id = $1 ORDER BY id`, returnID,
	)
	if err != nil {
		return nil, fmt.Errorf("loadItems: %w", err)
	}
	defer rows.Close()

	var items []domain.ReturnItem
	for rows.Next() {
		var item domain.ReturnItem
		err := rows.Scan(&item.ID, &item.ReturnID, &item.SKUID, &item.Quantity, &item.Reason)
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

func scanReturn(s scanner) (*domain.Return, error) {
	var ret domain.Return
	err := s.Scan(
		&ret.ID, &ret.OrderID, &ret.DistributorID, &ret.Status,
		&ret.EstimatedCredit, &ret.ActualCredit, &ret.Remarks,
		&ret.ApprovalRemarks, &ret.CreatedBy, &ret.CreatedAt,
		&ret.ApprovedBy, &ret.ApprovedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}
