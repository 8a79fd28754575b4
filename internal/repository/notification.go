package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/plantdesk/dms/internal/domain"
)

const notificationColumns = `id, type, severity, distributor_id, store_id,
	sku_id, message, created_at, dispatched_at`

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (
			id, type, severity, distributor_id, store_id, sku_id, message,
			created_at, dispatched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID, n.Type, n.Severity, n.DistributorID, n.StoreID, n.SKUID,
		n.Message, n.CreatedAt, n.DispatchedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// GetPending returns undispatched notifications oldest first.
func (r *NotificationRepository) GetPending(ctx context.Context, limit int) ([]domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		WHERE dispatched_at IS NULL ORDER BY created_at LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("GetPending: %w", err)
	}
	defer rows.Close()

	var list []domain.Notification
	for rows.Next() {
		var n domain.Notification
		err := rows.Scan(
			&n.ID, &n.Type, &n.Severity, &n.DistributorID, &n.StoreID,
			&n.SKUID, &n.Message, &n.CreatedAt, &n.DispatchedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("GetPending: scan: %w", err)
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetPending: rows: %w", err)
	}
	return list, nil
}

func (r *NotificationRepository) MarkDispatched(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET dispatched_at = $1 WHERE id = ANY($2)`,
		at, pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("MarkDispatched: %w", err)
	}
	return nil
}

// HasPendingStockAlert reports whether an undispatched low-stock alert already
// exists for the (location, sku) pair, so scans do not stack duplicates.
func (r *NotificationRepository) HasPendingStockAlert(ctx context.Context, locationID, skuID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE type = $1 AND dispatched_at IS NULL
				AND store_id IS NOT DISTINCT FROM $2 AND sku_id = $3
		)`,
		domain.NotificationTypeStockLow, storeIDForLocation(locationID), skuID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("HasPendingStockAlert: %w", err)
	}
	return exists, nil
}

// storeIDForLocation maps a stock location onto the notification's store
// column: plant stock has no store.
func storeIDForLocation(locationID uuid.UUID) *uuid.UUID {
	if locationID == domain.PlantLocationID {
		return nil
	}
	return &locationID
}
