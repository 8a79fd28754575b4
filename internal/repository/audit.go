package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/plantdesk/dms/internal/domain"
)

const auditColumns = `id, timestamp, action, entity_type, entity_id, actor,
	old_value, new_value, details`

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (
			id, timestamp, action, entity_type, entity_id, actor, old_value,
			new_value, details
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.Timestamp, entry.Action, entry.EntityType,
		entry.EntityID, entry.Actor, entry.OldValue, entry.NewValue,
		entry.Details,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *AuditRepository) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+auditColumns+` FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY timestamp DESC LIMIT $3`, entityType, entityID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByEntity: %w", err)
	}
	defer rows.Close()

	var list []domain.AuditLog
	for rows.Next() {
		var entry domain.AuditLog
		err := rows.Scan(
			&entry.ID, &entry.Timestamp, &entry.Action, &entry.EntityType,
			&entry.EntityID, &entry.Actor, &entry.OldValue, &entry.NewValue,
			&entry.Details,
		)
		if err != nil {
			return nil, fmt.Errorf("ListByEntity: scan: %w", err)
		}
		list = append(list, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByEntity: rows: %w", err)
	}
	return list, nil
}
