package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/plantdesk/dms/internal/domain"
	"github.com/plantdesk/dms/internal/logging"
)

// recordAudit writes an audit entry after the flow's transaction has
// committed. Failures are logged and swallowed; they never fail the flow.
func recordAudit(ctx context.Context, audits auditRepository, action, entityType string, entityID uuid.UUID, actor string, oldValue, newValue any, details *string) {
	log := logging.FromContext(ctx)

	entry := &domain.AuditLog{
		ID:         uuid.New(),
		Timestamp:  time.Now().UTC(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID.String(),
		Actor:      actor,
		OldValue:   encodeAuditValue(log, action, oldValue),
		NewValue:   encodeAuditValue(log, action, newValue),
		Details:    details,
	}
	if err := audits.Create(ctx, entry); err != nil {
		log.Warn("audit write failed",
			"action", action,
			"entity_type", entityType,
			"entity_id", entityID,
			"error", err,
		)
	}
}

func encodeAuditValue(log *slog.Logger, action string, v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Warn("audit value not serializable", "action", action, "error", err)
		return nil
	}
	return b
}
