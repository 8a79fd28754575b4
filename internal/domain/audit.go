package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID         uuid.UUID
	Timestamp  time.Time
	Action     string
	EntityType string
	EntityID   string
	Actor      string
	OldValue   json.RawMessage
	NewValue   json.RawMessage
	Details    *string
}
