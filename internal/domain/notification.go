package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeWalletLow   NotificationType = "wallet_low"
	NotificationTypeStockLow    NotificationType = "stock_low"
	NotificationTypeOrderPlaced NotificationType = "order_placed"
	NotificationTypeOrderFailed NotificationType = "order_failed"
)

type NotificationSeverity string

const (
	SeverityInfo     NotificationSeverity = "info"
	SeverityWarning  NotificationSeverity = "warning"
	SeverityCritical NotificationSeverity = "critical"
)

type Notification struct {
	ID            uuid.UUID
	Type          NotificationType
	Severity      NotificationSeverity
	DistributorID *uuid.UUID
	StoreID       *uuid.UUID
	SKUID         *uuid.UUID
	Message       string
	CreatedAt     time.Time
	DispatchedAt  *time.Time
}
