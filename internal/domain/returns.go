package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReturnStatus string

const (
	ReturnStatusPending  ReturnStatus = "pending"
	ReturnStatusCredited ReturnStatus = "credited"
	ReturnStatusRejected ReturnStatus = "rejected"
)

type Return struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	DistributorID   uuid.UUID
	Status          ReturnStatus
	EstimatedCredit decimal.Decimal
	ActualCredit    *decimal.Decimal
	Remarks         *string
	ApprovalRemarks *string
	CreatedBy       string
	CreatedAt       time.Time
	ApprovedBy      *string
	ApprovedAt      *time.Time
	Items           []ReturnItem
}

type ReturnItem struct {
	ID       uuid.UUID
	ReturnID uuid.UUID
	SKUID    uuid.UUID
	Quantity int64
	Reason   *string
}
