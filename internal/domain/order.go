package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type Order struct {
	ID            uuid.UUID
	DistributorID uuid.UUID
	Date          time.Time
	TotalAmount   decimal.Decimal
	Status        OrderStatus
	PlacedBy      string
	DeliveredDate *time.Time
	CancelledDate *time.Time
	CancelRemarks *string
	CreatedAt     time.Time
	Items         []OrderItem
}

type OrderItem struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	SKUID            uuid.UUID
	Quantity         int64
	UnitPrice        decimal.Decimal
	IsFreebie        bool
	ReturnedQuantity int64
}

// LineTotal is zero for freebies regardless of quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	if i.IsFreebie {
		return decimal.Zero
	}
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}
