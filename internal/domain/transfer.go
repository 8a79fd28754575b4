package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "pending"
	TransferStatusDelivered TransferStatus = "delivered"
)

type StockTransfer struct {
	ID                 uuid.UUID
	DestinationStoreID uuid.UUID
	Date               time.Time
	Status             TransferStatus
	TotalValue         decimal.Decimal
	InitiatedBy        string
	DeliveredDate      *time.Time
	CreatedAt          time.Time
	Items              []StockTransferItem
}

type StockTransferItem struct {
	ID         uuid.UUID
	TransferID uuid.UUID
	SKUID      uuid.UUID
	Quantity   int64
	UnitPrice  decimal.Decimal
}

func (i StockTransferItem) LineValue() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}
