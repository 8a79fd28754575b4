package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SKUStatus string

const (
	SKUStatusActive   SKUStatus = "active"
	SKUStatusInactive SKUStatus = "inactive"
)

type SKU struct {
	ID            uuid.UUID
	Name          string
	Price         decimal.Decimal
	CartonSize    int64
	GSTPercentage decimal.Decimal
	HSNCode       *string
	Status        SKUStatus
}
