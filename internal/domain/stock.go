package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlantLocationID is the fixed location id for plant (factory) stock.
// Store stock uses the store's own id as location.
var PlantLocationID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type StockLevel struct {
	LocationID uuid.UUID
	SKUID      uuid.UUID
	Quantity   int64
	Reserved   int64
}

// Available is what can still be sold or reserved.
func (s StockLevel) Available() int64 {
	return s.Quantity - s.Reserved
}

type MovementType string

const (
	MovementTypeProduction  MovementType = "production"
	MovementTypeTransferOut MovementType = "transfer_out"
	MovementTypeTransferIn  MovementType = "transfer_in"
	MovementTypeSale        MovementType = "sale"
	MovementTypeReturn      MovementType = "return"
	MovementTypeAdjustment  MovementType = "adjustment"
)

// StockMovement mirrors the wallet ledger for inventory: QuantityAfter is the
// location+SKU level after applying QuantityChange.
type StockMovement struct {
	ID             uuid.UUID
	Date           time.Time
	SKUID          uuid.UUID
	LocationID     uuid.UUID
	QuantityChange int64
	QuantityAfter  int64
	Type           MovementType
	Notes          *string
	InitiatedBy    string
}

type LowStockItem struct {
	LocationID uuid.UUID
	SKUID      uuid.UUID
	SKUName    string
	Available  int64
}
