package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountKind string

const (
	AccountKindDistributor AccountKind = "distributor"
	AccountKindStore       AccountKind = "store"
)

// AccountRef identifies the single wallet owner of a transaction: exactly one
// distributor or one store.
type AccountRef struct {
	Kind AccountKind
	ID   uuid.UUID
}

func DistributorRef(id uuid.UUID) AccountRef {
	return AccountRef{Kind: AccountKindDistributor, ID: id}
}

func StoreRef(id uuid.UUID) AccountRef {
	return AccountRef{Kind: AccountKindStore, ID: id}
}

func (r AccountRef) String() string {
	return string(r.Kind) + ":" + r.ID.String()
}

type Distributor struct {
	ID                uuid.UUID
	Name              string
	Phone             string
	State             string
	Area              string
	AgentCode         *string
	GSTIN             *string
	BillingAddress    *string
	WalletBalance     decimal.Decimal
	CreditLimit       decimal.Decimal
	StoreID           *uuid.UUID
	ASMName           *string
	ExecutiveName     *string
	HasSpecialSchemes bool
	DateAdded         time.Time
	LastOrderDate     *time.Time
}

type Store struct {
	ID            uuid.UUID
	Name          string
	Location      string
	AddressLine1  *string
	AddressLine2  *string
	Email         *string
	Phone         *string
	GSTIN         *string
	WalletBalance decimal.Decimal
	CreatedAt     time.Time
}
