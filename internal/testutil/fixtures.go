package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plantdesk/dms/internal/domain"
)

func SeedDistributor(t *testing.T, db *sql.DB, name string, creditLimit decimal.Decimal) *domain.Distributor {
	t.Helper()

	d := &domain.Distributor{
		ID:          uuid.New(),
		Name:        name,
		Phone:       "9999000001",
		State:       "Karnataka",
		Area:        "Bengaluru",
		CreditLimit: creditLimit,
		DateAdded:   time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO distributors (id, name, phone, state, area, wallet_balance, credit_limit, date_added)
		 VALUES ($1, $2, $3, $4, $5, 0, $6, $7)`,
		d.ID, d.Name, d.Phone, d.State, d.Area, d.CreditLimit, d.DateAdded,
	)
	if err != nil {
		t.Fatalf("seed distributor %s: %v", name, err)
	}
	return d
}

func SeedStore(t *testing.T, db *sql.DB, name string) *domain.Store {
	t.Helper()

	st := &domain.Store{
		ID:        uuid.New(),
		Name:      name,
		Location:  "Mysuru",
		CreatedAt: time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO stores (id, name, location, wallet_balance, created_at)
		 VALUES ($1, $2, $3, 0, $4)`,
		st.ID, st.Name, st.Location, st.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed store %s: %v", name, err)
	}
	return st
}

func SeedSKU(t *testing.T, db *sql.DB, name string, price decimal.Decimal) *domain.SKU {
	t.Helper()

	sku := &domain.SKU{
		ID:            uuid.New(),
		Name:          name,
		Price:         price,
		CartonSize:    24,
		GSTPercentage: decimal.NewFromInt(18),
		Status:        domain.SKUStatusActive,
	}

	_, err := db.Exec(
		`INSERT INTO skus (id, name, price, carton_size, gst_percentage, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sku.ID, sku.Name, sku.Price, sku.CartonSize, sku.GSTPercentage, sku.Status,
	)
	if err != nil {
		t.Fatalf("seed sku %s: %v", name, err)
	}
	return sku
}

// SeedStock sets an absolute plant-or-store level for a SKU.
func SeedStock(t *testing.T, db *sql.DB, locationID, skuID uuid.UUID, quantity int64) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO stock_levels (location_id, sku_id, quantity, reserved)
		 VALUES ($1, $2, $3, 0)
		 ON CONFLICT (location_id, sku_id) DO UPDATE SET quantity = EXCLUDED.quantity`,
		locationID, skuID, quantity,
	)
	if err != nil {
		t.Fatalf("seed stock %s/%s: %v", locationID, skuID, err)
	}
}

func GetWalletBalance(t *testing.T, db *sql.DB, ref domain.AccountRef) decimal.Decimal {
	t.Helper()

	table := "distributors"
	if ref.Kind == domain.AccountKindStore {
		table = "stores"
	}

	var balance decimal.Decimal
	err := db.QueryRow(`SELECT wallet_balance FROM `+table+` WHERE id = $1`, ref.ID).Scan(&balance)
	if err != nil {
		t.Fatalf("get wallet balance %s: %v", ref, err)
	}
	return balance
}

func GetStockLevel(t *testing.T, db *sql.DB, locationID, skuID uuid.UUID) (int64, int64) {
	t.Helper()

	var quantity, reserved int64
	err := db.QueryRow(
		`SELECT quantity, reserved FROM stock_levels WHERE location_id = $1 AND sku_id = $2`,
		locationID, skuID,
	).Scan(&quantity, &reserved)
	if err == sql.ErrNoRows {
		return 0, 0
	}
	if err != nil {
		t.Fatalf("get stock level %s/%s: %v", locationID, skuID, err)
	}
	return quantity, reserved
}

func CountTransactions(t *testing.T, db *sql.DB, ref domain.AccountRef) int {
	t.Helper()

	column := "distributor_id"
	if ref.Kind == domain.AccountKindStore {
		column = "store_id"
	}

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM wallet_transactions WHERE `+column+` = $1`, ref.ID).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions %s: %v", ref, err)
	}
	return count
}
