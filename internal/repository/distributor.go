package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/plantdesk/dms/internal/domain"
)

const distributorColumns = `id, name, phone, state, area, agent_code, gstin,
	billing_address, wallet_balance, credit_limit, store_id, asm_name,
	executive_name, has_special_schemes, date_added, last_order_date`

type DistributorRepository struct {
	db *sql.DB
}

func NewDistributorRepository(db *sql.DB) *DistributorRepository {
	return &DistributorRepository{db: db}
}

func (r *DistributorRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Distributor, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+distributorColumns+` FROM distributors WHERE id = $1`, id,
	)
	d, err := scanDistributor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return d, nil
}

func (r *DistributorRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Distributor, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+distributorColumns+` FROM distributors WHERE id = $1 FOR UPDATE`, id,
	)
	d, err := scanDistributor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return d, nil
}

func (r *DistributorRepository) List(ctx context.Context) ([]domain.Distributor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+distributorColumns+` FROM distributors ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var list []domain.Distributor
	for rows.Next() {
		d, err := scanDistributor(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		list = append(list, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return list, nil
}

func (r *DistributorRepository) Create(ctx context.Context, d *domain.Distributor) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO distributors (
			id, name, phone, state, area, agent_code, gstin, billing_address,
			wallet_balance, credit_limit, store_id, asm_name, executive_name,
			has_special_schemes, date_added, last_order_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		d.ID, d.Name, d.Phone, d.State, d.Area, d.AgentCode, d.GSTIN,
		d.BillingAddress, d.WalletBalance, d.CreditLimit, d.StoreID,
		d.ASMName, d.ExecutiveName, d.HasSpecialSchemes, d.DateAdded,
		d.LastOrderDate,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *DistributorRepository) SetLastOrderDate(ctx context.Context, tx *sql.Tx, id uuid.UUID, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE distributors SET last_order_date = $1 WHERE id = $2`, at, id,
	)
	if err != nil {
		return fmt.Errorf("SetLastOrderDate: %w", err)
	}
	return nil
}

func scanDistributor(s scanner) (*domain.Distributor, error) {
	var d domain.Distributor
	err := s.Scan(
		&d.ID, &d.Name, &d.Phone, &d.State, &d.Area, &d.AgentCode, &d.GSTIN,
		&d.BillingAddress, &d.WalletBalance, &d.CreditLimit, &d.StoreID,
		&d.ASMName, &d.ExecutiveName, &d.HasSpecialSchemes, &d.DateAdded,
		&d.LastOrderDate,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
