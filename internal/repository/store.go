package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/plantdesk/dms/internal/domain"
)

const storeColumns = `id, name, location, address_line1, address_line2, email,
	phone, gstin, wallet_balance, created_at`

type StoreRepository struct {
	db *sql.DB
}

func NewStoreRepository(db *sql.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

func (r *StoreRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+storeColumns+` FROM stores WHERE id = $1`, id,
	)
	st, err := scanStore(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return st, nil
}

func (r *StoreRepository) List(ctx context.Context) ([]domain.Store, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+storeColumns+` FROM stores ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var list []domain.Store
	for rows.Next() {
		st, err := scanStore(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		list = append(list, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return list, nil
}

func (r *StoreRepository) Create(ctx context.Context, st *domain.Store) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO stores (
			id, name, location, address_line1, address_line2, email, phone,
			gstin, wallet_balance, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		st.ID, st.Name, st.Location, st.AddressLine1, st.AddressLine2,
		st.Email, st.Phone, st.GSTIN, st.WalletBalance, st.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func scanStore(s scanner) (*domain.Store, error) {
	var st domain.Store
	err := s.Scan(
		&st.ID, &st.Name, &st.Location, &st.AddressLine1, &st.AddressLine2,
		&st.Email, &st.Phone, &st.GSTIN, &st.WalletBalance, &st.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
