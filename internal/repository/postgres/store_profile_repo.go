package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techfix/techfix-backend/internal/domain"
)

// StoreProfileRepository implements domain.StoreProfileRepository using
// PostgreSQL
type StoreProfileRepository struct {
	pool *pgxpool.Pool
}

// NewStoreProfileRepository creates a new StoreProfileRepository
func NewStoreProfileRepository(pool *pgxpool.Pool) *StoreProfileRepository {
	return &StoreProfileRepository{pool: pool}
}

const profileColumns = `store_id, company_name, document, phone, email, cep,
	street, number, city, state, updated_at`

func scanProfile(row pgx.Row) (*domain.StoreProfile, error) {
	var p domain.StoreProfile
	err := row.Scan(&p.StoreID, &p.CompanyName, &p.Document, &p.Phone, &p.Email,
		&p.CEP, &p.Street, &p.Number, &p.City, &p.State, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Get retrieves the profile for a store
func (r *StoreProfileRepository) Get(storeID int32) (*domain.StoreProfile, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM store_profiles
		WHERE store_id = $1`, storeID)
	return scanProfile(row)
}

// Upsert inserts or replaces the store's profile
func (r *StoreProfileRepository) Upsert(profile *domain.StoreProfile) (*domain.StoreProfile, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO store_profiles (store_id, company_name, document, phone,
			email, cep, street, number, city, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (store_id) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			document = EXCLUDED.document,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			cep = EXCLUDED.cep,
			street = EXCLUDED.street,
			number = EXCLUDED.number,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			updated_at = now()
		RETURNING `+profileColumns,
		profile.StoreID, profile.CompanyName, profile.Document, profile.Phone,
		profile.Email, profile.CEP, profile.Street, profile.Number,
		profile.City, profile.State)
	return scanProfile(row)
}
