package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techfix/techfix-backend/internal/domain"
)

// StoreRepository implements domain.StoreRepository using PostgreSQL
type StoreRepository struct {
	pool *pgxpool.Pool
}

// NewStoreRepository creates a new StoreRepository
func NewStoreRepository(pool *pgxpool.Pool) *StoreRepository {
	return &StoreRepository{pool: pool}
}

func (r *StoreRepository) scanStore(row pgx.Row) (*domain.Store, error) {
	var s domain.Store
	err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrStoreNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetByID retrieves a store by ID
func (r *StoreRepository) GetByID(id int32) (*domain.Store, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`SELECT id, user_id, name, created_at FROM stores WHERE id = $1`, id)
	return r.scanStore(row)
}

// GetByUserID retrieves the store owned by a user
func (r *StoreRepository) GetByUserID(userID uuid.UUID) (*domain.Store, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`SELECT id, user_id, name, created_at FROM stores WHERE user_id = $1`, userID)
	return r.scanStore(row)
}

// GetByUserAuth0ID retrieves the store owned by the user with the given
// Auth0 subject
func (r *StoreRepository) GetByUserAuth0ID(auth0ID string) (*domain.Store, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT s.id, s.user_id, s.name, s.created_at
		FROM stores s
		JOIN users u ON u.id = s.user_id
		WHERE u.auth0_id = $1`, auth0ID)
	return r.scanStore(row)
}

// Create creates a new store
func (r *StoreRepository) Create(store *domain.Store) (*domain.Store, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO stores (user_id, name)
		VALUES ($1, $2)
		RETURNING id, user_id, name, created_at`,
		store.UserID, store.Name)
	return r.scanStore(row)
}
