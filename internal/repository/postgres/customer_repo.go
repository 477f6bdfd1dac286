package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techfix/techfix-backend/internal/domain"
)

// CustomerRepository implements domain.CustomerRepository using PostgreSQL
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

const customerColumns = `id, store_id, name, phone, email, document, cep, street,
	number, neighborhood, city, state, notes, created_at, updated_at, deleted_at`

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(&c.ID, &c.StoreID, &c.Name, &c.Phone, &c.Email, &c.Document,
		&c.CEP, &c.Street, &c.Number, &c.Neighborhood, &c.City, &c.State,
		&c.Notes, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return &c, nil
}

func collectCustomers(rows pgx.Rows) ([]*domain.Customer, error) {
	defer rows.Close()
	var customers []*domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// Create creates a new customer
func (r *CustomerRepository) Create(customer *domain.Customer) (*domain.Customer, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO customers (store_id, name, phone, email, document, cep, street,
			number, neighborhood, city, state, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+customerColumns,
		customer.StoreID, customer.Name, customer.Phone, customer.Email,
		customer.Document, customer.CEP, customer.Street, customer.Number,
		customer.Neighborhood, customer.City, customer.State, customer.Notes)
	return scanCustomer(row)
}

// GetByID retrieves a customer by ID within a store
func (r *CustomerRepository) GetByID(storeID int32, id int32) (*domain.Customer, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE store_id = $1 AND id = $2 AND deleted_at IS NULL`, storeID, id)
	return scanCustomer(row)
}

// GetAllByStore retrieves all customers for a store
func (r *CustomerRepository) GetAllByStore(storeID int32) ([]*domain.Customer, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE store_id = $1 AND deleted_at IS NULL
		ORDER BY name`, storeID)
	if err != nil {
		return nil, err
	}
	return collectCustomers(rows)
}

// Search retrieves customers matching the query on name or phone
func (r *CustomerRepository) Search(storeID int32, query string) ([]*domain.Customer, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE store_id = $1 AND deleted_at IS NULL
		  AND (name ILIKE '%' || $2 || '%' OR phone ILIKE '%' || $2 || '%')
		ORDER BY name`, storeID, query)
	if err != nil {
		return nil, err
	}
	return collectCustomers(rows)
}

// Update updates a customer's editable fields
func (r *CustomerRepository) Update(customer *domain.Customer) (*domain.Customer, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		UPDATE customers
		SET name = $3, phone = $4, email = $5, document = $6, cep = $7,
			street = $8, number = $9, neighborhood = $10, city = $11,
			state = $12, notes = $13, updated_at = now()
		WHERE store_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+customerColumns,
		customer.StoreID, customer.ID, customer.Name, customer.Phone,
		customer.Email, customer.Document, customer.CEP, customer.Street,
		customer.Number, customer.Neighborhood, customer.City, customer.State,
		customer.Notes)
	return scanCustomer(row)
}

// SoftDelete marks a customer as deleted
func (r *CustomerRepository) SoftDelete(storeID int32, id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `
		UPDATE customers SET deleted_at = now()
		WHERE store_id = $1 AND id = $2 AND deleted_at IS NULL`, storeID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}
