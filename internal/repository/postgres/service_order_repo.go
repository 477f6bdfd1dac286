package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techfix/techfix-backend/internal/domain"
)

// ServiceOrderRepository implements domain.ServiceOrderRepository using PostgreSQL
type ServiceOrderRepository struct {
	pool *pgxpool.Pool
}

// NewServiceOrderRepository creates a new ServiceOrderRepository
func NewServiceOrderRepository(pool *pgxpool.Pool) *ServiceOrderRepository {
	return &ServiceOrderRepository{pool: pool}
}

const orderColumns = `id, store_id, customer_id, customer_name, device, brand,
	model, serial_number, imei, problem_description, diagnosis, status,
	labor_cost, parts_cost, photo_keys, opened_at, closed_at, created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.ServiceOrder, error) {
	var o domain.ServiceOrder
	var labor, parts pgtype.Numeric
	var status string
	err := row.Scan(&o.ID, &o.StoreID, &o.CustomerID, &o.CustomerName, &o.Device,
		&o.Brand, &o.Model, &o.SerialNumber, &o.IMEI, &o.ProblemDescription,
		&o.Diagnosis, &status, &labor, &parts, &o.PhotoKeys, &o.OpenedAt,
		&o.ClosedAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrServiceOrderNotFound
		}
		return nil, err
	}
	o.Status = domain.ServiceOrderStatus(status)
	o.LaborCost = pgNumericToDecimal(labor)
	o.PartsCost = pgNumericToDecimal(parts)
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]*domain.ServiceOrder, error) {
	defer rows.Close()
	var orders []*domain.ServiceOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Create creates a new service order
func (r *ServiceOrderRepository) Create(order *domain.ServiceOrder) (*domain.ServiceOrder, error) {
	ctx := context.Background()
	labor, err := decimalToPgNumeric(order.LaborCost)
	if err != nil {
		return nil, err
	}
	parts, err := decimalToPgNumeric(order.PartsCost)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO service_orders (store_id, customer_id, customer_name, device,
			brand, model, serial_number, imei, problem_description, status,
			labor_cost, parts_cost, photo_keys, opened_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+orderColumns,
		order.StoreID, order.CustomerID, order.CustomerName, order.Device,
		order.Brand, order.Model, order.SerialNumber, order.IMEI,
		order.ProblemDescription, string(order.Status), labor, parts,
		order.PhotoKeys, order.OpenedAt)
	return scanOrder(row)
}

// GetByID retrieves a service order by ID within a store
func (r *ServiceOrderRepository) GetByID(storeID int32, id int32) (*domain.ServiceOrder, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM service_orders
		WHERE store_id = $1 AND id = $2`, storeID, id)
	return scanOrder(row)
}

// GetAllByStore retrieves all service orders for a store, newest first
func (r *ServiceOrderRepository) GetAllByStore(storeID int32) ([]*domain.ServiceOrder, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM service_orders
		WHERE store_id = $1
		ORDER BY opened_at DESC`, storeID)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// GetByStatus retrieves service orders in a given status
func (r *ServiceOrderRepository) GetByStatus(storeID int32, status domain.ServiceOrderStatus) ([]*domain.ServiceOrder, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM service_orders
		WHERE store_id = $1 AND status = $2
		ORDER BY opened_at DESC`, storeID, string(status))
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// Update persists the order's mutable fields
func (r *ServiceOrderRepository) Update(order *domain.ServiceOrder) (*domain.ServiceOrder, error) {
	ctx := context.Background()
	labor, err := decimalToPgNumeric(order.LaborCost)
	if err != nil {
		return nil, err
	}
	parts, err := decimalToPgNumeric(order.PartsCost)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE service_orders
		SET device = $3, brand = $4, model = $5, serial_number = $6, imei = $7,
			problem_description = $8, diagnosis = $9, status = $10,
			labor_cost = $11, parts_cost = $12, photo_keys = $13,
			closed_at = $14, updated_at = now()
		WHERE store_id = $1 AND id = $2
		RETURNING `+orderColumns,
		order.StoreID, order.ID, order.Device, order.Brand, order.Model,
		order.SerialNumber, order.IMEI, order.ProblemDescription,
		order.Diagnosis, string(order.Status), labor, parts, order.PhotoKeys,
		timePtrToPgTimestamptz(order.ClosedAt))
	return scanOrder(row)
}
