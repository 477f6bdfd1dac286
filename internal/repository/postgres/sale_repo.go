package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techfix/techfix-backend/internal/domain"
)

// SaleRepository implements domain.SaleRepository using PostgreSQL
type SaleRepository struct {
	pool *pgxpool.Pool
}

// NewSaleRepository creates a new SaleRepository
func NewSaleRepository(pool *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{pool: pool}
}

const saleColumns = `id, store_id, customer_id, customer_name, discount, total,
	payment_method, created_at`

func scanSale(row pgx.Row) (*domain.Sale, error) {
	var s domain.Sale
	var discount, total pgtype.Numeric
	var method string
	err := row.Scan(&s.ID, &s.StoreID, &s.CustomerID, &s.CustomerName,
		&discount, &total, &method, &s.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSaleNotFound
		}
		return nil, err
	}
	s.PaymentMethod = domain.PaymentMethod(method)
	s.Discount = pgNumericToDecimal(discount)
	s.Total = pgNumericToDecimal(total)
	return &s, nil
}

// Create persists the sale, its items and the stock decrements in a single
// transaction. A stock guard failing on any item rolls the whole sale back
// with ErrInsufficientStock.
func (r *SaleRepository) Create(sale *domain.Sale) (*domain.Sale, error) {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	discount, err := decimalToPgNumeric(sale.Discount)
	if err != nil {
		return nil, err
	}
	total, err := decimalToPgNumeric(sale.Total)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO sales (store_id, customer_id, customer_name, discount, total, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+saleColumns,
		sale.StoreID, sale.CustomerID, sale.CustomerName, discount, total,
		string(sale.PaymentMethod))
	created, err := scanSale(row)
	if err != nil {
		return nil, err
	}

	for _, item := range sale.Items {
		unitPrice, err := decimalToPgNumeric(item.UnitPrice)
		if err != nil {
			return nil, err
		}
		subtotal, err := decimalToPgNumeric(item.Subtotal)
		if err != nil {
			return nil, err
		}
		saved := &domain.SaleItem{
			SaleID:      created.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO sale_items (sale_id, product_id, product_name, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			created.ID, item.ProductID, item.ProductName, item.Quantity,
			unitPrice, subtotal).Scan(&saved.ID)
		if err != nil {
			return nil, err
		}
		created.Items = append(created.Items, saved)

		tag, err := tx.Exec(ctx, `
			UPDATE products
			SET stock = stock - $3, updated_at = now()
			WHERE store_id = $1 AND id = $2 AND deleted_at IS NULL AND stock - $3 >= 0`,
			sale.StoreID, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() == 0 {
			return nil, domain.ErrInsufficientStock
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a sale with its items
func (r *SaleRepository) GetByID(storeID int32, id int32) (*domain.Sale, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE store_id = $1 AND id = $2`, storeID, id)
	sale, err := scanSale(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, []*domain.Sale{sale}); err != nil {
		return nil, err
	}
	return sale, nil
}

// GetAllByStore retrieves all sales for a store, newest first
func (r *SaleRepository) GetAllByStore(storeID int32) ([]*domain.Sale, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE store_id = $1
		ORDER BY created_at DESC`, storeID)
	if err != nil {
		return nil, err
	}
	sales, err := collectSales(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, sales); err != nil {
		return nil, err
	}
	return sales, nil
}

// GetByMonth retrieves sales whose created_at falls within the given month
func (r *SaleRepository) GetByMonth(storeID int32, year, month int) ([]*domain.Sale, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE store_id = $1
		  AND created_at >= make_timestamptz($2, $3, 1, 0, 0, 0, 'UTC')
		  AND created_at < make_timestamptz($2, $3, 1, 0, 0, 0, 'UTC') + interval '1 month'
		ORDER BY created_at DESC`, storeID, year, month)
	if err != nil {
		return nil, err
	}
	sales, err := collectSales(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, sales); err != nil {
		return nil, err
	}
	return sales, nil
}

func collectSales(rows pgx.Rows) ([]*domain.Sale, error) {
	defer rows.Close()
	var sales []*domain.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

func (r *SaleRepository) loadItems(ctx context.Context, sales []*domain.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	ids := make([]int32, len(sales))
	byID := make(map[int32]*domain.Sale, len(sales))
	for i, s := range sales {
		ids[i] = s.ID
		byID[s.ID] = s
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, sale_id, product_id, product_name, quantity, unit_price, subtotal
		FROM sale_items
		WHERE sale_id = ANY($1)
		ORDER BY id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var item domain.SaleItem
		var unitPrice, subtotal pgtype.Numeric
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID,
			&item.ProductName, &item.Quantity, &unitPrice, &subtotal); err != nil {
			return err
		}
		item.UnitPrice = pgNumericToDecimal(unitPrice)
		item.Subtotal = pgNumericToDecimal(subtotal)
		sale := byID[item.SaleID]
		sale.Items = append(sale.Items, &item)
	}
	return rows.Err()
}
