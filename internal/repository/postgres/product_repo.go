package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techfix/techfix-backend/internal/domain"
)

// ProductRepository implements domain.ProductRepository using PostgreSQL
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `id, store_id, name, brand, category, barcode, cost_price,
	sale_price, stock, min_stock, created_at, updated_at, deleted_at`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var cost, sale pgtype.Numeric
	err := row.Scan(&p.ID, &p.StoreID, &p.Name, &p.Brand, &p.Category, &p.Barcode,
		&cost, &sale, &p.Stock, &p.MinStock, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	p.CostPrice = pgNumericToDecimal(cost)
	p.SalePrice = pgNumericToDecimal(sale)
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]*domain.Product, error) {
	defer rows.Close()
	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Create creates a new product
func (r *ProductRepository) Create(product *domain.Product) (*domain.Product, error) {
	ctx := context.Background()
	cost, err := decimalToPgNumeric(product.CostPrice)
	if err != nil {
		return nil, err
	}
	sale, err := decimalToPgNumeric(product.SalePrice)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (store_id, name, brand, category, barcode,
			cost_price, sale_price, stock, min_stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+productColumns,
		product.StoreID, product.Name, product.Brand, product.Category,
		product.Barcode, cost, sale, product.Stock, product.MinStock)
	return scanProduct(row)
}

// GetByID retrieves a product by ID within a store
func (r *ProductRepository) GetByID(storeID int32, id int32) (*domain.Product, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE store_id = $1 AND id = $2 AND deleted_at IS NULL`, storeID, id)
	return scanProduct(row)
}

// GetAllByStore retrieves all products for a store
func (r *ProductRepository) GetAllByStore(storeID int32) ([]*domain.Product, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE store_id = $1 AND deleted_at IS NULL
		ORDER BY name`, storeID)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

// Search retrieves products matching the query on name, brand or barcode
func (r *ProductRepository) Search(storeID int32, query string) ([]*domain.Product, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE store_id = $1 AND deleted_at IS NULL
		  AND (name ILIKE '%' || $2 || '%' OR brand ILIKE '%' || $2 || '%' OR barcode = $2)
		ORDER BY name`, storeID, query)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

// GetLowStock retrieves products at or below their minimum stock
func (r *ProductRepository) GetLowStock(storeID int32) ([]*domain.Product, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE store_id = $1 AND deleted_at IS NULL AND stock <= min_stock
		ORDER BY name`, storeID)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

// Update updates a product's editable fields
func (r *ProductRepository) Update(product *domain.Product) (*domain.Product, error) {
	ctx := context.Background()
	cost, err := decimalToPgNumeric(product.CostPrice)
	if err != nil {
		return nil, err
	}
	sale, err := decimalToPgNumeric(product.SalePrice)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE products
		SET name = $3, brand = $4, category = $5, barcode = $6, cost_price = $7,
			sale_price = $8, stock = $9, min_stock = $10, updated_at = now()
		WHERE store_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+productColumns,
		product.StoreID, product.ID, product.Name, product.Brand,
		product.Category, product.Barcode, cost, sale, product.Stock,
		product.MinStock)
	return scanProduct(row)
}

// AdjustStock applies a signed delta to the stock level. The WHERE guard
// keeps stock from going negative; a zero-row update on an existing product
// means insufficient stock.
func (r *ProductRepository) AdjustStock(storeID int32, id int32, delta int32) (*domain.Product, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		UPDATE products
		SET stock = stock + $3, updated_at = now()
		WHERE store_id = $1 AND id = $2 AND deleted_at IS NULL AND stock + $3 >= 0
		RETURNING `+productColumns,
		storeID, id, delta)
	product, err := scanProduct(row)
	if err == domain.ErrProductNotFound {
		// Distinguish missing product from insufficient stock
		if _, getErr := r.GetByID(storeID, id); getErr == nil {
			return nil, domain.ErrInsufficientStock
		}
		return nil, domain.ErrProductNotFound
	}
	return product, err
}

// SoftDelete marks a product as deleted
func (r *ProductRepository) SoftDelete(storeID int32, id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `
		UPDATE products SET deleted_at = now()
		WHERE store_id = $1 AND id = $2 AND deleted_at IS NULL`, storeID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
