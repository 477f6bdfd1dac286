package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrProductNameEmpty    = errors.New("product name is required")
	ErrProductNameTooLong  = errors.New("product name must be 200 characters or less")
	ErrProductPriceInvalid = errors.New("product price must not be negative")
	ErrProductStockInvalid = errors.New("product stock must not be negative")
	ErrInsufficientStock   = errors.New("insufficient stock")
)

// Product is a catalog/inventory item.
type Product struct {
	ID        int32           `json:"id"`
	StoreID   int32           `json:"storeId"`
	Name      string          `json:"name"`
	Brand     *string         `json:"brand,omitempty"`
	Category  *string         `json:"category,omitempty"`
	Barcode   *string         `json:"barcode,omitempty"`
	CostPrice decimal.Decimal `json:"costPrice"`
	SalePrice decimal.Decimal `json:"salePrice"`
	Stock     int32           `json:"stock"`
	MinStock  int32           `json:"minStock"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *time.Time      `json:"deletedAt,omitempty"`
}

func (p *Product) Validate() error {
	if p.Name == "" {
		return ErrProductNameEmpty
	}
	if len(p.Name) > MaxNameLength {
		return ErrProductNameTooLong
	}
	if p.CostPrice.IsNegative() || p.SalePrice.IsNegative() {
		return ErrProductPriceInvalid
	}
	if p.Stock < 0 || p.MinStock < 0 {
		return ErrProductStockInvalid
	}
	return nil
}

// IsLowStock reports whether the product is at or below its minimum stock.
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}

// ProductRepository defines persistence for products
type ProductRepository interface {
	Create(product *Product) (*Product, error)
	GetByID(storeID int32, id int32) (*Product, error)
	GetAllByStore(storeID int32) ([]*Product, error)
	Search(storeID int32, query string) ([]*Product, error)
	GetLowStock(storeID int32) ([]*Product, error)
	Update(product *Product) (*Product, error)
	// AdjustStock applies a signed delta and fails with ErrInsufficientStock
	// when the result would go below zero.
	AdjustStock(storeID int32, id int32, delta int32) (*Product, error)
	SoftDelete(storeID int32, id int32) error
}
