package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrSaleNotFound        = errors.New("sale not found")
	ErrSaleNoItems         = errors.New("sale must have at least one item")
	ErrSaleQuantityInvalid = errors.New("item quantity must be at least 1")
	ErrSaleDiscountInvalid = errors.New("discount must not be negative")
	ErrSalePaymentInvalid  = errors.New("unknown payment method")
)

// PaymentMethod is how a sale was settled at the counter. Installment
// billing goes through plans, not sales.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	PaymentPix  PaymentMethod = "pix"
)

// ParsePaymentMethod validates a payment method string from the API.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentCash, PaymentCard, PaymentPix:
		return PaymentMethod(s), nil
	}
	return "", ErrSalePaymentInvalid
}

// SaleItem carries a snapshot of the product name and unit price at sale
// time.
type SaleItem struct {
	ID          int32           `json:"id"`
	SaleID      int32           `json:"saleId"`
	ProductID   int32           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int32           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Sale is a counter (POS) sale.
type Sale struct {
	ID            int32           `json:"id"`
	StoreID       int32           `json:"storeId"`
	CustomerID    *int32          `json:"customerId,omitempty"`
	CustomerName  *string         `json:"customerName,omitempty"`
	Items         []*SaleItem     `json:"items"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func (s *Sale) Validate() error {
	if len(s.Items) == 0 {
		return ErrSaleNoItems
	}
	for _, item := range s.Items {
		if item.Quantity < 1 {
			return ErrSaleQuantityInvalid
		}
	}
	if s.Discount.IsNegative() {
		return ErrSaleDiscountInvalid
	}
	if _, err := ParsePaymentMethod(string(s.PaymentMethod)); err != nil {
		return err
	}
	return nil
}

// ComputeTotal sums item subtotals minus discount, floored at zero.
func (s *Sale) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.Subtotal)
	}
	total = total.Sub(s.Discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// SaleRepository defines persistence for sales. Create persists the sale,
// its items, and the stock decrements in one transaction; any failure
// (including ErrInsufficientStock) leaves nothing behind.
type SaleRepository interface {
	Create(sale *Sale) (*Sale, error)
	GetByID(storeID int32, id int32) (*Sale, error)
	GetAllByStore(storeID int32) ([]*Sale, error)
	GetByMonth(storeID int32, year, month int) ([]*Sale, error)
}
