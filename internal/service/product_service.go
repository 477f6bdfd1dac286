package service

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/techfix/techfix-backend/internal/domain"
	"github.com/techfix/techfix-backend/internal/websocket"
)

// ProductService handles product and inventory business logic
type ProductService struct {
	productRepo domain.ProductRepository
	publisher   websocket.EventPublisher
}

// NewProductService creates a new ProductService
func NewProductService(productRepo domain.ProductRepository, publisher websocket.EventPublisher) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		publisher:   publisher,
	}
}

// ProductInput contains input for creating or updating a product
type ProductInput struct {
	Name      string
	Brand     *string
	Category  *string
	Barcode   *string
	CostPrice decimal.Decimal
	SalePrice decimal.Decimal
	Stock     int32
	MinStock  int32
}

func (in ProductInput) toProduct(storeID int32) *domain.Product {
	return &domain.Product{
		StoreID:   storeID,
		Name:      strings.TrimSpace(in.Name),
		Brand:     in.Brand,
		Category:  in.Category,
		Barcode:   in.Barcode,
		CostPrice: in.CostPrice,
		SalePrice: in.SalePrice,
		Stock:     in.Stock,
		MinStock:  in.MinStock,
	}
}

// CreateProduct creates a new product
func (s *ProductService) CreateProduct(storeID int32, input ProductInput) (*domain.Product, error) {
	product := input.toProduct(storeID)
	if err := product.Validate(); err != nil {
		return nil, err
	}
	return s.productRepo.Create(product)
}

// GetProducts retrieves all products for a store
func (s *ProductService) GetProducts(storeID int32) ([]*domain.Product, error) {
	return s.productRepo.GetAllByStore(storeID)
}

// GetProductByID retrieves a product by ID within a store
func (s *ProductService) GetProductByID(storeID int32, id int32) (*domain.Product, error) {
	return s.productRepo.GetByID(storeID, id)
}

// SearchProducts retrieves products matching the query
func (s *ProductService) SearchProducts(storeID int32, query string) ([]*domain.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.productRepo.GetAllByStore(storeID)
	}
	return s.productRepo.Search(storeID, query)
}

// GetLowStockProducts retrieves products at or below their minimum stock
func (s *ProductService) GetLowStockProducts(storeID int32) ([]*domain.Product, error) {
	return s.productRepo.GetLowStock(storeID)
}

// UpdateProduct updates an existing product
func (s *ProductService) UpdateProduct(storeID int32, id int32, input ProductInput) (*domain.Product, error) {
	existing, err := s.productRepo.GetByID(storeID, id)
	if err != nil {
		return nil, err
	}

	product := input.toProduct(storeID)
	product.ID = existing.ID
	if err := product.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.productRepo.Update(product)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(storeID, websocket.ProductUpdated(updated))
	return updated, nil
}

// AdjustStock applies a manual stock adjustment (receiving, loss, audit)
func (s *ProductService) AdjustStock(storeID int32, id int32, delta int32) (*domain.Product, error) {
	updated, err := s.productRepo.AdjustStock(storeID, id, delta)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(storeID, websocket.ProductUpdated(updated))
	return updated, nil
}

// DeleteProduct soft-deletes a product
func (s *ProductService) DeleteProduct(storeID int32, id int32) error {
	_, err := s.productRepo.GetByID(storeID, id)
	if err != nil {
		return err
	}
	return s.productRepo.SoftDelete(storeID, id)
}
