package service

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/techfix/techfix-backend/internal/domain"
	"github.com/techfix/techfix-backend/internal/testutil"
	"github.com/techfix/techfix-backend/internal/websocket"
)

func newProductFixture() (*ProductService, *testutil.MockProductRepository) {
	repo := testutil.NewMockProductRepository()
	return NewProductService(repo, &websocket.NoOpPublisher{}), repo
}

func TestAdjustStock_AppliesDelta(t *testing.T) {
	svc, repo := newProductFixture()
	product, _ := repo.Create(&domain.Product{StoreID: 1, Name: "Cabo", SalePrice: decimal.NewFromInt(20), Stock: 5})

	updated, err := svc.AdjustStock(1, product.ID, -3)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated.Stock != 2 {
		t.Errorf("Expected stock 2, got %d", updated.Stock)
	}
}

func TestAdjustStock_RefusesNegativeResult(t *testing.T) {
	svc, repo := newProductFixture()
	product, _ := repo.Create(&domain.Product{StoreID: 1, Name: "Cabo", SalePrice: decimal.NewFromInt(20), Stock: 2})

	_, err := svc.AdjustStock(1, product.ID, -5)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("Expected ErrInsufficientStock, got %v", err)
	}
	stored, _ := repo.GetByID(1, product.ID)
	if stored.Stock != 2 {
		t.Errorf("Stock must be unchanged after refused adjustment, got %d", stored.Stock)
	}
}

func TestGetLowStockProducts_AtOrBelowMinimum(t *testing.T) {
	svc, repo := newProductFixture()
	repo.Create(&domain.Product{StoreID: 1, Name: "Película", SalePrice: decimal.NewFromInt(15), Stock: 2, MinStock: 3})
	repo.Create(&domain.Product{StoreID: 1, Name: "Capa", SalePrice: decimal.NewFromInt(30), Stock: 3, MinStock: 3})
	repo.Create(&domain.Product{StoreID: 1, Name: "Fone", SalePrice: decimal.NewFromInt(80), Stock: 10, MinStock: 3})

	low, err := svc.GetLowStockProducts(1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(low) != 2 {
		t.Errorf("Expected 2 low-stock products, got %d", len(low))
	}
}

func TestCreateProduct_Validation(t *testing.T) {
	svc, repo := newProductFixture()

	_, err := svc.CreateProduct(1, ProductInput{Name: "  ", SalePrice: decimal.NewFromInt(10)})
	if !errors.Is(err, domain.ErrNameRequired) {
		t.Errorf("Expected ErrNameRequired, got %v", err)
	}

	_, err = svc.CreateProduct(1, ProductInput{Name: "Cabo", SalePrice: decimal.NewFromInt(-1)})
	if !errors.Is(err, domain.ErrProductPriceInvalid) {
		t.Errorf("Expected ErrProductPriceInvalid, got %v", err)
	}

	if len(repo.Products) != 0 {
		t.Error("Invalid products must not be persisted")
	}
}
