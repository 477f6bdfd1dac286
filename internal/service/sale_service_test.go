package service

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/techfix/techfix-backend/internal/domain"
	"github.com/techfix/techfix-backend/internal/testutil"
	"github.com/techfix/techfix-backend/internal/websocket"
)

type saleFixture struct {
	svc             *SaleService
	saleRepo        *testutil.MockSaleRepository
	productRepo     *testutil.MockProductRepository
	customerRepo    *testutil.MockCustomerRepository
	transactionRepo *testutil.MockTransactionRepository
}

func newSaleFixture(t *testing.T) *saleFixture {
	t.Helper()
	f := &saleFixture{
		saleRepo:        testutil.NewMockSaleRepository(),
		productRepo:     testutil.NewMockProductRepository(),
		customerRepo:    testutil.NewMockCustomerRepository(),
		transactionRepo: testutil.NewMockTransactionRepository(),
	}
	clock := testutil.FixedClock{Time: time.Date(2025, 4, 12, 14, 0, 0, 0, time.UTC)}
	f.svc = NewSaleService(f.saleRepo, f.productRepo, f.customerRepo, f.transactionRepo, clock, &websocket.NoOpPublisher{})
	return f
}

func (f *saleFixture) seedProduct(t *testing.T, name string, price int64, stock int32) *domain.Product {
	t.Helper()
	product, err := f.productRepo.Create(&domain.Product{
		StoreID:   1,
		Name:      name,
		CostPrice: decimal.NewFromInt(price / 2),
		SalePrice: decimal.NewFromInt(price),
		Stock:     stock,
	})
	if err != nil {
		t.Fatalf("Failed to seed product: %v", err)
	}
	return product
}

func TestCreateSale_SnapshotsAndTotals(t *testing.T) {
	f := newSaleFixture(t)
	capa := f.seedProduct(t, "Capa iPhone", 50, 10)
	pelicula := f.seedProduct(t, "Película", 20, 10)

	sale, err := f.svc.CreateSale(1, CreateSaleInput{
		Items: []SaleItemInput{
			{ProductID: capa.ID, Quantity: 2},
			{ProductID: pelicula.ID, Quantity: 1},
		},
		Discount:      decimal.NewFromInt(10),
		PaymentMethod: domain.PaymentPix,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// 2*50 + 20 - 10 = 110
	if !sale.Total.Equal(decimal.NewFromInt(110)) {
		t.Errorf("Expected total 110, got %s", sale.Total.String())
	}
	if sale.Items[0].ProductName != "Capa iPhone" {
		t.Errorf("Expected product name snapshot, got %s", sale.Items[0].ProductName)
	}
	if !sale.Items[0].Subtotal.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected subtotal 100, got %s", sale.Items[0].Subtotal.String())
	}
}

func TestCreateSale_RecordsLedgerEntry(t *testing.T) {
	f := newSaleFixture(t)
	product := f.seedProduct(t, "Cabo USB-C", 30, 5)

	sale, err := f.svc.CreateSale(1, CreateSaleInput{
		Items:         []SaleItemInput{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod: domain.PaymentCash,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	entries, _ := f.transactionRepo.GetByMonth(1, 2025, 4)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 ledger entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Kind != domain.TransactionIncome {
		t.Errorf("Expected income entry, got %s", entry.Kind)
	}
	if !entry.Amount.Equal(sale.Total) {
		t.Errorf("Expected amount %s, got %s", sale.Total.String(), entry.Amount.String())
	}
	if entry.SaleID == nil || *entry.SaleID != sale.ID {
		t.Errorf("Expected entry linked to sale %d, got %v", sale.ID, entry.SaleID)
	}
}

func TestCreateSale_InsufficientStock(t *testing.T) {
	f := newSaleFixture(t)
	product := f.seedProduct(t, "Carregador", 40, 1)

	_, err := f.svc.CreateSale(1, CreateSaleInput{
		Items:         []SaleItemInput{{ProductID: product.ID, Quantity: 3}},
		PaymentMethod: domain.PaymentCard,
	})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("Expected ErrInsufficientStock, got %v", err)
	}

	// Nothing persisted, no ledger entry
	if len(f.saleRepo.Sales) != 0 {
		t.Error("Rejected sale must not be persisted")
	}
	if len(f.transactionRepo.Transactions) != 0 {
		t.Error("Rejected sale must not touch the ledger")
	}
}

func TestCreateSale_RepoFailureWritesNoLedger(t *testing.T) {
	f := newSaleFixture(t)
	product := f.seedProduct(t, "Capa", 50, 5)
	f.saleRepo.CreateErr = errors.New("connection reset")

	_, err := f.svc.CreateSale(1, CreateSaleInput{
		Items:         []SaleItemInput{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod: domain.PaymentCash,
	})
	if err == nil {
		t.Fatal("Expected error from repository")
	}
	if len(f.transactionRepo.Transactions) != 0 {
		t.Error("Ledger must stay empty when the sale does not commit")
	}
}

func TestCreateSale_CustomerNameSnapshot(t *testing.T) {
	f := newSaleFixture(t)
	product := f.seedProduct(t, "Fone", 80, 5)
	customer, _ := f.customerRepo.Create(&domain.Customer{StoreID: 1, Name: "João Pereira"})

	sale, err := f.svc.CreateSale(1, CreateSaleInput{
		CustomerID:    &customer.ID,
		Items:         []SaleItemInput{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod: domain.PaymentPix,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if sale.CustomerName == nil || *sale.CustomerName != "João Pereira" {
		t.Errorf("Expected customer name snapshot, got %v", sale.CustomerName)
	}
}

func TestCreateSale_NoItems(t *testing.T) {
	f := newSaleFixture(t)

	_, err := f.svc.CreateSale(1, CreateSaleInput{
		PaymentMethod: domain.PaymentCash,
	})
	if !errors.Is(err, domain.ErrSaleNoItems) {
		t.Errorf("Expected ErrSaleNoItems, got %v", err)
	}
}

func TestCreateSale_DiscountFloorsAtZero(t *testing.T) {
	f := newSaleFixture(t)
	product := f.seedProduct(t, "Adesivo", 5, 5)

	sale, err := f.svc.CreateSale(1, CreateSaleInput{
		Items:         []SaleItemInput{{ProductID: product.ID, Quantity: 1}},
		Discount:      decimal.NewFromInt(20),
		PaymentMethod: domain.PaymentCash,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !sale.Total.IsZero() {
		t.Errorf("Expected total floored at 0, got %s", sale.Total.String())
	}
	// Zero-total sale writes no ledger entry
	if len(f.transactionRepo.Transactions) != 0 {
		t.Error("Zero-total sale must not write a ledger entry")
	}
}
