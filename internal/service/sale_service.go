package service

import (
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/techfix/techfix-backend/internal/domain"
	"github.com/techfix/techfix-backend/internal/util"
	"github.com/techfix/techfix-backend/internal/websocket"
)

// SaleService handles counter (POS) sale business logic
type SaleService struct {
	saleRepo        domain.SaleRepository
	productRepo     domain.ProductRepository
	customerRepo    domain.CustomerRepository
	transactionRepo domain.TransactionRepository
	clock           util.Clock
	publisher       websocket.EventPublisher
}

// NewSaleService creates a new SaleService
func NewSaleService(
	saleRepo domain.SaleRepository,
	productRepo domain.ProductRepository,
	customerRepo domain.CustomerRepository,
	transactionRepo domain.TransactionRepository,
	clock util.Clock,
	publisher websocket.EventPublisher,
) *SaleService {
	return &SaleService{
		saleRepo:        saleRepo,
		productRepo:     productRepo,
		customerRepo:    customerRepo,
		transactionRepo: transactionRepo,
		clock:           clock,
		publisher:       publisher,
	}
}

// SaleItemInput is one line of a sale
type SaleItemInput struct {
	ProductID int32
	Quantity  int32
}

// CreateSaleInput contains input for registering a sale
type CreateSaleInput struct {
	CustomerID    *int32
	Items         []SaleItemInput
	Discount      decimal.Decimal
	PaymentMethod domain.PaymentMethod
}

// CreateSale registers a counter sale. Product name and unit price are
// snapshotted per item, stock is decremented atomically with the sale,
// and an income ledger entry is recorded for the total.
func (s *SaleService) CreateSale(storeID int32, input CreateSaleInput) (*domain.Sale, error) {
	sale := &domain.Sale{
		StoreID:       storeID,
		CustomerID:    input.CustomerID,
		Discount:      input.Discount,
		PaymentMethod: input.PaymentMethod,
	}

	for _, item := range input.Items {
		if item.Quantity < 1 {
			return nil, domain.ErrSaleQuantityInvalid
		}
		product, err := s.productRepo.GetByID(storeID, item.ProductID)
		if err != nil {
			return nil, err
		}
		if product.Stock < item.Quantity {
			return nil, domain.ErrInsufficientStock
		}
		sale.Items = append(sale.Items, &domain.SaleItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.SalePrice,
			Subtotal:    product.SalePrice.Mul(decimal.NewFromInt32(item.Quantity)),
		})
	}

	if input.CustomerID != nil {
		customer, err := s.customerRepo.GetByID(storeID, *input.CustomerID)
		if err != nil {
			return nil, err
		}
		sale.CustomerName = &customer.Name
	}

	if err := sale.Validate(); err != nil {
		return nil, err
	}
	sale.Total = sale.ComputeTotal()

	created, err := s.saleRepo.Create(sale)
	if err != nil {
		return nil, err
	}

	s.recordLedgerEntry(created)

	s.publisher.Publish(storeID, websocket.SaleCreated(created))
	return created, nil
}

// recordLedgerEntry writes the income entry for a completed sale. The sale
// is already committed; a ledger failure is logged, not propagated.
func (s *SaleService) recordLedgerEntry(sale *domain.Sale) {
	if sale.Total.IsZero() {
		return
	}
	method := string(sale.PaymentMethod)
	entry := &domain.Transaction{
		StoreID:     sale.StoreID,
		Kind:        domain.TransactionIncome,
		Description: "Venda balcão #" + strconv.Itoa(int(sale.ID)),
		Amount:      sale.Total,
		Method:      &method,
		SaleID:      &sale.ID,
		OccurredAt:  s.clock.Now(),
	}
	if _, err := s.transactionRepo.Create(entry); err != nil {
		log.Error().Err(err).Int32("sale_id", sale.ID).Msg("Failed to record sale in ledger")
	}
}

// GetSales retrieves all sales for a store
func (s *SaleService) GetSales(storeID int32) ([]*domain.Sale, error) {
	return s.saleRepo.GetAllByStore(storeID)
}

// GetSaleByID retrieves a sale by ID within a store
func (s *SaleService) GetSaleByID(storeID int32, id int32) (*domain.Sale, error) {
	return s.saleRepo.GetByID(storeID, id)
}

// GetSalesByMonth retrieves sales within the given month
func (s *SaleService) GetSalesByMonth(storeID int32, year, month int) ([]*domain.Sale, error) {
	return s.saleRepo.GetByMonth(storeID, year, month)
}
