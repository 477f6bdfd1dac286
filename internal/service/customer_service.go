package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/techfix/techfix-backend/internal/domain"
	"github.com/techfix/techfix-backend/internal/integration/viacep"
)

// CEPLookup resolves Brazilian postal codes. Satisfied by viacep.Client.
type CEPLookup interface {
	Lookup(ctx context.Context, cep string) (*viacep.Address, error)
}

// CustomerService handles customer registry business logic
type CustomerService struct {
	customerRepo domain.CustomerRepository
	cepLookup    CEPLookup
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo domain.CustomerRepository, cepLookup CEPLookup) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		cepLookup:    cepLookup,
	}
}

// CustomerInput contains input for creating or updating a customer
type CustomerInput struct {
	Name         string
	Phone        *string
	Email        *string
	Document     *string
	CEP          *string
	Street       *string
	Number       *string
	Neighborhood *string
	City         *string
	State        *string
	Notes        *string
}

func (in CustomerInput) toCustomer(storeID int32) *domain.Customer {
	return &domain.Customer{
		StoreID:      storeID,
		Name:         strings.TrimSpace(in.Name),
		Phone:        in.Phone,
		Email:        in.Email,
		Document:     in.Document,
		CEP:          in.CEP,
		Street:       in.Street,
		Number:       in.Number,
		Neighborhood: in.Neighborhood,
		City:         in.City,
		State:        in.State,
		Notes:        in.Notes,
	}
}

// CreateCustomer creates a new customer. When a CEP is given without a
// street, the address is autofilled from ViaCEP; lookup failures are
// logged and ignored so registration never blocks on the integration.
func (s *CustomerService) CreateCustomer(ctx context.Context, storeID int32, input CustomerInput) (*domain.Customer, error) {
	customer := input.toCustomer(storeID)
	if err := customer.Validate(); err != nil {
		return nil, err
	}

	s.autofillAddress(ctx, customer)

	return s.customerRepo.Create(customer)
}

// GetCustomers retrieves all customers for a store
func (s *CustomerService) GetCustomers(storeID int32) ([]*domain.Customer, error) {
	return s.customerRepo.GetAllByStore(storeID)
}

// GetCustomerByID retrieves a customer by ID within a store
func (s *CustomerService) GetCustomerByID(storeID int32, id int32) (*domain.Customer, error) {
	return s.customerRepo.GetByID(storeID, id)
}

// SearchCustomers retrieves customers matching the query on name or phone
func (s *CustomerService) SearchCustomers(storeID int32, query string) ([]*domain.Customer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.customerRepo.GetAllByStore(storeID)
	}
	return s.customerRepo.Search(storeID, query)
}

// UpdateCustomer updates an existing customer. Plans and orders that
// snapshotted this customer keep their original values.
func (s *CustomerService) UpdateCustomer(ctx context.Context, storeID int32, id int32, input CustomerInput) (*domain.Customer, error) {
	existing, err := s.customerRepo.GetByID(storeID, id)
	if err != nil {
		return nil, err
	}

	customer := input.toCustomer(storeID)
	customer.ID = existing.ID
	if err := customer.Validate(); err != nil {
		return nil, err
	}

	s.autofillAddress(ctx, customer)

	return s.customerRepo.Update(customer)
}

// DeleteCustomer soft-deletes a customer
func (s *CustomerService) DeleteCustomer(storeID int32, id int32) error {
	return s.customerRepo.SoftDelete(storeID, id)
}

// LookupCEP resolves a postal code for address autofill in the UI
func (s *CustomerService) LookupCEP(ctx context.Context, cep string) (*viacep.Address, error) {
	return s.cepLookup.Lookup(ctx, normalizeCEP(cep))
}

func (s *CustomerService) autofillAddress(ctx context.Context, customer *domain.Customer) {
	if customer.CEP == nil || *customer.CEP == "" {
		return
	}
	if customer.Street != nil && *customer.Street != "" {
		return
	}

	addr, err := s.cepLookup.Lookup(ctx, normalizeCEP(*customer.CEP))
	if err != nil {
		log.Warn().Err(err).Str("cep", *customer.CEP).Msg("CEP lookup failed, keeping manual address")
		return
	}

	if customer.Street == nil || *customer.Street == "" {
		customer.Street = &addr.Street
	}
	if customer.Neighborhood == nil || *customer.Neighborhood == "" {
		customer.Neighborhood = &addr.Neighborhood
	}
	if customer.City == nil || *customer.City == "" {
		customer.City = &addr.City
	}
	if customer.State == nil || *customer.State == "" {
		customer.State = &addr.State
	}
}

// normalizeCEP strips the conventional dash ("01310-100" -> "01310100")
func normalizeCEP(cep string) string {
	return strings.ReplaceAll(strings.TrimSpace(cep), "-", "")
}
