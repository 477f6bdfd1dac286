package service

import (
	"context"
	"errors"
	"testing"

	"github.com/techfix/techfix-backend/internal/domain"
	"github.com/techfix/techfix-backend/internal/integration/viacep"
	"github.com/techfix/techfix-backend/internal/testutil"
)

func newCustomerFixture() (*CustomerService, *testutil.MockCustomerRepository, *testutil.MockCEPLookup) {
	customerRepo := testutil.NewMockCustomerRepository()
	cep := testutil.NewMockCEPLookup()
	return NewCustomerService(customerRepo, cep), customerRepo, cep
}

func strPtr(s string) *string { return &s }

func TestCreateCustomer_AutofillsAddressFromCEP(t *testing.T) {
	svc, _, cep := newCustomerFixture()
	cep.Addresses["01310100"] = &viacep.Address{
		CEP:          "01310-100",
		Street:       "Avenida Paulista",
		Neighborhood: "Bela Vista",
		City:         "São Paulo",
		State:        "SP",
	}

	customer, err := svc.CreateCustomer(context.Background(), 1, CustomerInput{
		Name: "Maria Souza",
		CEP:  strPtr("01310-100"),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if customer.Street == nil || *customer.Street != "Avenida Paulista" {
		t.Errorf("Expected street autofill, got %v", customer.Street)
	}
	if customer.City == nil || *customer.City != "São Paulo" {
		t.Errorf("Expected city autofill, got %v", customer.City)
	}
}

func TestCreateCustomer_ManualStreetWins(t *testing.T) {
	svc, _, cep := newCustomerFixture()
	cep.Addresses["01310100"] = &viacep.Address{Street: "Avenida Paulista"}

	customer, err := svc.CreateCustomer(context.Background(), 1, CustomerInput{
		Name:   "Maria Souza",
		CEP:    strPtr("01310-100"),
		Street: strPtr("Rua das Flores"),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if *customer.Street != "Rua das Flores" {
		t.Errorf("Manual street must not be overwritten, got %s", *customer.Street)
	}
}

func TestCreateCustomer_LookupFailureDoesNotBlock(t *testing.T) {
	svc, _, cep := newCustomerFixture()
	cep.Err = errors.New("viacep timeout")

	customer, err := svc.CreateCustomer(context.Background(), 1, CustomerInput{
		Name: "Maria Souza",
		CEP:  strPtr("01310-100"),
	})
	if err != nil {
		t.Fatalf("Registration must not block on CEP lookup, got %v", err)
	}
	if customer.Street != nil {
		t.Errorf("Expected no address, got street %v", *customer.Street)
	}
}

func TestCreateCustomer_NameRequired(t *testing.T) {
	svc, customerRepo, _ := newCustomerFixture()

	_, err := svc.CreateCustomer(context.Background(), 1, CustomerInput{Name: "   "})
	if !errors.Is(err, domain.ErrNameRequired) {
		t.Fatalf("Expected ErrNameRequired, got %v", err)
	}
	if len(customerRepo.Customers) != 0 {
		t.Error("Invalid customer must not be persisted")
	}
}

func TestSearchCustomers_EmptyQueryReturnsAll(t *testing.T) {
	svc, customerRepo, _ := newCustomerFixture()
	customerRepo.Create(&domain.Customer{StoreID: 1, Name: "Ana"})
	customerRepo.Create(&domain.Customer{StoreID: 1, Name: "Bruno"})

	results, err := svc.SearchCustomers(1, "  ")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Expected 2 customers, got %d", len(results))
	}
}

func TestSearchCustomers_MatchesNameAndPhone(t *testing.T) {
	svc, customerRepo, _ := newCustomerFixture()
	customerRepo.Create(&domain.Customer{StoreID: 1, Name: "Ana Lima", Phone: strPtr("11999887766")})
	customerRepo.Create(&domain.Customer{StoreID: 1, Name: "Bruno Castro"})

	byName, _ := svc.SearchCustomers(1, "ana")
	if len(byName) != 1 || byName[0].Name != "Ana Lima" {
		t.Errorf("Expected name match for 'ana', got %d results", len(byName))
	}

	byPhone, _ := svc.SearchCustomers(1, "99988")
	if len(byPhone) != 1 || byPhone[0].Name != "Ana Lima" {
		t.Errorf("Expected phone match, got %d results", len(byPhone))
	}
}

func TestDeleteCustomer_SoftDeleteHidesFromQueries(t *testing.T) {
	svc, customerRepo, _ := newCustomerFixture()
	customer, _ := customerRepo.Create(&domain.Customer{StoreID: 1, Name: "Ana"})

	if err := svc.DeleteCustomer(1, customer.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := svc.GetCustomerByID(1, customer.ID); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Errorf("Deleted customer must not be retrievable, got %v", err)
	}
}

func TestLookupCEP_NormalizesDash(t *testing.T) {
	svc, _, cep := newCustomerFixture()
	cep.Addresses["01310100"] = &viacep.Address{Street: "Avenida Paulista"}

	addr, err := svc.LookupCEP(context.Background(), " 01310-100 ")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if addr.Street != "Avenida Paulista" {
		t.Errorf("Expected resolved address, got %s", addr.Street)
	}
}
