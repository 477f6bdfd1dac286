package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrCustomerNameEmpty   = errors.New("customer name is required")
	ErrCustomerNameTooLong = errors.New("customer name must be 200 characters or less")
)

// Customer is a registry entry. Address fields mirror the Brazilian postal
// layout so CEP lookups can fill them directly.
type Customer struct {
	ID           int32      `json:"id"`
	StoreID      int32      `json:"storeId"`
	Name         string     `json:"name"`
	Phone        *string    `json:"phone,omitempty"`
	Email        *string    `json:"email,omitempty"`
	Document     *string    `json:"document,omitempty"` // CPF/CNPJ, free-form
	CEP          *string    `json:"cep,omitempty"`
	Street       *string    `json:"street,omitempty"`
	Number       *string    `json:"number,omitempty"`
	Neighborhood *string    `json:"neighborhood,omitempty"`
	City         *string    `json:"city,omitempty"`
	State        *string    `json:"state,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
}

func (c *Customer) Validate() error {
	if c.Name == "" {
		return ErrCustomerNameEmpty
	}
	if len(c.Name) > MaxNameLength {
		return ErrCustomerNameTooLong
	}
	return nil
}

// FormattedAddress joins the address fields into a single display line.
// Empty fields are skipped.
func (c *Customer) FormattedAddress() string {
	var parts []string
	if c.Street != nil && *c.Street != "" {
		street := *c.Street
		if c.Number != nil && *c.Number != "" {
			street += ", " + *c.Number
		}
		parts = append(parts, street)
	}
	if c.Neighborhood != nil && *c.Neighborhood != "" {
		parts = append(parts, *c.Neighborhood)
	}
	if c.City != nil && *c.City != "" {
		city := *c.City
		if c.State != nil && *c.State != "" {
			city += " - " + *c.State
		}
		parts = append(parts, city)
	}
	if c.CEP != nil && *c.CEP != "" {
		parts = append(parts, "CEP "+*c.CEP)
	}
	return strings.Join(parts, ", ")
}

// CustomerRepository defines persistence for customers
type CustomerRepository interface {
	Create(customer *Customer) (*Customer, error)
	GetByID(storeID int32, id int32) (*Customer, error)
	GetAllByStore(storeID int32) ([]*Customer, error)
	Search(storeID int32, query string) ([]*Customer, error)
	Update(customer *Customer) (*Customer, error)
	SoftDelete(storeID int32, id int32) error
}
