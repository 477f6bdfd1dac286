package domain

import (
	"errors"
	"time"
)

var ErrProfileNameEmpty = errors.New("company name is required")

// StoreProfile is the company record printed on receipts and payment
// books. One row per store, upserted in place.
type StoreProfile struct {
	StoreID     int32     `json:"storeId"`
	CompanyName string    `json:"companyName"`
	Document    *string   `json:"document,omitempty"` // CNPJ
	Phone       *string   `json:"phone,omitempty"`
	Email       *string   `json:"email,omitempty"`
	CEP         *string   `json:"cep,omitempty"`
	Street      *string   `json:"street,omitempty"`
	Number      *string   `json:"number,omitempty"`
	City        *string   `json:"city,omitempty"`
	State       *string   `json:"state,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (p *StoreProfile) Validate() error {
	if p.CompanyName == "" {
		return ErrProfileNameEmpty
	}
	return nil
}

// StoreProfileRepository defines persistence for store profiles
type StoreProfileRepository interface {
	Get(storeID int32) (*StoreProfile, error)
	Upsert(profile *StoreProfile) (*StoreProfile, error)
}
