package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrTransactionNotFound      = errors.New("transaction not found")
	ErrTransactionDescEmpty     = errors.New("transaction description is required")
	ErrTransactionAmountInvalid = errors.New("transaction amount must be positive")
	ErrTransactionKindInvalid   = errors.New("unknown transaction kind")
)

// TransactionKind separates money in from money out.
type TransactionKind string

const (
	TransactionIncome  TransactionKind = "income"
	TransactionExpense TransactionKind = "expense"
)

// ParseTransactionKind validates a kind string from the API.
func ParseTransactionKind(s string) (TransactionKind, error) {
	switch TransactionKind(s) {
	case TransactionIncome, TransactionExpense:
		return TransactionKind(s), nil
	}
	return "", ErrTransactionKindInvalid
}

// Transaction is one financial ledger entry. Amounts are always positive;
// the kind carries the sign.
type Transaction struct {
	ID          int32           `json:"id"`
	StoreID     int32           `json:"storeId"`
	Kind        TransactionKind `json:"kind"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Method      *string         `json:"method,omitempty"`
	Category    *string         `json:"category,omitempty"`
	SaleID      *int32          `json:"saleId,omitempty"`
	PlanID      *uuid.UUID      `json:"planId,omitempty"`
	OccurredAt  time.Time       `json:"occurredAt"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (t *Transaction) Validate() error {
	if t.Description == "" {
		return ErrTransactionDescEmpty
	}
	if !t.Amount.IsPositive() {
		return ErrTransactionAmountInvalid
	}
	if _, err := ParseTransactionKind(string(t.Kind)); err != nil {
		return err
	}
	return nil
}

// LedgerSummary aggregates a month of ledger entries.
type LedgerSummary struct {
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// TransactionRepository defines persistence for ledger entries
type TransactionRepository interface {
	Create(tx *Transaction) (*Transaction, error)
	GetByID(storeID int32, id int32) (*Transaction, error)
	GetByMonth(storeID int32, year, month int) ([]*Transaction, error)
	Delete(storeID int32, id int32) error
}
