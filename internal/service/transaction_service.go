package service

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/techfix/techfix-backend/internal/domain"
	"github.com/techfix/techfix-backend/internal/util"
	"github.com/techfix/techfix-backend/internal/websocket"
)

// TransactionService handles financial ledger business logic
type TransactionService struct {
	transactionRepo domain.TransactionRepository
	clock           util.Clock
	publisher       websocket.EventPublisher
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(
	transactionRepo domain.TransactionRepository,
	clock util.Clock,
	publisher websocket.EventPublisher,
) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		clock:           clock,
		publisher:       publisher,
	}
}

// CreateTransactionInput contains input for a manual ledger entry
type CreateTransactionInput struct {
	Kind        domain.TransactionKind
	Description string
	Amount      decimal.Decimal
	Method      *string
	Category    *string
}

// CreateTransaction records a manual ledger entry (rent, supplier
// payment, cash received on an installment, ...)
func (s *TransactionService) CreateTransaction(storeID int32, input CreateTransactionInput) (*domain.Transaction, error) {
	entry := &domain.Transaction{
		StoreID:     storeID,
		Kind:        input.Kind,
		Description: strings.TrimSpace(input.Description),
		Amount:      input.Amount,
		Method:      input.Method,
		Category:    input.Category,
		OccurredAt:  s.clock.Now(),
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	created, err := s.transactionRepo.Create(entry)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(storeID, websocket.TransactionCreated(created))
	return created, nil
}

// GetTransactionsByMonth retrieves entries within the given month
func (s *TransactionService) GetTransactionsByMonth(storeID int32, year, month int) ([]*domain.Transaction, error) {
	return s.transactionRepo.GetByMonth(storeID, year, month)
}

// GetMonthSummary aggregates income, expense, and net for the month
func (s *TransactionService) GetMonthSummary(storeID int32, year, month int) (*domain.LedgerSummary, error) {
	entries, err := s.transactionRepo.GetByMonth(storeID, year, month)
	if err != nil {
		return nil, err
	}

	summary := &domain.LedgerSummary{
		Year:    year,
		Month:   month,
		Income:  decimal.Zero,
		Expense: decimal.Zero,
	}
	for _, e := range entries {
		if e.Kind == domain.TransactionIncome {
			summary.Income = summary.Income.Add(e.Amount)
		} else {
			summary.Expense = summary.Expense.Add(e.Amount)
		}
	}
	summary.Net = summary.Income.Sub(summary.Expense)
	return summary, nil
}

// CurrentMonth returns the ledger's default month per the injected clock
func (s *TransactionService) CurrentMonth() (year, month int) {
	now := s.clock.Now()
	return now.Year(), int(now.Month())
}

// DeleteTransaction removes a manual ledger entry
func (s *TransactionService) DeleteTransaction(storeID int32, id int32) error {
	entry, err := s.transactionRepo.GetByID(storeID, id)
	if err != nil {
		return err
	}
	if err := s.transactionRepo.Delete(storeID, id); err != nil {
		return err
	}
	s.publisher.Publish(storeID, websocket.TransactionDeleted(entry))
	return nil
}
