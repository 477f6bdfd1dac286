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

func newTransactionFixture(now time.Time) (*TransactionService, *testutil.MockTransactionRepository) {
	repo := testutil.NewMockTransactionRepository()
	svc := NewTransactionService(repo, testutil.FixedClock{Time: now}, &websocket.NoOpPublisher{})
	return svc, repo
}

func TestCreateTransaction_StampsOccurredAt(t *testing.T) {
	now := time.Date(2025, 7, 20, 16, 0, 0, 0, time.UTC)
	svc, _ := newTransactionFixture(now)

	entry, err := svc.CreateTransaction(1, CreateTransactionInput{
		Kind:        domain.TransactionExpense,
		Description: "Aluguel da loja",
		Amount:      decimal.NewFromInt(1200),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !entry.OccurredAt.Equal(now) {
		t.Errorf("Expected OccurredAt %s, got %s", now, entry.OccurredAt)
	}
}

func TestCreateTransaction_Validation(t *testing.T) {
	svc, repo := newTransactionFixture(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))

	_, err := svc.CreateTransaction(1, CreateTransactionInput{
		Kind:        domain.TransactionIncome,
		Description: "   ",
		Amount:      decimal.NewFromInt(10),
	})
	if !errors.Is(err, domain.ErrTransactionDescEmpty) {
		t.Errorf("Expected ErrTransactionDescEmpty, got %v", err)
	}

	_, err = svc.CreateTransaction(1, CreateTransactionInput{
		Kind:        domain.TransactionIncome,
		Description: "Recebimento",
		Amount:      decimal.NewFromInt(-5),
	})
	if !errors.Is(err, domain.ErrTransactionAmountInvalid) {
		t.Errorf("Expected ErrTransactionAmountInvalid, got %v", err)
	}

	if len(repo.Transactions) != 0 {
		t.Error("Invalid entries must not be persisted")
	}
}

func TestGetMonthSummary_AggregatesKinds(t *testing.T) {
	svc, _ := newTransactionFixture(time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC))

	svc.CreateTransaction(1, CreateTransactionInput{Kind: domain.TransactionIncome, Description: "Venda", Amount: decimal.NewFromInt(300)})
	svc.CreateTransaction(1, CreateTransactionInput{Kind: domain.TransactionIncome, Description: "Serviço", Amount: decimal.NewFromInt(200)})
	svc.CreateTransaction(1, CreateTransactionInput{Kind: domain.TransactionExpense, Description: "Peças", Amount: decimal.NewFromInt(150)})

	summary, err := svc.GetMonthSummary(1, 2025, 7)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !summary.Income.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected income 500, got %s", summary.Income.String())
	}
	if !summary.Expense.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Expected expense 150, got %s", summary.Expense.String())
	}
	if !summary.Net.Equal(decimal.NewFromInt(350)) {
		t.Errorf("Expected net 350, got %s", summary.Net.String())
	}
}

func TestGetMonthSummary_EmptyMonthIsZero(t *testing.T) {
	svc, _ := newTransactionFixture(time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC))

	summary, err := svc.GetMonthSummary(1, 2025, 2)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !summary.Income.IsZero() || !summary.Expense.IsZero() || !summary.Net.IsZero() {
		t.Errorf("Expected all-zero summary, got %+v", summary)
	}
}

func TestCurrentMonth_FollowsClock(t *testing.T) {
	svc, _ := newTransactionFixture(time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC))

	year, month := svc.CurrentMonth()
	if year != 2025 || month != 12 {
		t.Errorf("Expected 2025-12, got %d-%d", year, month)
	}
}

func TestDeleteTransaction_RemovesEntry(t *testing.T) {
	svc, repo := newTransactionFixture(time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC))
	entry, _ := svc.CreateTransaction(1, CreateTransactionInput{Kind: domain.TransactionExpense, Description: "Frete", Amount: decimal.NewFromInt(40)})

	if err := svc.DeleteTransaction(1, entry.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(repo.Transactions) != 0 {
		t.Error("Expected entry removed")
	}

	if err := svc.DeleteTransaction(1, entry.ID); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("Expected ErrTransactionNotFound, got %v", err)
	}
}
