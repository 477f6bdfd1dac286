package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/techfix/techfix-backend/internal/domain"
	"github.com/techfix/techfix-backend/internal/integration/ai"
	"github.com/techfix/techfix-backend/internal/testutil"
	"github.com/techfix/techfix-backend/internal/websocket"
)

type orderFixture struct {
	svc             *ServiceOrderService
	orderRepo       *testutil.MockServiceOrderRepository
	customerRepo    *testutil.MockCustomerRepository
	transactionRepo *testutil.MockTransactionRepository
	diagnoser       *testutil.MockDiagnoser
	now             time.Time
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	f := &orderFixture{
		orderRepo:       testutil.NewMockServiceOrderRepository(),
		customerRepo:    testutil.NewMockCustomerRepository(),
		transactionRepo: testutil.NewMockTransactionRepository(),
		diagnoser:       &testutil.MockDiagnoser{},
		now:             time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	clock := testutil.FixedClock{Time: f.now}
	photos := NewPhotoService(nil)
	f.svc = NewServiceOrderService(f.orderRepo, f.customerRepo, f.transactionRepo, f.diagnoser, photos, clock, &websocket.NoOpPublisher{})
	return f
}

func (f *orderFixture) openOrder(t *testing.T, labor, parts int64) *domain.ServiceOrder {
	t.Helper()
	customer, _ := f.customerRepo.Create(&domain.Customer{StoreID: 1, Name: "Carlos Dias"})
	order, err := f.svc.CreateOrder(1, CreateOrderInput{
		CustomerID:         customer.ID,
		Device:             "iPhone 12",
		ProblemDescription: "Tela quebrada",
		LaborCost:          decimal.NewFromInt(labor),
		PartsCost:          decimal.NewFromInt(parts),
	})
	if err != nil {
		t.Fatalf("Failed to open order: %v", err)
	}
	return order
}

func TestCreateOrder_SnapshotsCustomerAndOpens(t *testing.T) {
	f := newOrderFixture(t)

	order := f.openOrder(t, 150, 300)

	if order.Status != domain.OrderReceived {
		t.Errorf("Expected received status, got %s", order.Status)
	}
	if order.CustomerName != "Carlos Dias" {
		t.Errorf("Expected customer name snapshot, got %s", order.CustomerName)
	}
	if !order.OpenedAt.Equal(f.now) {
		t.Errorf("Expected OpenedAt %s, got %s", f.now, order.OpenedAt)
	}
}

func TestCreateOrder_UnknownCustomer(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.CreateOrder(1, CreateOrderInput{
		CustomerID:         42,
		Device:             "iPhone 12",
		ProblemDescription: "Não liga",
	})
	if !errors.Is(err, domain.ErrServiceOrderCustomerReq) {
		t.Errorf("Expected ErrServiceOrderCustomerReq, got %v", err)
	}
}

func TestTransitionOrder_HappyPath(t *testing.T) {
	f := newOrderFixture(t)
	order := f.openOrder(t, 100, 0)

	for _, target := range []domain.ServiceOrderStatus{domain.OrderInRepair, domain.OrderReady, domain.OrderDelivered} {
		updated, err := f.svc.TransitionOrder(1, order.ID, target)
		if err != nil {
			t.Fatalf("Transition to %s failed: %v", target, err)
		}
		if updated.Status != target {
			t.Errorf("Expected status %s, got %s", target, updated.Status)
		}
	}
}

func TestTransitionOrder_BadTransition(t *testing.T) {
	f := newOrderFixture(t)
	order := f.openOrder(t, 100, 0)

	// received → delivered skips ready
	_, err := f.svc.TransitionOrder(1, order.ID, domain.OrderDelivered)
	if !errors.Is(err, domain.ErrServiceOrderBadTransition) {
		t.Errorf("Expected ErrServiceOrderBadTransition, got %v", err)
	}
}

func TestTransitionOrder_TerminalIsImmutable(t *testing.T) {
	f := newOrderFixture(t)
	order := f.openOrder(t, 100, 0)
	f.svc.TransitionOrder(1, order.ID, domain.OrderCanceled)

	if _, err := f.svc.TransitionOrder(1, order.ID, domain.OrderInRepair); !errors.Is(err, domain.ErrServiceOrderTerminal) {
		t.Errorf("Expected ErrServiceOrderTerminal, got %v", err)
	}
	if _, err := f.svc.UpdateOrder(1, order.ID, UpdateOrderInput{Device: "x", ProblemDescription: "y"}); !errors.Is(err, domain.ErrServiceOrderTerminal) {
		t.Errorf("Expected ErrServiceOrderTerminal on update, got %v", err)
	}
}

func TestTransitionOrder_DeliveryClosesAndRecordsIncome(t *testing.T) {
	f := newOrderFixture(t)
	order := f.openOrder(t, 150, 300)
	f.svc.TransitionOrder(1, order.ID, domain.OrderReady)

	delivered, err := f.svc.TransitionOrder(1, order.ID, domain.OrderDelivered)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if delivered.ClosedAt == nil || !delivered.ClosedAt.Equal(f.now) {
		t.Errorf("Expected ClosedAt %s, got %v", f.now, delivered.ClosedAt)
	}

	entries, _ := f.transactionRepo.GetByMonth(1, 2025, 3)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 ledger entry, got %d", len(entries))
	}
	if !entries[0].Amount.Equal(decimal.NewFromInt(450)) {
		t.Errorf("Expected income 450, got %s", entries[0].Amount.String())
	}
	if entries[0].Kind != domain.TransactionIncome {
		t.Errorf("Expected income entry, got %s", entries[0].Kind)
	}
}

func TestTransitionOrder_CancelWritesNoIncome(t *testing.T) {
	f := newOrderFixture(t)
	order := f.openOrder(t, 150, 300)

	canceled, err := f.svc.TransitionOrder(1, order.ID, domain.OrderCanceled)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if canceled.ClosedAt == nil {
		t.Error("Canceled order must be closed")
	}
	if len(f.transactionRepo.Transactions) != 0 {
		t.Error("Canceled order must not record income")
	}
}

func TestTransitionOrder_ZeroCostDeliveryWritesNoIncome(t *testing.T) {
	f := newOrderFixture(t)
	order := f.openOrder(t, 0, 0)
	f.svc.TransitionOrder(1, order.ID, domain.OrderReady)

	if _, err := f.svc.TransitionOrder(1, order.ID, domain.OrderDelivered); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(f.transactionRepo.Transactions) != 0 {
		t.Error("Zero-cost delivery must not record income")
	}
}

func TestRequestDiagnosis_StoresAdvisoryText(t *testing.T) {
	f := newOrderFixture(t)
	f.diagnoser.Text = "Trocar o display e testar o touch."
	order := f.openOrder(t, 100, 0)

	updated, err := f.svc.RequestDiagnosis(context.Background(), 1, order.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated.Diagnosis == nil || *updated.Diagnosis != "Trocar o display e testar o touch." {
		t.Errorf("Expected diagnosis stored, got %v", updated.Diagnosis)
	}
}

func TestRequestDiagnosis_NotConfiguredPassesThrough(t *testing.T) {
	f := newOrderFixture(t)
	f.diagnoser.Err = ai.ErrNotConfigured
	order := f.openOrder(t, 100, 0)

	_, err := f.svc.RequestDiagnosis(context.Background(), 1, order.ID)
	if !errors.Is(err, ai.ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured, got %v", err)
	}
	stored, _ := f.orderRepo.GetByID(1, order.ID)
	if stored.Diagnosis != nil {
		t.Error("Failed diagnosis must not be stored")
	}
}
