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

func newInstallmentFixture(t *testing.T, now time.Time) (*InstallmentService, *testutil.MockInstallmentPlanRepository, *testutil.MockCustomerRepository, *testutil.MockReminderSender) {
	t.Helper()
	planRepo := testutil.NewMockInstallmentPlanRepository()
	customerRepo := testutil.NewMockCustomerRepository()
	reminders := &testutil.MockReminderSender{}
	svc := NewInstallmentService(planRepo, customerRepo, testutil.FixedClock{Time: now}, reminders, &websocket.NoOpPublisher{})
	return svc, planRepo, customerRepo, reminders
}

func seedCustomer(t *testing.T, repo *testutil.MockCustomerRepository, storeID int32, email string) *domain.Customer {
	t.Helper()
	customer := &domain.Customer{
		StoreID: storeID,
		Name:    "Maria Souza",
	}
	if email != "" {
		customer.Email = &email
	}
	created, err := repo.Create(customer)
	if err != nil {
		t.Fatalf("Failed to seed customer: %v", err)
	}
	return created
}

func TestCreatePlan_MonthlySchedule(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _, customerRepo, _ := newInstallmentFixture(t, now)
	customer := seedCustomer(t, customerRepo, 1, "")

	// 1000, no fee, 200 down, no trade-in → 800 financed over 4
	plan, err := svc.CreatePlan(1, CreatePlanInput{
		CustomerID:       customer.ID,
		ProductName:      "iPhone 13",
		Brand:            "Apple",
		Model:            "A2633",
		TotalValue:       decimal.NewFromInt(1000),
		CustomFee:        decimal.Zero,
		DownPayment:      decimal.NewFromInt(200),
		InstallmentCount: 4,
		Frequency:        domain.FrequencyMonthly,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(plan.Installments) != 4 {
		t.Fatalf("Expected 4 installments, got %d", len(plan.Installments))
	}

	expected := decimal.NewFromInt(200)
	for i, inst := range plan.Installments {
		if inst.Number != int32(i+1) {
			t.Errorf("Expected number %d, got %d", i+1, inst.Number)
		}
		if !inst.Value.Equal(expected) {
			t.Errorf("Installment %d: expected value 200, got %s", inst.Number, inst.Value.String())
		}
		if inst.Status != domain.InstallmentPending {
			t.Errorf("Installment %d: expected pending, got %s", inst.Number, inst.Status)
		}
		wantDue := now.AddDate(0, i+1, 0)
		if !inst.DueDate.Equal(wantDue) {
			t.Errorf("Installment %d: expected due %s, got %s", inst.Number, wantDue, inst.DueDate)
		}
	}
}

func TestCreatePlan_WeeklySpacing(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _, customerRepo, _ := newInstallmentFixture(t, now)
	customer := seedCustomer(t, customerRepo, 1, "")

	plan, err := svc.CreatePlan(1, CreatePlanInput{
		CustomerID:       customer.ID,
		ProductName:      "Galaxy S21",
		TotalValue:       decimal.NewFromInt(600),
		InstallmentCount: 3,
		Frequency:        domain.FrequencyWeekly,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for i, inst := range plan.Installments {
		wantDue := now.AddDate(0, 0, 7*(i+1))
		if !inst.DueDate.Equal(wantDue) {
			t.Errorf("Installment %d: expected due %s, got %s", inst.Number, wantDue, inst.DueDate)
		}
	}
}

func TestCreatePlan_SplitSumsToFinanced(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _, customerRepo, _ := newInstallmentFixture(t, now)
	customer := seedCustomer(t, customerRepo, 1, "")

	// 100 over 3 does not divide evenly; the unrounded split must still
	// sum back exactly
	plan, err := svc.CreatePlan(1, CreatePlanInput{
		CustomerID:       customer.ID,
		ProductName:      "Carregador",
		TotalValue:       decimal.NewFromInt(100),
		InstallmentCount: 3,
		Frequency:        domain.FrequencyMonthly,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	sum := decimal.Zero
	for _, inst := range plan.Installments {
		sum = sum.Add(inst.Value)
	}
	if !sum.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected installments to sum to 100, got %s", sum.String())
	}
}

func TestCreatePlan_FinancedNotPositiveRejected(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, planRepo, customerRepo, _ := newInstallmentFixture(t, now)
	customer := seedCustomer(t, customerRepo, 1, "")

	// 500 + 50 - 600 down → nothing to finance
	_, err := svc.CreatePlan(1, CreatePlanInput{
		CustomerID:       customer.ID,
		ProductName:      "Fone de ouvido",
		TotalValue:       decimal.NewFromInt(500),
		CustomFee:        decimal.NewFromInt(50),
		DownPayment:      decimal.NewFromInt(600),
		InstallmentCount: 2,
		Frequency:        domain.FrequencyMonthly,
	})
	if !errors.Is(err, domain.ErrPlanFinancedNotPositive) {
		t.Fatalf("Expected ErrPlanFinancedNotPositive, got %v", err)
	}
	if len(planRepo.Plans) != 0 {
		t.Error("Rejected plan must not be persisted")
	}
}

func TestCreatePlan_TradeInReducesFinanced(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _, customerRepo, _ := newInstallmentFixture(t, now)
	customer := seedCustomer(t, customerRepo, 1, "")

	plan, err := svc.CreatePlan(1, CreatePlanInput{
		CustomerID:  customer.ID,
		ProductName: "iPhone 14",
		TotalValue:  decimal.NewFromInt(2000),
		DownPayment: decimal.NewFromInt(300),
		TradeIn: &domain.TradeIn{
			Name:  "iPhone 11 usado",
			Value: decimal.NewFromInt(700),
		},
		InstallmentCount: 2,
		Frequency:        domain.FrequencyMonthly,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !plan.FinancedAmount().Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected financed 1000, got %s", plan.FinancedAmount().String())
	}
	if !plan.Installments[0].Value.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected installment value 500, got %s", plan.Installments[0].Value.String())
	}
}

func TestCreatePlan_NegativeValueRejected(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _, customerRepo, _ := newInstallmentFixture(t, now)
	customer := seedCustomer(t, customerRepo, 1, "")

	_, err := svc.CreatePlan(1, CreatePlanInput{
		CustomerID:       customer.ID,
		ProductName:      "Notebook",
		TotalValue:       decimal.NewFromInt(1000),
		DownPayment:      decimal.NewFromInt(-50),
		InstallmentCount: 2,
		Frequency:        domain.FrequencyMonthly,
	})
	if !errors.Is(err, domain.ErrPlanValueNegative) {
		t.Errorf("Expected ErrPlanValueNegative, got %v", err)
	}
}

func TestCreatePlan_UnknownCustomerRejected(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _, _, _ := newInstallmentFixture(t, now)

	_, err := svc.CreatePlan(1, CreatePlanInput{
		CustomerID:       99,
		ProductName:      "Tablet",
		TotalValue:       decimal.NewFromInt(500),
		InstallmentCount: 2,
		Frequency:        domain.FrequencyMonthly,
	})
	if !errors.Is(err, domain.ErrPlanCustomerRequired) {
		t.Errorf("Expected ErrPlanCustomerRequired, got %v", err)
	}
}

func TestCreatePlan_SnapshotsCustomer(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _, customerRepo, _ := newInstallmentFixture(t, now)
	customer := seedCustomer(t, customerRepo, 1, "")

	plan, err := svc.CreatePlan(1, CreatePlanInput{
		CustomerID:       customer.ID,
		ProductName:      "Smartwatch",
		TotalValue:       decimal.NewFromInt(400),
		InstallmentCount: 2,
		Frequency:        domain.FrequencyMonthly,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Later customer edits must not leak into the stored plan
	customer.Name = "Maria Souza Oliveira"
	if plan.CustomerName != "Maria Souza" {
		t.Errorf("Expected snapshot 'Maria Souza', got %s", plan.CustomerName)
	}
}

func TestPayInstallment_MarksPaid(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _, customerRepo, _ := newInstallmentFixture(t, now)
	customer := seedCustomer(t, customerRepo, 1, "")

	plan, _ := svc.CreatePlan(1, CreatePlanInput{
		CustomerID:       customer.ID,
		ProductName:      "iPhone 13",
		TotalValue:       decimal.NewFromInt(600),
		InstallmentCount: 3,
		Frequency:        domain.FrequencyMonthly,
	})

	paid, err := svc.PayInstallment(1, plan.ID, 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if paid.Status != domain.InstallmentPaid {
		t.Errorf("Expected paid, got %s", paid.Status)
	}
	if paid.PaidAt == nil || !paid.PaidAt.Equal(now) {
		t.Errorf("Expected paidAt %s, got %v", now, paid.PaidAt)
	}

	summary := svc.ClassifyPlan(plan)
	if summary.PaidCount != 1 || summary.PendingCount != 2 {
		t.Errorf("Expected 1 paid / 2 pending, got %+v", summary)
	}
	if !summary.PaidTotal.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected paid total 200, got %s", summary.PaidTotal.String())
	}
	if !summary.RemainingTotal.Equal(decimal.NewFromInt(400)) {
		t.Errorf("Expected remaining 400, got %s", summary.RemainingTotal.String())
	}
}

func TestPayInstallment_AlreadyPaidConflicts(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _, customerRepo, _ := newInstallmentFixture(t, now)
	customer := seedCustomer(t, customerRepo, 1, "")

	plan, _ := svc.CreatePlan(1, CreatePlanInput{
		CustomerID:       customer.ID,
		ProductName:      "iPhone 13",
		TotalValue:       decimal.NewFromInt(600),
		InstallmentCount: 3,
		Frequency:        domain.FrequencyMonthly,
	})

	first, err := svc.PayInstallment(1, plan.ID, 2)
	if err != nil {
		t.Fatalf("First payment failed: %v", err)
	}
	firstPaidAt := *first.PaidAt

	_, err = svc.PayInstallment(1, plan.ID, 2)
	if !errors.Is(err, domain.ErrInstallmentAlreadyPaid) {
		t.Fatalf("Expected ErrInstallmentAlreadyPaid, got %v", err)
	}

	// Original payment timestamp survives the rejected retry
	if !plan.Installment(2).PaidAt.Equal(firstPaidAt) {
		t.Error("First payment timestamp must not be overwritten")
	}
}

func TestPayInstallment_UnknownNumber(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _, customerRepo, _ := newInstallmentFixture(t, now)
	customer := seedCustomer(t, customerRepo, 1, "")

	plan, _ := svc.CreatePlan(1, CreatePlanInput{
		CustomerID:       customer.ID,
		ProductName:      "iPhone 13",
		TotalValue:       decimal.NewFromInt(600),
		InstallmentCount: 3,
		Frequency:        domain.FrequencyMonthly,
	})

	_, err := svc.PayInstallment(1, plan.ID, 9)
	if !errors.Is(err, domain.ErrInstallmentNotFound) {
		t.Errorf("Expected ErrInstallmentNotFound, got %v", err)
	}
}

func TestUpdateInstallmentValue_FreeForm(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _, customerRepo, _ := newInstallmentFixture(t, now)
	customer := seedCustomer(t, customerRepo, 1, "")

	plan, _ := svc.CreatePlan(1, CreatePlanInput{
		CustomerID:       customer.ID,
		ProductName:      "iPhone 13",
		TotalValue:       decimal.NewFromInt(600),
		InstallmentCount: 3,
		Frequency:        domain.FrequencyMonthly,
	})

	// Corrections are free-form; no rebalancing of the other installments
	updated, err := svc.UpdateInstallmentValue(1, plan.ID, 1, decimal.NewFromInt(250))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !updated.Value.Equal(decimal.NewFromInt(250)) {
		t.Errorf("Expected 250, got %s", updated.Value.String())
	}
	if !plan.Installment(2).Value.Equal(decimal.NewFromInt(200)) {
		t.Error("Other installments must keep their values")
	}
}

func TestUpdateInstallmentValue_RejectsNonPositive(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _, customerRepo, _ := newInstallmentFixture(t, now)
	customer := seedCustomer(t, customerRepo, 1, "")

	plan, _ := svc.CreatePlan(1, CreatePlanInput{
		CustomerID:       customer.ID,
		ProductName:      "iPhone 13",
		TotalValue:       decimal.NewFromInt(600),
		InstallmentCount: 3,
		Frequency:        domain.FrequencyMonthly,
	})

	if _, err := svc.UpdateInstallmentValue(1, plan.ID, 1, decimal.Zero); !errors.Is(err, domain.ErrInstallmentValueInvalid) {
		t.Errorf("Expected ErrInstallmentValueInvalid for zero, got %v", err)
	}
	if _, err := svc.UpdateInstallmentValue(1, plan.ID, 1, decimal.NewFromInt(-10)); !errors.Is(err, domain.ErrInstallmentValueInvalid) {
		t.Errorf("Expected ErrInstallmentValueInvalid for negative, got %v", err)
	}
}

func TestUpdateInstallmentValue_PaidIsImmutable(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _, customerRepo, _ := newInstallmentFixture(t, now)
	customer := seedCustomer(t, customerRepo, 1, "")

	plan, _ := svc.CreatePlan(1, CreatePlanInput{
		CustomerID:       customer.ID,
		ProductName:      "iPhone 13",
		TotalValue:       decimal.NewFromInt(600),
		InstallmentCount: 3,
		Frequency:        domain.FrequencyMonthly,
	})
	if _, err := svc.PayInstallment(1, plan.ID, 1); err != nil {
		t.Fatalf("Payment failed: %v", err)
	}

	_, err := svc.UpdateInstallmentValue(1, plan.ID, 1, decimal.NewFromInt(250))
	if !errors.Is(err, domain.ErrInstallmentAlreadyPaid) {
		t.Fatalf("Expected ErrInstallmentAlreadyPaid, got %v", err)
	}
	if !plan.Installment(1).Value.Equal(decimal.NewFromInt(200)) {
		t.Error("Paid installment value must not change")
	}
}

func TestSendReminder_EmailsEarliestOverdue(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _, customerRepo, reminders := newInstallmentFixture(t, now)
	customer := seedCustomer(t, customerRepo, 1, "maria@example.com")

	plan, _ := svc.CreatePlan(1, CreatePlanInput{
		CustomerID:       customer.ID,
		ProductName:      "iPhone 13",
		TotalValue:       decimal.NewFromInt(600),
		InstallmentCount: 3,
		Frequency:        domain.FrequencyWeekly,
	})

	// Two weeks later the first two installments are overdue
	svcLate := NewInstallmentService(
		mustRepoWith(t, plan),
		customerRepo,
		testutil.FixedClock{Time: now.AddDate(0, 0, 15)},
		reminders,
		&websocket.NoOpPublisher{},
	)

	overdue, err := svcLate.SendReminder(1, plan.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if overdue.Number != 1 {
		t.Errorf("Expected earliest overdue installment 1, got %d", overdue.Number)
	}
	if len(reminders.Sent) != 1 || reminders.Sent[0].To != "maria@example.com" {
		t.Errorf("Expected one reminder to maria@example.com, got %+v", reminders.Sent)
	}
}

func TestSendReminder_NothingOverdue(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _, customerRepo, reminders := newInstallmentFixture(t, now)
	customer := seedCustomer(t, customerRepo, 1, "maria@example.com")

	plan, _ := svc.CreatePlan(1, CreatePlanInput{
		CustomerID:       customer.ID,
		ProductName:      "iPhone 13",
		TotalValue:       decimal.NewFromInt(600),
		InstallmentCount: 3,
		Frequency:        domain.FrequencyMonthly,
	})

	_, err := svc.SendReminder(1, plan.ID)
	if !errors.Is(err, domain.ErrNothingOverdue) {
		t.Errorf("Expected ErrNothingOverdue, got %v", err)
	}
	if len(reminders.Sent) != 0 {
		t.Error("No reminder must be sent when nothing is overdue")
	}
}

func TestSendReminder_NoCustomerEmail(t *testing.T) {
	created := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, _, customerRepo, _ := newInstallmentFixture(t, created)
	customer := seedCustomer(t, customerRepo, 1, "")

	plan, _ := svc.CreatePlan(1, CreatePlanInput{
		CustomerID:       customer.ID,
		ProductName:      "iPhone 13",
		TotalValue:       decimal.NewFromInt(600),
		InstallmentCount: 3,
		Frequency:        domain.FrequencyWeekly,
	})

	svcLate := NewInstallmentService(
		mustRepoWith(t, plan),
		customerRepo,
		testutil.FixedClock{Time: created.AddDate(0, 0, 15)},
		&testutil.MockReminderSender{},
		&websocket.NoOpPublisher{},
	)

	_, err := svcLate.SendReminder(1, plan.ID)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func mustRepoWith(t *testing.T, plans ...*domain.InstallmentPlan) *testutil.MockInstallmentPlanRepository {
	t.Helper()
	repo := testutil.NewMockInstallmentPlanRepository()
	for _, plan := range plans {
		if _, err := repo.Create(plan); err != nil {
			t.Fatalf("Failed to seed plan: %v", err)
		}
	}
	return repo
}
