package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/techfix/techfix-backend/internal/domain"
	"github.com/techfix/techfix-backend/internal/util"
	"github.com/techfix/techfix-backend/internal/websocket"
)

// ReminderSender delivers overdue-installment notices. Satisfied by
// mail.Sender in production.
type ReminderSender interface {
	SendOverdueReminder(to, customerName, productName string, number int32, value decimal.Decimal, dueDate time.Time) error
}

// InstallmentService handles installment plan business logic
type InstallmentService struct {
	planRepo     domain.InstallmentPlanRepository
	customerRepo domain.CustomerRepository
	clock        util.Clock
	reminders    ReminderSender
	publisher    websocket.EventPublisher
}

// NewInstallmentService creates a new InstallmentService
func NewInstallmentService(
	planRepo domain.InstallmentPlanRepository,
	customerRepo domain.CustomerRepository,
	clock util.Clock,
	reminders ReminderSender,
	publisher websocket.EventPublisher,
) *InstallmentService {
	return &InstallmentService{
		planRepo:     planRepo,
		customerRepo: customerRepo,
		clock:        clock,
		reminders:    reminders,
		publisher:    publisher,
	}
}

// CreatePlanInput contains input for creating an installment plan
type CreatePlanInput struct {
	CustomerID       int32
	ProductName      string
	Brand            string
	Model            string
	Color            *string
	Storage          *string
	SerialNumber     *string
	IMEI             *string
	TotalValue       decimal.Decimal
	CustomFee        decimal.Decimal
	DownPayment      decimal.Decimal
	TradeIn          *domain.TradeIn
	InstallmentCount int32
	Frequency        domain.PlanFrequency
}

// CreatePlan creates a plan with its full installment schedule. The
// financed amount is split equally across installments with no rounding,
// so the schedule always sums back to the financed amount exactly. Due
// dates start one period after creation.
func (s *InstallmentService) CreatePlan(storeID int32, input CreatePlanInput) (*domain.InstallmentPlan, error) {
	if input.CustomerID <= 0 {
		return nil, domain.ErrPlanCustomerRequired
	}

	productName := strings.TrimSpace(input.ProductName)
	if productName == "" {
		return nil, domain.ErrNameRequired
	}
	if len(productName) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}

	if input.TotalValue.IsNegative() || input.CustomFee.IsNegative() || input.DownPayment.IsNegative() {
		return nil, domain.ErrPlanValueNegative
	}
	if input.TradeIn != nil && input.TradeIn.Value.IsNegative() {
		return nil, domain.ErrPlanValueNegative
	}
	if input.InstallmentCount < 1 {
		return nil, domain.ErrPlanCountInvalid
	}
	if _, err := domain.ParsePlanFrequency(string(input.Frequency)); err != nil {
		return nil, err
	}

	customer, err := s.customerRepo.GetByID(storeID, input.CustomerID)
	if err != nil {
		if err == domain.ErrCustomerNotFound {
			return nil, domain.ErrPlanCustomerRequired
		}
		return nil, err
	}

	now := s.clock.Now()
	plan := &domain.InstallmentPlan{
		ID:              uuid.New(),
		StoreID:         storeID,
		CustomerID:      customer.ID,
		CustomerName:    customer.Name,
		CustomerAddress: customer.FormattedAddress(),
		ProductName:     productName,
		Brand:           strings.TrimSpace(input.Brand),
		Model:           strings.TrimSpace(input.Model),
		Color:           input.Color,
		Storage:         input.Storage,
		SerialNumber:    input.SerialNumber,
		IMEI:            input.IMEI,
		TotalValue:      input.TotalValue,
		CustomFee:       input.CustomFee,
		DownPayment:     input.DownPayment,
		TradeIn:         input.TradeIn,
		Frequency:       input.Frequency,
		CreatedAt:       now,
	}

	financed := plan.FinancedAmount()
	if !financed.IsPositive() {
		return nil, domain.ErrPlanFinancedNotPositive
	}

	// Equal split, full precision. Rounding here would break the
	// sum-equals-financed invariant that value corrections rely on.
	value := financed.Div(decimal.NewFromInt32(input.InstallmentCount))

	for n := int32(1); n <= input.InstallmentCount; n++ {
		plan.Installments = append(plan.Installments, &domain.Installment{
			Number:  n,
			DueDate: s.dueDate(now, plan.Frequency, int(n)),
			Value:   value,
			Status:  domain.InstallmentPending,
		})
	}

	created, err := s.planRepo.Create(plan)
	if err != nil {
		log.Error().Err(err).Int32("store_id", storeID).Msg("Failed to create installment plan")
		return nil, err
	}

	s.publisher.Publish(storeID, websocket.PlanCreated(created))
	return created, nil
}

func (s *InstallmentService) dueDate(createdAt time.Time, frequency domain.PlanFrequency, n int) time.Time {
	if frequency == domain.FrequencyWeekly {
		return util.AddWeeks(createdAt, n)
	}
	return util.AddMonths(createdAt, n)
}

// GetPlans retrieves all plans for a store
func (s *InstallmentService) GetPlans(storeID int32) ([]*domain.InstallmentPlan, error) {
	return s.planRepo.GetAllByStore(storeID)
}

// GetPlanByID retrieves a plan by ID within a store
func (s *InstallmentService) GetPlanByID(storeID int32, id uuid.UUID) (*domain.InstallmentPlan, error) {
	return s.planRepo.GetByID(storeID, id)
}

// GetPlansByCustomer retrieves all plans for one customer
func (s *InstallmentService) GetPlansByCustomer(storeID int32, customerID int32) ([]*domain.InstallmentPlan, error) {
	return s.planRepo.GetByCustomer(storeID, customerID)
}

// ClassifyPlan computes the plan summary at the current time
func (s *InstallmentService) ClassifyPlan(plan *domain.InstallmentPlan) domain.PlanSummary {
	return plan.Classify(s.clock.Now())
}

// Now exposes the service clock so callers derive display statuses from
// the same instant the classification uses.
func (s *InstallmentService) Now() time.Time {
	return s.clock.Now()
}

// PayInstallment marks one installment as paid. Paying an already-paid
// installment fails; the first payment's timestamp is never overwritten.
// No ledger entry is written here: the shop records received money
// separately, and plan state must not depend on the ledger.
func (s *InstallmentService) PayInstallment(storeID int32, planID uuid.UUID, number int32) (*domain.Installment, error) {
	plan, err := s.planRepo.GetByID(storeID, planID)
	if err != nil {
		return nil, err
	}
	if plan.Installment(number) == nil {
		return nil, domain.ErrInstallmentNotFound
	}

	paid, err := s.planRepo.MarkInstallmentPaid(planID, number, s.clock.Now())
	if err != nil {
		return nil, err
	}

	log.Info().
		Int32("store_id", storeID).
		Str("plan_id", planID.String()).
		Int32("number", number).
		Msg("Installment paid")

	s.publisher.Publish(storeID, websocket.InstallmentPaid(paid))
	return paid, nil
}

// UpdateInstallmentValue corrects one pending installment's value. Any
// positive value is accepted; the schedule is free-form and may stop
// summing to the financed amount after a correction. Paid installments
// are immutable.
func (s *InstallmentService) UpdateInstallmentValue(storeID int32, planID uuid.UUID, number int32, value decimal.Decimal) (*domain.Installment, error) {
	if !value.IsPositive() {
		return nil, domain.ErrInstallmentValueInvalid
	}

	plan, err := s.planRepo.GetByID(storeID, planID)
	if err != nil {
		return nil, err
	}
	inst := plan.Installment(number)
	if inst == nil {
		return nil, domain.ErrInstallmentNotFound
	}
	if inst.Status == domain.InstallmentPaid {
		return nil, domain.ErrInstallmentAlreadyPaid
	}

	updated, err := s.planRepo.UpdateInstallmentValue(planID, number, value)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(storeID, websocket.InstallmentUpdated(updated))
	return updated, nil
}

// SendReminder emails the plan's customer about their earliest overdue
// installment. Fails when the plan has nothing overdue or the customer
// has no email on file.
func (s *InstallmentService) SendReminder(storeID int32, planID uuid.UUID) (*domain.Installment, error) {
	plan, err := s.planRepo.GetByID(storeID, planID)
	if err != nil {
		return nil, err
	}

	overdue := plan.EarliestOverdue(s.clock.Now())
	if overdue == nil {
		return nil, domain.ErrNothingOverdue
	}

	customer, err := s.customerRepo.GetByID(storeID, plan.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer.Email == nil || *customer.Email == "" {
		return nil, domain.ErrInvalidInput
	}

	err = s.reminders.SendOverdueReminder(*customer.Email, plan.CustomerName,
		plan.ProductName, overdue.Number, overdue.Value, overdue.DueDate)
	if err != nil {
		log.Error().Err(err).Str("plan_id", planID.String()).Msg("Failed to send reminder")
		return nil, err
	}

	log.Info().
		Str("plan_id", planID.String()).
		Int32("number", overdue.Number).
		Msg("Overdue reminder sent")
	return overdue, nil
}
