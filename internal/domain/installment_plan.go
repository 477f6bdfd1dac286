package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrPlanNotFound            = errors.New("installment plan not found")
	ErrPlanCustomerRequired    = errors.New("no customer selected")
	ErrPlanValueNegative       = errors.New("plan values must not be negative")
	ErrPlanCountInvalid        = errors.New("installment count must be at least 1")
	ErrPlanFrequencyInvalid    = errors.New("unknown plan frequency")
	ErrPlanFinancedNotPositive = errors.New("financed amount is zero or negative")
	ErrInstallmentNotFound     = errors.New("installment not found")
	ErrInstallmentAlreadyPaid  = errors.New("installment already paid")
	ErrInstallmentValueInvalid = errors.New("installment value must be positive")
	ErrNothingOverdue          = errors.New("plan has no overdue installment")
)

// PlanFrequency is the installment spacing, fixed for the life of a plan.
type PlanFrequency string

const (
	FrequencyWeekly  PlanFrequency = "weekly"
	FrequencyMonthly PlanFrequency = "monthly"
)

// ParsePlanFrequency validates a frequency string from the API.
func ParsePlanFrequency(s string) (PlanFrequency, error) {
	switch PlanFrequency(s) {
	case FrequencyWeekly, FrequencyMonthly:
		return PlanFrequency(s), nil
	}
	return "", ErrPlanFrequencyInvalid
}

// InstallmentStatus is the stored payment state. Overdue is never stored;
// it is derived from a pending installment whose due date has passed.
type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "pending"
	InstallmentPaid    InstallmentStatus = "paid"
	InstallmentOverdue InstallmentStatus = "overdue" // display only
)

// TradeIn is an item accepted as partial payment at its appraised value.
type TradeIn struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// Installment is one scheduled payment within a plan. Number, due date and
// spacing are fixed at creation; only Value (via correction) and
// Status/PaidAt (via payment) ever change.
type Installment struct {
	ID        int32             `json:"id"`
	PlanID    uuid.UUID         `json:"planId"`
	Number    int32             `json:"number"`
	DueDate   time.Time         `json:"dueDate"`
	Value     decimal.Decimal   `json:"value"`
	Status    InstallmentStatus `json:"status"`
	PaidAt    *time.Time        `json:"paidAt,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// IsOverdue reports whether the installment is pending with a due date
// strictly before now.
func (i *Installment) IsOverdue(now time.Time) bool {
	return i.Status == InstallmentPending && i.DueDate.Before(now)
}

// DisplayStatus returns the stored status, except that an overdue pending
// installment shows as overdue.
func (i *Installment) DisplayStatus(now time.Time) InstallmentStatus {
	if i.IsOverdue(now) {
		return InstallmentOverdue
	}
	return i.Status
}

// InstallmentPlan is a layaway/credit billing agreement tied to one sale
// and one customer. Customer fields are snapshots taken at creation.
type InstallmentPlan struct {
	ID              uuid.UUID       `json:"id"`
	StoreID         int32           `json:"storeId"`
	CustomerID      int32           `json:"customerId"`
	CustomerName    string          `json:"customerName"`
	CustomerAddress string          `json:"customerAddress"`
	ProductName     string          `json:"productName"`
	Brand           string          `json:"brand"`
	Model           string          `json:"model"`
	Color           *string         `json:"color,omitempty"`
	Storage         *string         `json:"storage,omitempty"`
	SerialNumber    *string         `json:"serialNumber,omitempty"`
	IMEI            *string         `json:"imei,omitempty"`
	TotalValue      decimal.Decimal `json:"totalValue"`
	CustomFee       decimal.Decimal `json:"customFee"`
	DownPayment     decimal.Decimal `json:"downPayment"`
	TradeIn         *TradeIn        `json:"tradeIn,omitempty"`
	Frequency       PlanFrequency   `json:"frequency"`
	CreatedAt       time.Time       `json:"createdAt"`
	Installments    []*Installment  `json:"installments"`
}

// FinancedAmount is the portion actually spread across installments:
// max(0, totalValue + customFee - downPayment - tradeInValue).
func (p *InstallmentPlan) FinancedAmount() decimal.Decimal {
	reduction := p.DownPayment
	if p.TradeIn != nil {
		reduction = reduction.Add(p.TradeIn.Value)
	}
	financed := p.TotalValue.Add(p.CustomFee).Sub(reduction)
	if financed.IsNegative() {
		return decimal.Zero
	}
	return financed
}

// Installment looks up an installment by its 1-based number.
func (p *InstallmentPlan) Installment(number int32) *Installment {
	for _, inst := range p.Installments {
		if inst.Number == number {
			return inst
		}
	}
	return nil
}

// PlanSummary is the derived state of a plan at a point in time. It is
// computed on demand and never stored, so it always reflects the latest
// payments and value corrections.
type PlanSummary struct {
	Settled        bool            `json:"settled"`
	Delinquent     bool            `json:"delinquent"`
	Current        bool            `json:"current"`
	PaidCount      int32           `json:"paidCount"`
	PendingCount   int32           `json:"pendingCount"`
	OverdueCount   int32           `json:"overdueCount"`
	PaidTotal      decimal.Decimal `json:"paidTotal"`
	RemainingTotal decimal.Decimal `json:"remainingTotal"`
}

// Classify derives the plan summary: settled when every installment is
// paid, delinquent when any pending installment is past due, current
// otherwise. Pure and side-effect-free.
func (p *InstallmentPlan) Classify(now time.Time) PlanSummary {
	summary := PlanSummary{
		PaidTotal:      decimal.Zero,
		RemainingTotal: decimal.Zero,
	}

	for _, inst := range p.Installments {
		if inst.Status == InstallmentPaid {
			summary.PaidCount++
			summary.PaidTotal = summary.PaidTotal.Add(inst.Value)
			continue
		}
		summary.PendingCount++
		summary.RemainingTotal = summary.RemainingTotal.Add(inst.Value)
		if inst.IsOverdue(now) {
			summary.OverdueCount++
		}
	}

	summary.Settled = len(p.Installments) > 0 && summary.PendingCount == 0
	summary.Delinquent = !summary.Settled && summary.OverdueCount > 0
	summary.Current = !summary.Settled && !summary.Delinquent
	return summary
}

// EarliestOverdue returns the overdue pending installment with the lowest
// number, or nil when the plan has none.
func (p *InstallmentPlan) EarliestOverdue(now time.Time) *Installment {
	for _, inst := range p.Installments {
		if inst.IsOverdue(now) {
			return inst
		}
	}
	return nil
}

// InstallmentPlanRepository defines persistence for plans. Create persists
// the plan together with its full installment schedule in one transaction;
// a failure leaves no partial plan behind.
type InstallmentPlanRepository interface {
	Create(plan *InstallmentPlan) (*InstallmentPlan, error)
	GetByID(storeID int32, id uuid.UUID) (*InstallmentPlan, error)
	GetAllByStore(storeID int32) ([]*InstallmentPlan, error)
	GetByCustomer(storeID int32, customerID int32) ([]*InstallmentPlan, error)
	MarkInstallmentPaid(planID uuid.UUID, number int32, paidAt time.Time) (*Installment, error)
	UpdateInstallmentValue(planID uuid.UUID, number int32, value decimal.Decimal) (*Installment, error)
}
