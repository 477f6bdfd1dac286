package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrServiceOrderNotFound       = errors.New("service order not found")
	ErrServiceOrderCustomerReq    = errors.New("no customer selected")
	ErrServiceOrderDeviceEmpty    = errors.New("device description is required")
	ErrServiceOrderProblemEmpty   = errors.New("problem description is required")
	ErrServiceOrderCostInvalid    = errors.New("cost must not be negative")
	ErrServiceOrderTerminal       = errors.New("service order is already closed")
	ErrServiceOrderBadTransition  = errors.New("status transition not allowed")
	ErrServiceOrderStatusInvalid  = errors.New("unknown service order status")
)

// ServiceOrderStatus is the repair workflow state.
type ServiceOrderStatus string

const (
	OrderReceived  ServiceOrderStatus = "received"
	OrderInRepair  ServiceOrderStatus = "in_repair"
	OrderReady     ServiceOrderStatus = "ready"
	OrderDelivered ServiceOrderStatus = "delivered"
	OrderCanceled  ServiceOrderStatus = "canceled"
)

// orderTransitions lists the allowed forward moves. Delivered and canceled
// are terminal.
var orderTransitions = map[ServiceOrderStatus][]ServiceOrderStatus{
	OrderReceived: {OrderInRepair, OrderReady, OrderCanceled},
	OrderInRepair: {OrderReady, OrderCanceled},
	OrderReady:    {OrderDelivered, OrderCanceled},
}

// ServiceOrder is a repair job. Customer name is a snapshot taken at
// creation; later customer edits do not propagate.
type ServiceOrder struct {
	ID                 int32              `json:"id"`
	StoreID            int32              `json:"storeId"`
	CustomerID         int32              `json:"customerId"`
	CustomerName       string             `json:"customerName"`
	Device             string             `json:"device"`
	Brand              *string            `json:"brand,omitempty"`
	Model              *string            `json:"model,omitempty"`
	SerialNumber       *string            `json:"serialNumber,omitempty"`
	IMEI               *string            `json:"imei,omitempty"`
	ProblemDescription string             `json:"problemDescription"`
	Diagnosis          *string            `json:"diagnosis,omitempty"` // advisory AI text, opaque
	Status             ServiceOrderStatus `json:"status"`
	LaborCost          decimal.Decimal    `json:"laborCost"`
	PartsCost          decimal.Decimal    `json:"partsCost"`
	PhotoKeys          []string           `json:"photoKeys,omitempty"`
	OpenedAt           time.Time          `json:"openedAt"`
	ClosedAt           *time.Time         `json:"closedAt,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

func (o *ServiceOrder) Validate() error {
	if o.CustomerID <= 0 {
		return ErrServiceOrderCustomerReq
	}
	if o.Device == "" {
		return ErrServiceOrderDeviceEmpty
	}
	if o.ProblemDescription == "" {
		return ErrServiceOrderProblemEmpty
	}
	if o.LaborCost.IsNegative() || o.PartsCost.IsNegative() {
		return ErrServiceOrderCostInvalid
	}
	return nil
}

// IsTerminal reports whether the order reached a final status.
func (o *ServiceOrder) IsTerminal() bool {
	return o.Status == OrderDelivered || o.Status == OrderCanceled
}

// CanTransitionTo reports whether moving to target is allowed from the
// current status.
func (o *ServiceOrder) CanTransitionTo(target ServiceOrderStatus) bool {
	for _, s := range orderTransitions[o.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// TotalCost is labor plus parts.
func (o *ServiceOrder) TotalCost() decimal.Decimal {
	return o.LaborCost.Add(o.PartsCost)
}

// ParseServiceOrderStatus validates a status string from the API.
func ParseServiceOrderStatus(s string) (ServiceOrderStatus, error) {
	switch ServiceOrderStatus(s) {
	case OrderReceived, OrderInRepair, OrderReady, OrderDelivered, OrderCanceled:
		return ServiceOrderStatus(s), nil
	}
	return "", ErrServiceOrderStatusInvalid
}

// ServiceOrderRepository defines persistence for service orders
type ServiceOrderRepository interface {
	Create(order *ServiceOrder) (*ServiceOrder, error)
	GetByID(storeID int32, id int32) (*ServiceOrder, error)
	GetAllByStore(storeID int32) ([]*ServiceOrder, error)
	GetByStatus(storeID int32, status ServiceOrderStatus) ([]*ServiceOrder, error)
	Update(order *ServiceOrder) (*ServiceOrder, error)
}
