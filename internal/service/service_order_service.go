package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/techfix/techfix-backend/internal/domain"
	"github.com/techfix/techfix-backend/internal/util"
	"github.com/techfix/techfix-backend/internal/websocket"
)

// Diagnoser produces advisory repair-diagnosis text. Satisfied by
// ai.Client in production.
type Diagnoser interface {
	Diagnose(ctx context.Context, device, problem string) (string, error)
}

// ServiceOrderService handles repair workflow business logic
type ServiceOrderService struct {
	orderRepo       domain.ServiceOrderRepository
	customerRepo    domain.CustomerRepository
	transactionRepo domain.TransactionRepository
	diagnoser       Diagnoser
	photos          *PhotoService
	clock           util.Clock
	publisher       websocket.EventPublisher
}

// NewServiceOrderService creates a new ServiceOrderService
func NewServiceOrderService(
	orderRepo domain.ServiceOrderRepository,
	customerRepo domain.CustomerRepository,
	transactionRepo domain.TransactionRepository,
	diagnoser Diagnoser,
	photos *PhotoService,
	clock util.Clock,
	publisher websocket.EventPublisher,
) *ServiceOrderService {
	return &ServiceOrderService{
		orderRepo:       orderRepo,
		customerRepo:    customerRepo,
		transactionRepo: transactionRepo,
		diagnoser:       diagnoser,
		photos:          photos,
		clock:           clock,
		publisher:       publisher,
	}
}

// CreateOrderInput contains input for opening a service order
type CreateOrderInput struct {
	CustomerID         int32
	Device             string
	Brand              *string
	Model              *string
	SerialNumber       *string
	IMEI               *string
	ProblemDescription string
	LaborCost          decimal.Decimal
	PartsCost          decimal.Decimal
}

// CreateOrder opens a repair order in the received status. The customer
// name is snapshotted at creation.
func (s *ServiceOrderService) CreateOrder(storeID int32, input CreateOrderInput) (*domain.ServiceOrder, error) {
	customer, err := s.customerRepo.GetByID(storeID, input.CustomerID)
	if err != nil {
		if err == domain.ErrCustomerNotFound {
			return nil, domain.ErrServiceOrderCustomerReq
		}
		return nil, err
	}

	order := &domain.ServiceOrder{
		StoreID:            storeID,
		CustomerID:         customer.ID,
		CustomerName:       customer.Name,
		Device:             strings.TrimSpace(input.Device),
		Brand:              input.Brand,
		Model:              input.Model,
		SerialNumber:       input.SerialNumber,
		IMEI:               input.IMEI,
		ProblemDescription: strings.TrimSpace(input.ProblemDescription),
		Status:             domain.OrderReceived,
		LaborCost:          input.LaborCost,
		PartsCost:          input.PartsCost,
		OpenedAt:           s.clock.Now(),
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}

	return s.orderRepo.Create(order)
}

// GetOrders retrieves all service orders for a store
func (s *ServiceOrderService) GetOrders(storeID int32) ([]*domain.ServiceOrder, error) {
	return s.orderRepo.GetAllByStore(storeID)
}

// GetOrdersByStatus retrieves service orders in one workflow state
func (s *ServiceOrderService) GetOrdersByStatus(storeID int32, status domain.ServiceOrderStatus) ([]*domain.ServiceOrder, error) {
	return s.orderRepo.GetByStatus(storeID, status)
}

// GetOrderByID retrieves a service order by ID within a store
func (s *ServiceOrderService) GetOrderByID(storeID int32, id int32) (*domain.ServiceOrder, error) {
	return s.orderRepo.GetByID(storeID, id)
}

// UpdateOrderInput contains the editable fields of an open order
type UpdateOrderInput struct {
	Device             string
	Brand              *string
	Model              *string
	SerialNumber       *string
	IMEI               *string
	ProblemDescription string
	LaborCost          decimal.Decimal
	PartsCost          decimal.Decimal
}

// UpdateOrder edits an open order's details. Closed orders are immutable.
func (s *ServiceOrderService) UpdateOrder(storeID int32, id int32, input UpdateOrderInput) (*domain.ServiceOrder, error) {
	order, err := s.orderRepo.GetByID(storeID, id)
	if err != nil {
		return nil, err
	}
	if order.IsTerminal() {
		return nil, domain.ErrServiceOrderTerminal
	}

	order.Device = strings.TrimSpace(input.Device)
	order.Brand = input.Brand
	order.Model = input.Model
	order.SerialNumber = input.SerialNumber
	order.IMEI = input.IMEI
	order.ProblemDescription = strings.TrimSpace(input.ProblemDescription)
	order.LaborCost = input.LaborCost
	order.PartsCost = input.PartsCost
	if err := order.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.orderRepo.Update(order)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(storeID, websocket.ServiceOrderUpdated(updated))
	return updated, nil
}

// TransitionOrder moves the order through the repair workflow. Delivering
// an order closes it and records labor plus parts as ledger income.
func (s *ServiceOrderService) TransitionOrder(storeID int32, id int32, target domain.ServiceOrderStatus) (*domain.ServiceOrder, error) {
	order, err := s.orderRepo.GetByID(storeID, id)
	if err != nil {
		return nil, err
	}
	if order.IsTerminal() {
		return nil, domain.ErrServiceOrderTerminal
	}
	if !order.CanTransitionTo(target) {
		return nil, domain.ErrServiceOrderBadTransition
	}

	order.Status = target
	if order.IsTerminal() {
		now := s.clock.Now()
		order.ClosedAt = &now
	}

	updated, err := s.orderRepo.Update(order)
	if err != nil {
		return nil, err
	}

	if target == domain.OrderDelivered {
		s.recordDeliveryIncome(updated)
	}

	log.Info().
		Int32("store_id", storeID).
		Int32("order_id", id).
		Str("status", string(target)).
		Msg("Service order transitioned")

	s.publisher.Publish(storeID, websocket.ServiceOrderUpdated(updated))
	return updated, nil
}

// recordDeliveryIncome writes the ledger entry for a delivered repair.
// The transition is already committed; a ledger failure is logged only.
func (s *ServiceOrderService) recordDeliveryIncome(order *domain.ServiceOrder) {
	total := order.TotalCost()
	if !total.IsPositive() {
		return
	}
	entry := &domain.Transaction{
		StoreID:     order.StoreID,
		Kind:        domain.TransactionIncome,
		Description: "Serviço entregue: " + order.Device,
		Amount:      total,
		OccurredAt:  s.clock.Now(),
	}
	if _, err := s.transactionRepo.Create(entry); err != nil {
		log.Error().Err(err).Int32("order_id", order.ID).Msg("Failed to record delivery in ledger")
	}
}

// RequestDiagnosis asks the AI integration for advisory repair text and
// stores it on the order. The text is opaque; nothing else reads it.
func (s *ServiceOrderService) RequestDiagnosis(ctx context.Context, storeID int32, id int32) (*domain.ServiceOrder, error) {
	order, err := s.orderRepo.GetByID(storeID, id)
	if err != nil {
		return nil, err
	}
	if order.IsTerminal() {
		return nil, domain.ErrServiceOrderTerminal
	}

	device := order.Device
	if order.Brand != nil && *order.Brand != "" {
		device = *order.Brand + " " + device
	}

	text, err := s.diagnoser.Diagnose(ctx, device, order.ProblemDescription)
	if err != nil {
		return nil, err
	}

	order.Diagnosis = &text
	return s.orderRepo.Update(order)
}

// AttachPhoto processes and stores a photo on the order
func (s *ServiceOrderService) AttachPhoto(ctx context.Context, storeID int32, id int32, data []byte, filename string) (*domain.ServiceOrder, error) {
	order, err := s.orderRepo.GetByID(storeID, id)
	if err != nil {
		return nil, err
	}

	variant, err := s.photos.ProcessAndUpload(ctx, storeID, id, data, filename)
	if err != nil {
		return nil, err
	}

	order.PhotoKeys = append(order.PhotoKeys, variant.DisplayKey)
	return s.orderRepo.Update(order)
}

// PhotoURLs presigns download URLs for every photo on the order
func (s *ServiceOrderService) PhotoURLs(ctx context.Context, order *domain.ServiceOrder) ([]string, error) {
	urls := make([]string, 0, len(order.PhotoKeys))
	for _, key := range order.PhotoKeys {
		url, err := s.photos.PresignURL(ctx, key)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}
