package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of event (created, updated, paid...)
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
	EventTypeDeleted EventType = "deleted"
	EventTypePaid    EventType = "paid"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeSale         EntityType = "sale"
	EntityTypeProduct      EntityType = "product"
	EntityTypeServiceOrder EntityType = "service_order"
	EntityTypePlan         EntityType = "installment_plan"
	EntityTypeInstallment  EntityType = "installment"
	EntityTypeTransaction  EntityType = "transaction"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"` // Combined type e.g. "sale.created"
	Entity    EntityType  `json:"entity"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// SaleCreated creates a sale.created event
func SaleCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeSale, payload)
}

// ProductUpdated creates a product.updated event. Fired on stock changes
// so POS screens refresh their counts.
func ProductUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeProduct, payload)
}

// ServiceOrderUpdated creates a service_order.updated event
func ServiceOrderUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeServiceOrder, payload)
}

// PlanCreated creates an installment_plan.created event
func PlanCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypePlan, payload)
}

// InstallmentPaid creates an installment.paid event
func InstallmentPaid(payload interface{}) Event {
	return NewEvent(EventTypePaid, EntityTypeInstallment, payload)
}

// InstallmentUpdated creates an installment.updated event
func InstallmentUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeInstallment, payload)
}

// TransactionCreated creates a transaction.created event
func TransactionCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeTransaction, payload)
}

// TransactionDeleted creates a transaction.deleted event
func TransactionDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeTransaction, payload)
}
