package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent_CombinedType(t *testing.T) {
	event := NewEvent(EventTypePaid, EntityTypeInstallment, map[string]int{"number": 2})

	assert.Equal(t, "installment.paid", event.Type)
	assert.Equal(t, EntityTypeInstallment, event.Entity)
	assert.False(t, event.Timestamp.IsZero())
}

func TestEvent_ToJSON(t *testing.T) {
	event := SaleCreated(map[string]interface{}{"id": float64(7)})

	data, err := event.ToJSON()
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "sale.created", decoded.Type)
	assert.Equal(t, EntityTypeSale, decoded.Entity)
}

func TestEventConstructors_Types(t *testing.T) {
	assert.Equal(t, "product.updated", ProductUpdated(nil).Type)
	assert.Equal(t, "service_order.updated", ServiceOrderUpdated(nil).Type)
	assert.Equal(t, "installment_plan.created", PlanCreated(nil).Type)
	assert.Equal(t, "installment.updated", InstallmentUpdated(nil).Type)
	assert.Equal(t, "transaction.created", TransactionCreated(nil).Type)
	assert.Equal(t, "transaction.deleted", TransactionDeleted(nil).Type)
}

func TestPublisher_HubAndNoOp(t *testing.T) {
	// Compile-time checks that both publishers satisfy the interface
	var _ EventPublisher = (*Hub)(nil)
	var _ EventPublisher = (*NoOpPublisher)(nil)

	hub := NewHub()
	client := newFakeClient("client-1", 1)
	hub.Register(client)

	var publisher EventPublisher = hub
	publisher.Publish(1, InstallmentPaid(map[string]int{"number": 1}))

	data := client.waitForMessage(t)
	var event Event
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, "installment.paid", event.Type)

	assert.NotPanics(t, func() {
		(&NoOpPublisher{}).Publish(1, InstallmentPaid(nil))
	})
}
