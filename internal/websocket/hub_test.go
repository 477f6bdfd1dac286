package websocket

import (
	"encoding/json"
	"testing"
	"time"
)

// fakeClient collects sent messages on a channel so tests can wait for
// the asynchronous broadcast.
type fakeClient struct {
	id      string
	storeID int32
	sent    chan []byte
	closed  bool
}

func newFakeClient(id string, storeID int32) *fakeClient {
	return &fakeClient{id: id, storeID: storeID, sent: make(chan []byte, 8)}
}

func (c *fakeClient) ID() string     { return c.id }
func (c *fakeClient) StoreID() int32 { return c.storeID }

func (c *fakeClient) Send(data []byte) error {
	if c.closed {
		return ErrClientClosed
	}
	c.sent <- data
	return nil
}

func (c *fakeClient) Close() error {
	c.closed = true
	return nil
}

func (c *fakeClient) waitForMessage(t *testing.T) []byte {
	t.Helper()
	select {
	case data := <-c.sent:
		return data
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for broadcast")
		return nil
	}
}

func (c *fakeClient) expectNoMessage(t *testing.T) {
	t.Helper()
	select {
	case <-c.sent:
		t.Error("Received unexpected broadcast")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_RegisterAndCount(t *testing.T) {
	hub := NewHub()
	a := newFakeClient("a", 1)
	b := newFakeClient("b", 1)
	c := newFakeClient("c", 2)

	hub.Register(a)
	hub.Register(b)
	hub.Register(c)

	if got := hub.ClientCount(1); got != 2 {
		t.Errorf("Expected 2 clients in store 1, got %d", got)
	}
	if got := hub.TotalClientCount(); got != 3 {
		t.Errorf("Expected 3 total clients, got %d", got)
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub()
	a := newFakeClient("a", 1)

	hub.Register(a)
	hub.Unregister(a)

	if got := hub.ClientCount(1); got != 0 {
		t.Errorf("Expected 0 clients, got %d", got)
	}

	// Unregistering twice is harmless
	hub.Unregister(a)
}

func TestHub_BroadcastIsStoreScoped(t *testing.T) {
	hub := NewHub()
	mine := newFakeClient("a", 1)
	other := newFakeClient("b", 2)

	hub.Register(mine)
	hub.Register(other)

	hub.Broadcast(1, SaleCreated(map[string]int{"id": 7}))

	data := mine.waitForMessage(t)

	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("Failed to parse event: %v", err)
	}
	if event.Type != "sale.created" {
		t.Errorf("Expected sale.created, got %s", event.Type)
	}
	if event.Entity != EntityTypeSale {
		t.Errorf("Expected sale entity, got %s", event.Entity)
	}

	// Store 2 must not see store 1 events
	other.expectNoMessage(t)
}

func TestHub_BroadcastToEmptyStore(t *testing.T) {
	hub := NewHub()

	// No clients registered; must not panic
	hub.Broadcast(5, TransactionCreated(nil))
}

func TestHub_UnregisteredClientStopsReceiving(t *testing.T) {
	hub := NewHub()
	a := newFakeClient("a", 1)

	hub.Register(a)
	hub.Broadcast(1, ProductUpdated(nil))
	a.waitForMessage(t)

	hub.Unregister(a)
	hub.Broadcast(1, ProductUpdated(nil))
	a.expectNoMessage(t)
}
