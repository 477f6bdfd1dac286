package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when attempting to send to a closed client
var ErrClientClosed = errors.New("client is closed")

// ClientInterface defines the interface that clients must implement
type ClientInterface interface {
	ID() string
	StoreID() int32
	Send(data []byte) error
	Close() error
}

// Hub manages WebSocket connections organized by store.
// It is safe for concurrent use.
type Hub struct {
	// stores maps store ID to a map of client ID to client
	stores map[int32]map[string]ClientInterface
	mu     sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		stores: make(map[int32]map[string]ClientInterface),
	}
}

// Register adds a client to the hub under its store
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	storeID := client.StoreID()
	clientID := client.ID()

	if h.stores[storeID] == nil {
		h.stores[storeID] = make(map[string]ClientInterface)
	}

	h.stores[storeID][clientID] = client

	log.Debug().
		Int32("store_id", storeID).
		Str("client_id", clientID).
		Msg("WebSocket client registered")
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	storeID := client.StoreID()
	clientID := client.ID()

	if clients, ok := h.stores[storeID]; ok {
		if _, exists := clients[clientID]; exists {
			delete(clients, clientID)

			if len(clients) == 0 {
				delete(h.stores, storeID)
			}

			log.Debug().
				Int32("store_id", storeID).
				Str("client_id", clientID).
				Msg("WebSocket client unregistered")
		}
	}
}

// Broadcast sends an event to all clients in a specific store
func (h *Hub) Broadcast(storeID int32, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Int32("store_id", storeID).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	h.mu.RLock()
	clients, ok := h.stores[storeID]
	if !ok || len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	// Copy clients to avoid holding lock during send
	clientsCopy := make([]ClientInterface, 0, len(clients))
	for _, client := range clients {
		clientsCopy = append(clientsCopy, client)
	}
	h.mu.RUnlock()

	for _, client := range clientsCopy {
		go func(c ClientInterface) {
			if err := c.Send(data); err != nil {
				log.Warn().
					Err(err).
					Int32("store_id", storeID).
					Str("client_id", c.ID()).
					Msg("Failed to send to client")
			}
		}(client)
	}

	log.Debug().
		Int32("store_id", storeID).
		Str("event_type", event.Type).
		Int("client_count", len(clientsCopy)).
		Msg("Broadcast event")
}

// ClientCount returns the number of clients connected to a store
func (h *Hub) ClientCount(storeID int32) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.stores[storeID]; ok {
		return len(clients)
	}
	return 0
}

// TotalClientCount returns the total number of connected clients
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.stores {
		total += len(clients)
	}
	return total
}
