// Package stream pushes committed change events to subscribed dashboard
// clients over websockets, standing in for the polling the views never do.
package stream

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/cordonhq/cordon/pkg/store"
)

// Client is one subscribed websocket connection, scoped to a tenant. Writes
// are serialized per connection.
type Client struct {
	tenantID string
	conn     *websocket.Conn
	writeMu  sync.Mutex
}

func (c *Client) write(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub fans change events out to every client subscribed to the event's
// tenant. It implements store.Notifier.
type Hub struct {
	log     zerolog.Logger
	mu      sync.Mutex
	clients map[*Client]struct{}
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[*Client]struct{}),
	}
}

// Subscribe registers a connection for a tenant's change feed. The caller
// owns the connection's read side; the hub only writes.
func (h *Hub) Subscribe(tenantID string, conn *websocket.Conn) *Client {
	client := &Client{tenantID: tenantID, conn: conn}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	return client
}

// Unsubscribe removes a client and closes its connection.
func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	delete(h.clients, client)
	h.mu.Unlock()
	_ = client.conn.Close()
}

// Notify broadcasts one change event to the tenant's subscribers. Never
// blocks the caller; clients whose writes fail are dropped.
func (h *Hub) Notify(ev store.ChangeEvent) {
	h.mu.Lock()
	targets := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		if client.tenantID == ev.TenantID {
			targets = append(targets, client)
		}
	}
	h.mu.Unlock()

	for _, client := range targets {
		go func(c *Client) {
			if err := c.write(ev); err != nil {
				h.log.Debug().Err(err).Str("tenant_id", c.tenantID).Msg("dropping slow feed client")
				h.Unsubscribe(c)
			}
		}(client)
	}
}

// ClientCount reports the number of open subscriptions.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
