package ws

import (
	"context"
	"sync"
)

// Hub is the broadcast broker for stream clients. There is a single implicit
// topic — new notifications — so the registry is a flat set.
//
// Register, unregister and broadcast all flow through the Run loop, so a
// client's send channel is only ever closed on the Run goroutine and a
// broadcast can never race the close. The mutex exists solely so
// ConnectedCount can read the set from other goroutines.
type Hub struct {
	clients    map[*Client]struct{}
	mu         sync.RWMutex
	register   chan *Client
	unregister chan *Client
	broadcast  chan Message
	stopped    chan struct{}
}

// NewHub creates an idle Hub. Call Run in its own goroutine to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan Message, 64),
		stopped:    make(chan struct{}),
	}
}

// Run starts the hub's event loop and exits when ctx is cancelled, closing
// every connected client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.drop(client)

		case msg := <-h.broadcast:
			h.mu.RLock()
			targets := make([]*Client, 0, len(h.clients))
			for c := range h.clients {
				targets = append(targets, c)
			}
			h.mu.RUnlock()

			for _, c := range targets {
				select {
				case c.send <- msg:
				default:
					// Full buffer: disconnect the slow client so its
					// backpressure cannot stall the rest.
					h.drop(c)
				}
			}

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[*Client]struct{})
			h.mu.Unlock()
			return
		}
	}
}

// drop removes a client and closes its send channel. Only called from the
// Run goroutine.
func (h *Hub) drop(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// Broadcast queues msg for every connected client. Safe to call from any
// goroutine; after the hub stops it becomes a no-op.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	case <-h.stopped:
	}
}

// ConnectedCount returns the number of connected stream clients.
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
