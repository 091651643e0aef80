package ws

import (
	"log"
	"sync"
)

// Options tunes per-connection transport behavior.
type Options struct {
	// Outbound queue size per connection.
	SendBufferSize int

	// Inbound rate limiting per connection.
	MessagesPerSecond float64
	MessageBurst      int
}

func (o Options) withDefaults() Options {
	if o.SendBufferSize <= 0 {
		o.SendBufferSize = 256
	}
	if o.MessagesPerSecond <= 0 {
		o.MessagesPerSecond = 100
	}
	if o.MessageBurst <= 0 {
		o.MessageBurst = 200
	}
	return o
}

// Hub tracks active connections by id and queues outbound frames for
// them. Room grouping and recipient selection live in the session
// coordinator; the hub only delivers.
type Hub struct {
	opts Options

	// Register requests from new connections
	register chan *Client

	// Unregister requests from closing connections
	unregister chan *Client

	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub(opts Options) *Hub {
	return &Hub{
		opts:       opts.withDefaults(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]*Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			h.mu.Unlock()
		}
	}
}

// Send queues one frame for one connection. Never blocks: a client
// whose buffer is full is cut loose so a slow consumer cannot stall
// the room that produced the frame. Frames for unknown connections are
// dropped, which covers the window where a recipient disconnects while
// a broadcast is in flight.
func (h *Hub) Send(connID string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[connID]
	if !ok {
		return
	}
	select {
	case client.send <- frame:
	default:
		log.Printf("client %s outbound buffer full, disconnecting", connID)
		go client.conn.Close()
	}
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
