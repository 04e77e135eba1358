package notify

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const hubWriteDeadline = time.Second

// Hub broadcasts events to connected dashboard WebSocket clients.
// Slow or failed clients are dropped rather than allowed to stall the
// broadcast loop.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	messages chan []byte
	done     chan struct{}
}

// NewHub creates a hub and starts its broadcast loop.
func NewHub() *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard is served from a different origin in
			// development; CORS policy is enforced at the router.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients:  make(map[*websocket.Conn]struct{}),
		messages: make(chan []byte, 256),
		done:     make(chan struct{}),
	}
	go h.run()
	return h
}

// Publish implements Sink. Events are dropped when the broadcast queue
// is full so telemetry ingestion never blocks on a slow dashboard.
func (h *Hub) Publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[notify] marshal event: %v", err)
		return
	}
	select {
	case h.messages <- data:
	default:
	}
}

// ServeHTTP upgrades the request to a WebSocket and registers the
// client for broadcasts. Inbound frames are read and discarded to keep
// the connection's control handling alive.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[notify] websocket upgrade: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// ClientCount reports how many dashboard clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close stops the broadcast loop and disconnects all clients.
func (h *Hub) Close() {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
	}
	h.clients = make(map[*websocket.Conn]struct{})
}

func (h *Hub) run() {
	for {
		select {
		case data := <-h.messages:
			h.broadcast(data)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(hubWriteDeadline))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		conn.Close()
		delete(h.clients, conn)
	}
}
