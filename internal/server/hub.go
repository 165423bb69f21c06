package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ckuethe/astro-tools/internal/solver"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Results are not sensitive; the API itself is unauthenticated.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans solve results out to connected websocket clients.
type Hub struct {
	log       *slog.Logger
	broadcast chan *solver.Result

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewHub creates an event hub.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:       log,
		broadcast: make(chan *solver.Result, 32),
		clients:   make(map[*websocket.Conn]bool),
	}
}

// Publish queues a result for delivery to all connected clients. Never
// blocks the solver: the event is dropped if the queue is full.
func (h *Hub) Publish(res *solver.Result) {
	select {
	case h.broadcast <- res:
	default:
		h.log.Debug("event queue full, dropping result", "file", res.File)
	}
}

// Run delivers queued results until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case res := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteJSON(res); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// HandleWS upgrades an HTTP request to a websocket event subscription.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	// Drain client messages so pings and closes are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.mu.Lock()
				if h.clients[conn] {
					conn.Close()
					delete(h.clients, conn)
				}
				h.mu.Unlock()
				return
			}
		}
	}()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
