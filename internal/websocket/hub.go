package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"contractpulse/internal/infrastructure"
	"contractpulse/pkg/contracts/events"
)

// broadcastQueue bounds pending broadcasts. Publishers never block on it.
const broadcastQueue = 64

// Hub maintains the set of active clients and fans events out to them.
// Only the Run goroutine touches client send channels.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	running bool
	quit    chan struct{}
	done    chan struct{}

	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

// NewHub creates a hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *Metrics) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, broadcastQueue),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		logger:     infrastructure.WithComponent(logger, "websocket.hub"),
		metrics:    metrics,
		now:        time.Now,
	}
}

// Start runs the hub loop in its own goroutine. It is idempotent.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}
	h.running = true
	go h.run()
}

// Stop ends the hub loop and disconnects every client
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()

			ctx := client.context()
			h.metrics.recordConnect(ctx)
			h.logger.InfoContext(ctx, "client registered",
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr),
				slog.Int("total_clients", count))

			hello, err := h.encode(ctx, events.TypeConnection, events.Connection{
				Status:   "connected",
				ClientID: client.id,
			})
			if err == nil {
				select {
				case client.send <- hello:
				default:
					h.logger.WarnContext(ctx, "client buffer full, connection message dropped",
						slog.String("client_id", client.id))
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			if ok {
				ctx := client.context()
				h.metrics.recordDisconnect(ctx, time.Since(client.connectedAt))
				h.logger.InfoContext(ctx, "client unregistered",
					slog.String("client_id", client.id),
					slog.Int("total_clients", count),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			}

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

// fanOut sends one frame to every client, evicting those whose buffer is full
func (h *Hub) fanOut(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for client := range h.clients {
		select {
		case client.send <- message:
			delivered++
		default:
			close(client.send)
			delete(h.clients, client)
			h.metrics.recordDisconnect(client.context(), time.Since(client.connectedAt))
			h.logger.WarnContext(client.context(), "client send buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}
	h.metrics.recordBroadcast(context.Background(), delivered)
	h.logger.Debug("broadcast delivered",
		slog.Int("clients", delivered),
		slog.Int("bytes", len(message)))
}

// Broadcast queues an event for every connected client. It never blocks:
// when the queue is full or the hub is stopped the event is dropped.
func (h *Hub) Broadcast(ctx context.Context, eventType string, data interface{}) {
	message, err := h.encode(ctx, eventType, data)
	if err != nil {
		return
	}
	select {
	case <-h.quit:
		return
	default:
	}
	select {
	case h.broadcast <- message:
	default:
		h.metrics.recordDropped(ctx)
		h.logger.WarnContext(ctx, "broadcast queue full, event dropped",
			slog.String("type", eventType))
	}
}

func (h *Hub) encode(ctx context.Context, eventType string, data interface{}) ([]byte, error) {
	b, err := json.Marshal(Message{
		Type:      eventType,
		Data:      data,
		Timestamp: h.now().UTC().Format(time.RFC3339),
		TraceID:   infrastructure.GetTraceID(ctx),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "error marshaling message",
			slog.String("type", eventType),
			slog.String("error", err.Error()))
	}
	return b, err
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		close(client.send)
	}
}

// Unregister removes a client; it is a no-op once the hub stopped
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
