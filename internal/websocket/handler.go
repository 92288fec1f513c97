package websocket

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	apierrors "contractpulse/internal/errors"
	"contractpulse/internal/infrastructure"
)

// HandlerConfig configures the upgrade endpoint
type HandlerConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	AllowedOrigins  []string
}

// Handler upgrades dashboard connections and attaches them to a hub
type Handler struct {
	hub          *Hub
	upgrader     websocket.Upgrader
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewHandler creates the /ws handler
func NewHandler(hub *Hub, cfg HandlerConfig, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *Handler {
	h := &Handler{
		hub:          hub,
		logger:       infrastructure.WithComponent(logger, "websocket.handler"),
		errorHandler: errorHandler,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     h.checkOrigin(cfg.AllowedOrigins),
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.logger.WarnContext(r.Context(), "websocket upgrade rejected",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(status,
				apierrors.ErrWebSocketUpgrade.ErrorCode, apierrors.ErrWebSocketUpgrade.Message, reason.Error()))
		},
	}
	return h
}

// checkOrigin allows same-origin requests, requests without an Origin
// header and origins listed in allowed
func (h *Handler) checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if strings.EqualFold(strings.TrimPrefix(strings.TrimPrefix(origin, "http://"), "https://"), r.Host) {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already replied through its Error callback
		return
	}

	client := NewClient(h.hub, conn, conn.RemoteAddr().String(), infrastructure.GetTraceID(r.Context()))
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
