package realtime

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"hearth/internal/platform/middleware"
)

// Handler upgrades authenticated HTTP requests to WebSocket connections.
// The realtime session reuses the REST identity set by RequireAuth.
type Handler struct {
	hub    *Hub
	logger *slog.Logger
}

func NewHandler(hub *Hub, logger *slog.Logger) *Handler {
	return &Handler{hub: hub, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID.IsZero() {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := ws.Accept(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket accept failed", "error", err)
		return
	}
	defer conn.Close(ws.StatusInternalError, "closed")

	client := NewClient(h.hub, conn, userID)
	client.Run(r.Context())
	conn.Close(ws.StatusNormalClosure, "")
}
