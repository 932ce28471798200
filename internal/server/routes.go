package server

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sanusharma-ui/chat/internal/signaling"
)

// Configure the websocket upgrader. Room-id possession is the only
// credential, so any origin may connect.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWs returns the websocket handler. The room id travels in the query
// string; a missing id or a full room is rejected with a single error event
// and the connection is closed without touching registry state.
func ServeWs(registry *signaling.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sock, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", "err", err)
			return
		}

		roomID := r.URL.Query().Get("room")
		if roomID == "" {
			sock.WriteJSON(signaling.ErrorEnvelope("room id required"))
			sock.Close()
			return
		}

		conn := signaling.NewConn(uuid.NewString(), registry, sock)

		if registry.Join(roomID, conn) == signaling.JoinRejected {
			sock.WriteJSON(signaling.ErrorEnvelope("room is full"))
			sock.Close()
			return
		}

		// Join queued welcome plus waiting/paired before the pumps start;
		// the buffered send queue preserves that order.
		go conn.WritePump()
		go conn.ReadPump()
	}
}

// Health is a plain liveness endpoint.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Signaling server is healthy."))
}
