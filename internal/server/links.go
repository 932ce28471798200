package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sanusharma-ui/chat/internal/roomid"
	"github.com/sanusharma-ui/chat/internal/signaling"
)

// Room-link issuance. A POST claims a caller-chosen id, a GET hands out a
// random one. The claim lives only as long as the room: the registry releases
// it once the room empties.

type createRoomRequest struct {
	RoomID string `json:"roomId"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func roomLink(r *http.Request, roomID string) string {
	// Deployed behind TLS termination, so links are always https.
	return fmt.Sprintf("https://%s/?room=%s", r.Host, roomID)
}

// CreateRoom returns the handler for both link-issuance verbs.
func CreateRoom(registry *signaling.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var req createRoomRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !roomid.Valid(req.RoomID) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid room ID"})
				return
			}
			if !registry.Reserve(req.RoomID) {
				writeJSON(w, http.StatusConflict, map[string]string{"error": "Room already exists"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"link": roomLink(r, req.RoomID)})

		case http.MethodGet:
			id := roomid.New()
			registry.Reserve(id)
			writeJSON(w, http.StatusOK, map[string]string{"link": roomLink(r, id)})

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}
