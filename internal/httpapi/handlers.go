package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DoyleJ11/elemental-duel/internal/hub"
	"github.com/DoyleJ11/elemental-duel/internal/room"
)

// GetRoom serves the public view of a live room.
func GetRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		rm, err := h.Lookup(r.Context(), code)
		if err != nil {
			http.Error(w, "lookup failed", http.StatusServiceUnavailable)
			return
		}
		if rm == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		view, err := rm.Snapshot(r.Context())
		if errors.Is(err, room.ErrRoomClosed) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "lookup failed", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(view)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
