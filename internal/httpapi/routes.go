package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/elemental-duel/internal/hub"
	"github.com/DoyleJ11/elemental-duel/internal/ws"
)

func SetupRoutes(h *hub.Hub, wsCfg ws.Config, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/rooms/{code}", GetRoom(h))
	r.Get("/ws", ws.Handler(h, wsCfg, log))
	return r
}
