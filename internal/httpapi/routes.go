package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/roadstream/roadstream/internal/hub"
	"github.com/roadstream/roadstream/internal/ws"
)

func SetupRoutes(h *hub.Hub, enforcementType string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Public routes
	r.Get("/", Root)
	r.Get("/healthz", Healthz)
	r.Get("/health", Health(h))
	r.Get("/enforcement.geojson", Enforcement(h))
	r.Post("/upload", Upload(h, enforcementType, log))
	r.Get("/stream/roadworks", ws.Handler(h, log))
	return r
}
