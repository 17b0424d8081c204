package handlers

import (
	"net/http"

	"github.com/tphummel/server_inventory/internal/metrics"
)

// Register mounts the health, docs and server CRUD routes on mux. Every
// route is instrumented under its own pattern.
func (h *Handler) Register(mux *http.ServeMux) {
	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"GET /health", h.Health},
		{"GET /openapi.yaml", OpenAPIDocument},
		{"GET /docs", Docs},

		{"GET /api/servers", h.ListServers},
		{"POST /api/servers", h.CreateServer},
		{"GET /api/servers/{id}", h.GetServer},
		{"PUT /api/servers/{id}", h.UpdateServer},
		{"DELETE /api/servers/{id}", h.DeleteServer},
	}
	for _, rt := range routes {
		mux.Handle(rt.pattern, metrics.Middleware(rt.pattern, rt.handler))
	}
}
