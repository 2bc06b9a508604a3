// Package server wires HTTP handlers into a ServeMux for the relay
// application via routing helpers.
package server

import (
	"log/slog"
	"net/http"
)

// SetupRoutes configures and returns an HTTP ServeMux with all application routes.
// It sets up handlers for liveness, health, the WebSocket endpoint, and the test page.
func SetupRoutes(log *slog.Logger, hub *Hub, cfg Config) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", RootHandler)
	mux.HandleFunc("/health", HealthHandler(log, hub))
	mux.Handle("/ws", NewWebSocketHandler(log, hub, cfg))
	mux.HandleFunc("/test", TestPageHandler(log))
	return mux
}
