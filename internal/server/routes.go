// Package server wires HTTP handlers into a ServeMux for the relay's
// companion HTTP surface.
package server

import (
	"log/slog"
	"net/http"
)

// SetupRoutes configures and returns an HTTP ServeMux with all application routes.
// The WebSocket endpoint is mounted only when gateway is non-nil.
func SetupRoutes(hub *Hub, gateway *WebSocketGateway, log *slog.Logger) *http.ServeMux {
	if log == nil {
		log = slog.Default()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler(hub))
	mux.HandleFunc("/participants", ParticipantsHandler(hub, log))
	mux.HandleFunc("/test", TestPageHandler(log))
	if gateway != nil {
		mux.Handle("/ws", gateway)
	}
	return mux
}
