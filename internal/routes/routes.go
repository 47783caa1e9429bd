package routes

import (
	"net/http"

	"avatar-relay/internal/handlers"

	"github.com/gorilla/mux"
)

// Handlers groups the handlers the router dispatches to
type Handlers struct {
	Health http.HandlerFunc
	Home   http.HandlerFunc
	Static http.Handler

	Token *handlers.TokenHandler
	Chat  *handlers.ChatHandler
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(router *mux.Router, h *Handlers) {
	// Health endpoints
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	// Application shell
	router.HandleFunc("/", h.Home).Methods(http.MethodGet)
	router.PathPrefix("/static/").Handler(h.Static).Methods(http.MethodGet)

	// Relay endpoints
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/heygen/get-token", h.Token.GetToken).Methods(http.MethodPost)
	api.HandleFunc("/openai/chat", h.Chat.Forward).Methods(http.MethodPost)
	api.HandleFunc("/openai/response", h.Chat.Respond).Methods(http.MethodPost)
}
