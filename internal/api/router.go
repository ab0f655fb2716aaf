package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/outplayedgg/garrison-server/internal/api/handler"
	"github.com/outplayedgg/garrison-server/internal/api/middleware"
	coremiddleware "github.com/outplayedgg/garrison-server/internal/middleware"
	"github.com/outplayedgg/garrison-server/internal/services/auth"
	"github.com/outplayedgg/garrison-server/internal/services/session"
	"github.com/outplayedgg/garrison-server/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	AuthService *auth.Service
	Coordinator *session.Coordinator
	Storage     storage.Storage
	SocketHub   http.Handler
}

// NewRouter creates a new API router with all routes configured.
// Gameplay happens entirely over the websocket at /ws; the REST
// surface covers accounts and read-only views.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.AuthService)
	lobbyHandler := handler.NewLobbyHandler(cfg.Coordinator)
	matchHandler := handler.NewMatchHandler(cfg.Storage)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := coremiddleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Player routes (no auth required for creating players/logging in)
	api.HandleFunc("/players/guest", playerHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/players/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players/login", playerHandler.Login).Methods(http.MethodPost)

	// Protected player routes
	playerProtected := api.PathPrefix("/players").Subrouter()
	playerProtected.Use(authMiddleware)
	playerProtected.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)

	// Room directory and match history (read-only, no auth)
	api.HandleFunc("/lobbies", lobbyHandler.ListLobbies).Methods(http.MethodGet)
	api.HandleFunc("/matches", matchHandler.ListRecent).Methods(http.MethodGet)
	api.HandleFunc("/matches/{matchId}", matchHandler.GetMatch).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Websocket ingress
	if cfg.SocketHub != nil {
		r.Handle("/ws", cfg.SocketHub)
	}

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
