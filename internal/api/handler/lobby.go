package handler

import (
	"net/http"

	"github.com/outplayedgg/garrison-server/internal/api/response"
	"github.com/outplayedgg/garrison-server/internal/services/session"
)

// LobbyHandler serves the public room directory. Rooms are created and
// joined over the websocket; HTTP only reads.
type LobbyHandler struct {
	coordinator *session.Coordinator
}

// NewLobbyHandler creates a new lobby handler
func NewLobbyHandler(coordinator *session.Coordinator) *LobbyHandler {
	return &LobbyHandler{
		coordinator: coordinator,
	}
}

// ListLobbies handles GET /api/v1/lobbies
func (h *LobbyHandler) ListLobbies(w http.ResponseWriter, r *http.Request) {
	summaries := h.coordinator.Lobbies()
	lobbies := make([]response.Lobby, len(summaries))
	for i, s := range summaries {
		lobbies[i] = response.LobbyFromSummary(s)
	}
	response.JSON(w, http.StatusOK, lobbies)
}
