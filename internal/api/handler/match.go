package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/outplayedgg/garrison-server/internal/api/response"
	"github.com/outplayedgg/garrison-server/internal/model"
	"github.com/outplayedgg/garrison-server/internal/storage"
)

const defaultMatchListLimit = 20

// MatchHandler serves completed match summaries
type MatchHandler struct {
	storage storage.Storage
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(storage storage.Storage) *MatchHandler {
	return &MatchHandler{
		storage: storage,
	}
}

// ListRecent handles GET /api/v1/matches
func (h *MatchHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultMatchListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			WriteError(w, NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	summaries, err := h.storage.ListRecentMatches(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	matches := make([]response.Match, len(summaries))
	for i, m := range summaries {
		matches[i] = response.MatchFromModel(m)
	}
	response.JSON(w, http.StatusOK, matches)
}

// GetMatch handles GET /api/v1/matches/{matchId}
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID := model.MatchID(mux.Vars(r)["matchId"])

	match, err := h.storage.GetMatch(r.Context(), matchID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchFromModel(match))
}
