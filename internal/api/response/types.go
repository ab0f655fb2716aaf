package response

import (
	"time"

	"github.com/outplayedgg/garrison-server/internal/model"
	"github.com/outplayedgg/garrison-server/internal/services/auth"
)

// Player represents a player in API responses
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		IsGuest:     p.IsGuest,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Player:       PlayerFromModel(&s.Player),
		SessionToken: s.Token,
	}
}

// Lobby is one entry in the public room directory
type Lobby struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	State       string    `json:"state"`
	PlayerCount int       `json:"player_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// LobbyFromSummary converts a model.LobbySummary
func LobbyFromSummary(l model.LobbySummary) Lobby {
	return Lobby{
		ID:          string(l.ID),
		Name:        l.Name,
		State:       string(l.State),
		PlayerCount: l.PlayerCount,
		CreatedAt:   l.CreatedAt,
	}
}

// MatchResult is one slot's final line in a match response
type MatchResult struct {
	Slot      int    `json:"slot"`
	Team      int    `json:"team"`
	Name      string `json:"name"`
	KillScore int    `json:"kill_score"`
	PlayerID  string `json:"player_id,omitempty"`
}

// Match represents a completed match summary
type Match struct {
	ID       string        `json:"id"`
	RoomName string        `json:"room_name"`
	Results  []MatchResult `json:"results"`
	Duration float64       `json:"duration_seconds"`
	EndedAt  time.Time     `json:"ended_at"`
}

// MatchFromModel converts a model.MatchSummary
func MatchFromModel(m *model.MatchSummary) Match {
	results := make([]MatchResult, len(m.Results))
	for i, r := range m.Results {
		results[i] = MatchResult{
			Slot:      int(r.Slot),
			Team:      int(r.Team),
			Name:      r.Name,
			KillScore: r.KillScore,
			PlayerID:  string(r.PlayerID),
		}
	}
	return Match{
		ID:       string(m.ID),
		RoomName: m.RoomName,
		Results:  results,
		Duration: m.Duration.Seconds(),
		EndedAt:  m.EndedAt,
	}
}
