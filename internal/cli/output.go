package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case AuthResult:
		o.printAuthResult(v)
	case []Lobby:
		o.printLobbies(v)
	case []Match:
		o.printMatches(v)
	case Match:
		o.printMatch(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// AuthResult combines player and token
type AuthResult struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// Lobby is one row of the public room directory
type Lobby struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	State       string    `json:"state"`
	PlayerCount int       `json:"player_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// MatchResult is one slot's line in a match summary
type MatchResult struct {
	Slot      int    `json:"slot"`
	Team      int    `json:"team"`
	Name      string `json:"name"`
	KillScore int    `json:"kill_score"`
	PlayerID  string `json:"player_id,omitempty"`
}

// Match is a completed match summary
type Match struct {
	ID       string        `json:"id"`
	RoomName string        `json:"room_name"`
	Results  []MatchResult `json:"results"`
	Duration float64       `json:"duration_seconds"`
	EndedAt  time.Time     `json:"ended_at"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printPlayer(p Player) {
	guestStr := "no"
	if p.IsGuest {
		guestStr = "yes"
	}
	fmt.Printf("Player: %s (%s)\n", p.DisplayName, p.ID)
	fmt.Printf("Guest: %s\n", guestStr)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printPlayer(a.Player)
	fmt.Printf("Token: %s\n", a.SessionToken)
}

func (o *Output) printLobbies(lobbies []Lobby) {
	if len(lobbies) == 0 {
		fmt.Println("No open lobbies")
		return
	}
	for _, l := range lobbies {
		fmt.Printf("%s  %-20s %-10s %d/8 players\n", l.ID, l.Name, l.State, l.PlayerCount)
	}
}

func (o *Output) printMatches(matches []Match) {
	if len(matches) == 0 {
		fmt.Println("No recorded matches")
		return
	}
	for _, m := range matches {
		fmt.Printf("%s  %-20s %3.0fs  %s\n", m.ID, m.RoomName, m.Duration, m.EndedAt.Format("2006-01-02 15:04:05"))
	}
}

func (o *Output) printMatch(m Match) {
	fmt.Printf("Match: %s\n", m.ID)
	fmt.Printf("Room: %s\n", m.RoomName)
	fmt.Printf("Duration: %.0fs\n", m.Duration)
	fmt.Printf("Ended: %s\n", m.EndedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Results (%d):\n", len(m.Results))
	for _, r := range m.Results {
		account := ""
		if r.PlayerID != "" {
			account = fmt.Sprintf(" (%s)", r.PlayerID)
		}
		fmt.Printf("  slot %d team %d  %-16s %d kills%s\n", r.Slot, r.Team, r.Name, r.KillScore, account)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
