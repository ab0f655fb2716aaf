package model

import "time"

// MatchID uniquely identifies a completed match record
type MatchID string

// MatchPlayerResult is one slot's final line in a match summary
type MatchPlayerResult struct {
	Slot      SlotID `json:"slot"`
	Team      TeamID `json:"team"`
	Name      string `json:"name"`
	KillScore int    `json:"killScore"`
	PlayerID  PlayerID `json:"playerId,omitempty"` // set when the seat had an account attached
}

// MatchSummary is the durable record written when a match ends. Live
// room and match state is never persisted; only this result line is.
type MatchSummary struct {
	ID       MatchID             `json:"id"`
	RoomName string              `json:"roomName"`
	Results  []MatchPlayerResult `json:"results"`
	Duration time.Duration       `json:"duration"`
	EndedAt  time.Time           `json:"endedAt"`
}
