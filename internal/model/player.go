package model

import "time"

// PlayerID uniquely identifies an account-level player, independent of any
// room seat. Seats are SlotIDs; a PlayerID survives across rooms and
// sessions.
type PlayerID string

// Player represents a connected participant's durable identity
type Player struct {
	ID          PlayerID
	DisplayName string
	IsGuest     bool // true for unregistered players
	CreatedAt   time.Time
}

// RegisteredPlayer extends Player with authentication data.
// Stored separately so the password hash never travels with session state.
type RegisteredPlayer struct {
	PlayerID     PlayerID
	Username     string // login username (immutable)
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
