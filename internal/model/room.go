package model

import "time"

// RoomState represents the lifecycle phase of a room
type RoomState string

const (
	RoomStateWaiting   RoomState = "waiting"   // Lobby open, no match running
	RoomStateCountdown RoomState = "countdown" // Start requested, counting down
	RoomStatePlaying   RoomState = "playing"   // Match in progress
	RoomStateFinished  RoomState = "finished"  // Match over, lobby still open
)

// ValidRoomState reports whether s is one of the four defined lifecycle values
func ValidRoomState(s RoomState) bool {
	switch s {
	case RoomStateWaiting, RoomStateCountdown, RoomStatePlaying, RoomStateFinished:
		return true
	}
	return false
}

// Room is one lobby/match instance. All slot-keyed maps are keyed by the
// wire-visible player id (the slot), which is what entity ownership and
// command attribution are checked against.
type Room struct {
	ID       RoomID
	Name     string
	HostSlot SlotID
	State    RoomState

	Players    map[SlotID]ConnectionID
	Teams      map[SlotID]TeamID
	Names      map[SlotID]string
	Ready      map[SlotID]bool
	Spectators map[ConnectionID]bool

	CountdownRemaining int
	CreatedAt          time.Time
}

// IsEmpty reports whether the room has no players and no spectators
func (r *Room) IsEmpty() bool {
	return len(r.Players) == 0 && len(r.Spectators) == 0
}

// SlotForConnection returns the slot a connection occupies, or 0 if the
// connection is not seated (spectators and strangers have no slot)
func (r *Room) SlotForConnection(conn ConnectionID) SlotID {
	for slot, c := range r.Players {
		if c == conn {
			return slot
		}
	}
	return 0
}

// FreeSlot returns the lowest unoccupied slot id, or 0 if the room is full
func (r *Room) FreeSlot() SlotID {
	for s := SlotID(1); s <= MaxSlots; s++ {
		if _, taken := r.Players[s]; !taken {
			return s
		}
	}
	return 0
}

// FreeSlotInTeam returns the lowest unoccupied slot in the team's fixed
// pair, or 0 if both are taken
func (r *Room) FreeSlotInTeam(team TeamID) SlotID {
	for _, s := range team.Slots() {
		if _, taken := r.Players[s]; !taken {
			return s
		}
	}
	return 0
}

// LobbyPlayer is one row of the lobby projection
type LobbyPlayer struct {
	Slot   SlotID `json:"slot"`
	Name   string `json:"name"`
	Team   TeamID `json:"team"`
	Ready  bool   `json:"ready"`
	IsHost bool   `json:"isHost"`
}

// LobbyState is the read-only projection of a room used to render the
// pre-match UI. It is safe to serialize and hand to any observer.
type LobbyState struct {
	ID                 RoomID        `json:"id"`
	Name               string        `json:"name"`
	HostSlot           SlotID        `json:"hostSlot"`
	State              RoomState     `json:"state"`
	Players            []LobbyPlayer `json:"players"`
	SpectatorCount     int           `json:"spectatorCount"`
	CountdownRemaining int           `json:"countdownRemaining"`
}

// LobbySummary is the directory row returned by lobby listing
type LobbySummary struct {
	ID          RoomID    `json:"id"`
	Name        string    `json:"name"`
	State       RoomState `json:"state"`
	PlayerCount int       `json:"playerCount"`
	CreatedAt   time.Time `json:"createdAt"`
}
