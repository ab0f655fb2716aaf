package model

// SlotID identifies a player's seat within a room. Valid slots are 1-8.
// Slot ids are also the ownership identifiers attached to entities and
// commands, so re-keying a slot means re-attributing everything that
// references it.
type SlotID int

// TeamID identifies one of the four fixed teams. Valid teams are 1-4.
type TeamID int

// RoomID is a human-readable identifier for joining rooms
type RoomID string

// ConnectionID uniquely identifies a transport connection for its lifetime
type ConnectionID string

// EntityID uniquely identifies a game object within one match
type EntityID uint64

const (
	// MaxSlots is the number of seats in a room
	MaxSlots = 8
	// MaxTeams is the number of teams; each team owns two adjacent slots
	MaxTeams = 4
	// TeamCapacity is the number of slots per team
	TeamCapacity = 2
)

// Valid reports whether the slot id is in the allowed range
func (s SlotID) Valid() bool {
	return s >= 1 && s <= MaxSlots
}

// Valid reports whether the team id is in the allowed range
func (t TeamID) Valid() bool {
	return t >= 1 && t <= MaxTeams
}

// DefaultTeam returns the team a slot belongs to by default: team t owns
// slots {2t-1, 2t}
func (s SlotID) DefaultTeam() TeamID {
	return TeamID((int(s) + 1) / 2)
}

// Slots returns the two slot ids owned by this team
func (t TeamID) Slots() [TeamCapacity]SlotID {
	first := SlotID(2*int(t) - 1)
	return [TeamCapacity]SlotID{first, first + 1}
}

// Owns reports whether the slot belongs to this team's fixed slot pair
func (t TeamID) Owns(s SlotID) bool {
	pair := t.Slots()
	return s == pair[0] || s == pair[1]
}
