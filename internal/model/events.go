package model

import "time"

// Protocol event names. Inbound events arrive from clients over the
// transport; outbound events are emitted by the session coordinator.
const (
	// Inbound lobby events
	EventCreateLobby   = "create-lobby"
	EventListLobbies   = "list-lobbies"
	EventJoinRoom      = "join-room"
	EventGetLobbyState = "get-lobby-state"
	EventChangeTeam    = "change-team"
	EventKickPlayer    = "kick-player"
	EventLeaveRoom     = "leave-room"
	EventReadyStatus   = "ready-status"
	EventStartGame     = "start-game"
	EventChatMessage   = "chat-message"

	// Outbound events
	EventLobbyCreated    = "lobby-created"
	EventLobbyList       = "lobby-list"
	EventLobbyState      = "lobby-state"
	EventKicked          = "kicked"
	EventIdentityChanged = "identity-changed"
	EventConnected       = "connected"
	EventGameStateSync   = "game-state"
	EventPlayerJoined    = "player-joined"
	EventPlayerLeft      = "player-left"
	EventReadyUpdate     = "ready-update"
	EventCountdown       = "countdown"
	EventGameStart       = "game-start"
	EventUnpause         = "unpause"
	EventError           = "error"
)

// Inbound payloads

// CreateLobbyRequest asks for a new room with the sender as host
type CreateLobbyRequest struct {
	Name       string `json:"name"`
	PlayerName string `json:"playerName"`
}

// JoinRoomRequest asks to join an existing room
type JoinRoomRequest struct {
	RoomID        RoomID `json:"roomId"`
	PlayerName    string `json:"playerName"`
	Spectator     bool   `json:"spectator"`
	RequestedSlot SlotID `json:"requestedSlot,omitempty"` // 0 = first free
}

// ChangeTeamRequest moves a member to another team. Slot names the member
// being moved (only the host may move someone other than themselves);
// TargetSlot optionally names the destination seat within the team.
type ChangeTeamRequest struct {
	Slot       SlotID `json:"slot"`
	Team       TeamID `json:"team"`
	TargetSlot SlotID `json:"targetSlot,omitempty"`
}

// KickPlayerRequest evicts a member; host only
type KickPlayerRequest struct {
	Slot SlotID `json:"slot"`
}

// ReadyStatusRequest sets the sender's ready flag
type ReadyStatusRequest struct {
	Ready bool `json:"ready"`
}

// ChatRequest relays a chat line to the room or the sender's team
type ChatRequest struct {
	Channel string `json:"channel"` // "all" or "team"
	Text    string `json:"text"`
}

// Outbound payloads

// ConnectedNotice is the personalized acknowledgment sent to a joiner
type ConnectedNotice struct {
	RoomID    RoomID    `json:"roomId"`
	Slot      SlotID    `json:"slot,omitempty"` // 0 for spectators
	Team      TeamID    `json:"team,omitempty"`
	Spectator bool      `json:"spectator"`
	State     RoomState `json:"state"`
}

// IdentityChangedNotice informs a connection its slot identity moved.
// Clients must adopt the new slot before acting again: commands sent
// under the old identity would be attributed to whoever holds that slot
// now.
type IdentityChangedNotice struct {
	OldSlot SlotID `json:"oldSlot"`
	NewSlot SlotID `json:"newSlot"`
	Team    TeamID `json:"team"`
}

// PlayerJoinedNotice is broadcast to a room when a member joins
type PlayerJoinedNotice struct {
	Slot      SlotID `json:"slot,omitempty"`
	Name      string `json:"name"`
	Spectator bool   `json:"spectator"`
}

// PlayerLeftNotice is broadcast to a room when a member departs
type PlayerLeftNotice struct {
	Slot    SlotID `json:"slot,omitempty"`
	Name    string `json:"name"`
	NewHost SlotID `json:"newHost,omitempty"`
	Kicked  bool   `json:"kicked,omitempty"`
}

// ReadyUpdateNotice is broadcast when a member toggles ready
type ReadyUpdateNotice struct {
	Slot  SlotID `json:"slot"`
	Ready bool   `json:"ready"`
}

// CountdownNotice carries the remaining seconds before match start
type CountdownNotice struct {
	Seconds int `json:"seconds"`
}

// GameStateNotice carries a periodic authoritative snapshot
type GameStateNotice struct {
	Tick  uint64   `json:"tick"`
	State Snapshot `json:"state"`
}

// ChatNotice is a relayed chat line tagged with its sender
type ChatNotice struct {
	Slot    SlotID    `json:"slot"`
	Name    string    `json:"name"`
	Channel string    `json:"channel"`
	Text    string    `json:"text"`
	SentAt  time.Time `json:"sentAt"`
}

// ErrorNotice is addressed to the single requesting connection only
type ErrorNotice struct {
	Message string `json:"message"`
}
