package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/outplayedgg/garrison-server/internal/dependencies/clock"
	"github.com/outplayedgg/garrison-server/internal/model"
	"github.com/outplayedgg/garrison-server/internal/services/engine"
	"github.com/outplayedgg/garrison-server/internal/services/room"
)

// Sender delivers an outbound event to a single connection. Implementations
// must not block: the coordinator fans out inside its event-handling path
// and a stalled socket must not stall the room.
type Sender interface {
	Send(conn model.ConnectionID, event string, payload any)
}

// MatchRecorder persists a completed match summary. Nil disables recording.
type MatchRecorder interface {
	RecordMatch(ctx context.Context, summary model.MatchSummary) error
}

// identity is what the coordinator knows about one live connection
type identity struct {
	name      string
	room      model.RoomID
	slot      model.SlotID // 0 for spectators and connections not in a room
	spectator bool
	player    model.PlayerID // optional account attachment
}

// Coordinator is the single ingress for all inbound protocol events. It
// owns the connection-identity maps and is the only component that
// addresses connections or broadcasts to a room. Lobby mutations are
// delegated to the room Manager and gameplay commands to the room's
// engine; lock order is always coordinator, then engine.
type Coordinator struct {
	rooms    *room.Manager
	clock    clock.Clock
	sender   Sender
	recorder MatchRecorder
	logger   *slog.Logger

	engineCfg     engine.Config
	engineHooks   engine.Hooks
	countdownFrom int
	newMatchID    func() model.MatchID

	mu         sync.Mutex
	conns      map[model.ConnectionID]*identity
	engines    map[model.RoomID]*engine.Engine
	countdowns map[model.RoomID]chan struct{}
	matches    map[model.RoomID]*matchRoster
}

// DefaultCountdownSeconds is the pre-match countdown length
const DefaultCountdownSeconds = 5

// NewCoordinator creates the session coordinator. recorder may be nil.
func NewCoordinator(
	rooms *room.Manager,
	clk clock.Clock,
	sender Sender,
	engineCfg engine.Config,
	engineHooks engine.Hooks,
	recorder MatchRecorder,
	newMatchID func() model.MatchID,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		rooms:         rooms,
		clock:         clk,
		sender:        sender,
		recorder:      recorder,
		logger:        logger.With(slog.String("component", "session")),
		engineCfg:     engineCfg,
		engineHooks:   engineHooks,
		countdownFrom: DefaultCountdownSeconds,
		newMatchID:    newMatchID,
		conns:         make(map[model.ConnectionID]*identity),
		engines:       make(map[model.RoomID]*engine.Engine),
		countdowns:    make(map[model.RoomID]chan struct{}),
		matches:       make(map[model.RoomID]*matchRoster),
	}
}

// SetCountdownSeconds overrides the pre-match countdown length. Call
// before any traffic arrives; it is not synchronized.
func (c *Coordinator) SetCountdownSeconds(seconds int) {
	if seconds > 0 {
		c.countdownFrom = seconds
	}
}

// Register announces a new connection before any event arrives from it
func (c *Coordinator) Register(conn model.ConnectionID, name string, player model.PlayerID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conns[conn] = &identity{name: name, player: player}
	c.logger.Info("connection registered",
		slog.String("conn", string(conn)),
		slog.String("name", name))
}

// HandleEvent dispatches one inbound protocol event. Unknown events are
// forwarded to the room's engine as gameplay input when a match is
// running, and silently dropped otherwise: a client may race the
// match-start transition.
func (c *Coordinator) HandleEvent(conn model.ConnectionID, event string, payload json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ident, known := c.conns[conn]
	if !known {
		c.logger.Warn("event from unregistered connection",
			slog.String("conn", string(conn)),
			slog.String("event", event))
		return
	}

	switch event {
	case model.EventCreateLobby:
		c.createLobby(conn, ident, payload)
	case model.EventListLobbies:
		c.sender.Send(conn, model.EventLobbyList, c.rooms.ListLobbies())
	case model.EventJoinRoom:
		c.joinRoom(conn, ident, payload)
	case model.EventGetLobbyState:
		c.pushLobbyState(conn, ident)
	case model.EventChangeTeam:
		c.changeTeam(conn, ident, payload)
	case model.EventKickPlayer:
		c.kickPlayer(conn, ident, payload)
	case model.EventLeaveRoom:
		c.leaveRoom(conn, ident)
	case model.EventReadyStatus:
		c.setReadyStatus(conn, ident, payload)
	case model.EventStartGame:
		c.startGame(conn, ident)
	case model.EventChatMessage:
		c.relayChat(conn, ident, payload)
	default:
		c.forwardGameplay(ident, event, payload)
	}
}

// HandleDisconnect cleans up a departed connection exactly as a voluntary
// leave would
func (c *Coordinator) HandleDisconnect(conn model.ConnectionID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ident, known := c.conns[conn]
	if known && ident.room != "" {
		c.departRoom(conn, ident, false)
	}
	delete(c.conns, conn)
	c.logger.Info("connection closed", slog.String("conn", string(conn)))
}

// BroadcastSnapshot implements engine.Broadcaster, fanning the periodic
// authoritative snapshot out to every member and spectator of the room.
func (c *Coordinator) BroadcastSnapshot(roomID model.RoomID, tick uint64, snap model.Snapshot) {
	c.mu.Lock()
	recipients := c.roomConnections(roomID)
	c.mu.Unlock()

	notice := model.GameStateNotice{Tick: tick, State: snap}
	for _, conn := range recipients {
		c.sender.Send(conn, model.EventGameStateSync, notice)
	}
}

// Lobbies returns the public room directory, for the HTTP API
func (c *Coordinator) Lobbies() []model.LobbySummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms.ListLobbies()
}

// forwardGameplay routes a non-lobby event into the running engine. Called
// with the coordinator lock held.
func (c *Coordinator) forwardGameplay(ident *identity, event string, payload json.RawMessage) {
	kind := model.CommandKind(event)
	if !model.KnownCommandKind(kind) {
		c.logger.Warn("unknown event dropped", slog.String("event", event))
		return
	}
	if ident.room == "" || ident.slot == 0 {
		return
	}
	eng, ok := c.engines[ident.room]
	if !ok || !eng.Running() {
		return
	}
	eng.HandleInput(ident.slot, kind, payload)
}

// roomConnections collects every connection currently in the room,
// members and spectators alike. Called with the coordinator lock held.
func (c *Coordinator) roomConnections(roomID model.RoomID) []model.ConnectionID {
	out := make([]model.ConnectionID, 0, model.MaxSlots)
	for conn, ident := range c.conns {
		if ident.room == roomID {
			out = append(out, conn)
		}
	}
	return out
}

// connectionAtSlot finds the connection currently seated at a slot.
// Called with the coordinator lock held.
func (c *Coordinator) connectionAtSlot(roomID model.RoomID, slot model.SlotID) (model.ConnectionID, *identity) {
	for conn, ident := range c.conns {
		if ident.room == roomID && !ident.spectator && ident.slot == slot {
			return conn, ident
		}
	}
	return "", nil
}

// broadcastToRoom sends one event to every connection in the room.
// Called with the coordinator lock held.
func (c *Coordinator) broadcastToRoom(roomID model.RoomID, event string, payload any) {
	for _, conn := range c.roomConnections(roomID) {
		c.sender.Send(conn, event, payload)
	}
}

// broadcastLobbyState pushes the refreshed lobby projection to the room
func (c *Coordinator) broadcastLobbyState(roomID model.RoomID) {
	state, err := c.rooms.LobbyState(roomID)
	if err != nil {
		return
	}
	c.broadcastToRoom(roomID, model.EventLobbyState, state)
}

// sendError addresses an error to the single requesting connection,
// never broadcast
func (c *Coordinator) sendError(conn model.ConnectionID, message string) {
	c.sender.Send(conn, model.EventError, model.ErrorNotice{Message: message})
}

func (c *Coordinator) pushLobbyState(conn model.ConnectionID, ident *identity) {
	if ident.room == "" {
		c.sendError(conn, "not in a room")
		return
	}
	state, err := c.rooms.LobbyState(ident.room)
	if err != nil {
		c.sendError(conn, "room not found")
		return
	}
	c.sender.Send(conn, model.EventLobbyState, state)
}
