package session

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/outplayedgg/garrison-server/internal/model"
	"github.com/outplayedgg/garrison-server/internal/services/room"
)

// Chat message length bounds
const (
	MinChatLength = 1
	MaxChatLength = 200
)

// createLobby allocates a room with the sender as host. The host slot is
// the first slot unused across all rooms: slot ids are a process-wide
// scarce resource on this path only, so two freshly created rooms never
// collide on host identity.
func (c *Coordinator) createLobby(conn model.ConnectionID, ident *identity, payload json.RawMessage) {
	var req model.CreateLobbyRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		c.sendError(conn, "malformed request")
		return
	}
	if ident.room != "" {
		c.sendError(conn, "already in a room")
		return
	}
	if req.PlayerName != "" {
		ident.name = req.PlayerName
	}

	hostSlot := model.SlotID(0)
	for slot := model.SlotID(1); slot <= model.MaxSlots; slot++ {
		if !c.rooms.SlotInUseGlobally(slot) {
			hostSlot = slot
			break
		}
	}
	if hostSlot == 0 {
		c.sendError(conn, "no available slot")
		return
	}

	r, err := c.rooms.CreateRoom(req.Name, hostSlot)
	if err != nil {
		c.sendError(conn, "could not create room")
		return
	}
	if err := c.rooms.AddPlayer(r.ID, hostSlot, conn, ident.name); err != nil {
		c.sendError(conn, "could not join room")
		return
	}

	ident.room = r.ID
	ident.slot = hostSlot
	ident.spectator = false

	state, _ := c.rooms.LobbyState(r.ID)
	c.sender.Send(conn, model.EventLobbyCreated, state)
	c.sender.Send(conn, model.EventConnected, model.ConnectedNotice{
		RoomID: r.ID, Slot: hostSlot, Team: hostSlot.DefaultTeam(), State: r.State,
	})

	c.logger.Info("lobby created",
		slog.String("room", string(r.ID)),
		slog.Int("host_slot", int(hostSlot)))
}

// joinRoom seats a player or adds a spectator. Joiners of an in-progress
// match immediately receive the current snapshot so they are not blind
// until the next broadcast.
func (c *Coordinator) joinRoom(conn model.ConnectionID, ident *identity, payload json.RawMessage) {
	var req model.JoinRoomRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		c.sendError(conn, "malformed request")
		return
	}
	if ident.room != "" {
		c.sendError(conn, "already in a room")
		return
	}
	r, err := c.rooms.Room(req.RoomID)
	if err != nil {
		c.sendError(conn, "room not found")
		return
	}
	if req.PlayerName != "" {
		ident.name = req.PlayerName
	}

	if req.Spectator {
		if err := c.rooms.AddSpectator(r.ID, conn); err != nil {
			c.sendError(conn, "could not join room")
			return
		}
		ident.room = r.ID
		ident.slot = 0
		ident.spectator = true

		c.sender.Send(conn, model.EventConnected, model.ConnectedNotice{
			RoomID: r.ID, Spectator: true, State: r.State,
		})
		c.broadcastToOthers(conn, r.ID, model.EventPlayerJoined, model.PlayerJoinedNotice{
			Name: ident.name, Spectator: true,
		})
		c.broadcastLobbyState(r.ID)
		c.pushLateJoinSnapshot(conn, r.ID)
		return
	}

	slot := req.RequestedSlot
	if slot == 0 {
		slot = r.FreeSlot()
		if slot == 0 {
			c.sendError(conn, "room full")
			return
		}
	}
	if err := c.rooms.AddPlayer(r.ID, slot, conn, ident.name); err != nil {
		switch {
		case errors.Is(err, model.ErrSlotTaken):
			c.sendError(conn, "slot taken")
		case errors.Is(err, model.ErrRoomFull):
			c.sendError(conn, "room full")
		default:
			c.sendError(conn, "could not join room")
		}
		return
	}

	ident.room = r.ID
	ident.slot = slot
	ident.spectator = false

	c.sender.Send(conn, model.EventConnected, model.ConnectedNotice{
		RoomID: r.ID, Slot: slot, Team: r.Teams[slot], State: r.State,
	})
	c.broadcastToOthers(conn, r.ID, model.EventPlayerJoined, model.PlayerJoinedNotice{
		Slot: slot, Name: ident.name,
	})
	c.broadcastLobbyState(r.ID)
	c.pushLateJoinSnapshot(conn, r.ID)

	c.logger.Info("player joined",
		slog.String("room", string(r.ID)),
		slog.Int("slot", int(slot)))
}

// changeTeam moves a member between teams. Members may always move
// themselves; moving another member requires the requester to be host.
// A re-key or swap migrates the connection-identity maps and notifies the
// affected connections before the lobby-state broadcast, so no connection
// acts under a stale slot id.
func (c *Coordinator) changeTeam(conn model.ConnectionID, ident *identity, payload json.RawMessage) {
	var req model.ChangeTeamRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		c.sendError(conn, "malformed request")
		return
	}
	if ident.room == "" || ident.spectator {
		c.sendError(conn, "not in a room")
		return
	}
	r, err := c.rooms.Room(ident.room)
	if err != nil {
		c.sendError(conn, "room not found")
		return
	}

	moving := req.Slot
	if moving == 0 {
		moving = ident.slot
	}
	if moving != ident.slot && r.HostSlot != ident.slot {
		c.sendError(conn, "only the host may move other players")
		return
	}

	change, err := c.rooms.SetPlayerTeam(ident.room, moving, req.Team, req.TargetSlot)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrTeamFull):
			c.sendError(conn, "team full")
		case errors.Is(err, model.ErrInvalidTeam):
			c.sendError(conn, "invalid team")
		default:
			c.sendError(conn, "could not change team")
		}
		return
	}

	if change.Moved() {
		// The member now seated at NewSlot is the mover; on a swap the
		// member at OldSlot is the one they traded with. Both identity
		// records migrate, and both connections hear about it first.
		movedConn, movedIdent := c.connectionBySeat(r, change.NewSlot)
		if movedIdent != nil {
			movedIdent.slot = change.NewSlot
			c.sender.Send(movedConn, model.EventIdentityChanged, model.IdentityChangedNotice{
				OldSlot: change.OldSlot, NewSlot: change.NewSlot, Team: change.Team,
			})
		}
		if change.Swapped {
			otherConn := r.Players[change.OldSlot]
			if otherIdent, ok := c.conns[otherConn]; ok {
				otherIdent.slot = change.OldSlot
				c.sender.Send(otherConn, model.EventIdentityChanged, model.IdentityChangedNotice{
					OldSlot: change.NewSlot, NewSlot: change.OldSlot, Team: r.Teams[change.OldSlot],
				})
			}
		}
	}

	c.broadcastLobbyState(ident.room)
}

// kickPlayer evicts a member; host only. The evicted connection gets a
// dedicated notice and is cleaned up exactly as a voluntary leave.
func (c *Coordinator) kickPlayer(conn model.ConnectionID, ident *identity, payload json.RawMessage) {
	var req model.KickPlayerRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		c.sendError(conn, "malformed request")
		return
	}
	if ident.room == "" {
		c.sendError(conn, "not in a room")
		return
	}
	r, err := c.rooms.Room(ident.room)
	if err != nil {
		c.sendError(conn, "room not found")
		return
	}
	if r.HostSlot != ident.slot {
		c.sendError(conn, "only the host may kick players")
		return
	}
	if req.Slot == ident.slot {
		c.sendError(conn, "cannot kick yourself")
		return
	}

	target, targetIdent := c.connectionAtSlot(ident.room, req.Slot)
	if targetIdent == nil {
		c.sendError(conn, "no player at that slot")
		return
	}

	dep, err := c.rooms.RemovePlayer(ident.room, req.Slot)
	if err != nil {
		c.sendError(conn, "could not kick player")
		return
	}

	roomID := ident.room
	targetIdent.room = ""
	targetIdent.slot = 0
	targetIdent.spectator = false

	c.sender.Send(target, model.EventKicked, model.PlayerLeftNotice{
		Slot: dep.Slot, Name: dep.Name, Kicked: true,
	})
	c.broadcastToRoom(roomID, model.EventPlayerLeft, model.PlayerLeftNotice{
		Slot: dep.Slot, Name: dep.Name, NewHost: dep.NewHost, Kicked: true,
	})
	c.finishDeparture(roomID, dep)
}

// leaveRoom removes the sender from their room
func (c *Coordinator) leaveRoom(conn model.ConnectionID, ident *identity) {
	if ident.room == "" {
		c.sendError(conn, "not in a room")
		return
	}
	c.departRoom(conn, ident, true)
}

// departRoom is the shared voluntary-leave/disconnect path. Called with
// the coordinator lock held.
func (c *Coordinator) departRoom(conn model.ConnectionID, ident *identity, notifyLeaver bool) {
	roomID := ident.room

	var dep room.Departure
	var err error
	if ident.spectator {
		_, dep, err = c.rooms.RemoveByConnection(conn)
	} else {
		dep, err = c.rooms.RemovePlayer(roomID, ident.slot)
	}

	name := ident.name
	ident.room = ""
	ident.slot = 0
	ident.spectator = false
	if err != nil {
		return
	}

	c.broadcastToRoom(roomID, model.EventPlayerLeft, model.PlayerLeftNotice{
		Slot: dep.Slot, Name: name, NewHost: dep.NewHost,
	})
	c.finishDeparture(roomID, dep)

	c.logger.Info("player left",
		slog.String("room", string(roomID)),
		slog.Int("slot", int(dep.Slot)))
}

// finishDeparture broadcasts the refreshed lobby state, or tears the room
// down if the departure emptied it. Called with the coordinator lock held.
func (c *Coordinator) finishDeparture(roomID model.RoomID, dep room.Departure) {
	if dep.RoomDeleted {
		c.teardownRoom(roomID)
		return
	}
	c.broadcastLobbyState(roomID)
}

// setReadyStatus toggles the sender's ready flag
func (c *Coordinator) setReadyStatus(conn model.ConnectionID, ident *identity, payload json.RawMessage) {
	var req model.ReadyStatusRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		c.sendError(conn, "malformed request")
		return
	}
	if ident.room == "" || ident.spectator {
		c.sendError(conn, "not in a room")
		return
	}
	if err := c.rooms.SetReadyStatus(ident.room, ident.slot, req.Ready); err != nil {
		c.sendError(conn, "could not set ready status")
		return
	}
	c.broadcastToRoom(ident.room, model.EventReadyUpdate, model.ReadyUpdateNotice{
		Slot: ident.slot, Ready: req.Ready,
	})
	c.broadcastLobbyState(ident.room)
}

// relayChat validates and fans out a chat line. The team channel's
// recipient set is recomputed from the live team map on every message:
// a cached copy would go stale under team changes.
func (c *Coordinator) relayChat(conn model.ConnectionID, ident *identity, payload json.RawMessage) {
	var req model.ChatRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		c.sendError(conn, "malformed request")
		return
	}
	if ident.room == "" {
		c.sendError(conn, "not in a room")
		return
	}
	text := strings.TrimSpace(req.Text)
	if n := utf8.RuneCountInString(text); n < MinChatLength || n > MaxChatLength {
		c.sendError(conn, "message must be 1-200 characters")
		return
	}

	notice := model.ChatNotice{
		Slot:    ident.slot,
		Name:    ident.name,
		Channel: req.Channel,
		Text:    text,
		SentAt:  c.clock.Now(),
	}

	if req.Channel == "team" {
		if ident.spectator {
			c.sendError(conn, "spectators have no team")
			return
		}
		r, err := c.rooms.Room(ident.room)
		if err != nil {
			return
		}
		team := r.Teams[ident.slot]
		for recipient, recipientIdent := range c.conns {
			if recipientIdent.room != ident.room || recipientIdent.spectator {
				continue
			}
			if r.Teams[recipientIdent.slot] == team {
				c.sender.Send(recipient, model.EventChatMessage, notice)
			}
		}
		return
	}

	c.broadcastToRoom(ident.room, model.EventChatMessage, notice)
}

// broadcastToOthers sends to every room connection except one
func (c *Coordinator) broadcastToOthers(except model.ConnectionID, roomID model.RoomID, event string, payload any) {
	for _, conn := range c.roomConnections(roomID) {
		if conn != except {
			c.sender.Send(conn, event, payload)
		}
	}
}

// pushLateJoinSnapshot sends the current match snapshot to a joiner when
// the room is already playing
func (c *Coordinator) pushLateJoinSnapshot(conn model.ConnectionID, roomID model.RoomID) {
	eng, ok := c.engines[roomID]
	if !ok || !eng.Running() {
		return
	}
	tick, snap := eng.Snapshot()
	c.sender.Send(conn, model.EventGameStateSync, model.GameStateNotice{Tick: tick, State: snap})
}

// connectionBySeat resolves a seat through the room's authoritative
// player map rather than the identity map, which is the one being
// migrated after a re-key. Called with the coordinator lock held.
func (c *Coordinator) connectionBySeat(r *model.Room, slot model.SlotID) (model.ConnectionID, *identity) {
	conn, seated := r.Players[slot]
	if !seated {
		return "", nil
	}
	ident, found := c.conns[conn]
	if !found {
		return "", nil
	}
	return conn, ident
}
