package room

import (
	"log/slog"
	"sort"

	"github.com/outplayedgg/garrison-server/internal/dependencies/clock"
	"github.com/outplayedgg/garrison-server/internal/dependencies/random"
	"github.com/outplayedgg/garrison-server/internal/model"
)

const (
	// RoomIDLength is the length of generated room ids
	RoomIDLength = 6
	// RoomIDAlphabet is the characters used in room ids (avoid confusing chars)
	RoomIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Manager is the source of truth for lobby topology and room lifecycle.
// It is purely in-memory and knows nothing about transports or engines;
// callers identify members by slot and connection ids only.
type Manager struct {
	clock  clock.Clock
	random random.Random
	logger *slog.Logger

	rooms map[model.RoomID]*model.Room
}

// NewManager creates a new room Manager
func NewManager(clock clock.Clock, random random.Random, logger *slog.Logger) *Manager {
	return &Manager{
		clock:  clock,
		random: random,
		logger: logger.With(slog.String("component", "room")),
		rooms:  make(map[model.RoomID]*model.Room),
	}
}

// TeamChange reports the outcome of SetPlayerTeam. When Swapped is true
// the occupant of NewSlot moved to OldSlot, carrying their connection,
// name and ready flag with them.
type TeamChange struct {
	OldSlot model.SlotID
	NewSlot model.SlotID
	Team    model.TeamID
	Swapped bool
}

// Moved reports whether the change re-keyed the mover to a new slot
func (c TeamChange) Moved() bool {
	return c.OldSlot != c.NewSlot
}

// Departure reports the outcome of removing a member
type Departure struct {
	Slot        model.SlotID // 0 for spectators
	Name        string
	WasHost     bool
	NewHost     model.SlotID // 0 if host unchanged or room destroyed
	RoomDeleted bool
}

// CreateRoom allocates a fresh room in the waiting state with the given
// host slot reserved but not yet occupied
func (m *Manager) CreateRoom(name string, hostSlot model.SlotID) (*model.Room, error) {
	if !hostSlot.Valid() {
		return nil, model.ErrInvalidSlot
	}

	var id model.RoomID
	for {
		id = model.RoomID(m.random.String(RoomIDLength, RoomIDAlphabet))
		if _, exists := m.rooms[id]; !exists {
			break
		}
	}

	r := &model.Room{
		ID:         id,
		Name:       name,
		HostSlot:   hostSlot,
		State:      model.RoomStateWaiting,
		Players:    make(map[model.SlotID]model.ConnectionID),
		Teams:      make(map[model.SlotID]model.TeamID),
		Names:      make(map[model.SlotID]string),
		Ready:      make(map[model.SlotID]bool),
		Spectators: make(map[model.ConnectionID]bool),
		CreatedAt:  m.clock.Now(),
	}
	m.rooms[id] = r

	m.logger.Info("room created",
		slog.String("room", string(id)),
		slog.Int("host_slot", int(hostSlot)))
	return r, nil
}

// Room returns the live room, or an error if the id is unknown. The
// returned pointer is only safe to touch under the owner's serialization
// discipline (one goroutine per room's control flow).
func (m *Manager) Room(id model.RoomID) (*model.Room, error) {
	r, ok := m.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return r, nil
}

// AddPlayer seats a connection at the given slot. The team is always the
// slot's fixed pair team, keeping team membership and seat assignment
// consistent by construction.
func (m *Manager) AddPlayer(id model.RoomID, slot model.SlotID, conn model.ConnectionID, name string) error {
	r, ok := m.rooms[id]
	if !ok {
		return model.ErrRoomNotFound
	}
	if !slot.Valid() {
		return model.ErrInvalidSlot
	}
	if len(r.Players) >= model.MaxSlots {
		return model.ErrRoomFull
	}
	if _, taken := r.Players[slot]; taken {
		return model.ErrSlotTaken
	}

	r.Players[slot] = conn
	r.Teams[slot] = slot.DefaultTeam()
	r.Names[slot] = name
	r.Ready[slot] = false
	return nil
}

// AddSpectator adds a connection to the room's spectator set
func (m *Manager) AddSpectator(id model.RoomID, conn model.ConnectionID) error {
	r, ok := m.rooms[id]
	if !ok {
		return model.ErrRoomNotFound
	}
	r.Spectators[conn] = true
	return nil
}

// RemovePlayer removes a seated member. If the departing member was host,
// the host moves to the lowest remaining slot. Empty rooms are destroyed.
func (m *Manager) RemovePlayer(id model.RoomID, slot model.SlotID) (Departure, error) {
	r, ok := m.rooms[id]
	if !ok {
		return Departure{}, model.ErrRoomNotFound
	}
	if _, seated := r.Players[slot]; !seated {
		return Departure{}, model.ErrSlotNotFound
	}

	dep := Departure{
		Slot:    slot,
		Name:    r.Names[slot],
		WasHost: r.HostSlot == slot,
	}

	delete(r.Players, slot)
	delete(r.Teams, slot)
	delete(r.Names, slot)
	delete(r.Ready, slot)

	if dep.WasHost && len(r.Players) > 0 {
		dep.NewHost = lowestSlot(r.Players)
		r.HostSlot = dep.NewHost
	}

	dep.RoomDeleted = m.CleanupEmptyRooms() > 0 && !m.exists(id)
	return dep, nil
}

// RemoveByConnection locates the room membership for a connection (seat or
// spectator slot) and removes it. Returns the room id the connection was
// in alongside the departure details.
func (m *Manager) RemoveByConnection(conn model.ConnectionID) (model.RoomID, Departure, error) {
	for id, r := range m.rooms {
		if slot := r.SlotForConnection(conn); slot != 0 {
			dep, err := m.RemovePlayer(id, slot)
			return id, dep, err
		}
		if r.Spectators[conn] {
			delete(r.Spectators, conn)
			dep := Departure{}
			dep.RoomDeleted = m.CleanupEmptyRooms() > 0 && !m.exists(id)
			return id, dep, nil
		}
	}
	return "", Departure{}, model.ErrNotInRoom
}

// SetPlayerTeam places a member on a new team. With an explicit occupied
// target slot the two members trade identities completely; with a free
// target (or none) the mover is re-keyed to a free slot in the team's
// pair. A mover already seated in the destination pair keeps their seat.
func (m *Manager) SetPlayerTeam(id model.RoomID, slot model.SlotID, team model.TeamID, targetSlot model.SlotID) (TeamChange, error) {
	r, ok := m.rooms[id]
	if !ok {
		return TeamChange{}, model.ErrRoomNotFound
	}
	if !team.Valid() {
		return TeamChange{}, model.ErrInvalidTeam
	}
	if _, seated := r.Players[slot]; !seated {
		return TeamChange{}, model.ErrSlotNotFound
	}

	change := TeamChange{OldSlot: slot, NewSlot: slot, Team: team}

	// Pick the destination seat
	dest := targetSlot
	if dest != 0 {
		if !team.Owns(dest) {
			return TeamChange{}, model.ErrInvalidTeam
		}
	} else if team.Owns(slot) {
		dest = slot
	} else {
		dest = r.FreeSlotInTeam(team)
		if dest == 0 {
			return TeamChange{}, model.ErrTeamFull
		}
	}

	if dest == slot {
		// Already correctly keyed; only the label changes
		r.Teams[slot] = team
		return change, nil
	}

	change.NewSlot = dest

	if otherConn, occupied := r.Players[dest]; occupied {
		// Full identity swap: both seats exchange connection, name and
		// ready flag, and each adopts the other's team label. Slot id is
		// the wire-visible player id, so half-swapping would misattribute
		// entity ownership.
		change.Swapped = true
		r.Players[slot], r.Players[dest] = otherConn, r.Players[slot]
		r.Names[slot], r.Names[dest] = r.Names[dest], r.Names[slot]
		r.Ready[slot], r.Ready[dest] = r.Ready[dest], r.Ready[slot]
		// Each seat keeps its pair team: the mover adopts the requested
		// team and the swapped-in member adopts the mover's old label
		r.Teams[dest] = team

		if r.HostSlot == slot {
			r.HostSlot = dest
		} else if r.HostSlot == dest {
			r.HostSlot = slot
		}
		return change, nil
	}

	// Re-key the mover to the free seat
	r.Players[dest] = r.Players[slot]
	r.Names[dest] = r.Names[slot]
	r.Ready[dest] = r.Ready[slot]
	r.Teams[dest] = team
	delete(r.Players, slot)
	delete(r.Names, slot)
	delete(r.Ready, slot)
	delete(r.Teams, slot)

	if r.HostSlot == slot {
		r.HostSlot = dest
	}
	return change, nil
}

// SetReadyStatus flags a seated member as ready or not
func (m *Manager) SetReadyStatus(id model.RoomID, slot model.SlotID, ready bool) error {
	r, ok := m.rooms[id]
	if !ok {
		return model.ErrRoomNotFound
	}
	if _, seated := r.Players[slot]; !seated {
		return model.ErrSlotNotFound
	}
	r.Ready[slot] = ready
	return nil
}

// AllReady reports whether every seated member is flagged ready
func (m *Manager) AllReady(id model.RoomID) (bool, error) {
	r, ok := m.rooms[id]
	if !ok {
		return false, model.ErrRoomNotFound
	}
	for slot := range r.Players {
		if !r.Ready[slot] {
			return false, nil
		}
	}
	return true, nil
}

// SetRoomState moves the room to a new lifecycle state, guarded to the
// four defined values
func (m *Manager) SetRoomState(id model.RoomID, state model.RoomState) error {
	r, ok := m.rooms[id]
	if !ok {
		return model.ErrRoomNotFound
	}
	if !model.ValidRoomState(state) {
		return model.ErrInvalidState
	}
	r.State = state
	return nil
}

// SetCountdown records the remaining countdown seconds for projections
func (m *Manager) SetCountdown(id model.RoomID, seconds int) error {
	r, ok := m.rooms[id]
	if !ok {
		return model.ErrRoomNotFound
	}
	r.CountdownRemaining = seconds
	return nil
}

// LobbyState builds the read-only pre-match projection of a room, with
// players ordered by slot
func (m *Manager) LobbyState(id model.RoomID) (*model.LobbyState, error) {
	r, ok := m.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}

	players := make([]model.LobbyPlayer, 0, len(r.Players))
	for slot := range r.Players {
		players = append(players, model.LobbyPlayer{
			Slot:   slot,
			Name:   r.Names[slot],
			Team:   r.Teams[slot],
			Ready:  r.Ready[slot],
			IsHost: r.HostSlot == slot,
		})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Slot < players[j].Slot })

	return &model.LobbyState{
		ID:                 r.ID,
		Name:               r.Name,
		HostSlot:           r.HostSlot,
		State:              r.State,
		Players:            players,
		SpectatorCount:     len(r.Spectators),
		CountdownRemaining: r.CountdownRemaining,
	}, nil
}

// ListLobbies returns a directory of all rooms, newest first
func (m *Manager) ListLobbies() []model.LobbySummary {
	out := make([]model.LobbySummary, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, model.LobbySummary{
			ID:          r.ID,
			Name:        r.Name,
			State:       r.State,
			PlayerCount: len(r.Players),
			CreatedAt:   r.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// SlotInUseGlobally reports whether any room currently seats the slot.
// The lobby-creation path treats slots as scarce across all rooms when
// picking a host id, so two freshly created rooms never collide on host
// identity.
func (m *Manager) SlotInUseGlobally(slot model.SlotID) bool {
	for _, r := range m.rooms {
		if _, taken := r.Players[slot]; taken {
			return true
		}
		if r.HostSlot == slot && len(r.Players) == 0 {
			// Reserved for a host who has not finished joining yet
			return true
		}
	}
	return false
}

// CleanupEmptyRooms destroys rooms with no players and no spectators and
// returns how many were removed
func (m *Manager) CleanupEmptyRooms() int {
	removed := 0
	for id, r := range m.rooms {
		if r.IsEmpty() {
			delete(m.rooms, id)
			removed++
			m.logger.Info("empty room cleaned up", slog.String("room", string(id)))
		}
	}
	return removed
}

func (m *Manager) exists(id model.RoomID) bool {
	_, ok := m.rooms[id]
	return ok
}

func lowestSlot(players map[model.SlotID]model.ConnectionID) model.SlotID {
	low := model.SlotID(0)
	for slot := range players {
		if low == 0 || slot < low {
			low = slot
		}
	}
	return low
}
