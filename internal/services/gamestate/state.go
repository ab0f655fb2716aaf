package gamestate

import (
	"log/slog"
	"sort"
	"time"

	"github.com/outplayedgg/garrison-server/internal/model"
)

// State is the authoritative entity and economy store for one match. It
// is not goroutine-safe: the owning engine serializes all access.
type State struct {
	logger *slog.Logger

	nextID   model.EntityID
	entities map[model.EntityID]*model.Entity

	players  map[model.SlotID]*model.PlayerEconomy
	upgrades map[model.SlotID]model.UpgradeSet

	startedAt time.Time
	elapsed   float64
	paused    bool
}

// New creates a match state with economy records for all 8 slots. Slots
// nobody joined stay latent at their initial values.
func New(logger *slog.Logger) *State {
	s := &State{
		logger:   logger.With(slog.String("component", "gamestate")),
		entities: make(map[model.EntityID]*model.Entity),
		players:  make(map[model.SlotID]*model.PlayerEconomy),
		upgrades: make(map[model.SlotID]model.UpgradeSet),
	}
	for slot := model.SlotID(1); slot <= model.MaxSlots; slot++ {
		s.players[slot] = model.NewPlayerEconomy(slot)
		s.upgrades[slot] = make(model.UpgradeSet)
	}
	return s
}

// SetTeams records the room's team assignment on the economy records.
// State is otherwise agnostic to room membership.
func (s *State) SetTeams(teams map[model.SlotID]model.TeamID) {
	for slot, team := range teams {
		if p, ok := s.players[slot]; ok {
			p.Team = team
		}
	}
}

// Player returns the economy record for a slot, or nil for invalid slots
func (s *State) Player(slot model.SlotID) *model.PlayerEconomy {
	return s.players[slot]
}

// Upgrades returns the mutable upgrade set for a slot
func (s *State) Upgrades(slot model.SlotID) model.UpgradeSet {
	return s.upgrades[slot]
}

// SpawnEntity creates an entity of the given type at full health and adds
// it to the collection
func (s *State) SpawnEntity(typ model.EntityType, owner model.SlotID, pos model.Position) *model.Entity {
	s.nextID++
	e := model.NewEntity(s.nextID, typ, owner, pos)
	s.entities[e.ID] = e
	return e
}

// AddObject inserts an externally constructed entity
func (s *State) AddObject(e *model.Entity) {
	if e.ID > s.nextID {
		s.nextID = e.ID
	}
	s.entities[e.ID] = e
}

// RemoveObject deletes an entity from the collection
func (s *State) RemoveObject(id model.EntityID) {
	delete(s.entities, id)
}

// Object looks up an entity by id
func (s *State) Object(id model.EntityID) (*model.Entity, bool) {
	e, ok := s.entities[id]
	return e, ok
}

// ForEachEntity visits every entity in id order
func (s *State) ForEachEntity(fn func(*model.Entity)) {
	for _, e := range s.sortedEntities() {
		fn(e)
	}
}

// EntityCount returns the number of live entities
func (s *State) EntityCount() int {
	return len(s.entities)
}

// DeadEntities returns the entities whose health has reached zero, in id
// order, without removing them
func (s *State) DeadEntities() []*model.Entity {
	var dead []*model.Entity
	for _, e := range s.sortedEntities() {
		if !e.Alive() {
			dead = append(dead, e)
		}
	}
	return dead
}

// UpdateSupplyCounts recomputes every player's supply usage from scratch.
// Incremental counters drift too easily across spawn/death interleavings;
// a full recount is cheap at this entity scale and cannot desynchronize.
func (s *State) UpdateSupplyCounts() {
	for _, p := range s.players {
		p.SupplyUsed = 0
		p.WorkerUsed = 0
	}
	for _, e := range s.entities {
		p, ok := s.players[e.Owner]
		if !ok {
			continue
		}
		if e.Type == model.EntityWorker {
			p.WorkerUsed += e.SupplyCost
		} else {
			p.SupplyUsed += e.SupplyCost
		}
	}
}

// Start stamps the match start time and unpauses
func (s *State) Start(now time.Time) {
	s.startedAt = now
	s.elapsed = 0
	s.paused = false
}

// SetPaused pauses or resumes elapsed-time accounting
func (s *State) SetPaused(paused bool) {
	s.paused = paused
}

// Paused reports whether the match clock is paused
func (s *State) Paused() bool {
	return s.paused
}

// UpdateElapsed recomputes the elapsed match time from the wall-clock
// start unless paused
func (s *State) UpdateElapsed(now time.Time) {
	if s.paused {
		return
	}
	s.elapsed = now.Sub(s.startedAt).Seconds()
}

// Elapsed returns the current elapsed match time in seconds
func (s *State) Elapsed() float64 {
	return s.elapsed
}

// Reset restores all players to initial economy values, clears upgrades
// and entities, and restarts the match clock. Team assignments survive:
// teams are owned by the room, not by match state.
func (s *State) Reset(now time.Time) {
	for _, p := range s.players {
		p.Reset()
	}
	for slot := range s.upgrades {
		s.upgrades[slot] = make(model.UpgradeSet)
	}
	s.entities = make(map[model.EntityID]*model.Entity)
	s.nextID = 0
	s.Start(now)
}

func (s *State) sortedEntities() []*model.Entity {
	out := make([]*model.Entity, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
