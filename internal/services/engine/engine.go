package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/outplayedgg/garrison-server/internal/dependencies/clock"
	"github.com/outplayedgg/garrison-server/internal/model"
	"github.com/outplayedgg/garrison-server/internal/services/gamestate"
	"github.com/outplayedgg/garrison-server/internal/services/input"
)

// Config holds the engine's timing parameters
type Config struct {
	// TickRate is the fixed simulation rate in ticks per second
	TickRate int
	// BroadcastEvery emits a snapshot every Kth tick
	BroadcastEvery int
	// IncomeInterval is the wall-clock period of passive income accrual,
	// independent of the tick rate
	IncomeInterval time.Duration
}

// DefaultConfig returns the standard 60 Hz simulation with 20 Hz snapshots
func DefaultConfig() Config {
	return Config{
		TickRate:       60,
		BroadcastEvery: 3,
		IncomeInterval: model.IncomeInterval,
	}
}

// Broadcaster receives periodic authoritative snapshots for fan-out. The
// engine never addresses connections itself.
type Broadcaster interface {
	BroadcastSnapshot(roomID model.RoomID, tick uint64, snap model.Snapshot)
}

// Hooks are the injected per-tick behavior callbacks. Unit movement,
// combat, construction progress and fog of war live behind these; the
// engine only sequences them. Nil hooks are skipped.
type Hooks struct {
	// UpdateEntity advances one entity by dt seconds
	UpdateEntity func(st *gamestate.State, e *model.Entity, dt float64)
	// ResolveCollisions untangles overlapping entities
	ResolveCollisions func(st *gamestate.State)
	// RefreshFog recomputes visibility
	RefreshFog func(st *gamestate.State)
}

// Engine owns the fixed-rate authoritative loop for one match. All state
// access is serialized on its mutex: the tick goroutine and inbound
// command handling never touch the match state concurrently.
type Engine struct {
	roomID      model.RoomID
	cfg         Config
	clock       clock.Clock
	broadcaster Broadcaster
	hooks       Hooks
	logger      *slog.Logger

	mu      sync.Mutex
	state   *gamestate.State
	inputs  *input.Handler
	tick    uint64
	running bool
	hasRun  bool
	stop    chan struct{}

	lastIncome time.Time
}

// New creates an engine for one room. The match state is constructed
// lazily on first Start.
func New(roomID model.RoomID, cfg Config, clk clock.Clock, broadcaster Broadcaster, hooks Hooks, logger *slog.Logger) *Engine {
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultConfig().TickRate
	}
	if cfg.BroadcastEvery <= 0 {
		cfg.BroadcastEvery = DefaultConfig().BroadcastEvery
	}
	if cfg.IncomeInterval <= 0 {
		cfg.IncomeInterval = DefaultConfig().IncomeInterval
	}

	st := gamestate.New(logger)
	return &Engine{
		roomID:      roomID,
		cfg:         cfg,
		clock:       clk,
		broadcaster: broadcaster,
		hooks:       hooks,
		logger:      logger.With(slog.String("component", "engine"), slog.String("room", string(roomID))),
		state:       st,
		inputs:      input.NewHandler(st, logger),
	}
}

// Start begins the fixed-rate loop. Idempotent: starting a running engine
// does nothing. Each start resets the match state for the given team
// assignment. Returns true when this is a restart of a previously run
// match.
func (e *Engine) Start(teams map[model.SlotID]model.TeamID) bool {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return false
	}

	restarted := e.hasRun
	e.hasRun = true
	e.running = true
	e.tick = 0

	now := e.clock.Now()
	e.state.Reset(now)
	e.state.SetTeams(teams)
	e.lastIncome = now

	recognized := make(map[model.SlotID]bool, len(teams))
	for slot := range teams {
		recognized[slot] = true
	}
	e.inputs.SetRecognized(recognized)

	e.stop = make(chan struct{})
	stop := e.stop
	e.mu.Unlock()

	ticker := e.clock.NewTicker(time.Second / time.Duration(e.cfg.TickRate))
	go e.loop(ticker, stop)

	e.logger.Info("engine started",
		slog.Int("tick_rate", e.cfg.TickRate),
		slog.Int("players", len(teams)),
		slog.Bool("restarted", restarted))
	return restarted
}

// Stop halts the tick loop and pauses the match clock. Idempotent. State
// is preserved so the match can restart.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	close(e.stop)
	e.state.SetPaused(true)
	e.logger.Info("engine stopped", slog.Uint64("tick", e.tick))
}

// Running reports whether the loop is active
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// CurrentTick returns the last completed tick number
func (e *Engine) CurrentTick() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// HandleInput enqueues a gameplay command tagged with the current tick,
// guaranteeing it is applied no earlier than the tick it arrived in.
// This is the only mutation entry point exposed outside the engine.
func (e *Engine) HandleInput(slot model.SlotID, kind model.CommandKind, payload []byte) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return false
	}
	return e.inputs.Queue(slot, kind, payload, e.tick)
}

// Snapshot returns a point-in-time deep copy of the match state together
// with the tick it was taken at
func (e *Engine) Snapshot() (uint64, model.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick, e.state.Snapshot()
}

// KillScores returns each slot's final kill score, for match summaries
func (e *Engine) KillScores() map[model.SlotID]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	scores := make(map[model.SlotID]int, model.MaxSlots)
	for slot := model.SlotID(1); slot <= model.MaxSlots; slot++ {
		scores[slot] = e.state.Player(slot).KillScore
	}
	return scores
}

// Elapsed returns the current match duration
func (e *Engine) Elapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return time.Duration(e.state.Elapsed() * float64(time.Second))
}

func (e *Engine) loop(ticker clock.Ticker, stop <-chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C():
			e.runTick(now)
		}
	}
}

// runTick advances the simulation by one step. The strict phase order is
// what produces exactly-once, order-preserving command application: drain
// inputs, accrue income, advance entities, resolve deaths, broadcast.
func (e *Engine) runTick(now time.Time) {
	e.mu.Lock()

	e.tick++
	e.inputs.Process(e.tick)

	if now.Sub(e.lastIncome) >= e.cfg.IncomeInterval {
		for slot := model.SlotID(1); slot <= model.MaxSlots; slot++ {
			e.state.Player(slot).Resources += model.IncomePerInterval
		}
		e.lastIncome = now
	}

	e.state.UpdateElapsed(now)

	dt := 1.0 / float64(e.cfg.TickRate)
	if e.hooks.UpdateEntity != nil {
		e.state.ForEachEntity(func(ent *model.Entity) {
			e.hooks.UpdateEntity(e.state, ent, dt)
		})
	}
	if e.hooks.ResolveCollisions != nil {
		e.hooks.ResolveCollisions(e.state)
	}
	if e.hooks.RefreshFog != nil {
		e.hooks.RefreshFog(e.state)
	}

	e.removeDead()

	var (
		doBroadcast bool
		tick        uint64
		snap        model.Snapshot
	)
	if e.tick%uint64(e.cfg.BroadcastEvery) == 0 && e.broadcaster != nil {
		doBroadcast = true
		tick = e.tick
		snap = e.state.Snapshot()
	}
	e.mu.Unlock()

	// Fan-out happens outside the state lock; a slow transport must not
	// stall the simulation
	if doBroadcast {
		e.broadcaster.BroadcastSnapshot(e.roomID, tick, snap)
	}
}

// removeDead applies death side effects and deletes entities whose health
// reached zero, then recounts supply. Called with the mutex held.
func (e *Engine) removeDead() {
	dead := e.state.DeadEntities()
	if len(dead) == 0 {
		return
	}

	for _, ent := range dead {
		if killer := e.state.Player(ent.KilledBy); killer != nil && ent.KilledBy != 0 {
			killer.Resources += model.EntityStats[ent.Type].Bounty
			killer.KillScore++
		}
		e.state.RemoveObject(ent.ID)
		e.logger.Debug("entity destroyed",
			slog.Uint64("entity", uint64(ent.ID)),
			slog.String("type", string(ent.Type)),
			slog.Int("owner", int(ent.Owner)),
			slog.Int("killed_by", int(ent.KilledBy)))
	}
	e.state.UpdateSupplyCounts()
}
