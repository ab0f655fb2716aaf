package input

import (
	"encoding/json"
	"log/slog"

	"github.com/outplayedgg/garrison-server/internal/model"
	"github.com/outplayedgg/garrison-server/internal/services/gamestate"
)

const (
	// MaxCommandsPerTick caps how many commands one slot may queue within
	// a single tick. Excess commands are dropped so a bursty or hostile
	// client cannot starve the tick budget.
	MaxCommandsPerTick = 10

	// RateWindowTicks is how long per-slot rate bookkeeping is retained
	RateWindowTicks = 10
)

// Handler converts untrusted client commands into validated state
// mutations. Commands are applied in FIFO receipt order, never before the
// tick they were received in. Not goroutine-safe: the owning engine
// serializes access.
type Handler struct {
	state  *gamestate.State
	logger *slog.Logger

	queue      []model.QueuedCommand
	perTick    map[uint64]map[model.SlotID]int
	recognized map[model.SlotID]bool
}

// NewHandler creates an input handler bound to a match state
func NewHandler(state *gamestate.State, logger *slog.Logger) *Handler {
	return &Handler{
		state:      state,
		logger:     logger.With(slog.String("component", "input")),
		perTick:    make(map[uint64]map[model.SlotID]int),
		recognized: make(map[model.SlotID]bool),
	}
}

// SetRecognized declares which slots belong to the current match. Commands
// from any other slot are rejected during validation.
func (h *Handler) SetRecognized(slots map[model.SlotID]bool) {
	h.recognized = make(map[model.SlotID]bool, len(slots))
	for slot, ok := range slots {
		if ok {
			h.recognized[slot] = true
		}
	}
}

// Queue admits a command for the given tick, enforcing the per-slot cap.
// Returns false when the command was dropped.
func (h *Handler) Queue(slot model.SlotID, kind model.CommandKind, payload json.RawMessage, tick uint64) bool {
	counts := h.perTick[tick]
	if counts == nil {
		counts = make(map[model.SlotID]int)
		h.perTick[tick] = counts
	}
	if counts[slot] >= MaxCommandsPerTick {
		h.logger.Warn("command dropped, per-tick limit reached",
			slog.Int("slot", int(slot)),
			slog.String("kind", string(kind)),
			slog.Uint64("tick", tick))
		return false
	}
	counts[slot]++

	h.queue = append(h.queue, model.QueuedCommand{
		Slot:        slot,
		Kind:        kind,
		Payload:     payload,
		EnqueueTick: tick,
	})
	return true
}

// Pending returns the number of queued commands awaiting application
func (h *Handler) Pending() int {
	return len(h.queue)
}

// Process drains and applies every queued command whose enqueue tick is
// <= currentTick, in arrival order. Commands tagged for a future tick
// stay queued. Rate bookkeeping older than the retention window is
// pruned to bound memory.
func (h *Handler) Process(currentTick uint64) {
	remaining := h.queue[:0]
	for _, cmd := range h.queue {
		if cmd.EnqueueTick > currentTick {
			remaining = append(remaining, cmd)
			continue
		}
		if !h.apply(cmd) {
			h.logger.Debug("command rejected",
				slog.Int("slot", int(cmd.Slot)),
				slog.String("kind", string(cmd.Kind)),
				slog.Uint64("tick", cmd.EnqueueTick))
		}
	}
	h.queue = remaining

	for tick := range h.perTick {
		if tick+RateWindowTicks < currentTick {
			delete(h.perTick, tick)
		}
	}
}

// apply dispatches one command to its validator+applier. Validators never
// error out: a false result means the command was dropped and state is
// untouched. Gameplay rejections are deliberately not echoed to clients.
func (h *Handler) apply(cmd model.QueuedCommand) bool {
	if !h.recognized[cmd.Slot] {
		return false
	}

	switch cmd.Kind {
	case model.CmdSelectUnits:
		// Selection is a pure client affordance; nothing to do server-side
		return true
	case model.CmdMove:
		return h.applyMove(cmd)
	case model.CmdAttack:
		return h.applyAttack(cmd)
	case model.CmdBuild:
		return h.applyBuild(cmd)
	case model.CmdUpgrade:
		return h.applyUpgrade(cmd)
	case model.CmdSiegeToggle:
		return h.applySiegeToggle(cmd)
	default:
		return false
	}
}
