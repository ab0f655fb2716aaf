package model

import "encoding/json"

// CommandKind identifies a gameplay command
type CommandKind string

const (
	CmdSelectUnits CommandKind = "select-units"
	CmdMove        CommandKind = "move"
	CmdAttack      CommandKind = "attack"
	CmdBuild       CommandKind = "build"
	CmdUpgrade     CommandKind = "upgrade"
	CmdSiegeToggle CommandKind = "siege-toggle"
)

// KnownCommandKind reports whether k is a recognized gameplay command
func KnownCommandKind(k CommandKind) bool {
	switch k {
	case CmdSelectUnits, CmdMove, CmdAttack, CmdBuild, CmdUpgrade, CmdSiegeToggle:
		return true
	}
	return false
}

// QueuedCommand is a pending client command tagged with the tick it was
// received in. It is applied during the first input pass whose tick number
// is >= EnqueueTick, then discarded.
type QueuedCommand struct {
	Slot        SlotID
	Kind        CommandKind
	Payload     json.RawMessage
	EnqueueTick uint64
}

// Gameplay command payloads

// SelectPayload is a pure client affordance; the server ignores it
type SelectPayload struct {
	UnitIDs []EntityID `json:"unitIds"`
}

// MovePayload orders the given units to a map position
type MovePayload struct {
	UnitIDs []EntityID `json:"unitIds"`
	X       float64    `json:"x"`
	Y       float64    `json:"y"`
}

// AttackPayload orders the given units to engage a target entity
type AttackPayload struct {
	UnitIDs  []EntityID `json:"unitIds"`
	TargetID EntityID   `json:"targetId"`
}

// BuildPayload orders a worker to place a structure
type BuildPayload struct {
	WorkerID  EntityID   `json:"workerId"`
	Structure EntityType `json:"structure"`
	X         float64    `json:"x"`
	Y         float64    `json:"y"`
}

// UpgradePayload buys the next level of an upgrade track
type UpgradePayload struct {
	Upgrade UpgradeID `json:"upgrade"`
}

// SiegeTogglePayload flips a siege-capable unit between modes
type SiegeTogglePayload struct {
	UnitID EntityID `json:"unitId"`
}
