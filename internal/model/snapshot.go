package model

// Snapshot is a fully self-contained projection of a match's state. It
// shares no memory with the live state: once returned it never changes,
// no matter what the simulation does next.
type Snapshot struct {
	Elapsed float64                  `json:"elapsed"` // seconds of match time
	Paused  bool                     `json:"paused"`
	Players map[SlotID]PlayerSnapshot `json:"players"`
	Entities []EntitySnapshot        `json:"entities"`
}

// PlayerSnapshot is the serialized economy and upgrade state of one slot
type PlayerSnapshot struct {
	Slot      SlotID         `json:"slot"`
	Team      TeamID         `json:"team"`
	Resources int            `json:"resources"`
	SupplyCap int            `json:"supplyCap"`
	SupplyUsed int           `json:"supplyUsed"`
	WorkerCap int            `json:"workerCap"`
	WorkerUsed int           `json:"workerUsed"`
	KillScore int            `json:"killScore"`
	Respawns  []RespawnTimer `json:"respawns,omitempty"`
	Upgrades  UpgradeSet     `json:"upgrades,omitempty"`
}

// EntitySnapshot is the serialized form of one game object. The variant
// sections are only populated for the variants that have them, so the
// projection shape depends on the entity type.
type EntitySnapshot struct {
	ID        EntityID   `json:"id"`
	Type      EntityType `json:"type"`
	Owner     SlotID     `json:"owner"`
	Pos       Position   `json:"pos"`
	Health    int        `json:"health"`
	MaxHealth int        `json:"maxHealth"`
	Armor     int        `json:"armor"`
	Attack    int        `json:"attack"`
	Vision    float64    `json:"vision"`
	SupplyCost int       `json:"supplyCost"`

	// Mobile unit fields
	MoveTarget   *Position    `json:"moveTarget,omitempty"`
	TargetEntity EntityID     `json:"targetEntity,omitempty"`
	State        CommandState `json:"state,omitempty"`

	// Siege variant fields
	Siege *SiegeSnapshot `json:"siege,omitempty"`

	// Structure fields
	Garrison []EntityID `json:"garrison,omitempty"`
}

// SiegeSnapshot carries the siege-capable variant's extra state
type SiegeSnapshot struct {
	Sieged            bool    `json:"sieged"`
	TransformProgress float64 `json:"transformProgress"`
}
