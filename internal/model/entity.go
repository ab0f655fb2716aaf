package model

// EntityType discriminates the game object variants
type EntityType string

const (
	EntityWorker EntityType = "worker"
	EntityMarine EntityType = "marine"
	EntityTank   EntityType = "tank"
	EntityBunker EntityType = "bunker"
)

// Map bounds. Positions are validated against these on every movement or
// placement command.
const (
	MapWidth  = 2048.0
	MapHeight = 2048.0
)

// CommandState is the current order a mobile unit is executing
type CommandState string

const (
	CommandIdle      CommandState = "idle"
	CommandMoving    CommandState = "moving"
	CommandAttacking CommandState = "attacking"
)

// Position is a point on the map
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// InBounds reports whether the position lies on the map
func (p Position) InBounds() bool {
	return p.X >= 0 && p.X <= MapWidth && p.Y >= 0 && p.Y <= MapHeight
}

// Entity is one game object. Structures and mobile units share the common
// fields; the mobile and siege sections only apply to the matching variants.
// Entities reference each other by id only, never by pointer, so a dead
// entity can be removed without leaving dangling references.
type Entity struct {
	ID    EntityID
	Type  EntityType
	Owner SlotID
	Pos   Position

	Health    int
	MaxHealth int
	Armor     int
	Attack    int
	Vision    float64

	SupplyCost int

	// Mobile unit fields
	MoveTarget   *Position
	TargetEntity EntityID // 0 when disengaged
	State        CommandState

	// Siege variant fields (tank only)
	Sieged            bool
	TransformProgress float64

	// Structure fields
	Garrison []EntityID

	// KilledBy is the slot credited with this entity's death; set by the
	// combat hook before health reaches zero, 0 if nothing gets credit.
	KilledBy SlotID
}

// Alive reports whether the entity is still live
func (e *Entity) Alive() bool {
	return e.Health > 0
}

// Stats holds the per-type base attributes used when spawning an entity
type Stats struct {
	MaxHealth  int
	Armor      int
	Attack     int
	Vision     float64
	SupplyCost int
	Cost       int // resource price to build/train
	Bounty     int // resources awarded to the killer
	Structure  bool
	Siege      bool
}

// EntityStats is the base attribute table, keyed by type
var EntityStats = map[EntityType]Stats{
	EntityWorker: {MaxHealth: 40, Armor: 0, Attack: 5, Vision: 180, SupplyCost: 1, Cost: 50, Bounty: 15},
	EntityMarine: {MaxHealth: 55, Armor: 0, Attack: 6, Vision: 220, SupplyCost: 1, Cost: 60, Bounty: 20},
	EntityTank:   {MaxHealth: 150, Armor: 2, Attack: 18, Vision: 260, SupplyCost: 3, Cost: 175, Bounty: 55, Siege: true},
	EntityBunker: {MaxHealth: 350, Armor: 3, Attack: 0, Vision: 240, SupplyCost: 0, Cost: 120, Bounty: 40, Structure: true},
}

// NewEntity constructs an entity of the given type at full health
func NewEntity(id EntityID, typ EntityType, owner SlotID, pos Position) *Entity {
	stats := EntityStats[typ]
	return &Entity{
		ID:        id,
		Type:      typ,
		Owner:     owner,
		Pos:       pos,
		Health:    stats.MaxHealth,
		MaxHealth: stats.MaxHealth,
		Armor:     stats.Armor,
		Attack:    stats.Attack,
		Vision:    stats.Vision,
		SupplyCost: stats.SupplyCost,
		State:     CommandIdle,
	}
}

// IsStructure reports whether the type is the structure variant
func (t EntityType) IsStructure() bool {
	return EntityStats[t].Structure
}

// IsSiegeCapable reports whether the type supports siege mode
func (t EntityType) IsSiegeCapable() bool {
	return EntityStats[t].Siege
}

// KnownEntityType reports whether t appears in the stats table
func KnownEntityType(t EntityType) bool {
	_, ok := EntityStats[t]
	return ok
}
