package model

import "time"

// Starting economy values, restored on every match (re)start
const (
	InitialResources      = 150
	InitialSupplyCap      = 20
	InitialWorkerCap      = 12
	IncomePerInterval     = 8
	IncomeInterval        = time.Second
)

// RespawnTimer is a pending unit respawn for a player
type RespawnTimer struct {
	Type  EntityType    `json:"type"`
	After time.Duration `json:"after"`
}

// PlayerEconomy is the per-slot economy record. One exists for every slot
// 1-8 for the whole match regardless of room membership; slots nobody
// joined simply stay at their initial values.
type PlayerEconomy struct {
	Slot      SlotID
	Team      TeamID
	Resources int

	SupplyCap    int
	SupplyUsed   int
	WorkerCap    int
	WorkerUsed   int

	KillScore int
	Respawns  []RespawnTimer
}

// NewPlayerEconomy returns a fresh economy record for a slot
func NewPlayerEconomy(slot SlotID) *PlayerEconomy {
	return &PlayerEconomy{
		Slot:      slot,
		Team:      slot.DefaultTeam(),
		Resources: InitialResources,
		SupplyCap: InitialSupplyCap,
		WorkerCap: InitialWorkerCap,
	}
}

// Reset restores initial values, keeping the slot and team assignment
func (p *PlayerEconomy) Reset() {
	p.Resources = InitialResources
	p.SupplyCap = InitialSupplyCap
	p.SupplyUsed = 0
	p.WorkerCap = InitialWorkerCap
	p.WorkerUsed = 0
	p.KillScore = 0
	p.Respawns = nil
}
