package gamestate

import "github.com/outplayedgg/garrison-server/internal/model"

// Snapshot produces a fully self-contained projection of the state. The
// result shares no memory with live entities or economy records, so it
// can be serialized and fanned out to any number of observers while the
// simulation keeps mutating.
func (s *State) Snapshot() model.Snapshot {
	snap := model.Snapshot{
		Elapsed: s.elapsed,
		Paused:  s.paused,
		Players: make(map[model.SlotID]model.PlayerSnapshot, len(s.players)),
	}

	for slot, p := range s.players {
		ps := model.PlayerSnapshot{
			Slot:       p.Slot,
			Team:       p.Team,
			Resources:  p.Resources,
			SupplyCap:  p.SupplyCap,
			SupplyUsed: p.SupplyUsed,
			WorkerCap:  p.WorkerCap,
			WorkerUsed: p.WorkerUsed,
			KillScore:  p.KillScore,
		}
		if len(p.Respawns) > 0 {
			ps.Respawns = make([]model.RespawnTimer, len(p.Respawns))
			copy(ps.Respawns, p.Respawns)
		}
		if len(s.upgrades[slot]) > 0 {
			ups := make(model.UpgradeSet, len(s.upgrades[slot]))
			for id, level := range s.upgrades[slot] {
				ups[id] = level
			}
			ps.Upgrades = ups
		}
		snap.Players[slot] = ps
	}

	snap.Entities = make([]model.EntitySnapshot, 0, len(s.entities))
	for _, e := range s.sortedEntities() {
		snap.Entities = append(snap.Entities, snapshotEntity(e))
	}
	return snap
}

// snapshotEntity serializes one entity. Variant fields are only included
// for the variants that carry them, so the shape depends on the type.
func snapshotEntity(e *model.Entity) model.EntitySnapshot {
	es := model.EntitySnapshot{
		ID:         e.ID,
		Type:       e.Type,
		Owner:      e.Owner,
		Pos:        e.Pos,
		Health:     e.Health,
		MaxHealth:  e.MaxHealth,
		Armor:      e.Armor,
		Attack:     e.Attack,
		Vision:     e.Vision,
		SupplyCost: e.SupplyCost,
	}

	if e.Type.IsStructure() {
		if len(e.Garrison) > 0 {
			es.Garrison = make([]model.EntityID, len(e.Garrison))
			copy(es.Garrison, e.Garrison)
		}
		return es
	}

	// Mobile unit fields
	es.State = e.State
	es.TargetEntity = e.TargetEntity
	if e.MoveTarget != nil {
		target := *e.MoveTarget
		es.MoveTarget = &target
	}

	if e.Type.IsSiegeCapable() {
		es.Siege = &model.SiegeSnapshot{
			Sieged:            e.Sieged,
			TransformProgress: e.TransformProgress,
		}
	}
	return es
}
