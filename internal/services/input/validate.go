package input

import (
	"encoding/json"

	"github.com/outplayedgg/garrison-server/internal/model"
)

// ownedLiveUnits resolves every id to a live, mobile entity owned by the
// slot. Any miss fails the whole lookup so commands apply all-or-nothing.
func (h *Handler) ownedLiveUnits(slot model.SlotID, ids []model.EntityID) ([]*model.Entity, bool) {
	if len(ids) == 0 {
		return nil, false
	}
	units := make([]*model.Entity, 0, len(ids))
	for _, id := range ids {
		e, ok := h.state.Object(id)
		if !ok || !e.Alive() || e.Owner != slot || e.Type.IsStructure() {
			return nil, false
		}
		units = append(units, e)
	}
	return units, true
}

func (h *Handler) applyMove(cmd model.QueuedCommand) bool {
	var p model.MovePayload
	if err := json.Unmarshal(cmd.Payload, &p); err != nil {
		return false
	}

	target := model.Position{X: p.X, Y: p.Y}
	if !target.InBounds() {
		return false
	}
	units, ok := h.ownedLiveUnits(cmd.Slot, p.UnitIDs)
	if !ok {
		return false
	}

	for _, u := range units {
		pos := target
		u.MoveTarget = &pos
		u.TargetEntity = 0
		u.State = model.CommandMoving
	}
	return true
}

func (h *Handler) applyAttack(cmd model.QueuedCommand) bool {
	var p model.AttackPayload
	if err := json.Unmarshal(cmd.Payload, &p); err != nil {
		return false
	}

	target, ok := h.state.Object(p.TargetID)
	if !ok || !target.Alive() {
		return false
	}
	// Friendly fire is rejected by team comparison, which also covers a
	// unit ordered to attack its own side or itself
	attacker := h.state.Player(cmd.Slot)
	victim := h.state.Player(target.Owner)
	if attacker == nil || victim == nil || attacker.Team == victim.Team {
		return false
	}
	units, ok := h.ownedLiveUnits(cmd.Slot, p.UnitIDs)
	if !ok {
		return false
	}

	for _, u := range units {
		u.TargetEntity = target.ID
		u.MoveTarget = nil
		u.State = model.CommandAttacking
	}
	return true
}

func (h *Handler) applyBuild(cmd model.QueuedCommand) bool {
	var p model.BuildPayload
	if err := json.Unmarshal(cmd.Payload, &p); err != nil {
		return false
	}

	worker, ok := h.state.Object(p.WorkerID)
	if !ok || !worker.Alive() || worker.Owner != cmd.Slot || worker.Type != model.EntityWorker {
		return false
	}
	if !model.KnownEntityType(p.Structure) || !p.Structure.IsStructure() {
		return false
	}
	pos := model.Position{X: p.X, Y: p.Y}
	if !pos.InBounds() {
		return false
	}

	player := h.state.Player(cmd.Slot)
	cost := model.EntityStats[p.Structure].Cost
	if player == nil || player.Resources < cost {
		return false
	}

	// Placement is validated before any resources move, so the deduction
	// and the spawn are a single atomic step within the tick
	player.Resources -= cost
	h.state.SpawnEntity(p.Structure, cmd.Slot, pos)
	h.state.UpdateSupplyCounts()
	return true
}

func (h *Handler) applyUpgrade(cmd model.QueuedCommand) bool {
	var p model.UpgradePayload
	if err := json.Unmarshal(cmd.Payload, &p); err != nil {
		return false
	}

	spec, ok := model.UpgradeSpecs[p.Upgrade]
	if !ok {
		return false
	}
	upgrades := h.state.Upgrades(cmd.Slot)
	level := upgrades.Level(p.Upgrade)
	if level >= spec.MaxLevel {
		return false
	}

	player := h.state.Player(cmd.Slot)
	price := spec.NextPrice(level)
	if player == nil || player.Resources < price {
		return false
	}

	player.Resources -= price
	upgrades[p.Upgrade] = level + 1
	return true
}

func (h *Handler) applySiegeToggle(cmd model.QueuedCommand) bool {
	var p model.SiegeTogglePayload
	if err := json.Unmarshal(cmd.Payload, &p); err != nil {
		return false
	}

	unit, ok := h.state.Object(p.UnitID)
	if !ok || !unit.Alive() || unit.Owner != cmd.Slot || !unit.Type.IsSiegeCapable() {
		return false
	}

	unit.Sieged = !unit.Sieged
	unit.TransformProgress = 0
	if unit.Sieged {
		// A sieged unit holds position until it unsieges
		unit.MoveTarget = nil
		unit.State = model.CommandIdle
	}
	return true
}
