package model

// UpgradeID names a purchasable upgrade track
type UpgradeID string

const (
	UpgradeAttack UpgradeID = "attack"
	UpgradeArmor  UpgradeID = "armor"
	UpgradeSpeed  UpgradeID = "speed"
	UpgradeHealth UpgradeID = "health"

	// Ability unlocks are one-shot upgrades
	UpgradeSiegeTech UpgradeID = "siege-tech"
	UpgradeStimpack  UpgradeID = "stimpack"
)

// UpgradeSpec holds the level cap and pricing for one upgrade track. The
// price to buy the next level is BasePrice * (currentLevel + 1).
type UpgradeSpec struct {
	MaxLevel  int
	BasePrice int
}

// UpgradeSpecs is the upgrade catalogue. Stat tracks cap at 20, ability
// unlocks at 1.
var UpgradeSpecs = map[UpgradeID]UpgradeSpec{
	UpgradeAttack:    {MaxLevel: 20, BasePrice: 75},
	UpgradeArmor:     {MaxLevel: 20, BasePrice: 75},
	UpgradeSpeed:     {MaxLevel: 20, BasePrice: 60},
	UpgradeHealth:    {MaxLevel: 20, BasePrice: 80},
	UpgradeSiegeTech: {MaxLevel: 1, BasePrice: 150},
	UpgradeStimpack:  {MaxLevel: 1, BasePrice: 100},
}

// NextPrice returns the cost of advancing from currentLevel
func (s UpgradeSpec) NextPrice(currentLevel int) int {
	return s.BasePrice * (currentLevel + 1)
}

// UpgradeSet is one player's upgrade counters. Levels are sparse: an
// absent key is level zero. Levels only ever increase within a match.
type UpgradeSet map[UpgradeID]int

// Level returns the current level of an upgrade, zero if never bought
func (u UpgradeSet) Level(id UpgradeID) int {
	return u[id]
}
