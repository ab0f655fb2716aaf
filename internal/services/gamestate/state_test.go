package gamestate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/outplayedgg/garrison-server/internal/model"
	"github.com/outplayedgg/garrison-server/internal/testutil"
)

type StateSuite struct {
	suite.Suite
	state *State
}

func TestStateSuite(t *testing.T) {
	suite.Run(t, new(StateSuite))
}

func (s *StateSuite) SetupTest() {
	s.state = New(testutil.NopLogger())
}

func (s *StateSuite) TestNewCreatesAllEightSlots() {
	for slot := model.SlotID(1); slot <= model.MaxSlots; slot++ {
		p := s.state.Player(slot)
		s.Require().NotNil(p)
		s.Equal(model.InitialResources, p.Resources)
		s.Equal(slot.DefaultTeam(), p.Team)
	}
}

func (s *StateSuite) TestSpawnEntityAssignsSequentialIDs() {
	a := s.state.SpawnEntity(model.EntityWorker, 1, model.Position{X: 10, Y: 10})
	b := s.state.SpawnEntity(model.EntityMarine, 1, model.Position{X: 20, Y: 20})

	s.Equal(model.EntityID(1), a.ID)
	s.Equal(model.EntityID(2), b.ID)
	s.Equal(model.EntityStats[model.EntityWorker].MaxHealth, a.Health)

	got, ok := s.state.Object(a.ID)
	s.True(ok)
	s.Same(a, got)
}

func (s *StateSuite) TestUpdateSupplyCountsRecountsFromScratch() {
	s.state.SpawnEntity(model.EntityWorker, 1, model.Position{})
	s.state.SpawnEntity(model.EntityWorker, 1, model.Position{})
	s.state.SpawnEntity(model.EntityMarine, 1, model.Position{})
	tank := s.state.SpawnEntity(model.EntityTank, 2, model.Position{})

	s.state.UpdateSupplyCounts()

	s.Equal(2, s.state.Player(1).WorkerUsed)
	s.Equal(1, s.state.Player(1).SupplyUsed)
	s.Equal(3, s.state.Player(2).SupplyUsed)

	// After a death the recount matches the sum over remaining entities
	s.state.RemoveObject(tank.ID)
	s.state.UpdateSupplyCounts()
	s.Equal(0, s.state.Player(2).SupplyUsed)
}

func (s *StateSuite) TestDeadEntitiesFindsZeroHealth() {
	a := s.state.SpawnEntity(model.EntityMarine, 1, model.Position{})
	s.state.SpawnEntity(model.EntityMarine, 2, model.Position{})
	a.Health = 0

	dead := s.state.DeadEntities()
	s.Require().Len(dead, 1)
	s.Equal(a.ID, dead[0].ID)
}

func (s *StateSuite) TestSnapshotIsIsolatedFromLiveMutation() {
	e := s.state.SpawnEntity(model.EntityTank, 1, model.Position{X: 5, Y: 5})
	e.MoveTarget = &model.Position{X: 50, Y: 60}
	s.state.Player(1).Resources = 500
	s.state.Upgrades(1)[model.UpgradeAttack] = 3

	snap := s.state.Snapshot()

	// Mutate everything the snapshot was derived from
	e.Health = 1
	e.MoveTarget.X = 999
	e.Sieged = true
	s.state.Player(1).Resources = 0
	s.state.Upgrades(1)[model.UpgradeAttack] = 9

	s.Require().Len(snap.Entities, 1)
	s.Equal(model.EntityStats[model.EntityTank].MaxHealth, snap.Entities[0].Health)
	s.Equal(50.0, snap.Entities[0].MoveTarget.X)
	s.False(snap.Entities[0].Siege.Sieged)
	s.Equal(500, snap.Players[1].Resources)
	s.Equal(3, snap.Players[1].Upgrades[model.UpgradeAttack])
}

func (s *StateSuite) TestSnapshotShapeIsVariantDependent() {
	s.state.SpawnEntity(model.EntityBunker, 1, model.Position{})
	s.state.SpawnEntity(model.EntityMarine, 1, model.Position{})
	s.state.SpawnEntity(model.EntityTank, 1, model.Position{})

	snap := s.state.Snapshot()
	s.Require().Len(snap.Entities, 3)

	byType := map[model.EntityType]model.EntitySnapshot{}
	for _, es := range snap.Entities {
		byType[es.Type] = es
	}

	// Structures carry no command state and no siege section
	s.Empty(byType[model.EntityBunker].State)
	s.Nil(byType[model.EntityBunker].Siege)
	// Plain mobile units carry command state but no siege section
	s.Equal(model.CommandIdle, byType[model.EntityMarine].State)
	s.Nil(byType[model.EntityMarine].Siege)
	// Siege-capable units carry both
	s.NotNil(byType[model.EntityTank].Siege)
}

func (s *StateSuite) TestResetRestoresInitialValuesKeepingTeams() {
	s.state.SetTeams(map[model.SlotID]model.TeamID{3: 4})
	s.state.SpawnEntity(model.EntityWorker, 1, model.Position{})
	s.state.Player(1).Resources = 9
	s.state.Player(1).KillScore = 7
	s.state.Upgrades(1)[model.UpgradeArmor] = 5

	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.state.Reset(start)

	s.Equal(0, s.state.EntityCount())
	s.Equal(model.InitialResources, s.state.Player(1).Resources)
	s.Equal(0, s.state.Player(1).KillScore)
	s.Empty(s.state.Upgrades(1))
	s.Equal(model.TeamID(4), s.state.Player(3).Team)

	// Entity ids restart after reset
	e := s.state.SpawnEntity(model.EntityWorker, 1, model.Position{})
	s.Equal(model.EntityID(1), e.ID)
}

func (s *StateSuite) TestElapsedTracksWallClockUnlessPaused() {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.state.Start(start)

	s.state.UpdateElapsed(start.Add(2500 * time.Millisecond))
	s.InDelta(2.5, s.state.Elapsed(), 0.001)

	s.state.SetPaused(true)
	s.state.UpdateElapsed(start.Add(10 * time.Second))
	s.InDelta(2.5, s.state.Elapsed(), 0.001)
}
