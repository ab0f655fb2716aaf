package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/outplayedgg/garrison-server/internal/dependencies/mocks"
	"github.com/outplayedgg/garrison-server/internal/model"
	"github.com/outplayedgg/garrison-server/internal/testutil"
)

type ManagerSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	manager *Manager
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.manager = NewManager(s.clock, s.random, testutil.NopLogger())
}

func (s *ManagerSuite) createRoom(name string, hostSlot model.SlotID) *model.Room {
	s.random.QueueString("ROOM" + string(rune('0'+len(s.manager.rooms))) + "A")
	r, err := s.manager.CreateRoom(name, hostSlot)
	s.Require().NoError(err)
	return r
}

// CreateRoom tests

func (s *ManagerSuite) TestCreateRoomStartsWaiting() {
	r := s.createRoom("alpha", 1)

	s.Equal(model.RoomStateWaiting, r.State)
	s.Equal(model.SlotID(1), r.HostSlot)
	s.Empty(r.Players)
	s.Equal(s.clock.Now(), r.CreatedAt)
}

func (s *ManagerSuite) TestCreateRoomRejectsBadHostSlot() {
	_, err := s.manager.CreateRoom("alpha", 9)
	s.ErrorIs(err, model.ErrInvalidSlot)
}

// AddPlayer tests

func (s *ManagerSuite) TestAddPlayerAssignsPairTeam() {
	r := s.createRoom("alpha", 1)

	s.Require().NoError(s.manager.AddPlayer(r.ID, 1, "conn-1", "ana"))
	s.Require().NoError(s.manager.AddPlayer(r.ID, 2, "conn-2", "bo"))
	s.Require().NoError(s.manager.AddPlayer(r.ID, 5, "conn-3", "cy"))

	s.Equal(model.TeamID(1), r.Teams[1])
	s.Equal(model.TeamID(1), r.Teams[2])
	s.Equal(model.TeamID(3), r.Teams[5])
}

func (s *ManagerSuite) TestAddPlayerRejectsTakenSlot() {
	r := s.createRoom("alpha", 1)
	s.Require().NoError(s.manager.AddPlayer(r.ID, 1, "conn-1", "ana"))

	err := s.manager.AddPlayer(r.ID, 1, "conn-2", "bo")
	s.ErrorIs(err, model.ErrSlotTaken)
}

func (s *ManagerSuite) TestAddPlayerRejectsFullRoom() {
	r := s.createRoom("alpha", 1)
	for slot := model.SlotID(1); slot <= model.MaxSlots; slot++ {
		s.Require().NoError(s.manager.AddPlayer(r.ID, slot, model.ConnectionID("conn")+model.ConnectionID(rune('0'+slot)), "p"))
	}

	// All slots taken; a ninth member cannot be seated anywhere
	err := s.manager.AddPlayer(r.ID, 1, "conn-9", "late")
	s.ErrorIs(err, model.ErrRoomFull)
	s.Len(r.Players, model.MaxSlots)
}

func (s *ManagerSuite) TestAddPlayerUnknownRoom() {
	err := s.manager.AddPlayer("NOPE", 1, "conn-1", "ana")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

// RemovePlayer tests

func (s *ManagerSuite) TestRemovePlayerReassignsHostToLowestSlot() {
	r := s.createRoom("alpha", 3)
	s.Require().NoError(s.manager.AddPlayer(r.ID, 3, "conn-1", "host"))
	s.Require().NoError(s.manager.AddPlayer(r.ID, 6, "conn-2", "bo"))
	s.Require().NoError(s.manager.AddPlayer(r.ID, 4, "conn-3", "cy"))

	dep, err := s.manager.RemovePlayer(r.ID, 3)
	s.Require().NoError(err)

	s.True(dep.WasHost)
	s.Equal(model.SlotID(4), dep.NewHost)
	s.Equal(model.SlotID(4), r.HostSlot)
}

func (s *ManagerSuite) TestRemoveLastPlayerDestroysRoom() {
	r := s.createRoom("alpha", 1)
	s.Require().NoError(s.manager.AddPlayer(r.ID, 1, "conn-1", "ana"))

	dep, err := s.manager.RemovePlayer(r.ID, 1)
	s.Require().NoError(err)

	s.True(dep.RoomDeleted)
	_, err = s.manager.Room(r.ID)
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *ManagerSuite) TestRemoveByConnectionFindsSpectator() {
	r := s.createRoom("alpha", 1)
	s.Require().NoError(s.manager.AddPlayer(r.ID, 1, "conn-1", "ana"))
	s.Require().NoError(s.manager.AddSpectator(r.ID, "spec-1"))

	roomID, dep, err := s.manager.RemoveByConnection("spec-1")
	s.Require().NoError(err)

	s.Equal(r.ID, roomID)
	s.Equal(model.SlotID(0), dep.Slot)
	s.False(dep.RoomDeleted)
	s.Empty(r.Spectators)
}

func (s *ManagerSuite) TestRemoveByConnectionUnknown() {
	_, _, err := s.manager.RemoveByConnection("ghost")
	s.ErrorIs(err, model.ErrNotInRoom)
}

// SetPlayerTeam tests

func (s *ManagerSuite) TestSetPlayerTeamReKeysToFreeSlot() {
	r := s.createRoom("alpha", 1)
	s.Require().NoError(s.manager.AddPlayer(r.ID, 1, "conn-1", "ana"))

	change, err := s.manager.SetPlayerTeam(r.ID, 1, 3, 0)
	s.Require().NoError(err)

	s.False(change.Swapped)
	s.Equal(model.SlotID(1), change.OldSlot)
	s.Equal(model.SlotID(5), change.NewSlot)
	s.Equal(model.ConnectionID("conn-1"), r.Players[5])
	s.Equal("ana", r.Names[5])
	s.Equal(model.TeamID(3), r.Teams[5])
	s.NotContains(r.Players, model.SlotID(1))
	// Host identity follows the mover
	s.Equal(model.SlotID(5), r.HostSlot)
}

func (s *ManagerSuite) TestSetPlayerTeamSwapExchangesFullIdentity() {
	r := s.createRoom("alpha", 1)
	s.Require().NoError(s.manager.AddPlayer(r.ID, 3, "conn-a", "ana"))
	s.Require().NoError(s.manager.AddPlayer(r.ID, 5, "conn-b", "bo"))
	s.Require().NoError(s.manager.SetReadyStatus(r.ID, 5, true))

	change, err := s.manager.SetPlayerTeam(r.ID, 3, 3, 5)
	s.Require().NoError(err)

	s.True(change.Swapped)
	s.Equal(model.SlotID(3), change.OldSlot)
	s.Equal(model.SlotID(5), change.NewSlot)

	// The two connection mappings now point at each other's prior slot
	s.Equal(model.ConnectionID("conn-a"), r.Players[5])
	s.Equal(model.ConnectionID("conn-b"), r.Players[3])
	s.Equal("ana", r.Names[5])
	s.Equal("bo", r.Names[3])
	s.True(r.Ready[3])
	s.False(r.Ready[5])
	s.Equal(model.TeamID(3), r.Teams[5])
	s.Equal(model.TeamID(2), r.Teams[3])
}

func (s *ManagerSuite) TestSetPlayerTeamLabelOnlyWhenSeatFits() {
	r := s.createRoom("alpha", 1)
	s.Require().NoError(s.manager.AddPlayer(r.ID, 4, "conn-a", "ana"))

	change, err := s.manager.SetPlayerTeam(r.ID, 4, 2, 0)
	s.Require().NoError(err)

	s.False(change.Moved())
	s.Equal(model.ConnectionID("conn-a"), r.Players[4])
	s.Equal(model.TeamID(2), r.Teams[4])
}

func (s *ManagerSuite) TestSetPlayerTeamFailsWhenTeamFull() {
	r := s.createRoom("alpha", 1)
	s.Require().NoError(s.manager.AddPlayer(r.ID, 1, "conn-a", "ana"))
	s.Require().NoError(s.manager.AddPlayer(r.ID, 3, "conn-b", "bo"))
	s.Require().NoError(s.manager.AddPlayer(r.ID, 4, "conn-c", "cy"))

	_, err := s.manager.SetPlayerTeam(r.ID, 1, 2, 0)
	s.ErrorIs(err, model.ErrTeamFull)
	// No partial mutation
	s.Equal(model.ConnectionID("conn-a"), r.Players[1])
	s.Equal(model.TeamID(1), r.Teams[1])
}

func (s *ManagerSuite) TestSetPlayerTeamRejectsTargetOutsidePair() {
	r := s.createRoom("alpha", 1)
	s.Require().NoError(s.manager.AddPlayer(r.ID, 1, "conn-a", "ana"))

	_, err := s.manager.SetPlayerTeam(r.ID, 1, 2, 6)
	s.ErrorIs(err, model.ErrInvalidTeam)
}

func (s *ManagerSuite) TestTeamPartitionInvariantHolds() {
	r := s.createRoom("alpha", 1)
	s.Require().NoError(s.manager.AddPlayer(r.ID, 1, "conn-a", "ana"))
	s.Require().NoError(s.manager.AddPlayer(r.ID, 2, "conn-b", "bo"))
	_, err := s.manager.SetPlayerTeam(r.ID, 2, 4, 0)
	s.Require().NoError(err)
	_, err = s.manager.SetPlayerTeam(r.ID, 1, 4, 0)
	s.Require().NoError(err)

	for slot, team := range r.Teams {
		s.True(team.Owns(slot), "slot %d labeled team %d outside its pair", slot, team)
	}
}

// Ready / state tests

func (s *ManagerSuite) TestAllReady() {
	r := s.createRoom("alpha", 1)
	s.Require().NoError(s.manager.AddPlayer(r.ID, 1, "conn-a", "ana"))
	s.Require().NoError(s.manager.AddPlayer(r.ID, 2, "conn-b", "bo"))

	ready, err := s.manager.AllReady(r.ID)
	s.Require().NoError(err)
	s.False(ready)

	s.Require().NoError(s.manager.SetReadyStatus(r.ID, 1, true))
	s.Require().NoError(s.manager.SetReadyStatus(r.ID, 2, true))

	ready, err = s.manager.AllReady(r.ID)
	s.Require().NoError(err)
	s.True(ready)
}

func (s *ManagerSuite) TestSetRoomStateRejectsUnknownValue() {
	r := s.createRoom("alpha", 1)
	err := s.manager.SetRoomState(r.ID, model.RoomState("exploded"))
	s.ErrorIs(err, model.ErrInvalidState)
	s.Equal(model.RoomStateWaiting, r.State)
}

// Projection tests

func (s *ManagerSuite) TestLobbyStateOrdersPlayersBySlot() {
	r := s.createRoom("alpha", 5)
	s.Require().NoError(s.manager.AddPlayer(r.ID, 5, "conn-a", "ana"))
	s.Require().NoError(s.manager.AddPlayer(r.ID, 2, "conn-b", "bo"))
	s.Require().NoError(s.manager.AddSpectator(r.ID, "spec-1"))

	state, err := s.manager.LobbyState(r.ID)
	s.Require().NoError(err)

	s.Equal([]model.SlotID{2, 5}, []model.SlotID{state.Players[0].Slot, state.Players[1].Slot})
	s.True(state.Players[1].IsHost)
	s.Equal(1, state.SpectatorCount)
}

func (s *ManagerSuite) TestSlotInUseGlobally() {
	r := s.createRoom("alpha", 1)
	s.Require().NoError(s.manager.AddPlayer(r.ID, 1, "conn-a", "ana"))
	s.createRoom("beta", 2)

	s.True(s.manager.SlotInUseGlobally(1))
	// Slot 2 is only reserved as beta's host; still counts as in use
	s.True(s.manager.SlotInUseGlobally(2))
	s.False(s.manager.SlotInUseGlobally(3))
}
