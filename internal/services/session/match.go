package session

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/outplayedgg/garrison-server/internal/model"
	"github.com/outplayedgg/garrison-server/internal/services/engine"
)

// matchRoster is the seat assignment captured at match start, used to
// build the durable summary after the room itself is gone
type matchRoster struct {
	roomName string
	seats    map[model.SlotID]matchSeat
}

type matchSeat struct {
	name   string
	team   model.TeamID
	player model.PlayerID
}

// startGame begins the pre-match countdown. Host only; rejected when a
// countdown or match is already underway.
func (c *Coordinator) startGame(conn model.ConnectionID, ident *identity) {
	if ident.room == "" || ident.spectator {
		c.sendError(conn, "not in a room")
		return
	}
	r, err := c.rooms.Room(ident.room)
	if err != nil {
		c.sendError(conn, "room not found")
		return
	}
	if r.HostSlot != ident.slot {
		c.sendError(conn, "only the host may start the game")
		return
	}
	if r.State == model.RoomStateCountdown || r.State == model.RoomStatePlaying {
		c.sendError(conn, "game already starting")
		return
	}

	c.cancelCountdown(ident.room)
	if err := c.rooms.SetRoomState(ident.room, model.RoomStateCountdown); err != nil {
		c.sendError(conn, "could not start game")
		return
	}
	_ = c.rooms.SetCountdown(ident.room, c.countdownFrom)

	cancel := make(chan struct{})
	c.countdowns[ident.room] = cancel

	c.broadcastToRoom(ident.room, model.EventCountdown, model.CountdownNotice{Seconds: c.countdownFrom})
	go c.runCountdown(ident.room, c.countdownFrom, cancel)

	c.logger.Info("countdown started",
		slog.String("room", string(ident.room)),
		slog.Int("seconds", c.countdownFrom))
}

// runCountdown ticks the remaining seconds down once per second,
// broadcasting each step, then transitions the room to playing
func (c *Coordinator) runCountdown(roomID model.RoomID, from int, cancel <-chan struct{}) {
	ticker := c.clock.NewTicker(time.Second)
	defer ticker.Stop()

	remaining := from
	for {
		select {
		case <-cancel:
			return
		case <-ticker.C():
			c.mu.Lock()
			select {
			case <-cancel:
				c.mu.Unlock()
				return
			default:
			}

			remaining--
			_ = c.rooms.SetCountdown(roomID, remaining)
			c.broadcastToRoom(roomID, model.EventCountdown, model.CountdownNotice{Seconds: remaining})

			if remaining <= 0 {
				delete(c.countdowns, roomID)
				c.beginMatch(roomID)
				c.mu.Unlock()
				return
			}
			c.mu.Unlock()
		}
	}
}

// beginMatch transitions the room to playing and starts (or restarts)
// its engine. A restart announces an unpause instead of a second start.
// Called with the coordinator lock held.
func (c *Coordinator) beginMatch(roomID model.RoomID) {
	r, err := c.rooms.Room(roomID)
	if err != nil {
		return
	}

	_ = c.rooms.SetRoomState(roomID, model.RoomStatePlaying)

	teams := make(map[model.SlotID]model.TeamID, len(r.Teams))
	seats := make(map[model.SlotID]matchSeat, len(r.Players))
	for slot, conn := range r.Players {
		teams[slot] = r.Teams[slot]
		seat := matchSeat{name: r.Names[slot], team: r.Teams[slot]}
		if ident, ok := c.conns[conn]; ok {
			seat.player = ident.player
		}
		seats[slot] = seat
	}
	c.matches[roomID] = &matchRoster{roomName: r.Name, seats: seats}

	eng, ok := c.engines[roomID]
	if !ok {
		eng = engine.New(roomID, c.engineCfg, c.clock, c, c.engineHooks, c.logger)
		c.engines[roomID] = eng
	}
	restarted := eng.Start(teams)

	event := model.EventGameStart
	if restarted {
		event = model.EventUnpause
	}
	c.broadcastToRoom(roomID, event, nil)

	c.logger.Info("match started",
		slog.String("room", string(roomID)),
		slog.Int("players", len(teams)),
		slog.Bool("restarted", restarted))
}

// cancelCountdown stops an active countdown for the room, if any.
// Called with the coordinator lock held.
func (c *Coordinator) cancelCountdown(roomID model.RoomID) {
	if cancel, ok := c.countdowns[roomID]; ok {
		close(cancel)
		delete(c.countdowns, roomID)
	}
}

// teardownRoom releases everything tied to a destroyed room: the
// countdown, the engine, and a durable summary of any match that ran.
// Called with the coordinator lock held.
func (c *Coordinator) teardownRoom(roomID model.RoomID) {
	c.cancelCountdown(roomID)

	eng, hasEngine := c.engines[roomID]
	roster := c.matches[roomID]
	delete(c.engines, roomID)
	delete(c.matches, roomID)
	if !hasEngine {
		return
	}

	eng.Stop()

	if c.recorder == nil || roster == nil {
		return
	}
	summary := c.buildSummary(eng, roster)

	// Persisting may hit slow storage; keep it off the event path
	go func() {
		if err := c.recorder.RecordMatch(context.Background(), summary); err != nil {
			c.logger.Error("failed to record match summary",
				slog.String("room", string(roomID)),
				slog.String("error", err.Error()))
		}
	}()

	c.logger.Info("room torn down", slog.String("room", string(roomID)))
}

func (c *Coordinator) buildSummary(eng *engine.Engine, roster *matchRoster) model.MatchSummary {
	scores := eng.KillScores()

	results := make([]model.MatchPlayerResult, 0, len(roster.seats))
	for slot, seat := range roster.seats {
		results = append(results, model.MatchPlayerResult{
			Slot:      slot,
			Team:      seat.team,
			Name:      seat.name,
			KillScore: scores[slot],
			PlayerID:  seat.player,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Slot < results[j].Slot })

	return model.MatchSummary{
		ID:       c.newMatchID(),
		RoomName: roster.roomName,
		Results:  results,
		Duration: eng.Elapsed(),
		EndedAt:  c.clock.Now(),
	}
}
