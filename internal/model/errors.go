package model

import "errors"

// Common errors used across the application
var (
	// Room errors
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrSlotTaken      = errors.New("slot is already occupied")
	ErrSlotNotFound   = errors.New("slot is not occupied")
	ErrInvalidSlot    = errors.New("slot id out of range")
	ErrInvalidTeam    = errors.New("team id out of range")
	ErrTeamFull       = errors.New("team has no free slot")
	ErrInvalidState   = errors.New("invalid room state")
	ErrNotHost        = errors.New("requester is not the host")
	ErrNotInRoom      = errors.New("connection is not in a room")
	ErrAlreadyStarted = errors.New("match already starting or in progress")
	ErrNoFreeSlot     = errors.New("no available slot")

	// Chat errors
	ErrBadChatMessage = errors.New("chat message must be 1-200 characters")

	// Player/account errors
	ErrPlayerNotFound = errors.New("player not found")

	// Match errors
	ErrMatchNotFound = errors.New("match not found")
)
