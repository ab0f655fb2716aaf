package storage

import (
	"context"

	"github.com/outplayedgg/garrison-server/internal/model"
)

// Storage defines the interface for data persistence. Only durable data
// lives here: accounts and completed match summaries. Live room and match
// state is in-memory only.
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error

	// Registered player operations
	SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error
	GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error)
	GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error)

	// Match summary operations
	SaveMatch(ctx context.Context, match *model.MatchSummary) error
	GetMatch(ctx context.Context, id model.MatchID) (*model.MatchSummary, error)
	ListRecentMatches(ctx context.Context, limit int) ([]*model.MatchSummary, error)
}
