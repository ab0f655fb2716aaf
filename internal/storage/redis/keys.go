package redis

import (
	"fmt"

	"github.com/outplayedgg/garrison-server/internal/model"
)

// Key prefix for all server data
const keyPrefix = "garrison"

// Key generation functions for each entity type

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// registeredPlayerKey returns the Redis key for a RegisteredPlayer
func registeredPlayerKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:registered_player:%s", keyPrefix, playerID)
}

// usernameIndexKey returns the Redis key for the username -> player_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// matchKey returns the Redis key for a MatchSummary
func matchKey(id model.MatchID) string {
	return fmt.Sprintf("%s:match:%s", keyPrefix, id)
}

// recentMatchesKey returns the Redis key for the ZSET of matches by end time
func recentMatchesKey() string {
	return fmt.Sprintf("%s:idx:recent_matches", keyPrefix)
}
