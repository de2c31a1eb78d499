package redis

import "fmt"

// Key prefix for all tracker data
const keyPrefix = "leaguetracker"

// usernamesKey returns the Redis key for the SET of known display names
func usernamesKey() string {
	return fmt.Sprintf("%s:usernames", keyPrefix)
}

// accountKey returns the Redis key for an AccountRecord
func accountKey(accountHash string) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, accountHash)
}

// statsKey returns the Redis key for the ZSET of a player's snapshots,
// scored by timestamp
func statsKey(displayName string) string {
	return fmt.Sprintf("%s:stats:%s", keyPrefix, displayName)
}

// topPlayersKey returns the Redis key for the cached leaderboard LIST
func topPlayersKey() string {
	return fmt.Sprintf("%s:top_players", keyPrefix)
}
