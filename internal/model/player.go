package model

import "time"

// PlayerIdentity is a roster entry eligible for stat polling
type PlayerIdentity struct {
	DisplayName string `json:"displayName"`
}

// AccountRecord maps a persistent account to its current display name
type AccountRecord struct {
	AccountHash string `json:"accountHash"`
	DisplayName string `json:"displayName"`
}

// StatSnapshot is one timestamped record of a player's full stat state.
// Snapshots are append-only.
type StatSnapshot struct {
	DisplayName string    `json:"displayName"`
	Timestamp   time.Time `json:"timestamp"`
	Stats       Stats     `json:"stats"`
}

// LeaderboardEntry is a cached top-player row
type LeaderboardEntry struct {
	DisplayName string `json:"displayName"`
	Score       int    `json:"leaguePoints"`
}
