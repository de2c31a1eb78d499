package response

import (
	"sort"
	"time"

	"github.com/mcoot/leaguetracker/internal/hiscores"
	"github.com/mcoot/leaguetracker/internal/model"
)

// OK is the response for successful commands
type OK struct {
	OK bool `json:"ok"`
}

// Health is the response for the health endpoint
type Health struct {
	Status string `json:"status"`
}

// LeaderboardEntry represents a leaderboard row
type LeaderboardEntry struct {
	Rank         int    `json:"rank"`
	DisplayName  string `json:"displayName"`
	LeaguePoints int    `json:"leaguePoints"`
}

// Leaderboard is the cached top-players view
type Leaderboard struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// LeaderboardFromModel converts stored entries, ranking them by position
func LeaderboardFromModel(entries []model.LeaderboardEntry) Leaderboard {
	out := make([]LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = LeaderboardEntry{Rank: i + 1, DisplayName: e.DisplayName, LeaguePoints: e.Score}
	}
	return Leaderboard{Entries: out}
}

// Skill represents one skill row
type Skill struct {
	Name  string `json:"name"`
	Rank  int    `json:"rank"`
	Level int    `json:"level"`
	XP    int    `json:"xp"`
}

// Activity represents one ranked activity
type Activity struct {
	Name  string `json:"name"`
	Rank  int    `json:"rank"`
	Score int    `json:"score"`
}

// PlayerStats is the latest recorded snapshot for a player
type PlayerStats struct {
	DisplayName string     `json:"displayName"`
	RecordedAt  time.Time  `json:"recordedAt"`
	Skills      []Skill    `json:"skills"`
	Activities  []Activity `json:"activities"`
	Snapshots   int        `json:"snapshots"`
	// LeaguePoints is null when the player is unranked in the league
	LeaguePoints *int `json:"leaguePoints"`
}

// PlayerStatsFromModel converts a snapshot. Skills keep hiscores order;
// activities are sorted by name and unranked ones are omitted.
func PlayerStatsFromModel(snap *model.StatSnapshot, history int) PlayerStats {
	skills := make([]Skill, 0, len(model.Skills))
	for _, s := range model.Skills {
		entry, ok := snap.Stats.Skills[s]
		if !ok {
			continue
		}
		skills = append(skills, Skill{Name: string(s), Rank: entry.Rank, Level: entry.Level, XP: entry.XP})
	}

	activities := make([]Activity, 0, len(snap.Stats.Activities))
	for a, entry := range snap.Stats.Activities {
		activities = append(activities, Activity{Name: string(a), Rank: entry.Rank, Score: entry.Score})
	}
	sort.Slice(activities, func(i, j int) bool { return activities[i].Name < activities[j].Name })

	out := PlayerStats{
		DisplayName: snap.DisplayName,
		RecordedAt:  snap.Timestamp,
		Skills:      skills,
		Activities:  activities,
		Snapshots:   history,
	}
	if league, ok := snap.Stats.Activity(model.ActivityLeaguePoints); ok {
		out.LeaguePoints = &league.Score
	}
	return out
}

// RosterPage wraps one ranking page. Items is null past the end of the
// roster.
type RosterPage struct {
	Items   *hiscores.Page `json:"items"`
	HasNext bool           `json:"hasNext"`
}

// RosterPageFromSource converts a fetched page
func RosterPageFromSource(p *hiscores.Page) RosterPage {
	if p == nil || (len(p.Entries) == 0 && !p.HasNext) {
		return RosterPage{}
	}
	return RosterPage{Items: p, HasNext: p.HasNext}
}
