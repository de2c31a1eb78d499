package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to stdout
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case OKResult:
		o.printOK(v)
	case Leaderboard:
		o.printLeaderboard(v)
	case PlayerStats:
		o.printPlayerStats(v)
	case RosterPage:
		o.printRosterPage(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// OKResult response type
type OKResult struct {
	OK bool `json:"ok"`
}

// LeaderboardEntry response type
type LeaderboardEntry struct {
	Rank         int    `json:"rank"`
	DisplayName  string `json:"displayName"`
	LeaguePoints int    `json:"leaguePoints"`
}

// Leaderboard response type
type Leaderboard struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// Skill response type
type Skill struct {
	Name  string `json:"name"`
	Rank  int    `json:"rank"`
	Level int    `json:"level"`
	XP    int    `json:"xp"`
}

// Activity response type
type Activity struct {
	Name  string `json:"name"`
	Rank  int    `json:"rank"`
	Score int    `json:"score"`
}

// PlayerStats response type
type PlayerStats struct {
	DisplayName  string     `json:"displayName"`
	RecordedAt   time.Time  `json:"recordedAt"`
	Skills       []Skill    `json:"skills"`
	Activities   []Activity `json:"activities"`
	Snapshots    int        `json:"snapshots"`
	LeaguePoints *int       `json:"leaguePoints"`
}

// RosterUser response type
type RosterUser struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// RosterItems response type
type RosterItems struct {
	Users []RosterUser `json:"users"`
}

// RosterPage response type
type RosterPage struct {
	Items   *RosterItems `json:"items"`
	HasNext bool         `json:"hasNext"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printOK(r OKResult) {
	if r.OK {
		fmt.Fprintln(o.w, "OK")
	} else {
		fmt.Fprintln(o.w, "Request was not applied")
	}
}

func (o *Output) printLeaderboard(l Leaderboard) {
	if len(l.Entries) == 0 {
		fmt.Fprintln(o.w, "Leaderboard is empty")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPLAYER\tLEAGUE POINTS")
	for _, e := range l.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", e.Rank, e.DisplayName, e.LeaguePoints)
	}
	_ = tw.Flush()
}

func (o *Output) printPlayerStats(p PlayerStats) {
	fmt.Fprintf(o.w, "Player: %s\n", p.DisplayName)
	fmt.Fprintf(o.w, "Recorded: %s (%d snapshots)\n", p.RecordedAt.Format(time.RFC3339), p.Snapshots)
	if p.LeaguePoints != nil {
		fmt.Fprintf(o.w, "League points: %d\n", *p.LeaguePoints)
	} else {
		fmt.Fprintln(o.w, "League points: unranked")
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nSKILL\tLEVEL\tXP\tRANK")
	for _, s := range p.Skills {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", s.Name, s.Level, s.XP, s.Rank)
	}
	_ = tw.Flush()

	if len(p.Activities) == 0 {
		return
	}
	tw = tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nACTIVITY\tSCORE\tRANK")
	for _, a := range p.Activities {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", a.Name, a.Score, a.Rank)
	}
	_ = tw.Flush()
}

func (o *Output) printRosterPage(r RosterPage) {
	if r.Items == nil {
		fmt.Fprintln(o.w, "No entries: past the end of the ranking")
		return
	}
	for _, u := range r.Items.Users {
		fmt.Fprintf(o.w, "%s\t%d\n", u.Name, u.Score)
	}
	if r.HasNext {
		fmt.Fprintln(o.w, "(more pages follow)")
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}
