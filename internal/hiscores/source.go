// Package hiscores talks to the seasonal league hiscores: the paginated
// public ranking and the per-player index_lite stats endpoint.
package hiscores

import (
	"context"
	"errors"

	"github.com/mcoot/leaguetracker/internal/model"
)

var (
	// ErrMalformedPage is returned by the ranking parser when a row cannot
	// be interpreted
	ErrMalformedPage = errors.New("malformed ranking page")

	// ErrMalformedStats is returned when a stats response has missing or
	// unparsable skill lines
	ErrMalformedStats = errors.New("malformed stats response")
)

// Entry is a single row of the public ranking
type Entry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Page is one page of the public ranking
type Page struct {
	Entries []Entry `json:"users"`
	// HasNext is false once the ranking has no page after this one
	HasNext bool `json:"-"`
}

// RosterSource fetches pages of the public ranking.
// A returned error always means the fetch itself failed.
type RosterSource interface {
	FetchPage(ctx context.Context, page int) (*Page, error)
}

// StatSource fetches a player's full stats record.
// It returns model.ErrPlayerNotFound when the player has no hiscores entry.
type StatSource interface {
	FetchStats(ctx context.Context, displayName string) (*model.Stats, error)
}
