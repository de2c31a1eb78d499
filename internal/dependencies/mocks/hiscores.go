package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/mcoot/leaguetracker/internal/hiscores"
	"github.com/mcoot/leaguetracker/internal/model"
)

// ErrNoPage is returned by MockRosterSource for pages that were never set
var ErrNoPage = errors.New("mock: no such page")

// MockRosterSource serves canned ranking pages
type MockRosterSource struct {
	mu     sync.Mutex
	pages  map[int]*hiscores.Page
	errs   map[int]error
	calls  []int
	hookFn func(page int)
}

// Ensure MockRosterSource implements RosterSource
var _ hiscores.RosterSource = (*MockRosterSource)(nil)

// NewMockRosterSource creates an empty MockRosterSource
func NewMockRosterSource() *MockRosterSource {
	return &MockRosterSource{
		pages: make(map[int]*hiscores.Page),
		errs:  make(map[int]error),
	}
}

// SetPage serves the given names (score 0) for page
func (m *MockRosterSource) SetPage(page int, hasNext bool, names ...string) {
	entries := make([]hiscores.Entry, len(names))
	for i, name := range names {
		entries[i] = hiscores.Entry{Name: name}
	}
	m.SetEntries(page, hasNext, entries...)
}

// SetEntries serves the given entries for page
func (m *MockRosterSource) SetEntries(page int, hasNext bool, entries ...hiscores.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[page] = &hiscores.Page{Entries: entries, HasNext: hasNext}
	delete(m.errs, page)
}

// FailPage makes fetches of page return err
func (m *MockRosterSource) FailPage(page int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[page] = err
}

// OnFetch registers a callback run before each fetch
func (m *MockRosterSource) OnFetch(fn func(page int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hookFn = fn
}

// FetchPage returns the configured page or error
func (m *MockRosterSource) FetchPage(ctx context.Context, page int) (*hiscores.Page, error) {
	m.mu.Lock()
	m.calls = append(m.calls, page)
	hook := m.hookFn
	m.mu.Unlock()

	if hook != nil {
		hook(page)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.errs[page]; ok {
		return nil, err
	}
	p, ok := m.pages[page]
	if !ok {
		return nil, ErrNoPage
	}
	entries := make([]hiscores.Entry, len(p.Entries))
	copy(entries, p.Entries)
	return &hiscores.Page{Entries: entries, HasNext: p.HasNext}, nil
}

// Calls returns every page index fetched, in order
func (m *MockRosterSource) Calls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.calls))
	copy(out, m.calls)
	return out
}

// MockStatSource serves canned stats per player
type MockStatSource struct {
	mu    sync.Mutex
	stats map[string]model.Stats
	errs  map[string]error
	calls map[string]int
}

// Ensure MockStatSource implements StatSource
var _ hiscores.StatSource = (*MockStatSource)(nil)

// NewMockStatSource creates an empty MockStatSource. Unknown players are not found.
func NewMockStatSource() *MockStatSource {
	return &MockStatSource{
		stats: make(map[string]model.Stats),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

// SetStats serves stats for the player
func (m *MockStatSource) SetStats(displayName string, stats model.Stats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[displayName] = stats
	delete(m.errs, displayName)
}

// Fail makes fetches for the player return err
func (m *MockStatSource) Fail(displayName string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[displayName] = err
}

// FetchStats returns the configured stats or error
func (m *MockStatSource) FetchStats(ctx context.Context, displayName string) (*model.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[displayName]++
	if err, ok := m.errs[displayName]; ok {
		return nil, err
	}
	stats, ok := m.stats[displayName]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return &stats, nil
}

// Calls returns how many times the player's stats were fetched
func (m *MockStatSource) Calls(displayName string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[displayName]
}

// TotalCalls returns the number of fetches across all players
func (m *MockStatSource) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}
