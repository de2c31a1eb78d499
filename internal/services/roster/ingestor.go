// Package roster discovers player names by walking the public ranking.
package roster

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/leaguetracker/internal/dependencies/clock"
	"github.com/mcoot/leaguetracker/internal/events"
	"github.com/mcoot/leaguetracker/internal/hiscores"
	"github.com/mcoot/leaguetracker/internal/storage"
)

// Config holds ingestion settings
type Config struct {
	// Interval is the pause between cycles in Run
	Interval time.Duration
	// MaxPages caps the pages fetched by one cycle. Zero means no cap.
	MaxPages int
}

// DefaultConfig returns the default ingestion settings
func DefaultConfig() Config {
	return Config{Interval: 30 * time.Second}
}

// Result summarises one ingestion cycle
type Result struct {
	// Names holds every distinct name seen during the cycle, in ranking order
	Names []string
	// Pages is the number of pages fetched successfully
	Pages int
	// Reset is true when the cursor went back to the start of the ranking
	Reset bool
	// Err is the fetch failure that ended the cycle, if any
	Err error
}

// Ingestor walks the ranking page by page and upserts every name it sees.
// The cursor survives between cycles.
type Ingestor struct {
	source hiscores.RosterSource
	store  storage.Storage
	clock  clock.Clock
	sink   events.Sink
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	cursor int
}

// New creates a new Ingestor starting at page 0
func New(
	source hiscores.RosterSource,
	store storage.Storage,
	clk clock.Clock,
	sink events.Sink,
	cfg Config,
	logger *slog.Logger,
) *Ingestor {
	return &Ingestor{
		source: source,
		store:  store,
		clock:  clk,
		sink:   sink,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "roster")),
	}
}

// Cursor returns the page the next cycle will start from
func (i *Ingestor) Cursor() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.cursor
}

// RunCycle fetches pages from the cursor until the ranking ends, a fetch
// fails or MaxPages is reached. Cycles are serialised.
func (i *Ingestor) RunCycle(ctx context.Context) Result {
	i.mu.Lock()
	defer i.mu.Unlock()

	var result Result
	seen := make(map[string]struct{})

	for {
		if err := ctx.Err(); err != nil {
			result.Err = err
			break
		}
		if i.cfg.MaxPages > 0 && result.Pages >= i.cfg.MaxPages {
			break
		}

		index := i.cursor
		page, err := i.source.FetchPage(ctx, index)
		if err != nil {
			i.cursor = 0
			result.Reset = true
			result.Err = err
			i.sink.Emit(ctx, events.Event{Kind: events.RosterPageFailed, Page: index, Err: err})
			break
		}

		stored := 0
		for _, entry := range page.Entries {
			if _, dup := seen[entry.Name]; !dup {
				seen[entry.Name] = struct{}{}
				result.Names = append(result.Names, entry.Name)
			}
			if err := i.store.UpsertPlayer(ctx, entry.Name); err != nil {
				i.sink.Emit(ctx, events.Event{Kind: events.RosterUpsertFailed, Player: entry.Name, Page: index, Err: err})
				continue
			}
			stored++
		}
		result.Pages++
		i.sink.Emit(ctx, events.Event{Kind: events.RosterPageStored, Page: index, Count: stored})

		if !page.HasNext {
			i.cursor = 0
			result.Reset = true
			break
		}
		i.cursor = index + 1
	}

	i.sink.Emit(ctx, events.Event{Kind: events.RosterCycleComplete, Page: i.cursor, Count: len(result.Names), Err: result.Err})
	return result
}

// Run repeats RunCycle every Interval until ctx is cancelled
func (i *Ingestor) Run(ctx context.Context) error {
	i.logger.Info("roster loop started", slog.Duration("interval", i.cfg.Interval))
	for {
		result := i.RunCycle(ctx)
		i.logger.Debug("roster cycle finished",
			slog.Int("pages", result.Pages),
			slog.Int("names", len(result.Names)),
			slog.Int("next_page", i.Cursor()),
		)
		if err := ctx.Err(); err != nil {
			i.logger.Info("roster loop stopped")
			return err
		}
		if err := clock.Sleep(ctx, i.clock, i.cfg.Interval); err != nil {
			i.logger.Info("roster loop stopped")
			return err
		}
	}
}
