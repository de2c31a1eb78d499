// Package identity keeps an account's display name in step with the roster
// across renames.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mcoot/leaguetracker/internal/dependencies/clock"
	"github.com/mcoot/leaguetracker/internal/dependencies/random"
	"github.com/mcoot/leaguetracker/internal/events"
	"github.com/mcoot/leaguetracker/internal/model"
	"github.com/mcoot/leaguetracker/internal/storage"
)

var tracer = otel.Tracer("github.com/mcoot/leaguetracker/internal/services/identity")

// Config holds reconciliation settings
type Config struct {
	// RetryBackoff is the base pause between attempts. Each pause adds up to
	// the same again as random jitter.
	RetryBackoff time.Duration
	// MaxAttempts stops retrying after this many attempts. Zero retries until
	// the context is done.
	MaxAttempts int
}

// DefaultConfig returns the default reconciliation settings
func DefaultConfig() Config {
	return Config{RetryBackoff: 50 * time.Millisecond}
}

// Result describes a successful reconciliation
type Result struct {
	// Previous is the account record that was replaced, nil for a new account
	Previous *model.AccountRecord
	// Renamed is true when the account moved to a different display name
	Renamed bool
	// Attempts is the number of transaction attempts made
	Attempts int
}

// Reconciler binds account hashes to display names
type Reconciler struct {
	store  storage.Storage
	clock  clock.Clock
	random random.Random
	sink   events.Sink
	cfg    Config
	logger *slog.Logger
}

// New creates a new Reconciler
func New(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	sink events.Sink,
	cfg Config,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		store:  store,
		clock:  clk,
		random: rnd,
		sink:   sink,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "identity")),
	}
}

// Setup records that accountHash is now known as displayName. In a single
// transaction it replaces the account record, ensures displayName is on the
// roster and, if the account was previously known under another name, removes
// that name from the roster. Stored snapshots under the old name are left
// where they are.
//
// A retryable failure reruns the whole transaction, including the read of the
// previous record.
func (r *Reconciler) Setup(ctx context.Context, accountHash, displayName string) (_ *Result, err error) {
	accountHash = strings.TrimSpace(accountHash)
	displayName = strings.TrimSpace(displayName)
	if accountHash == "" || displayName == "" {
		return nil, model.ErrInvalidSetup
	}

	ctx, span := tracer.Start(ctx, "Setup")
	span.SetAttributes(
		attribute.String("account.hash", accountHash),
		attribute.String("account.display_name", displayName),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	record := model.AccountRecord{AccountHash: accountHash, DisplayName: displayName}

	for attempt := 1; ; attempt++ {
		var previous *model.AccountRecord
		err := r.store.RunInTx(ctx, func(ctx context.Context, tx storage.Tx) error {
			var err error
			previous, err = tx.SwapAccount(ctx, record)
			if err != nil {
				return err
			}
			if err := tx.UpsertPlayer(ctx, displayName); err != nil {
				return err
			}
			if previous != nil && previous.DisplayName != displayName {
				return tx.DeletePlayer(ctx, previous.DisplayName)
			}
			return nil
		})
		if err == nil {
			result := &Result{
				Previous: previous,
				Renamed:  previous != nil && previous.DisplayName != displayName,
				Attempts: attempt,
			}
			span.SetAttributes(
				attribute.Int("setup.attempts", attempt),
				attribute.Bool("setup.renamed", result.Renamed),
			)
			if result.Renamed {
				r.logger.Info("account renamed",
					slog.String("account_hash", accountHash),
					slog.String("from", previous.DisplayName),
					slog.String("to", displayName),
				)
			}
			r.sink.Emit(ctx, events.Event{Kind: events.SetupComplete, Player: displayName, Attempt: attempt})
			return result, nil
		}

		if !r.store.IsRetryable(err) {
			r.sink.Emit(ctx, events.Event{Kind: events.SetupFailed, Player: displayName, Attempt: attempt, Err: err})
			return nil, fmt.Errorf("setup account %s: %w", accountHash, err)
		}
		if r.cfg.MaxAttempts > 0 && attempt >= r.cfg.MaxAttempts {
			r.sink.Emit(ctx, events.Event{Kind: events.SetupFailed, Player: displayName, Attempt: attempt, Err: err})
			return nil, fmt.Errorf("setup account %s: giving up after %d attempts: %w", accountHash, attempt, err)
		}

		r.sink.Emit(ctx, events.Event{Kind: events.SetupRetry, Player: displayName, Attempt: attempt, Err: err})
		if err := clock.Sleep(ctx, r.clock, r.backoff()); err != nil {
			return nil, fmt.Errorf("setup account %s: %w", accountHash, err)
		}
	}
}

func (r *Reconciler) backoff() time.Duration {
	return r.cfg.RetryBackoff + r.random.Duration(r.cfg.RetryBackoff)
}
