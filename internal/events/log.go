package events

import (
	"context"
	"log/slog"
)

// LogSink writes events to a structured logger. Failures log at warn,
// per-player progress at debug and everything else at info.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With(slog.String("component", "events"))}
}

func (s *LogSink) Emit(ctx context.Context, ev Event) {
	attrs := []slog.Attr{slog.String("kind", string(ev.Kind))}
	if ev.Player != "" {
		attrs = append(attrs, slog.String("player", ev.Player))
	}
	if ev.Page != 0 {
		attrs = append(attrs, slog.Int("page", ev.Page))
	}
	if ev.Attempt != 0 {
		attrs = append(attrs, slog.Int("attempt", ev.Attempt))
	}
	if ev.Count != 0 {
		attrs = append(attrs, slog.Int("count", ev.Count))
	}
	if ev.Err != nil {
		attrs = append(attrs, slog.String("error", ev.Err.Error()))
	}

	s.logger.LogAttrs(ctx, levelFor(ev), string(ev.Kind), attrs...)
}

func levelFor(ev Event) slog.Level {
	if ev.Err != nil {
		return slog.LevelWarn
	}
	switch ev.Kind {
	case SnapshotWritten, SnapshotUnchanged, SnapshotNotFound, RosterPageStored:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
