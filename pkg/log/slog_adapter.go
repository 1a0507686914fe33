package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes coordination events to an slog.Logger.
// Useful for development when you want to see protocol events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("direction", event.Direction.String()),
		slog.String("category", event.Category.String()),
	}

	if event.MemberID != "" {
		attrs = append(attrs, slog.String("member_id", event.MemberID))
	}
	if event.Procedure != ProcedureNone {
		attrs = append(attrs, slog.String("procedure", event.Procedure.String()))
	}

	// Add type-specific attributes
	switch {
	case event.AttOp != nil:
		attrs = append(attrs, slog.String("op", event.AttOp.Op.String()))
		if event.AttOp.Handle != 0 {
			attrs = append(attrs, slog.Uint64("handle", uint64(event.AttOp.Handle)))
		}
		if event.AttOp.Size != 0 {
			attrs = append(attrs, slog.Int("size", event.AttOp.Size))
		}
		if event.AttOp.Err != "" {
			attrs = append(attrs, slog.String("err", event.AttOp.Err))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("from", event.StateChange.From),
			slog.String("to", event.StateChange.To),
		)
		if event.StateChange.Detail != "" {
			attrs = append(attrs, slog.String("detail", event.StateChange.Detail))
		}
	case event.LockChange != nil:
		attrs = append(attrs,
			slog.Int("instance", event.LockChange.Instance),
			slog.Bool("locked", event.LockChange.Locked),
		)
		if event.LockChange.Rank != 0 {
			attrs = append(attrs, slog.Uint64("rank", uint64(event.LockChange.Rank)))
		}
	case event.Error != nil:
		attrs = append(attrs, slog.String("error", event.Error.Message))
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "coordination event", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
