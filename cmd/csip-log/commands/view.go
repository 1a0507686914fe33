// Package commands implements the csip-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/csip-protocol/csip-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	MemberID  string
	Direction *log.Direction
	Category  *log.Category
	Procedure *log.Procedure
}

func (f ViewFilter) matches(event log.Event) bool {
	if f.MemberID != "" && !strings.HasPrefix(event.MemberID, f.MemberID) {
		return false
	}
	if f.Direction != nil && event.Direction != *f.Direction {
		return false
	}
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.Procedure != nil && event.Procedure != *f.Procedure {
		return false
	}
	return true
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [member:id] DIRECTION CATEGORY Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	memberID := shortenMemberID(event.MemberID)
	dir := event.Direction.String()

	var typeLabel string
	switch {
	case event.AttOp != nil:
		typeLabel = event.AttOp.Op.String()
	case event.StateChange != nil:
		typeLabel = "State"
	case event.LockChange != nil:
		typeLabel = "LockChange"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [member:%s] %-3s %s %s\n", ts, memberID, dir, event.Category.String(), typeLabel)

	if event.Procedure != log.ProcedureNone {
		fmt.Fprintf(w, "  Procedure: %s\n", event.Procedure.String())
	}

	switch {
	case event.AttOp != nil:
		formatAttOpDetails(w, event.AttOp)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.LockChange != nil:
		formatLockChangeDetails(w, event.LockChange)
	case event.Error != nil:
		fmt.Fprintf(w, "  Message: %s\n", event.Error.Message)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenMemberID returns the first 8 characters of the member ID.
func shortenMemberID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatAttOpDetails writes attribute operation details.
func formatAttOpDetails(w io.Writer, op *log.AttOpEvent) {
	if op.Handle != 0 {
		fmt.Fprintf(w, "  Handle: 0x%04X\n", op.Handle)
	}
	if op.Size != 0 {
		fmt.Fprintf(w, "  Size: %d bytes\n", op.Size)
	}
	if op.Err != "" {
		fmt.Fprintf(w, "  Error: %s\n", op.Err)
	}
}

// formatStateChangeDetails writes state change details.
func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.From != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.From, sc.To)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.To)
	}
	if sc.Detail != "" {
		fmt.Fprintf(w, "  Detail: %s\n", sc.Detail)
	}
}

// formatLockChangeDetails writes lock change details.
func formatLockChangeDetails(w io.Writer, lc *log.LockChangeEvent) {
	fmt.Fprintf(w, "  Instance: %d\n", lc.Instance)
	if lc.Rank != 0 {
		fmt.Fprintf(w, "  Rank: %d\n", lc.Rank)
	}
	fmt.Fprintf(w, "  Locked: %v\n", lc.Locked)
}

// ParseDirectionFlag parses a direction string from command-line flag (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	return parseDirection(s)
}

func parseDirection(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	return parseCategory(s)
}

func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "attop", "att":
		return log.CategoryAttOp, nil
	case "state":
		return log.CategoryState, nil
	case "lock":
		return log.CategoryLock, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be attop, state, lock, or error)", s)
	}
}

// ParseProcedureFlag parses a procedure string from command-line flag (case-insensitive).
func ParseProcedureFlag(s string) (log.Procedure, error) {
	return parseProcedure(s)
}

func parseProcedure(s string) (log.Procedure, error) {
	switch strings.ToLower(s) {
	case "discover":
		return log.ProcedureDiscover, nil
	case "discover-sets", "sets":
		return log.ProcedureDiscoverSets, nil
	case "lock-state":
		return log.ProcedureLockState, nil
	case "lock":
		return log.ProcedureLock, nil
	case "release":
		return log.ProcedureRelease, nil
	default:
		return 0, fmt.Errorf("invalid procedure: %s (must be discover, discover-sets, lock-state, lock, or release)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		if !filter.matches(event) {
			continue
		}

		formatEvent(output, event)
	}

	return nil
}
