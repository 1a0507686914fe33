package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/csip-protocol/csip-go/pkg/log"
)

// Stats holds aggregate statistics about a capture file.
type Stats struct {
	TotalEvents       int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	EventsByProcedure map[log.Procedure]int
	Members           map[string]*MemberStats
	AttErrors         int
	LockChanges       int
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// MemberStats holds statistics for a single member connection.
type MemberStats struct {
	FirstSeen   time.Time
	LastSeen    time.Time
	Events      int
	AttOps      int
	LockChanges int
}

// RunStats analyzes the capture file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		EventsByProcedure: make(map[log.Procedure]int),
		Members:           make(map[string]*MemberStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++
		stats.EventsByDirection[event.Direction]++
		if event.Procedure != log.ProcedureNone {
			stats.EventsByProcedure[event.Procedure]++
		}

		// Track time range
		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		// Track member stats
		member, ok := stats.Members[event.MemberID]
		if !ok {
			member = &MemberStats{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
			}
			stats.Members[event.MemberID] = member
		}
		member.Events++
		if event.Timestamp.After(member.LastSeen) {
			member.LastSeen = event.Timestamp
		}

		if event.AttOp != nil {
			member.AttOps++
			if event.AttOp.Err != "" {
				stats.AttErrors++
			}
		}
		if event.LockChange != nil {
			member.LockChanges++
			stats.LockChanges++
		}
		if event.Error != nil {
			stats.Errors++
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Coordination Capture Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryAttOp, log.CategoryState, log.CategoryLock, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Procedure:")
	for _, proc := range []log.Procedure{
		log.ProcedureDiscover, log.ProcedureDiscoverSets,
		log.ProcedureLockState, log.ProcedureLock, log.ProcedureRelease,
	} {
		if count := stats.EventsByProcedure[proc]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", proc.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Members: %d\n", len(stats.Members))
	if len(stats.Members) > 0 {
		type memberInfo struct {
			id    string
			stats *MemberStats
		}
		members := make([]memberInfo, 0, len(stats.Members))
		for id, ms := range stats.Members {
			members = append(members, memberInfo{id, ms})
		}
		sort.Slice(members, func(i, j int) bool {
			return members[i].stats.FirstSeen.Before(members[j].stats.FirstSeen)
		})

		fmt.Fprintln(w, "")
		for _, m := range members {
			duration := m.stats.LastSeen.Sub(m.stats.FirstSeen).Round(time.Millisecond)
			shortID := m.id
			if len(shortID) > 8 {
				shortID = shortID[:8]
			}
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortID, m.stats.Events, duration)
			if m.stats.AttOps > 0 {
				fmt.Fprintf(w, "           AttOps: %d\n", m.stats.AttOps)
			}
			if m.stats.LockChanges > 0 {
				fmt.Fprintf(w, "           LockChanges: %d\n", m.stats.LockChanges)
			}
		}
	}

	if stats.AttErrors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Failed Attribute Operations: %d\n", stats.AttErrors)
	}
	if stats.Errors > 0 {
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
