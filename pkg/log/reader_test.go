package log

import (
	"path/filepath"
	"testing"
	"time"
)

func writeCapture(t *testing.T, events []Event) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "capture.clog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, event := range events {
		logger.Log(event)
	}
	logger.Close()
	return path
}

func TestReaderFilterByMember(t *testing.T) {
	path := writeCapture(t, []Event{
		{Timestamp: time.Now(), MemberID: "member-1", Direction: DirectionOut, Category: CategoryAttOp},
		{Timestamp: time.Now(), MemberID: "member-2", Direction: DirectionOut, Category: CategoryAttOp},
		{Timestamp: time.Now(), MemberID: "member-1", Direction: DirectionIn, Category: CategoryLock},
	})

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	events, err := reader.ReadAll(&Filter{MemberID: "member-1"})
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	for _, event := range events {
		if event.MemberID != "member-1" {
			t.Errorf("unexpected member: %q", event.MemberID)
		}
	}
}

func TestReaderFilterByCategoryAndDirection(t *testing.T) {
	path := writeCapture(t, []Event{
		{Timestamp: time.Now(), Direction: DirectionOut, Category: CategoryAttOp, Procedure: ProcedureLock},
		{Timestamp: time.Now(), Direction: DirectionIn, Category: CategoryAttOp},
		{Timestamp: time.Now(), Direction: DirectionIn, Category: CategoryLock},
	})

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	in := DirectionIn
	attOp := CategoryAttOp
	events, err := reader.ReadAll(&Filter{Direction: &in, Category: &attOp})
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
}

func TestReaderFilterByTime(t *testing.T) {
	base := time.Date(2026, 8, 12, 12, 0, 0, 0, time.UTC)
	path := writeCapture(t, []Event{
		{Timestamp: base, Direction: DirectionOut, Category: CategoryAttOp},
		{Timestamp: base.Add(time.Minute), Direction: DirectionOut, Category: CategoryAttOp},
		{Timestamp: base.Add(2 * time.Minute), Direction: DirectionOut, Category: CategoryAttOp},
	})

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	start := base.Add(30 * time.Second)
	end := base.Add(90 * time.Second)
	events, err := reader.ReadAll(&Filter{TimeStart: &start, TimeEnd: &end})
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if !events[0].Timestamp.Equal(base.Add(time.Minute)) {
		t.Errorf("wrong event selected: %v", events[0].Timestamp)
	}
}

func TestReaderFilterByProcedure(t *testing.T) {
	path := writeCapture(t, []Event{
		{Timestamp: time.Now(), Direction: DirectionOut, Category: CategoryAttOp, Procedure: ProcedureLock},
		{Timestamp: time.Now(), Direction: DirectionOut, Category: CategoryAttOp, Procedure: ProcedureRelease},
	})

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	lock := ProcedureLock
	events, err := reader.ReadAll(&Filter{Procedure: &lock})
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Procedure != ProcedureLock {
		t.Errorf("Procedure: got %v, want %v", events[0].Procedure, ProcedureLock)
	}
}
