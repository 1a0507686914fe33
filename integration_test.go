package csip_test

import (
	"context"
	"testing"
	"time"

	"github.com/csip-protocol/csip-go/internal/simpeer"
	"github.com/csip-protocol/csip-go/pkg/coordinator"
	"github.com/csip-protocol/csip-go/pkg/setid"
)

var e2eSIRK = setid.SIRK{
	0xcd, 0xcc, 0x72, 0xdd, 0x86, 0x8c, 0xcd, 0xce,
	0x22, 0xfd, 0xa1, 0x21, 0x09, 0x7d, 0x7d, 0x45,
}

var e2eLTK = []byte{
	0x67, 0x6e, 0x1b, 0x9b, 0xd4, 0x48, 0x69, 0x6f,
	0x06, 0x1e, 0xc6, 0x22, 0x3c, 0xe5, 0xce, 0xd9,
}

type e2eHarness struct {
	coord       *coordinator.Coordinator
	discover    chan error
	sets        chan error
	lockSet     chan error
	releaseSet  chan error
	lockState   chan bool
	lockChanged chan bool
}

func newE2EHarness(t *testing.T) *e2eHarness {
	t.Helper()

	coord, err := coordinator.New(coordinator.DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	h := &e2eHarness{
		coord:       coord,
		discover:    make(chan error, 4),
		sets:        make(chan error, 4),
		lockSet:     make(chan error, 4),
		releaseSet:  make(chan error, 4),
		lockState:   make(chan bool, 4),
		lockChanged: make(chan bool, 16),
	}
	coord.RegisterCallbacks(coordinator.Callbacks{
		Discover: func(_ *coordinator.SetMember, err error, _ int) {
			h.discover <- err
		},
		Sets: func(_ *coordinator.SetMember, err error, _ int) {
			h.sets <- err
		},
		LockSet: func(err error) {
			h.lockSet <- err
		},
		ReleaseSet: func(err error) {
			h.releaseSet <- err
		},
		LockStateRead: func(_ setid.SetInfo, err error, alreadyLocked bool) {
			if err != nil {
				t.Errorf("lock state read failed: %v", err)
			}
			h.lockState <- alreadyLocked
		},
		LockChanged: func(_ *coordinator.Instance, locked bool) {
			h.lockChanged <- locked
		},
	})
	return h
}

func (h *e2eHarness) wait(t *testing.T, ch chan error) {
	t.Helper()
	select {
	case err := <-ch:
		if err != nil {
			t.Fatalf("operation failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
}

func (h *e2eHarness) setUp(t *testing.T, member *coordinator.SetMember) {
	t.Helper()
	if err := h.coord.Discover(context.Background(), member); err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	h.wait(t, h.discover)
	if err := h.coord.DiscoverSets(context.Background(), member); err != nil {
		t.Fatalf("DiscoverSets failed: %v", err)
	}
	h.wait(t, h.sets)
}

// TestE2E_LockChoreography walks the full client flow against simulated
// members: discovery, identity sync, lock state read, ordered lock,
// ordered release, with lock change notifications observed throughout.
func TestE2E_LockChoreography(t *testing.T) {
	h := newE2EHarness(t)

	left := simpeer.New(simpeer.Config{SIRK: e2eSIRK, Size: 2, Rank: 1})
	right := simpeer.New(simpeer.Config{
		SIRK: e2eSIRK, Size: 2, Rank: 2,
		Encrypted: true, LTK: e2eLTK,
	})

	members := []*coordinator.SetMember{
		coordinator.NewSetMember(left),
		coordinator.NewSetMember(right),
	}
	for _, member := range members {
		h.setUp(t, member)
	}

	// Both members resolved the same set, the encrypted one included.
	info := setid.SetInfo{SIRK: e2eSIRK, Size: 2}
	for i, member := range members {
		insts := member.Instances()
		if len(insts) != 1 {
			t.Fatalf("member %d: got %d instances, want 1", i, len(insts))
		}
		if !insts[0].Info().Equal(info) {
			t.Fatalf("member %d: resolved %+v, want %+v", i, insts[0].Info(), info)
		}
	}

	if err := h.coord.GetLockState(context.Background(), members, info); err != nil {
		t.Fatalf("GetLockState failed: %v", err)
	}
	select {
	case alreadyLocked := <-h.lockState:
		if alreadyLocked {
			t.Fatal("fresh set reported as locked")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for lock state")
	}

	if err := h.coord.Lock(context.Background(), members, info); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	h.wait(t, h.lockSet)
	for i, member := range members {
		if !member.Instances()[0].Locked() {
			t.Errorf("member %d not locked after Lock", i)
		}
	}

	// The members notified their lock changes.
	for i := 0; i < 2; i++ {
		select {
		case locked := <-h.lockChanged:
			if !locked {
				t.Error("unexpected release notification during lock")
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for lock notification")
		}
	}

	if err := h.coord.Release(context.Background(), members, info); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	h.wait(t, h.releaseSet)
	for i, member := range members {
		if member.Instances()[0].Locked() {
			t.Errorf("member %d still locked after Release", i)
		}
	}
}

// TestE2E_LockContention locks a member out of band and verifies that the
// coordinator reports the held lock, rolls a partial lock attempt back,
// and succeeds once the lock is released again.
func TestE2E_LockContention(t *testing.T) {
	h := newE2EHarness(t)

	first := simpeer.New(simpeer.Config{SIRK: e2eSIRK, Size: 2, Rank: 1})
	second := simpeer.New(simpeer.Config{SIRK: e2eSIRK, Size: 2, Rank: 2})

	members := []*coordinator.SetMember{
		coordinator.NewSetMember(first),
		coordinator.NewSetMember(second),
	}
	for _, member := range members {
		h.setUp(t, member)
	}
	info := setid.SetInfo{SIRK: e2eSIRK, Size: 2}

	// Another client holds rank 2.
	lockHandle := members[1].Instances()[0].LockHandle()
	if err := second.Write(context.Background(), lockHandle, []byte{setid.LockLocked}); err != nil {
		t.Fatalf("out of band lock failed: %v", err)
	}

	if err := h.coord.GetLockState(context.Background(), members, info); err != nil {
		t.Fatalf("GetLockState failed: %v", err)
	}
	select {
	case alreadyLocked := <-h.lockState:
		if !alreadyLocked {
			t.Fatal("held lock not reported")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for lock state")
	}

	// Lock attempt fails at rank 2 and restores rank 1.
	if err := h.coord.Lock(context.Background(), members, info); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	select {
	case err := <-h.lockSet:
		if err == nil {
			t.Fatal("lock succeeded against a held member")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for lock outcome")
	}
	if members[0].Instances()[0].Locked() {
		t.Error("rank 1 left locked after rollback")
	}

	// The other client releases; locking now succeeds.
	if err := second.Write(context.Background(), lockHandle, []byte{setid.LockReleased}); err != nil {
		t.Fatalf("out of band release failed: %v", err)
	}
	if err := h.coord.Lock(context.Background(), members, info); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	h.wait(t, h.lockSet)
}
