// Command csip-example demonstrates the set coordinator against simulated
// set members.
//
// This example shows how to:
//   - Wrap connections in SetMembers and register callbacks
//   - Discover service instances and characteristic handles
//   - Read and decrypt each member's set identity
//   - Check, acquire and release the set-wide lock in rank order
//
// Usage:
//
//	go run ./cmd/csip-example
//
// The coordinator will:
//  1. Discover both simulated members
//  2. Read SIRK, set size and rank for each
//  3. Verify no member already holds its lock
//  4. Lock all members by ascending rank, then release them again
package main

import (
	"context"
	stdlog "log"
	"log/slog"
	"os"

	"github.com/csip-protocol/csip-go/internal/simpeer"
	"github.com/csip-protocol/csip-go/pkg/coordinator"
	"github.com/csip-protocol/csip-go/pkg/log"
	"github.com/csip-protocol/csip-go/pkg/setid"
)

func main() {
	stdlog.SetFlags(stdlog.Ltime | stdlog.Lmicroseconds)
	stdlog.Println("CSIP Example Coordinator")
	stdlog.Println("========================")

	sirk := setid.SIRK{
		0xcd, 0xcc, 0x72, 0xdd, 0x86, 0x8c, 0xcd, 0xce,
		0x22, 0xfd, 0xa1, 0x21, 0x09, 0x7d, 0x7d, 0x45,
	}
	ltk := []byte{
		0x67, 0x6e, 0x1b, 0x9b, 0xd4, 0x48, 0x69, 0x6f,
		0x06, 0x1e, 0xc6, 0x22, 0x3c, 0xe5, 0xce, 0xd9,
	}

	// A pair of earbuds: the right bud serves its SIRK encrypted.
	left := simpeer.New(simpeer.Config{SIRK: sirk, Size: 2, Rank: 1})
	right := simpeer.New(simpeer.Config{SIRK: sirk, Size: 2, Rank: 2, Encrypted: true, LTK: ltk})

	slogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := coordinator.DefaultConfig()
	cfg.Logger = slogger
	cfg.ProtocolLogger = log.NewSlogAdapter(slogger)

	coord, err := coordinator.New(cfg)
	if err != nil {
		stdlog.Fatalf("Failed to create coordinator: %v", err)
	}

	members := []*coordinator.SetMember{
		coordinator.NewSetMember(left),
		coordinator.NewSetMember(right),
	}

	// Every operation reports through these callbacks; the channel turns
	// the asynchronous choreography into a sequential walkthrough.
	done := make(chan error, 1)
	var info setid.SetInfo

	coord.RegisterCallbacks(coordinator.Callbacks{
		Discover: func(m *coordinator.SetMember, err error, instances int) {
			stdlog.Printf("Discover done: member=%s instances=%d err=%v", m.ID(), instances, err)
			done <- err
		},
		Sets: func(m *coordinator.SetMember, err error, instances int) {
			stdlog.Printf("DiscoverSets done: member=%s instances=%d err=%v", m.ID(), instances, err)
			done <- err
		},
		LockStateRead: func(i setid.SetInfo, err error, alreadyLocked bool) {
			stdlog.Printf("Lock state: alreadyLocked=%v err=%v", alreadyLocked, err)
			done <- err
		},
		LockSet: func(err error) {
			stdlog.Printf("Lock done: err=%v", err)
			done <- err
		},
		ReleaseSet: func(err error) {
			stdlog.Printf("Release done: err=%v", err)
			done <- err
		},
		LockChanged: func(inst *coordinator.Instance, locked bool) {
			stdlog.Printf("Lock changed: member=%s rank=%d locked=%v",
				inst.Member().ID(), inst.Rank(), locked)
		},
	})

	ctx := context.Background()

	for _, m := range members {
		must(coord.Discover(ctx, m))
		must(<-done)
		must(coord.DiscoverSets(ctx, m))
		must(<-done)
	}

	// Both members resolved the same set identity.
	info = members[0].Instances()[0].Info()
	stdlog.Printf("Resolved set: sirk=%s size=%d", info.SIRK, info.Size)

	must(coord.GetLockState(ctx, members, info))
	must(<-done)

	must(coord.Lock(ctx, members, info))
	must(<-done)
	stdlog.Println("Set locked; exclusive operations would run here")

	must(coord.Release(ctx, members, info))
	must(<-done)

	stdlog.Println("Done")
}

func must(err error) {
	if err != nil {
		stdlog.Fatalf("Fatal: %v", err)
	}
}
