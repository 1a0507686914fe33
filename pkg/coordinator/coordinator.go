package coordinator

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/csip-protocol/csip-go/pkg/att"
	"github.com/csip-protocol/csip-go/pkg/log"
	"github.com/csip-protocol/csip-go/pkg/setid"
)

// Coordinator drives discovery, identity synchronization and the lock
// choreography across the members of a coordinated set.
//
// A single Coordinator serializes all of its operations: only one
// asynchronous attribute operation chain is ever outstanding, across all
// member connections.
type Coordinator struct {
	mu sync.Mutex

	cfg Config
	cbs Callbacks

	// busy gates every entry point; true from successful issuance of an
	// operation until its terminal callback fires.
	busy atomic.Bool

	// active is the single in-flight multi-member operation, nil when idle.
	active *activeOperation

	logger *slog.Logger
	plog   log.Logger
}

// New creates a Coordinator.
func New(cfg Config) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	plog := cfg.ProtocolLogger
	if plog == nil {
		plog = log.NoopLogger{}
	}

	return &Coordinator{
		cfg:    cfg,
		logger: logger,
		plog:   plog,
	}, nil
}

// RegisterCallbacks sets the callbacks receiving operation outcomes and
// lock change reports. It replaces any previously registered set.
func (c *Coordinator) RegisterCallbacks(cbs Callbacks) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cbs = cbs
}

func (c *Coordinator) callbacks() Callbacks {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cbs
}

// Busy reports whether an operation is currently in flight.
func (c *Coordinator) Busy() bool {
	return c.busy.Load()
}

// acquire claims the operation gate. It fails with ErrBusy when another
// operation is in flight.
func (c *Coordinator) acquire() error {
	if !c.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

// release clears the operation gate and the active operation context.
// Called immediately before the terminal callback so the callback may
// issue a follow-up operation.
func (c *Coordinator) release() {
	c.mu.Lock()
	c.active = nil
	c.mu.Unlock()
	c.busy.Store(false)
}

// opCtx bounds one attribute operation within a larger procedure.
func (c *Coordinator) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.cfg.RequestTimeout)
}

// read performs one attribute read against a member, with capture.
func (c *Coordinator) read(ctx context.Context, member *SetMember, handle att.Handle, proc log.Procedure) ([]byte, error) {
	rctx, cancel := c.opCtx(ctx)
	defer cancel()

	data, err := member.conn.Read(rctx, handle)
	c.emitAttOp(member, proc, log.AttOpRead, handle, len(data), err)
	return data, err
}

// writeLock writes the lock characteristic of an instance, with capture.
func (c *Coordinator) writeLock(ctx context.Context, inst *Instance, lock bool, proc log.Procedure) error {
	if inst.lockHandle == 0 {
		c.logger.Debug("lock handle not set", "member", inst.member.id, "instance", inst.idx)
		return ErrHandleNotSet
	}

	value := setid.LockReleased
	if lock {
		value = setid.LockLocked
	}

	wctx, cancel := c.opCtx(ctx)
	defer cancel()

	err := inst.member.conn.Write(wctx, inst.lockHandle, []byte{value})
	c.emitAttOp(inst.member, proc, log.AttOpWrite, inst.lockHandle, 1, err)
	return err
}

func (c *Coordinator) emitAttOp(member *SetMember, proc log.Procedure, op log.AttOp, handle att.Handle, size int, err error) {
	ev := log.Event{
		Timestamp: time.Now(),
		MemberID:  member.id,
		Direction: log.DirectionOut,
		Category:  log.CategoryAttOp,
		Procedure: proc,
		AttOp: &log.AttOpEvent{
			Op:     op,
			Handle: uint16(handle),
			Size:   size,
		},
	}
	if err != nil {
		ev.AttOp.Err = err.Error()
	}
	c.plog.Log(ev)
}

func (c *Coordinator) emitState(member *SetMember, proc log.Procedure, from, to, detail string) {
	memberID := ""
	if member != nil {
		memberID = member.id
	}
	c.plog.Log(log.Event{
		Timestamp: time.Now(),
		MemberID:  memberID,
		Direction: log.DirectionOut,
		Category:  log.CategoryState,
		Procedure: proc,
		StateChange: &log.StateChangeEvent{
			From:   from,
			To:     to,
			Detail: detail,
		},
	})
}

func (c *Coordinator) emitLockChange(inst *Instance, locked bool) {
	c.plog.Log(log.Event{
		Timestamp: time.Now(),
		MemberID:  inst.member.id,
		Direction: log.DirectionIn,
		Category:  log.CategoryLock,
		LockChange: &log.LockChangeEvent{
			Instance: inst.idx,
			Rank:     inst.rank,
			Locked:   locked,
		},
	})
}
