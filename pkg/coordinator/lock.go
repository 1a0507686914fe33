package coordinator

import (
	"context"

	"github.com/csip-protocol/csip-go/pkg/att"
	"github.com/csip-protocol/csip-go/pkg/log"
	"github.com/csip-protocol/csip-go/pkg/setid"
)

// activeOperation is the context of the single in-flight multi-member
// operation: the verified member instances, the set they belong to, and
// the progress cursors threaded through the run.
type activeOperation struct {
	info  setid.SetInfo
	insts []*Instance // one per member, caller order

	// handled counts members the forward walk has completed.
	handled int

	// restored counts members the rollback walk has released.
	restored int

	// cur is the instance addressed by the next attribute operation.
	cur *Instance
}

// nextHigherRank returns the instance whose rank is nearest above rank.
// The member list was verified against one set, so a missing successor
// while the walk is unfinished means the caller supplied inconsistent
// member/set data.
func (op *activeOperation) nextHigherRank(rank uint8) (*Instance, error) {
	var next *Instance
	for _, inst := range op.insts {
		if inst.rank > rank && (next == nil || inst.rank < next.rank) {
			next = inst
		}
	}
	if next == nil {
		return nil, ErrInvariantViolation
	}
	return next, nil
}

// nextLowerRank returns the instance whose rank is nearest below rank.
func (op *activeOperation) nextLowerRank(rank uint8) (*Instance, error) {
	var next *Instance
	for _, inst := range op.insts {
		if inst.rank < rank && (next == nil || inst.rank > next.rank) {
			next = inst
		}
	}
	if next == nil {
		return nil, ErrInvariantViolation
	}
	return next, nil
}

// newOperation verifies the member list against the set description and
// builds the operation context. Every member must be non-nil, connected,
// and expose an instance whose resolved identity matches info. The walk
// starts from the lowest rank when lowestRank is true, the highest
// otherwise.
func (c *Coordinator) newOperation(members []*SetMember, info setid.SetInfo, lowestRank bool) (*activeOperation, error) {
	if len(members) == 0 {
		return nil, ErrNoMembers
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	op := &activeOperation{
		info:  info,
		insts: make([]*Instance, 0, len(members)),
	}

	for i, member := range members {
		if member == nil {
			c.logger.Debug("member is nil", "index", i)
			return nil, ErrNilMember
		}
		if member.conn == nil {
			c.logger.Debug("member conn is nil", "index", i)
			return nil, ErrNoConn
		}
		if member.conn.State() != att.StateConnected {
			c.logger.Debug("member not connected", "index", i, "member", member.id)
			return nil, ErrNotConnected
		}

		inst := member.instanceBySetInfo(info)
		if inst == nil {
			c.logger.Debug("no matching instance for set info", "index", i, "member", member.id)
			return nil, ErrSetNotFound
		}
		op.insts = append(op.insts, inst)

		if op.cur == nil ||
			(lowestRank && inst.rank < op.cur.rank) ||
			(!lowestRank && inst.rank > op.cur.rank) {
			op.cur = inst
		}
	}

	return op, nil
}

// start claims the busy gate and installs the verified operation context.
func (c *Coordinator) start(members []*SetMember, info setid.SetInfo, lowestRank bool) (*activeOperation, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}

	op, err := c.newOperation(members, info, lowestRank)
	if err != nil {
		c.busy.Store(false)
		return nil, err
	}

	c.mu.Lock()
	c.active = op
	c.mu.Unlock()
	return op, nil
}

// GetLockState reads the lock characteristic of every member in ascending
// rank order. The walk stops at the first member reporting a held lock:
// Callbacks.LockStateRead then reports alreadyLocked=true without reading
// the remaining members.
func (c *Coordinator) GetLockState(ctx context.Context, members []*SetMember, info setid.SetInfo) error {
	op, err := c.start(members, info, true)
	if err != nil {
		return err
	}

	go c.runGetLockState(ctx, op)
	return nil
}

func (c *Coordinator) runGetLockState(ctx context.Context, op *activeOperation) {
	finish := func(err error, alreadyLocked bool) {
		c.release()
		if cb := c.callbacks().LockStateRead; cb != nil {
			cb(op.info, err, alreadyLocked)
		}
	}

	for {
		inst := op.cur
		if inst.lockHandle == 0 {
			finish(ErrHandleNotSet, false)
			return
		}

		data, err := c.read(ctx, inst.member, inst.lockHandle, log.ProcedureLockState)
		if err != nil {
			c.logger.Debug("could not read lock value", "member", inst.member.id, "err", err)
			finish(err, false)
			return
		}

		if len(data) != 1 {
			c.logger.Debug("invalid lock value length", "member", inst.member.id, "len", len(data))
			finish(att.ErrInvalidAttributeLen, false)
			return
		}
		value := data[0]
		if value != setid.LockReleased && value != setid.LockLocked {
			c.logger.Debug("invalid lock value", "member", inst.member.id, "value", value)
			finish(att.ErrInvalidAttributeLen, false)
			return
		}

		c.mu.Lock()
		inst.lockState = value
		c.mu.Unlock()

		op.handled++
		c.logger.Debug("read lock state", "handled", op.handled, "count", len(op.insts))

		if value != setid.LockReleased {
			// Any member holding the lock blocks the whole set.
			finish(nil, true)
			return
		}

		if op.handled == len(op.insts) {
			finish(nil, false)
			return
		}

		op.cur, err = op.nextHigherRank(inst.rank)
		if err != nil {
			finish(err, false)
			return
		}
	}
}

// Lock acquires the lock on every member in ascending rank order. If a
// write fails after some members were locked, the already-locked members
// are released again in descending rank order before the lock failure is
// reported via Callbacks.LockSet; a rollback failure replaces the original
// error and leaves the set in a mixed lock state.
func (c *Coordinator) Lock(ctx context.Context, members []*SetMember, info setid.SetInfo) error {
	op, err := c.start(members, info, true)
	if err != nil {
		return err
	}

	go c.runLock(ctx, op)
	return nil
}

func (c *Coordinator) runLock(ctx context.Context, op *activeOperation) {
	finish := func(err error) {
		c.release()
		if cb := c.callbacks().LockSet; cb != nil {
			cb(err)
		}
	}

	for {
		inst := op.cur
		err := c.writeLock(ctx, inst, true, log.ProcedureLock)
		if err != nil {
			c.logger.Debug("could not lock member", "member", inst.member.id, "err", err)
			if op.handled == 0 {
				finish(err)
				return
			}
			// Highest already-locked member is the failed one's rank
			// predecessor.
			prev, perr := op.nextLowerRank(inst.rank)
			if perr != nil {
				finish(perr)
				return
			}
			finish(c.rollbackFrom(ctx, op, prev, err))
			return
		}

		c.mu.Lock()
		inst.lockState = setid.LockLocked
		c.mu.Unlock()

		op.handled++
		c.logger.Debug("locked member", "handled", op.handled, "count", len(op.insts))

		if op.handled == len(op.insts) {
			finish(nil)
			return
		}

		next, nerr := op.nextHigherRank(inst.rank)
		if nerr != nil {
			// inst itself is locked and counted; restore from it down.
			finish(c.rollbackFrom(ctx, op, inst, nerr))
			return
		}
		op.cur = next
	}
}

// rollbackFrom releases the already-locked members, walking descending by
// rank starting at cur. It returns lockErr once rollback completes; a
// rollback failure replaces lockErr.
func (c *Coordinator) rollbackFrom(ctx context.Context, op *activeOperation, cur *Instance, lockErr error) error {
	op.restored = 0
	for {
		if werr := c.writeLock(ctx, cur, false, log.ProcedureLock); werr != nil {
			c.logger.Debug("could not restore member", "member", cur.member.id, "err", werr)
			return werr
		}

		c.mu.Lock()
		cur.lockState = setid.LockReleased
		c.mu.Unlock()

		op.restored++
		c.logger.Debug("restored member", "restored", op.restored, "handled", op.handled)

		if op.restored == op.handled {
			return lockErr
		}

		next, err := op.nextLowerRank(cur.rank)
		if err != nil {
			return err
		}
		cur = next
	}
}

// Release releases the lock on every member in descending rank order.
// Releasing is itself the recovery action, so the first failure is
// reported via Callbacks.ReleaseSet without any rollback.
func (c *Coordinator) Release(ctx context.Context, members []*SetMember, info setid.SetInfo) error {
	op, err := c.start(members, info, false)
	if err != nil {
		return err
	}

	go c.runRelease(ctx, op)
	return nil
}

func (c *Coordinator) runRelease(ctx context.Context, op *activeOperation) {
	finish := func(err error) {
		c.release()
		if cb := c.callbacks().ReleaseSet; cb != nil {
			cb(err)
		}
	}

	for {
		inst := op.cur
		err := c.writeLock(ctx, inst, false, log.ProcedureRelease)
		if err != nil {
			c.logger.Debug("could not release member", "member", inst.member.id, "err", err)
			finish(err)
			return
		}

		c.mu.Lock()
		inst.lockState = setid.LockReleased
		c.mu.Unlock()

		op.handled++
		c.logger.Debug("released member", "handled", op.handled, "count", len(op.insts))

		if op.handled == len(op.insts) {
			finish(nil)
			return
		}

		op.cur, err = op.nextLowerRank(inst.rank)
		if err != nil {
			finish(err)
			return
		}
	}
}
