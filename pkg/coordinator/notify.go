package coordinator

import (
	"time"

	"github.com/csip-protocol/csip-go/pkg/att"
	"github.com/csip-protocol/csip-go/pkg/log"
	"github.com/csip-protocol/csip-go/pkg/setid"
)

// Change notification handlers. Each is bound to one subscribed
// characteristic value handle during discovery. Notifications are best
// effort: malformed payloads and unknown handles are logged and dropped,
// never surfaced as errors.

func (c *Coordinator) sirkNotifyFunc(member *SetMember, handle att.Handle) att.NotifyFunc {
	return func(data []byte) {
		if data == nil {
			c.markUnsubscribed(member, handle)
			return
		}
		c.emitNotification(member, handle, len(data))

		c.mu.Lock()
		inst := member.instanceByHandle(handle)
		c.mu.Unlock()
		if inst == nil {
			c.logger.Debug("notification on unknown instance", "member", member.id, "handle", uint16(handle))
			return
		}

		sirk, err := c.resolveSIRK(member, data)
		if err != nil {
			c.logger.Debug("could not resolve notified SIRK", "member", member.id, "err", err)
			return
		}

		c.mu.Lock()
		inst.info.SIRK = sirk
		c.mu.Unlock()
	}
}

func (c *Coordinator) sizeNotifyFunc(member *SetMember, handle att.Handle) att.NotifyFunc {
	return func(data []byte) {
		if data == nil {
			c.markUnsubscribed(member, handle)
			return
		}
		c.emitNotification(member, handle, len(data))

		c.mu.Lock()
		defer c.mu.Unlock()

		inst := member.instanceByHandle(handle)
		if inst == nil {
			c.logger.Debug("notification on unknown instance", "member", member.id, "handle", uint16(handle))
			return
		}
		if len(data) != 1 {
			c.logger.Debug("invalid set size length", "member", member.id, "len", len(data))
			return
		}

		c.logger.Debug("set size updated", "member", member.id,
			"from", inst.info.Size, "to", data[0])
		inst.info.Size = data[0]
	}
}

func (c *Coordinator) lockNotifyFunc(member *SetMember, handle att.Handle) att.NotifyFunc {
	return func(data []byte) {
		if data == nil {
			c.markUnsubscribed(member, handle)
			return
		}
		c.emitNotification(member, handle, len(data))

		c.mu.Lock()
		inst := member.instanceByHandle(handle)
		if inst == nil {
			c.mu.Unlock()
			c.logger.Debug("notification on unknown instance", "member", member.id, "handle", uint16(handle))
			return
		}
		if len(data) != 1 {
			c.mu.Unlock()
			c.logger.Debug("invalid lock value length", "member", member.id, "len", len(data))
			return
		}
		value := data[0]
		if value != setid.LockReleased && value != setid.LockLocked {
			c.mu.Unlock()
			c.logger.Debug("invalid lock value", "member", member.id, "value", value)
			return
		}
		inst.lockState = value
		locked := value == setid.LockLocked
		c.mu.Unlock()

		c.logger.Debug("lock changed", "member", member.id, "instance", inst.idx, "locked", locked)
		c.emitLockChange(inst, locked)

		if cb := c.callbacks().LockChanged; cb != nil {
			cb(inst, locked)
		}
	}
}

// markUnsubscribed records that the peer cancelled a subscription.
func (c *Coordinator) markUnsubscribed(member *SetMember, handle att.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inst := member.instanceByHandle(handle)
	if inst == nil {
		return
	}
	switch handle {
	case inst.sirkHandle:
		inst.sirkSubActive = false
	case inst.sizeHandle:
		inst.sizeSubActive = false
	case inst.lockHandle:
		inst.lockSubActive = false
	}
	c.logger.Debug("unsubscribed", "member", member.id, "handle", uint16(handle))
}

func (c *Coordinator) emitNotification(member *SetMember, handle att.Handle, size int) {
	c.plog.Log(log.Event{
		Timestamp: time.Now(),
		MemberID:  member.id,
		Direction: log.DirectionIn,
		Category:  log.CategoryAttOp,
		AttOp: &log.AttOpEvent{
			Op:     log.AttOpNotification,
			Handle: uint16(handle),
			Size:   size,
		},
	})
}
