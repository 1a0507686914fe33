package coordinator

import (
	"context"
	"fmt"

	"github.com/csip-protocol/csip-go/pkg/att"
	"github.com/csip-protocol/csip-go/pkg/log"
	"github.com/csip-protocol/csip-go/pkg/setid"
)

// Discover walks the member's attribute namespace for set identification
// service instances and their characteristic handles, subscribing to
// change notifications where the peer supports them.
//
// Discover returns once the walk has been issued; the outcome arrives via
// Callbacks.Discover with the number of instances found. Any previously
// discovered instances on the member are dropped, even if the walk fails.
func (c *Coordinator) Discover(ctx context.Context, member *SetMember) error {
	if member == nil {
		return ErrNilMember
	}
	if member.conn == nil {
		return ErrNoConn
	}
	if err := c.acquire(); err != nil {
		return err
	}

	c.mu.Lock()
	member.insts = nil
	c.mu.Unlock()

	c.emitState(member, log.ProcedureDiscover, "idle", "finding_services", "")

	go c.runDiscovery(ctx, member)
	return nil
}

func (c *Coordinator) runDiscovery(ctx context.Context, member *SetMember) {
	err := c.discoverMember(ctx, member)

	c.mu.Lock()
	count := len(member.insts)
	c.mu.Unlock()

	if err != nil {
		c.logger.Debug("discovery failed", "member", member.id, "err", err)
	} else {
		c.logger.Debug("discovery complete", "member", member.id, "instances", count)
	}
	c.emitState(member, log.ProcedureDiscover, "finding_characteristics", "done",
		fmt.Sprintf("instances=%d", count))

	c.release()
	if cb := c.callbacks().Discover; cb != nil {
		cb(member, err, count)
	}
}

func (c *Coordinator) discoverMember(ctx context.Context, member *SetMember) error {
	dctx, cancel := c.opCtx(ctx)
	svcs, err := member.conn.DiscoverPrimaryServices(dctx, setid.ServiceUUID, att.FullRange)
	cancel()
	c.emitAttOp(member, log.ProcedureDiscover, log.AttOpDiscoverServices, 0, len(svcs), err)
	if err != nil {
		return err
	}

	insts := make([]*Instance, 0, len(svcs))
	for i, svc := range svcs {
		if i == c.cfg.MaxInstances {
			break
		}
		insts = append(insts, &Instance{
			member:      member,
			idx:         i,
			startHandle: svc.Handle + 1,
			endHandle:   svc.EndHandle,
		})
	}

	c.mu.Lock()
	member.insts = insts
	c.mu.Unlock()

	for _, inst := range insts {
		if err := c.discoverInstance(ctx, member, inst); err != nil {
			return err
		}
	}
	return nil
}

// discoverInstance enumerates one instance's characteristics, recording
// value handles by UUID and subscribing to the notifying ones.
func (c *Coordinator) discoverInstance(ctx context.Context, member *SetMember, inst *Instance) error {
	rng := att.HandleRange{Start: inst.startHandle, End: inst.endHandle}

	dctx, cancel := c.opCtx(ctx)
	chars, err := member.conn.DiscoverCharacteristics(dctx, rng)
	cancel()
	c.emitAttOp(member, log.ProcedureDiscover, log.AttOpDiscoverCharacteristics, rng.Start, len(chars), err)
	if err != nil {
		return err
	}

	for _, ch := range chars {
		var notify att.NotifyFunc
		var active *bool

		c.mu.Lock()
		switch ch.UUID {
		case setid.SIRKUUID:
			inst.sirkHandle = ch.ValueHandle
			notify = c.sirkNotifyFunc(member, ch.ValueHandle)
			active = &inst.sirkSubActive
		case setid.SizeUUID:
			inst.sizeHandle = ch.ValueHandle
			notify = c.sizeNotifyFunc(member, ch.ValueHandle)
			active = &inst.sizeSubActive
		case setid.LockUUID:
			inst.lockHandle = ch.ValueHandle
			notify = c.lockNotifyFunc(member, ch.ValueHandle)
			active = &inst.lockSubActive
		case setid.RankUUID:
			inst.rankHandle = ch.ValueHandle
		}
		c.mu.Unlock()

		if notify == nil {
			continue
		}

		var cccValue uint16
		if ch.Properties&att.PropNotify != 0 {
			cccValue = att.CCCNotify
		} else if ch.Properties&att.PropIndicate != 0 {
			cccValue = att.CCCIndicate
		}
		if cccValue == 0 {
			continue
		}

		params := &att.SubscribeParams{
			ValueHandle: ch.ValueHandle,
			EndHandle:   inst.endHandle,
			Value:       cccValue,
			Notify:      notify,
		}
		sctx, cancel := c.opCtx(ctx)
		err := member.conn.Subscribe(sctx, params)
		cancel()
		c.emitAttOp(member, log.ProcedureDiscover, log.AttOpSubscribe, ch.ValueHandle, 0, err)
		if err != nil {
			// Notifications are best effort; a member that refuses the
			// subscription is still usable.
			c.logger.Debug("subscribe failed", "member", member.id,
				"handle", uint16(ch.ValueHandle), "err", err)
			continue
		}
		c.mu.Lock()
		*active = true
		c.mu.Unlock()
	}

	return nil
}

// DiscoverSets reads identity key, set size and rank for every instance
// found by Discover, decrypting the identity key when required.
//
// The outcome arrives via Callbacks.Sets. A read failure or an identity
// key that cannot be recovered terminates the whole run.
func (c *Coordinator) DiscoverSets(ctx context.Context, member *SetMember) error {
	if member == nil {
		return ErrNilMember
	}
	if member.conn == nil {
		return ErrNoConn
	}
	if err := c.acquire(); err != nil {
		return err
	}

	go c.runDiscoverSets(ctx, member)
	return nil
}

func (c *Coordinator) runDiscoverSets(ctx context.Context, member *SetMember) {
	err := c.syncMember(ctx, member)

	c.mu.Lock()
	count := len(member.insts)
	c.mu.Unlock()

	c.release()
	if cb := c.callbacks().Sets; cb != nil {
		cb(member, err, count)
	}
}

func (c *Coordinator) syncMember(ctx context.Context, member *SetMember) error {
	c.mu.Lock()
	insts := member.insts
	c.mu.Unlock()

	for _, inst := range insts {
		if inst.sirkHandle != 0 {
			data, err := c.read(ctx, member, inst.sirkHandle, log.ProcedureDiscoverSets)
			if err != nil {
				return err
			}
			sirk, err := c.resolveSIRK(member, data)
			if err != nil {
				return err
			}
			c.mu.Lock()
			inst.info.SIRK = sirk
			c.mu.Unlock()
		}

		if inst.sizeHandle != 0 {
			data, err := c.read(ctx, member, inst.sizeHandle, log.ProcedureDiscoverSets)
			if err != nil {
				return err
			}
			if len(data) == 1 {
				c.mu.Lock()
				inst.info.Size = data[0]
				c.mu.Unlock()
			} else {
				c.logger.Debug("invalid set size length", "member", member.id, "len", len(data))
			}
		}

		if inst.rankHandle != 0 {
			data, err := c.read(ctx, member, inst.rankHandle, log.ProcedureDiscoverSets)
			if err != nil {
				return err
			}
			if len(data) == 1 {
				c.mu.Lock()
				inst.rank = data[0]
				c.mu.Unlock()
			} else {
				c.logger.Debug("invalid rank length", "member", member.id, "len", len(data))
			}
		}
	}

	return nil
}

// resolveSIRK parses a SIRK characteristic value and decrypts it when the
// peer sent it encrypted.
func (c *Coordinator) resolveSIRK(member *SetMember, data []byte) (setid.SIRK, error) {
	value, err := setid.ParseSIRKValue(data)
	if err != nil {
		return setid.SIRK{}, err
	}

	if !value.Encrypted() {
		return setid.SIRK(value.Value), nil
	}

	if !c.cfg.EncryptedSIRKSupport {
		c.logger.Debug("encrypted SIRK not supported", "member", member.id)
		return setid.SIRK{}, ErrEncryptedSIRKNotSupported
	}

	key, err := member.conn.LongTermKey()
	if err != nil {
		return setid.SIRK{}, fmt.Errorf("%w: %w", ErrKeyUnavailable, err)
	}

	sirk, err := setid.DecryptSIRK(key, value.Value)
	if err != nil {
		return setid.SIRK{}, fmt.Errorf("decrypt SIRK: %w", err)
	}
	return sirk, nil
}
