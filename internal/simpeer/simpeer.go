// Package simpeer provides an in-memory simulated set member for examples
// and integration tests. A Peer implements att.Conn directly: requests are
// answered synchronously from local state, and lock changes are pushed to
// subscribers like a real member would notify them.
package simpeer

import (
	"context"
	"errors"
	"sync"

	"github.com/csip-protocol/csip-go/pkg/att"
	"github.com/csip-protocol/csip-go/pkg/setid"
)

// Handle layout relative to Config.BaseHandle (the service declaration).
const (
	offSIRKValue = 2
	offSizeValue = 4
	offLockValue = 6
	offRankValue = 8
	serviceSpan  = 9
)

// ErrNoKey is returned by LongTermKey when the peer was built without one.
var ErrNoKey = errors.New("simpeer: no long-term key")

// Config describes the simulated member.
type Config struct {
	// SIRK is the set's identity resolving key.
	SIRK setid.SIRK

	// Encrypted serves the SIRK encrypted under LTK instead of plaintext.
	Encrypted bool

	// LTK is the connection's long-term key (required when Encrypted).
	LTK []byte

	// Size is the advertised set size.
	Size uint8

	// Rank is the member's rank.
	Rank uint8

	// BaseHandle is the service declaration handle. Defaults to 0x0010.
	BaseHandle att.Handle
}

// Peer is one simulated set member.
type Peer struct {
	mu sync.Mutex

	cfg    Config
	base   att.Handle
	state  att.ConnState
	locked bool

	subs map[att.Handle]*att.SubscribeParams
}

// New creates a connected simulated member.
func New(cfg Config) *Peer {
	base := cfg.BaseHandle
	if base == 0 {
		base = 0x0010
	}
	return &Peer{
		cfg:   cfg,
		base:  base,
		state: att.StateConnected,
		subs:  make(map[att.Handle]*att.SubscribeParams),
	}
}

// State implements att.Conn.
func (p *Peer) State() att.ConnState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Disconnect drops the simulated link.
func (p *Peer) Disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = att.StateDisconnected
}

// LongTermKey implements att.Conn.
func (p *Peer) LongTermKey() ([]byte, error) {
	if len(p.cfg.LTK) == 0 {
		return nil, ErrNoKey
	}
	return p.cfg.LTK, nil
}

// DiscoverPrimaryServices implements att.Conn.
func (p *Peer) DiscoverPrimaryServices(_ context.Context, uuid att.UUID16, rng att.HandleRange) ([]att.ServiceRecord, error) {
	if uuid != setid.ServiceUUID || !rng.Contains(p.base) {
		return nil, nil
	}
	return []att.ServiceRecord{{
		Handle:    p.base,
		EndHandle: p.base + serviceSpan,
		UUID:      setid.ServiceUUID,
	}}, nil
}

// DiscoverCharacteristics implements att.Conn.
func (p *Peer) DiscoverCharacteristics(_ context.Context, rng att.HandleRange) ([]att.Characteristic, error) {
	all := []att.Characteristic{
		{Handle: p.base + offSIRKValue - 1, ValueHandle: p.base + offSIRKValue,
			UUID: setid.SIRKUUID, Properties: att.PropRead | att.PropNotify},
		{Handle: p.base + offSizeValue - 1, ValueHandle: p.base + offSizeValue,
			UUID: setid.SizeUUID, Properties: att.PropRead | att.PropNotify},
		{Handle: p.base + offLockValue - 1, ValueHandle: p.base + offLockValue,
			UUID: setid.LockUUID, Properties: att.PropRead | att.PropWrite | att.PropNotify},
		{Handle: p.base + offRankValue - 1, ValueHandle: p.base + offRankValue,
			UUID: setid.RankUUID, Properties: att.PropRead},
	}

	var out []att.Characteristic
	for _, ch := range all {
		if rng.Contains(ch.Handle) {
			out = append(out, ch)
		}
	}
	return out, nil
}

// Read implements att.Conn.
func (p *Peer) Read(_ context.Context, handle att.Handle) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch handle {
	case p.base + offSIRKValue:
		return p.sirkValue()
	case p.base + offSizeValue:
		return []byte{p.cfg.Size}, nil
	case p.base + offLockValue:
		return []byte{p.lockValue()}, nil
	case p.base + offRankValue:
		return []byte{p.cfg.Rank}, nil
	default:
		return nil, att.ErrInvalidHandle
	}
}

func (p *Peer) sirkValue() ([]byte, error) {
	value := setid.SIRKValue{Type: setid.SIRKTypePlain, Value: [setid.SIRKSize]byte(p.cfg.SIRK)}
	if p.cfg.Encrypted {
		enc, err := setid.EncryptSIRK(p.cfg.LTK, p.cfg.SIRK)
		if err != nil {
			return nil, err
		}
		value = setid.SIRKValue{Type: setid.SIRKTypeEncrypted, Value: [setid.SIRKSize]byte(enc)}
	}
	return value.Bytes(), nil
}

func (p *Peer) lockValue() uint8 {
	if p.locked {
		return setid.LockLocked
	}
	return setid.LockReleased
}

// Write implements att.Conn. Only the lock characteristic is writable.
func (p *Peer) Write(_ context.Context, handle att.Handle, value []byte) error {
	p.mu.Lock()

	if handle != p.base+offLockValue {
		p.mu.Unlock()
		return att.ErrWriteNotPermitted
	}
	if len(value) != 1 {
		p.mu.Unlock()
		return att.ErrInvalidAttributeLen
	}

	switch value[0] {
	case setid.LockLocked:
		if p.locked {
			p.mu.Unlock()
			return setid.ErrLockDenied
		}
		p.locked = true
	case setid.LockReleased:
		p.locked = false
	default:
		p.mu.Unlock()
		return setid.ErrLockInvalidValue
	}

	sub := p.subs[handle]
	state := p.lockValue()
	p.mu.Unlock()

	if sub != nil {
		sub.Notify([]byte{state})
	}
	return nil
}

// Subscribe implements att.Conn.
func (p *Peer) Subscribe(_ context.Context, params *att.SubscribeParams) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs[params.ValueHandle] = params
	return nil
}

var _ att.Conn = (*Peer)(nil)
