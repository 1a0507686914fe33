package att

import "context"

// ConnState is the state of a connection to a peer.
type ConnState uint8

const (
	// StateDisconnected - no link to the peer.
	StateDisconnected ConnState = iota

	// StateConnecting - link establishment in progress.
	StateConnecting

	// StateConnected - link established and usable.
	StateConnected

	// StateDisconnecting - link teardown in progress.
	StateDisconnecting
)

// String returns the state name.
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateDisconnecting:
		return "DISCONNECTING"
	default:
		return "UNKNOWN"
	}
}

// NotifyFunc receives change notifications for a subscribed value handle.
// A nil data slice signals that the subscription was cancelled by the peer;
// no further calls follow a nil delivery.
type NotifyFunc func(data []byte)

// SubscribeParams configures a change-notification subscription.
type SubscribeParams struct {
	// ValueHandle is the characteristic value to watch.
	ValueHandle Handle

	// CCCHandle is the client configuration descriptor handle.
	// Zero lets the transport resolve it within (ValueHandle, EndHandle].
	CCCHandle Handle

	// EndHandle bounds the descriptor search when CCCHandle is zero.
	EndHandle Handle

	// Value is the configuration to write (CCCNotify or CCCIndicate).
	Value uint16

	// Notify receives value updates.
	Notify NotifyFunc
}

// Conn is the attribute transport to one peer.
//
// Implementations may run requests over any carrier; the coordinator only
// requires that each call blocks until the matching response arrives and
// that notifications are delivered through the registered NotifyFunc.
type Conn interface {
	// State returns the current connection state.
	State() ConnState

	// Read reads the value of a single attribute.
	Read(ctx context.Context, handle Handle) ([]byte, error)

	// Write writes the value of a single attribute and waits for the
	// peer's response.
	Write(ctx context.Context, handle Handle, value []byte) error

	// Subscribe enables change notifications for a characteristic value.
	Subscribe(ctx context.Context, params *SubscribeParams) error

	// DiscoverPrimaryServices enumerates primary service instances of the
	// given type within the handle range, in handle order.
	DiscoverPrimaryServices(ctx context.Context, uuid UUID16, rng HandleRange) ([]ServiceRecord, error)

	// DiscoverCharacteristics enumerates characteristic declarations within
	// the handle range, in handle order.
	DiscoverCharacteristics(ctx context.Context, rng HandleRange) ([]Characteristic, error)

	// LongTermKey returns the symmetric key bound to this connection's
	// pairing, used to decrypt encrypted identity keys. It returns an
	// error when no key is available (unpaired or unencrypted link).
	LongTermKey() ([]byte, error)
}
