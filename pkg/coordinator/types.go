package coordinator

import (
	"errors"
	"log/slog"
	"time"

	"github.com/csip-protocol/csip-go/pkg/log"
	"github.com/csip-protocol/csip-go/pkg/setid"
)

// Coordinator errors.
var (
	ErrNilMember                 = errors.New("member is nil")
	ErrNoConn                    = errors.New("member has no connection")
	ErrNoMembers                 = errors.New("no members given")
	ErrNotConnected              = errors.New("member not connected")
	ErrBusy                      = errors.New("operation already in progress")
	ErrSetNotFound               = errors.New("member has no instance matching the set info")
	ErrHandleNotSet              = errors.New("characteristic handle not set")
	ErrInvariantViolation        = errors.New("member rank ordering violated")
	ErrKeyUnavailable            = errors.New("connection key unavailable")
	ErrEncryptedSIRKNotSupported = errors.New("encrypted SIRK not supported")
	ErrInvalidConfig             = errors.New("invalid configuration")
)

// Callbacks receives the terminal outcome of every asynchronous operation
// and observed lock changes. Nil fields are skipped.
type Callbacks struct {
	// Discover reports completion of a Discover call with the number of
	// service instances found on the member.
	Discover func(member *SetMember, err error, instances int)

	// Sets reports completion of a DiscoverSets call.
	Sets func(member *SetMember, err error, instances int)

	// LockChanged reports a lock change notification from a member
	// instance, regardless of which client caused it.
	LockChanged func(inst *Instance, locked bool)

	// LockSet reports completion of a Lock call.
	LockSet func(err error)

	// ReleaseSet reports completion of a Release call, including the
	// rollback performed after a failed Lock.
	ReleaseSet func(err error)

	// LockStateRead reports completion of a GetLockState call.
	// alreadyLocked is true when any member reported a held lock.
	LockStateRead func(info setid.SetInfo, err error, alreadyLocked bool)
}

// Default configuration values.
const (
	// DefaultMaxInstances is the number of service instances tracked per
	// member connection.
	DefaultMaxInstances = 3

	// DefaultRequestTimeout bounds each individual attribute operation.
	DefaultRequestTimeout = 30 * time.Second
)

// Config configures a Coordinator.
type Config struct {
	// MaxInstances caps the number of service instances recorded per
	// member during discovery.
	MaxInstances int

	// RequestTimeout bounds each individual attribute operation.
	RequestTimeout time.Duration

	// EncryptedSIRKSupport enables decryption of encrypted identity keys
	// using the connection's long-term key. When disabled, encrypted keys
	// surface ErrEncryptedSIRKNotSupported.
	EncryptedSIRKSupport bool

	// Logger for debug output (optional).
	Logger *slog.Logger

	// ProtocolLogger for structured event capture (optional).
	ProtocolLogger log.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxInstances:         DefaultMaxInstances,
		RequestTimeout:       DefaultRequestTimeout,
		EncryptedSIRKSupport: true,
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.MaxInstances <= 0 {
		return ErrInvalidConfig
	}
	if c.RequestTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}
