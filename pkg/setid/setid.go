package setid

import (
	"bytes"
	"encoding/hex"
	"errors"

	"github.com/csip-protocol/csip-go/pkg/att"
)

// Assigned identifiers for the set identification service.
const (
	// ServiceUUID is the coordinated set identification service.
	ServiceUUID att.UUID16 = 0x1846

	// SIRKUUID is the set identity resolving key characteristic.
	SIRKUUID att.UUID16 = 0x2B84

	// SizeUUID is the coordinated set size characteristic.
	SizeUUID att.UUID16 = 0x2B85

	// LockUUID is the set member lock characteristic.
	LockUUID att.UUID16 = 0x2B86

	// RankUUID is the set member rank characteristic.
	RankUUID att.UUID16 = 0x2B87
)

// Lock characteristic values.
const (
	// LockReleased - no client holds the member's lock.
	LockReleased uint8 = 0x01

	// LockLocked - a client holds the member's lock.
	LockLocked uint8 = 0x02
)

// Application error codes returned on the lock characteristic.
const (
	// ErrLockDenied - another client already holds the lock.
	ErrLockDenied att.Error = 0x80

	// ErrLockReleaseNotAllowed - the requester does not hold the lock.
	ErrLockReleaseNotAllowed att.Error = 0x81

	// ErrLockInvalidValue - the written value was neither lock nor release.
	ErrLockInvalidValue att.Error = 0x82

	// ErrSIRKOOBOnly - the SIRK is only available out of band.
	ErrSIRKOOBOnly att.Error = 0x83

	// ErrLockAlreadyGranted - the requester already holds the lock.
	ErrLockAlreadyGranted att.Error = 0x84
)

// SIRKSize is the size of a set identity resolving key in bytes.
const SIRKSize = 16

// SIRK is a set identity resolving key, the shared secret identifying a
// coordinated set.
type SIRK [SIRKSize]byte

// String returns the key as lowercase hex.
func (s SIRK) String() string {
	return hex.EncodeToString(s[:])
}

// SetInfo describes a coordinated set as observed through one member's
// service instance. Two instances belong to the same set iff their SIRK
// bytes and set size are equal.
type SetInfo struct {
	// SIRK is the decrypted set identity resolving key.
	SIRK SIRK

	// Size is the number of devices in the set. Zero when the member does
	// not expose a size characteristic.
	Size uint8
}

// Equal reports whether two set descriptions identify the same set.
func (i SetInfo) Equal(other SetInfo) bool {
	return i.Size == other.Size && bytes.Equal(i.SIRK[:], other.SIRK[:])
}

// SIRK characteristic value type tags.
const (
	// SIRKTypeEncrypted marks an encrypted key value.
	SIRKTypeEncrypted uint8 = 0x00

	// SIRKTypePlain marks a plaintext key value.
	SIRKTypePlain uint8 = 0x01
)

// SIRKValueSize is the wire size of the SIRK characteristic value:
// one type byte followed by the 16-byte key.
const SIRKValueSize = 1 + SIRKSize

// SIRKValue is the decoded SIRK characteristic value.
type SIRKValue struct {
	// Type is SIRKTypePlain or SIRKTypeEncrypted.
	Type uint8

	// Value is the (possibly encrypted) key bytes.
	Value [SIRKSize]byte
}

// Encrypted reports whether the key bytes require decryption.
func (v SIRKValue) Encrypted() bool {
	return v.Type == SIRKTypeEncrypted
}

// ErrInvalidSIRKValue is returned when a SIRK characteristic value has the
// wrong length or an unknown type tag.
var ErrInvalidSIRKValue = errors.New("invalid SIRK characteristic value")

// ParseSIRKValue decodes a SIRK characteristic value read from a peer.
func ParseSIRKValue(data []byte) (SIRKValue, error) {
	if len(data) != SIRKValueSize {
		return SIRKValue{}, ErrInvalidSIRKValue
	}
	v := SIRKValue{Type: data[0]}
	if v.Type != SIRKTypePlain && v.Type != SIRKTypeEncrypted {
		return SIRKValue{}, ErrInvalidSIRKValue
	}
	copy(v.Value[:], data[1:])
	return v, nil
}

// Bytes encodes the value in characteristic wire form.
func (v SIRKValue) Bytes() []byte {
	out := make([]byte, SIRKValueSize)
	out[0] = v.Type
	copy(out[1:], v.Value[:])
	return out
}
