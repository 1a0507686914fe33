package att

import "fmt"

// Handle addresses a single attribute on a peer. Handle 0 is never a valid
// attribute address and is used throughout as "not present".
type Handle uint16

// Reachable attribute handle space.
const (
	FirstHandle Handle = 0x0001
	LastHandle  Handle = 0xFFFF
)

// HandleRange is an inclusive range of attribute handles.
type HandleRange struct {
	Start Handle
	End   Handle
}

// FullRange covers the entire attribute namespace of a peer.
var FullRange = HandleRange{Start: FirstHandle, End: LastHandle}

// Contains reports whether h lies within the range.
func (r HandleRange) Contains(h Handle) bool {
	return h >= r.Start && h <= r.End
}

// UUID16 is a 16-bit assigned attribute type identifier.
type UUID16 uint16

// String returns the identifier in 0xXXXX form.
func (u UUID16) String() string {
	return fmt.Sprintf("0x%04X", uint16(u))
}

// Characteristic property bits.
const (
	PropRead     uint8 = 0x02
	PropWrite    uint8 = 0x08
	PropNotify   uint8 = 0x10
	PropIndicate uint8 = 0x20
)

// Client characteristic configuration values used when subscribing.
const (
	CCCNotify   uint16 = 0x0001
	CCCIndicate uint16 = 0x0002
)

// ServiceRecord describes one discovered primary service instance.
type ServiceRecord struct {
	// Handle is the service declaration handle.
	Handle Handle

	// EndHandle is the last handle belonging to the service.
	EndHandle Handle

	// UUID is the service type.
	UUID UUID16
}

// Characteristic describes one discovered characteristic declaration.
type Characteristic struct {
	// Handle is the declaration handle.
	Handle Handle

	// ValueHandle is the handle of the characteristic value.
	ValueHandle Handle

	// UUID is the characteristic type.
	UUID UUID16

	// Properties is the characteristic property bitmask.
	Properties uint8
}
