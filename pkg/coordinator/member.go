package coordinator

import (
	"github.com/google/uuid"

	"github.com/csip-protocol/csip-go/pkg/att"
	"github.com/csip-protocol/csip-go/pkg/setid"
)

// SetMember is a connected peer claiming membership in one or more
// coordinated sets. It owns the service instances discovered on its
// connection; Discover replaces them wholesale.
type SetMember struct {
	id   string
	conn att.Conn

	// insts is the instance table, in discovery order.
	// Guarded by the owning Coordinator's mutex.
	insts []*Instance
}

// NewSetMember wraps a connection to a set device.
func NewSetMember(conn att.Conn) *SetMember {
	return &SetMember{
		id:   uuid.NewString(),
		conn: conn,
	}
}

// ID returns the member's identifier, used to correlate capture events.
func (m *SetMember) ID() string {
	return m.id
}

// Conn returns the member's attribute connection.
func (m *SetMember) Conn() att.Conn {
	return m.conn
}

// Instances returns the service instances found by the last Discover call,
// in discovery order. The returned slice must not be modified.
func (m *SetMember) Instances() []*Instance {
	return m.insts
}

// instanceByHandle returns the instance whose handle block contains h,
// or nil. Used to route change notifications.
func (m *SetMember) instanceByHandle(h att.Handle) *Instance {
	for _, inst := range m.insts {
		if h >= inst.startHandle && h <= inst.endHandle {
			return inst
		}
	}
	return nil
}

// instanceBySetInfo returns the instance whose resolved identity matches
// info, or nil.
func (m *SetMember) instanceBySetInfo(info setid.SetInfo) *Instance {
	for _, inst := range m.insts {
		if inst.info.Equal(info) {
			return inst
		}
	}
	return nil
}

// Instance is one discovered set identification service instance on a
// member: its handle block, the resolved set identity, and the cached rank
// and lock state.
type Instance struct {
	member *SetMember
	idx    int

	startHandle att.Handle
	endHandle   att.Handle

	// Characteristic value handles; zero means not present.
	sirkHandle att.Handle
	sizeHandle att.Handle
	lockHandle att.Handle
	rankHandle att.Handle

	// Values populated by DiscoverSets and updated from notifications.
	info      setid.SetInfo
	rank      uint8
	lockState uint8 // setid.LockReleased / setid.LockLocked, 0 when unknown

	// Subscription state, one per notifying characteristic.
	sirkSubActive bool
	sizeSubActive bool
	lockSubActive bool
}

// Member returns the owning set member.
func (i *Instance) Member() *SetMember {
	return i.member
}

// Index returns the instance's discovery order index.
func (i *Instance) Index() int {
	return i.idx
}

// Info returns the resolved set identity for this instance.
func (i *Instance) Info() setid.SetInfo {
	return i.info
}

// Rank returns the member's rank within this set.
func (i *Instance) Rank() uint8 {
	return i.rank
}

// Locked reports whether the member's lock was held at the last read or
// notification.
func (i *Instance) Locked() bool {
	return i.lockState == setid.LockLocked
}

// LockHandle returns the lock characteristic value handle, zero when the
// instance has no lock characteristic.
func (i *Instance) LockHandle() att.Handle {
	return i.lockHandle
}
