package log

import "time"

// Event is one captured coordination event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// MemberID identifies the member connection the event belongs to
	// (UUID). Empty for events not tied to a single member.
	MemberID string `cbor:"2,keyasint,omitempty"`

	// Direction indicates message flow relative to the coordinator.
	Direction Direction `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Procedure is the multi-step procedure the event belongs to.
	Procedure Procedure `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	AttOp       *AttOpEvent       `cbor:"6,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"7,keyasint,omitempty"`
	LockChange  *LockChangeEvent  `cbor:"8,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"9,keyasint,omitempty"`
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates data received from a member (responses,
	// notifications).
	DirectionIn Direction = 0
	// DirectionOut indicates a request issued to a member.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryAttOp indicates an attribute operation (read/write/
	// subscribe/discover).
	CategoryAttOp Category = 0
	// CategoryState indicates a procedure state change.
	CategoryState Category = 1
	// CategoryLock indicates an observed lock change on a member.
	CategoryLock Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryAttOp:
		return "ATT_OP"
	case CategoryState:
		return "STATE"
	case CategoryLock:
		return "LOCK"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Procedure identifies a multi-step coordinator procedure.
type Procedure uint8

const (
	// ProcedureNone - event not tied to a procedure (e.g. notification).
	ProcedureNone Procedure = 0
	// ProcedureDiscover - service/characteristic discovery walk.
	ProcedureDiscover Procedure = 1
	// ProcedureDiscoverSets - identity/size/rank synchronization walk.
	ProcedureDiscoverSets Procedure = 2
	// ProcedureLockState - ordered lock-state read.
	ProcedureLockState Procedure = 3
	// ProcedureLock - ordered lock acquisition.
	ProcedureLock Procedure = 4
	// ProcedureRelease - ordered lock release.
	ProcedureRelease Procedure = 5
)

// String returns the procedure name.
func (p Procedure) String() string {
	switch p {
	case ProcedureNone:
		return "NONE"
	case ProcedureDiscover:
		return "DISCOVER"
	case ProcedureDiscoverSets:
		return "DISCOVER_SETS"
	case ProcedureLockState:
		return "LOCK_STATE"
	case ProcedureLock:
		return "LOCK"
	case ProcedureRelease:
		return "RELEASE"
	default:
		return "UNKNOWN"
	}
}

// AttOpEvent captures one attribute operation against a member.
type AttOpEvent struct {
	// Op is the operation kind.
	Op AttOp `cbor:"1,keyasint"`

	// Handle is the attribute handle addressed, when applicable.
	Handle uint16 `cbor:"2,keyasint,omitempty"`

	// Size is the payload size in bytes.
	Size int `cbor:"3,keyasint,omitempty"`

	// Err is the failure text when the operation failed.
	Err string `cbor:"4,keyasint,omitempty"`
}

// AttOp is the kind of attribute operation.
type AttOp uint8

const (
	// AttOpRead - single attribute read.
	AttOpRead AttOp = 0
	// AttOpWrite - single attribute write.
	AttOpWrite AttOp = 1
	// AttOpSubscribe - change-notification subscription.
	AttOpSubscribe AttOp = 2
	// AttOpDiscoverServices - primary service enumeration.
	AttOpDiscoverServices AttOp = 3
	// AttOpDiscoverCharacteristics - characteristic enumeration.
	AttOpDiscoverCharacteristics AttOp = 4
	// AttOpNotification - received change notification.
	AttOpNotification AttOp = 5
)

// String returns the operation name.
func (o AttOp) String() string {
	switch o {
	case AttOpRead:
		return "READ"
	case AttOpWrite:
		return "WRITE"
	case AttOpSubscribe:
		return "SUBSCRIBE"
	case AttOpDiscoverServices:
		return "DISCOVER_SERVICES"
	case AttOpDiscoverCharacteristics:
		return "DISCOVER_CHARACTERISTICS"
	case AttOpNotification:
		return "NOTIFICATION"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures a procedure state transition.
type StateChangeEvent struct {
	// From is the previous state name.
	From string `cbor:"1,keyasint"`

	// To is the new state name.
	To string `cbor:"2,keyasint"`

	// Detail carries optional context (e.g. instance index, progress).
	Detail string `cbor:"3,keyasint,omitempty"`
}

// LockChangeEvent captures an observed lock change on a member instance.
type LockChangeEvent struct {
	// Instance is the discovered service instance index.
	Instance int `cbor:"1,keyasint"`

	// Rank is the member's rank within the set.
	Rank uint8 `cbor:"2,keyasint,omitempty"`

	// Locked is the new lock state.
	Locked bool `cbor:"3,keyasint"`
}

// ErrorEventData captures an error at any layer.
type ErrorEventData struct {
	// Message is the error text.
	Message string `cbor:"1,keyasint"`
}
