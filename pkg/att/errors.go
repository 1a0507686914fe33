package att

// Error is an attribute protocol error code returned by a peer.
//
// Values below 0x80 are defined by the attribute protocol itself; values
// from 0x80 up are application error codes defined by the service occupying
// the handle (see pkg/setid for the set identification service codes).
type Error uint8

const (
	// ErrInvalidHandle indicates the handle does not address an attribute.
	ErrInvalidHandle Error = 0x01

	// ErrReadNotPermitted indicates the attribute cannot be read.
	ErrReadNotPermitted Error = 0x02

	// ErrWriteNotPermitted indicates the attribute cannot be written.
	ErrWriteNotPermitted Error = 0x03

	// ErrInsufficientAuthentication indicates the link must be authenticated.
	ErrInsufficientAuthentication Error = 0x05

	// ErrNotSupported indicates the request is not supported by the peer.
	ErrNotSupported Error = 0x06

	// ErrAttributeNotFound indicates no attribute matched the request.
	ErrAttributeNotFound Error = 0x0A

	// ErrInvalidAttributeLen indicates the value length was wrong for the
	// attribute.
	ErrInvalidAttributeLen Error = 0x0D

	// ErrUnlikely indicates the request failed for an unspecified reason.
	ErrUnlikely Error = 0x0E

	// ErrInsufficientEncryption indicates the link must be encrypted.
	ErrInsufficientEncryption Error = 0x0F
)

// String returns the error code name.
func (e Error) String() string {
	switch e {
	case ErrInvalidHandle:
		return "INVALID_HANDLE"
	case ErrReadNotPermitted:
		return "READ_NOT_PERMITTED"
	case ErrWriteNotPermitted:
		return "WRITE_NOT_PERMITTED"
	case ErrInsufficientAuthentication:
		return "INSUFFICIENT_AUTHENTICATION"
	case ErrNotSupported:
		return "NOT_SUPPORTED"
	case ErrAttributeNotFound:
		return "ATTRIBUTE_NOT_FOUND"
	case ErrInvalidAttributeLen:
		return "INVALID_ATTRIBUTE_VALUE_LENGTH"
	case ErrUnlikely:
		return "UNLIKELY_ERROR"
	case ErrInsufficientEncryption:
		return "INSUFFICIENT_ENCRYPTION"
	default:
		if e >= 0x80 {
			return "APPLICATION_ERROR"
		}
		return "UNKNOWN"
	}
}

// Error implements the error interface so protocol error codes can be
// surfaced verbatim to callers.
func (e Error) Error() string {
	return "att: " + e.String()
}
