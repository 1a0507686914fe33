package setid

import "encoding/binary"

// RSI (resolvable set identifier) advertisement record.
const (
	// RSIADType is the advertising data type carrying an RSI.
	RSIADType uint8 = 0x2E

	// RSISize is the RSI payload size: 3-byte hash followed by 3-byte
	// random salt, both little endian.
	RSISize = 6
)

// AdvData is one advertising data record as received from a scanner.
type AdvData struct {
	// Type is the advertising data type tag.
	Type uint8

	// Data is the record payload.
	Data []byte
}

// sih computes the 24-bit set identity hash of a 3-byte salt under a SIRK.
func sih(sirk SIRK, prand [3]byte) uint32 {
	digest := keyedHash(sirk[:], prand[:])
	return uint32(digest[0]) | uint32(digest[1])<<8 | uint32(digest[2])<<16
}

// IsSetMember reports whether an advertising record identifies a member of
// the set with the given SIRK. Records of the wrong type or length are not
// members; malformed input is never an error.
func IsSetMember(sirk SIRK, data AdvData) bool {
	if data.Type != RSIADType || len(data.Data) != RSISize {
		return false
	}

	hash := le24(data.Data[:3])
	var prand [3]byte
	copy(prand[:], data.Data[3:])

	return sih(sirk, prand)&0xFFFFFF == hash
}

// GenerateRSI builds the RSI payload a set member advertises for the given
// salt. The salt should be freshly randomised for every advertising
// rotation; it is a parameter here so the construction stays deterministic.
func GenerateRSI(sirk SIRK, prand [3]byte) [RSISize]byte {
	var out [RSISize]byte
	putLE24(out[:3], sih(sirk, prand)&0xFFFFFF)
	copy(out[3:], prand[:])
	return out
}

func le24(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

func putLE24(b []byte, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	copy(b[:3], tmp[:3])
}
