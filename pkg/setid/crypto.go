package setid

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Identity crypto errors.
var (
	ErrInvalidKeySize = errors.New("connection key must be 16 bytes")
)

// Domain separation inputs for the identity key pad derivation.
var (
	sirkEncSalt = []byte("SIRKenc")
	sirkEncInfo = []byte("csis")
)

// keyedHash computes the keyed hash shared by identity resolution and
// identity key protection: HMAC-SHA256 of input under key.
func keyedHash(key, input []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(input)
	return mac.Sum(nil)
}

// derivePad derives the 16-byte pad used to protect an identity key in
// transit, bound to the connection's long-term key.
func derivePad(connKey []byte) ([SIRKSize]byte, error) {
	var pad [SIRKSize]byte
	if len(connKey) != SIRKSize {
		return pad, ErrInvalidKeySize
	}
	r := hkdf.New(sha256.New, connKey, sirkEncSalt, sirkEncInfo)
	if _, err := io.ReadFull(r, pad[:]); err != nil {
		return pad, err
	}
	return pad, nil
}

// EncryptSIRK protects a plaintext SIRK for transfer over a connection
// whose pairing produced connKey. The scheme is an XOR with a derived pad,
// so EncryptSIRK and DecryptSIRK are the same transformation.
func EncryptSIRK(connKey []byte, sirk SIRK) (SIRK, error) {
	pad, err := derivePad(connKey)
	if err != nil {
		return SIRK{}, err
	}
	var out SIRK
	for i := range sirk {
		out[i] = sirk[i] ^ pad[i]
	}
	return out, nil
}

// DecryptSIRK recovers a plaintext SIRK from the encrypted characteristic
// value using the connection's long-term key.
func DecryptSIRK(connKey []byte, enc [SIRKSize]byte) (SIRK, error) {
	return EncryptSIRK(connKey, enc)
}
