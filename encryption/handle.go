// Package encryption holds the boundary to the homomorphic encryption
// capability. The service never sees plaintext through this package: it only
// moves opaque ciphertext handles around and combines counters.
package encryption

import (
	"bytes"
	"encoding/hex"
	"errors"
)

var ErrInvalidHandle = errors.New("invalid ciphertext handle")

// Handle is an opaque reference to a ciphertext.
type Handle []byte

func (h Handle) Equal(other Handle) bool { return bytes.Equal(h, other) }

func (h Handle) String() string {
	if len(h) > 8 {
		return hex.EncodeToString(h[:8]) + "…"
	}
	return hex.EncodeToString(h)
}

// Arithmetic is the additive homomorphic capability used by the player stat
// ledger.
type Arithmetic interface {
	// Zero returns an encryption of 0.
	Zero() (Handle, error)
	// One returns an encryption of 1.
	One() (Handle, error)
	// Add returns an encryption of the sum of a and b.
	Add(a, b Handle) (Handle, error)
	// IsInitialized reports whether h refers to a ciphertext at all.
	IsInitialized(h Handle) bool
}
