package encryption

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
	"golang.org/x/text/unicode/norm"
)

// IdentityHash is the Keccak-256 of the NFC form of s, hex encoded. It is
// used to compare player identities without relying on byte-exact unicode
// input.
func IdentityHash(s string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(norm.NFC.String(s)))
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash is the Keccak-256 of s exactly as given, hex encoded.
func ContentHash(s string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(s))
	return hex.EncodeToString(h.Sum(nil))
}
