// encryption/elgamal.go
package encryption

import (
	"fmt"

	blst "github.com/supranational/blst/bindings/go"
)

const (
	pointSize  = 48 // compressed G1
	handleSize = 2 * pointSize
)

// ElGamal is exponential ElGamal over BLS12-381 G1: Enc(m; r) = (r·G, m·G + r·PK).
// Ciphertexts add component-wise, which adds the plaintexts. The oracle
// committee holds the secret key; this side only needs the public key.
//
// Zero and One are trivial encryptions (r = 0), the counterpart of casting a
// constant to an encrypted integer.
type ElGamal struct {
	publicKey *blst.P1Affine
}

// NewElGamal parses a compressed G1 public key.
func NewElGamal(publicKey []byte) (*ElGamal, error) {
	pk := new(blst.P1Affine).Uncompress(publicKey)
	if pk == nil || !pk.InG1() {
		return nil, fmt.Errorf("encryption public key: %w", ErrInvalidHandle)
	}
	return &ElGamal{publicKey: pk}, nil
}

// PublicKey returns the compressed public key.
func (e *ElGamal) PublicKey() []byte { return e.publicKey.Compress() }

func (e *ElGamal) Zero() (Handle, error) {
	return encodePair(new(blst.P1), new(blst.P1)), nil
}

func (e *ElGamal) One() (Handle, error) {
	return encodePair(new(blst.P1), blst.P1Generator()), nil
}

func (e *ElGamal) Add(a, b Handle) (Handle, error) {
	a1, a2, err := decodePair(a)
	if err != nil {
		return nil, err
	}
	b1, b2, err := decodePair(b)
	if err != nil {
		return nil, err
	}
	var c1, c2 blst.P1
	c1.FromAffine(a1)
	c1.AddAssign(b1)
	c2.FromAffine(a2)
	c2.AddAssign(b2)
	return encodePair(&c1, &c2), nil
}

func (e *ElGamal) IsInitialized(h Handle) bool {
	_, _, err := decodePair(h)
	return err == nil
}

func encodePair(c1, c2 *blst.P1) Handle {
	out := make(Handle, 0, handleSize)
	out = append(out, c1.Compress()...)
	return append(out, c2.Compress()...)
}

func decodePair(h Handle) (*blst.P1Affine, *blst.P1Affine, error) {
	if len(h) != handleSize {
		return nil, nil, ErrInvalidHandle
	}
	c1 := new(blst.P1Affine).Uncompress(h[:pointSize])
	c2 := new(blst.P1Affine).Uncompress(h[pointSize:])
	if c1 == nil || c2 == nil {
		return nil, nil, ErrInvalidHandle
	}
	return c1, c2, nil
}
