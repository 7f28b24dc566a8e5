// oracle/committee.go
package oracle

import (
	"encoding/binary"
	"errors"
	"fmt"

	blst "github.com/supranational/blst/bindings/go"
	"golang.org/x/crypto/sha3"
)

// ProofDST is the BLS domain separation tag decryption attestations are
// signed under.
const ProofDST = "BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_POP_DECRYPTION_ORACLE_"

const (
	signatureSize = 96 // compressed G2
	proofDomain   = "decryption-oracle/v1"
)

var (
	ErrProofInvalid  = errors.New("invalid decryption proof")
	ErrBelowQuorum   = errors.New("decryption proof below committee threshold")
	ErrCommitteeSize = errors.New("invalid committee configuration")
)

// ProofChecker verifies that cleartext is the correct decryption for the
// request identified by requestID.
type ProofChecker interface {
	CheckProof(requestID string, cleartext, proof []byte) error
}

// Committee checks threshold attestations: an aggregate BLS signature by at
// least Threshold distinct committee members over ProofMessage.
//
// Proof layout: uint16 signer count | count × uint16 member index | 96-byte
// compressed G2 aggregate signature. All integers big-endian.
type Committee struct {
	members   []*blst.P1Affine
	threshold int
}

// NewCommittee builds a checker from compressed G1 member public keys.
func NewCommittee(memberKeys [][]byte, threshold int) (*Committee, error) {
	if len(memberKeys) == 0 || threshold <= 0 || threshold > len(memberKeys) {
		return nil, fmt.Errorf("%w: %d members, threshold %d", ErrCommitteeSize, len(memberKeys), threshold)
	}
	members := make([]*blst.P1Affine, 0, len(memberKeys))
	for i, k := range memberKeys {
		pk := new(blst.P1Affine).Uncompress(k)
		if pk == nil || !pk.KeyValidate() {
			return nil, fmt.Errorf("%w: member %d key", ErrCommitteeSize, i)
		}
		members = append(members, pk)
	}
	return &Committee{members: members, threshold: threshold}, nil
}

func (c *Committee) Threshold() int { return c.threshold }

// ProofMessage is the digest every committee member signs.
func ProofMessage(requestID string, cleartext []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(proofDomain))
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(requestID)))
	h.Write(n[:])
	h.Write([]byte(requestID))
	h.Write(cleartext)
	return h.Sum(nil)
}

func (c *Committee) CheckProof(requestID string, cleartext, proof []byte) error {
	signers, sig, err := DecodeProof(proof)
	if err != nil {
		return err
	}
	if len(signers) < c.threshold {
		return fmt.Errorf("%w: %d of %d", ErrBelowQuorum, len(signers), c.threshold)
	}
	seen := make(map[uint16]struct{}, len(signers))
	pks := make([]*blst.P1Affine, 0, len(signers))
	for _, idx := range signers {
		if int(idx) >= len(c.members) {
			return fmt.Errorf("%w: unknown signer %d", ErrProofInvalid, idx)
		}
		if _, dup := seen[idx]; dup {
			return fmt.Errorf("%w: duplicate signer %d", ErrProofInvalid, idx)
		}
		seen[idx] = struct{}{}
		pks = append(pks, c.members[idx])
	}
	aff := new(blst.P2Affine).Uncompress(sig)
	if aff == nil {
		return fmt.Errorf("%w: bad signature encoding", ErrProofInvalid)
	}
	if !aff.FastAggregateVerify(true, pks, ProofMessage(requestID, cleartext), []byte(ProofDST)) {
		return fmt.Errorf("%w: signature mismatch", ErrProofInvalid)
	}
	return nil
}

// EncodeProof serialises signer indexes and an aggregate signature.
func EncodeProof(signers []uint16, aggregate []byte) []byte {
	out := make([]byte, 2, 2+2*len(signers)+len(aggregate))
	binary.BigEndian.PutUint16(out, uint16(len(signers)))
	for _, s := range signers {
		out = binary.BigEndian.AppendUint16(out, s)
	}
	return append(out, aggregate...)
}

func DecodeProof(proof []byte) ([]uint16, []byte, error) {
	if len(proof) < 2 {
		return nil, nil, fmt.Errorf("%w: short proof", ErrProofInvalid)
	}
	n := int(binary.BigEndian.Uint16(proof))
	if len(proof) != 2+2*n+signatureSize {
		return nil, nil, fmt.Errorf("%w: proof length %d", ErrProofInvalid, len(proof))
	}
	signers := make([]uint16, n)
	for i := range signers {
		signers[i] = binary.BigEndian.Uint16(proof[2+2*i:])
	}
	return signers, proof[2+2*n:], nil
}

// SignShare produces one member's signature share over the proof message.
// Committee members and test relays use it; the service never signs.
func SignShare(sk *blst.SecretKey, requestID string, cleartext []byte) []byte {
	return new(blst.P2Affine).Sign(sk, ProofMessage(requestID, cleartext), []byte(ProofDST)).Compress()
}

// AggregateShares combines compressed signature shares.
func AggregateShares(shares [][]byte) ([]byte, error) {
	if len(shares) == 0 {
		return nil, fmt.Errorf("%w: no shares", ErrProofInvalid)
	}
	agg := new(blst.P2Aggregate)
	if !agg.AggregateCompressed(shares, true) {
		return nil, fmt.Errorf("%w: bad share", ErrProofInvalid)
	}
	return agg.ToAffine().Compress(), nil
}
