package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	blst "github.com/supranational/blst/bindings/go"
)

type testMember struct {
	sk *blst.SecretKey
	pk []byte
}

func newMembers(t *testing.T, n int) []testMember {
	t.Helper()
	out := make([]testMember, n)
	for i := range out {
		ikm := make([]byte, 32)
		ikm[0] = byte(i + 1)
		ikm[31] = 0x5a
		sk := blst.KeyGen(ikm)
		require.NotNil(t, sk)
		out[i] = testMember{sk: sk, pk: new(blst.P1Affine).From(sk).Compress()}
	}
	return out
}

func newTestCommittee(t *testing.T, members []testMember, threshold int) *Committee {
	t.Helper()
	keys := make([][]byte, len(members))
	for i, m := range members {
		keys[i] = m.pk
	}
	c, err := NewCommittee(keys, threshold)
	require.NoError(t, err)
	return c
}

func attest(t *testing.T, members []testMember, signers []uint16, requestID string, cleartext []byte) []byte {
	t.Helper()
	shares := make([][]byte, 0, len(signers))
	for _, idx := range signers {
		shares = append(shares, SignShare(members[idx].sk, requestID, cleartext))
	}
	agg, err := AggregateShares(shares)
	require.NoError(t, err)
	return EncodeProof(signers, agg)
}

func TestCommitteeAcceptsQuorumAttestation(t *testing.T) {
	members := newMembers(t, 4)
	c := newTestCommittee(t, members, 3)
	cleartext := EncodeStrings("95", "log-A", "alice")

	proof := attest(t, members, []uint16{0, 2, 3}, "req-1", cleartext)
	require.NoError(t, c.CheckProof("req-1", cleartext, proof))

	proof = attest(t, members, []uint16{0, 1, 2, 3}, "req-1", cleartext)
	require.NoError(t, c.CheckProof("req-1", cleartext, proof))
}

func TestCommitteeRejectsBadAttestations(t *testing.T) {
	members := newMembers(t, 4)
	c := newTestCommittee(t, members, 3)
	cleartext := EncodeStrings("95", "log-A", "alice")
	proof := attest(t, members, []uint16{0, 1, 2}, "req-1", cleartext)

	t.Run("below quorum", func(t *testing.T) {
		p := attest(t, members, []uint16{0, 1}, "req-1", cleartext)
		assert.ErrorIs(t, c.CheckProof("req-1", cleartext, p), ErrBelowQuorum)
	})

	t.Run("tampered cleartext", func(t *testing.T) {
		forged := EncodeStrings("99", "log-A", "alice")
		assert.ErrorIs(t, c.CheckProof("req-1", forged, proof), ErrProofInvalid)
	})

	t.Run("other request", func(t *testing.T) {
		assert.ErrorIs(t, c.CheckProof("req-2", cleartext, proof), ErrProofInvalid)
	})

	t.Run("wrong signer set", func(t *testing.T) {
		signers, sig, err := DecodeProof(proof)
		require.NoError(t, err)
		require.Equal(t, []uint16{0, 1, 2}, signers)
		relabelled := EncodeProof([]uint16{0, 1, 3}, sig)
		assert.ErrorIs(t, c.CheckProof("req-1", cleartext, relabelled), ErrProofInvalid)
	})

	t.Run("duplicate signer", func(t *testing.T) {
		p := attest(t, members, []uint16{0, 0, 1}, "req-1", cleartext)
		assert.ErrorIs(t, c.CheckProof("req-1", cleartext, p), ErrProofInvalid)
	})

	t.Run("unknown signer", func(t *testing.T) {
		_, sig, err := DecodeProof(proof)
		require.NoError(t, err)
		p := EncodeProof([]uint16{0, 1, 9}, sig)
		assert.ErrorIs(t, c.CheckProof("req-1", cleartext, p), ErrProofInvalid)
	})

	t.Run("truncated", func(t *testing.T) {
		assert.ErrorIs(t, c.CheckProof("req-1", cleartext, proof[:len(proof)-1]), ErrProofInvalid)
		assert.ErrorIs(t, c.CheckProof("req-1", cleartext, nil), ErrProofInvalid)
	})
}

func TestNewCommitteeValidation(t *testing.T) {
	members := newMembers(t, 2)
	keys := [][]byte{members[0].pk, members[1].pk}

	_, err := NewCommittee(keys, 3)
	assert.ErrorIs(t, err, ErrCommitteeSize)
	_, err = NewCommittee(keys, 0)
	assert.ErrorIs(t, err, ErrCommitteeSize)
	_, err = NewCommittee(nil, 1)
	assert.ErrorIs(t, err, ErrCommitteeSize)
	_, err = NewCommittee([][]byte{members[0].pk, []byte("garbage")}, 1)
	assert.ErrorIs(t, err, ErrCommitteeSize)

	c, err := NewCommittee(keys, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Threshold())
}

func TestProofMessageBindsRequestID(t *testing.T) {
	// Length prefixing keeps ("ab", "c…") and ("a", "bc…") apart.
	assert.NotEqual(t, ProofMessage("ab", []byte("c")), ProofMessage("a", []byte("bc")))
	assert.Len(t, ProofMessage("req", nil), 32)
}

func TestEncodeDecodeProof(t *testing.T) {
	sig := make([]byte, signatureSize)
	sig[0] = 0xaa
	signers, got, err := DecodeProof(EncodeProof([]uint16{3, 256}, sig))
	require.NoError(t, err)
	assert.Equal(t, []uint16{3, 256}, signers)
	assert.Equal(t, sig, got)
}
