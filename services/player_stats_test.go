package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"encrypted-match-system/encryption"
	"encrypted-match-system/models"
	"encrypted-match-system/oracle"
)

func TestRequestPlayerStatsUnknownPlayer(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RequestPlayerStatsDecryption(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
	assert.Empty(t, f.oracle.calls)
}

func TestPlayerStatsDecryptionPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verify(t, "95", "log-A", "alice")
	f.verify(t, "80", "log-B", "alice")
	f.drain()

	reqID, err := f.svc.RequestPlayerStatsDecryption(ctx, "alice")
	require.NoError(t, err)

	call := f.oracle.calls[len(f.oracle.calls)-1]
	assert.Equal(t, "player-stats", call.callbackID)
	assert.Equal(t, []encryption.Handle{encryption.Handle("2")}, call.handles)

	p := f.pending(t, models.RequestKindPlayerStats, reqID)
	assert.Equal(t, encryption.IdentityHash("alice"), p.DomainKey)
	assert.Equal(t, models.PendingRequested, p.Status)

	_, err = f.svc.OnPlayerStatsResult(ctx, reqID, oracle.EncodeUint64(2), []byte("forged"))
	require.ErrorIs(t, err, ErrProofVerificationFailed)
	assert.Equal(t, models.PendingRequested, f.pending(t, models.RequestKindPlayerStats, reqID).Status)

	reveal, err := f.svc.OnPlayerStatsResult(ctx, reqID, oracle.EncodeUint64(2), []byte(validProof))
	require.NoError(t, err)
	assert.Equal(t, PlayerStatsReveal{PlayerID: "alice", MatchCount: 2}, reveal)
	assert.Equal(t, models.PendingFulfilled, f.pending(t, models.RequestKindPlayerStats, reqID).Status)

	// The ledger stays encrypted.
	counter, err := f.svc.EncryptedPlayerStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, encryption.Handle("2"), counter)

	evs := f.drain()
	require.Len(t, evs, 1)
	assert.Equal(t, models.EventPlayerStatsDecrypted, evs[0].Kind)
	assert.Equal(t, "alice", evs[0].PlayerID)
	require.NotNil(t, evs[0].MatchCount)
	assert.Equal(t, uint64(2), *evs[0].MatchCount)

	_, err = f.svc.OnPlayerStatsResult(ctx, reqID, oracle.EncodeUint64(2), []byte(validProof))
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestPlayerStatsResultErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	matchID := f.submit(t)
	matchReq, err := f.svc.RequestVerification(ctx, matchID)
	require.NoError(t, err)

	// A match request id is not a player-stats request.
	_, err = f.svc.OnPlayerStatsResult(ctx, matchReq, oracle.EncodeUint64(1), []byte(validProof))
	assert.ErrorIs(t, err, ErrInvalidRequest)

	require.NoError(t, f.svc.OnDecryptionResult(ctx, matchReq, oracle.EncodeStrings("1", "log", "bob"), []byte(validProof)))
	reqID, err := f.svc.RequestPlayerStatsDecryption(ctx, "bob")
	require.NoError(t, err)

	_, err = f.svc.OnPlayerStatsResult(ctx, reqID, oracle.EncodeStrings("one"), []byte(validProof))
	assert.ErrorIs(t, err, ErrMalformedCleartext)
	assert.Equal(t, models.PendingRequested, f.pending(t, models.RequestKindPlayerStats, reqID).Status)
}
