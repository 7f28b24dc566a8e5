package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"encrypted-match-system/models"
)

func TestDetectCheatingPatterns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.DetectCheatingPatterns(ctx, 99, []string{"x"})
	assert.ErrorIs(t, err, ErrMatchNotFound)

	pendingID := f.submit(t)
	_, err = f.svc.DetectCheatingPatterns(ctx, pendingID, []string{"x"})
	assert.ErrorIs(t, err, ErrMatchNotVerified)

	id := f.verify(t, "95", "aimbot:headshot-every-frame", "alice")

	found, err := f.svc.DetectCheatingPatterns(ctx, id, []string{"wallhack", "aimbot:headshot-every-frame"})
	require.NoError(t, err)
	assert.True(t, found)

	found, err = f.svc.DetectCheatingPatterns(ctx, id, []string{"aimbot", "AIMBOT:HEADSHOT-EVERY-FRAME"})
	require.NoError(t, err)
	assert.False(t, found, "only exact matches count")

	found, err = f.svc.DetectCheatingPatterns(ctx, id, nil)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCalculateRankings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a1 := f.verify(t, "1", "l1", "A")
	a2 := f.verify(t, "2", "l2", "A")
	b1 := f.verify(t, "3", "l3", "B")
	unverified := f.submit(t)

	r, err := f.svc.CalculateRankings(ctx, []uint64{a1, a2, unverified, b1, 404})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, r.PlayerIDs)
	assert.Equal(t, []int64{200, 100}, r.Scores)
	assert.Equal(t, 2, r.SeenPlayers)

	r, err = f.svc.CalculateRankings(ctx, []uint64{b1, a1})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, r.PlayerIDs, "first-appearance order")

	r, err = f.svc.CalculateRankings(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, r.PlayerIDs)
}

func TestRankZeroScoreIsExcludedButSeen(t *testing.T) {
	recs := map[uint64]models.DecryptedMatchRecord{
		1: {MatchID: 1, PlayerID: "A", Verified: true},
		2: {MatchID: 2, PlayerID: "Z", Verified: true},
		3: {MatchID: 3, PlayerID: "A", Verified: true},
	}
	score := func(rec models.DecryptedMatchRecord) int64 {
		if rec.PlayerID == "Z" {
			return 0
		}
		return 50
	}

	r := rank([]uint64{1, 2, 3}, recs, score)
	assert.Equal(t, []string{"A"}, r.PlayerIDs)
	assert.Equal(t, []int64{100}, r.Scores)
	assert.Equal(t, 2, r.SeenPlayers)
}

func TestValidateTournamentResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.verify(t, "1", "l1", "alice")
	b1 := f.verify(t, "2", "l2", "bob")
	b2 := f.verify(t, "3", "l3", "bob")

	ok, err := f.svc.ValidateTournamentResult(ctx, []uint64{a, b1, b2}, "bob")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.ValidateTournamentResult(ctx, []uint64{a, b1, b2}, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	// Tie: the first player to reach the top score wins.
	ok, err = f.svc.ValidateTournamentResult(ctx, []uint64{a, b1}, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.svc.ValidateTournamentResult(ctx, []uint64{b1, a}, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidateTournamentResultWithoutScores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.submit(t)

	ok, err := f.svc.ValidateTournamentResult(ctx, []uint64{id}, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.svc.ValidateTournamentResult(ctx, nil, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpectedWinnerStrictMaximum(t *testing.T) {
	w, ok := expectedWinner(Rankings{PlayerIDs: []string{"a", "b", "c"}, Scores: []int64{100, 300, 300}})
	require.True(t, ok)
	assert.Equal(t, "b", w)

	_, ok = expectedWinner(Rankings{PlayerIDs: []string{"a"}, Scores: []int64{-5}})
	assert.False(t, ok)
}

func TestRankingsGroupUnicodeEquivalentPlayers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	z1 := f.verify(t, "1", "l1", "Zo\u00e9")
	z2 := f.verify(t, "2", "l2", "Zoe\u0301")
	b1 := f.verify(t, "3", "l3", "bob")
	b2 := f.verify(t, "4", "l4", "bob")
	ids := []uint64{z1, z2, b1, b2}

	players, err := f.svc.Players(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Zo\u00e9", "bob"}, players)

	r, err := f.svc.CalculateRankings(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, []string{"Zo\u00e9", "bob"}, r.PlayerIDs)
	assert.Equal(t, []int64{200, 200}, r.Scores)
	assert.Equal(t, 2, r.SeenPlayers)

	// Tied at 200, the first to appear wins whichever spelling is claimed.
	ok, err := f.svc.ValidateTournamentResult(ctx, ids, "Zoe\u0301")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.svc.ValidateTournamentResult(ctx, ids, "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}
