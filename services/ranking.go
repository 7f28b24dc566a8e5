// services/ranking.go
package services

import (
	"context"

	"encrypted-match-system/encryption"
	"encrypted-match-system/models"
	"encrypted-match-system/store"
)

// DefaultMatchScore is what every verified match is worth unless a
// different ScoreFunc is configured.
const DefaultMatchScore = 100

// ScoreFunc scores a single verified match for its player.
type ScoreFunc func(rec models.DecryptedMatchRecord) int64

// ConstantScore awards the same points for every verified match.
func ConstantScore(points int64) ScoreFunc {
	return func(models.DecryptedMatchRecord) int64 { return points }
}

// Rankings lists players with their accumulated score, in order of first
// appearance among the requested matches.
type Rankings struct {
	PlayerIDs []string `json:"player_ids"`
	Scores    []int64  `json:"scores"`
	// SeenPlayers counts each time a player's running total was zero when a
	// match was added to it. Players whose total ends at zero are counted
	// here but left out of PlayerIDs; this is kept for compatibility with
	// existing result consumers.
	SeenPlayers int `json:"seen_players"`
}

// CalculateRankings aggregates scores of the verified matches among matchIDs.
// Unknown and unverified matches are skipped.
func (s *MatchService) CalculateRankings(ctx context.Context, matchIDs []uint64) (Rankings, error) {
	var recs map[uint64]models.DecryptedMatchRecord
	err := s.Store.Transaction(ctx, func(tx store.Tx) error {
		var err error
		recs, err = tx.DecryptedMatches(matchIDs)
		return err
	})
	if err != nil {
		return Rankings{}, err
	}
	score := s.Score
	if score == nil {
		score = ConstantScore(DefaultMatchScore)
	}
	return rank(matchIDs, recs, score), nil
}

// rank groups matches by identity hash, like the ledger, and reports each
// player under the spelling of their first match.
func rank(matchIDs []uint64, recs map[uint64]models.DecryptedMatchRecord, score ScoreFunc) Rankings {
	totals := make(map[string]int64)
	var out Rankings
	for _, id := range matchIDs {
		rec, ok := recs[id]
		if !ok || !rec.Verified {
			continue
		}
		key := encryption.IdentityHash(rec.PlayerID)
		if totals[key] == 0 {
			out.SeenPlayers++
		}
		totals[key] += score(rec)
	}

	// Second pass emits in first-appearance order; zeroing the total stops
	// a player from being emitted twice.
	for _, id := range matchIDs {
		rec, ok := recs[id]
		if !ok || !rec.Verified {
			continue
		}
		key := encryption.IdentityHash(rec.PlayerID)
		if total := totals[key]; total != 0 {
			out.PlayerIDs = append(out.PlayerIDs, rec.PlayerID)
			out.Scores = append(out.Scores, total)
			totals[key] = 0
		}
	}
	return out
}
