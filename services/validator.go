// services/validator.go
package services

import (
	"context"
	"log"

	"encrypted-match-system/encryption"
)

// ValidateTournamentResult recomputes the rankings over matchIDs and checks
// that claimedWinner is the top scorer. Ties go to whoever reached the top
// score first in ranking order. With no positive score there is no winner
// and every claim is rejected.
func (s *MatchService) ValidateTournamentResult(ctx context.Context, matchIDs []uint64, claimedWinner string) (bool, error) {
	rankings, err := s.CalculateRankings(ctx, matchIDs)
	if err != nil {
		return false, err
	}
	expected, ok := expectedWinner(rankings)
	if !ok {
		log.Printf("[Validator] ⚠️ No scoring player among %d matches, rejecting claim for %s", len(matchIDs), claimedWinner)
		return false, nil
	}
	valid := encryption.IdentityHash(expected) == encryption.IdentityHash(claimedWinner)
	log.Printf("[Validator] Claimed winner %s, expected %s, valid=%t", claimedWinner, expected, valid)
	return valid, nil
}

func expectedWinner(r Rankings) (string, bool) {
	var maxScore int64
	winner, found := "", false
	for i, score := range r.Scores {
		if score > maxScore {
			maxScore = score
			winner = r.PlayerIDs[i]
			found = true
		}
	}
	return winner, found
}
