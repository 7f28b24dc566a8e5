// services/anticheat.go
package services

import (
	"context"
	"fmt"

	"encrypted-match-system/encryption"
	"encrypted-match-system/store"
)

// DetectCheatingPatterns reports whether the verified game log of a match is
// identical to one of the known cheating patterns. Only exact matches count:
// the comparison is between content hashes.
func (s *MatchService) DetectCheatingPatterns(ctx context.Context, matchID uint64, knownPatterns []string) (bool, error) {
	var found bool
	err := s.Store.Transaction(ctx, func(tx store.Tx) error {
		dec, err := loadDecrypted(tx, matchID)
		if err != nil {
			return err
		}
		if !dec.Verified {
			return fmt.Errorf("%w: match %d", ErrMatchNotVerified, matchID)
		}
		logHash := encryption.ContentHash(dec.GameLog)
		for _, pattern := range knownPatterns {
			if encryption.ContentHash(pattern) == logHash {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}
