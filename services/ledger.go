// services/ledger.go
package services

import (
	"context"
	"errors"
	"fmt"

	"encrypted-match-system/encryption"
	"encrypted-match-system/models"
	"encrypted-match-system/store"
)

// creditPlayer adds an encrypted one to the player's counter, creating the
// entry with an encrypted zero on the player's first verified match. Players
// are keyed by identity hash, so unicode-equivalent ids share one entry.
func (s *MatchService) creditPlayer(tx store.Tx, playerID string) error {
	hash := encryption.IdentityHash(playerID)
	ps, err := tx.PlayerStatByHash(hash)
	switch {
	case errors.Is(err, store.ErrNotFound):
		zero, err := s.Arith.Zero()
		if err != nil {
			return fmt.Errorf("init counter for %s: %w", playerID, err)
		}
		ps = &models.PlayerStat{PlayerID: playerID, IdentityHash: hash, EncryptedCounter: zero}
		if err := tx.CreatePlayerStat(ps); err != nil {
			return fmt.Errorf("create ledger entry for %s: %w", playerID, err)
		}
	case err != nil:
		return err
	case !s.Arith.IsInitialized(ps.EncryptedCounter):
		zero, err := s.Arith.Zero()
		if err != nil {
			return fmt.Errorf("init counter for %s: %w", playerID, err)
		}
		ps.EncryptedCounter = zero
	}

	one, err := s.Arith.One()
	if err != nil {
		return err
	}
	sum, err := s.Arith.Add(ps.EncryptedCounter, one)
	if err != nil {
		return fmt.Errorf("increment counter for %s: %w", playerID, err)
	}
	ps.EncryptedCounter = sum
	return tx.SavePlayerStat(ps)
}

// EncryptedPlayerStats returns the player's encrypted verified-match counter.
func (s *MatchService) EncryptedPlayerStats(ctx context.Context, playerID string) (encryption.Handle, error) {
	var out encryption.Handle
	err := s.Store.Transaction(ctx, func(tx store.Tx) error {
		ps, err := loadPlayer(tx, encryption.IdentityHash(playerID))
		if err != nil {
			return err
		}
		out = ps.EncryptedCounter
		return nil
	})
	return out, err
}

// Players lists ledger players in order of their first verified match.
func (s *MatchService) Players(ctx context.Context) ([]string, error) {
	var out []string
	err := s.Store.Transaction(ctx, func(tx store.Tx) error {
		stats, err := tx.PlayerStats()
		if err != nil {
			return err
		}
		for _, ps := range stats {
			out = append(out, ps.PlayerID)
		}
		return nil
	})
	return out, err
}

func loadPlayer(tx store.Tx, identityHash string) (*models.PlayerStat, error) {
	ps, err := tx.PlayerStatByHash(identityHash)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, identityHash)
	}
	return ps, err
}
