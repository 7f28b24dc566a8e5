// services/registry.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"encrypted-match-system/encryption"
	"encrypted-match-system/models"
	"encrypted-match-system/store"
)

// Submit stores a sealed match and returns its id. Ciphertexts are taken as
// produced by the client; only empty handles are refused.
func (s *MatchService) Submit(ctx context.Context, encryptedStats, encryptedLog, encryptedPlayerID encryption.Handle) (uint64, error) {
	if len(encryptedStats) == 0 || len(encryptedLog) == 0 || len(encryptedPlayerID) == 0 {
		return 0, ErrEmptyCiphertext
	}

	now := s.now()
	var matchID uint64
	err := s.Store.Transaction(ctx, func(tx store.Tx) error {
		id, err := tx.NextMatchID()
		if err != nil {
			return err
		}
		enc := &models.EncryptedMatchRecord{
			ID:                   id,
			EncryptedPlayerStats: encryptedStats,
			EncryptedGameLog:     encryptedLog,
			EncryptedPlayerID:    encryptedPlayerID,
			Timestamp:            now,
		}
		if err := tx.CreateMatch(enc, &models.DecryptedMatchRecord{MatchID: id}); err != nil {
			return err
		}
		matchID = id
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("submit match: %w", err)
	}

	log.Printf("[Registry] 📥 Match %d submitted", matchID)
	s.publish(ctx, models.Event{Kind: models.EventMatchSubmitted, MatchID: matchID, Timestamp: now})
	return matchID, nil
}

// DecryptedMatchData returns the plaintext side of a match. Fields are empty
// and Verified is false until the match has been verified.
func (s *MatchService) DecryptedMatchData(ctx context.Context, matchID uint64) (models.DecryptedMatchRecord, error) {
	var out models.DecryptedMatchRecord
	err := s.Store.Transaction(ctx, func(tx store.Tx) error {
		dec, err := loadDecrypted(tx, matchID)
		if err != nil {
			return err
		}
		out = *dec
		return nil
	})
	return out, err
}

// EncryptedMatch returns the sealed record as submitted.
func (s *MatchService) EncryptedMatch(ctx context.Context, matchID uint64) (models.EncryptedMatchRecord, error) {
	var out models.EncryptedMatchRecord
	err := s.Store.Transaction(ctx, func(tx store.Tx) error {
		enc, err := tx.EncryptedMatch(matchID)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %d", ErrMatchNotFound, matchID)
		}
		if err != nil {
			return err
		}
		out = *enc
		return nil
	})
	return out, err
}

func loadDecrypted(tx store.Tx, matchID uint64) (*models.DecryptedMatchRecord, error) {
	dec, err := tx.DecryptedMatch(matchID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrMatchNotFound, matchID)
	}
	return dec, err
}
