// services/player_stats.go
package services

import (
	"context"
	"fmt"
	"log"

	"encrypted-match-system/encryption"
	"encrypted-match-system/models"
	"encrypted-match-system/oracle"
	"encrypted-match-system/store"
)

// PlayerStatsReveal is a proven decryption of a player's counter.
type PlayerStatsReveal struct {
	PlayerID   string `json:"player_id"`
	MatchCount uint64 `json:"match_count"`
}

// RequestPlayerStatsDecryption asks the oracle to open a player's encrypted
// counter. The request is correlated by the player's identity hash.
func (s *MatchService) RequestPlayerStatsDecryption(ctx context.Context, playerID string) (string, error) {
	hash := encryption.IdentityHash(playerID)
	var counter encryption.Handle
	err := s.Store.Transaction(ctx, func(tx store.Tx) error {
		ps, err := loadPlayer(tx, hash)
		if err != nil {
			return err
		}
		counter = ps.EncryptedCounter
		return nil
	})
	if err != nil {
		return "", err
	}

	requestID, err := s.Oracle.RequestDecryption(ctx, []encryption.Handle{counter}, models.RequestKindPlayerStats.CallbackID())
	if err != nil {
		return "", fmt.Errorf("request decryption of stats for %s: %w", playerID, err)
	}

	err = s.Store.Transaction(ctx, func(tx store.Tx) error {
		return tx.CreatePending(&models.PendingDecryption{
			Kind:      models.RequestKindPlayerStats,
			RequestID: requestID,
			DomainKey: hash,
			Status:    models.PendingRequested,
			CreatedAt: s.now(),
		})
	})
	if err != nil {
		return "", fmt.Errorf("record request %s for player %s: %w", requestID, playerID, err)
	}

	log.Printf("[Oracle] 🔐 Stats decryption requested for player %s (request %s)", playerID, requestID)
	return requestID, nil
}

// OnPlayerStatsResult handles the oracle callback for a player counter. The
// proven count is returned and announced as an event; the ledger itself stays
// encrypted and is not modified.
func (s *MatchService) OnPlayerStatsResult(ctx context.Context, requestID string, cleartext, proof []byte) (PlayerStatsReveal, error) {
	var reveal PlayerStatsReveal
	err := s.Store.Transaction(ctx, func(tx store.Tx) error {
		p, err := lookupPending(tx, models.RequestKindPlayerStats, requestID)
		if err != nil {
			return err
		}
		if p.Status != models.PendingRequested {
			return fmt.Errorf("%w: %s request %s is %s", ErrAlreadyVerified, p.Kind, requestID, p.Status)
		}
		ps, err := loadPlayer(tx, p.DomainKey)
		if err != nil {
			return err
		}
		if err := s.Proofs.CheckProof(requestID, cleartext, proof); err != nil {
			return fmt.Errorf("%w: %w", ErrProofVerificationFailed, err)
		}
		count, err := oracle.DecodeUint64(cleartext)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedCleartext, err)
		}

		now := s.now()
		p.Status = models.PendingFulfilled
		p.ResolvedAt = &now
		if err := tx.SavePending(p); err != nil {
			return err
		}
		reveal = PlayerStatsReveal{PlayerID: ps.PlayerID, MatchCount: count}
		return nil
	})
	if err != nil {
		log.Printf("[Verifier] ❌ Stats callback for request %s rejected: %v", requestID, err)
		return PlayerStatsReveal{}, err
	}

	log.Printf("[Verifier] ✅ Stats for player %s decrypted (request %s)", reveal.PlayerID, requestID)
	count := reveal.MatchCount
	s.publish(ctx, models.Event{
		Kind:       models.EventPlayerStatsDecrypted,
		RequestID:  requestID,
		PlayerID:   reveal.PlayerID,
		MatchCount: &count,
	})
	return reveal, nil
}
