// services/verification.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"encrypted-match-system/models"
	"encrypted-match-system/oracle"
	"encrypted-match-system/store"
)

// OnDecryptionResult handles the oracle callback for a match verification.
// The proof is checked before anything is written; the decrypted fields, the
// verified flag, the pending request and the player ledger are committed in
// one transaction or not at all.
func (s *MatchService) OnDecryptionResult(ctx context.Context, requestID string, cleartext, proof []byte) error {
	var matchID uint64
	var playerID string
	err := s.Store.Transaction(ctx, func(tx store.Tx) error {
		p, err := lookupPending(tx, models.RequestKindMatch, requestID)
		if err != nil {
			return err
		}
		matchID, err = parseMatchKey(p.DomainKey)
		if err != nil {
			return err
		}
		dec, err := loadDecrypted(tx, matchID)
		if err != nil {
			return err
		}
		if dec.Verified {
			return fmt.Errorf("%w: match %d", ErrAlreadyVerified, matchID)
		}

		if err := s.Proofs.CheckProof(requestID, cleartext, proof); err != nil {
			return fmt.Errorf("%w: %w", ErrProofVerificationFailed, err)
		}
		fields, err := oracle.DecodeStrings(cleartext, 3)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedCleartext, err)
		}

		now := s.now()
		dec.PlayerStats, dec.GameLog, dec.PlayerID = fields[0], fields[1], fields[2]
		dec.Verified = true
		dec.VerifiedAt = &now
		if err := tx.SaveDecryptedMatch(dec); err != nil {
			return err
		}

		p.Status = models.PendingFulfilled
		p.ResolvedAt = &now
		if err := tx.SavePending(p); err != nil {
			return err
		}

		playerID = dec.PlayerID
		return s.creditPlayer(tx, playerID)
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyVerified) {
			s.rejectPending(ctx, models.RequestKindMatch, requestID)
		}
		log.Printf("[Verifier] ❌ Callback for request %s rejected: %v", requestID, err)
		return err
	}

	log.Printf("[Verifier] ✅ Match %d verified for player %s (request %s)", matchID, playerID, requestID)
	s.publish(ctx, models.Event{Kind: models.EventMatchVerified, MatchID: matchID, RequestID: requestID, PlayerID: playerID})
	return nil
}

// HandleOracleResult routes a relayed oracle result to the callback named by
// its callback id.
func (s *MatchService) HandleOracleResult(ctx context.Context, res oracle.Result) error {
	kind, ok := models.KindForCallback(res.CallbackID)
	if !ok {
		return fmt.Errorf("%w: unknown callback %q", ErrInvalidRequest, res.CallbackID)
	}
	switch kind {
	case models.RequestKindPlayerStats:
		_, err := s.OnPlayerStatsResult(ctx, res.RequestID, res.Cleartext, res.Proof)
		return err
	default:
		return s.OnDecryptionResult(ctx, res.RequestID, res.Cleartext, res.Proof)
	}
}
