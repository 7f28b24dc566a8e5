// services/correlator.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"encrypted-match-system/encryption"
	"encrypted-match-system/models"
	"encrypted-match-system/store"
)

// RequestVerification asks the oracle to decrypt a match's three ciphertexts
// and records the request id so the callback can be correlated. Issuing it
// again before a callback arrives adds another pending request for the same
// match; the first callback to resolve wins.
func (s *MatchService) RequestVerification(ctx context.Context, matchID uint64) (string, error) {
	var handles []encryption.Handle
	err := s.Store.Transaction(ctx, func(tx store.Tx) error {
		if err := ensureUnverified(tx, matchID); err != nil {
			return err
		}
		enc, err := tx.EncryptedMatch(matchID)
		if err != nil {
			return err
		}
		handles = []encryption.Handle{enc.EncryptedPlayerStats, enc.EncryptedGameLog, enc.EncryptedPlayerID}
		return nil
	})
	if err != nil {
		return "", err
	}

	requestID, err := s.Oracle.RequestDecryption(ctx, handles, models.RequestKindMatch.CallbackID())
	if err != nil {
		return "", fmt.Errorf("request decryption of match %d: %w", matchID, err)
	}

	err = s.Store.Transaction(ctx, func(tx store.Tx) error {
		if err := ensureUnverified(tx, matchID); err != nil {
			return err
		}
		return tx.CreatePending(&models.PendingDecryption{
			Kind:      models.RequestKindMatch,
			RequestID: requestID,
			DomainKey: matchKey(matchID),
			Status:    models.PendingRequested,
			CreatedAt: s.now(),
		})
	})
	if err != nil {
		return "", fmt.Errorf("record request %s for match %d: %w", requestID, matchID, err)
	}

	log.Printf("[Oracle] 🔐 Verification requested for match %d (request %s)", matchID, requestID)
	s.publish(ctx, models.Event{Kind: models.EventVerificationRequested, MatchID: matchID, RequestID: requestID})
	return requestID, nil
}

// StalePending lists requests still waiting for the oracle that were issued
// before cutoff. Nothing is retried: a request the oracle never answers keeps
// its match unverified until an operator asks again.
func (s *MatchService) StalePending(ctx context.Context, cutoff time.Time) ([]models.PendingDecryption, error) {
	var out []models.PendingDecryption
	err := s.Store.Transaction(ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.PendingOlderThan(models.PendingRequested, cutoff)
		return err
	})
	return out, err
}

func ensureUnverified(tx store.Tx, matchID uint64) error {
	dec, err := loadDecrypted(tx, matchID)
	if err != nil {
		return err
	}
	if dec.Verified {
		return fmt.Errorf("%w: match %d", ErrAlreadyVerified, matchID)
	}
	return nil
}

// lookupPending resolves a callback's request id within its kind.
func lookupPending(tx store.Tx, kind models.RequestKind, requestID string) (*models.PendingDecryption, error) {
	p, err := tx.Pending(kind, requestID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown %s request %q", ErrInvalidRequest, kind, requestID)
	}
	return p, err
}

// rejectPending marks a request that lost the race to another one. It is
// committed on its own so the failed callback changes nothing else.
func (s *MatchService) rejectPending(ctx context.Context, kind models.RequestKind, requestID string) {
	err := s.Store.Transaction(ctx, func(tx store.Tx) error {
		p, err := tx.Pending(kind, requestID)
		if err != nil {
			return err
		}
		if p.Status != models.PendingRequested {
			return nil
		}
		now := s.now()
		p.Status = models.PendingRejected
		p.ResolvedAt = &now
		return tx.SavePending(p)
	})
	if err != nil {
		log.Printf("[Oracle] ⚠️ Failed to mark %s request %s rejected: %v", kind, requestID, err)
	}
}

func matchKey(matchID uint64) string { return strconv.FormatUint(matchID, 10) }

func parseMatchKey(key string) (uint64, error) {
	id, err := strconv.ParseUint(key, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad match key %q", ErrInvalidRequest, key)
	}
	return id, nil
}
