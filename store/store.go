// Package store is the persistence boundary of the match verification core.
// Every entry point runs inside exactly one Transaction: either all of its
// writes are committed or none are.
package store

import (
	"context"
	"errors"
	"time"

	"encrypted-match-system/models"
)

var ErrNotFound = errors.New("record not found")

type Store interface {
	// Transaction runs fn in a read-write transaction. A non-nil error from fn
	// rolls back every write fn made.
	Transaction(ctx context.Context, fn func(tx Tx) error) error
}

type Tx interface {
	// NextMatchID allocates the next match id. Ids start at 1 and are only
	// consumed when the surrounding transaction commits.
	NextMatchID() (uint64, error)
	CreateMatch(enc *models.EncryptedMatchRecord, dec *models.DecryptedMatchRecord) error
	EncryptedMatch(id uint64) (*models.EncryptedMatchRecord, error)
	DecryptedMatch(id uint64) (*models.DecryptedMatchRecord, error)
	// DecryptedMatches returns the records that exist among ids, keyed by id.
	DecryptedMatches(ids []uint64) (map[uint64]models.DecryptedMatchRecord, error)
	SaveDecryptedMatch(dec *models.DecryptedMatchRecord) error

	CreatePending(p *models.PendingDecryption) error
	Pending(kind models.RequestKind, requestID string) (*models.PendingDecryption, error)
	SavePending(p *models.PendingDecryption) error
	// PendingOlderThan lists entries in status created before cutoff, oldest first.
	PendingOlderThan(status models.PendingStatus, cutoff time.Time) ([]models.PendingDecryption, error)

	PlayerStat(playerID string) (*models.PlayerStat, error)
	PlayerStatByHash(identityHash string) (*models.PlayerStat, error)
	CreatePlayerStat(ps *models.PlayerStat) error
	SavePlayerStat(ps *models.PlayerStat) error
	// PlayerStats returns all ledger entries ordered by ListIndex.
	PlayerStats() ([]models.PlayerStat, error)
}
