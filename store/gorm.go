// store/gorm.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"encrypted-match-system/models"
)

// GormStore persists the core state in Postgres through GORM.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// Migrate creates the tables and seeds the match id sequence.
func (s *GormStore) Migrate() error {
	if err := s.DB.AutoMigrate(
		&models.EncryptedMatchRecord{},
		&models.DecryptedMatchRecord{},
		&models.MatchSequence{},
		&models.PendingDecryption{},
		&models.PlayerStat{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	seq := models.MatchSequence{Name: models.MatchSequenceName}
	return s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Tx) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

type gormTx struct {
	db *gorm.DB
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (t *gormTx) NextMatchID() (uint64, error) {
	var seq models.MatchSequence
	if err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", models.MatchSequenceName).
		First(&seq).Error; err != nil {
		return 0, fmt.Errorf("failed to lock match sequence for update: %w", err)
	}
	next := seq.Value + 1
	if err := t.db.Model(&seq).
		Where("name = ?", seq.Name).
		Update("value", next).Error; err != nil {
		return 0, fmt.Errorf("failed to advance match sequence: %w", err)
	}
	return next, nil
}

func (t *gormTx) CreateMatch(enc *models.EncryptedMatchRecord, dec *models.DecryptedMatchRecord) error {
	if err := t.db.Create(enc).Error; err != nil {
		return fmt.Errorf("failed to create encrypted match: %w", err)
	}
	if err := t.db.Create(dec).Error; err != nil {
		return fmt.Errorf("failed to create decrypted match: %w", err)
	}
	return nil
}

func (t *gormTx) EncryptedMatch(id uint64) (*models.EncryptedMatchRecord, error) {
	var rec models.EncryptedMatchRecord
	if err := t.db.First(&rec, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

func (t *gormTx) DecryptedMatch(id uint64) (*models.DecryptedMatchRecord, error) {
	var rec models.DecryptedMatchRecord
	if err := t.db.First(&rec, "match_id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

func (t *gormTx) DecryptedMatches(ids []uint64) (map[uint64]models.DecryptedMatchRecord, error) {
	out := make(map[uint64]models.DecryptedMatchRecord, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var recs []models.DecryptedMatchRecord
	if err := t.db.Where("match_id IN ?", ids).Find(&recs).Error; err != nil {
		return nil, err
	}
	for _, r := range recs {
		out[r.MatchID] = r
	}
	return out, nil
}

func (t *gormTx) SaveDecryptedMatch(dec *models.DecryptedMatchRecord) error {
	return t.db.Save(dec).Error
}

func (t *gormTx) CreatePending(p *models.PendingDecryption) error {
	return t.db.Create(p).Error
}

func (t *gormTx) Pending(kind models.RequestKind, requestID string) (*models.PendingDecryption, error) {
	var p models.PendingDecryption
	if err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("kind = ? AND request_id = ?", kind, requestID).
		First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (t *gormTx) SavePending(p *models.PendingDecryption) error {
	return t.db.Save(p).Error
}

func (t *gormTx) PendingOlderThan(status models.PendingStatus, cutoff time.Time) ([]models.PendingDecryption, error) {
	var out []models.PendingDecryption
	err := t.db.Where("status = ? AND created_at < ?", status, cutoff).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (t *gormTx) PlayerStat(playerID string) (*models.PlayerStat, error) {
	var ps models.PlayerStat
	if err := t.db.First(&ps, "player_id = ?", playerID).Error; err != nil {
		return nil, notFound(err)
	}
	return &ps, nil
}

func (t *gormTx) PlayerStatByHash(identityHash string) (*models.PlayerStat, error) {
	var ps models.PlayerStat
	if err := t.db.First(&ps, "identity_hash = ?", identityHash).Error; err != nil {
		return nil, notFound(err)
	}
	return &ps, nil
}

func (t *gormTx) CreatePlayerStat(ps *models.PlayerStat) error {
	var count int64
	if err := t.db.Model(&models.PlayerStat{}).Count(&count).Error; err != nil {
		return err
	}
	ps.ListIndex = count
	return t.db.Create(ps).Error
}

func (t *gormTx) SavePlayerStat(ps *models.PlayerStat) error {
	return t.db.Model(ps).
		Where("player_id = ?", ps.PlayerID).
		Update("encrypted_counter", ps.EncryptedCounter).Error
}

func (t *gormTx) PlayerStats() ([]models.PlayerStat, error) {
	var out []models.PlayerStat
	err := t.db.Order("list_index ASC").Find(&out).Error
	return out, err
}
