// models/match.go
package models

import "time"

// EncryptedMatchRecord is the sealed match telemetry as submitted by the
// game client. Immutable once created.
type EncryptedMatchRecord struct {
	ID                   uint64    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	EncryptedPlayerStats []byte    `gorm:"type:bytea;not null" json:"encrypted_player_stats"`
	EncryptedGameLog     []byte    `gorm:"type:bytea;not null" json:"encrypted_game_log"`
	EncryptedPlayerID    []byte    `gorm:"type:bytea;not null" json:"encrypted_player_id"`
	Timestamp            time.Time `gorm:"not null;index" json:"timestamp"`
}

// DecryptedMatchRecord holds the plaintext side of a match. It is created
// empty next to its encrypted counterpart and filled exactly once, when the
// oracle's decryption has been proven.
type DecryptedMatchRecord struct {
	MatchID     uint64     `gorm:"primaryKey;autoIncrement:false" json:"match_id"`
	PlayerStats string     `gorm:"type:text" json:"player_stats"`
	GameLog     string     `gorm:"type:text" json:"game_log"`
	PlayerID    string     `gorm:"index" json:"player_id"`
	Verified    bool       `gorm:"not null;default:false;index" json:"verified"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
}

// MatchSequence is the single-row counter match ids are drawn from.
// Rows are locked for update while an id is being allocated.
type MatchSequence struct {
	Name  string `gorm:"primaryKey" json:"name"`
	Value uint64 `gorm:"not null;default:0" json:"value"`
}

const MatchSequenceName = "matches"
