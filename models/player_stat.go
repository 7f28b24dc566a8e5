// models/player_stat.go
package models

// PlayerStat is a player's entry in the encrypted stat ledger. The counter
// holds the encrypted number of verified matches the player appeared in.
// ListIndex orders players by first verified sighting.
type PlayerStat struct {
	PlayerID         string `gorm:"primaryKey" json:"player_id"`
	IdentityHash     string `gorm:"uniqueIndex;not null;type:char(64)" json:"identity_hash"`
	EncryptedCounter []byte `gorm:"type:bytea;not null" json:"encrypted_counter"`
	ListIndex        int64  `gorm:"uniqueIndex;not null" json:"list_index"`

	Timestamps
}
