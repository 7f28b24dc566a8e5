package models

import "time"

// Timestamps adds GORM auto-times. Ledger rows are never removed, so there
// is no soft-delete column.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
