// models/pending_decryption.go
package models

import "time"

// RequestKind namespaces oracle request ids so match verifications and
// player-stat lookups can never resolve to each other's domain keys.
type RequestKind string

const (
	RequestKindMatch       RequestKind = "match"
	RequestKindPlayerStats RequestKind = "player_stats"
)

// CallbackID is the identifier handed to the oracle with each request; it
// tells the relay which callback to invoke.
func (k RequestKind) CallbackID() string {
	switch k {
	case RequestKindMatch:
		return "match-verification"
	case RequestKindPlayerStats:
		return "player-stats"
	}
	return ""
}

// KindForCallback is the inverse of CallbackID.
func KindForCallback(callbackID string) (RequestKind, bool) {
	switch callbackID {
	case "match-verification":
		return RequestKindMatch, true
	case "player-stats":
		return RequestKindPlayerStats, true
	}
	return "", false
}

// PendingStatus is the lifecycle of a decryption request:
// requested → fulfilled | rejected.
type PendingStatus string

const (
	PendingRequested PendingStatus = "requested"
	PendingFulfilled PendingStatus = "fulfilled"
	PendingRejected  PendingStatus = "rejected"
)

// PendingDecryption correlates an oracle request id with the match id (or
// player identity hash) it was issued for. Entries are never deleted.
type PendingDecryption struct {
	Kind       RequestKind   `gorm:"primaryKey;type:varchar(16)" json:"kind"`
	RequestID  string        `gorm:"primaryKey" json:"request_id"`
	DomainKey  string        `gorm:"index;not null" json:"domain_key"`
	Status     PendingStatus `gorm:"type:varchar(16);index;not null;default:'requested'" json:"status"`
	CreatedAt  time.Time     `json:"created_at" gorm:"autoCreateTime"`
	ResolvedAt *time.Time    `json:"resolved_at,omitempty"`
}
