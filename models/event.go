// models/event.go
package models

import "time"

type EventKind string

const (
	EventMatchSubmitted        EventKind = "match-submitted"
	EventVerificationRequested EventKind = "verification-requested"
	EventMatchVerified         EventKind = "match-verified"
	EventPlayerStatsDecrypted  EventKind = "player-stats-decrypted"
)

// Event is a domain event. Events are only published after the change that
// produced them has been committed.
type Event struct {
	ID         string    `json:"id"`
	Kind       EventKind `json:"kind"`
	MatchID    uint64    `json:"match_id,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	PlayerID   string    `json:"player_id,omitempty"`
	MatchCount *uint64   `json:"match_count,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
