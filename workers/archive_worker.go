// workers/archive_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gosimple/slug"

	"encrypted-match-system/models"
)

// Uploader stores an object and returns where it can be fetched from.
type Uploader interface {
	PutJSON(ctx context.Context, key string, body []byte) (string, error)
}

// MatchSource is the read side the archiver needs.
type MatchSource interface {
	Subscribe() (<-chan models.Event, func())
	EncryptedMatch(ctx context.Context, matchID uint64) (models.EncryptedMatchRecord, error)
	DecryptedMatchData(ctx context.Context, matchID uint64) (models.DecryptedMatchRecord, error)
}

// ArchivedMatch is the object written for each verified match.
type ArchivedMatch struct {
	MatchID     uint64    `json:"match_id"`
	SubmittedAt time.Time `json:"submitted_at"`
	VerifiedAt  time.Time `json:"verified_at"`
	PlayerID    string    `json:"player_id"`
	PlayerStats string    `json:"player_stats"`
	GameLog     string    `json:"game_log"`
}

// MatchArchiver copies every verified match to object storage.
type MatchArchiver struct {
	source   MatchSource
	uploader Uploader
}

func NewMatchArchiver(source MatchSource, uploader Uploader) *MatchArchiver {
	return &MatchArchiver{source: source, uploader: uploader}
}

// Start subscribes before returning so no event published afterwards is missed.
func (w *MatchArchiver) Start(ctx context.Context) {
	log.Println("🔁 Starting verified match archiver…")
	events, cancel := w.source.Subscribe()
	go w.run(ctx, events, cancel)
}

func (w *MatchArchiver) run(ctx context.Context, events <-chan models.Event, cancel func()) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ Verified match archiver stopped")
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Kind != models.EventMatchVerified {
				continue
			}
			url, err := w.Archive(ctx, ev.MatchID)
			if err != nil {
				log.Printf("❌ [Archive] Match %d: %v", ev.MatchID, err)
				continue
			}
			log.Printf("✅ [Archive] Match %d archived at %s", ev.MatchID, url)
		}
	}
}

// Archive uploads one verified match.
func (w *MatchArchiver) Archive(ctx context.Context, matchID uint64) (string, error) {
	dec, err := w.source.DecryptedMatchData(ctx, matchID)
	if err != nil {
		return "", err
	}
	if !dec.Verified {
		return "", fmt.Errorf("match %d is not verified", matchID)
	}
	enc, err := w.source.EncryptedMatch(ctx, matchID)
	if err != nil {
		return "", err
	}

	doc := ArchivedMatch{
		MatchID:     matchID,
		SubmittedAt: enc.Timestamp,
		PlayerID:    dec.PlayerID,
		PlayerStats: dec.PlayerStats,
		GameLog:     dec.GameLog,
	}
	if dec.VerifiedAt != nil {
		doc.VerifiedAt = *dec.VerifiedAt
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return w.uploader.PutJSON(ctx, ArchiveKey(dec.PlayerID, matchID), body)
}

// ArchiveKey is the object key of an archived match.
func ArchiveKey(playerID string, matchID uint64) string {
	player := slug.Make(playerID)
	if player == "" {
		player = "unknown"
	}
	return fmt.Sprintf("matches/%s/%d.json", player, matchID)
}
