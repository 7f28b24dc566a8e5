package workers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"encrypted-match-system/models"
	"encrypted-match-system/services"
)

type fakeMatches struct {
	events chan models.Event
	enc    map[uint64]models.EncryptedMatchRecord
	dec    map[uint64]models.DecryptedMatchRecord
}

func (f *fakeMatches) Subscribe() (<-chan models.Event, func()) { return f.events, func() {} }

func (f *fakeMatches) EncryptedMatch(_ context.Context, id uint64) (models.EncryptedMatchRecord, error) {
	e, ok := f.enc[id]
	if !ok {
		return e, services.ErrMatchNotFound
	}
	return e, nil
}

func (f *fakeMatches) DecryptedMatchData(_ context.Context, id uint64) (models.DecryptedMatchRecord, error) {
	d, ok := f.dec[id]
	if !ok {
		return d, services.ErrMatchNotFound
	}
	return d, nil
}

type upload struct {
	key  string
	body []byte
}

type fakeUploader struct {
	uploads chan upload
}

func (f *fakeUploader) PutJSON(_ context.Context, key string, body []byte) (string, error) {
	f.uploads <- upload{key: key, body: body}
	return "https://cdn.example.test/" + key, nil
}

func TestArchiveKey(t *testing.T) {
	assert.Equal(t, "matches/alice-smith/7.json", ArchiveKey("Alice Smith", 7))
	assert.Equal(t, "matches/unknown/8.json", ArchiveKey("", 8))
}

func TestMatchArchiverUploadsVerifiedMatches(t *testing.T) {
	submitted := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	verified := submitted.Add(time.Minute)
	src := &fakeMatches{
		events: make(chan models.Event, 4),
		enc: map[uint64]models.EncryptedMatchRecord{
			1: {ID: 1, Timestamp: submitted},
			2: {ID: 2, Timestamp: submitted},
		},
		dec: map[uint64]models.DecryptedMatchRecord{
			1: {MatchID: 1, PlayerStats: "95", GameLog: "log-A", PlayerID: "alice", Verified: true, VerifiedAt: &verified},
			2: {MatchID: 2},
		},
	}
	up := &fakeUploader{uploads: make(chan upload, 4)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	NewMatchArchiver(src, up).Start(ctx)

	src.events <- models.Event{Kind: models.EventMatchSubmitted, MatchID: 2}
	src.events <- models.Event{Kind: models.EventMatchVerified, MatchID: 1}

	select {
	case u := <-up.uploads:
		assert.Equal(t, "matches/alice/1.json", u.key)
		var doc ArchivedMatch
		require.NoError(t, json.Unmarshal(u.body, &doc))
		assert.Equal(t, ArchivedMatch{
			MatchID:     1,
			SubmittedAt: submitted,
			VerifiedAt:  verified,
			PlayerID:    "alice",
			PlayerStats: "95",
			GameLog:     "log-A",
		}, doc)
	case <-time.After(time.Second):
		t.Fatal("no upload")
	}

	select {
	case u := <-up.uploads:
		t.Fatalf("unexpected upload %s", u.key)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestArchiveRefusesUnverifiedMatch(t *testing.T) {
	src := &fakeMatches{
		enc: map[uint64]models.EncryptedMatchRecord{2: {ID: 2}},
		dec: map[uint64]models.DecryptedMatchRecord{2: {MatchID: 2}},
	}
	up := &fakeUploader{uploads: make(chan upload, 1)}

	_, err := NewMatchArchiver(src, up).Archive(context.Background(), 2)
	assert.Error(t, err)

	_, err = NewMatchArchiver(src, up).Archive(context.Background(), 3)
	assert.ErrorIs(t, err, services.ErrMatchNotFound)
	assert.Empty(t, up.uploads)
}
