package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"encrypted-match-system/encryption"
	"encrypted-match-system/models"
	"encrypted-match-system/oracle"
	"encrypted-match-system/store"
)

// counterArith is a transparent stand-in for the homomorphic backend:
// a handle is the decimal counter value.
type counterArith struct{}

func (counterArith) Zero() (encryption.Handle, error) { return encryption.Handle("0"), nil }
func (counterArith) One() (encryption.Handle, error)  { return encryption.Handle("1"), nil }

func (counterArith) Add(a, b encryption.Handle) (encryption.Handle, error) {
	x, err := strconv.Atoi(string(a))
	if err != nil {
		return nil, encryption.ErrInvalidHandle
	}
	y, err := strconv.Atoi(string(b))
	if err != nil {
		return nil, encryption.ErrInvalidHandle
	}
	return encryption.Handle(strconv.Itoa(x + y)), nil
}

func (counterArith) IsInitialized(h encryption.Handle) bool { return len(h) > 0 }

type decryptionCall struct {
	handles    []encryption.Handle
	callbackID string
}

type fakeOracle struct {
	mu    sync.Mutex
	calls []decryptionCall
	err   error
}

func (f *fakeOracle) RequestDecryption(_ context.Context, handles []encryption.Handle, callbackID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.calls = append(f.calls, decryptionCall{handles: handles, callbackID: callbackID})
	return fmt.Sprintf("req-%d", len(f.calls)), nil
}

const validProof = "ok"

var errBadSignature = errors.New("bad signature")

// fakeProofs accepts exactly the proof "ok".
type fakeProofs struct{}

func (fakeProofs) CheckProof(_ string, _, proof []byte) error {
	if string(proof) != validProof {
		return errBadSignature
	}
	return nil
}

var testNow = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

type fixture struct {
	svc    *MatchService
	oracle *fakeOracle
	events <-chan models.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fo := &fakeOracle{}
	svc := NewMatchService(store.NewMemoryStore(), fo, fakeProofs{}, counterArith{}, NewBus(64))
	svc.Now = func() time.Time { return testNow }
	events, cancel := svc.Bus.Subscribe()
	t.Cleanup(cancel)
	return &fixture{svc: svc, oracle: fo, events: events}
}

func (f *fixture) submit(t *testing.T) uint64 {
	t.Helper()
	id, err := f.svc.Submit(context.Background(), encryption.Handle("enc-stats"), encryption.Handle("enc-log"), encryption.Handle("enc-player"))
	require.NoError(t, err)
	return id
}

// verify submits a match and drives it through a successful callback.
func (f *fixture) verify(t *testing.T, stats, gameLog, playerID string) uint64 {
	t.Helper()
	ctx := context.Background()
	id := f.submit(t)
	reqID, err := f.svc.RequestVerification(ctx, id)
	require.NoError(t, err)
	require.NoError(t, f.svc.OnDecryptionResult(ctx, reqID, oracle.EncodeStrings(stats, gameLog, playerID), []byte(validProof)))
	return id
}

func (f *fixture) pending(t *testing.T, kind models.RequestKind, requestID string) models.PendingDecryption {
	t.Helper()
	var out models.PendingDecryption
	require.NoError(t, f.svc.Store.Transaction(context.Background(), func(tx store.Tx) error {
		p, err := tx.Pending(kind, requestID)
		if err != nil {
			return err
		}
		out = *p
		return nil
	}))
	return out
}

// drain returns the events published so far.
func (f *fixture) drain() []models.Event {
	var out []models.Event
	for {
		select {
		case ev := <-f.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventKinds(evs []models.Event) []models.EventKind {
	out := make([]models.EventKind, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Kind)
	}
	return out
}
