package store

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"encrypted-match-system/models"
)

// MemoryStore keeps everything in process. Transactions work on a copy of
// the state that replaces the committed state only when fn succeeds.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

type pendingKey struct {
	kind      models.RequestKind
	requestID string
}

type memState struct {
	seq       uint64
	encrypted map[uint64]models.EncryptedMatchRecord
	decrypted map[uint64]models.DecryptedMatchRecord
	pending   map[pendingKey]models.PendingDecryption
	players   map[string]models.PlayerStat
	byHash    map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memState{
		encrypted: map[uint64]models.EncryptedMatchRecord{},
		decrypted: map[uint64]models.DecryptedMatchRecord{},
		pending:   map[pendingKey]models.PendingDecryption{},
		players:   map[string]models.PlayerStat{},
		byHash:    map[string]string{},
	}}
}

func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.state.clone()
	if err := fn(&memTx{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

// Values are stored by value and byte slices are copied on the way in and
// out, so a caller can never mutate committed state through a returned record.
func (st *memState) clone() *memState {
	return &memState{
		seq:       st.seq,
		encrypted: maps.Clone(st.encrypted),
		decrypted: maps.Clone(st.decrypted),
		pending:   maps.Clone(st.pending),
		players:   maps.Clone(st.players),
		byHash:    maps.Clone(st.byHash),
	}
}

type memTx struct {
	st *memState
}

func (t *memTx) NextMatchID() (uint64, error) {
	t.st.seq++
	return t.st.seq, nil
}

func (t *memTx) CreateMatch(enc *models.EncryptedMatchRecord, dec *models.DecryptedMatchRecord) error {
	e := *enc
	e.EncryptedPlayerStats = slices.Clone(enc.EncryptedPlayerStats)
	e.EncryptedGameLog = slices.Clone(enc.EncryptedGameLog)
	e.EncryptedPlayerID = slices.Clone(enc.EncryptedPlayerID)
	t.st.encrypted[e.ID] = e
	t.st.decrypted[dec.MatchID] = *dec
	return nil
}

func (t *memTx) EncryptedMatch(id uint64) (*models.EncryptedMatchRecord, error) {
	e, ok := t.st.encrypted[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.EncryptedPlayerStats = slices.Clone(e.EncryptedPlayerStats)
	e.EncryptedGameLog = slices.Clone(e.EncryptedGameLog)
	e.EncryptedPlayerID = slices.Clone(e.EncryptedPlayerID)
	return &e, nil
}

func (t *memTx) DecryptedMatch(id uint64) (*models.DecryptedMatchRecord, error) {
	d, ok := t.st.decrypted[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (t *memTx) DecryptedMatches(ids []uint64) (map[uint64]models.DecryptedMatchRecord, error) {
	out := make(map[uint64]models.DecryptedMatchRecord, len(ids))
	for _, id := range ids {
		if d, ok := t.st.decrypted[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

func (t *memTx) SaveDecryptedMatch(dec *models.DecryptedMatchRecord) error {
	if _, ok := t.st.decrypted[dec.MatchID]; !ok {
		return ErrNotFound
	}
	t.st.decrypted[dec.MatchID] = *dec
	return nil
}

func (t *memTx) CreatePending(p *models.PendingDecryption) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	t.st.pending[pendingKey{p.Kind, p.RequestID}] = *p
	return nil
}

func (t *memTx) Pending(kind models.RequestKind, requestID string) (*models.PendingDecryption, error) {
	p, ok := t.st.pending[pendingKey{kind, requestID}]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (t *memTx) SavePending(p *models.PendingDecryption) error {
	key := pendingKey{p.Kind, p.RequestID}
	if _, ok := t.st.pending[key]; !ok {
		return ErrNotFound
	}
	t.st.pending[key] = *p
	return nil
}

func (t *memTx) PendingOlderThan(status models.PendingStatus, cutoff time.Time) ([]models.PendingDecryption, error) {
	var out []models.PendingDecryption
	for _, p := range t.st.pending {
		if p.Status == status && p.CreatedAt.Before(cutoff) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (t *memTx) PlayerStat(playerID string) (*models.PlayerStat, error) {
	ps, ok := t.st.players[playerID]
	if !ok {
		return nil, ErrNotFound
	}
	ps.EncryptedCounter = slices.Clone(ps.EncryptedCounter)
	return &ps, nil
}

func (t *memTx) PlayerStatByHash(identityHash string) (*models.PlayerStat, error) {
	id, ok := t.st.byHash[identityHash]
	if !ok {
		return nil, ErrNotFound
	}
	return t.PlayerStat(id)
}

func (t *memTx) CreatePlayerStat(ps *models.PlayerStat) error {
	ps.ListIndex = int64(len(t.st.players))
	now := time.Now()
	ps.CreatedAt, ps.UpdatedAt = now, now
	stored := *ps
	stored.EncryptedCounter = slices.Clone(ps.EncryptedCounter)
	t.st.players[ps.PlayerID] = stored
	t.st.byHash[ps.IdentityHash] = ps.PlayerID
	return nil
}

func (t *memTx) SavePlayerStat(ps *models.PlayerStat) error {
	stored, ok := t.st.players[ps.PlayerID]
	if !ok {
		return ErrNotFound
	}
	stored.EncryptedCounter = slices.Clone(ps.EncryptedCounter)
	stored.UpdatedAt = time.Now()
	t.st.players[ps.PlayerID] = stored
	return nil
}

func (t *memTx) PlayerStats() ([]models.PlayerStat, error) {
	out := make([]models.PlayerStat, 0, len(t.st.players))
	for _, ps := range t.st.players {
		ps.EncryptedCounter = slices.Clone(ps.EncryptedCounter)
		out = append(out, ps)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ListIndex < out[j].ListIndex })
	return out, nil
}
