// services/match_service.go
package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"encrypted-match-system/encryption"
	"encrypted-match-system/models"
	"encrypted-match-system/oracle"
	"encrypted-match-system/store"
)

// MatchService implements the encrypted match lifecycle: submission,
// decryption requests, proof-gated verification, the encrypted player
// ledger, and rankings over verified matches.
//
// Each exported method is one atomic transition against Store. Callers that
// need the single-writer guarantee go through Processor.
type MatchService struct {
	Store  store.Store
	Oracle oracle.Requester
	Proofs oracle.ProofChecker
	Arith  encryption.Arithmetic
	Bus    *Bus
	Score  ScoreFunc
	Now    func() time.Time
}

func NewMatchService(st store.Store, requester oracle.Requester, proofs oracle.ProofChecker, arith encryption.Arithmetic, bus *Bus) *MatchService {
	if bus == nil {
		bus = NewBus(0)
	}
	return &MatchService{
		Store:  st,
		Oracle: requester,
		Proofs: proofs,
		Arith:  arith,
		Bus:    bus,
		Score:  ConstantScore(DefaultMatchScore),
		Now:    time.Now,
	}
}

func (s *MatchService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *MatchService) publish(ctx context.Context, ev models.Event) {
	ev.ID = uuid.NewString()
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.now()
	}
	s.Bus.Publish(ctx, ev)
}
