// services/processor.go
package services

import (
	"context"
	"log"
	"sync"
	"time"

	"encrypted-match-system/encryption"
	"encrypted-match-system/models"
	"encrypted-match-system/oracle"
)

// Future is the pending outcome of a command queued on the Processor.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] { return &Future[T]{done: make(chan struct{})} }

func (f *Future[T]) resolve(v T, err error) {
	f.val, f.err = v, err
	close(f.done)
}

// Wait blocks until the command has run or ctx is done. Giving up on the
// wait does not cancel a command that is already running.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

type task struct {
	ctx   context.Context
	run   func(context.Context)
	abort func(error)
}

// Processor serialises every entry point of a MatchService onto a single
// goroutine. Oracle callbacks, operator requests and queries are queued and
// run one at a time to completion.
type Processor struct {
	svc     *MatchService
	queue   chan task
	stopped chan struct{}
	// sending is held for reading while a task is being queued, so the
	// shutdown drain sees every task that made it into the queue.
	sending sync.RWMutex
}

func NewProcessor(svc *MatchService, queueSize int) *Processor {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Processor{
		svc:     svc,
		queue:   make(chan task, queueSize),
		stopped: make(chan struct{}),
	}
}

// Run consumes the queue until ctx is done.
func (p *Processor) Run(ctx context.Context) error {
	log.Println("🔁 Starting match processor…")
	for {
		select {
		case <-ctx.Done():
			close(p.stopped)
			p.drain()
			log.Println("⏹️ Match processor stopped")
			return ctx.Err()
		case t := <-p.queue:
			t.run(t.ctx)
		}
	}
}

// drain fails every command still queued. Senders woken by the closed
// stopped channel release the lock, after which no task can be queued.
func (p *Processor) drain() {
	p.sending.Lock()
	defer p.sending.Unlock()
	for {
		select {
		case t := <-p.queue:
			t.abort(ErrProcessorStopped)
		default:
			return
		}
	}
}

func enqueue[T any](ctx context.Context, p *Processor, fn func(context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()
	abort := func(err error) {
		var zero T
		f.resolve(zero, err)
	}
	t := task{ctx: ctx, abort: abort, run: func(ctx context.Context) {
		if err := ctx.Err(); err != nil {
			abort(err)
			return
		}
		f.resolve(fn(ctx))
	}}
	p.sending.RLock()
	defer p.sending.RUnlock()
	select {
	case <-p.stopped:
		abort(ErrProcessorStopped)
		return f
	default:
	}
	select {
	case p.queue <- t:
	case <-p.stopped:
		abort(ErrProcessorStopped)
	case <-ctx.Done():
		abort(ctx.Err())
	}
	return f
}

func do[T any](ctx context.Context, p *Processor, fn func(context.Context) (T, error)) (T, error) {
	return enqueue(ctx, p, fn).Wait(ctx)
}

func (p *Processor) Submit(ctx context.Context, stats, gameLog, playerID encryption.Handle) (uint64, error) {
	return do(ctx, p, func(ctx context.Context) (uint64, error) {
		return p.svc.Submit(ctx, stats, gameLog, playerID)
	})
}

func (p *Processor) RequestVerification(ctx context.Context, matchID uint64) (string, error) {
	return do(ctx, p, func(ctx context.Context) (string, error) {
		return p.svc.RequestVerification(ctx, matchID)
	})
}

func (p *Processor) OnDecryptionResult(ctx context.Context, requestID string, cleartext, proof []byte) error {
	_, err := do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.svc.OnDecryptionResult(ctx, requestID, cleartext, proof)
	})
	return err
}

func (p *Processor) HandleOracleResult(ctx context.Context, res oracle.Result) error {
	_, err := do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.svc.HandleOracleResult(ctx, res)
	})
	return err
}

func (p *Processor) RequestPlayerStatsDecryption(ctx context.Context, playerID string) (string, error) {
	return do(ctx, p, func(ctx context.Context) (string, error) {
		return p.svc.RequestPlayerStatsDecryption(ctx, playerID)
	})
}

func (p *Processor) OnPlayerStatsResult(ctx context.Context, requestID string, cleartext, proof []byte) (PlayerStatsReveal, error) {
	return do(ctx, p, func(ctx context.Context) (PlayerStatsReveal, error) {
		return p.svc.OnPlayerStatsResult(ctx, requestID, cleartext, proof)
	})
}

func (p *Processor) DetectCheatingPatterns(ctx context.Context, matchID uint64, patterns []string) (bool, error) {
	return do(ctx, p, func(ctx context.Context) (bool, error) {
		return p.svc.DetectCheatingPatterns(ctx, matchID, patterns)
	})
}

func (p *Processor) CalculateRankings(ctx context.Context, matchIDs []uint64) (Rankings, error) {
	return do(ctx, p, func(ctx context.Context) (Rankings, error) {
		return p.svc.CalculateRankings(ctx, matchIDs)
	})
}

func (p *Processor) ValidateTournamentResult(ctx context.Context, matchIDs []uint64, claimedWinner string) (bool, error) {
	return do(ctx, p, func(ctx context.Context) (bool, error) {
		return p.svc.ValidateTournamentResult(ctx, matchIDs, claimedWinner)
	})
}

func (p *Processor) DecryptedMatchData(ctx context.Context, matchID uint64) (models.DecryptedMatchRecord, error) {
	return do(ctx, p, func(ctx context.Context) (models.DecryptedMatchRecord, error) {
		return p.svc.DecryptedMatchData(ctx, matchID)
	})
}

func (p *Processor) EncryptedMatch(ctx context.Context, matchID uint64) (models.EncryptedMatchRecord, error) {
	return do(ctx, p, func(ctx context.Context) (models.EncryptedMatchRecord, error) {
		return p.svc.EncryptedMatch(ctx, matchID)
	})
}

func (p *Processor) EncryptedPlayerStats(ctx context.Context, playerID string) (encryption.Handle, error) {
	return do(ctx, p, func(ctx context.Context) (encryption.Handle, error) {
		return p.svc.EncryptedPlayerStats(ctx, playerID)
	})
}

func (p *Processor) Players(ctx context.Context) ([]string, error) {
	return do(ctx, p, func(ctx context.Context) ([]string, error) {
		return p.svc.Players(ctx)
	})
}

func (p *Processor) StalePending(ctx context.Context, cutoff time.Time) ([]models.PendingDecryption, error) {
	return do(ctx, p, func(ctx context.Context) ([]models.PendingDecryption, error) {
		return p.svc.StalePending(ctx, cutoff)
	})
}

// Subscribe exposes the service's event bus.
func (p *Processor) Subscribe() (<-chan models.Event, func()) {
	return p.svc.Bus.Subscribe()
}
