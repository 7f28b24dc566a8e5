// workers/oracle_poll_worker.go
package workers

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"encrypted-match-system/oracle"
	"encrypted-match-system/services"
)

// ResultSource lists decryptions the oracle has finished.
type ResultSource interface {
	FulfilledSince(ctx context.Context, since time.Time) ([]oracle.Result, error)
}

// ResultHandler consumes one relayed result.
type ResultHandler interface {
	HandleOracleResult(ctx context.Context, res oracle.Result) error
}

// OracleResultPoller is the pull-mode relay: it fetches finished decryptions
// from the oracle gateway and feeds them through the same callback path as
// pushed results.
type OracleResultPoller struct {
	Source   ResultSource
	Handler  ResultHandler
	Interval time.Duration
	since    time.Time
}

func NewOracleResultPoller(source ResultSource, handler ResultHandler, interval time.Duration) *OracleResultPoller {
	return &OracleResultPoller{
		Source:   source,
		Handler:  handler,
		Interval: interval,
		since:    time.Now().UTC().Add(-24 * time.Hour),
	}
}

// Run polls until ctx is done.
func (w *OracleResultPoller) Run(ctx context.Context) {
	log.Printf("🔁 Starting oracle result polling (every %s)…", w.Interval)
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ Oracle result polling stopped.")
			return
		case <-ticker.C:
			if err := w.PollOnce(ctx); err != nil {
				log.Printf("❌ Error polling oracle results: %v", err)
			}
		}
	}
}

// PollOnce fetches and delivers one batch. The cursor only moves past
// results that were delivered or rejected for good; a transient failure
// (store, shutdown) stops the batch so the next poll retries from there.
func (w *OracleResultPoller) PollOnce(ctx context.Context) error {
	results, err := w.Source.FulfilledSince(ctx, w.since)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return nil
	}
	log.Printf("📥 Received %d oracle result(s).", len(results))
	sort.SliceStable(results, func(i, j int) bool { return results[i].FulfilledAt.Before(results[j].FulfilledAt) })

	cursor := w.since
	for _, res := range results {
		err := w.Handler.HandleOracleResult(ctx, res)
		switch {
		case err == nil:
		case permanentRejection(err):
			log.Printf("➡️ Skipping oracle result %s: %v", res.RequestID, err)
		default:
			// Leave the cursor before this result so the next poll retries it.
			w.since = cursor
			return err
		}
		if res.FulfilledAt.After(cursor) {
			cursor = res.FulfilledAt
		}
	}
	w.since = cursor
	return nil
}

// permanentRejection reports errors that redelivering the same result can
// never clear.
func permanentRejection(err error) bool {
	for _, target := range []error{
		services.ErrAlreadyVerified,
		services.ErrInvalidRequest,
		services.ErrProofVerificationFailed,
		services.ErrMalformedCleartext,
		services.ErrPlayerNotFound,
		services.ErrMatchNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
