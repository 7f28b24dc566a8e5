// workers/pending_audit.go
package workers

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"encrypted-match-system/models"
)

// PendingLister reports requests still waiting on the oracle.
type PendingLister interface {
	StalePending(ctx context.Context, cutoff time.Time) ([]models.PendingDecryption, error)
}

// AuditStalePending logs every request older than staleAfter that the oracle
// has not answered. It only reports: recovery is an operator re-issuing the
// verification request.
func AuditStalePending(ctx context.Context, lister PendingLister, staleAfter time.Duration) (int, error) {
	stale, err := lister.StalePending(ctx, time.Now().Add(-staleAfter))
	if err != nil {
		return 0, err
	}
	for _, p := range stale {
		log.Printf("[Scheduler] ⏳ %s request %s for %s pending since %s",
			p.Kind, p.RequestID, p.DomainKey, p.CreatedAt.Format(time.RFC3339))
	}
	return len(stale), nil
}

// StartPendingAudit runs AuditStalePending on a fixed interval.
func StartPendingAudit(ctx context.Context, lister PendingLister, interval, staleAfter time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			n, err := AuditStalePending(ctx, lister, staleAfter)
			if err != nil {
				log.Printf("[Scheduler] Pending audit failed: %v", err)
				return
			}
			if n > 0 {
				log.Printf("[Scheduler] ⚠️ %d decryption request(s) unanswered for over %s", n, staleAfter)
			}
		}),
	)
	if err != nil {
		return nil, err
	}
	sched.Start()
	return sched, nil
}
