package jobs

import (
	"context"
	"log/slog"
	"time"

	"kinogate/internal/repository"
	"kinogate/internal/search"
)

const reconcileInterval = time.Minute

// IndexReconcileJob periodically re-indexes tickets whose state changed
// recently. The API side indexes best-effort; this job closes the gap
// left by indexing failures so the search index converges on Postgres.
type IndexReconcileJob struct {
	ticketRepo  *repository.TicketRepository
	ticketIndex *search.TicketIndex
	ticker      *time.Ticker
	done        chan bool
	lastRun     time.Time
}

func NewIndexReconcileJob(ticketRepo *repository.TicketRepository, ticketIndex *search.TicketIndex) *IndexReconcileJob {
	return &IndexReconcileJob{
		ticketRepo:  ticketRepo,
		ticketIndex: ticketIndex,
		done:        make(chan bool),
	}
}

// Start begins the background job that reconciles the index every minute.
func (j *IndexReconcileJob) Start(ctx context.Context) {
	slog.Info("Starting index reconcile job", "interval", reconcileInterval.String())

	// Overlap the first window to pick up writes from before startup.
	j.lastRun = time.Now().Add(-5 * reconcileInterval)
	j.ticker = time.NewTicker(reconcileInterval)

	go func() {
		j.reconcile(ctx)
		for {
			select {
			case <-j.ticker.C:
				j.reconcile(ctx)
			case <-j.done:
				slog.Info("Index reconcile job stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the background job.
func (j *IndexReconcileJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

func (j *IndexReconcileJob) reconcile(ctx context.Context) {
	since := j.lastRun
	j.lastRun = time.Now()

	tickets, err := j.ticketRepo.GetUpdatedSince(ctx, since)
	if err != nil {
		slog.Error("Failed to load recently updated tickets", "error", err)
		return
	}

	if len(tickets) == 0 {
		slog.Debug("No recently updated tickets to reconcile")
		return
	}

	if err := j.ticketIndex.IndexTickets(ctx, tickets); err != nil {
		slog.Error("Failed to reconcile ticket index",
			"error", err,
			"tickets", len(tickets))
		return
	}

	slog.Info("Reconciled ticket index", "tickets", len(tickets), "since", since)
}
