package consumers

import (
	"context"
	"log/slog"

	"kinogate/internal/config"
	"kinogate/internal/consumers/jobs"
	"kinogate/internal/database"
	"kinogate/internal/external"
	"kinogate/internal/messaging"
	"kinogate/internal/repository"
	"kinogate/internal/search"
)

// ConsumerService runs the post-transition side effects: ticket delivery
// emails, refund execution and the admission audit trail. All of them are
// downstream of the lifecycle transitions and never feed back into them.
type ConsumerService struct {
	db           *database.DB
	nats         *messaging.NATSClient
	repos        *repository.Repositories
	handlers     *Handlers
	reconcileJob *jobs.IndexReconcileJob
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	repos := repository.NewRepositories(db)

	emailClient := external.NewEmailClient(cfg.Email)
	paymentClient := external.NewPaymentClient(cfg.Payment)

	handlers := NewHandlers(repos, emailClient, paymentClient)

	// The reconcile job only runs when the search index is reachable.
	var reconcileJob *jobs.IndexReconcileJob
	ticketIndex, err := search.NewTicketIndex(cfg.Elasticsearch)
	if err != nil {
		slog.Warn("Elasticsearch unavailable, index reconciliation disabled", "error", err)
	} else {
		reconcileJob = jobs.NewIndexReconcileJob(repos.Tickets, ticketIndex)
	}

	return &ConsumerService{
		db:           db,
		nats:         natsClient,
		repos:        repos,
		handlers:     handlers,
		reconcileJob: reconcileJob,
	}, nil
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	_, err := cs.nats.SubscribeQueue("ticket.issued", "consumers", cs.handlers.HandleTicketsIssued)
	if err != nil {
		return err
	}

	_, err = cs.nats.SubscribeQueue("booking.cancelled", "consumers", cs.handlers.HandleBookingCancelled)
	if err != nil {
		return err
	}

	_, err = cs.nats.SubscribeQueue("ticket.used", "consumers", cs.handlers.HandleTicketUsed)
	if err != nil {
		return err
	}

	if cs.reconcileJob != nil {
		cs.reconcileJob.Start(context.Background())
	}

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.reconcileJob != nil {
		cs.reconcileJob.Stop()
	}

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
