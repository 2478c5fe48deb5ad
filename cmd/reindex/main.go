package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"time"

	"kinogate/internal/config"
	"kinogate/internal/database"
	"kinogate/internal/logger"
	"kinogate/internal/repository"
	"kinogate/internal/search"
)

const pageSize = 500

func main() {
	var batchSize int
	flag.IntVar(&batchSize, "batch-size", pageSize, "Tickets fetched per page")
	flag.Parse()

	logger.Init("info", "text")
	slog.Info("Starting ticket index backfill")

	cfg := config.Load()

	slog.Info("Connecting to database")
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ticketRepo := repository.NewTicketRepository(db)

	ticketIndex, err := search.NewTicketIndex(cfg.Elasticsearch)
	if err != nil {
		log.Fatalf("Failed to connect to Elasticsearch: %v", err)
	}

	if err := reindex(context.Background(), ticketRepo, ticketIndex, batchSize); err != nil {
		log.Fatalf("Ticket index backfill failed: %v", err)
	}

	slog.Info("Ticket index backfill completed successfully")
}

// reindex pages through every stored ticket and upserts it into the
// search index. Upserts are idempotent, so a rerun after a partial
// failure is safe.
func reindex(ctx context.Context, repo *repository.TicketRepository, index *search.TicketIndex, batchSize int) error {
	start := time.Now()
	offset := 0
	total := 0

	for {
		tickets, err := repo.GetPage(ctx, offset, batchSize)
		if err != nil {
			return fmt.Errorf("failed to fetch tickets page at offset %d: %w", offset, err)
		}
		if len(tickets) == 0 {
			break
		}

		if err := index.IndexTickets(ctx, tickets); err != nil {
			return fmt.Errorf("failed to index tickets at offset %d: %w", offset, err)
		}

		total += len(tickets)
		offset += len(tickets)
		slog.Info("Indexed tickets page", "indexed", total)

		if len(tickets) < batchSize {
			break
		}
	}

	elapsed := time.Since(start)
	slog.Info("Reindex completed",
		"tickets_indexed", total,
		"duration", elapsed.String())

	return nil
}
