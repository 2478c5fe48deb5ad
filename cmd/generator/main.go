package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"kinogate/internal/config"
	"kinogate/internal/database"
	"kinogate/internal/models"
	"kinogate/internal/qr"
	"kinogate/internal/repository"
)

var (
	bookingCount = flag.Int("bookings", 50, "Number of demo bookings to generate")
	dryRun       = flag.Bool("dry-run", false, "Show what would be generated without making changes")
)

var seatTypes = []struct {
	name  string
	price int64
}{
	{"standard", 20000},
	{"premium", 30000},
	{"recliner", 45000},
}

// TicketGenerator seeds demo bookings with valid admission tokens. Meant
// for local environments and load experiments, never for production data.
type TicketGenerator struct {
	repo  *repository.TicketRepository
	codec *qr.Codec
	rng   *rand.Rand
}

func main() {
	flag.Parse()

	slog.Info("Starting ticket generator...")

	cfg := config.Load()
	db, err := database.Connect(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	codec, err := qr.NewCodec(cfg.QR)
	if err != nil {
		slog.Error("Failed to initialize QR codec", "error", err)
		os.Exit(1)
	}

	generator := &TicketGenerator{
		repo:  repository.NewTicketRepository(db),
		codec: codec,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := generator.Generate(context.Background(), *bookingCount); err != nil {
		slog.Error("Failed to generate tickets", "error", err)
		os.Exit(1)
	}

	slog.Info("Ticket generation completed successfully!")
}

func (g *TicketGenerator) Generate(ctx context.Context, bookings int) error {
	totalTickets := 0

	for i := 0; i < bookings; i++ {
		tickets, err := g.buildBooking(i)
		if err != nil {
			return fmt.Errorf("failed to build booking %d: %w", i, err)
		}

		if *dryRun {
			slog.Info("[DRY RUN] Would create booking",
				"booking_id", tickets[0].BookingID, "tickets", len(tickets))
			totalTickets += len(tickets)
			continue
		}

		if err := g.repo.CreateBatch(ctx, tickets); err != nil {
			return fmt.Errorf("failed to insert booking %s: %w", tickets[0].BookingID, err)
		}
		totalTickets += len(tickets)
	}

	slog.Info("Generated demo bookings", "bookings", bookings, "tickets", totalTickets)
	return nil
}

// buildBooking produces one booking of 1-6 adjacent seats for a show in
// the next two weeks.
func (g *TicketGenerator) buildBooking(n int) ([]models.Ticket, error) {
	bookingID := uuid.New().String()
	userID := fmt.Sprintf("demo-user-%d", g.rng.Intn(20)+1)
	movieID := fmt.Sprintf("demo-movie-%d", g.rng.Intn(8)+1)
	theaterID := fmt.Sprintf("demo-theater-%d", g.rng.Intn(3)+1)
	screenID := fmt.Sprintf("screen-%d", g.rng.Intn(6)+1)
	showtimeID := uuid.New().String()

	showAt := time.Now().UTC().
		Add(time.Duration(g.rng.Intn(14*24)) * time.Hour).
		Truncate(time.Hour).
		Add(30 * time.Minute)

	seatType := seatTypes[g.rng.Intn(len(seatTypes))]
	row := string(rune('A' + g.rng.Intn(12)))
	firstSeat := g.rng.Intn(15) + 1
	seats := g.rng.Intn(6) + 1

	var coupon *models.Coupon
	if g.rng.Intn(5) == 0 {
		coupon = &models.Coupon{
			Name:        "Demo discount",
			Code:        "DEMO10",
			DiscountPct: 10,
		}
	}

	tickets := make([]models.Ticket, 0, seats)
	for s := 0; s < seats; s++ {
		ticketID := uuid.New().String()
		token, err := g.codec.Encode(qr.Payload{TicketID: ticketID})
		if err != nil {
			return nil, fmt.Errorf("failed to encode token: %w", err)
		}

		tickets = append(tickets, models.Ticket{
			TicketID:   ticketID,
			BookingID:  bookingID,
			UserID:     userID,
			MovieID:    movieID,
			TheaterID:  theaterID,
			ScreenID:   screenID,
			ShowtimeID: showtimeID,
			SeatRow:    row,
			SeatNumber: firstSeat + s,
			SeatType:   seatType.name,
			Price:      seatType.price,
			ShowAt:     showAt,
			QRCode:     token,
			Status:     models.TicketStatusConfirmed,
			Coupon:     coupon,
		})
	}

	return tickets, nil
}
