package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"kinogate/internal/models"
)

type Config struct {
	Addr      string
	Password  string
	TicketTTL time.Duration
}

// ValkeyClient caches ticket records for the gate verification path, which
// is read-mostly and latency sensitive. Entries are short-lived and are
// invalidated on every state transition, so a stale read can never admit
// a cancelled or used ticket past its TTL window.
type ValkeyClient struct {
	client *redis.Client
	ttl    time.Duration
}

func NewValkeyClient(cfg Config) (*ValkeyClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	ttl := cfg.TicketTTL
	if ttl == 0 {
		ttl = time.Minute
	}

	return &ValkeyClient{client: rdb, ttl: ttl}, nil
}

func ticketKey(ticketID string) string {
	return "ticket:" + ticketID
}

func (v *ValkeyClient) GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	data, err := v.client.Get(ctx, ticketKey(ticketID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("cache lookup error: %w", err)
	}

	var t models.Ticket
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("invalid ticket in cache: %w", err)
	}
	return &t, nil
}

func (v *ValkeyClient) SetTicket(ctx context.Context, t *models.Ticket) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket: %w", err)
	}
	return v.client.Set(ctx, ticketKey(t.TicketID), data, v.ttl).Err()
}

// InvalidateTickets drops cached entries after a state transition.
func (v *ValkeyClient) InvalidateTickets(ctx context.Context, ticketIDs ...string) error {
	if len(ticketIDs) == 0 {
		return nil
	}
	keys := make([]string, len(ticketIDs))
	for i, id := range ticketIDs {
		keys[i] = ticketKey(id)
	}
	return v.client.Del(ctx, keys...).Err()
}

func (v *ValkeyClient) Close() error {
	return v.client.Close()
}
