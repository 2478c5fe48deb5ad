package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"kinogate/internal/models"
)

type Config struct {
	URL        string
	Username   string
	Password   string
	Index      string
	MaxRetries int
}

// TicketIndex is the operational search surface over issued tickets.
// Indexing happens best-effort after issuance and on state transitions;
// the Postgres repository stays the source of truth, the index only
// serves ops lookups (find tickets by user, movie or booking).
type TicketIndex struct {
	client *elasticsearch.Client
	config Config
}

func NewTicketIndex(cfg Config) (*TicketIndex, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{cfg.URL},
		Username:      cfg.Username,
		Password:      cfg.Password,
		RetryOnStatus: []int{502, 503, 504, 429},
		MaxRetries:    cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	idx := &TicketIndex{client: es, config: cfg}

	if err := idx.ensureIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}

	return idx, nil
}

func (c *TicketIndex) ensureIndex(ctx context.Context) error {
	req := esapi.IndicesExistsRequest{
		Index: []string{c.config.Index},
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		slog.Info("Elasticsearch index already exists", "index", c.config.Index)
		return nil
	}

	mapping := map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 0,
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"ticket_id":   map[string]interface{}{"type": "keyword"},
				"booking_id":  map[string]interface{}{"type": "keyword"},
				"user_id":     map[string]interface{}{"type": "keyword"},
				"movie_id":    map[string]interface{}{"type": "keyword"},
				"theater_id":  map[string]interface{}{"type": "keyword"},
				"screen_id":   map[string]interface{}{"type": "keyword"},
				"showtime_id": map[string]interface{}{"type": "keyword"},
				"seat_row":    map[string]interface{}{"type": "keyword"},
				"seat_number": map[string]interface{}{"type": "integer"},
				"seat_type":   map[string]interface{}{"type": "keyword"},
				"price":       map[string]interface{}{"type": "long"},
				"status":      map[string]interface{}{"type": "keyword"},
				"show_at": map[string]interface{}{
					"type":   "date",
					"format": "strict_date_optional_time||epoch_millis",
				},
				"created_at": map[string]interface{}{"type": "date"},
				"updated_at": map[string]interface{}{"type": "date"},
			},
		},
	}

	mappingJSON, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	createReq := esapi.IndicesCreateRequest{
		Index: c.config.Index,
		Body:  strings.NewReader(string(mappingJSON)),
	}

	createRes, err := createReq.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("failed to create index: %s", createRes.String())
	}

	slog.Info("Created Elasticsearch index", "index", c.config.Index)
	return nil
}

// IndexTickets upserts ticket documents by ticket id.
func (c *TicketIndex) IndexTickets(ctx context.Context, tickets []models.Ticket) error {
	for i := range tickets {
		doc, err := json.Marshal(&tickets[i])
		if err != nil {
			return fmt.Errorf("failed to marshal ticket document: %w", err)
		}

		req := esapi.IndexRequest{
			Index:      c.config.Index,
			DocumentID: tickets[i].TicketID,
			Body:       strings.NewReader(string(doc)),
		}

		res, err := req.Do(ctx, c.client)
		if err != nil {
			return fmt.Errorf("failed to index ticket %s: %w", tickets[i].TicketID, err)
		}
		res.Body.Close()

		if res.IsError() {
			return fmt.Errorf("failed to index ticket %s: %s", tickets[i].TicketID, res.String())
		}
	}
	return nil
}

// UpdateStatus patches the status field of indexed tickets after a state
// transition.
func (c *TicketIndex) UpdateStatus(ctx context.Context, ticketIDs []string, status string) error {
	body, err := json.Marshal(map[string]interface{}{
		"doc": map[string]interface{}{"status": status},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal status update: %w", err)
	}

	for _, id := range ticketIDs {
		req := esapi.UpdateRequest{
			Index:      c.config.Index,
			DocumentID: id,
			Body:       strings.NewReader(string(body)),
		}

		res, err := req.Do(ctx, c.client)
		if err != nil {
			return fmt.Errorf("failed to update ticket %s: %w", id, err)
		}
		res.Body.Close()

		if res.IsError() && res.StatusCode != 404 {
			return fmt.Errorf("failed to update ticket %s: %s", id, res.String())
		}
	}
	return nil
}

// DeleteTickets removes ticket documents after an administrative delete.
func (c *TicketIndex) DeleteTickets(ctx context.Context, ticketIDs []string) error {
	for _, id := range ticketIDs {
		req := esapi.DeleteRequest{
			Index:      c.config.Index,
			DocumentID: id,
		}

		res, err := req.Do(ctx, c.client)
		if err != nil {
			return fmt.Errorf("failed to delete ticket %s: %w", id, err)
		}
		res.Body.Close()

		if res.IsError() && res.StatusCode != 404 {
			return fmt.Errorf("failed to delete ticket %s: %s", id, res.String())
		}
	}
	return nil
}

// Search finds tickets by exact user, movie, booking or status terms.
func (c *TicketIndex) Search(ctx context.Context, userID, movieID, bookingID, status string, page, pageSize int) ([]models.Ticket, error) {
	query := c.buildSearchQuery(userID, movieID, bookingID, status)

	from := 0
	if page > 0 && pageSize > 0 {
		from = (page - 1) * pageSize
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	searchRequest := map[string]interface{}{
		"query": query,
		"sort": []map[string]interface{}{
			{"show_at": map[string]interface{}{"order": "asc"}},
		},
		"from": from,
		"size": pageSize,
	}

	searchJSON, err := json.Marshal(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{c.config.Index},
		Body:  strings.NewReader(string(searchJSON)),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var response struct {
		Hits struct {
			Hits []struct {
				Source models.Ticket `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	tickets := make([]models.Ticket, len(response.Hits.Hits))
	for i, hit := range response.Hits.Hits {
		tickets[i] = hit.Source
	}

	return tickets, nil
}

func (c *TicketIndex) buildSearchQuery(userID, movieID, bookingID, status string) map[string]interface{} {
	mustQueries := []map[string]interface{}{}

	terms := map[string]string{
		"user_id":    userID,
		"movie_id":   movieID,
		"booking_id": bookingID,
		"status":     status,
	}
	for field, value := range terms {
		if value != "" {
			mustQueries = append(mustQueries, map[string]interface{}{
				"term": map[string]interface{}{field: value},
			})
		}
	}

	if len(mustQueries) == 0 {
		return map[string]interface{}{
			"match_all": map[string]interface{}{},
		}
	}

	return map[string]interface{}{
		"bool": map[string]interface{}{
			"must": mustQueries,
		},
	}
}
