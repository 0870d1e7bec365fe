package cards

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// TopDeck is one entry from the community top-decks feed.
type TopDeck struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SkillName string `json:"skillName,omitempty"`
	Author    string `json:"author,omitempty"`
	Price     *int   `json:"price,omitempty"`
	Created   string `json:"created,omitempty"`
}

// Article is a published site article, used for tournament reports.
type Article struct {
	ID       string `json:"_id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Category string `json:"category,omitempty"`
	Date     string `json:"date,omitempty"`
	Image    string `json:"image,omitempty"`
}

// Event is an in-game event currently running.
type Event struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	Image       string `json:"image,omitempty"`
}

// MetaClient reads the meta-report feeds of the Duel Links Meta API.
type MetaClient struct {
	baseURL string
	client  *http.Client

	mu       sync.Mutex
	decks    []TopDeck
	decksAt  time.Time
	reports  []Article
	repAt    time.Time
	events   []Event
	eventsAt time.Time
	ttl      time.Duration
}

func NewMetaClient(baseURL string) *MetaClient {
	return &MetaClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		ttl:     30 * time.Minute,
	}
}

// TopDecks returns up to limit entries from the top-decks feed.
func (c *MetaClient) TopDecks(ctx context.Context, limit int) ([]TopDeck, error) {
	if limit <= 0 {
		limit = 10
	}

	c.mu.Lock()
	cached, fresh := c.decks, time.Now().Before(c.decksAt.Add(c.ttl))
	c.mu.Unlock()
	if fresh && len(cached) >= limit {
		return cached[:limit], nil
	}

	body, err := getBody(ctx, c.client, c.baseURL+"/top-decks?limit="+strconv.Itoa(limit))
	if err != nil {
		return nil, err
	}

	var decks []TopDeck
	if err := json.Unmarshal(body, &decks); err != nil {
		return nil, fmt.Errorf("failed to decode top-decks response: %w", err)
	}

	c.mu.Lock()
	c.decks, c.decksAt = decks, time.Now()
	c.mu.Unlock()
	return decks, nil
}

// TournamentReports returns the latest tournament-report articles.
func (c *MetaClient) TournamentReports(ctx context.Context, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = 5
	}

	c.mu.Lock()
	cached, fresh := c.reports, time.Now().Before(c.repAt.Add(c.ttl))
	c.mu.Unlock()
	if fresh && len(cached) >= limit {
		return cached[:limit], nil
	}

	endpoint := c.baseURL + "/articles?category=tournament-report&limit=" + strconv.Itoa(limit)
	body, err := getBody(ctx, c.client, endpoint)
	if err != nil {
		return nil, err
	}

	var articles []Article
	if err := json.Unmarshal(body, &articles); err != nil {
		return nil, fmt.Errorf("failed to decode articles response: %w", err)
	}

	c.mu.Lock()
	c.reports, c.repAt = articles, time.Now()
	c.mu.Unlock()
	return articles, nil
}

// ActiveEvents returns the in-game events currently running.
func (c *MetaClient) ActiveEvents(ctx context.Context) ([]Event, error) {
	c.mu.Lock()
	cached, fresh := c.events, time.Now().Before(c.eventsAt.Add(c.ttl))
	c.mu.Unlock()
	if fresh && cached != nil {
		return cached, nil
	}

	body, err := getBody(ctx, c.client, c.baseURL+"/events/active")
	if err != nil {
		return nil, err
	}

	var events []Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events response: %w", err)
	}
	if events == nil {
		events = []Event{}
	}

	c.mu.Lock()
	c.events, c.eventsAt = events, time.Now()
	c.mu.Unlock()
	return events, nil
}
