// Package cards wraps the public Duel Links Meta API used for card lookups.
package cards

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Card is the subset of the card database the lookup command displays.
type Card struct {
	ID           string   `json:"_id"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Attribute    string   `json:"attribute,omitempty"`
	Race         string   `json:"race,omitempty"`
	Level        int      `json:"level,omitempty"`
	ATK          *int     `json:"atk,omitempty"`
	DEF          *int     `json:"def,omitempty"`
	Description  string   `json:"description"`
	Rarity       string   `json:"rarity,omitempty"`
	ObtainedFrom []string `json:"how,omitempty"`
}

type Client struct {
	baseURL string
	client  *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
	ttl   time.Duration
}

type cacheEntry struct {
	cards   []Card
	expires time.Time
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		cache:   make(map[string]cacheEntry),
		ttl:     time.Hour,
	}
}

// Search returns cards whose name matches the query. Results are cached for
// an hour; the card pool changes rarely and lookups repeat a lot.
func (c *Client) Search(ctx context.Context, name string) ([]Card, error) {
	key := "search:" + name
	if cached, ok := c.fromCache(key); ok {
		return cached, nil
	}

	endpoint := "/cards/search?name=" + url.QueryEscape(name)
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var results []Card
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to decode card search response: %w", err)
	}

	c.store(key, results)
	return results, nil
}

// GetByID fetches a single card by its database id.
func (c *Client) GetByID(ctx context.Context, id string) (*Card, error) {
	key := "id:" + id
	if cached, ok := c.fromCache(key); ok && len(cached) == 1 {
		return &cached[0], nil
	}

	body, err := c.get(ctx, "/cards/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}

	var card Card
	if err := json.Unmarshal(body, &card); err != nil {
		return nil, fmt.Errorf("failed to decode card response: %w", err)
	}

	c.store(key, []Card{card})
	return &card, nil
}

func (c *Client) fromCache(key string) ([]Card, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[key]
	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.cards, true
}

func (c *Client) store(key string, cards []Card) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cacheEntry{cards: cards, expires: time.Now().Add(c.ttl)}
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	return getBody(ctx, c.client, c.baseURL+endpoint)
}

func getBody(ctx context.Context, client *http.Client, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("card API returned status code: %d, response: %s", resp.StatusCode, string(responseBody))
	}

	return io.ReadAll(resp.Body)
}
