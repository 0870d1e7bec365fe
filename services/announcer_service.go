package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Announcer delivers guild-facing notifications. The production
// implementation posts to the guild's configured Discord webhook; tests
// substitute a recording fake.
type Announcer interface {
	Announce(ctx context.Context, webhookURL, content string) error
}

type webhookAnnouncer struct {
	client *http.Client
	logger *slog.Logger
}

func NewWebhookAnnouncer(logger *slog.Logger) Announcer {
	return &webhookAnnouncer{
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

type webhookMessage struct {
	Content string `json:"content"`
}

func (a *webhookAnnouncer) Announce(ctx context.Context, webhookURL, content string) error {
	if webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(webhookMessage{Content: content})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// announce posts in the background so notification failures never fail the
// operation that triggered them.
func announce(a Announcer, logger *slog.Logger, webhookURL, content string) {
	if a == nil || webhookURL == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := a.Announce(ctx, webhookURL, content); err != nil {
			logger.Warn("announcement delivery failed", slog.String("error", err.Error()))
		}
	}()
}
