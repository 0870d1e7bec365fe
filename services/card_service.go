package services

import (
	"context"
	"strings"

	"github.com/dlm-community/tournament-service/cards"
)

// CardSearcher is implemented by the Duel Links Meta API card client.
type CardSearcher interface {
	Search(ctx context.Context, name string) ([]cards.Card, error)
	GetByID(ctx context.Context, id string) (*cards.Card, error)
}

// MetaFetcher is implemented by the Duel Links Meta API feeds client.
type MetaFetcher interface {
	TopDecks(ctx context.Context, limit int) ([]cards.TopDeck, error)
	TournamentReports(ctx context.Context, limit int) ([]cards.Article, error)
	ActiveEvents(ctx context.Context) ([]cards.Event, error)
}

type CardService interface {
	// Lookup returns the best match for a card name followed by the other
	// matches. An exact (case-insensitive) name wins over partial matches.
	Lookup(ctx context.Context, name string) ([]cards.Card, error)
	Get(ctx context.Context, id string) (*cards.Card, error)
	TopDecks(ctx context.Context, limit int) ([]cards.TopDeck, error)
	TournamentReports(ctx context.Context, limit int) ([]cards.Article, error)
	ActiveEvents(ctx context.Context) ([]cards.Event, error)
}

type cardService struct {
	searcher CardSearcher
	meta     MetaFetcher
}

func NewCardService(searcher CardSearcher, meta MetaFetcher) CardService {
	return &cardService{searcher: searcher, meta: meta}
}

func (s *cardService) Lookup(ctx context.Context, name string) ([]cards.Card, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrValidationFailed
	}

	results, err := s.searcher.Search(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrCardNotFound
	}

	for i, c := range results {
		if strings.EqualFold(c.Name, name) && i != 0 {
			results[0], results[i] = results[i], results[0]
			break
		}
	}
	return results, nil
}

func (s *cardService) Get(ctx context.Context, id string) (*cards.Card, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrValidationFailed
	}
	return s.searcher.GetByID(ctx, id)
}

func (s *cardService) TopDecks(ctx context.Context, limit int) ([]cards.TopDeck, error) {
	return s.meta.TopDecks(ctx, limit)
}

func (s *cardService) TournamentReports(ctx context.Context, limit int) ([]cards.Article, error) {
	return s.meta.TournamentReports(ctx, limit)
}

func (s *cardService) ActiveEvents(ctx context.Context) ([]cards.Event, error) {
	return s.meta.ActiveEvents(ctx)
}
