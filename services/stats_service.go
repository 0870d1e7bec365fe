package services

import (
	"context"

	"github.com/dlm-community/tournament-service/models"
	"github.com/dlm-community/tournament-service/repositories"
)

type StatsService interface {
	// PlayerStats aggregates a user's record across the guild's completed
	// tournaments.
	PlayerStats(ctx context.Context, guildID, userID string) (*models.PlayerStats, error)
}

type statsService struct {
	matchRepo repositories.MatchRepository
}

func NewStatsService(matchRepo repositories.MatchRepository) StatsService {
	return &statsService{matchRepo: matchRepo}
}

func (s *statsService) PlayerStats(ctx context.Context, guildID, userID string) (*models.PlayerStats, error) {
	return s.matchRepo.UserStats(ctx, guildID, userID)
}
