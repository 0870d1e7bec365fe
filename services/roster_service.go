package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/dlm-community/tournament-service/models"
	"github.com/dlm-community/tournament-service/repositories"
	"github.com/dlm-community/tournament-service/storage"
)

type RosterService interface {
	// Register adds a user to the guild's tournament while registration is
	// open. When the guild requires deck checks, a deck URL must accompany
	// the registration.
	Register(ctx context.Context, guildID, userID string, deckURL *string) (*models.Participant, error)
	// Unregister removes a user before the tournament starts. Once it is
	// running the registration becomes a drop instead.
	Unregister(ctx context.Context, guildID, userID string) error
	// Drop marks a running tournament's participant as withdrawn. Swiss and
	// round robin pairings skip dropped players from the next round on;
	// elimination matches they still occupy are conceded by the opponent
	// reporting a walkover.
	Drop(ctx context.Context, guildID, userID string) (*models.Participant, error)
	List(ctx context.Context, guildID string) ([]*models.Participant, error)
	// SubmitDeck stores a deck screenshot and records its public URL on the
	// participant.
	SubmitDeck(ctx context.Context, guildID, userID, filename, contentType string, file io.Reader) (*models.Participant, error)
}

type rosterService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	settingsRepo    repositories.SettingsRepository
	uploader        storage.FileUploader
	logger          *slog.Logger
}

func NewRosterService(
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	settingsRepo repositories.SettingsRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) RosterService {
	return &rosterService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		settingsRepo:    settingsRepo,
		uploader:        uploader,
		logger:          logger,
	}
}

func (s *rosterService) Register(ctx context.Context, guildID, userID string, deckURL *string) (*models.Participant, error) {
	t, err := s.activeTournament(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if t.Status != models.StatusOpen {
		return nil, ErrRegistrationNotOpen
	}

	settings, err := s.settingsRepo.Get(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if settings.DeckCheckRequired && deckURL == nil {
		return nil, ErrDeckURLRequired
	}

	p := &models.Participant{
		TournamentID: t.ID,
		UserID:       userID,
		DeckURL:      deckURL,
	}
	if err := s.participantRepo.Create(ctx, p); err != nil {
		if errors.Is(err, repositories.ErrParticipantConflict) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to register user %s for tournament %d: %w", userID, t.ID, err)
	}

	s.logger.Info("participant registered",
		slog.String("guild_id", guildID),
		slog.Int("tournament_id", t.ID),
		slog.String("user_id", userID))
	return p, nil
}

func (s *rosterService) Unregister(ctx context.Context, guildID, userID string) error {
	t, err := s.activeTournament(ctx, guildID)
	if err != nil {
		return err
	}
	if t.Status == models.StatusRunning {
		return ErrTournamentRunning
	}

	p, err := s.participantRepo.FindByTournamentAndUser(ctx, t.ID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}
	return s.participantRepo.Delete(ctx, p.ID)
}

func (s *rosterService) Drop(ctx context.Context, guildID, userID string) (*models.Participant, error) {
	t, err := s.activeTournament(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if t.Status != models.StatusRunning {
		return nil, ErrTournamentNotRunning
	}

	p, err := s.participantRepo.FindByTournamentAndUser(ctx, t.ID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	if err := s.participantRepo.SetDropped(ctx, p.ID, true); err != nil {
		return nil, err
	}
	p.Dropped = true
	return p, nil
}

func (s *rosterService) List(ctx context.Context, guildID string) ([]*models.Participant, error) {
	t, err := s.activeTournament(ctx, guildID)
	if err != nil {
		return nil, err
	}
	return s.participantRepo.ListByTournament(ctx, t.ID)
}

func (s *rosterService) SubmitDeck(ctx context.Context, guildID, userID, filename, contentType string, file io.Reader) (*models.Participant, error) {
	t, err := s.activeTournament(ctx, guildID)
	if err != nil {
		return nil, err
	}
	p, err := s.participantRepo.FindByTournamentAndUser(ctx, t.ID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}

	ext := strings.ToLower(path.Ext(filename))
	key := fmt.Sprintf("decks/%s/%d/%s%s", guildID, t.ID, uuid.NewString(), ext)

	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to store deck screenshot: %w", err)
	}
	if err := s.participantRepo.UpdateDeckURL(ctx, p.ID, result.Location); err != nil {
		// Orphaned object; removing it keeps the bucket consistent.
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to delete orphaned deck object",
				slog.String("key", key), slog.String("error", delErr.Error()))
		}
		return nil, err
	}

	p.DeckURL = &result.Location
	return p, nil
}

func (s *rosterService) activeTournament(ctx context.Context, guildID string) (*models.Tournament, error) {
	t, err := s.tournamentRepo.FindActiveByGuild(ctx, guildID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}
