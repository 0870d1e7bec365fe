package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dlm-community/tournament-service/brackets"
	"github.com/dlm-community/tournament-service/models"
	"github.com/dlm-community/tournament-service/repositories"
)

type ScheduleService interface {
	// Schedule sets a match time and arms the guild's reminder for it. Any
	// previously armed, unsent reminder is rescheduled; a reminder that
	// already fired is left alone.
	Schedule(ctx context.Context, matchID int, at time.Time) (*models.Match, error)
	Upcoming(ctx context.Context, guildID string) ([]*models.Match, error)
}

type scheduleService struct {
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	reminderRepo   repositories.ReminderRepository
	settingsRepo   repositories.SettingsRepository
	hub            *brackets.Hub
	announcer      Announcer
	logger         *slog.Logger
	clock          clockwork.Clock
}

func NewScheduleService(
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	reminderRepo repositories.ReminderRepository,
	settingsRepo repositories.SettingsRepository,
	hub *brackets.Hub,
	announcer Announcer,
	logger *slog.Logger,
	clock clockwork.Clock,
) ScheduleService {
	return &scheduleService{
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		reminderRepo:   reminderRepo,
		settingsRepo:   settingsRepo,
		hub:            hub,
		announcer:      announcer,
		logger:         logger,
		clock:          clock,
	}
}

func (s *scheduleService) Schedule(ctx context.Context, matchID int, at time.Time) (*models.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	t, err := s.tournamentRepo.GetByID(ctx, m.TournamentID)
	if err != nil {
		return nil, err
	}
	if t.Status != models.StatusRunning {
		return nil, ErrTournamentNotRunning
	}
	if m.Status == models.MatchStatusCompleted {
		return nil, ErrMatchAlreadyReported
	}
	if !m.Ready() {
		return nil, ErrMatchNotReady
	}
	if !at.After(s.clock.Now()) {
		return nil, ErrScheduleInPast
	}

	if err := s.matchRepo.UpdateSchedule(ctx, m.ID, at); err != nil {
		return nil, err
	}
	m.ScheduledAt = &at

	settings, err := s.settingsRepo.Get(ctx, t.GuildID)
	if err != nil {
		return nil, err
	}
	if settings.SendReminders {
		fireAt := at.Add(-time.Duration(settings.ReminderMinutes) * time.Minute)
		if err := s.reminderRepo.Upsert(ctx, m.ID, t.GuildID, fireAt); err != nil {
			return nil, err
		}
	} else if err := s.reminderRepo.DeleteByMatch(ctx, m.ID); err != nil {
		return nil, err
	}

	s.hub.BroadcastToRoom(t.GuildID, brackets.Event{
		Type:    brackets.EventMatchScheduled,
		GuildID: t.GuildID,
		Payload: m,
	})
	return m, nil
}

func (s *scheduleService) Upcoming(ctx context.Context, guildID string) ([]*models.Match, error) {
	t, err := s.tournamentRepo.FindActiveByGuild(ctx, guildID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return s.matchRepo.ListUpcoming(ctx, t.ID)
}

const reminderClaimBatch = 50

// ReminderWorker polls the reminder queue and delivers due notifications.
// ClaimDue marks a reminder sent in the same statement that selects it, so
// running several workers (or restarting one mid-poll) never duplicates a
// notification.
type ReminderWorker struct {
	reminderRepo repositories.ReminderRepository
	settingsRepo repositories.SettingsRepository
	hub          *brackets.Hub
	announcer    Announcer
	logger       *slog.Logger
	clock        clockwork.Clock
	interval     time.Duration
}

func NewReminderWorker(
	reminderRepo repositories.ReminderRepository,
	settingsRepo repositories.SettingsRepository,
	hub *brackets.Hub,
	announcer Announcer,
	logger *slog.Logger,
	clock clockwork.Clock,
	interval time.Duration,
) *ReminderWorker {
	return &ReminderWorker{
		reminderRepo: reminderRepo,
		settingsRepo: settingsRepo,
		hub:          hub,
		announcer:    announcer,
		logger:       logger,
		clock:        clock,
		interval:     interval,
	}
}

// Run blocks until the context is canceled.
func (w *ReminderWorker) Run(ctx context.Context) {
	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("reminder worker started", slog.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reminder worker stopped")
			return
		case <-ticker.Chan():
			w.Poll(ctx)
		}
	}
}

// Poll claims and delivers one batch of due reminders.
func (w *ReminderWorker) Poll(ctx context.Context) {
	due, err := w.reminderRepo.ClaimDue(ctx, w.clock.Now(), reminderClaimBatch)
	if err != nil {
		w.logger.Error("failed to claim due reminders", slog.String("error", err.Error()))
		return
	}
	for _, d := range due {
		w.deliver(ctx, d)
	}
}

func (w *ReminderWorker) deliver(ctx context.Context, d *models.DueReminder) {
	w.hub.BroadcastToRoom(d.GuildID, brackets.Event{
		Type:    brackets.EventMatchReminder,
		GuildID: d.GuildID,
		Payload: d,
	})

	settings, err := w.settingsRepo.Get(ctx, d.GuildID)
	if err != nil {
		w.logger.Warn("failed to load guild settings for reminder",
			slog.String("guild_id", d.GuildID), slog.String("error", err.Error()))
		return
	}
	if settings.AnnouncementsWebhookURL == nil {
		return
	}

	content := fmt.Sprintf("Reminder: match **%s** between <@%s> and <@%s> starts <t:%d:R>.",
		d.MatchUID, d.P1UserID, d.P2UserID, d.ScheduledAt.Unix())
	if err := w.announcer.Announce(ctx, *settings.AnnouncementsWebhookURL, content); err != nil {
		w.logger.Warn("reminder delivery failed",
			slog.Int("match_id", d.MatchID), slog.String("error", err.Error()))
	}
}
