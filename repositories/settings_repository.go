package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dlm-community/tournament-service/models"
)

type SettingsRepository interface {
	// Get returns the guild's settings, falling back to defaults when the
	// guild never configured anything.
	Get(ctx context.Context, guildID string) (*models.GuildSettings, error)
	Upsert(ctx context.Context, s *models.GuildSettings) error
}

type postgresSettingsRepository struct {
	db *sql.DB
}

func NewPostgresSettingsRepository(db *sql.DB) SettingsRepository {
	return &postgresSettingsRepository{db: db}
}

func (r *postgresSettingsRepository) Get(ctx context.Context, guildID string) (*models.GuildSettings, error) {
	s := &models.GuildSettings{}
	err := r.db.QueryRowContext(ctx, `
		SELECT guild_id, tournament_role_id, command_channel_id,
		       announcements_webhook_url, deck_check_required,
		       send_reminders, reminder_minutes, updated_at
		FROM guild_settings
		WHERE guild_id = $1`, guildID,
	).Scan(
		&s.GuildID, &s.TournamentRoleID, &s.CommandChannelID,
		&s.AnnouncementsWebhookURL, &s.DeckCheckRequired,
		&s.SendReminders, &s.ReminderMinutes, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultGuildSettings(guildID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan guild settings for %s: %w", guildID, err)
	}
	return s, nil
}

func (r *postgresSettingsRepository) Upsert(ctx context.Context, s *models.GuildSettings) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO guild_settings
			(guild_id, tournament_role_id, command_channel_id,
			 announcements_webhook_url, deck_check_required,
			 send_reminders, reminder_minutes, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (guild_id) DO UPDATE SET
			tournament_role_id        = EXCLUDED.tournament_role_id,
			command_channel_id        = EXCLUDED.command_channel_id,
			announcements_webhook_url = EXCLUDED.announcements_webhook_url,
			deck_check_required       = EXCLUDED.deck_check_required,
			send_reminders            = EXCLUDED.send_reminders,
			reminder_minutes          = EXCLUDED.reminder_minutes,
			updated_at                = now()
		RETURNING updated_at`,
		s.GuildID, s.TournamentRoleID, s.CommandChannelID,
		s.AnnouncementsWebhookURL, s.DeckCheckRequired,
		s.SendReminders, s.ReminderMinutes,
	).Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert guild settings for %s: %w", s.GuildID, err)
	}
	return nil
}
