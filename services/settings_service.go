package services

import (
	"context"
	"net/url"
	"strings"

	"github.com/dlm-community/tournament-service/models"
	"github.com/dlm-community/tournament-service/repositories"
)

// UpdateSettingsInput carries partial updates: nil fields keep their current
// value, mirroring how the config command sets one key at a time.
type UpdateSettingsInput struct {
	TournamentRoleID        *string `json:"tournament_role_id,omitempty"`
	CommandChannelID        *string `json:"command_channel_id,omitempty"`
	AnnouncementsWebhookURL *string `json:"announcements_webhook_url,omitempty"`
	DeckCheckRequired       *bool   `json:"deck_check_required,omitempty"`
	SendReminders           *bool   `json:"send_reminders,omitempty"`
	ReminderMinutes         *int    `json:"reminder_minutes,omitempty"`
}

type SettingsService interface {
	Get(ctx context.Context, guildID string) (*models.GuildSettings, error)
	Update(ctx context.Context, guildID string, input UpdateSettingsInput) (*models.GuildSettings, error)
}

type settingsService struct {
	settingsRepo repositories.SettingsRepository
}

func NewSettingsService(settingsRepo repositories.SettingsRepository) SettingsService {
	return &settingsService{settingsRepo: settingsRepo}
}

func (s *settingsService) Get(ctx context.Context, guildID string) (*models.GuildSettings, error) {
	return s.settingsRepo.Get(ctx, guildID)
}

func (s *settingsService) Update(ctx context.Context, guildID string, input UpdateSettingsInput) (*models.GuildSettings, error) {
	current, err := s.settingsRepo.Get(ctx, guildID)
	if err != nil {
		return nil, err
	}

	if input.TournamentRoleID != nil {
		current.TournamentRoleID = emptyToNil(input.TournamentRoleID)
	}
	if input.CommandChannelID != nil {
		current.CommandChannelID = emptyToNil(input.CommandChannelID)
	}
	if input.AnnouncementsWebhookURL != nil {
		webhook := emptyToNil(input.AnnouncementsWebhookURL)
		if webhook != nil {
			u, err := url.Parse(*webhook)
			if err != nil || u.Scheme != "https" {
				return nil, ErrValidationFailed
			}
		}
		current.AnnouncementsWebhookURL = webhook
	}
	if input.DeckCheckRequired != nil {
		current.DeckCheckRequired = *input.DeckCheckRequired
	}
	if input.SendReminders != nil {
		current.SendReminders = *input.SendReminders
	}
	if input.ReminderMinutes != nil {
		if *input.ReminderMinutes < 1 || *input.ReminderMinutes > 24*60 {
			return nil, ErrValidationFailed
		}
		current.ReminderMinutes = *input.ReminderMinutes
	}

	if err := s.settingsRepo.Upsert(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

// emptyToNil lets callers clear an optional key by sending an empty string.
func emptyToNil(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	return &trimmed
}
