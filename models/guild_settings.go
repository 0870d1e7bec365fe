package models

import "time"

// Default reminder offset when a guild never configured one.
const DefaultReminderMinutes = 30

// GuildSettings holds the per-guild tournament configuration keys exposed by
// the config commands. A missing row means defaults.
type GuildSettings struct {
	GuildID                 string    `json:"guild_id" db:"guild_id"`
	TournamentRoleID        *string   `json:"tournament_role_id,omitempty" db:"tournament_role_id"`
	CommandChannelID        *string   `json:"command_channel_id,omitempty" db:"command_channel_id"`
	AnnouncementsWebhookURL *string   `json:"announcements_webhook_url,omitempty" db:"announcements_webhook_url"`
	DeckCheckRequired       bool      `json:"deck_check_required" db:"deck_check_required"`
	SendReminders           bool      `json:"send_reminders" db:"send_reminders"`
	ReminderMinutes         int       `json:"reminder_minutes" db:"reminder_minutes"`
	UpdatedAt               time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultGuildSettings returns the settings used before a guild configures
// anything.
func DefaultGuildSettings(guildID string) *GuildSettings {
	return &GuildSettings{
		GuildID:         guildID,
		SendReminders:   true,
		ReminderMinutes: DefaultReminderMinutes,
	}
}
