package models

import "time"

// Reminder is a scheduled, fire-once notification for a match. SentAt is the
// idempotent delivery marker: claiming a due reminder sets it in the same
// statement that selects it, so a reminder is never delivered twice even if
// several workers poll concurrently.
type Reminder struct {
	ID        int        `json:"id" db:"id"`
	MatchID   int        `json:"match_id" db:"match_id"`
	GuildID   string     `json:"guild_id" db:"guild_id"`
	FireAt    time.Time  `json:"fire_at" db:"fire_at"`
	SentAt    *time.Time `json:"sent_at,omitempty" db:"sent_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// DueReminder is a claimed reminder joined with the data needed to build the
// notification message.
type DueReminder struct {
	ReminderID  int       `json:"reminder_id"`
	MatchID     int       `json:"match_id"`
	GuildID     string    `json:"guild_id"`
	MatchUID    string    `json:"match_uid"`
	P1UserID    string    `json:"p1_user_id"`
	P2UserID    string    `json:"p2_user_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
}
