package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dlm-community/tournament-service/models"
)

type ReminderRepository interface {
	// Upsert arms (or re-arms) the reminder for a match. A reminder that
	// already fired stays fired: rescheduling a match never causes a second
	// notification.
	Upsert(ctx context.Context, matchID int, guildID string, fireAt time.Time) error
	// ClaimDue atomically marks due reminders as sent and returns them joined
	// with the match data needed to build the notification. Reminders whose
	// match completed in the meantime are skipped. Safe to call from
	// concurrent workers.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*models.DueReminder, error)
	DeleteByMatch(ctx context.Context, matchID int) error
}

type postgresReminderRepository struct {
	db *sql.DB
}

func NewPostgresReminderRepository(db *sql.DB) ReminderRepository {
	return &postgresReminderRepository{db: db}
}

func (r *postgresReminderRepository) Upsert(ctx context.Context, matchID int, guildID string, fireAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reminders (match_id, guild_id, fire_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (match_id) DO UPDATE SET fire_at = EXCLUDED.fire_at
		WHERE reminders.sent_at IS NULL`,
		matchID, guildID, fireAt)
	if err != nil {
		return fmt.Errorf("failed to upsert reminder for match %d: %w", matchID, err)
	}
	return nil
}

func (r *postgresReminderRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*models.DueReminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		WITH due AS (
			SELECT r.id
			FROM reminders r
			JOIN matches m ON m.id = r.match_id
			WHERE r.sent_at IS NULL
			  AND r.fire_at <= $1
			  AND m.status = 'pending'
			ORDER BY r.fire_at ASC
			LIMIT $2
			FOR UPDATE OF r SKIP LOCKED
		)
		UPDATE reminders r
		SET sent_at = $1
		FROM due, matches m, participants p1, participants p2
		WHERE r.id = due.id
		  AND m.id = r.match_id
		  AND p1.id = m.p1_id
		  AND p2.id = m.p2_id
		RETURNING r.id, r.match_id, r.guild_id, m.uid, p1.user_id, p2.user_id, m.scheduled_at`,
		now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim due reminders: %w", err)
	}
	defer rows.Close()

	due := make([]*models.DueReminder, 0)
	for rows.Next() {
		d := &models.DueReminder{}
		if err := rows.Scan(&d.ReminderID, &d.MatchID, &d.GuildID, &d.MatchUID, &d.P1UserID, &d.P2UserID, &d.ScheduledAt); err != nil {
			return nil, fmt.Errorf("failed to scan due reminder row: %w", err)
		}
		due = append(due, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during due reminder rows iteration: %w", err)
	}
	return due, nil
}

func (r *postgresReminderRepository) DeleteByMatch(ctx context.Context, matchID int) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE match_id = $1 AND sent_at IS NULL`, matchID); err != nil {
		return fmt.Errorf("failed to delete reminder for match %d: %w", matchID, err)
	}
	return nil
}
