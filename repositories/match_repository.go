package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dlm-community/tournament-service/models"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, m *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	GetByUID(ctx context.Context, exec SQLExecutor, tournamentID int, uid string) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error)
	UpdateResult(ctx context.Context, exec SQLExecutor, id, gamesWon1, gamesWon2 int, winnerID int) error
	FeedSlot(ctx context.Context, exec SQLExecutor, tournamentID int, uid string, slot, participantID int) error
	UpdateSchedule(ctx context.Context, id int, scheduledAt time.Time) error
	ListUpcoming(ctx context.Context, tournamentID int) ([]*models.Match, error)
	UserStats(ctx context.Context, guildID, userID string) (*models.PlayerStats, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `
	id, tournament_id, uid, section, round, slot, p1_id, p2_id,
	games_won_1, games_won_2, status, winner_id, scheduled_at,
	next_uid, next_slot, loser_uid, loser_slot, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	query := `
		INSERT INTO matches
			(tournament_id, uid, section, round, slot, p1_id, p2_id,
			 games_won_1, games_won_2, status, winner_id,
			 next_uid, next_slot, loser_uid, loser_slot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		m.TournamentID, m.UID, m.Section, m.Round, m.Slot, m.P1ID, m.P2ID,
		m.GamesWon1, m.GamesWon2, m.Status, m.WinnerID,
		m.NextUID, m.NextSlot, m.LoserUID, m.LoserSlot,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert match %s: %w", m.UID, err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return scanMatchRow(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) GetByUID(ctx context.Context, exec SQLExecutor, tournamentID int, uid string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1 AND uid = $2`
	return scanMatchRow(exec.QueryRowContext(ctx, query, tournamentID, uid))
}

func scanMatchRow(row *sql.Row) (*models.Match, error) {
	m := &models.Match{}
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.UID, &m.Section, &m.Round, &m.Slot,
		&m.P1ID, &m.P2ID, &m.GamesWon1, &m.GamesWon2, &m.Status, &m.WinnerID,
		&m.ScheduledAt, &m.NextUID, &m.NextSlot, &m.LoserUID, &m.LoserSlot,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholder := 2
	if round != nil {
		queryBuilder.WriteString(" AND round = $" + strconv.Itoa(placeholder))
		args = append(args, *round)
		placeholder++
	}
	if status != nil {
		queryBuilder.WriteString(" AND status = $" + strconv.Itoa(placeholder))
		args = append(args, *status)
	}
	queryBuilder.WriteString(" ORDER BY section ASC, round ASC, slot ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()
	return scanMatchRows(rows)
}

func scanMatchRows(rows *sql.Rows) ([]*models.Match, error) {
	matches := make([]*models.Match, 0)
	for rows.Next() {
		m := &models.Match{}
		if err := rows.Scan(
			&m.ID, &m.TournamentID, &m.UID, &m.Section, &m.Round, &m.Slot,
			&m.P1ID, &m.P2ID, &m.GamesWon1, &m.GamesWon2, &m.Status, &m.WinnerID,
			&m.ScheduledAt, &m.NextUID, &m.NextSlot, &m.LoserUID, &m.LoserSlot,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, id, gamesWon1, gamesWon2 int, winnerID int) error {
	result, err := exec.ExecContext(ctx, `
		UPDATE matches
		SET games_won_1 = $1, games_won_2 = $2, status = 'completed', winner_id = $3
		WHERE id = $4 AND status = 'pending'`,
		gamesWon1, gamesWon2, winnerID, id)
	if err != nil {
		return fmt.Errorf("failed to update match %d result: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// FeedSlot places a participant into an empty slot of a downstream match.
func (r *postgresMatchRepository) FeedSlot(ctx context.Context, exec SQLExecutor, tournamentID int, uid string, slot, participantID int) error {
	column := "p1_id"
	if slot == 2 {
		column = "p2_id"
	}
	query := fmt.Sprintf(
		`UPDATE matches SET %s = $1 WHERE tournament_id = $2 AND uid = $3`, column)

	result, err := exec.ExecContext(ctx, query, participantID, tournamentID, uid)
	if err != nil {
		return fmt.Errorf("failed to feed slot %d of match %s: %w", slot, uid, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateSchedule(ctx context.Context, id int, scheduledAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE matches SET scheduled_at = $1 WHERE id = $2`, scheduledAt, id)
	if err != nil {
		return fmt.Errorf("failed to schedule match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) ListUpcoming(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1 AND status = 'pending' AND scheduled_at IS NOT NULL
		ORDER BY scheduled_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()
	return scanMatchRows(rows)
}

// UserStats aggregates a user's lifetime record across the guild's completed
// tournaments.
func (r *postgresMatchRepository) UserStats(ctx context.Context, guildID, userID string) (*models.PlayerStats, error) {
	stats := &models.PlayerStats{GuildID: guildID, UserID: userID}

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(DISTINCT p.tournament_id),
			COUNT(DISTINCT p.tournament_id) FILTER (WHERE t.winner_id = p.id),
			COUNT(m.id) FILTER (WHERE m.winner_id = p.id),
			COUNT(m.id) FILTER (WHERE m.winner_id IS NOT NULL AND m.winner_id <> p.id),
			COALESCE(SUM(CASE WHEN m.p1_id = p.id THEN m.games_won_1 ELSE m.games_won_2 END), 0),
			COALESCE(SUM(CASE WHEN m.p1_id = p.id THEN m.games_won_2 ELSE m.games_won_1 END), 0)
		FROM participants p
		JOIN tournaments t ON t.id = p.tournament_id
		LEFT JOIN matches m
			ON m.tournament_id = p.tournament_id
			AND m.status = 'completed'
			AND (m.p1_id = p.id OR m.p2_id = p.id)
		WHERE t.guild_id = $1 AND t.status = 'completed' AND p.user_id = $2`,
		guildID, userID,
	).Scan(
		&stats.TournamentsPlayed, &stats.TournamentsWon,
		&stats.MatchWins, &stats.MatchLosses,
		&stats.GamesWon, &stats.GamesLost,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats for user %s: %w", userID, err)
	}
	return stats, nil
}
