package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dlm-community/tournament-service/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrActiveTournamentExists = errors.New("guild already has an active tournament")
)

type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	FindActiveByGuild(ctx context.Context, guildID string) (*models.Tournament, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	MarkStarted(ctx context.Context, exec SQLExecutor, id int, rounds int, shuffleSeed int64, startedAt time.Time) error
	MarkCompleted(ctx context.Context, exec SQLExecutor, id int, winnerID *int, completedAt time.Time) error
	SetCurrentRound(ctx context.Context, exec SQLExecutor, id, round int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `
	id, guild_id, name, format, best_of, seeding, shuffle_seed, status,
	rounds, current_round, winner_id, created_at, started_at, completed_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (guild_id, name, format, best_of, seeding, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.GuildID, t.Name, t.Format, t.BestOf, t.Seeding, t.Status,
	).Scan(&t.ID, &t.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Constraint == "tournaments_one_active_per_guild" {
		return ErrActiveTournamentExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) FindActiveByGuild(ctx context.Context, guildID string) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE guild_id = $1 AND status NOT IN ('completed', 'canceled')`
	return r.scanOne(r.db.QueryRowContext(ctx, query, guildID))
}

func (r *postgresTournamentRepository) scanOne(row *sql.Row) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := row.Scan(
		&t.ID, &t.GuildID, &t.Name, &t.Format, &t.BestOf, &t.Seeding,
		&t.ShuffleSeed, &t.Status, &t.Rounds, &t.CurrentRound, &t.WinnerID,
		&t.CreatedAt, &t.StartedAt, &t.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament: %w", err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	result, err := exec.ExecContext(ctx,
		`UPDATE tournaments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament %d status: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) MarkStarted(ctx context.Context, exec SQLExecutor, id int, rounds int, shuffleSeed int64, startedAt time.Time) error {
	result, err := exec.ExecContext(ctx, `
		UPDATE tournaments
		SET status = 'running', rounds = $1, shuffle_seed = $2,
		    current_round = 1, started_at = $3
		WHERE id = $4`,
		rounds, shuffleSeed, startedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark tournament %d started: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) MarkCompleted(ctx context.Context, exec SQLExecutor, id int, winnerID *int, completedAt time.Time) error {
	result, err := exec.ExecContext(ctx, `
		UPDATE tournaments
		SET status = 'completed', winner_id = $1, completed_at = $2
		WHERE id = $3 AND status = 'running'`,
		winnerID, completedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark tournament %d completed: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) SetCurrentRound(ctx context.Context, exec SQLExecutor, id, round int) error {
	result, err := exec.ExecContext(ctx,
		`UPDATE tournaments SET current_round = $1 WHERE id = $2`, round, id)
	if err != nil {
		return fmt.Errorf("failed to set tournament %d current round: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
