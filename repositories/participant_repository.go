package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dlm-community/tournament-service/models"
	"github.com/lib/pq"
)

var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantConflict = errors.New("user is already registered for this tournament")
)

type ParticipantRepository interface {
	Create(ctx context.Context, p *models.Participant) error
	FindByID(ctx context.Context, id int) (*models.Participant, error)
	FindByTournamentAndUser(ctx context.Context, tournamentID int, userID string) (*models.Participant, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error)
	UpdateSeed(ctx context.Context, exec SQLExecutor, id, seed int) error
	UpdateDeckURL(ctx context.Context, id int, deckURL string) error
	SetDropped(ctx context.Context, id int, dropped bool) error
	Delete(ctx context.Context, id int) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

const participantColumns = `id, tournament_id, user_id, seed, deck_url, dropped, registered_at`

func (r *postgresParticipantRepository) Create(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO participants (tournament_id, user_id, deck_url)
		VALUES ($1, $2, $3)
		RETURNING id, registered_at`

	err := r.db.QueryRowContext(ctx, query, p.TournamentID, p.UserID, p.DeckURL).
		Scan(&p.ID, &p.RegisteredAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Constraint == "participants_tournament_user_key" {
		return ErrParticipantConflict
	}
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) FindByID(ctx context.Context, id int) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresParticipantRepository) FindByTournamentAndUser(ctx context.Context, tournamentID int, userID string) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + `
		FROM participants
		WHERE tournament_id = $1 AND user_id = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, tournamentID, userID))
}

func (r *postgresParticipantRepository) scanOne(row *sql.Row) (*models.Participant, error) {
	p := &models.Participant{}
	err := row.Scan(&p.ID, &p.TournamentID, &p.UserID, &p.Seed, &p.DeckURL, &p.Dropped, &p.RegisteredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to scan participant: %w", err)
	}
	return p, nil
}

// ListByTournament returns participants in registration order, which is also
// the seeding order under the registration policy.
func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	query := `SELECT ` + participantColumns + `
		FROM participants
		WHERE tournament_id = $1
		ORDER BY registered_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		p := &models.Participant{}
		if err := rows.Scan(&p.ID, &p.TournamentID, &p.UserID, &p.Seed, &p.DeckURL, &p.Dropped, &p.RegisteredAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during participant rows iteration: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) UpdateSeed(ctx context.Context, exec SQLExecutor, id, seed int) error {
	result, err := exec.ExecContext(ctx,
		`UPDATE participants SET seed = $1 WHERE id = $2`, seed, id)
	if err != nil {
		return fmt.Errorf("failed to update participant %d seed: %w", id, err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) UpdateDeckURL(ctx context.Context, id int, deckURL string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE participants SET deck_url = $1 WHERE id = $2`, deckURL, id)
	if err != nil {
		return fmt.Errorf("failed to update participant %d deck: %w", id, err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) SetDropped(ctx context.Context, id int, dropped bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE participants SET dropped = $1 WHERE id = $2`, dropped, id)
	if err != nil {
		return fmt.Errorf("failed to update participant %d drop flag: %w", id, err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete participant %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}
