package models

import "time"

// TournamentStatus mirrors the tournament_status ENUM in the database.
type TournamentStatus string

const (
	StatusDraft     TournamentStatus = "draft"
	StatusOpen      TournamentStatus = "open"
	StatusClosed    TournamentStatus = "closed"
	StatusRunning   TournamentStatus = "running"
	StatusCompleted TournamentStatus = "completed"
	StatusCanceled  TournamentStatus = "canceled"
)

// IsTerminal reports whether the status allows no further transitions.
func (s TournamentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// TournamentFormat selects the bracket generation algorithm.
type TournamentFormat string

const (
	FormatSingleElimination TournamentFormat = "single_elimination"
	FormatDoubleElimination TournamentFormat = "double_elimination"
	FormatSwiss             TournamentFormat = "swiss"
	FormatRoundRobin        TournamentFormat = "round_robin"
)

func (f TournamentFormat) Valid() bool {
	switch f {
	case FormatSingleElimination, FormatDoubleElimination, FormatSwiss, FormatRoundRobin:
		return true
	}
	return false
}

// IsElimination reports whether winners advance through a bracket rather
// than accumulating points.
func (f TournamentFormat) IsElimination() bool {
	return f == FormatSingleElimination || f == FormatDoubleElimination
}

// SeedingPolicy controls how registered participants are ordered into the
// bracket at start time.
type SeedingPolicy string

const (
	SeedingRegistration SeedingPolicy = "registration"
	SeedingRandom       SeedingPolicy = "random"
)

func (p SeedingPolicy) Valid() bool {
	return p == SeedingRegistration || p == SeedingRandom
}

// Tournament is the per-guild tournament aggregate. A guild has at most one
// tournament in a non-terminal status at any time.
type Tournament struct {
	ID           int              `json:"id" db:"id"`
	GuildID      string           `json:"guild_id" db:"guild_id"`
	Name         string           `json:"name" db:"name"`
	Format       TournamentFormat `json:"format" db:"format"`
	BestOf       int              `json:"best_of" db:"best_of"`
	Seeding      SeedingPolicy    `json:"seeding" db:"seeding"`
	ShuffleSeed  int64            `json:"-" db:"shuffle_seed"`
	Status       TournamentStatus `json:"status" db:"status"`
	Rounds       int              `json:"rounds" db:"rounds"`
	CurrentRound int              `json:"current_round" db:"current_round"`
	WinnerID     *int             `json:"winner_id,omitempty" db:"winner_id"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	StartedAt    *time.Time       `json:"started_at,omitempty" db:"started_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty" db:"completed_at"`

	// Loaded by the service layer, not mapped directly.
	Participants []Participant `json:"participants,omitempty" db:"-"`
	Matches      []Match       `json:"matches,omitempty" db:"-"`
}

// GamesToWin returns the number of game wins that decides a best-of series.
func (t *Tournament) GamesToWin() int {
	return t.BestOf/2 + 1
}
