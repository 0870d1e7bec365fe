package models

import "time"

// Participant is a registered player inside one tournament. UserID is the
// Discord snowflake of the player, kept opaque as a string.
type Participant struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	UserID       string    `json:"user_id" db:"user_id"`
	Seed         *int      `json:"seed,omitempty" db:"seed"`
	DeckURL      *string   `json:"deck_url,omitempty" db:"deck_url"`
	Dropped      bool      `json:"dropped" db:"dropped"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}
