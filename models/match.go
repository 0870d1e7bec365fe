package models

import "time"

type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusCompleted MatchStatus = "completed"
)

// BracketSection distinguishes the winners and losers sides of a double
// elimination bracket. Every other format uses only the winners section.
type BracketSection string

const (
	SectionWinners    BracketSection = "winners"
	SectionLosers     BracketSection = "losers"
	SectionGrandFinal BracketSection = "grand_final"
)

// Match is one pairing inside a round. Slots P1/P2 stay nil until fed by a
// source match (or a bye advancement at generation time). Advancement is an
// index table over bracket UIDs, not parent/child pointers: the winner goes
// to NextUID/NextSlot, and in double elimination the loser drops to
// LoserUID/LoserSlot.
type Match struct {
	ID           int            `json:"id" db:"id"`
	TournamentID int            `json:"tournament_id" db:"tournament_id"`
	UID          string         `json:"uid" db:"uid"`
	Section      BracketSection `json:"section" db:"section"`
	Round        int            `json:"round" db:"round"`
	Slot         int            `json:"slot" db:"slot"`
	P1ID         *int           `json:"p1_id,omitempty" db:"p1_id"`
	P2ID         *int           `json:"p2_id,omitempty" db:"p2_id"`
	GamesWon1    int            `json:"games_won_1" db:"games_won_1"`
	GamesWon2    int            `json:"games_won_2" db:"games_won_2"`
	Status       MatchStatus    `json:"status" db:"status"`
	WinnerID     *int           `json:"winner_id,omitempty" db:"winner_id"`
	ScheduledAt  *time.Time     `json:"scheduled_at,omitempty" db:"scheduled_at"`
	NextUID      *string        `json:"next_uid,omitempty" db:"next_uid"`
	NextSlot     *int           `json:"next_slot,omitempty" db:"next_slot"`
	LoserUID     *string        `json:"loser_uid,omitempty" db:"loser_uid"`
	LoserSlot    *int           `json:"loser_slot,omitempty" db:"loser_slot"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}

// Ready reports whether both slots are fed and the match can be played.
func (m *Match) Ready() bool {
	return m.P1ID != nil && m.P2ID != nil
}

// Has reports whether the participant occupies one of the match slots.
func (m *Match) Has(participantID int) bool {
	return (m.P1ID != nil && *m.P1ID == participantID) ||
		(m.P2ID != nil && *m.P2ID == participantID)
}

// LoserID returns the participant that lost a completed match, or nil.
func (m *Match) LoserID() *int {
	if m.Status != MatchStatusCompleted || m.WinnerID == nil {
		return nil
	}
	if m.P1ID != nil && *m.P1ID != *m.WinnerID {
		return m.P1ID
	}
	if m.P2ID != nil && *m.P2ID != *m.WinnerID {
		return m.P2ID
	}
	return nil
}
