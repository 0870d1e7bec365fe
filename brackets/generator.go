package brackets

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/dlm-community/tournament-service/models"
)

var ErrNotEnoughParticipants = errors.New("not enough participants to generate a bracket (minimum 2)")

// Match is one generated pairing. P1ID/P2ID are participant IDs when the
// slot is known at generation time and nil when the slot is fed later
// through the advancement table (NextUID/NextSlot for winners, and
// LoserUID/LoserSlot for double elimination drops). Bye marks a Swiss bye
// that should be recorded as an automatic win.
type Match struct {
	UID     string
	Section models.BracketSection
	Round   int
	Slot    int

	P1ID *int
	P2ID *int

	NextUID  *string
	NextSlot *int

	LoserUID  *string
	LoserSlot *int

	Bye bool
}

// Generator produces the initial match structure for a seeded participant
// list. Participant IDs arrive already ordered by the tournament's seeding
// policy. The second return value is the total number of rounds the format
// will play (for Swiss only round 1 is materialized, later rounds are paired
// from standings).
type Generator interface {
	Generate(participantIDs []int) ([]*Match, int, error)
	Name() string
}

// NewGenerator maps a tournament format to its generator.
func NewGenerator(format models.TournamentFormat) (Generator, error) {
	switch format {
	case models.FormatSingleElimination:
		return NewSingleEliminationGenerator(), nil
	case models.FormatDoubleElimination:
		return NewDoubleEliminationGenerator(), nil
	case models.FormatSwiss:
		return NewSwissGenerator(), nil
	case models.FormatRoundRobin:
		return NewRoundRobinGenerator(), nil
	}
	return nil, fmt.Errorf("unsupported tournament format %q", format)
}

// eliminationRounds is ceil(log2(n)): the number of rounds a single
// elimination bracket with n participants plays.
func eliminationRounds(n int) int {
	return bits.Len(uint(n - 1))
}

// feed is a slot source while a bracket is under construction: a known
// participant, the winner or loser of an earlier match, or a bye (zero
// value).
type feed struct {
	pid   *int
	src   *Match
	loser bool
}

func (f feed) bye() bool { return f.pid == nil && f.src == nil }

// wire attaches the feed to slot (1 or 2) of m, recording the advancement
// link on the source match when the feed is a match result.
func (f feed) wire(m *Match, slot int) {
	switch {
	case f.pid != nil:
		if slot == 1 {
			m.P1ID = f.pid
		} else {
			m.P2ID = f.pid
		}
	case f.src != nil:
		s := slot
		if f.loser {
			f.src.LoserUID = &m.UID
			f.src.LoserSlot = &s
		} else {
			f.src.NextUID = &m.UID
			f.src.NextSlot = &s
		}
	}
}
