package brackets

import (
	"fmt"

	"github.com/dlm-community/tournament-service/models"
)

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() Generator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Name() string { return "SingleElimination" }

// Generate builds the full single elimination skeleton for the seeded list.
// The bracket is padded to the next power of two; byes are distributed one
// per pairing from the bottom of the draw, and a participant with a bye
// advances directly without a match row. With n participants the result is
// always ceil(log2(n)) rounds and n-1 matches.
func (g *SingleEliminationGenerator) Generate(participantIDs []int) ([]*Match, int, error) {
	n := len(participantIDs)
	if n < 2 {
		return nil, 0, ErrNotEnoughParticipants
	}

	rounds := eliminationRounds(n)
	uid := func(r, s int) string { return fmt.Sprintf("R%dM%d", r, s) }

	matches := make([]*Match, 0, n-1)
	cur := seedRoundOne(participantIDs, rounds)
	for r := 1; r <= rounds; r++ {
		next, _, created := pairRound(cur, r, uid, models.SectionWinners)
		matches = append(matches, created...)
		cur = next
	}
	return matches, rounds, nil
}

// seedRoundOne lays the seeded participants into the round-one slots of a
// bracket of size 2^rounds. The first pairings are filled with two
// participants each; each remaining pairing holds one participant and a bye,
// so no pairing is ever bye-versus-bye.
func seedRoundOne(participantIDs []int, rounds int) []feed {
	size := 1 << rounds
	pairs := size / 2
	byes := size - len(participantIDs)
	fullPairs := pairs - byes

	entries := make([]feed, size)
	idx := 0
	for j := 0; j < pairs; j++ {
		entries[2*j] = feed{pid: &participantIDs[idx]}
		idx++
		if j < fullPairs {
			entries[2*j+1] = feed{pid: &participantIDs[idx]}
			idx++
		}
	}
	return entries
}

// pairRound pairs adjacent feeds into matches for one round. A feed paired
// against a bye advances without a match. It returns the feeds entering the
// following round, the loser feeds of this round (byes where no match was
// played), and the matches created.
func pairRound(cur []feed, round int, uid func(r, s int) string, section models.BracketSection) (next []feed, drops []feed, created []*Match) {
	if len(cur)%2 != 0 {
		cur = append(cur, feed{})
	}
	slot := 0
	for i := 0; i < len(cur); i += 2 {
		a, b := cur[i], cur[i+1]
		switch {
		case a.bye() && b.bye():
			next = append(next, feed{})
			drops = append(drops, feed{})
		case b.bye():
			next = append(next, a)
			drops = append(drops, feed{})
		case a.bye():
			next = append(next, b)
			drops = append(drops, feed{})
		default:
			slot++
			m := &Match{UID: uid(round, slot), Section: section, Round: round, Slot: slot}
			a.wire(m, 1)
			b.wire(m, 2)
			created = append(created, m)
			next = append(next, feed{src: m})
			drops = append(drops, feed{src: m, loser: true})
		}
	}
	return next, drops, created
}
