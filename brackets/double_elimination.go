package brackets

import (
	"fmt"

	"github.com/dlm-community/tournament-service/models"
)

// GrandFinalUID identifies the single grand final match of a double
// elimination bracket. There is no bracket reset: the grand final is played
// once regardless of which side the winner came from.
const GrandFinalUID = "GF"

type DoubleEliminationGenerator struct{}

func NewDoubleEliminationGenerator() Generator {
	return &DoubleEliminationGenerator{}
}

func (g *DoubleEliminationGenerator) Name() string { return "DoubleElimination" }

// Generate builds a winners bracket identical in shape to single
// elimination, a losers bracket fed by an index-based drop table, and a
// grand final. The losers bracket alternates minor rounds (survivors pair
// up) and major rounds (survivors meet the next wave of winners-bracket
// losers, in reversed order so early rematches are avoided). With n
// participants the structure always totals 2n-2 matches.
func (g *DoubleEliminationGenerator) Generate(participantIDs []int) ([]*Match, int, error) {
	n := len(participantIDs)
	if n < 2 {
		return nil, 0, ErrNotEnoughParticipants
	}

	wbRounds := eliminationRounds(n)
	wbUID := func(r, s int) string { return fmt.Sprintf("WR%dM%d", r, s) }
	lbUID := func(r, s int) string { return fmt.Sprintf("LR%dM%d", r, s) }

	matches := make([]*Match, 0, 2*n-2)

	// Winners bracket, collecting the loser feeds of every round.
	drops := make([][]feed, 0, wbRounds)
	cur := seedRoundOne(participantIDs, wbRounds)
	for r := 1; r <= wbRounds; r++ {
		next, roundDrops, created := pairRound(cur, r, wbUID, models.SectionWinners)
		matches = append(matches, created...)
		drops = append(drops, roundDrops)
		cur = next
	}
	wbWinner := cur[0]

	// Losers bracket.
	lbRound := 0
	stage := func(in []feed) []feed {
		next, _, created := pairRound(in, lbRound+1, lbUID, models.SectionLosers)
		if len(created) > 0 {
			lbRound++
			matches = append(matches, created...)
		}
		return next
	}

	lb := stage(drops[0])
	for r := 2; r <= wbRounds; r++ {
		lb = stage(interleave(lb, reverseFeeds(drops[r-1])))
		if r < wbRounds {
			lb = stage(lb)
		}
	}
	lbWinner := lb[0]

	gf := &Match{
		UID:     GrandFinalUID,
		Section: models.SectionGrandFinal,
		Round:   lbRound + 1,
		Slot:    1,
	}
	wbWinner.wire(gf, 1)
	lbWinner.wire(gf, 2)
	matches = append(matches, gf)

	return matches, wbRounds + lbRound + 1, nil
}

// interleave zips losers-bracket survivors with the incoming drops so each
// adjacent pair of the result is one major-round pairing.
func interleave(survivors, incoming []feed) []feed {
	out := make([]feed, 0, len(survivors)+len(incoming))
	for i := 0; i < len(survivors) || i < len(incoming); i++ {
		if i < len(survivors) {
			out = append(out, survivors[i])
		}
		if i < len(incoming) {
			out = append(out, incoming[i])
		}
	}
	return out
}

func reverseFeeds(in []feed) []feed {
	out := make([]feed, len(in))
	for i, f := range in {
		out[len(in)-1-i] = f
	}
	return out
}
