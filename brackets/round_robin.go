package brackets

import (
	"fmt"

	"github.com/dlm-community/tournament-service/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() Generator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) Name() string { return "RoundRobin" }

// Generate schedules every participant against every other participant
// exactly once using the circle method: one seat is fixed while the rest
// rotate each round. An odd field gets a phantom seat whose pairings are
// skipped, so each round one participant simply rests (no match row is
// created). The schedule always totals n(n-1)/2 matches over n-1 rounds
// (n rounds for an odd field).
func (g *RoundRobinGenerator) Generate(participantIDs []int) ([]*Match, int, error) {
	n := len(participantIDs)
	if n < 2 {
		return nil, 0, ErrNotEnoughParticipants
	}

	circle := make([]int, n)
	copy(circle, participantIDs)
	const phantom = -1
	if n%2 != 0 {
		circle = append(circle, phantom)
	}
	m := len(circle)
	rounds := m - 1

	matches := make([]*Match, 0, n*(n-1)/2)
	for r := 1; r <= rounds; r++ {
		slot := 0
		for i := 0; i < m/2; i++ {
			a, b := circle[i], circle[m-1-i]
			if a == phantom || b == phantom {
				continue
			}
			slot++
			p1, p2 := a, b
			matches = append(matches, &Match{
				UID:     fmt.Sprintf("R%dM%d", r, slot),
				Section: models.SectionWinners,
				Round:   r,
				Slot:    slot,
				P1ID:    &p1,
				P2ID:    &p2,
			})
		}
		// Rotate everything but the first seat.
		last := circle[m-1]
		copy(circle[2:], circle[1:m-1])
		circle[1] = last
	}
	return matches, rounds, nil
}
