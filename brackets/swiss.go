package brackets

import (
	"fmt"

	"github.com/dlm-community/tournament-service/models"
)

type SwissGenerator struct{}

func NewSwissGenerator() Generator {
	return &SwissGenerator{}
}

func (g *SwissGenerator) Name() string { return "Swiss" }

// Generate materializes round one only: adjacent seeds are paired, and with
// an odd count the lowest seed receives a bye recorded as an automatic win.
// Later rounds are paired from the running standings with PairSwissRound
// once the previous round completes. A Swiss event plays ceil(log2(n))
// rounds, enough to separate an undefeated winner.
func (g *SwissGenerator) Generate(participantIDs []int) ([]*Match, int, error) {
	n := len(participantIDs)
	if n < 2 {
		return nil, 0, ErrNotEnoughParticipants
	}

	rounds := eliminationRounds(n)
	matches := make([]*Match, 0, (n+1)/2)
	slot := 0
	for i := 0; i+1 < n; i += 2 {
		slot++
		matches = append(matches, &Match{
			UID:     fmt.Sprintf("R1M%d", slot),
			Section: models.SectionWinners,
			Round:   1,
			Slot:    slot,
			P1ID:    &participantIDs[i],
			P2ID:    &participantIDs[i+1],
		})
	}
	if n%2 != 0 {
		slot++
		matches = append(matches, &Match{
			UID:     fmt.Sprintf("R1M%d", slot),
			Section: models.SectionWinners,
			Round:   1,
			Slot:    slot,
			P1ID:    &participantIDs[n-1],
			Bye:     true,
		})
	}
	return matches, rounds, nil
}

// SwissEntry is one participant of a Swiss pairing round, ordered by the
// caller from best to worst running score.
type SwissEntry struct {
	ParticipantID int
	Points        int
}

// SwissPair is a produced pairing for the next round.
type SwissPair struct {
	P1 int
	P2 int
}

// PairSwissRound pairs entries for the next Swiss round. Entries must be
// sorted best-first; neighbors in the list have the closest scores, so the
// search prefers them. A pairing that already happened is never repeated as
// long as any complete rematch-free pairing of the field exists (found by
// backtracking); only when no such pairing exists does it fall back to
// pairing neighbors regardless. With an odd field the lowest-ranked entry
// that has not yet had a bye sits out, returned as the second value.
func PairSwissRound(entries []SwissEntry, alreadyPlayed func(a, b int) bool, hadBye func(id int) bool) ([]SwissPair, *int, error) {
	if len(entries) < 2 {
		return nil, nil, ErrNotEnoughParticipants
	}

	pool := make([]int, len(entries))
	for i := range entries {
		pool[i] = entries[i].ParticipantID
	}

	var byeID *int
	if len(pool)%2 != 0 {
		byeIdx := len(pool) - 1
		for i := len(pool) - 1; i >= 0; i-- {
			if !hadBye(pool[i]) {
				byeIdx = i
				break
			}
		}
		id := pool[byeIdx]
		byeID = &id
		pool = append(pool[:byeIdx:byeIdx], pool[byeIdx+1:]...)
	}

	if pairs, ok := pairAvoidingRematches(pool, alreadyPlayed); ok {
		return pairs, byeID, nil
	}

	// Every complete pairing forces at least one rematch; pair neighbors.
	pairs := make([]SwissPair, 0, len(pool)/2)
	for i := 0; i+1 < len(pool); i += 2 {
		pairs = append(pairs, SwissPair{P1: pool[i], P2: pool[i+1]})
	}
	return pairs, byeID, nil
}

func pairAvoidingRematches(pool []int, alreadyPlayed func(a, b int) bool) ([]SwissPair, bool) {
	if len(pool) == 0 {
		return nil, true
	}
	first := pool[0]
	for j := 1; j < len(pool); j++ {
		if alreadyPlayed(first, pool[j]) {
			continue
		}
		rest := make([]int, 0, len(pool)-2)
		rest = append(rest, pool[1:j]...)
		rest = append(rest, pool[j+1:]...)
		if tail, ok := pairAvoidingRematches(rest, alreadyPlayed); ok {
			return append([]SwissPair{{P1: first, P2: pool[j]}}, tail...), true
		}
	}
	return nil, false
}
