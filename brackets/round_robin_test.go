package brackets

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRobinMatchCount(t *testing.T) {
	gen := NewRoundRobinGenerator()
	for _, n := range []int{2, 3, 4, 5, 7, 8} {
		t.Run(fmt.Sprintf("%d participants", n), func(t *testing.T) {
			matches, rounds, err := gen.Generate(seeds(n))
			require.NoError(t, err)
			assert.Len(t, matches, n*(n-1)/2)
			if n%2 == 0 {
				assert.Equal(t, n-1, rounds)
			} else {
				assert.Equal(t, n, rounds)
			}
		})
	}
}

func TestRoundRobinEveryPairMeetsExactlyOnce(t *testing.T) {
	gen := NewRoundRobinGenerator()
	for _, n := range []int{4, 5, 6, 9} {
		t.Run(fmt.Sprintf("%d participants", n), func(t *testing.T) {
			matches, _, err := gen.Generate(seeds(n))
			require.NoError(t, err)

			seen := make(map[[2]int]int)
			for _, m := range matches {
				require.NotNil(t, m.P1ID)
				require.NotNil(t, m.P2ID)
				a, b := *m.P1ID, *m.P2ID
				if a > b {
					a, b = b, a
				}
				seen[[2]int{a, b}]++
			}
			for pair, count := range seen {
				assert.Equal(t, 1, count, "pair %v scheduled %d times", pair, count)
			}
			assert.Len(t, seen, n*(n-1)/2)
		})
	}
}

func TestRoundRobinNoParticipantPlaysTwiceInARound(t *testing.T) {
	gen := NewRoundRobinGenerator()
	matches, rounds, err := gen.Generate(seeds(7))
	require.NoError(t, err)

	for r := 1; r <= rounds; r++ {
		inRound := make(map[int]bool)
		for _, m := range matches {
			if m.Round != r {
				continue
			}
			for _, p := range []int{*m.P1ID, *m.P2ID} {
				assert.False(t, inRound[p], "participant %d plays twice in round %d", p, r)
				inRound[p] = true
			}
		}
	}
}
