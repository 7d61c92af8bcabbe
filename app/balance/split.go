package balance

import (
	"errors"
	"fmt"
	"math"
)

// TeamSize is the number of players per side.
const TeamSize = 5

// ErrInvalidInputCount is returned when BestSplit gets anything but ten scores.
var ErrInvalidInputCount = errors.New("exactly 10 scores are required")

// Split is an assignment of ten players, by index, to two teams.
type Split struct {
	TeamA [TeamSize]int `json:"teamA"`
	TeamB [TeamSize]int `json:"teamB"`
	Diff  float64       `json:"diff"`
}

// String returns the split in format of "[0 1 2 3 4] vs [5 6 7 8 9] (diff 0.00)".
func (s Split) String() string {
	return fmt.Sprintf("%v vs %v (diff %.2f)", s.TeamA, s.TeamB, s.Diff)
}

// BestSplit finds the 5v5 split of scores with the smallest difference of
// team sums. Index 0 is always on TeamA, so each of the 126 distinct splits
// is checked exactly once; on ties the first one in lexicographic order of
// TeamA wins.
func BestSplit(scores []float64) (Split, error) {
	if len(scores) != 2*TeamSize {
		return Split{}, fmt.Errorf("got %d scores: %w", len(scores), ErrInvalidInputCount)
	}

	var (
		best  Split
		found bool
		pick  [TeamSize]int // pick[0] is always 0
	)

	var walk func(pos, from int)
	walk = func(pos, from int) {
		if pos == TeamSize {
			teamB := complement(pick)
			diff := math.Abs(sum(scores, pick) - sum(scores, teamB))
			if !found || diff < best.Diff {
				found = true
				best = Split{TeamA: pick, TeamB: teamB, Diff: diff}
			}
			return
		}
		for i := from; i <= 2*TeamSize-(TeamSize-pos); i++ {
			pick[pos] = i
			walk(pos+1, i+1)
		}
	}
	walk(1, 1)

	return best, nil
}

func complement(team [TeamSize]int) [TeamSize]int {
	var in [2 * TeamSize]bool
	for _, i := range team {
		in[i] = true
	}

	var out [TeamSize]int
	n := 0
	for i, ok := range in {
		if !ok {
			out[n] = i
			n++
		}
	}
	return out
}

func sum(scores []float64, team [TeamSize]int) float64 {
	s := 0.0
	for _, i := range team {
		s += scores[i]
	}
	return s
}
