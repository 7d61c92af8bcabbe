package store

import (
	"fmt"
	"strings"

	"github.com/bobylevd/custom-match-bot/app/balance"
)

// Rated is a player with the standing and form the score was built from.
type Rated struct {
	Name    string
	Rank    balance.Rank
	WinRate balance.WinRate
	Score   float64
}

// Team represents a team of five players.
type Team [balance.TeamSize]Rated

// String returns the team members separated by commas.
func (t Team) String() string {
	names := make([]string, len(t))
	for i, p := range t {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

// Score returns the total score of the team.
func (t Team) Score() float64 {
	sum := 0.0
	for _, p := range t {
		sum += p.Score
	}
	return sum
}

// Match is a balanced custom match.
type Match struct {
	Teams [2]Team
	Diff  float64
	Bench []string // roster entries beyond the first ten
}

// String returns the string representation of the match in format
// of "<team1> vs <team2>".
func (m Match) String() string {
	return fmt.Sprintf("%s vs %s", m.Teams[0], m.Teams[1])
}
