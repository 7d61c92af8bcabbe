// Package balance scores players by rank and recent form and splits ten of
// them into two even teams.
package balance

import "strings"

// Rank is a ranked ladder standing. The zero value is unranked.
type Rank struct {
	Tier         string `json:"tier"`
	Division     string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
}

// WinRate is an optional win rate in [0, 1].
type WinRate struct {
	Rate  float64
	Valid bool
}

// KnownWinRate returns a valid WinRate.
func KnownWinRate(rate float64) WinRate { return WinRate{Rate: rate, Valid: true} }

var tierBase = map[string]int{
	"IRON":        0,
	"BRONZE":      200,
	"SILVER":      400,
	"GOLD":        600,
	"PLATINUM":    800,
	"EMERALD":     1000,
	"DIAMOND":     1200,
	"MASTER":      1500,
	"GRANDMASTER": 1700,
	"CHALLENGER":  1900,
}

var divisionOffset = map[string]int{
	"IV":  0,
	"III": 50,
	"II":  100,
	"I":   150,
}

// RankScore converts a standing into points. Apex tiers have no divisions
// and count up to 300 LP, other tiers add a division offset and up to 100 LP.
func RankScore(r Rank) int {
	if r.Tier == "" {
		return 0
	}

	tier := strings.ToUpper(r.Tier)
	base := tierBase[tier]
	switch tier {
	case "MASTER", "GRANDMASTER", "CHALLENGER":
		return base + clamp(r.LeaguePoints, 0, 300)
	}

	div := strings.ToUpper(r.Division)
	if div == "" {
		div = "IV"
	}
	return base + divisionOffset[div] + clamp(r.LeaguePoints, 0, 100)
}

// Score blends the rank score with recent form. A win rate 10 points above
// 50% is worth 40 points before weighting.
func Score(r Rank, wr WinRate) float64 {
	bonus := 0.0
	if wr.Valid {
		bonus = (wr.Rate - 0.50) * 400
	}
	return float64(RankScore(r))*0.7 + bonus*0.3
}

// BlendWinRates combines ranked solo and flex win rates, weighting solo
// queue 70/30 when both are known.
func BlendWinRates(solo, flex WinRate) WinRate {
	switch {
	case solo.Valid && flex.Valid:
		return KnownWinRate(solo.Rate*0.7 + flex.Rate*0.3)
	case solo.Valid:
		return solo
	case flex.Valid:
		return flex
	default:
		return WinRate{}
	}
}

// Queue is a ranked queue a game was played in.
type Queue string

// Ranked queues.
const (
	QueueSolo Queue = "solo"
	QueueFlex Queue = "flex"
)

// Game is the outcome of one recent ranked game.
type Game struct {
	Win   bool  `json:"win"`
	Queue Queue `json:"queueType"`
}

// RecentWinRate computes per-queue win rates over games and blends them.
func RecentWinRate(games []Game) WinRate {
	var solo, flex [2]int // wins, total
	for _, g := range games {
		var c *[2]int
		switch g.Queue {
		case QueueSolo:
			c = &solo
		case QueueFlex:
			c = &flex
		default:
			continue
		}
		c[1]++
		if g.Win {
			c[0]++
		}
	}
	return BlendWinRates(rate(solo), rate(flex))
}

func rate(c [2]int) WinRate {
	if c[1] == 0 {
		return WinRate{}
	}
	return KnownWinRate(float64(c[0]) / float64(c[1]))
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
