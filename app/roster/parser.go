// Package roster turns freeform chat rosters into player records.
package roster

import (
	"fmt"
	"regexp"
	"strings"
)

// TierUnranked is set when a line carries no recognizable tier.
const TierUnranked = "UNRANKED"

// Player is a single roster entry. Name is a Riot ID ("name#tag") and
// identifies the player.
type Player struct {
	Name           string   `json:"name"`
	Tier           string   `json:"tier"`
	Rank           string   `json:"rank"`
	MainLane       string   `json:"mainLane"`
	PreferredLanes []string `json:"preferredLanes"`
}

// Result of parsing a whole roster. Every non-blank input line ends up
// either in Players or in Errors.
type Result struct {
	Players []Player `json:"players"`
	Errors  []string `json:"errors"`
}

// NameFormatError is returned when a line does not start with "name#tag".
type NameFormatError struct {
	Line string
}

func (e *NameFormatError) Error() string {
	return fmt.Sprintf("invalid name format: %q", e.Line)
}

var nameRe = regexp.MustCompile(`^([^#]+#` + nonWS + `+)`)

// ParseRoster parses every non-blank line of text.
func ParseRoster(text string) Result {
	res := Result{Players: []Player{}, Errors: []string{}}
	for _, line := range strings.Split(text, "\n") {
		line = trim(line)
		if line == "" {
			continue
		}

		pl, err := ParseLine(line)
		if err != nil {
			res.Errors = append(res.Errors, line)
			continue
		}
		res.Players = append(res.Players, pl)
	}
	return res
}

// ParseLine parses one trimmed, non-empty roster line. Only a malformed
// name fails the line; unknown tiers and lanes degrade to UNRANKED and
// UNKNOWN.
func ParseLine(line string) (Player, error) {
	m := nameRe.FindStringSubmatch(line)
	if m == nil {
		return Player{}, &NameFormatError{Line: line}
	}

	pl := Player{
		Name:           m[1],
		Tier:           TierUnranked,
		MainLane:       LaneUnknown,
		PreferredLanes: []string{},
	}

	rest := trim(line[len(m[1]):])
	if tm, ok := matchTier(rest); ok {
		if tm.digits != "" {
			pl.Tier = strings.ToUpper(tm.word)
			pl.Rank = tm.digits
		}
		rest = trim(rest[tm.end:])
	}

	lm, ok := matchLane(rest)
	if !ok {
		return pl, nil
	}

	pl.MainLane = NormalizeLane(lm.main)
	for _, tok := range fields(lm.rest) {
		if tok == "/" || tok == "-" {
			continue
		}
		pl.PreferredLanes = append(pl.PreferredLanes, NormalizePreferredLane(tok))
	}
	return pl, nil
}
