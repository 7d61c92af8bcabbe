package roster

import (
	"regexp"
	"strings"
	"unicode"
)

// TierForm identifies which tier notation matched a line.
type TierForm int

// Tier notations, tried in this order.
const (
	TierNone   TierForm = iota
	TierPair            // GOLD2/PLATINUM1, current and peak
	TierSingle          // GOLD2
	TierLead            // /GOLD2/PLATINUM1
)

// LaneForm identifies which lane notation matched a line.
type LaneForm int

// Lane notations, tried in this order.
const (
	LaneNone   LaneForm = iota
	LaneSplit           // 미드/원딜 서폿
	LaneLead            // /미드/원딜
	LaneSingle          // 미드
)

type tierMatch struct {
	form   TierForm
	word   string // first tier word
	digits string // digits following the first tier word
	end    int    // length of the matched prefix
}

type laneMatch struct {
	form LaneForm
	main string
	rest string
}

const laneToken = `([가-힣ㄱ-ㅎA-Za-z]+)`

// White space and digits in the Unicode sense, RE2's \s and \d are ASCII only.
const (
	spaceClass = `\t\n\v\f\r \x{1c}-\x{1f}\x{85}\p{Z}`
	ws         = `[` + spaceClass + `]`
	nonWS      = `[^` + spaceClass + `]`
	digit      = `\p{Nd}`
)

// isSpace reports whether r is white space for roster text, the same set
// the ws class matches.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || ('\x1c' <= r && r <= '\x1f')
}

func trim(s string) string { return strings.TrimFunc(s, isSpace) }

func fields(s string) []string { return strings.FieldsFunc(s, isSpace) }

var tierMatchers = []struct {
	form TierForm
	re   *regexp.Regexp
}{
	{TierPair, regexp.MustCompile(`^([A-Za-z]+)(` + digit + `*)` + ws + `*/` + ws + `*[A-Za-z]+` + digit + `*`)},
	{TierSingle, regexp.MustCompile(`^([A-Za-z]+)(` + digit + `*)`)},
	{TierLead, regexp.MustCompile(`^/` + ws + `*([A-Za-z]+)(` + digit + `*)` + ws + `*/` + ws + `*[A-Za-z]+` + digit + `*`)},
}

var laneMatchers = []struct {
	form LaneForm
	re   *regexp.Regexp
}{
	{LaneSplit, regexp.MustCompile(`^` + ws + `*` + laneToken + ws + `*/` + ws + `*(.+)`)},
	{LaneLead, regexp.MustCompile(`^` + ws + `*/` + ws + `*` + laneToken + ws + `*/` + ws + `*(.+)`)},
	{LaneSingle, regexp.MustCompile(`^` + ws + `*` + laneToken)},
}

// matchTier returns the first tier notation found at the start of s.
func matchTier(s string) (tierMatch, bool) {
	for _, m := range tierMatchers {
		idx := m.re.FindStringSubmatchIndex(s)
		if idx == nil {
			continue
		}
		return tierMatch{
			form:   m.form,
			word:   s[idx[2]:idx[3]],
			digits: s[idx[4]:idx[5]],
			end:    idx[1],
		}, true
	}
	return tierMatch{}, false
}

// matchLane returns the first lane notation found at the start of s.
func matchLane(s string) (laneMatch, bool) {
	for _, m := range laneMatchers {
		sub := m.re.FindStringSubmatch(s)
		if sub == nil {
			continue
		}
		lm := laneMatch{form: m.form, main: sub[1]}
		if len(sub) > 2 {
			lm.rest = sub[2]
		}
		return lm, true
	}
	return laneMatch{}, false
}
