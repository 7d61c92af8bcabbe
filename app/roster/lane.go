package roster

import "strings"

// Canonical role tags.
const (
	LaneTop     = "TOP"
	LaneJungle  = "JUNGLE"
	LaneMid     = "MID"
	LaneADC     = "ADC"
	LaneSupport = "SUPPORT"
	LaneUnknown = "UNKNOWN"
)

// laneAliases maps chat shorthand and Korean role names to canonical tags.
var laneAliases = map[string]string{
	"ㅌ":    LaneTop,
	"ㅈㄱ":   LaneJungle,
	"ㅁㄷ":   LaneMid,
	"ㅇㄷ":   LaneADC,
	"ㅅㅍ":   LaneSupport,
	"ㅁㄷㅇㄷ": LaneMid + " " + LaneADC,
	"탑":    LaneTop,
	"정글":   LaneJungle,
	"미드":   LaneMid,
	"원딜":   LaneADC,
	"서폿":   LaneSupport,
	"정글서폿": LaneJungle + " " + LaneSupport,
	"정글탑":  LaneJungle + " " + LaneTop,
	"미드탑":  LaneMid + " " + LaneTop,
	"원딜서폿": LaneADC + " " + LaneSupport,
	"서폿원딜": LaneSupport + " " + LaneADC,
}

// combos are checked by containment, in order, for preferred lanes only.
var combos = []struct {
	token string
	lane  string
}{
	{"정글서폿", LaneJungle + " " + LaneSupport},
	{"정글탑", LaneJungle + " " + LaneTop},
	{"미드탑", LaneMid + " " + LaneTop},
	{"원딜서폿", LaneADC + " " + LaneSupport},
	{"ㅁㄷㅇㄷ", LaneMid + " " + LaneADC},
}

// NormalizeLane maps a raw lane token to its canonical tag. Unknown tokens
// are returned upper-cased.
func NormalizeLane(token string) string {
	if lane, ok := laneAliases[token]; ok {
		return lane
	}
	return strings.ToUpper(token)
}

// NormalizePreferredLane is NormalizeLane with an extra pass that resolves
// two-role combinations embedded in a longer token, e.g. "정글서폿가능".
func NormalizePreferredLane(token string) string {
	for _, c := range combos {
		if strings.Contains(token, c.token) {
			return c.lane
		}
	}
	return NormalizeLane(token)
}
