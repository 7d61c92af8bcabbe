// Package report renders rosters and matches as text tables.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/syohex/go-texttable"

	"github.com/bobylevd/custom-match-bot/app/roster"
	"github.com/bobylevd/custom-match-bot/app/store"
)

// Roster renders parsed players and the lines that failed to parse.
func Roster(res roster.Result) string {
	tbl := &texttable.TextTable{}
	_ = tbl.SetHeader("#", "Name", "Tier", "Main", "Preferred")
	for i, p := range res.Players {
		_ = tbl.AddRow(
			strconv.Itoa(i+1),
			p.Name,
			strings.TrimSpace(p.Tier+" "+p.Rank),
			p.MainLane,
			strings.Join(p.PreferredLanes, ", "),
		)
	}

	var sb strings.Builder
	if len(res.Players) > 0 {
		sb.WriteString(tbl.Draw())
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "parsed: %d, failed: %d\n", len(res.Players), len(res.Errors))
	for _, line := range res.Errors {
		fmt.Fprintf(&sb, "  ! %s\n", line)
	}
	return sb.String()
}

// Players renders stored roster entries.
func Players(players []store.Player) string {
	tbl := &texttable.TextTable{}
	_ = tbl.SetHeader("Name", "Tier", "Main", "Preferred")
	for _, p := range players {
		_ = tbl.AddRow(
			p.Name,
			strings.TrimSpace(p.Tier+" "+p.Division),
			p.MainLane,
			strings.Join(p.PreferredLanes, ", "),
		)
	}
	return tbl.Draw()
}

// Match renders both teams with per-player scores and the difference.
func Match(m store.Match) string {
	var sb strings.Builder
	for i, team := range m.Teams {
		tbl := &texttable.TextTable{}
		_ = tbl.SetHeader("Name", "Rank", "LP", "WinRate", "Score")
		for _, p := range team {
			wr := "-"
			if p.WinRate.Valid {
				wr = fmt.Sprintf("%.0f%%", p.WinRate.Rate*100)
			}
			rank := strings.TrimSpace(p.Rank.Tier + " " + p.Rank.Division)
			if rank == "" {
				rank = roster.TierUnranked
			}
			_ = tbl.AddRow(p.Name, rank, strconv.Itoa(p.Rank.LeaguePoints), wr, fmt.Sprintf("%.1f", p.Score))
		}
		fmt.Fprintf(&sb, "Team %c (%.1f)\n%s\n", 'A'+i, team.Score(), tbl.Draw())
	}
	fmt.Fprintf(&sb, "diff: %.1f\n", m.Diff)
	if len(m.Bench) > 0 {
		fmt.Fprintf(&sb, "bench: %s\n", strings.Join(m.Bench, ", "))
	}
	return sb.String()
}

// Lobbies renders lobbies, newest first as given.
func Lobbies(lobbies []store.Lobby) string {
	tbl := &texttable.TextTable{}
	_ = tbl.SetHeader("ID", "Type", "Status", "Players", "Host", "Created")
	for _, l := range lobbies {
		_ = tbl.AddRow(
			l.CustomID,
			string(l.Type),
			string(l.Status),
			strconv.Itoa(l.Participants),
			l.Host,
			time.Unix(l.CreatedAt, 0).UTC().Format("2006-01-02 15:04"),
		)
	}
	return tbl.Draw()
}
