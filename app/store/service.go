package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobylevd/custom-match-bot/app/balance"
	"github.com/bobylevd/custom-match-bot/app/roster"
)

// RankLookup returns the ranked standing of a player, zero Rank if unranked.
type RankLookup interface {
	Rank(ctx context.Context, riotID string) (balance.Rank, error)
}

// HistoryLookup returns outcomes of up to count recent ranked games.
type HistoryLookup interface {
	History(ctx context.Context, riotID string, count int) ([]balance.Game, error)
}

// Service wraps the database store with additional methods.
type Service struct {
	Store     *Store
	Ranks     RankLookup
	History   HistoryLookup
	Recent    int           // recent games to fetch per player
	RosterTTL time.Duration // channel rosters expire after this long
	Workers   int           // concurrent player lookups
}

// ErrNotEnoughPlayers is issued when the balance is requested with less than 10 players.
var ErrNotEnoughPlayers = errors.New("not enough players to start a match")

// ErrMissing indicates that certain players could not be found.
type ErrMissing []string

// Error returns the error message.
func (e ErrMissing) Error() string {
	return fmt.Sprintf("players not found: %s", strings.Join(e, ", "))
}

// SubmitRoster parses the roster text, saves every parsed player and
// remembers the roster for the channel. Lines that fail to parse are
// returned in the result alongside the players.
func (s *Service) SubmitRoster(ctx context.Context, channelID, text string) (roster.Result, error) {
	res := roster.ParseRoster(text)
	for _, line := range res.Errors {
		log.Printf("[DEBUG] roster line rejected: %q", line)
	}

	if len(res.Players) == 0 {
		return res, nil
	}

	players := make([]Player, len(res.Players))
	names := make([]string, 0, len(res.Players))
	for i, p := range res.Players {
		players[i] = FromRoster(p)
		names = append(names, p.Name)
	}
	names = unique(names)

	if err := s.Store.Upsert(ctx, players...); err != nil {
		return res, fmt.Errorf("save players: %w", err)
	}

	if channelID != "" {
		if err := s.Store.SaveRoster(ctx, channelID, names); err != nil {
			return res, fmt.Errorf("save roster: %w", err)
		}
	}

	log.Printf("[INFO] roster submitted in %q: %d players, %d rejected",
		channelID, len(res.Players), len(res.Errors))
	return res, nil
}

// BalanceRoster balances the first ten players of the channel's roster,
// the rest are returned as the bench.
func (s *Service) BalanceRoster(ctx context.Context, channelID string) (Match, error) {
	names, err := s.Store.Roster(ctx, channelID, s.RosterTTL)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Match{}, ErrNotEnoughPlayers
		}
		return Match{}, fmt.Errorf("get roster: %w", err)
	}

	return s.balanceFirst(ctx, names)
}

// balanceFirst balances the first ten distinct names and benches the rest.
func (s *Service) balanceFirst(ctx context.Context, names []string) (Match, error) {
	names = unique(names)
	if len(names) < 2*balance.TeamSize {
		return Match{}, ErrNotEnoughPlayers
	}

	m, err := s.Balance(ctx, names[:2*balance.TeamSize])
	if err != nil {
		return Match{}, err
	}
	m.Bench = names[2*balance.TeamSize:]
	return m, nil
}

// Balance looks up rank and recent form of exactly ten distinct players and splits
// them into two teams with the closest total score. Players whose rank
// can't be looked up are reported with ErrMissing, a failed history lookup
// only leaves the win rate unknown.
func (s *Service) Balance(ctx context.Context, names []string) (Match, error) {
	names = unique(names)
	if len(names) != 2*balance.TeamSize {
		return Match{}, fmt.Errorf("balance %d players: %w", len(names), balance.ErrInvalidInputCount)
	}

	workers := s.Workers
	if workers <= 0 {
		workers = 4
	}

	rated := make([]Rated, len(names))
	missing := make([]bool, len(names))

	ewg, ctx := errgroup.WithContext(ctx)
	ewg.SetLimit(workers)
	for idx, name := range names {
		idx, name := idx, name
		ewg.Go(func() error {
			r, err := s.rate(ctx, name)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("[WARN] failed to rate %s: %v", name, err)
				missing[idx] = true
				return nil
			}
			rated[idx] = r
			return nil
		})
	}

	if err := ewg.Wait(); err != nil {
		return Match{}, fmt.Errorf("rate players: %w", err)
	}

	var e ErrMissing
	for idx, ok := range missing {
		if ok {
			e = append(e, names[idx])
		}
	}
	if len(e) > 0 {
		return Match{}, e
	}

	scores := make([]float64, len(rated))
	for i, r := range rated {
		scores[i] = r.Score
	}

	split, err := balance.BestSplit(scores)
	if err != nil {
		return Match{}, fmt.Errorf("split teams: %w", err)
	}

	m := Match{Diff: split.Diff}
	for i := range split.TeamA {
		m.Teams[0][i] = rated[split.TeamA[i]]
		m.Teams[1][i] = rated[split.TeamB[i]]
	}

	log.Printf("[INFO] balanced match %s, diff %.2f", m, m.Diff)
	return m, nil
}

// rate resolves the player's rank and recent form into a score.
func (s *Service) rate(ctx context.Context, name string) (Rated, error) {
	rank, err := s.Ranks.Rank(ctx, name)
	if err != nil {
		return Rated{}, fmt.Errorf("get rank: %w", err)
	}

	var wr balance.WinRate
	if s.History != nil && s.Recent > 0 {
		games, err := s.History.History(ctx, name, s.Recent)
		if err != nil {
			if ctx.Err() != nil {
				return Rated{}, ctx.Err()
			}
			log.Printf("[WARN] failed to get history of %s, win rate unknown: %v", name, err)
		} else {
			wr = balance.RecentWinRate(games)
		}
	}

	return Rated{Name: name, Rank: rank, WinRate: wr, Score: balance.Score(rank, wr)}, nil
}

// CreateLobby opens a lobby hosted by host with the channel's roster as
// participants.
func (s *Service) CreateLobby(ctx context.Context, channelID, customID, host, typ string) (Lobby, error) {
	lt, err := ParseLobbyType(typ)
	if err != nil {
		return Lobby{}, err
	}

	names, err := s.Store.Roster(ctx, channelID, s.RosterTTL)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Lobby{}, ErrNotEnoughPlayers
		}
		return Lobby{}, fmt.Errorf("get roster: %w", err)
	}

	l, err := s.Store.CreateLobby(ctx, Lobby{CustomID: customID, Host: host, Type: lt}, unique(names))
	if err != nil {
		return Lobby{}, fmt.Errorf("create lobby: %w", err)
	}

	log.Printf("[INFO] lobby %s (%s) opened by %s with %d players", l.CustomID, l.Type, host, l.Participants)
	return l, nil
}

// RecentLobbies returns the ten most recent lobbies, of the given type
// only if typ is not empty.
func (s *Service) RecentLobbies(ctx context.Context, typ string) ([]Lobby, error) {
	var lt LobbyType
	if typ != "" {
		var err error
		if lt, err = ParseLobbyType(typ); err != nil {
			return nil, err
		}
	}

	lobbies, err := s.Store.Lobbies(ctx, lt, 10)
	if err != nil {
		return nil, fmt.Errorf("list lobbies: %w", err)
	}
	return lobbies, nil
}

// LobbyPlayers returns stored roster entries of the lobby participants
// in the order they joined.
func (s *Service) LobbyPlayers(ctx context.Context, customID string) ([]Player, error) {
	names, err := s.lobbyNames(ctx, customID)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return []Player{}, nil
	}

	players, err := s.Store.List(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	pos := make(map[string]int, len(names))
	for i, name := range names {
		pos[name] = i
	}
	sort.SliceStable(players, func(i, j int) bool { return pos[players[i].Name] < pos[players[j].Name] })
	return players, nil
}

// BalanceLobby balances the first ten participants of the lobby, the rest
// are returned as the bench.
func (s *Service) BalanceLobby(ctx context.Context, customID string) (Match, error) {
	names, err := s.lobbyNames(ctx, customID)
	if err != nil {
		return Match{}, err
	}
	return s.balanceFirst(ctx, names)
}

// SetLobbyStatus marks the lobby open or completed.
func (s *Service) SetLobbyStatus(ctx context.Context, customID, status string) error {
	st, err := ParseLobbyStatus(status)
	if err != nil {
		return err
	}

	if err := s.Store.SetLobbyStatus(ctx, customID, st); err != nil {
		return fmt.Errorf("set lobby %s status: %w", customID, err)
	}

	log.Printf("[INFO] lobby %s is %s", customID, st)
	return nil
}

// lobbyNames returns participant names, ErrNotFound if there is no such lobby.
func (s *Service) lobbyNames(ctx context.Context, customID string) ([]string, error) {
	if _, err := s.Store.Lobby(ctx, customID); err != nil {
		return nil, fmt.Errorf("get lobby %s: %w", customID, err)
	}

	names, err := s.Store.LobbyNames(ctx, customID)
	if err != nil {
		return nil, fmt.Errorf("get lobby %s participants: %w", customID, err)
	}
	return names, nil
}

// Player returns the stored roster entry of the player.
func (s *Service) Player(ctx context.Context, name string) (Player, error) {
	return s.Store.Get(ctx, name)
}

// Players returns stored roster entries, all of them if no names are given.
// Unknown names are reported with ErrMissing.
func (s *Service) Players(ctx context.Context, names []string) ([]Player, error) {
	names = unique(names)
	players, err := s.Store.List(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	if len(names) != 0 && len(players) != len(names) {
		var e ErrMissing
		for _, name := range names {
			if !s.containsName(players, name) {
				e = append(e, name)
			}
		}
		return nil, e
	}

	return players, nil
}

// containsName checks whether the slice contains the player with the given name.
func (s *Service) containsName(players []Player, name string) bool {
	for _, pl := range players {
		if pl.Name == name {
			return true
		}
	}
	return false
}

// unique drops repeated names keeping the first occurrence.
func unique(names []string) []string {
	seen := make(map[string]bool, len(names))
	res := make([]string, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		res = append(res, name)
	}
	return res
}
