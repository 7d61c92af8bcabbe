package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/bobylevd/custom-match-bot/app/balance"
)

type fakeLookup struct {
	mu      sync.Mutex
	ranks   map[string]balance.Rank
	games   map[string][]balance.Game
	failFor map[string]bool
	calls   int
}

func (f *fakeLookup) Rank(_ context.Context, riotID string) (balance.Rank, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	r, ok := f.ranks[riotID]
	if !ok {
		return balance.Rank{}, errors.New("not found")
	}
	return r, nil
}

func (f *fakeLookup) History(_ context.Context, riotID string, count int) ([]balance.Game, error) {
	if f.failFor[riotID] {
		return nil, errors.New("history unavailable")
	}
	g := f.games[riotID]
	if len(g) > count {
		g = g[:count]
	}
	return g, nil
}

// tenPlayers returns names p0#KR..p9#KR with the first five in GOLD I and
// the rest in IRON IV.
func tenPlayers() ([]string, *fakeLookup) {
	f := &fakeLookup{ranks: map[string]balance.Rank{}, games: map[string][]balance.Game{}, failFor: map[string]bool{}}
	var names []string
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("p%d#KR", i)
		names = append(names, name)
		if i < 5 {
			f.ranks[name] = balance.Rank{Tier: "GOLD", Division: "I", LeaguePoints: 50}
		} else {
			f.ranks[name] = balance.Rank{Tier: "IRON", Division: "IV"}
		}
	}
	return names, f
}

func TestService_Balance(t *testing.T) {
	Convey("Given ten players", t, func() {
		names, f := tenPlayers()
		svc := &Service{Store: newTestStore(t), Ranks: f, History: f, Recent: 8}
		ctx := context.Background()

		Convey("They are split into two even teams", func() {
			m, err := svc.Balance(ctx, names)
			So(err, ShouldBeNil)
			So(f.calls, ShouldEqual, 10)

			So(m.Teams[0][0].Name, ShouldEqual, "p0#KR")
			seen := map[string]bool{}
			for _, team := range m.Teams {
				for _, p := range team {
					seen[p.Name] = true
				}
			}
			So(seen, ShouldHaveLength, 10)

			diff := m.Teams[0].Score() - m.Teams[1].Score()
			if diff < 0 {
				diff = -diff
			}
			So(m.Diff, ShouldAlmostEqual, diff, 1e-9)
			// 5 strong players can't be split evenly, one side gets three
			So(m.Diff, ShouldAlmostEqual, balance.Score(balance.Rank{Tier: "GOLD", Division: "I", LeaguePoints: 50}, balance.WinRate{}), 1e-9)
		})

		Convey("Recent form changes the score", func() {
			f.games["p5#KR"] = []balance.Game{{Win: true, Queue: balance.QueueSolo}, {Win: true, Queue: balance.QueueSolo}}
			m, err := svc.Balance(ctx, names)
			So(err, ShouldBeNil)

			for _, team := range m.Teams {
				for _, p := range team {
					if p.Name == "p5#KR" {
						So(p.WinRate, ShouldResemble, balance.KnownWinRate(1))
						So(p.Score, ShouldAlmostEqual, 0.5*400*0.3, 1e-9)
					}
				}
			}
		})

		Convey("A failed history lookup leaves the win rate unknown", func() {
			f.games["p1#KR"] = []balance.Game{{Win: true, Queue: balance.QueueFlex}}
			f.failFor["p1#KR"] = true
			m, err := svc.Balance(ctx, names)
			So(err, ShouldBeNil)

			for _, team := range m.Teams {
				for _, p := range team {
					if p.Name == "p1#KR" {
						So(p.WinRate.Valid, ShouldBeFalse)
					}
				}
			}
		})

		Convey("Players without a rank lookup are reported", func() {
			delete(f.ranks, "p3#KR")
			delete(f.ranks, "p7#KR")
			_, err := svc.Balance(ctx, names)

			var missing ErrMissing
			So(errors.As(err, &missing), ShouldBeTrue)
			So([]string(missing), ShouldResemble, []string{"p3#KR", "p7#KR"})
		})

		Convey("Anything but ten players is rejected before any lookup", func() {
			_, err := svc.Balance(ctx, names[:9])
			So(errors.Is(err, balance.ErrInvalidInputCount), ShouldBeTrue)

			_, err = svc.Balance(ctx, append(append([]string{}, names...), "extra#KR"))
			So(errors.Is(err, balance.ErrInvalidInputCount), ShouldBeTrue)
			So(f.calls, ShouldEqual, 0)
		})

		Convey("A repeated Riot ID does not count twice", func() {
			_, err := svc.Balance(ctx, append(append([]string{}, names[:9]...), names[0]))
			So(errors.Is(err, balance.ErrInvalidInputCount), ShouldBeTrue)
			So(f.calls, ShouldEqual, 0)
		})
	})
}

func TestService_SubmitRoster(t *testing.T) {
	Convey("Given a pasted roster", t, func() {
		names, f := tenPlayers()
		svc := &Service{Store: newTestStore(t), Ranks: f, History: f, Recent: 8}
		ctx := context.Background()

		lines := make([]string, 0, 12)
		for i, name := range names {
			lines = append(lines, fmt.Sprintf("%s GOLD%d 미드/원딜", name, i%4+1))
		}
		lines = append(lines, "아이디없음 골드", "bench#KR 탑")

		res, err := svc.SubmitRoster(ctx, "chan1", strings.Join(lines, "\n"))

		Convey("Players are saved and failures returned", func() {
			So(err, ShouldBeNil)
			So(res.Players, ShouldHaveLength, 11)
			So(res.Errors, ShouldResemble, []string{"아이디없음 골드"})

			pl, err := svc.Player(ctx, "p2#KR")
			So(err, ShouldBeNil)
			So(pl.Tier, ShouldEqual, "GOLD")
			So(pl.Division, ShouldEqual, "3")
			So(pl.MainLane, ShouldEqual, "MID")
			So(pl.PreferredLanes, ShouldResemble, Lanes{"ADC"})
		})

		Convey("The channel roster can be balanced, extra players benched", func() {
			m, err := svc.BalanceRoster(ctx, "chan1")
			So(err, ShouldBeNil)
			So(m.Bench, ShouldResemble, []string{"bench#KR"})
			So(m.Teams[0][0].Name, ShouldEqual, "p0#KR")
		})

		Convey("Other channels have nothing to balance", func() {
			_, err := svc.BalanceRoster(ctx, "chan2")
			So(errors.Is(err, ErrNotEnoughPlayers), ShouldBeTrue)
		})

		Convey("Stored players can be listed, unknown ones reported", func() {
			players, err := svc.Players(ctx, []string{"p1#KR", "bench#KR"})
			So(err, ShouldBeNil)
			So(players, ShouldHaveLength, 2)

			_, err = svc.Players(ctx, []string{"p1#KR", "ghost#KR"})
			var missing ErrMissing
			So(errors.As(err, &missing), ShouldBeTrue)
			So([]string(missing), ShouldResemble, []string{"ghost#KR"})
		})

		Convey("Repeated names are looked up once", func() {
			players, err := svc.Players(ctx, []string{"p1#KR", "p1#KR"})
			So(err, ShouldBeNil)
			So(players, ShouldHaveLength, 1)
			So(players[0].Name, ShouldEqual, "p1#KR")
		})
	})

	Convey("Given a roster listing a player twice", t, func() {
		names, f := tenPlayers()
		svc := &Service{Store: newTestStore(t), Ranks: f}
		ctx := context.Background()

		lines := []string{names[0] + " GOLD1 탑"}
		for _, name := range names {
			lines = append(lines, name+" GOLD2 미드")
		}

		_, err := svc.SubmitRoster(ctx, "chan1", strings.Join(lines, "\n"))
		So(err, ShouldBeNil)

		saved, err := svc.Store.Roster(ctx, "chan1", 0)
		So(err, ShouldBeNil)
		So(saved, ShouldResemble, names)

		m, err := svc.BalanceRoster(ctx, "chan1")
		So(err, ShouldBeNil)
		So(m.Bench, ShouldBeEmpty)

		seen := map[string]int{}
		for _, team := range m.Teams {
			for _, p := range team {
				seen[p.Name]++
			}
		}
		So(seen, ShouldHaveLength, 10)
	})

	Convey("Given a short roster", t, func() {
		_, f := tenPlayers()
		svc := &Service{Store: newTestStore(t), Ranks: f}
		ctx := context.Background()

		_, err := svc.SubmitRoster(ctx, "chan1", "a#1 GOLD1 탑\nb#1 GOLD2 정글")
		So(err, ShouldBeNil)

		_, err = svc.BalanceRoster(ctx, "chan1")
		So(errors.Is(err, ErrNotEnoughPlayers), ShouldBeTrue)
	})
}

func TestService_Lobbies(t *testing.T) {
	Convey("Given a submitted roster of twelve", t, func() {
		names, f := tenPlayers()
		svc := &Service{Store: newTestStore(t), Ranks: f}
		ctx := context.Background()

		lines := make([]string, 0, 12)
		for _, name := range names {
			lines = append(lines, name+" GOLD2 미드")
		}
		lines = append(lines, "late#KR 탑", "later#KR 정글")
		_, err := svc.SubmitRoster(ctx, "chan1", strings.Join(lines, "\n"))
		So(err, ShouldBeNil)

		l, err := svc.CreateLobby(ctx, "chan1", "friday", "host1", "Hard")

		Convey("A lobby is opened with every roster entry waiting", func() {
			So(err, ShouldBeNil)
			So(l.CustomID, ShouldEqual, "friday")
			So(l.Host, ShouldEqual, "host1")
			So(l.Type, ShouldEqual, LobbyHard)
			So(l.Status, ShouldEqual, StatusOpen)
			So(l.Participants, ShouldEqual, 12)
			So(l.ID, ShouldBeGreaterThan, int64(0))

			players, err := svc.LobbyPlayers(ctx, "friday")
			So(err, ShouldBeNil)
			So(players, ShouldHaveLength, 12)
			So(players[0].Name, ShouldEqual, "p0#KR")
			So(players[11].Name, ShouldEqual, "later#KR")
		})

		Convey("The custom ID can't be reused", func() {
			_, err := svc.CreateLobby(ctx, "chan1", "friday", "host2", "soft")
			So(errors.Is(err, ErrLobbyExists), ShouldBeTrue)
		})

		Convey("Unknown types are rejected", func() {
			_, err := svc.CreateLobby(ctx, "chan1", "saturday", "host1", "casual")
			So(errors.Is(err, ErrInvalidLobby), ShouldBeTrue)

			_, err = svc.RecentLobbies(ctx, "casual")
			So(errors.Is(err, ErrInvalidLobby), ShouldBeTrue)
		})

		Convey("A channel without a roster can't open a lobby", func() {
			_, err := svc.CreateLobby(ctx, "chan2", "saturday", "host1", "soft")
			So(errors.Is(err, ErrNotEnoughPlayers), ShouldBeTrue)
		})

		Convey("Recent lobbies are filtered by type", func() {
			_, err := svc.CreateLobby(ctx, "chan1", "saturday", "host1", "soft")
			So(err, ShouldBeNil)

			all, err := svc.RecentLobbies(ctx, "")
			So(err, ShouldBeNil)
			So(all, ShouldHaveLength, 2)
			So(all[0].CustomID, ShouldEqual, "saturday")
			So(all[1].Participants, ShouldEqual, 12)

			soft, err := svc.RecentLobbies(ctx, "soft")
			So(err, ShouldBeNil)
			So(soft, ShouldHaveLength, 1)
			So(soft[0].CustomID, ShouldEqual, "saturday")

			hyper, err := svc.RecentLobbies(ctx, "hyper")
			So(err, ShouldBeNil)
			So(hyper, ShouldBeEmpty)
		})

		Convey("The first ten participants are balanced, the rest benched", func() {
			m, err := svc.BalanceLobby(ctx, "friday")
			So(err, ShouldBeNil)
			So(m.Bench, ShouldResemble, []string{"late#KR", "later#KR"})
		})

		Convey("Status can be changed", func() {
			So(svc.SetLobbyStatus(ctx, "friday", "completed"), ShouldBeNil)
			got, err := svc.Store.Lobby(ctx, "friday")
			So(err, ShouldBeNil)
			So(got.Status, ShouldEqual, StatusCompleted)

			So(errors.Is(svc.SetLobbyStatus(ctx, "friday", "paused"), ErrInvalidLobby), ShouldBeTrue)
			So(errors.Is(svc.SetLobbyStatus(ctx, "nope", "open"), ErrNotFound), ShouldBeTrue)
		})

		Convey("Unknown lobbies are not found", func() {
			_, err := svc.LobbyPlayers(ctx, "nope")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)

			_, err = svc.BalanceLobby(ctx, "nope")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})
	})
}
