package event

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/bobylevd/custom-match-bot/app/balance"
	"github.com/bobylevd/custom-match-bot/app/roster"
	"github.com/bobylevd/custom-match-bot/app/store"
)

type fakeService struct {
	channel  string
	text     string
	names    []string
	balanced bool
	lobby    store.Lobby
	status   string
	err      error
}

func (f *fakeService) SubmitRoster(ctx context.Context, channelID, text string) (roster.Result, error) {
	f.channel, f.text = channelID, text
	return roster.ParseRoster(text), f.err
}

func (f *fakeService) Balance(_ context.Context, names []string) (store.Match, error) {
	f.names = names
	return store.Match{Diff: 1.5}, f.err
}

func (f *fakeService) BalanceRoster(_ context.Context, channelID string) (store.Match, error) {
	f.channel, f.balanced = channelID, true
	return store.Match{Bench: []string{"late#KR"}}, f.err
}

func (f *fakeService) Players(_ context.Context, names []string) ([]store.Player, error) {
	f.names = names
	return []store.Player{{Name: "a#KR", Tier: "GOLD", Division: "2"}}, f.err
}

func (f *fakeService) CreateLobby(_ context.Context, channelID, customID, host, typ string) (store.Lobby, error) {
	f.channel = channelID
	f.lobby = store.Lobby{CustomID: customID, Host: host, Type: store.LobbyType(typ), Participants: 12}
	return f.lobby, f.err
}

func (f *fakeService) RecentLobbies(_ context.Context, typ string) ([]store.Lobby, error) {
	f.lobby.Type = store.LobbyType(typ)
	return []store.Lobby{{CustomID: "friday", Type: store.LobbyHard, Status: store.StatusOpen}}, f.err
}

func (f *fakeService) LobbyPlayers(_ context.Context, customID string) ([]store.Player, error) {
	f.lobby.CustomID = customID
	return []store.Player{{Name: "p0#KR", Tier: "GOLD"}}, f.err
}

func (f *fakeService) BalanceLobby(_ context.Context, customID string) (store.Match, error) {
	f.lobby.CustomID, f.balanced = customID, true
	return store.Match{Bench: []string{"late#KR"}}, f.err
}

func (f *fakeService) SetLobbyStatus(_ context.Context, customID, status string) error {
	f.lobby.CustomID, f.status = customID, status
	return f.err
}

func TestHandle(t *testing.T) {
	Convey("Given a discord handler", t, func() {
		svc := &fakeService{}
		d := &Discord{Service: svc, HandlerTimeout: time.Second}

		Convey("Plain messages are ignored", func() {
			_, ok := d.handle("c1", "u1", "hello there")
			So(ok, ShouldBeFalse)

			_, ok = d.handle("c1", "u1", "!unknown")
			So(ok, ShouldBeFalse)
		})

		Convey("Ping replies pong", func() {
			reply, ok := d.handle("c1", "u1", "!ping")
			So(ok, ShouldBeTrue)
			So(reply, ShouldEqual, "pong!")
		})

		Convey("Roster body lines are submitted for the channel", func() {
			reply, ok := d.handle("c1", "u1", "!roster\nfaker#KR1 GOLD2 미드\n\n  bad line  ")
			So(ok, ShouldBeTrue)
			So(svc.channel, ShouldEqual, "c1")
			So(svc.text, ShouldEqual, "faker#KR1 GOLD2 미드\nbad line")
			So(reply, ShouldContainSubstring, "parsed: 1, failed: 1")
		})

		Convey("Roster with no lines prints usage", func() {
			reply, _ := d.handle("c1", "u1", "!roster")
			So(reply, ShouldStartWith, "usage:")
			So(svc.text, ShouldBeEmpty)
		})

		Convey("Balance without IDs uses the channel roster", func() {
			reply, ok := d.handle("c1", "u1", "!balance")
			So(ok, ShouldBeTrue)
			So(svc.balanced, ShouldBeTrue)
			So(reply, ShouldContainSubstring, "bench: late#KR")
		})

		Convey("Balance with IDs passes them through", func() {
			_, _ = d.handle("c1", "u1", "!balance a#1\nb#2\nc#3")
			So(svc.names, ShouldResemble, []string{"a#1", "b#2", "c#3"})
		})

		Convey("Balance errors are explained", func() {
			svc.err = store.ErrNotEnoughPlayers
			reply, _ := d.handle("c1", "u1", "!balance")
			So(reply, ShouldStartWith, "not enough players")

			svc.err = errors.Join(errors.New("balance 3 players"), balance.ErrInvalidInputCount)
			reply, _ = d.handle("c1", "u1", "!balance a#1\nb#2\nc#3")
			So(reply, ShouldEqual, "exactly ten distinct Riot IDs are required")

			svc.err = store.ErrMissing{"x#1"}
			reply, _ = d.handle("c1", "u1", "!balance")
			So(reply, ShouldEqual, "players not found: x#1")

			svc.err = errors.New("boom")
			reply, _ = d.handle("c1", "u1", "!balance")
			So(reply, ShouldEqual, "failed to execute command, check logs")
		})

		Convey("Balance with a single plain ID balances that lobby", func() {
			reply, _ := d.handle("c1", "u1", "!balance friday")
			So(svc.balanced, ShouldBeTrue)
			So(svc.lobby.CustomID, ShouldEqual, "friday")
			So(svc.names, ShouldBeNil)
			So(reply, ShouldContainSubstring, "bench: late#KR")

			svc.err = store.ErrNotFound
			reply, _ = d.handle("c1", "u1", "!balance nope")
			So(reply, ShouldEqual, "lobby nope not found")
		})

		Convey("Match opens a lobby hosted by the sender", func() {
			reply, ok := d.handle("c1", "host1", "!match friday hard")
			So(ok, ShouldBeTrue)
			So(svc.channel, ShouldEqual, "c1")
			So(svc.lobby.Host, ShouldEqual, "host1")
			So(reply, ShouldEqual, "lobby friday (hard) opened by <@host1>, 12 players waiting")

			reply, _ = d.handle("c1", "host1", "!match friday")
			So(reply, ShouldStartWith, "usage:")
		})

		Convey("Match errors are explained", func() {
			svc.err = store.ErrInvalidLobby
			reply, _ := d.handle("c1", "u1", "!match friday casual")
			So(reply, ShouldEqual, `unknown lobby type "casual", use soft, hard or hyper`)

			svc.err = store.ErrLobbyExists
			reply, _ = d.handle("c1", "u1", "!match friday soft")
			So(reply, ShouldEqual, "lobby friday already exists")

			svc.err = store.ErrNotEnoughPlayers
			reply, _ = d.handle("c1", "u1", "!match friday soft")
			So(reply, ShouldStartWith, "no roster in this channel")
		})

		Convey("Matches lists recent lobbies of a type", func() {
			reply, _ := d.handle("c1", "u1", "!matches hard")
			So(svc.lobby.Type, ShouldEqual, store.LobbyHard)
			So(reply, ShouldContainSubstring, "friday")
		})

		Convey("Lobby shows the participants", func() {
			reply, _ := d.handle("c1", "u1", "!lobby friday")
			So(svc.lobby.CustomID, ShouldEqual, "friday")
			So(reply, ShouldContainSubstring, "p0#KR")

			svc.err = store.ErrNotFound
			reply, _ = d.handle("c1", "u1", "!lobby nope")
			So(reply, ShouldEqual, "lobby nope not found")
		})

		Convey("Close completes the lobby, admins only when configured", func() {
			reply, _ := d.handle("c1", "u1", "!close friday")
			So(reply, ShouldEqual, "lobby friday completed")
			So(svc.status, ShouldEqual, "completed")

			d.AdminIDs = []string{"admin"}
			_, ok := d.handle("c1", "u1", "!close friday")
			So(ok, ShouldBeFalse)
		})

		Convey("The sender identity is available to commands", func() {
			ctx := context.WithValue(context.Background(), senderIDKey{}, "u42")
			So(senderID(ctx), ShouldEqual, "u42")
			So(senderID(context.Background()), ShouldEqual, "")
		})

		Convey("Balance is restricted to admins when configured", func() {
			d.AdminIDs = []string{"admin"}
			_, ok := d.handle("c1", "u1", "!balance")
			So(ok, ShouldBeFalse)
			So(svc.balanced, ShouldBeFalse)

			_, ok = d.handle("c1", "admin", "!balance")
			So(ok, ShouldBeTrue)
		})

		Convey("Stat all lists every player", func() {
			reply, _ := d.handle("c1", "u1", "!stat all")
			So(svc.names, ShouldBeEmpty)
			So(svc.names, ShouldNotBeNil)
			So(reply, ShouldContainSubstring, "a#KR")
		})
	})
}
