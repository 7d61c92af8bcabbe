package event

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/bobylevd/custom-match-bot/app/balance"
	"github.com/bobylevd/custom-match-bot/app/report"
	"github.com/bobylevd/custom-match-bot/app/roster"
	"github.com/bobylevd/custom-match-bot/app/store"
)

// Service is the subset of store.Service the handler needs.
type Service interface {
	SubmitRoster(ctx context.Context, channelID, text string) (roster.Result, error)
	Balance(ctx context.Context, names []string) (store.Match, error)
	BalanceRoster(ctx context.Context, channelID string) (store.Match, error)
	Players(ctx context.Context, names []string) ([]store.Player, error)
	CreateLobby(ctx context.Context, channelID, customID, host, typ string) (store.Lobby, error)
	RecentLobbies(ctx context.Context, typ string) ([]store.Lobby, error)
	LobbyPlayers(ctx context.Context, customID string) ([]store.Player, error)
	BalanceLobby(ctx context.Context, customID string) (store.Match, error)
	SetLobbyStatus(ctx context.Context, customID, status string) error
}

// Discord is a handler for Discord commands.
type Discord struct {
	Token          string
	AdminIDs       []string
	Service        Service
	HandlerTimeout time.Duration
	se             *discordgo.Session
}

// Run runs the Discord handler.
// Blocking call.
func (d *Discord) Run(ctx context.Context) error {
	if d.HandlerTimeout == 0 {
		d.HandlerTimeout = 2 * time.Minute // ten players worth of API lookups
	}

	se, err := discordgo.New(fmt.Sprintf("Bot %s", d.Token))
	if err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	d.se = se
	d.se.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent
	d.se.AddHandler(d.onMessage)

	log.Printf("[INFO] opening discord session")
	if err := d.se.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	<-ctx.Done()

	log.Printf("[WARN] stopping bot with reason: %v", context.Cause(ctx))
	if err := d.se.Close(); err != nil {
		return fmt.Errorf("close discord session: %w", err)
	}

	return nil
}

func (d *Discord) onMessage(s *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Author.ID == s.State.User.ID {
		return // ignore messages from the bot
	}

	log.Printf("[DEBUG] received message from %s: %s", msg.ChannelID, msg.Content)

	reply, ok := d.handle(msg.ChannelID, msg.Author.ID, msg.Content)
	if !ok {
		return
	}

	replyTo := &discordgo.MessageReference{MessageID: msg.ID, ChannelID: msg.ChannelID}
	if _, err := s.ChannelMessageSendReply(msg.ChannelID, reply, replyTo); err != nil {
		log.Printf("[WARN] failed to send message: %v", err)
	}
}

// handle dispatches a message to its command and returns the reply,
// false if the message is not a command.
func (d *Discord) handle(channelID, authorID, content string) (string, bool) {
	content = strings.TrimSpace(content)
	if content == "" || !strings.HasPrefix(content, "!") {
		return "", false // do nothing
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.HandlerTimeout)
	defer cancel()

	ctx = context.WithValue(ctx, senderIDKey{}, authorID)
	ctx = context.WithValue(ctx, channelIDKey{}, channelID)

	// the first line holds the command and its inline arguments,
	// following lines are the body (roster text, one Riot ID per line)
	head, body, _ := strings.Cut(content, "\n")
	word, inline, _ := strings.Cut(strings.TrimSpace(head), " ")

	var command func(ctx context.Context, args []string) (reply string, err error)
	args := lines(inline + "\n" + body)

	switch word {
	case "!roster":
		command = d.roster
	case "!balance":
		if !d.isAdmin(authorID) {
			return "", false
		}
		command = d.balance
	case "!stat":
		command = d.stat
	case "!match":
		command = d.match
	case "!matches":
		command = d.matches
	case "!lobby":
		command = d.lobby
	case "!close":
		if !d.isAdmin(authorID) {
			return "", false
		}
		command = d.close
	case "!ping":
		command = d.ping
	case "!help":
		command = d.help
	default:
		return "", false // do nothing
	}

	reply, err := command(ctx, args)
	if err != nil {
		log.Printf("[WARN] failed to execute command: %v", err)
		reply = "failed to execute command, check logs"
	}
	return reply, true
}

func (d *Discord) roster(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return "usage: !roster followed by one player per line: <name#tag> [tier] [lanes]", nil
	}

	res, err := d.Service.SubmitRoster(ctx, channelID(ctx), strings.Join(args, "\n"))
	if err != nil {
		return "", fmt.Errorf("submit roster: %w", err)
	}

	return "```\n" + report.Roster(res) + "```", nil
}

func (d *Discord) balance(ctx context.Context, args []string) (string, error) {
	var (
		m   store.Match
		err error
	)
	switch {
	case len(args) == 0:
		m, err = d.Service.BalanceRoster(ctx, channelID(ctx))
	case len(args) == 1 && !strings.Contains(args[0], "#"):
		m, err = d.Service.BalanceLobby(ctx, args[0])
	default:
		m, err = d.Service.Balance(ctx, args)
	}
	log.Printf("[INFO] balance requested by %s in %s", senderID(ctx), channelID(ctx))

	if err != nil {
		if errors.Is(err, store.ErrNotEnoughPlayers) {
			return "not enough players to start a match, submit a !roster of ten first", nil
		}

		if errors.Is(err, balance.ErrInvalidInputCount) {
			return "exactly ten distinct Riot IDs are required", nil
		}

		if errors.Is(err, store.ErrNotFound) && len(args) == 1 {
			return fmt.Sprintf("lobby %s not found", args[0]), nil
		}

		var missing store.ErrMissing
		if errors.As(err, &missing) {
			return missing.Error(), nil
		}

		return "", fmt.Errorf("balance teams: %w", err)
	}

	return "```\n" + report.Match(m) + "```", nil
}

func (d *Discord) stat(ctx context.Context, names []string) (string, error) {
	if len(names) == 1 && names[0] == "all" {
		names = []string{} // means "list all"
	}

	players, err := d.Service.Players(ctx, names)
	if err != nil {
		var missing store.ErrMissing
		if errors.As(err, &missing) {
			return missing.Error(), nil
		}
		return "", fmt.Errorf("list players: %w", err)
	}

	if len(players) == 0 {
		return "no players registered yet", nil
	}

	return "```\n" + report.Players(players) + "\n```", nil
}

func (d *Discord) match(ctx context.Context, args []string) (string, error) {
	fields := strings.Fields(strings.Join(args, " "))
	if len(fields) != 2 {
		return "usage: !match <id> <soft|hard|hyper>, players are taken from the channel !roster", nil
	}

	l, err := d.Service.CreateLobby(ctx, channelID(ctx), fields[0], senderID(ctx), fields[1])
	switch {
	case errors.Is(err, store.ErrInvalidLobby):
		return fmt.Sprintf("unknown lobby type %q, use soft, hard or hyper", fields[1]), nil
	case errors.Is(err, store.ErrLobbyExists):
		return fmt.Sprintf("lobby %s already exists", fields[0]), nil
	case errors.Is(err, store.ErrNotEnoughPlayers):
		return "no roster in this channel, submit a !roster first", nil
	case err != nil:
		return "", fmt.Errorf("create lobby: %w", err)
	}

	return fmt.Sprintf("lobby %s (%s) opened by <@%s>, %d players waiting", l.CustomID, l.Type, l.Host, l.Participants), nil
}

func (d *Discord) matches(ctx context.Context, args []string) (string, error) {
	typ := ""
	if len(args) > 0 {
		typ = args[0]
	}

	lobbies, err := d.Service.RecentLobbies(ctx, typ)
	if err != nil {
		if errors.Is(err, store.ErrInvalidLobby) {
			return fmt.Sprintf("unknown lobby type %q, use soft, hard or hyper", typ), nil
		}
		return "", fmt.Errorf("list lobbies: %w", err)
	}

	if len(lobbies) == 0 {
		return "no lobbies yet", nil
	}

	return "```\n" + report.Lobbies(lobbies) + "\n```", nil
}

func (d *Discord) lobby(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "usage: !lobby <id>", nil
	}

	players, err := d.Service.LobbyPlayers(ctx, args[0])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Sprintf("lobby %s not found", args[0]), nil
		}
		return "", fmt.Errorf("get lobby players: %w", err)
	}

	if len(players) == 0 {
		return fmt.Sprintf("lobby %s has no players", args[0]), nil
	}

	return "```\n" + report.Players(players) + "\n```", nil
}

func (d *Discord) close(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "usage: !close <id>", nil
	}

	err := d.Service.SetLobbyStatus(ctx, args[0], string(store.StatusCompleted))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Sprintf("lobby %s not found", args[0]), nil
		}
		return "", fmt.Errorf("close lobby: %w", err)
	}

	return fmt.Sprintf("lobby %s completed", args[0]), nil
}

func (d *Discord) isAdmin(discordID string) bool {
	if len(d.AdminIDs) == 0 {
		return true
	}
	for _, id := range d.AdminIDs {
		if discordID == id {
			return true
		}
	}
	return false
}

func (d *Discord) ping(context.Context, []string) (string, error) { return "pong!", nil }

func (d *Discord) help(context.Context, []string) (reply string, err error) {
	return `
!roster <lines> - parse a pasted roster, one "name#tag tier lanes" per line
!balance [riotID per line | lobby id] - split ten players into even teams, the channel roster if nothing given
!stat <name#tag per line | all> - stored roster entries
!match <id> <soft|hard|hyper> - open a lobby with the channel roster
!matches [type] - recent lobbies
!lobby <id> - lobby participants, "!balance <id>" splits them
!close <id> - mark the lobby completed
!ping - pong!
!help - this message
	`, nil
}

// lines splits text into trimmed non-blank lines.
func lines(text string) []string {
	var res []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			res = append(res, l)
		}
	}
	return res
}

type senderIDKey struct{}

type channelIDKey struct{}

func senderID(ctx context.Context) string {
	if v := ctx.Value(senderIDKey{}); v != nil {
		return v.(string)
	}
	return ""
}

func channelID(ctx context.Context) string {
	if v := ctx.Value(channelIDKey{}); v != nil {
		return v.(string)
	}
	return ""
}
