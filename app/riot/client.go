// Package riot fetches ranked standings and recent games from the Riot
// Games API.
package riot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobylevd/custom-match-bot/app/balance"
)

// ErrNotFound indicates that the API has no such entity.
var ErrNotFound = errors.New("not found")

// ErrInvalidRiotID is returned for identities not in "name#tag" form.
var ErrInvalidRiotID = errors.New("riot id must be in form of name#tag")

// StatusError is returned for unexpected API responses.
type StatusError struct {
	Code int
	Body string
}

// Error returns the error message.
func (e *StatusError) Error() string {
	return fmt.Sprintf("riot api error %d: %s", e.Code, e.Body)
}

var platformHosts = map[string]string{
	"KR":   "https://kr.api.riotgames.com",
	"NA1":  "https://na1.api.riotgames.com",
	"EUW1": "https://euw1.api.riotgames.com",
	"EUN1": "https://eun1.api.riotgames.com",
	"JP1":  "https://jp1.api.riotgames.com",
	"OC1":  "https://oc1.api.riotgames.com",
	"BR1":  "https://br1.api.riotgames.com",
	"LA1":  "https://la1.api.riotgames.com",
	"LA2":  "https://la2.api.riotgames.com",
	"TR1":  "https://tr1.api.riotgames.com",
	"RU":   "https://ru.api.riotgames.com",
}

var regionHosts = map[string]string{
	"ASIA":     "https://asia.api.riotgames.com",
	"AMERICAS": "https://americas.api.riotgames.com",
	"EUROPE":   "https://europe.api.riotgames.com",
}

var platformRegion = map[string]string{
	"KR": "ASIA", "JP1": "ASIA", "OC1": "ASIA",
	"NA1": "AMERICAS", "BR1": "AMERICAS", "LA1": "AMERICAS", "LA2": "AMERICAS",
	"EUW1": "EUROPE", "EUN1": "EUROPE", "TR1": "EUROPE", "RU": "EUROPE",
}

// Queue ids of ranked games.
const (
	queueSolo = 420
	queueFlex = 440
)

// Opts configures a Client.
type Opts struct {
	APIKey     string
	Platform   string        // e.g. KR, EUW1
	CacheTTL   time.Duration // responses are cached in memory for this long, zero disables
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration // first delay between retries of 5xx responses

	// PlatformURL and RegionURL override the hosts derived from Platform.
	PlatformURL string
	RegionURL   string

	limiters []*rate.Limiter
}

// Client is a Riot Games API client.
type Client struct {
	opts        Opts
	http        *http.Client
	platformURL string
	regionURL   string
}

// New makes a client with defaults filled in.
func New(opts Opts) *Client {
	if opts.Platform == "" {
		opts.Platform = "KR"
	}
	opts.Platform = strings.ToUpper(opts.Platform)
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.Backoff == 0 {
		opts.Backoff = time.Second
	}
	if opts.limiters == nil {
		opts.limiters = appLimiters
	}

	c := &Client{
		opts:        opts,
		http:        &http.Client{Timeout: opts.Timeout, Transport: newTransport(opts.APIKey, opts.CacheTTL, opts.limiters)},
		platformURL: opts.PlatformURL,
		regionURL:   opts.RegionURL,
	}

	if c.platformURL == "" {
		c.platformURL = platformHosts[opts.Platform]
		if c.platformURL == "" {
			c.platformURL = platformHosts["KR"]
		}
	}
	if c.regionURL == "" {
		region, ok := platformRegion[opts.Platform]
		if !ok {
			region = "ASIA"
		}
		c.regionURL = regionHosts[region]
	}
	return c
}

// Account is a Riot account.
type Account struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// LeagueEntry is a ranked standing in one queue.
type LeagueEntry struct {
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

type matchDetail struct {
	Info struct {
		QueueID      int `json:"queueId"`
		Participants []struct {
			PUUID string `json:"puuid"`
			Win   bool   `json:"win"`
		} `json:"participants"`
	} `json:"info"`
}

// SplitRiotID splits "name#tag" into its parts.
func SplitRiotID(riotID string) (name, tag string, err error) {
	name, tag, ok := strings.Cut(riotID, "#")
	if !ok || strings.TrimSpace(name) == "" || tag == "" {
		return "", "", fmt.Errorf("%q: %w", riotID, ErrInvalidRiotID)
	}
	return name, tag, nil
}

// Account resolves a Riot ID.
func (c *Client) Account(ctx context.Context, riotID string) (Account, error) {
	name, tag, err := SplitRiotID(riotID)
	if err != nil {
		return Account{}, err
	}

	u := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s",
		c.regionURL, url.PathEscape(name), url.PathEscape(tag))

	var acc Account
	if err := c.get(ctx, u, &acc); err != nil {
		return Account{}, fmt.Errorf("get account %s: %w", riotID, err)
	}
	return acc, nil
}

// LeagueEntries returns ranked standings of the player in every queue.
func (c *Client) LeagueEntries(ctx context.Context, puuid string) ([]LeagueEntry, error) {
	u := fmt.Sprintf("%s/lol/league/v4/entries/by-puuid/%s", c.platformURL, url.PathEscape(puuid))

	var entries []LeagueEntry
	if err := c.get(ctx, u, &entries); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil // unranked
		}
		return nil, fmt.Errorf("get league entries: %w", err)
	}
	return entries, nil
}

// Rank returns the ranked solo queue standing of the player. Players
// without one get the zero Rank.
func (c *Client) Rank(ctx context.Context, riotID string) (balance.Rank, error) {
	acc, err := c.Account(ctx, riotID)
	if err != nil {
		return balance.Rank{}, err
	}

	entries, err := c.LeagueEntries(ctx, acc.PUUID)
	if err != nil {
		return balance.Rank{}, fmt.Errorf("rank of %s: %w", riotID, err)
	}

	for _, e := range entries {
		if e.QueueType == "RANKED_SOLO_5x5" {
			return balance.Rank{Tier: e.Tier, Division: e.Rank, LeaguePoints: e.LeaguePoints}, nil
		}
	}
	return balance.Rank{}, nil
}

// History returns outcomes of the player's ranked games among the last
// count matches. Games in other queues are skipped.
func (c *Client) History(ctx context.Context, riotID string, count int) ([]balance.Game, error) {
	acc, err := c.Account(ctx, riotID)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/lol/match/v5/matches/by-puuid/%s/ids?start=0&count=%d",
		c.regionURL, url.PathEscape(acc.PUUID), count)

	var ids []string
	if err := c.get(ctx, u, &ids); err != nil {
		return nil, fmt.Errorf("get match ids of %s: %w", riotID, err)
	}

	var games []balance.Game
	for _, id := range ids {
		var m matchDetail
		if err := c.get(ctx, fmt.Sprintf("%s/lol/match/v5/matches/%s", c.regionURL, url.PathEscape(id)), &m); err != nil {
			if errors.Is(err, ErrNotFound) {
				log.Printf("[DEBUG] match %s not found, skipping", id)
				continue
			}
			return nil, fmt.Errorf("get match %s: %w", id, err)
		}

		var queue balance.Queue
		switch m.Info.QueueID {
		case queueSolo:
			queue = balance.QueueSolo
		case queueFlex:
			queue = balance.QueueFlex
		default:
			continue
		}

		for _, p := range m.Info.Participants {
			if p.PUUID == acc.PUUID {
				games = append(games, balance.Game{Win: p.Win, Queue: queue})
				break
			}
		}
	}
	return games, nil
}

// get fetches u and decodes the JSON body into out. It retries on 429
// after Retry-After and on 5xx and network errors with exponential backoff.
func (c *Client) get(ctx context.Context, u string, out any) error {
	backoff := c.opts.Backoff
	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("make request: %w", err)
		}

		var (
			wait time.Duration
			grow bool
		)
		resp, err := c.http.Do(req)
		switch {
		case err != nil:
			if ctx.Err() != nil || attempt >= c.opts.MaxRetries {
				return fmt.Errorf("do request: %w", err)
			}
			log.Printf("[WARN] riot request failed, attempt %d: %v", attempt, err)
			wait, grow = backoff, true
		default:
			// read to EOF so that the cache stores the body
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("read body: %w", err)
			}

			switch code := resp.StatusCode; {
			case code >= 200 && code < 300:
				if err := json.Unmarshal(body, out); err != nil {
					return fmt.Errorf("decode response: %w", err)
				}
				return nil
			case code == http.StatusNotFound:
				return ErrNotFound
			case code == http.StatusTooManyRequests && attempt < c.opts.MaxRetries:
				wait = retryAfter(resp.Header.Get("Retry-After"))
				log.Printf("[INFO] riot rate limited, waiting %s", wait)
			case code >= 500 && attempt < c.opts.MaxRetries:
				log.Printf("[WARN] riot server error %d, attempt %d", code, attempt)
				wait, grow = backoff, true
			default:
				return &StatusError{Code: code, Body: string(body)}
			}
		}

		if grow && backoff < 30*time.Second {
			backoff *= 2
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func retryAfter(v string) time.Duration {
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 {
		return time.Duration(n) * time.Second
	}
	return 2 * time.Second
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
