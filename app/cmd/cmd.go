package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bobylevd/custom-match-bot/app/riot"
	"github.com/bobylevd/custom-match-bot/app/store"
)

// RiotOpts configures access to the Riot Games API.
type RiotOpts struct {
	Key      string        `long:"riot-key"  env:"RIOT_API_KEY"  description:"Riot Games API key"`
	Platform string        `long:"platform"  env:"RIOT_PLATFORM" default:"KR"  description:"platform routing value, e.g. KR, EUW1"`
	Recent   int           `long:"recent"    env:"RIOT_RECENT"   default:"8"   description:"recent ranked games per player"`
	CacheTTL time.Duration `long:"cache-ttl" env:"RIOT_CACHE_TTL" default:"10m" description:"cache API responses for this long"`
	Timeout  time.Duration `long:"timeout"   env:"RIOT_TIMEOUT"  default:"10s" description:"API request timeout"`
}

// CommonOpts contains information that is common for all commands.
type CommonOpts struct {
	Version string
	Riot    RiotOpts `no-flag:"true"`

	// overridden in tests
	stdin  io.Reader
	stdout io.Writer
}

// Set sets the common options.
func (c *CommonOpts) Set(cc CommonOpts) {
	c.Version = cc.Version
	c.Riot = cc.Riot
}

// ErrNoAPIKey is returned by commands that need the Riot API when no key is set.
var ErrNoAPIKey = errors.New("riot API key is not set, use --riot-key or RIOT_API_KEY")

// service makes a store service backed by the Riot API with the given store.
func (c *CommonOpts) service(s *store.Store) (*store.Service, error) {
	if strings.TrimSpace(c.Riot.Key) == "" {
		return nil, ErrNoAPIKey
	}

	cl := riot.New(riot.Opts{
		APIKey:   c.Riot.Key,
		Platform: c.Riot.Platform,
		CacheTTL: c.Riot.CacheTTL,
		Timeout:  c.Riot.Timeout,
	})
	return &store.Service{Store: s, Ranks: cl, History: cl, Recent: c.Riot.Recent}, nil
}

// input opens the file, or stdin when no file is given.
func (c *CommonOpts) input(file string) (io.ReadCloser, error) {
	if file == "" {
		if c.stdin != nil {
			return io.NopCloser(c.stdin), nil
		}
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", file, err)
	}
	return f, nil
}

func (c *CommonOpts) output() io.Writer {
	if c.stdout != nil {
		return c.stdout
	}
	return os.Stdout
}

// readLines reads trimmed non-blank lines.
func readLines(r io.Reader) ([]string, error) {
	var res []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if l := strings.TrimSpace(sc.Text()); l != "" {
			res = append(res, l)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}
	return res, nil
}
