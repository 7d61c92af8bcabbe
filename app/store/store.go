package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bobylevd/custom-match-bot/app/roster"
)

// ErrNotFound indicates that the entity hasn't been found in the database.
var ErrNotFound = errors.New("not found")

// Player is a roster entry as stored in the database.
type Player struct {
	Name           string `db:"name"`
	Tier           string `db:"tier"`
	Division       string `db:"division"`
	MainLane       string `db:"main_lane"`
	PreferredLanes Lanes  `db:"preferred_lanes"`
	UpdatedAt      int64  `db:"updated_at"`
}

// FromRoster converts a parsed roster entry.
func FromRoster(p roster.Player) Player {
	return Player{
		Name:           p.Name,
		Tier:           p.Tier,
		Division:       p.Rank,
		MainLane:       p.MainLane,
		PreferredLanes: Lanes(p.PreferredLanes),
	}
}

// Lanes is a list of lanes stored as a JSON array.
type Lanes []string

// Value implements driver.Valuer.
func (l Lanes) Value() (driver.Value, error) {
	if l == nil {
		l = Lanes{}
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("marshal lanes: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *Lanes) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*l = Lanes{}
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("unsupported lanes type %T", src)
	}

	var lanes []string
	if err := json.Unmarshal(b, &lanes); err != nil {
		return fmt.Errorf("unmarshal lanes: %w", err)
	}
	*l = lanes
	return nil
}

// Store provides methods to store/load data.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// New prepares the database.
func New(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS players (
			name TEXT PRIMARY KEY,
			tier TEXT NOT NULL DEFAULT 'UNRANKED',
			division TEXT NOT NULL DEFAULT '',
			main_lane TEXT NOT NULL DEFAULT 'UNKNOWN',
			preferred_lanes TEXT NOT NULL DEFAULT '[]',
			updated_at INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS rosters (
			channel_id TEXT PRIMARY KEY,
			names TEXT NOT NULL DEFAULT '[]',
			created_at INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS lobbies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			custom_id TEXT NOT NULL UNIQUE,
			host TEXT NOT NULL,
			type TEXT NOT NULL CHECK(type IN ('soft', 'hard', 'hyper')),
			status TEXT NOT NULL DEFAULT 'open',
			created_at INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS participants (
			lobby_id INTEGER NOT NULL REFERENCES lobbies(id),
			name TEXT NOT NULL,
			position INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'waiting',
			PRIMARY KEY (lobby_id, name)
		);
    `

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Upsert creates the players or updates the already known ones.
func (s *Store) Upsert(ctx context.Context, players ...Player) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `INSERT INTO players (name, tier, division, main_lane, preferred_lanes, updated_at)
					VALUES (:name, :tier, :division, :main_lane, :preferred_lanes, :updated_at)
					ON CONFLICT(name) DO UPDATE SET
						tier = excluded.tier,
						division = excluded.division,
						main_lane = excluded.main_lane,
						preferred_lanes = excluded.preferred_lanes,
						updated_at = excluded.updated_at`

	now := s.now().Unix()
	for _, pl := range players {
		pl.UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, pl); err != nil {
			return fmt.Errorf("upsert player %s: %w", pl.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// List returns players with the given names, all of them if no names are given.
func (s *Store) List(ctx context.Context, names []string) ([]Player, error) {
	var players []Player

	query, args := `SELECT * FROM players ORDER BY name`, []any{}
	if len(names) > 0 {
		var err error
		query, args, err = sqlx.In(`SELECT * FROM players WHERE name IN (?) ORDER BY name`, names)
		if err != nil {
			return nil, fmt.Errorf("build query: %w", err)
		}
	}

	if err := s.db.SelectContext(ctx, &players, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return players, nil
}

// Get returns a player by the given name.
func (s *Store) Get(ctx context.Context, name string) (Player, error) {
	var pl Player
	err := s.db.GetContext(ctx, &pl, `SELECT * FROM players WHERE name = ?`, name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Player{}, ErrNotFound
	case err != nil:
		return Player{}, fmt.Errorf("get player: %w", err)
	}
	return pl, nil
}

// SaveRoster remembers the ordered player names of the channel's roster,
// replacing the previous one.
func (s *Store) SaveRoster(ctx context.Context, channelID string, names []string) error {
	b, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("marshal names: %w", err)
	}

	const query = `INSERT INTO rosters (channel_id, names, created_at) VALUES (?, ?, ?)
					ON CONFLICT(channel_id) DO UPDATE SET names = excluded.names, created_at = excluded.created_at`

	if _, err := s.db.ExecContext(ctx, query, channelID, string(b), s.now().Unix()); err != nil {
		return fmt.Errorf("save roster: %w", err)
	}
	return nil
}

// Roster returns the channel's roster. Rosters older than ttl are removed
// and reported as not found, zero ttl never expires.
func (s *Store) Roster(ctx context.Context, channelID string, ttl time.Duration) ([]string, error) {
	var row struct {
		Names     string `db:"names"`
		CreatedAt int64  `db:"created_at"`
	}
	err := s.db.GetContext(ctx, &row, `SELECT names, created_at FROM rosters WHERE channel_id = ?`, channelID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("get roster: %w", err)
	}

	if ttl > 0 && s.now().Sub(time.Unix(row.CreatedAt, 0)) > ttl {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM rosters WHERE channel_id = ?`, channelID); err != nil {
			return nil, fmt.Errorf("clear expired roster: %w", err)
		}
		return nil, ErrNotFound
	}

	var names []string
	if err := json.Unmarshal([]byte(row.Names), &names); err != nil {
		return nil, fmt.Errorf("unmarshal names: %w", err)
	}
	return names, nil
}
