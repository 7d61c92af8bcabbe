package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
)

// LobbyType is the competitiveness of a custom match lobby.
type LobbyType string

// Lobby types.
const (
	LobbySoft  LobbyType = "soft"
	LobbyHard  LobbyType = "hard"
	LobbyHyper LobbyType = "hyper"
)

// Value implements driver.Valuer.
func (t LobbyType) Value() (driver.Value, error) { return string(t), nil }

// LobbyStatus is the state of a lobby.
type LobbyStatus string

// Lobby statuses.
const (
	StatusOpen      LobbyStatus = "open"
	StatusCompleted LobbyStatus = "completed"
)

// Value implements driver.Valuer.
func (s LobbyStatus) Value() (driver.Value, error) { return string(s), nil }

// ErrInvalidLobby is returned for an unknown lobby type or status.
var ErrInvalidLobby = errors.New("invalid lobby type or status")

// ErrLobbyExists is returned when a lobby with the same custom ID exists.
var ErrLobbyExists = errors.New("lobby already exists")

// ParseLobbyType validates a lobby type, case-insensitive.
func ParseLobbyType(s string) (LobbyType, error) {
	switch t := LobbyType(strings.ToLower(s)); t {
	case LobbySoft, LobbyHard, LobbyHyper:
		return t, nil
	}
	return "", fmt.Errorf("lobby type %q: %w", s, ErrInvalidLobby)
}

// ParseLobbyStatus validates a lobby status, case-insensitive.
func ParseLobbyStatus(s string) (LobbyStatus, error) {
	switch st := LobbyStatus(strings.ToLower(s)); st {
	case StatusOpen, StatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("lobby status %q: %w", s, ErrInvalidLobby)
}

// Lobby is a custom match hosted in a channel, with its participants
// waiting to be balanced.
type Lobby struct {
	ID           int64       `db:"id"`
	CustomID     string      `db:"custom_id"`
	Host         string      `db:"host"`
	Type         LobbyType   `db:"type"`
	Status       LobbyStatus `db:"status"`
	CreatedAt    int64       `db:"created_at"`
	Participants int         `db:"participants"`
}

const lobbyColumns = `l.id, l.custom_id, l.host, l.type, l.status, l.created_at, COUNT(p.name) AS participants`

// CreateLobby saves an open lobby with the given participants, in order.
func (s *Store) CreateLobby(ctx context.Context, l Lobby, names []string) (Lobby, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Lobby{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM lobbies WHERE custom_id = ?`, l.CustomID); err != nil {
		return Lobby{}, fmt.Errorf("check lobby: %w", err)
	}
	if exists > 0 {
		return Lobby{}, fmt.Errorf("lobby %s: %w", l.CustomID, ErrLobbyExists)
	}

	l.Status = StatusOpen
	l.CreatedAt = s.now().Unix()
	res, err := tx.NamedExecContext(ctx, `INSERT INTO lobbies (custom_id, host, type, status, created_at)
					VALUES (:custom_id, :host, :type, :status, :created_at)`, l)
	if err != nil {
		return Lobby{}, fmt.Errorf("insert lobby: %w", err)
	}
	if l.ID, err = res.LastInsertId(); err != nil {
		return Lobby{}, fmt.Errorf("get lobby id: %w", err)
	}

	for pos, name := range names {
		res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO participants (lobby_id, name, position) VALUES (?, ?, ?)`,
			l.ID, name, pos)
		if err != nil {
			return Lobby{}, fmt.Errorf("add participant %s: %w", name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			l.Participants++
		}
	}

	if err := tx.Commit(); err != nil {
		return Lobby{}, fmt.Errorf("commit transaction: %w", err)
	}
	return l, nil
}

// Lobby returns the lobby by its custom ID.
func (s *Store) Lobby(ctx context.Context, customID string) (Lobby, error) {
	var l Lobby
	query := `SELECT ` + lobbyColumns + ` FROM lobbies l
				LEFT JOIN participants p ON p.lobby_id = l.id
				WHERE l.custom_id = ?
				GROUP BY l.id`
	err := s.db.GetContext(ctx, &l, query, customID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Lobby{}, ErrNotFound
	case err != nil:
		return Lobby{}, fmt.Errorf("get lobby: %w", err)
	}
	return l, nil
}

// Lobbies returns up to limit most recent lobbies of the type, any type
// if typ is empty, no limit if limit is zero.
func (s *Store) Lobbies(ctx context.Context, typ LobbyType, limit int) ([]Lobby, error) {
	query := `SELECT ` + lobbyColumns + ` FROM lobbies l
				LEFT JOIN participants p ON p.lobby_id = l.id
				WHERE ? = '' OR l.type = ?
				GROUP BY l.id
				ORDER BY l.created_at DESC, l.id DESC`
	args := []any{typ, typ}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var lobbies []Lobby
	if err := s.db.SelectContext(ctx, &lobbies, query, args...); err != nil {
		return nil, fmt.Errorf("select lobbies: %w", err)
	}
	return lobbies, nil
}

// LobbyNames returns participant names of the lobby in the order they joined.
func (s *Store) LobbyNames(ctx context.Context, customID string) ([]string, error) {
	var names []string
	err := s.db.SelectContext(ctx, &names, `SELECT p.name FROM participants p
				JOIN lobbies l ON l.id = p.lobby_id
				WHERE l.custom_id = ? ORDER BY p.position`, customID)
	if err != nil {
		return nil, fmt.Errorf("select participants: %w", err)
	}
	return names, nil
}

// SetLobbyStatus updates the status of the lobby.
func (s *Store) SetLobbyStatus(ctx context.Context, customID string, status LobbyStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE lobbies SET status = ? WHERE custom_id = ?`, status, customID)
	if err != nil {
		return fmt.Errorf("update lobby status: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("get affected rows: %w", err)
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}
