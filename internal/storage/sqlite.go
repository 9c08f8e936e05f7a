// Package storage provides SQLite-based persistence for duel rooms.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/gravity-duel/internal/game"
	"github.com/vovakirdan/gravity-duel/internal/multiplayer"
)

// Store manages the SQLite database holding room records, the per-room shot
// log and archived match results.
type Store struct {
	db *sql.DB
}

// Ensure Store implements RoomStore
var _ multiplayer.RoomStore = (*Store)(nil)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// SQLite allows a single writer; rooms commit concurrently.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS rooms (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			level INTEGER NOT NULL,
			score1 INTEGER NOT NULL DEFAULT 0,
			score2 INTEGER NOT NULL DEFAULT 0,
			turn INTEGER NOT NULL,
			player1 INTEGER NOT NULL DEFAULT 0,
			player2 INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			shot_history TEXT NOT NULL DEFAULT '[]',
			shot_count INTEGER NOT NULL DEFAULT 0,
			pending TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_rooms_updated ON rooms(updated_at DESC);

		CREATE TABLE IF NOT EXISTS shots (
			room_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			player INTEGER NOT NULL,
			level INTEGER NOT NULL,
			angle REAL NOT NULL,
			power INTEGER NOT NULL,
			hit INTEGER NOT NULL,
			hit_what TEXT NOT NULL,
			at TEXT NOT NULL,
			PRIMARY KEY (room_id, seq)
		);

		CREATE TABLE IF NOT EXISTS matches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id TEXT NOT NULL,
			seed INTEGER NOT NULL,
			level INTEGER NOT NULL,
			score1 INTEGER NOT NULL,
			score2 INTEGER NOT NULL,
			winner INTEGER NOT NULL DEFAULT 0,
			shots INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			ended_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_matches_ended ON matches(ended_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRoom inserts or replaces a room record.
func (s *Store) SaveRoom(ctx context.Context, rec multiplayer.RoomRecord) error {
	if err := upsertRoom(ctx, s.db, rec); err != nil {
		return fmt.Errorf("storage: cannot save room %s: %w", rec.ID, err)
	}
	return nil
}

// SaveShot replaces the room record and appends to its shot log atomically.
func (s *Store) SaveShot(ctx context.Context, rec multiplayer.RoomRecord, e multiplayer.ShotLogEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertRoom(ctx, tx, rec); err != nil {
		return fmt.Errorf("storage: cannot save room %s: %w", rec.ID, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO shots (room_id, seq, player, level, angle, power, hit, hit_what, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.ID), e.Seq, int(e.Player), e.Level, e.Angle, e.Power, e.Hit, string(e.HitWhat), formatTime(e.At),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save shot %s#%d: %w", rec.ID, e.Seq, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit shot: %w", err)
	}
	return nil
}

func upsertRoom(ctx context.Context, db execer, rec multiplayer.RoomRecord) error {
	history := rec.ShotHistory
	if history == nil {
		history = []multiplayer.ShotRecord{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return err
	}
	var pending sql.NullString
	if rec.Pending != nil {
		b, err := json.Marshal(rec.Pending)
		if err != nil {
			return err
		}
		pending = sql.NullString{String: string(b), Valid: true}
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO rooms
		 (id, seed, level, score1, score2, turn, player1, player2, status, shot_history, shot_count, pending, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   seed = excluded.seed,
		   level = excluded.level,
		   score1 = excluded.score1,
		   score2 = excluded.score2,
		   turn = excluded.turn,
		   player1 = excluded.player1,
		   player2 = excluded.player2,
		   status = excluded.status,
		   shot_history = excluded.shot_history,
		   shot_count = excluded.shot_count,
		   pending = excluded.pending,
		   updated_at = excluded.updated_at`,
		string(rec.ID), rec.Seed, rec.Level, rec.Scores[0], rec.Scores[1], int(rec.Turn),
		rec.Players[0], rec.Players[1], string(rec.Status), string(historyJSON), rec.ShotCount, pending,
		formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
	)
	return err
}

const roomColumns = `id, seed, level, score1, score2, turn, player1, player2, status,
	shot_history, shot_count, pending, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (multiplayer.RoomRecord, error) {
	var (
		rec                  multiplayer.RoomRecord
		id, status, history  string
		turn                 int
		pending              sql.NullString
		createdAt, updatedAt any
	)
	err := row.Scan(
		&id, &rec.Seed, &rec.Level, &rec.Scores[0], &rec.Scores[1], &turn,
		&rec.Players[0], &rec.Players[1], &status, &history, &rec.ShotCount, &pending,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return rec, err
	}

	rec.ID = multiplayer.RoomID(id)
	rec.Turn = multiplayer.PlayerID(turn)
	rec.Status = multiplayer.Status(status)
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)

	if err := json.Unmarshal([]byte(history), &rec.ShotHistory); err != nil {
		return rec, fmt.Errorf("decode shot history: %w", err)
	}
	if rec.ShotHistory == nil {
		rec.ShotHistory = []multiplayer.ShotRecord{}
	}
	if pending.Valid {
		rec.Pending = &multiplayer.PendingShot{}
		if err := json.Unmarshal([]byte(pending.String), rec.Pending); err != nil {
			return rec, fmt.Errorf("decode pending shot: %w", err)
		}
	}
	return rec, nil
}

// LoadRoom retrieves a room record. Returns nil, nil if it does not exist.
func (s *Store) LoadRoom(ctx context.Context, id multiplayer.RoomID) (*multiplayer.RoomRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, string(id))
	rec, err := scanRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot load room %s: %w", id, err)
	}
	return &rec, nil
}

// ListRooms returns every persisted room, most recently updated first.
func (s *Store) ListRooms(ctx context.Context) ([]multiplayer.RoomRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []multiplayer.RoomRecord
	for rows.Next() {
		rec, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan room: %w", err)
		}
		rooms = append(rooms, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return rooms, nil
}

// DeleteRoom purges a room record together with its shot log.
func (s *Store) DeleteRoom(ctx context.Context, id multiplayer.RoomID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM shots WHERE room_id = ?", string(id)); err != nil {
		return fmt.Errorf("storage: cannot delete shots of %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", string(id)); err != nil {
		return fmt.Errorf("storage: cannot delete room %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit delete: %w", err)
	}
	return nil
}

// ShotLog returns the complete shot log of a room in firing order.
func (s *Store) ShotLog(ctx context.Context, id multiplayer.RoomID) ([]multiplayer.ShotLogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, player, level, angle, power, hit, hit_what, at
		 FROM shots
		 WHERE room_id = ?
		 ORDER BY seq`,
		string(id),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query shots: %w", err)
	}
	defer rows.Close()

	var entries []multiplayer.ShotLogEntry
	for rows.Next() {
		var (
			e       multiplayer.ShotLogEntry
			player  int
			hitWhat string
			at      any
		)
		if err := rows.Scan(&e.Seq, &player, &e.Level, &e.Angle, &e.Power, &e.Hit, &hitWhat, &at); err != nil {
			return nil, fmt.Errorf("storage: cannot scan shot: %w", err)
		}
		e.Player = multiplayer.PlayerID(player)
		e.HitWhat = game.HitKind(hitWhat)
		e.At = parseTime(at)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return entries, nil
}

// ArchiveMatch records the final score line of an evicted room.
func (s *Store) ArchiveMatch(ctx context.Context, a multiplayer.MatchArchive) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO matches (room_id, seed, level, score1, score2, winner, shots, created_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(a.RoomID), a.Seed, a.Level, a.Scores[0], a.Scores[1], int(a.Winner), a.Shots,
		formatTime(a.CreatedAt), formatTime(a.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot archive match %s: %w", a.RoomID, err)
	}
	return nil
}

// RecentMatches retrieves the most recently archived matches.
func (s *Store) RecentMatches(ctx context.Context, limit int) ([]multiplayer.MatchArchive, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT room_id, seed, level, score1, score2, winner, shots, created_at, ended_at
		 FROM matches
		 ORDER BY ended_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query matches: %w", err)
	}
	defer rows.Close()

	var results []multiplayer.MatchArchive
	for rows.Next() {
		var (
			a                  multiplayer.MatchArchive
			roomID             string
			winner             int
			createdAt, endedAt any
		)
		if err := rows.Scan(&roomID, &a.Seed, &a.Level, &a.Scores[0], &a.Scores[1], &winner, &a.Shots, &createdAt, &endedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan match: %w", err)
		}
		a.RoomID = multiplayer.RoomID(roomID)
		a.Winner = multiplayer.PlayerID(winner)
		a.CreatedAt = parseTime(createdAt)
		a.EndedAt = parseTime(endedAt)
		results = append(results, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return results, nil
}

// timeLayout is RFC 3339 with a fixed-width fraction so stored values sort
// lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime accepts whatever the driver hands back for a timestamp column.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		return parseTimeString(v)
	case []byte:
		return parseTimeString(string(v))
	}
	return time.Time{}
}

func parseTimeString(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
