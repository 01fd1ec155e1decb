// Package persistence stores saved games. The SQLite store keeps each save
// document whole alongside an index table; the Redis store uses the same
// key layout as the browser saves it replaces.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/daily-decree/internal/game"
	"github.com/talgya/daily-decree/internal/newspaper"
)

const schemaVersion = "1"

// DB wraps a SQLite connection for save storage.
type DB struct {
	conn *sqlx.DB
}

var _ game.Store = (*DB)(nil)

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		id TEXT PRIMARY KEY,
		body TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS save_index (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		leader_name TEXT NOT NULL,
		country TEXT NOT NULL,
		turn_count INTEGER NOT NULL,
		timestamp INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_save_index_timestamp ON save_index(timestamp);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return err
	}
	return db.SaveMeta("schema_version", schemaVersion)
}

type indexRow struct {
	ID         string `db:"id"`
	Name       string `db:"name"`
	LeaderName string `db:"leader_name"`
	Country    string `db:"country"`
	TurnCount  int    `db:"turn_count"`
	Timestamp  int64  `db:"timestamp"`
}

func (r indexRow) metadata() game.SaveMetadata {
	return game.SaveMetadata{
		ID:         r.ID,
		Name:       r.Name,
		LeaderName: r.LeaderName,
		Country:    newspaper.Country(r.Country),
		TurnCount:  r.TurnCount,
		Timestamp:  r.Timestamp,
	}
}

// Save writes the document and its index entry, replacing any save with the same id.
func (db *DB) Save(ctx context.Context, f *game.SaveFile) error {
	body, err := game.Encode(f)
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	m := f.Metadata
	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO saves (id, body) VALUES (?, ?)",
		m.ID, string(body),
	); err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO save_index (id, name, leader_name, country, turn_count, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.LeaderName, string(m.Country), m.TurnCount, m.Timestamp,
	); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO meta (key, value) VALUES ('last_save', ?)", m.ID,
	); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("save written", "id", m.ID, "turn", m.TurnCount, "bytes", len(body))
	return nil
}

// Load reads and validates a save document.
func (db *DB) Load(ctx context.Context, id string) (*game.SaveFile, error) {
	var body string
	err := db.conn.GetContext(ctx, &body, "SELECT body FROM saves WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", game.ErrSaveNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read save: %w", err)
	}
	return game.Decode([]byte(body))
}

// List returns the save index, newest first.
func (db *DB) List(ctx context.Context) ([]game.SaveMetadata, error) {
	var rows []indexRow
	if err := db.conn.SelectContext(ctx, &rows,
		"SELECT id, name, leader_name, country, turn_count, timestamp FROM save_index ORDER BY timestamp DESC",
	); err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	out := make([]game.SaveMetadata, len(rows))
	for i, r := range rows {
		out[i] = r.metadata()
	}
	return out, nil
}

// Delete removes a save and its index entry. Deleting a missing save is not an error.
func (db *DB) Delete(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM saves WHERE id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM save_index WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveMeta stores a key-value pair in store metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}

// LastSaved returns the id of the most recently written save, or "" if none.
func (db *DB) LastSaved() string {
	id, err := db.GetMeta("last_save")
	if err != nil {
		return ""
	}
	return id
}
