// Package persistence provides SQLite-based project storage. Each
// project is stored as a single JSON document keyed by a ULID id and a
// unique title; the character state store serializes inside the
// document.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/yujiapingyu/novelgrok/internal/novel"
	"github.com/yujiapingyu/novelgrok/internal/tracker"
)

// ErrNotFound is returned when no project matches the given title.
var ErrNotFound = errors.New("project not found")

// DB wraps a SQLite connection for project persistence.
type DB struct {
	conn    *sqlx.DB
	entropy *ulid.MonotonicEntropy
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{
		conn:    conn,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
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
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL UNIQUE,
		data_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_projects_updated ON projects(updated_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveProject inserts or updates a project document by title.
func (db *DB) SaveProject(p *novel.Project) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	var existingID string
	err = db.conn.Get(&existingID, "SELECT id FROM projects WHERE title = ?", p.Title)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id := ulid.MustNew(ulid.Timestamp(time.Now()), db.entropy).String()
		_, err = db.conn.Exec(
			"INSERT INTO projects (id, title, data_json, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			id, p.Title, string(data), now, now,
		)
		if err != nil {
			return fmt.Errorf("insert project %q: %w", p.Title, err)
		}
	case err != nil:
		return fmt.Errorf("lookup project %q: %w", p.Title, err)
	default:
		_, err = db.conn.Exec(
			"UPDATE projects SET data_json = ?, updated_at = ? WHERE id = ?",
			string(data), now, existingID,
		)
		if err != nil {
			return fmt.Errorf("update project %q: %w", p.Title, err)
		}
	}

	slog.Debug("project saved", "title", p.Title, "chapters", len(p.Chapters), "bytes", len(data))
	return nil
}

// LoadProject reads a project document by title.
func (db *DB) LoadProject(title string) (*novel.Project, error) {
	var data string
	err := db.conn.Get(&data, "SELECT data_json FROM projects WHERE title = ?", title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, title)
	}
	if err != nil {
		return nil, fmt.Errorf("load project %q: %w", title, err)
	}

	var p novel.Project
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("unmarshal project %q: %w", title, err)
	}
	if p.Tracker == nil {
		p.Tracker = tracker.NewStore()
	}
	return &p, nil
}

// ProjectInfo is one row of the project listing.
type ProjectInfo struct {
	ID        string `db:"id" json:"id"`
	Title     string `db:"title" json:"title"`
	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at"`
}

// ListProjects returns all projects, most recently updated first.
func (db *DB) ListProjects() ([]ProjectInfo, error) {
	var infos []ProjectInfo
	err := db.conn.Select(&infos,
		"SELECT id, title, created_at, updated_at FROM projects ORDER BY updated_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return infos, nil
}

// DeleteProject removes a project by title.
func (db *DB) DeleteProject(title string) error {
	res, err := db.conn.Exec("DELETE FROM projects WHERE title = ?", title)
	if err != nil {
		return fmt.Errorf("delete project %q: %w", title, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, title)
	}
	slog.Info("project deleted", "title", title)
	return nil
}
