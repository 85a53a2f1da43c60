// Package store persists workspaces and their conversation history.
//
// A workspace is a named, independently-persisted conversation context
// with its own history pairs and an optional context summary. History
// pairs are append-only; a pair is written only after its turn has fully
// quiesced (the caller's responsibility — the store exposes whole-pair
// append and nothing finer).
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

// Workspace is one persisted conversation context.
type Workspace struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Pair is one persisted (user, assistant) history unit.
type Pair struct {
	User      string
	Assistant string
}

// Store is a SQLite-backed workspace and history store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the
// schema. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection serializes writes (preserving history ordering) and
	// keeps ":memory:" databases coherent across the pool.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS workspaces (
		workspace_id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		context_summary TEXT DEFAULT NULL,
		context_updated_at TIMESTAMP DEFAULT NULL
	);

	CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		workspace_id INTEGER NOT NULL,
		user TEXT NOT NULL,
		assistant TEXT NOT NULL,
		FOREIGN KEY(workspace_id) REFERENCES workspaces(workspace_id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_history_workspace ON history(workspace_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateWorkspace creates a workspace and returns its ID.
func (s *Store) CreateWorkspace(name string) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO workspaces (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("create workspace: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create workspace: %w", err)
	}
	return id, nil
}

// ListWorkspaces returns all workspaces, most recently created first.
func (s *Store) ListWorkspaces() ([]Workspace, error) {
	rows, err := s.db.Query(`
		SELECT workspace_id, name, created_at
		FROM workspaces
		ORDER BY created_at DESC, workspace_id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	var result []Workspace
	for rows.Next() {
		var w Workspace
		if err := rows.Scan(&w.ID, &w.Name, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// RenameWorkspace changes a workspace's name.
func (s *Store) RenameWorkspace(id int64, newName string) error {
	res, err := s.db.Exec(`UPDATE workspaces SET name = ? WHERE workspace_id = ?`, newName, id)
	if err != nil {
		return fmt.Errorf("rename workspace: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("workspace %d not found", id)
	}
	return nil
}

// DeleteWorkspace removes a workspace and, by cascade, all its history.
func (s *Store) DeleteWorkspace(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM workspaces WHERE workspace_id = ?`, id); err != nil {
		return fmt.Errorf("delete workspace: %w", err)
	}
	return nil
}

// LoadHistory returns a workspace's history pairs, oldest first.
func (s *Store) LoadHistory(workspaceID int64) ([]Pair, error) {
	rows, err := s.db.Query(`
		SELECT user, assistant FROM history
		WHERE workspace_id = ?
		ORDER BY id ASC
	`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var pairs []Pair
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.User, &p.Assistant); err != nil {
			return nil, fmt.Errorf("scan pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// AppendHistory records one completed turn.
func (s *Store) AppendHistory(workspaceID int64, user, assistant string) error {
	_, err := s.db.Exec(`
		INSERT INTO history (workspace_id, user, assistant) VALUES (?, ?, ?)
	`, workspaceID, user, assistant)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// ClearHistory removes all history pairs for a workspace.
func (s *Store) ClearHistory(workspaceID int64) error {
	if _, err := s.db.Exec(`DELETE FROM history WHERE workspace_id = ?`, workspaceID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// ContextSummary returns a workspace's context summary and its last
// update time. ok is false when no summary has been set.
func (s *Store) ContextSummary(workspaceID int64) (summary string, updatedAt time.Time, ok bool, err error) {
	var sum sql.NullString
	var at sql.NullTime
	err = s.db.QueryRow(`
		SELECT context_summary, context_updated_at
		FROM workspaces WHERE workspace_id = ?
	`, workspaceID).Scan(&sum, &at)
	if err == sql.ErrNoRows {
		return "", time.Time{}, false, nil
	}
	if err != nil {
		return "", time.Time{}, false, fmt.Errorf("get context summary: %w", err)
	}
	if !sum.Valid {
		return "", time.Time{}, false, nil
	}
	return sum.String, at.Time, true, nil
}

// SetContextSummary stores a workspace's context summary, stamping the
// update time.
func (s *Store) SetContextSummary(workspaceID int64, summary string) error {
	res, err := s.db.Exec(`
		UPDATE workspaces
		SET context_summary = ?, context_updated_at = CURRENT_TIMESTAMP
		WHERE workspace_id = ?
	`, summary, workspaceID)
	if err != nil {
		return fmt.Errorf("set context summary: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("workspace %d not found", workspaceID)
	}
	return nil
}
