package local

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	dom "todosync/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists the collection in a single-file database. Operations
// hold one mutex for their duration, so the read-modify-write cycles in
// Update and Toggle never interleave.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenSQLite opens (and creates if missing) the database at path. A leading
// "~" expands to the user's home directory.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = home + path[1:]
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS todos (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			completed BOOLEAN NOT NULL DEFAULT 0,
			priority TEXT NOT NULL DEFAULT 'medium',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			due_date TIMESTAMP
		)
	`)
	return err
}

const sqliteColumns = `id, title, description, completed, priority, created_at, updated_at, due_date`

func scanSQLiteTodo(row interface{ Scan(...any) error }) (dom.Todo, error) {
	var (
		t        dom.Todo
		priority string
		due      sql.NullTime
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &priority,
		&t.CreatedAt, &t.UpdatedAt, &due)
	if err != nil {
		return dom.Todo{}, err
	}
	t.Priority = dom.Priority(priority)
	if due.Valid {
		d := due.Time
		t.DueDate = &d
	}
	return t, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]dom.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(ctx)
}

func (s *SQLiteStore) list(ctx context.Context) ([]dom.Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteColumns+` FROM todos ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []dom.Todo
	for rows.Next() {
		t, err := scanSQLiteTodo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (s *SQLiteStore) Create(ctx context.Context, p CreateParams) (dom.Todo, error) {
	title, err := normalizeTitle(p.Title)
	if err != nil {
		return dom.Todo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := dom.NewTodo("", title, p.Description, p.Priority, p.DueDate)
	if err := s.insert(ctx, s.db, t); err != nil {
		return dom.Todo{}, err
	}
	return t, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) insert(ctx context.Context, db execer, t dom.Todo) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO todos (`+sqliteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.Completed, string(t.Priority),
		t.CreatedAt, t.UpdatedAt, nullableTime(t.DueDate),
	)
	return err
}

func (s *SQLiteStore) Update(ctx context.Context, id string, p Patch) (dom.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.get(ctx, id)
	if err != nil {
		return dom.Todo{}, err
	}
	if p.Title != nil {
		title, err := normalizeTitle(*p.Title)
		if err != nil {
			return dom.Todo{}, err
		}
		t.Title = title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	t.Touch()
	if err := s.write(ctx, t); err != nil {
		return dom.Todo{}, err
	}
	return t, nil
}

func (s *SQLiteStore) Toggle(ctx context.Context, id string) (dom.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.get(ctx, id)
	if err != nil {
		return dom.Todo{}, err
	}
	t.Completed = !t.Completed
	t.Touch()
	if err := s.write(ctx, t); err != nil {
		return dom.Todo{}, err
	}
	return t, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ClearCompleted(ctx context.Context) ([]dom.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE completed = 1`); err != nil {
		return nil, err
	}
	return s.list(ctx)
}

// ReplaceAll swaps the whole collection in one transaction, so a failure
// mid-insert leaves the previous collection intact.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, todos []dom.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM todos`); err != nil {
		return err
	}
	for _, t := range todos {
		if err := s.insert(ctx, tx, t); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ApplyRemote(ctx context.Context, todos []dom.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, t := range todos {
		var existing sql.NullTime
		err := tx.QueryRowContext(ctx,
			`SELECT updated_at FROM todos WHERE id = ?`, t.ID).Scan(&existing)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if err := s.insert(ctx, tx, t); err != nil {
				return err
			}
		case err != nil:
			return err
		case t.UpdatedAt.After(existing.Time):
			if _, err := tx.ExecContext(ctx, `
				UPDATE todos
				SET title = ?, description = ?, completed = ?, priority = ?, updated_at = ?, due_date = ?
				WHERE id = ?`,
				t.Title, t.Description, t.Completed, string(t.Priority),
				t.UpdatedAt, nullableTime(t.DueDate), t.ID,
			); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) get(ctx context.Context, id string) (dom.Todo, error) {
	t, err := scanSQLiteTodo(s.db.QueryRowContext(ctx,
		`SELECT `+sqliteColumns+` FROM todos WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return dom.Todo{}, ErrNotFound
	}
	return t, err
}

func (s *SQLiteStore) write(ctx context.Context, t dom.Todo) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE todos
		SET title = ?, description = ?, completed = ?, priority = ?, updated_at = ?, due_date = ?
		WHERE id = ?`,
		t.Title, t.Description, t.Completed, string(t.Priority),
		t.UpdatedAt, nullableTime(t.DueDate), t.ID,
	)
	return err
}

// nullableTime maps a missing due date to SQL NULL.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
