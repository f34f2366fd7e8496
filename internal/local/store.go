// Package local implements the single-user todo store held on the client
// device. Two backends share one contract: an in-memory map guarded by a
// single mutex, and a SQLite file for persistence across runs.
package local

import (
	"context"
	"errors"
	"strings"
	"time"

	dom "todosync/internal/domain"
)

var (
	ErrNotFound   = errors.New("todo not found")
	ErrEmptyTitle = errors.New("title must not be empty")
)

// normalizeTitle trims the title and rejects it when nothing is left. A todo
// never carries an empty title, on creation or after a patch.
func normalizeTitle(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyTitle
	}
	return s, nil
}

// CreateParams are the caller-supplied fields for a new todo. Priority
// defaults to medium when empty.
type CreateParams struct {
	Title       string
	Description string
	Priority    dom.Priority
	DueDate     *time.Time
}

// Patch is a sparse update: nil fields are left unchanged.
type Patch struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *dom.Priority
	DueDate     *time.Time
}

// Store is the local todo collection. Every operation is synchronous and
// atomic with respect to the others.
type Store interface {
	// List returns all todos, newest-created-first.
	List(ctx context.Context) ([]dom.Todo, error)
	// Create assigns a fresh id, sets created_at == updated_at, and
	// returns the full record.
	Create(ctx context.Context, p CreateParams) (dom.Todo, error)
	// Update applies a sparse patch. updated_at advances even when the
	// patch is empty. ErrNotFound if the id is absent.
	Update(ctx context.Context, id string, p Patch) (dom.Todo, error)
	// Toggle flips completed and advances updated_at.
	Toggle(ctx context.Context, id string) (dom.Todo, error)
	// Delete removes the todo. ErrNotFound if the id is absent.
	Delete(ctx context.Context, id string) error
	// ClearCompleted removes every completed todo and returns the rest.
	ClearCompleted(ctx context.Context) ([]dom.Todo, error)
	// ReplaceAll atomically swaps the whole collection for the given
	// records, kept verbatim. Used for a full resync from the server.
	ReplaceAll(ctx context.Context, todos []dom.Todo) error
	// ApplyRemote upserts server records with the same last-writer-wins
	// rule the server uses: absent ids are inserted, existing todos are
	// overwritten only when the remote copy is strictly newer.
	ApplyRemote(ctx context.Context, todos []dom.Todo) error
	Close() error
}
