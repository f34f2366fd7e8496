package repo

import (
	"context"
	"time"

	dom "todosync/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TodoRepo provides todo persistence scoped by user.
// Methods report a missing row as pgx.ErrNoRows; the service layer maps
// that to its NotFound error.
type TodoRepo interface {
	Create(ctx context.Context, t dom.Todo) (dom.Todo, error)
	GetByID(ctx context.Context, userID, id string) (dom.Todo, error)
	List(ctx context.Context, userID string) ([]dom.Todo, error)
	Update(ctx context.Context, t dom.Todo) (dom.Todo, error)
	Delete(ctx context.Context, userID, id string) error
	ApplyBatch(ctx context.Context, userID string, incoming []dom.Todo) error
	ListUpdatedSince(ctx context.Context, userID string, since time.Time) ([]dom.Todo, error)
}

type PGTodoRepo struct {
	db *pgxpool.Pool
}

func NewPGTodoRepo(db *pgxpool.Pool) *PGTodoRepo {
	return &PGTodoRepo{db: db}
}

const todoColumns = `id, user_id, title, description, completed, priority, created_at, updated_at, due_date`

func scanTodo(row pgx.Row) (dom.Todo, error) {
	var t dom.Todo
	err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed, &t.Priority,
		&t.CreatedAt, &t.UpdatedAt, &t.DueDate,
	)
	return t, err
}

// Create inserts the todo verbatim, id and timestamps included.
func (r *PGTodoRepo) Create(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	query := `
		INSERT INTO todos (` + todoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + todoColumns
	return scanTodo(r.db.QueryRow(ctx, query,
		t.ID, t.UserID, t.Title, t.Description, t.Completed, t.Priority,
		t.CreatedAt, t.UpdatedAt, t.DueDate,
	))
}

func (r *PGTodoRepo) GetByID(ctx context.Context, userID, id string) (dom.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1 AND user_id = $2`
	return scanTodo(r.db.QueryRow(ctx, query, id, userID))
}

func (r *PGTodoRepo) List(ctx context.Context, userID string) ([]dom.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTodos(rows)
}

// Update writes the full patched record. The caller fetches the row first
// and applies the sparse patch; this keeps patch semantics in one place.
func (r *PGTodoRepo) Update(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	query := `
		UPDATE todos
		SET title = $3, description = $4, completed = $5, priority = $6, updated_at = $7, due_date = $8
		WHERE id = $1 AND user_id = $2
		RETURNING ` + todoColumns
	return scanTodo(r.db.QueryRow(ctx, query,
		t.ID, t.UserID, t.Title, t.Description, t.Completed, t.Priority,
		t.UpdatedAt, t.DueDate,
	))
}

// Delete removes the row. Zero rows affected is reported as pgx.ErrNoRows.
func (r *PGTodoRepo) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ApplyBatch applies a client sync batch inside one transaction.
// Each record is upserted with a last-writer-wins rule: an absent id is
// inserted verbatim, an existing row is overwritten only when the incoming
// updated_at is strictly greater. Ties keep the server row.
func (r *PGTodoRepo) ApplyBatch(ctx context.Context, userID string, incoming []dom.Todo) error {
	if len(incoming) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO todos (` + todoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title,
		    description = EXCLUDED.description,
		    completed = EXCLUDED.completed,
		    priority = EXCLUDED.priority,
		    updated_at = EXCLUDED.updated_at,
		    due_date = EXCLUDED.due_date
		WHERE todos.user_id = EXCLUDED.user_id
		  AND todos.updated_at < EXCLUDED.updated_at`
	for _, t := range incoming {
		if _, err := tx.Exec(ctx, query,
			t.ID, userID, t.Title, t.Description, t.Completed, t.Priority,
			t.CreatedAt, t.UpdatedAt, t.DueDate,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ListUpdatedSince returns the user's rows with updated_at strictly greater
// than since, newest-updated-first. A zero since returns everything.
func (r *PGTodoRepo) ListUpdatedSince(ctx context.Context, userID string, since time.Time) ([]dom.Todo, error) {
	query := `
		SELECT ` + todoColumns + ` FROM todos
		WHERE user_id = $1 AND updated_at > $2
		ORDER BY updated_at DESC`
	rows, err := r.db.Query(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTodos(rows)
}

func collectTodos(rows pgx.Rows) ([]dom.Todo, error) {
	var list []dom.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
