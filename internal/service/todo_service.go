package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"todosync/internal/cache"
	dom "todosync/internal/domain"
	"todosync/internal/repo"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmptyTitle = errors.New("title must not be empty")
)

// TodoPatch is a sparse update: nil fields are left unchanged.
type TodoPatch struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *dom.Priority
	DueDate     *time.Time
}

type TodoService struct {
	repo  repo.TodoRepo
	cache *cache.TodoCache
	sf    singleflight.Group
}

// NewTodoService creates a TodoService. If c is nil, caching is disabled.
func NewTodoService(r repo.TodoRepo, c *cache.TodoCache) *TodoService {
	return &TodoService{repo: r, cache: c}
}

func (s *TodoService) Create(ctx context.Context, userID, title, desc string, priority dom.Priority, dueDate *time.Time) (dom.Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return dom.Todo{}, ErrEmptyTitle
	}
	desc = strings.TrimSpace(desc)

	t, err := s.repo.Create(ctx, dom.NewTodo(userID, title, desc, priority, dueDate))
	if err != nil {
		return dom.Todo{}, err
	}
	s.invalidateCache(ctx, userID)
	return t, nil
}

func (s *TodoService) List(ctx context.Context, userID string) ([]dom.Todo, error) {
	if s.cache != nil {
		key := "list:" + userID
		v, err, _ := s.sf.Do(key, func() (interface{}, error) {
			if list, err := s.cache.GetList(ctx, userID); err == nil && list != nil {
				return list, nil
			}
			list, err := s.repo.List(ctx, userID)
			if err != nil {
				return nil, err
			}
			_ = s.cache.SetList(ctx, userID, list)
			return list, nil
		})
		if err != nil {
			return nil, err
		}
		return v.([]dom.Todo), nil
	}
	return s.repo.List(ctx, userID)
}

// Update applies a sparse patch. updated_at advances on every call, even
// when the patch is empty.
func (s *TodoService) Update(ctx context.Context, userID, id string, patch TodoPatch) (dom.Todo, error) {
	existing, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Todo{}, ErrNotFound
		}
		return dom.Todo{}, err
	}
	next := existing
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return dom.Todo{}, ErrEmptyTitle
		}
		next.Title = title
	}
	if patch.Description != nil {
		next.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Completed != nil {
		next.Completed = *patch.Completed
	}
	if patch.Priority != nil {
		next.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		next.DueDate = patch.DueDate
	}
	next.Touch()

	t, err := s.repo.Update(ctx, next)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Todo{}, ErrNotFound
		}
		return dom.Todo{}, err
	}
	s.invalidateCache(ctx, userID)
	return t, nil
}

func (s *TodoService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	s.invalidateCache(ctx, userID)
	return nil
}

// Sync reconciles a client batch against the user's rows and returns the
// records changed since lastSync (everything when lastSync is nil) plus the
// sync_time the client should use as its next baseline.
//
// The merge is last-writer-wins on updated_at: absent ids are inserted
// verbatim (client timestamps kept), existing rows are overwritten only when
// the client copy is strictly newer. The whole batch is one transaction.
func (s *TodoService) Sync(ctx context.Context, userID string, lastSync *time.Time, incoming []dom.Todo) ([]dom.Todo, time.Time, error) {
	now := time.Now().UTC()

	for i := range incoming {
		incoming[i].UserID = userID
	}
	if err := s.repo.ApplyBatch(ctx, userID, incoming); err != nil {
		return nil, time.Time{}, err
	}

	var since time.Time
	if lastSync != nil {
		since = *lastSync
	}
	list, err := s.repo.ListUpdatedSince(ctx, userID, since)
	if err != nil {
		return nil, time.Time{}, err
	}
	s.invalidateCache(ctx, userID)
	return list, now, nil
}

func (s *TodoService) invalidateCache(ctx context.Context, userID string) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, userID)
	}
}
