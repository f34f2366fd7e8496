package local

import (
	"context"
	"sort"
	"sync"

	dom "todosync/internal/domain"
)

// MemoryStore keeps the collection in a map behind one mutex. It satisfies
// Store and is also the fixture the syncer tests run against.
type MemoryStore struct {
	mu    sync.Mutex
	todos map[string]dom.Todo
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{todos: make(map[string]dom.Todo)}
}

func (s *MemoryStore) List(ctx context.Context) ([]dom.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

func (s *MemoryStore) Create(ctx context.Context, p CreateParams) (dom.Todo, error) {
	title, err := normalizeTitle(p.Title)
	if err != nil {
		return dom.Todo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := dom.NewTodo("", title, p.Description, p.Priority, p.DueDate)
	s.todos[t.ID] = t
	return t, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, p Patch) (dom.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[id]
	if !ok {
		return dom.Todo{}, ErrNotFound
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
	s.todos[id] = t
	return t, nil
}

func (s *MemoryStore) Toggle(ctx context.Context, id string) (dom.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[id]
	if !ok {
		return dom.Todo{}, ErrNotFound
	}
	t.Completed = !t.Completed
	t.Touch()
	s.todos[id] = t
	return t, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.todos[id]; !ok {
		return ErrNotFound
	}
	delete(s.todos, id)
	return nil
}

func (s *MemoryStore) ClearCompleted(ctx context.Context) ([]dom.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.todos {
		if t.Completed {
			delete(s.todos, id)
		}
	}
	return s.snapshot(), nil
}

func (s *MemoryStore) ReplaceAll(ctx context.Context, todos []dom.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[string]dom.Todo, len(todos))
	for _, t := range todos {
		next[t.ID] = t
	}
	s.todos = next
	return nil
}

func (s *MemoryStore) ApplyRemote(ctx context.Context, todos []dom.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range todos {
		existing, ok := s.todos[t.ID]
		if ok && !t.UpdatedAt.After(existing.UpdatedAt) {
			continue
		}
		s.todos[t.ID] = t
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// snapshot returns the todos newest-created-first. Callers hold the lock.
func (s *MemoryStore) snapshot() []dom.Todo {
	list := make([]dom.Todo, 0, len(s.todos))
	for _, t := range s.todos {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list
}
