package local

import (
	"context"
	"errors"
	"testing"
	"time"

	dom "todosync/internal/domain"
)

// runStoreSuite exercises the Store contract shared by both backends.
func runStoreSuite(t *testing.T, open func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("CreateThenList", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		created, err := s.Create(ctx, CreateParams{Title: "Buy milk"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if created.Priority != dom.PriorityMedium {
			t.Errorf("priority = %q, want medium", created.Priority)
		}
		if created.Completed {
			t.Error("new todo must not be completed")
		}
		if !created.CreatedAt.Equal(created.UpdatedAt) {
			t.Error("created_at must equal updated_at on creation")
		}

		list, err := s.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 1 || list[0].ID != created.ID {
			t.Fatalf("list = %v, want exactly the created todo", list)
		}
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		first, _ := s.Create(ctx, CreateParams{Title: "first"})
		time.Sleep(2 * time.Millisecond)
		second, _ := s.Create(ctx, CreateParams{Title: "second"})

		list, err := s.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
			t.Fatalf("list order wrong: %v", list)
		}
	})

	t.Run("EmptyPatchBumpsUpdatedAt", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		created, _ := s.Create(ctx, CreateParams{Title: "t", Description: "d", Priority: dom.PriorityHigh})

		updated, err := s.Update(ctx, created.ID, Patch{})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if !updated.UpdatedAt.After(created.UpdatedAt) {
			t.Error("empty patch must still advance updated_at")
		}
		if updated.Title != created.Title || updated.Description != created.Description ||
			updated.Priority != created.Priority || updated.Completed != created.Completed {
			t.Error("empty patch must leave all other fields identical")
		}
	})

	t.Run("SparsePatch", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		created, _ := s.Create(ctx, CreateParams{Title: "old", Description: "keep"})

		title := "new"
		done := true
		updated, err := s.Update(ctx, created.ID, Patch{Title: &title, Completed: &done})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.Title != "new" || !updated.Completed {
			t.Errorf("patched fields not applied: %+v", updated)
		}
		if updated.Description != "keep" {
			t.Error("absent field was changed")
		}
	})

	t.Run("RejectsEmptyTitle", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		if _, err := s.Create(ctx, CreateParams{Title: "   "}); !errors.Is(err, ErrEmptyTitle) {
			t.Errorf("create with whitespace title: err = %v, want ErrEmptyTitle", err)
		}
		if list, _ := s.List(ctx); len(list) != 0 {
			t.Errorf("rejected create still stored a todo: %v", list)
		}

		created, _ := s.Create(ctx, CreateParams{Title: "keep"})
		blank := "  "
		if _, err := s.Update(ctx, created.ID, Patch{Title: &blank}); !errors.Is(err, ErrEmptyTitle) {
			t.Errorf("update with whitespace title: err = %v, want ErrEmptyTitle", err)
		}
		got, err := s.Update(ctx, created.ID, Patch{})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got.Title != "keep" {
			t.Errorf("title = %q after rejected patch, want unchanged", got.Title)
		}
	})

	t.Run("UpdateNotFound", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		if _, err := s.Update(ctx, "missing", Patch{}); !errors.Is(err, ErrNotFound) {
			t.Errorf("update missing id: err = %v, want ErrNotFound", err)
		}
	})

	t.Run("TogglePairs", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		created, _ := s.Create(ctx, CreateParams{Title: "t"})

		once, err := s.Toggle(ctx, created.ID)
		if err != nil {
			t.Fatalf("toggle: %v", err)
		}
		if !once.Completed {
			t.Error("first toggle must complete the todo")
		}
		if !once.UpdatedAt.After(created.UpdatedAt) {
			t.Error("toggle must advance updated_at")
		}

		twice, err := s.Toggle(ctx, created.ID)
		if err != nil {
			t.Fatalf("toggle: %v", err)
		}
		if twice.Completed {
			t.Error("second toggle must restore the original state")
		}
		if !twice.UpdatedAt.After(once.UpdatedAt) {
			t.Error("second toggle must advance updated_at again")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		created, _ := s.Create(ctx, CreateParams{Title: "t"})

		if err := s.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("delete missing id: err = %v, want ErrNotFound", err)
		}
		if err := s.Delete(ctx, created.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		list, _ := s.List(ctx)
		if len(list) != 0 {
			t.Errorf("deleted todo still listed: %v", list)
		}
	})

	t.Run("ClearCompleted", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		keep, _ := s.Create(ctx, CreateParams{Title: "keep"})
		doneTodo, _ := s.Create(ctx, CreateParams{Title: "done"})
		if _, err := s.Toggle(ctx, doneTodo.ID); err != nil {
			t.Fatalf("toggle: %v", err)
		}

		remaining, err := s.ClearCompleted(ctx)
		if err != nil {
			t.Fatalf("clear: %v", err)
		}
		if len(remaining) != 1 || remaining[0].ID != keep.ID {
			t.Fatalf("remaining = %v, want only the active todo", remaining)
		}
		if !remaining[0].UpdatedAt.Equal(keep.UpdatedAt) {
			t.Error("clear_completed must not touch surviving records")
		}
	})

	t.Run("ReplaceAll", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		s.Create(ctx, CreateParams{Title: "stale"})

		fresh := dom.NewTodo("", "from server", "", dom.PriorityHigh, nil)
		if err := s.ReplaceAll(ctx, []dom.Todo{fresh}); err != nil {
			t.Fatalf("replace all: %v", err)
		}
		list, _ := s.List(ctx)
		if len(list) != 1 || list[0].ID != fresh.ID {
			t.Fatalf("list = %v, want only the replacement record", list)
		}
		if !list[0].CreatedAt.Equal(fresh.CreatedAt) || !list[0].UpdatedAt.Equal(fresh.UpdatedAt) {
			t.Error("replace_all must keep records verbatim")
		}
	})

	t.Run("ApplyRemoteLastWriterWins", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		created, _ := s.Create(ctx, CreateParams{Title: "local"})

		// Tie on updated_at keeps the local record.
		tie := created
		tie.Title = "tied remote"
		if err := s.ApplyRemote(ctx, []dom.Todo{tie}); err != nil {
			t.Fatalf("apply remote: %v", err)
		}
		list, _ := s.List(ctx)
		if list[0].Title != "local" {
			t.Error("tie must keep the local record")
		}

		// A strictly newer remote record overwrites.
		newer := created
		newer.Title = "newer remote"
		newer.UpdatedAt = created.UpdatedAt.Add(time.Second)
		if err := s.ApplyRemote(ctx, []dom.Todo{newer}); err != nil {
			t.Fatalf("apply remote: %v", err)
		}
		list, _ = s.List(ctx)
		if list[0].Title != "newer remote" {
			t.Error("strictly newer remote record must overwrite")
		}

		// Unknown ids are inserted verbatim.
		fresh := dom.NewTodo("", "brand new", "", dom.PriorityLow, nil)
		if err := s.ApplyRemote(ctx, []dom.Todo{fresh}); err != nil {
			t.Fatalf("apply remote: %v", err)
		}
		list, _ = s.List(ctx)
		if len(list) != 2 {
			t.Fatalf("expected 2 todos after insert, got %d", len(list))
		}
	})
}
