package syncer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	dom "todosync/internal/domain"
	"todosync/internal/dto"
	"todosync/internal/local"
)

// fakeServer mimics the sync endpoint: last-writer-wins merge keyed on
// updated_at, response filtered by last_sync.
type fakeServer struct {
	todos map[string]dom.Todo
}

func newFakeServer() *fakeServer {
	return &fakeServer{todos: make(map[string]dom.Todo)}
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /api/users/{uid}/sync", func(w http.ResponseWriter, r *http.Request) {
		var req dto.SyncRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, c := range dto.ToDomainList(req.Todos) {
			s, ok := f.todos[c.ID]
			if !ok || c.UpdatedAt.After(s.UpdatedAt) {
				f.todos[c.ID] = c
			}
		}
		var since time.Time
		if req.LastSync != nil {
			since = *req.LastSync
		}
		var out []dom.Todo
		for _, t := range f.todos {
			if t.UpdatedAt.After(since) {
				out = append(out, t)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
		json.NewEncoder(w).Encode(dto.SyncResponse{
			Todos:    dto.FromDomainList(out),
			SyncTime: time.Now().UTC(),
		})
	})
	return mux
}

func newTestClient(t *testing.T, fs *fakeServer) (*Client, *local.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(fs.handler())
	t.Cleanup(srv.Close)
	store := local.NewMemoryStore()
	return New(store, srv.URL, "u1", nil), store
}

func TestHealth(t *testing.T) {
	c, _ := newTestClient(t, newFakeServer())
	if !c.Health(context.Background()) {
		t.Error("health check against a live server must pass")
	}

	down := New(local.NewMemoryStore(), "http://127.0.0.1:1", "u1", nil)
	if down.Health(context.Background()) {
		t.Error("health check against a dead server must fail")
	}
}

func TestSyncOncePushesAndPulls(t *testing.T) {
	ctx := context.Background()
	fs := newFakeServer()

	remote := dom.NewTodo("", "remote todo", "", dom.PriorityHigh, nil)
	fs.todos[remote.ID] = remote

	c, store := newTestClient(t, fs)
	localTodo, err := store.Create(ctx, local.CreateParams{Title: "local todo"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	n, err := c.SyncOnce(ctx)
	if err != nil {
		t.Fatalf("sync once: %v", err)
	}
	if n != 2 {
		t.Fatalf("received %d records, want 2", n)
	}

	// The local record reached the server verbatim.
	got, ok := fs.todos[localTodo.ID]
	if !ok || !got.UpdatedAt.Equal(localTodo.UpdatedAt) {
		t.Fatalf("local todo not pushed verbatim: %+v", got)
	}
	// The remote record landed locally.
	list, _ := store.List(ctx)
	if len(list) != 2 {
		t.Fatalf("local store has %d todos, want 2", len(list))
	}

	if c.LastSync() == nil {
		t.Fatal("last_sync baseline not advanced")
	}
}

func TestSyncOnceUsesBaseline(t *testing.T) {
	ctx := context.Background()
	fs := newFakeServer()

	old := dom.NewTodo("", "already seen", "", dom.PriorityLow, nil)
	old.UpdatedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	old.CreatedAt = old.UpdatedAt
	fs.todos[old.ID] = old

	c, store := newTestClient(t, fs)
	c.SetLastSync(old.UpdatedAt) // equal to the record's updated_at: excluded

	n, err := c.SyncOnce(ctx)
	if err != nil {
		t.Fatalf("sync once: %v", err)
	}
	if n != 0 {
		t.Fatalf("received %d records, want 0 for an up-to-date client", n)
	}
	list, _ := store.List(ctx)
	if len(list) != 0 {
		t.Fatalf("local store gained records: %v", list)
	}
}

func TestFullResyncReplacesLocal(t *testing.T) {
	ctx := context.Background()
	fs := newFakeServer()

	remote := dom.NewTodo("", "authoritative", "", dom.PriorityMedium, nil)
	fs.todos[remote.ID] = remote

	c, store := newTestClient(t, fs)

	// A completed stale local todo: pushed first, then the local store is
	// replaced with the merged server state.
	stale, _ := store.Create(ctx, local.CreateParams{Title: "stale"})
	if err := c.FullResync(ctx); err != nil {
		t.Fatalf("full resync: %v", err)
	}

	list, _ := store.List(ctx)
	if len(list) != 2 {
		t.Fatalf("local store has %d todos, want 2 (pushed + remote)", len(list))
	}
	if _, ok := fs.todos[stale.ID]; !ok {
		t.Error("local record must be pushed before replacing")
	}
	if c.LastSync() == nil {
		t.Error("last_sync baseline not set")
	}
}

func TestSyncOnceServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"success":false,"error":"internal error"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(local.NewMemoryStore(), srv.URL, "u1", nil)
	before := c.LastSync()
	if _, err := c.SyncOnce(context.Background()); err == nil {
		t.Fatal("server 500 must surface as an error")
	}
	if c.LastSync() != before {
		t.Error("failed sync must not advance the baseline")
	}
}
