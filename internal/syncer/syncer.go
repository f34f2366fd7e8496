// Package syncer pushes the local store to the sync server and folds the
// server's answer back in. The merge decisions live server-side; this is
// deliberately plain orchestration.
package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"todosync/internal/dto"
	"todosync/internal/local"
)

// Client talks to one sync server on behalf of one user.
type Client struct {
	store   local.Store
	baseURL string
	userID  string
	http    *http.Client
	logger  *log.Logger

	mu       sync.Mutex
	lastSync *time.Time
}

// New creates a Client. If logger is nil, a default logger writing to
// stderr is used.
func New(store local.Store, baseURL, userID string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &Client{
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
		userID:  userID,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// LastSync returns the baseline the next SyncOnce will send, or nil before
// the first successful sync.
func (c *Client) LastSync() *time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSync
}

// SetLastSync seeds the baseline, e.g. from a value persisted between runs.
func (c *Client) SetLastSync(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSync = &t
}

// Health reports whether the server answers its liveness probe.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// SyncOnce pushes the full local collection with the stored last_sync
// baseline, merges the returned records into the local store, and advances
// the baseline to the server's sync_time.
func (c *Client) SyncOnce(ctx context.Context) (int, error) {
	todos, err := c.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list local todos: %w", err)
	}

	resp, err := c.postSync(ctx, dto.SyncRequest{
		LastSync: c.LastSync(),
		Todos:    dto.FromDomainList(todos),
	})
	if err != nil {
		return 0, err
	}

	if err := c.store.ApplyRemote(ctx, dto.ToDomainList(resp.Todos)); err != nil {
		return 0, fmt.Errorf("apply remote todos: %w", err)
	}
	c.SetLastSync(resp.SyncTime)
	return len(resp.Todos), nil
}

// FullResync pushes local changes without a baseline, so the server answers
// with its entire collection, and replaces the local store with it.
func (c *Client) FullResync(ctx context.Context) error {
	todos, err := c.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list local todos: %w", err)
	}

	resp, err := c.postSync(ctx, dto.SyncRequest{Todos: dto.FromDomainList(todos)})
	if err != nil {
		return err
	}

	if err := c.store.ReplaceAll(ctx, dto.ToDomainList(resp.Todos)); err != nil {
		return fmt.Errorf("replace local todos: %w", err)
	}
	c.SetLastSync(resp.SyncTime)
	return nil
}

// Run syncs on a fixed interval until ctx is cancelled. Failures are logged
// and the loop keeps going.
func (c *Client) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n, err := c.SyncOnce(ctx)
			if err != nil {
				c.logger.Printf("sync failed: %v", err)
				continue
			}
			c.logger.Printf("sync ok, %d record(s) received", n)
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) postSync(ctx context.Context, body dto.SyncRequest) (dto.SyncResponse, error) {
	var out dto.SyncResponse

	payload, err := json.Marshal(body)
	if err != nil {
		return out, fmt.Errorf("encode sync request: %w", err)
	}
	url := fmt.Sprintf("%s/api/users/%s/sync", c.baseURL, c.userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return out, fmt.Errorf("post sync: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return out, fmt.Errorf("sync: server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode sync response: %w", err)
	}
	return out, nil
}
