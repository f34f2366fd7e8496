package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"todosync/internal/domain"
)

// DueDate parses due_date from JSON as either date-only ("2006-01-02") or
// RFC3339. Date-only is stored as start of that day in UTC.
type DueDate struct{ t *time.Time }

func (d *DueDate) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		d.t = nil
		return nil
	}
	s := strings.TrimSpace(*raw)
	layouts := []string{
		"2006-01-02", // date only
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			if layout == "2006-01-02" {
				parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
			}
			d.t = &parsed
			return nil
		}
	}
	return fmt.Errorf("due_date: use date (YYYY-MM-DD) or RFC3339 datetime")
}

// Ptr returns *time.Time for use in service/domain.
func (d DueDate) Ptr() *time.Time { return d.t }

// Todo is the wire shape shared by CRUD responses and the sync protocol.
// Timestamps serialize as RFC3339 UTC.
type Todo struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Completed   bool            `json:"completed"`
	Priority    domain.Priority `json:"priority"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
}

// FromDomain converts a domain todo to its wire shape.
func FromDomain(t domain.Todo) Todo {
	return Todo{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Priority:    t.Priority,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		DueDate:     t.DueDate,
	}
}

// FromDomainList converts a slice of domain todos to wire shapes.
// Always returns a non-nil slice so empty lists encode as [].
func FromDomainList(list []domain.Todo) []Todo {
	out := make([]Todo, len(list))
	for i := range list {
		out[i] = FromDomain(list[i])
	}
	return out
}

// ToDomain converts a wire todo back to the domain entity. An absent
// priority defaults to medium, so a sync batch never stores an empty one.
func (t Todo) ToDomain() domain.Todo {
	priority := t.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	return domain.Todo{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Priority:    priority,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		DueDate:     t.DueDate,
	}
}

func ToDomainList(list []Todo) []domain.Todo {
	out := make([]domain.Todo, len(list))
	for i := range list {
		out[i] = list[i].ToDomain()
	}
	return out
}

type CreateTodoRequest struct {
	Title       string           `json:"title" binding:"required,min=1,max=120"`
	Description string           `json:"description" binding:"max=1000"`
	Priority    *domain.Priority `json:"priority"` // optional, defaults to medium
	DueDate     DueDate          `json:"due_date"` // optional: "2026-02-19" or RFC3339
}

// UpdateTodoRequest is a sparse patch: nil means leave unchanged.
// Explicit null is not distinguished from absence, so an optional field can
// be replaced but never cleared.
type UpdateTodoRequest struct {
	Title       *string          `json:"title" binding:"omitempty,min=1,max=120"`
	Description *string          `json:"description" binding:"omitempty,max=1000"`
	Completed   *bool            `json:"completed"`
	Priority    *domain.Priority `json:"priority"`
	DueDate     *DueDate         `json:"due_date"`
}

type SyncRequest struct {
	LastSync *time.Time `json:"last_sync"`
	Todos    []Todo     `json:"todos"`
}

type SyncResponse struct {
	Todos    []Todo    `json:"todos"`
	SyncTime time.Time `json:"sync_time"`
}

// ApiResponse is the envelope for non-sync endpoints.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Success wraps data in a successful envelope.
func Success(data any) ApiResponse {
	return ApiResponse{Success: true, Data: data}
}

// Failure wraps an operator-safe message in a failed envelope.
func Failure(msg string) ApiResponse {
	return ApiResponse{Success: false, Error: msg}
}
