package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Priority is the three-valued urgency of a todo, serialized as its
// lowercase token. Unknown tokens are rejected on decode.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority returns the Priority for s, or an error for unknown tokens.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

func (p Priority) Valid() bool {
	_, err := ParsePriority(string(p))
	return err == nil
}

func (p Priority) String() string { return string(p) }

func (p *Priority) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParsePriority(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Todo is the single persisted entity. UserID is set only on the server
// side, where records are scoped per user; the local store leaves it empty.
type Todo struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Completed   bool
	Priority    Priority
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DueDate     *time.Time
}

// NewTodo builds a todo with a fresh UUID and created_at == updated_at.
// An empty priority defaults to medium.
func NewTodo(userID, title, description string, priority Priority, dueDate *time.Time) Todo {
	if priority == "" {
		priority = PriorityMedium
	}
	now := time.Now().UTC()
	return Todo{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Completed:   false,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
		DueDate:     dueDate,
	}
}

// Touch advances UpdatedAt. The new value is strictly later than the old
// one even when the wall clock has coarse resolution, so updated_at stays
// usable as a last-writer-wins signal.
func (t *Todo) Touch() {
	now := time.Now().UTC()
	if !now.After(t.UpdatedAt) {
		now = t.UpdatedAt.Add(time.Microsecond)
	}
	t.UpdatedAt = now
}
