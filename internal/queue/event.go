// Package queue defines the todo change events exchanged over the message
// broker and the consumer that records them.
package queue

import (
	"time"

	"github.com/iliyamo/todo-api/internal/model"
)

// Event types carried in TodoEvent.Type.
const (
	TodoCreated = "todo.created"
	TodoUpdated = "todo.updated"
	TodoDeleted = "todo.deleted"
)

// TodoEvent is published after a successful create, update or delete.
// Todo is nil for deletions; ID is always set.
type TodoEvent struct {
	Type       string      `json:"type"`
	ID         uint64      `json:"id"`
	Todo       *model.Todo `json:"todo,omitempty"`
	OccurredAt string      `json:"occurred_at"`
}

// NewTodoEvent stamps an event with the current UTC time.
func NewTodoEvent(typ string, id uint64, todo *model.Todo) TodoEvent {
	return TodoEvent{
		Type:       typ,
		ID:         id,
		Todo:       todo,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}
