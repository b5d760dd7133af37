package queue

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iliyamo/todo-api/internal/model"
)

func TestFormatEvent(t *testing.T) {
	id := uint64(3)
	tests := []struct {
		name string
		ev   TodoEvent
		want string
	}{
		{
			name: "created",
			ev: TodoEvent{Type: TodoCreated, ID: id, OccurredAt: "2026-01-02T03:04:05Z",
				Todo: &model.Todo{ID: &id, Name: "Buy milk", Ordering: 1}},
			want: "[2026-01-02T03:04:05Z] todo.created | id=3 | name=\"Buy milk\" | ordering=1 | checked=false\n",
		},
		{
			name: "deleted",
			ev:   TodoEvent{Type: TodoDeleted, ID: id, OccurredAt: "2026-01-02T03:04:05Z"},
			want: "[2026-01-02T03:04:05Z] todo.deleted | id=3\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatEvent(tt.ev); got != tt.want {
				t.Errorf("formatEvent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHandleMessageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "events.log")

	for _, body := range []string{
		`{"type":"todo.created","id":1,"todo":{"id":1,"name":"a","ordering":0,"checked":false},"occurred_at":"t1"}`,
		`{"type":"todo.deleted","id":1,"occurred_at":"t2"}`,
	} {
		if err := handleMessage(path, []byte(body)); err != nil {
			t.Fatalf("handleMessage: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), data)
	}
	if !strings.Contains(lines[0], "todo.created") || !strings.Contains(lines[1], "todo.deleted") {
		t.Errorf("lines = %q", lines)
	}
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	if err := handleMessage(path, []byte("not json")); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("log file should not be created for a bad message")
	}
}

func TestNewTodoEvent(t *testing.T) {
	ev := NewTodoEvent(TodoUpdated, 9, nil)
	if ev.Type != TodoUpdated || ev.ID != 9 || ev.OccurredAt == "" {
		t.Errorf("ev = %+v", ev)
	}
}
