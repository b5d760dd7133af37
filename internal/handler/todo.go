package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/todo-api/internal/model"
	"github.com/iliyamo/todo-api/internal/queue"
)

// TodoStore is the data access the todo handlers need.  *repository.TodoRepo
// implements it.
type TodoStore interface {
	List(ctx context.Context) ([]model.Todo, error)
	Create(ctx context.Context, t model.Todo) (model.Todo, error)
	Update(ctx context.Context, id uint64, t model.Todo) (model.Todo, error)
	Delete(ctx context.Context, id uint64) error
}

// EventPublisher receives a TodoEvent after every successful write.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.TodoEvent) error
}

// TodoHandler serves the /todo routes.
type TodoHandler struct {
	Store  TodoStore
	Events EventPublisher
	Logger *slog.Logger
}

// NewTodoHandler constructs a TodoHandler and panics if store is nil.  A nil
// publisher drops events; a nil logger uses slog.Default.
func NewTodoHandler(store TodoStore, events EventPublisher, logger *slog.Logger) *TodoHandler {
	if store == nil {
		panic("nil store passed to NewTodoHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TodoHandler{Store: store, Events: events, Logger: logger}
}

// List handles GET /todo.
func (h *TodoHandler) List(c echo.Context) error {
	todos, err := h.Store.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, todos)
}

// Create handles POST /todo.  The created todo, id included, is returned
// with 200 OK.
func (h *TodoHandler) Create(c echo.Context) error {
	in, err := bindTodo(c)
	if err != nil {
		return err
	}
	created, err := h.Store.Create(c.Request().Context(), in.Todo())
	if err != nil {
		return err
	}
	h.publish(c, queue.TodoCreated, *created.ID, &created)
	return c.JSON(http.StatusOK, created)
}

// Update handles PUT /todo/:id and overwrites every mutable field.
func (h *TodoHandler) Update(c echo.Context) error {
	id, err := todoID(c)
	if err != nil {
		return err
	}
	in, err := bindTodo(c)
	if err != nil {
		return err
	}
	updated, err := h.Store.Update(c.Request().Context(), id, in.Todo())
	if err != nil {
		return err
	}
	h.publish(c, queue.TodoUpdated, id, &updated)
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /todo/:id and answers 200 with an empty body.
func (h *TodoHandler) Delete(c echo.Context) error {
	id, err := todoID(c)
	if err != nil {
		return err
	}
	if err := h.Store.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	h.publish(c, queue.TodoDeleted, id, nil)
	return c.NoContent(http.StatusOK)
}

// todoID parses the :id path segment.  Anything that is not an unsigned
// integer does not address a todo, so it is reported as route not found.
func todoID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.ErrNotFound
	}
	return id, nil
}

// bindTodo decodes the whole request body as exactly one JSON object and
// requires name, ordering and checked.  Trailing data after the object is
// rejected.
func bindTodo(c echo.Context) (model.TodoInput, error) {
	var in model.TodoInput
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return in, fmt.Errorf("%w: read: %v", ErrInvalidBody, err)
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return in, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if !in.Complete() {
		return in, fmt.Errorf("%w: name, ordering and checked are required", ErrInvalidBody)
	}
	if *in.Ordering > model.MaxOrdering {
		return in, fmt.Errorf("%w: ordering %d exceeds %d", ErrInvalidBody, *in.Ordering, uint64(model.MaxOrdering))
	}
	return in, nil
}

func (h *TodoHandler) publish(c echo.Context, typ string, id uint64, t *model.Todo) {
	if h.Events == nil {
		return
	}
	if err := h.Events.Publish(c.Request().Context(), queue.NewTodoEvent(typ, id, t)); err != nil {
		h.Logger.Warn("publish todo event failed", "type", typ, "id", id, "err", err)
	}
}
