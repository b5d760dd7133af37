package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/todo-api/internal/database"
	"github.com/iliyamo/todo-api/internal/model"
)

// TodoRepo encapsulates all queries against the todo table.  Every method
// checks out its own connection and returns it before returning.
type TodoRepo struct {
	pool *database.Pool
}

// NewTodoRepo constructs a TodoRepo on top of the shared pool.
func NewTodoRepo(pool *database.Pool) *TodoRepo {
	return &TodoRepo{pool: pool}
}

// List returns every todo ordered by ordering, then id.  An empty table
// yields an empty, non-nil slice.
func (r *TodoRepo) List(ctx context.Context) ([]model.Todo, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	const q = `SELECT id, name, ordering, checked FROM todo ORDER BY ordering ASC, id ASC`
	out := []model.Todo{}
	if err := conn.SelectContext(ctx, &out, q); err != nil {
		return nil, queryError("fetch_todos", err)
	}
	return out, nil
}

// Create inserts a todo and returns it with the id assigned by the
// database.  Any id already set on t is ignored.
func (r *TodoRepo) Create(ctx context.Context, t model.Todo) (model.Todo, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return model.Todo{}, err
	}
	defer conn.Close()

	id, err := r.insert(ctx, conn, t)
	if err != nil {
		return model.Todo{}, queryError("create_todo", err)
	}
	t.ID = &id
	return t, nil
}

func (r *TodoRepo) insert(ctx context.Context, conn *sqlx.Conn, t model.Todo) (uint64, error) {
	const q = `INSERT INTO todo (name, ordering, checked) VALUES (?, ?, ?)`
	if r.pool.ReturnsInsertID() {
		var id uint64
		err := conn.QueryRowxContext(ctx, conn.Rebind(q+` RETURNING id`), t.Name, t.Ordering, t.Checked).Scan(&id)
		return id, err
	}
	res, err := conn.ExecContext(ctx, conn.Rebind(q), t.Name, t.Ordering, t.Checked)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update overwrites name, ordering and checked of the todo with the given
// id.  It returns ErrTodoNotFound when no row matched.
func (r *TodoRepo) Update(ctx context.Context, id uint64, t model.Todo) (model.Todo, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return model.Todo{}, err
	}
	defer conn.Close()

	const q = `UPDATE todo SET name = ?, ordering = ?, checked = ? WHERE id = ?`
	res, err := conn.ExecContext(ctx, conn.Rebind(q), t.Name, t.Ordering, t.Checked, id)
	if err != nil {
		return model.Todo{}, queryError("update_todo", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Todo{}, queryError("update_todo", err)
	}
	if n == 0 {
		return model.Todo{}, ErrTodoNotFound
	}
	t.ID = &id
	return t, nil
}

// Delete removes the todo with the given id.  It returns ErrTodoNotFound
// when no row matched.
func (r *TodoRepo) Delete(ctx context.Context, id uint64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	const q = `DELETE FROM todo WHERE id = ?`
	res, err := conn.ExecContext(ctx, conn.Rebind(q), id)
	if err != nil {
		return queryError("delete_todo", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return queryError("delete_todo", err)
	}
	if n == 0 {
		return ErrTodoNotFound
	}
	return nil
}

func queryError(op string, err error) error {
	return &database.Error{Kind: database.KindQuery, Op: op, Err: err}
}
