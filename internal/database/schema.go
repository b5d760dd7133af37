package database

import "context"

// InitDB creates the todo table when it does not exist yet.  It is safe to
// run on every start.
func (p *Pool) InitDB(ctx context.Context) error {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, p.dialect.createTable); err != nil {
		return &Error{Kind: KindQuery, Op: "init_db", Err: err}
	}
	return nil
}
