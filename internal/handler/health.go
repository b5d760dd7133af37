package handler

import (
	"context"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
)

// ConnAcquirer hands out pooled connections.  *database.Pool implements it.
type ConnAcquirer interface {
	Acquire(ctx context.Context) (*sqlx.Conn, error)
}

// Health is used by load balancers and monitoring systems to verify that
// the service can still reach the database.  It checks a connection out of
// the pool, returns it and answers 200 "ok".  When no connection can be
// acquired the error mapper answers 500.
func Health(pool ConnAcquirer) echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := pool.Acquire(c.Request().Context())
		if err != nil {
			return err
		}
		_ = conn.Close()
		return c.String(http.StatusOK, "ok")
	}
}
