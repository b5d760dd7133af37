package router

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/todo-api/internal/handler"
)

// New builds the Echo instance: error mapper, recovery, request ids and
// request logging, then any extra middleware (such as the rate limiter),
// then the routes.
func New(logger *slog.Logger, pool handler.ConnAcquirer, todos *handler.TodoHandler, extra ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorMapper(logger)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger(logger))
	e.Use(extra...)

	RegisterRoutes(e, pool, todos)
	return e
}

// RegisterRoutes binds the health check and the todo resource.
func RegisterRoutes(e *echo.Echo, pool handler.ConnAcquirer, todos *handler.TodoHandler) {
	e.GET("/health", handler.Health(pool))

	e.GET("/todo", todos.List)
	e.POST("/todo", todos.Create)
	e.PUT("/todo/:id", todos.Update)
	e.DELETE("/todo/:id", todos.Delete)
}

// requestLogger writes one slog line per request once the error mapper has
// settled the status.
func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= 500 {
				level = slog.LevelError
			}
			logger.LogAttrs(context.Background(), level, "request",
				slog.String("id", v.RequestID),
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	})
}
