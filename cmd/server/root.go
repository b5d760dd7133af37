package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/iliyamo/todo-api/internal/config"
	"github.com/iliyamo/todo-api/internal/database"
	"github.com/iliyamo/todo-api/internal/handler"
	"github.com/iliyamo/todo-api/internal/middleware"
	"github.com/iliyamo/todo-api/internal/repository"
	"github.com/iliyamo/todo-api/internal/router"
	"github.com/iliyamo/todo-api/internal/service"
)

var envFiles []string

var rootCmd = &cobra.Command{
	Use:          "todo-server",
	Short:        "Todo HTTP API",
	Long:         "todo-server serves a JSON CRUD API for todo items stored in MySQL, PostgreSQL or SQLite.",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Create the todo table if needed and serve HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv file(s) to load before reading the environment")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initDBCmd)
	rootCmd.AddCommand(consumeCmd)
}

// setup loads the configuration and builds the logger shared by every
// subcommand.
func setup() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, newLogger(cfg), nil
}

// openDB opens the pool and creates the schema.  Both failures are fatal
// for the caller.
func openDB(ctx context.Context, cfg config.Config, logger *slog.Logger) (*database.Pool, error) {
	pool, err := database.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("database pool can not be created: %w", err)
	}
	if err := pool.InitDB(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("database can not be initialized: %w", err)
	}
	logger.Info("database ready", "driver", cfg.DB.Driver, "max_open_conns", cfg.DB.MaxOpenConns)
	return pool, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := openDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	var events handler.EventPublisher = service.NopPublisher{}
	if cfg.Events.Enabled {
		pub := service.NewEventPublisher(cfg.Events.URL, cfg.Events.Queue, service.PublisherOptions{Logger: logger})
		defer pub.Close()
		events = pub
		logger.Info("publishing todo events", "queue", cfg.Events.Queue)
	}

	var extra []echo.MiddlewareFunc
	if cfg.RateLimit.Enabled {
		rdb, err := config.NewRedisClient(ctx)
		if err != nil {
			logger.Warn("rate limiting disabled", "err", err)
		} else {
			defer rdb.Close()
			extra = append(extra, middleware.NewTokenBucket(cfg.RateLimit, redis.Scripter(rdb), logger))
		}
	}

	todos := handler.NewTodoHandler(repository.NewTodoRepo(pool), events, logger)
	e := router.New(logger, pool, todos, extra...)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr(), "env", cfg.Env)
		errCh <- e.Start(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}
