package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/iliyamo/todo-api/internal/config"
)

// Pool is the bounded set of database connections shared by every handler.
// It is safe for concurrent use; pass the same *Pool everywhere.
type Pool struct {
	*sqlx.DB
	dialect        dialect
	acquireTimeout time.Duration
}

// Open connects to the configured database, sizes the pool and verifies
// the connection with a ping.
func Open(cfg config.DBConfig) (*Pool, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	dsn, err := dataSourceName(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	// Pool settings
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	if d.singleWriter {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	pingTimeout := cfg.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	acquire := cfg.AcquireTimeout
	if acquire <= 0 {
		acquire = 5 * time.Second
	}
	return &Pool{DB: db, dialect: d, acquireTimeout: acquire}, nil
}

// Acquire checks a connection out of the pool, waiting at most the
// configured acquire timeout.  The caller must Close the connection to
// hand it back.  Failures are reported as a KindPool *Error.
func (p *Pool) Acquire(ctx context.Context) (*sqlx.Conn, error) {
	actx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()
	conn, err := p.Connx(actx)
	if err != nil {
		return nil, &Error{Kind: KindPool, Op: "acquire", Err: err}
	}
	return conn, nil
}

// ReturnsInsertID reports whether INSERT ... RETURNING id is available.
func (p *Pool) ReturnsInsertID() bool {
	return p.dialect.returning
}

// dataSourceName renders the driver specific connection string.
func dataSourceName(cfg config.DBConfig) (string, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Pass
		mc.Net = "tcp"
		mc.Addr = cfg.Host + ":" + cfg.Port
		mc.DBName = cfg.Name
		mc.ParseTime = true
		mc.Loc = time.UTC
		// RowsAffected counts matched rows, so rewriting a todo with its
		// current values is not mistaken for a missing one.
		mc.ClientFoundRows = true
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return mc.FormatDSN(), nil
	case config.DriverPostgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.User, cfg.Pass),
			Host:     cfg.Host + ":" + cfg.Port,
			Path:     "/" + cfg.Name,
			RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
		}
		if cfg.Pass == "" {
			u.User = url.User(cfg.User)
		}
		return u.String(), nil
	case config.DriverSQLite:
		if cfg.Path == "" {
			return "", fmt.Errorf("sqlite: empty database path")
		}
		q := url.Values{}
		q.Add("_pragma", "journal_mode(WAL)")
		q.Add("_pragma", "busy_timeout(5000)")
		q.Add("_pragma", "foreign_keys(ON)")
		return "file:" + cfg.Path + "?" + q.Encode(), nil
	}
	return "", fmt.Errorf("unsupported DB driver %q: must be mysql, postgres or sqlite", cfg.Driver)
}
