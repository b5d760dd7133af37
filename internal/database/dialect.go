package database

import (
	"fmt"

	"github.com/iliyamo/todo-api/internal/config"
)

type dialect struct {
	driverName   string // name registered with database/sql
	createTable  string
	returning    bool // INSERT ... RETURNING id
	singleWriter bool
}

var dialects = map[string]dialect{
	config.DriverMySQL: {
		driverName: "mysql",
		createTable: `CREATE TABLE IF NOT EXISTS todo (
			id       BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			name     TEXT NOT NULL,
			ordering BIGINT NOT NULL DEFAULT 0,
			checked  BOOLEAN NOT NULL DEFAULT FALSE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	config.DriverPostgres: {
		driverName: "postgres",
		createTable: `CREATE TABLE IF NOT EXISTS todo (
			id       BIGSERIAL PRIMARY KEY,
			name     TEXT NOT NULL,
			ordering BIGINT NOT NULL DEFAULT 0,
			checked  BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		returning: true,
	},
	config.DriverSQLite: {
		driverName: "sqlite",
		createTable: `CREATE TABLE IF NOT EXISTS todo (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			name     TEXT NOT NULL,
			ordering BIGINT NOT NULL DEFAULT 0,
			checked  BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		returning:    true,
		singleWriter: true,
	},
}

func dialectFor(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported DB driver %q: must be mysql, postgres or sqlite", driver)
	}
	return d, nil
}
