package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens the local archive DB and ensures the schema exists. sqlite is
// the offline default; postgres serves hosted deployments.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite"
		if dsn == "" {
			dsn = "file:mathlms.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx"
		if dsn == "" {
			dsn = "postgres://localhost:5432/mathlms?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	h, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := h.PingContext(ctx); err != nil {
		return nil, err
	}
	if err := ensureSchema(ctx, h, driver); err != nil {
		return nil, err
	}
	return h, nil
}

func ensureSchema(ctx context.Context, h *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := h.ExecContext(ctx, schema)
	return err
}

// attempt_archive shadows the system of record: every completed attempt lands
// here whether or not the remote submission was confirmed. No retry queue;
// remote_confirmed=0 rows are the audit trail of fire-and-forget divergence.
const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS attempt_archive (
  id TEXT PRIMARY KEY,
  user_email TEXT NOT NULL,
  grade INTEGER NOT NULL,
  topic TEXT NOT NULL,
  level INTEGER NOT NULL,
  score INTEGER NOT NULL,
  total INTEGER NOT NULL,
  answers_json TEXT NOT NULL,
  elapsed_sec INTEGER NOT NULL,
  reason TEXT NOT NULL,
  tab_switches INTEGER NOT NULL DEFAULT 0,
  started_at INTEGER NOT NULL,
  ended_at INTEGER NOT NULL,
  remote_confirmed INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_attempt_archive_user
  ON attempt_archive (user_email, ended_at);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS attempt_archive (
  id TEXT PRIMARY KEY,
  user_email TEXT NOT NULL,
  grade INTEGER NOT NULL,
  topic TEXT NOT NULL,
  level INTEGER NOT NULL,
  score INTEGER NOT NULL,
  total INTEGER NOT NULL,
  answers_json TEXT NOT NULL,
  elapsed_sec INTEGER NOT NULL,
  reason TEXT NOT NULL,
  tab_switches INTEGER NOT NULL DEFAULT 0,
  started_at BIGINT NOT NULL,
  ended_at BIGINT NOT NULL,
  remote_confirmed BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_attempt_archive_user
  ON attempt_archive (user_email, ended_at);
`
