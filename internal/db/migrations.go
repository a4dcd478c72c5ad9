package db

import (
	"context"
	"database/sql"
	"fmt"
)

type migration struct {
	name string
	sql  string
}

// migrations are applied in order, each exactly once. Append new migrations at
// the end; never edit one that has shipped.
var migrations = []migration{
	{
		name: "reference data and users",
		sql: `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'storekeeper', 'user')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS marathons (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_marathons_name_active
    ON marathons(name) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS stations (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_stations_name_active
    ON stations(name) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS equipment (
    id                 INTEGER PRIMARY KEY,
    name               TEXT NOT NULL,
    available_quantity INTEGER NOT NULL DEFAULT 0 CHECK (available_quantity >= 0),
    created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at         DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_equipment_name_active
    ON equipment(name) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS persons (
    id   INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`,
	},
	{
		name: "station ledger",
		sql: `
CREATE TABLE IF NOT EXISTS issue_records (
    id           INTEGER PRIMARY KEY,
    marathon_id  INTEGER REFERENCES marathons(id),
    station_id   INTEGER REFERENCES stations(id),
    equipment_id INTEGER NOT NULL REFERENCES equipment(id),
    person_name  TEXT NOT NULL DEFAULT '',
    quantity     INTEGER NOT NULL CHECK (quantity > 0),
    recorded_at  DATETIME,
    created_by   INTEGER REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_issue_records_marathon ON issue_records(marathon_id);

CREATE TABLE IF NOT EXISTS return_records (
    id           INTEGER PRIMARY KEY,
    marathon_id  INTEGER REFERENCES marathons(id),
    station_id   INTEGER REFERENCES stations(id),
    equipment_id INTEGER NOT NULL REFERENCES equipment(id),
    person_name  TEXT NOT NULL DEFAULT '',
    quantity     INTEGER NOT NULL CHECK (quantity > 0),
    recorded_at  DATETIME,
    created_by   INTEGER REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_return_records_marathon ON return_records(marathon_id);
`,
	},
	{
		name: "store ledger",
		sql: `
CREATE TABLE IF NOT EXISTS store_issue_records (
    id           INTEGER PRIMARY KEY,
    marathon_id  INTEGER REFERENCES marathons(id),
    equipment_id INTEGER NOT NULL REFERENCES equipment(id),
    person_name  TEXT NOT NULL DEFAULT '',
    quantity     INTEGER NOT NULL CHECK (quantity > 0),
    recorded_at  DATETIME,
    created_by   INTEGER REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_store_issue_records_marathon ON store_issue_records(marathon_id);

CREATE TABLE IF NOT EXISTS store_return_records (
    id           INTEGER PRIMARY KEY,
    marathon_id  INTEGER REFERENCES marathons(id),
    equipment_id INTEGER NOT NULL REFERENCES equipment(id),
    person_name  TEXT NOT NULL DEFAULT '',
    quantity     INTEGER NOT NULL CHECK (quantity > 0),
    recorded_at  DATETIME,
    created_by   INTEGER REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_store_return_records_marathon ON store_return_records(marathon_id);
`,
	},
	{
		name: "marathon assignments",
		sql: `
CREATE TABLE IF NOT EXISTS user_marathons (
    user_id     INTEGER NOT NULL REFERENCES users(id),
    marathon_id INTEGER NOT NULL REFERENCES marathons(id),
    PRIMARY KEY (user_id, marathon_id)
);
`,
	},
	{
		name: "equipment photos",
		sql: `
ALTER TABLE equipment ADD COLUMN image BLOB;
ALTER TABLE equipment ADD COLUMN image_mime TEXT;
`,
	},
}

const versionTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Migrate applies all pending migrations and returns how many were applied.
func Migrate(ctx context.Context, conn *sql.DB) (int, error) {
	current, err := SchemaVersion(ctx, conn)
	if err != nil {
		return 0, err
	}

	applied := 0
	for i := current; i < len(migrations); i++ {
		m := migrations[i]
		version := i + 1
		err := RunInTx(ctx, conn, func(tx DBTX) error {
			if _, err := tx.ExecContext(ctx, m.sql); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`,
				version, m.name,
			)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("running migration %d (%s): %w", version, m.name, err)
		}
		applied++
	}

	return applied, nil
}

// SchemaVersion returns the number of migrations applied to the database.
func SchemaVersion(ctx context.Context, conn DBTX) (int, error) {
	if _, err := conn.ExecContext(ctx, versionTable); err != nil {
		return 0, fmt.Errorf("creating migrations table: %w", err)
	}

	var version int
	err := conn.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// PendingMigrations returns how many migrations have not been applied yet.
func PendingMigrations(ctx context.Context, conn DBTX) (int, error) {
	version, err := SchemaVersion(ctx, conn)
	if err != nil {
		return 0, err
	}
	if version > len(migrations) {
		return 0, fmt.Errorf("database schema version %d is newer than this binary (%d)", version, len(migrations))
	}
	return len(migrations) - version, nil
}
