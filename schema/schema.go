package schema

import (
	"fmt"

	"github.com/wishwell/wishwell/dialect"
)

// Build returns the full DDL script for the given dialect: the four tables
// plus their indexes. The script is idempotent and applied once at startup by
// Connection.InitializeDatabase.
//
// The "exactly one identity kind per support row" invariant is encoded at the
// storage layer where the engine allows it: Postgres and SQLite get partial
// unique indexes filtered on the identity column being present; MySQL has no
// partial indexes, so it carries plain composite unique keys (multiple NULLs
// are permitted in MySQL unique keys, which gives the same effect) backed by
// the application-level uniqueness check.
func Build(d dialect.Dialect) (string, error) {
	switch d.Name() {
	case "postgres":
		return postgresDDL, nil
	case "mysql":
		return mysqlDDL, nil
	case "sqlite":
		return sqliteDDL, nil
	}
	return "", fmt.Errorf("schema: no DDL for dialect %q", d.Name())
}

const postgresDDL = `CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    google_id TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    email TEXT,
    picture TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS wishes (
    id TEXT PRIMARY KEY,
    name TEXT,
    wish TEXT NOT NULL,
    user_id BIGINT REFERENCES users (id) ON DELETE SET NULL,
    support_count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS sessions (
    session_id TEXT PRIMARY KEY,
    wish_id TEXT NOT NULL REFERENCES wishes (id) ON DELETE CASCADE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS supports (
    id BIGSERIAL PRIMARY KEY,
    wish_id TEXT NOT NULL REFERENCES wishes (id) ON DELETE CASCADE,
    session_id TEXT,
    user_id BIGINT REFERENCES users (id) ON DELETE SET NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Page ordering for the latest-wishes query.
CREATE INDEX IF NOT EXISTS idx_wishes_created_at ON wishes (created_at DESC, id);

-- One support per (wish, session) and per (wish, user). The filter keeps the
-- other identity kind's NULLs out of the index.
CREATE UNIQUE INDEX IF NOT EXISTS idx_supports_session ON supports (wish_id, session_id) WHERE session_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS idx_supports_user ON supports (wish_id, user_id) WHERE user_id IS NOT NULL;

-- Batch supporter resolution: WHERE wish_id IN (...).
CREATE INDEX IF NOT EXISTS idx_supports_wish ON supports (wish_id);

CREATE INDEX IF NOT EXISTS idx_sessions_wish ON sessions (wish_id)`

const sqliteDDL = `CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    google_id TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    email TEXT,
    picture TEXT,
    created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS wishes (
    id TEXT PRIMARY KEY,
    name TEXT,
    wish TEXT NOT NULL,
    user_id INTEGER REFERENCES users (id) ON DELETE SET NULL,
    support_count INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sessions (
    session_id TEXT PRIMARY KEY,
    wish_id TEXT NOT NULL REFERENCES wishes (id) ON DELETE CASCADE,
    created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS supports (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    wish_id TEXT NOT NULL REFERENCES wishes (id) ON DELETE CASCADE,
    session_id TEXT,
    user_id INTEGER REFERENCES users (id) ON DELETE SET NULL,
    created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_wishes_created_at ON wishes (created_at DESC, id);

-- SQLite supports partial indexes, same shape as Postgres.
CREATE UNIQUE INDEX IF NOT EXISTS idx_supports_session ON supports (wish_id, session_id) WHERE session_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS idx_supports_user ON supports (wish_id, user_id) WHERE user_id IS NOT NULL;

CREATE INDEX IF NOT EXISTS idx_supports_wish ON supports (wish_id);

CREATE INDEX IF NOT EXISTS idx_sessions_wish ON sessions (wish_id)`

const mysqlDDL = `CREATE TABLE IF NOT EXISTS users (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    google_id VARCHAR(64) NOT NULL UNIQUE,
    display_name VARCHAR(255) NOT NULL,
    email VARCHAR(255),
    picture VARCHAR(1024),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS wishes (
    id VARCHAR(26) PRIMARY KEY,
    name VARCHAR(64),
    wish VARCHAR(240) NOT NULL,
    user_id BIGINT,
    support_count INT NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    KEY idx_wishes_created_at (created_at DESC, id),
    CONSTRAINT fk_wishes_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    session_id VARCHAR(64) PRIMARY KEY,
    wish_id VARCHAR(26) NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    KEY idx_sessions_wish (wish_id),
    CONSTRAINT fk_sessions_wish FOREIGN KEY (wish_id) REFERENCES wishes (id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS supports (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    wish_id VARCHAR(26) NOT NULL,
    session_id VARCHAR(64),
    user_id BIGINT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE KEY idx_supports_session (wish_id, session_id),
    UNIQUE KEY idx_supports_user (wish_id, user_id),
    KEY idx_supports_wish (wish_id),
    CONSTRAINT fk_supports_wish FOREIGN KEY (wish_id) REFERENCES wishes (id) ON DELETE CASCADE,
    CONSTRAINT fk_supports_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE SET NULL
)`
