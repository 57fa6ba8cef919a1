package database

import (
	"database/sql"
	"fmt"
)

// EnsureSchema creates the tables if they do not exist. Safe to call on
// every start, including right after an external reset wiped the database.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'user',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS contestants (
    id BIGINT PRIMARY KEY,
    name TEXT NOT NULL,
    category TEXT NOT NULL,
    photo TEXT NOT NULL DEFAULT 'default.png',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- The composite primary key is the one-vote-per-user-per-contestant
-- invariant; concurrent duplicate inserts race on it, not in Go code.
CREATE TABLE IF NOT EXISTS votes (
    user_id TEXT NOT NULL,
    contestant_id BIGINT NOT NULL,
    cast_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, contestant_id)
);

CREATE INDEX IF NOT EXISTS idx_votes_user ON votes(user_id);
`
