package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tin-auppati/boardgame-backend/config"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS games (
		id           VARCHAR(6) PRIMARY KEY,
		mode         VARCHAR(16) NOT NULL CHECK (mode IN ('classic3', 'gomoku')),
		status       VARCHAR(16) NOT NULL CHECK (status IN ('waiting', 'active', 'completed', 'abandoned')),
		created_at   TIMESTAMPTZ NOT NULL,
		started_at   TIMESTAMPTZ,
		finished_at  TIMESTAMPTZ,
		current_turn SMALLINT CHECK (current_turn IN (1, 2)),
		winner_id    VARCHAR(36)
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		id            VARCHAR(36) PRIMARY KEY,
		game_id       VARCHAR(6) NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		player_number SMALLINT NOT NULL CHECK (player_number IN (1, 2)),
		player_name   VARCHAR(50) NOT NULL,
		joined_at     TIMESTAMPTZ NOT NULL,
		is_ai         BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE (game_id, player_number)
	)`,
	`CREATE TABLE IF NOT EXISTS moves (
		id           BIGSERIAL PRIMARY KEY,
		game_id      VARCHAR(6) NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		player_id    VARCHAR(36) NOT NULL REFERENCES players(id) ON DELETE CASCADE,
		move_number  INTEGER NOT NULL,
		column_index SMALLINT NOT NULL,
		row_index    SMALLINT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		UNIQUE (game_id, move_number),
		UNIQUE (game_id, column_index, row_index)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id           BIGSERIAL PRIMARY KEY,
		game_id      VARCHAR(6) NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		player_id    VARCHAR(36) REFERENCES players(id) ON DELETE SET NULL,
		message_type VARCHAR(16) NOT NULL CHECK (message_type IN ('chat', 'system')),
		content      TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_game_created ON messages (game_id, created_at)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS games (
		id           TEXT PRIMARY KEY,
		mode         TEXT NOT NULL CHECK (mode IN ('classic3', 'gomoku')),
		status       TEXT NOT NULL CHECK (status IN ('waiting', 'active', 'completed', 'abandoned')),
		created_at   TIMESTAMP NOT NULL,
		started_at   TIMESTAMP,
		finished_at  TIMESTAMP,
		current_turn INTEGER CHECK (current_turn IN (1, 2)),
		winner_id    TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		id            TEXT PRIMARY KEY,
		game_id       TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		player_number INTEGER NOT NULL CHECK (player_number IN (1, 2)),
		player_name   TEXT NOT NULL,
		joined_at     TIMESTAMP NOT NULL,
		is_ai         BOOLEAN NOT NULL DEFAULT 0,
		UNIQUE (game_id, player_number)
	)`,
	`CREATE TABLE IF NOT EXISTS moves (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		game_id      TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		player_id    TEXT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
		move_number  INTEGER NOT NULL,
		column_index INTEGER NOT NULL,
		row_index    INTEGER NOT NULL,
		created_at   TIMESTAMP NOT NULL,
		UNIQUE (game_id, move_number),
		UNIQUE (game_id, column_index, row_index)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		game_id      TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		player_id    TEXT REFERENCES players(id) ON DELETE SET NULL,
		message_type TEXT NOT NULL CHECK (message_type IN ('chat', 'system')),
		content      TEXT NOT NULL,
		created_at   TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_game_created ON messages (game_id, created_at)`,
}

// Migrate creates any missing tables. It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case config.DriverPostgres:
		stmts = postgresSchema
	case config.DriverSQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("no schema for driver %q", driver)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
