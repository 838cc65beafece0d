package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/tin-auppati/boardgame-backend/config"
	"github.com/tin-auppati/boardgame-backend/game"
)

// SQLStore keeps games in Postgres or SQLite. Postgres serializes moves with
// SELECT ... FOR UPDATE on the game row; SQLite takes the database write lock
// at BEGIN (see config.SQLiteDSN).
type SQLStore struct {
	db      *sql.DB
	dialect string
}

func NewSQLStore(db *sql.DB, dialect string) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) WithTx(ctx context.Context, fn func(tx game.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	// no-op after a successful commit
	defer tx.Rollback()

	if err := fn(&sqlTx{tx: tx, dialect: s.dialect}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type sqlTx struct {
	tx      *sql.Tx
	dialect string
}

var placeholder = regexp.MustCompile(`\$(\d+)`)

// q rewrites $N placeholders to ?N for SQLite.
func (t *sqlTx) q(query string) string {
	if t.dialect == config.DriverSQLite {
		return placeholder.ReplaceAllString(query, "?$1")
	}
	return query
}

const gameColumns = `id, mode, status, created_at, started_at, finished_at, current_turn, winner_id`

func scanGame(row *sql.Row) (*game.Game, error) {
	var g game.Game
	err := row.Scan(&g.ID, &g.Mode, &g.Status, &g.CreatedAt, &g.StartedAt, &g.FinishedAt, &g.CurrentTurn, &g.WinnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, game.ErrNoRecord
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (t *sqlTx) GameExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx, t.q(`SELECT 1 FROM games WHERE id = $1`), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (t *sqlTx) InsertGame(ctx context.Context, g *game.Game) error {
	query := `
		INSERT INTO games (id, mode, status, created_at, started_at, finished_at, current_turn, winner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := t.tx.ExecContext(ctx, t.q(query),
		g.ID, string(g.Mode), string(g.Status), g.CreatedAt, g.StartedAt, g.FinishedAt, g.CurrentTurn, g.WinnerID)
	return err
}

func (t *sqlTx) LockGame(ctx context.Context, id string) (*game.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`
	if t.dialect == config.DriverPostgres {
		query += ` FOR UPDATE`
	}
	return scanGame(t.tx.QueryRowContext(ctx, t.q(query), id))
}

func (t *sqlTx) GetGame(ctx context.Context, id string) (*game.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`
	return scanGame(t.tx.QueryRowContext(ctx, t.q(query), id))
}

func (t *sqlTx) UpdateGame(ctx context.Context, g *game.Game) error {
	query := `
		UPDATE games
		SET status = $1, started_at = $2, finished_at = $3, current_turn = $4, winner_id = $5
		WHERE id = $6`
	res, err := t.tx.ExecContext(ctx, t.q(query),
		string(g.Status), g.StartedAt, g.FinishedAt, g.CurrentTurn, g.WinnerID, g.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return game.ErrNoRecord
	}
	return nil
}

func (t *sqlTx) InsertPlayer(ctx context.Context, p *game.Player) error {
	query := `
		INSERT INTO players (id, game_id, player_number, player_name, joined_at, is_ai)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := t.tx.ExecContext(ctx, t.q(query), p.ID, p.GameID, p.Number, p.Name, p.JoinedAt, p.IsAI)
	return err
}

func (t *sqlTx) Players(ctx context.Context, gameID string) ([]game.Player, error) {
	query := `
		SELECT id, game_id, player_number, player_name, joined_at, is_ai
		FROM players WHERE game_id = $1 ORDER BY player_number`
	rows, err := t.tx.QueryContext(ctx, t.q(query), gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []game.Player{}
	for rows.Next() {
		var p game.Player
		if err := rows.Scan(&p.ID, &p.GameID, &p.Number, &p.Name, &p.JoinedAt, &p.IsAI); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (t *sqlTx) InsertMove(ctx context.Context, m *game.Move) error {
	query := `
		INSERT INTO moves (game_id, player_id, move_number, column_index, row_index, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	return t.tx.QueryRowContext(ctx, t.q(query),
		m.GameID, m.PlayerID, m.MoveNumber, m.Column, m.Row, m.CreatedAt).Scan(&m.ID)
}

func (t *sqlTx) Moves(ctx context.Context, gameID string) ([]game.Move, error) {
	query := `
		SELECT id, game_id, player_id, move_number, column_index, row_index, created_at
		FROM moves WHERE game_id = $1 ORDER BY move_number`
	rows, err := t.tx.QueryContext(ctx, t.q(query), gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []game.Move{}
	for rows.Next() {
		var m game.Move
		if err := rows.Scan(&m.ID, &m.GameID, &m.PlayerID, &m.MoveNumber, &m.Column, &m.Row, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (t *sqlTx) InsertMessage(ctx context.Context, m *game.ChatMessage) error {
	query := `
		INSERT INTO messages (game_id, player_id, message_type, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	return t.tx.QueryRowContext(ctx, t.q(query),
		m.GameID, m.PlayerID, string(m.Kind), m.Content, m.CreatedAt).Scan(&m.ID)
}

func (t *sqlTx) Messages(ctx context.Context, gameID string, since *time.Time, limit int) ([]game.ChatMessage, error) {
	query := `
		SELECT id, game_id, player_id, message_type, content, created_at
		FROM messages WHERE game_id = $1`
	args := []any{gameID}
	if since != nil {
		args = append(args, since.UTC())
		query += fmt.Sprintf(` AND created_at > $%d`, len(args))
	}
	query += ` ORDER BY created_at ASC, id ASC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := t.tx.QueryContext(ctx, t.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []game.ChatMessage{}
	for rows.Next() {
		var m game.ChatMessage
		if err := rows.Scan(&m.ID, &m.GameID, &m.PlayerID, &m.Kind, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
