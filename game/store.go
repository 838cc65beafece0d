package game

import (
	"context"
	"time"
)

// Store runs units of work. fn's writes become visible only if fn returns nil;
// any error rolls everything back. Implementations must serialize two
// transactions that both call LockGame on the same id.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the record access available inside one unit of work.
// Missing rows are reported as ErrNoRecord.
type Tx interface {
	GameExists(ctx context.Context, id string) (bool, error)
	InsertGame(ctx context.Context, g *Game) error
	// LockGame reads a game and holds it until the unit of work ends.
	LockGame(ctx context.Context, id string) (*Game, error)
	GetGame(ctx context.Context, id string) (*Game, error)
	UpdateGame(ctx context.Context, g *Game) error

	InsertPlayer(ctx context.Context, p *Player) error
	// Players returns the game's players ordered by number.
	Players(ctx context.Context, gameID string) ([]Player, error)

	// InsertMove stores m and fills in m.ID.
	InsertMove(ctx context.Context, m *Move) error
	// Moves returns the game's moves ordered by move number.
	Moves(ctx context.Context, gameID string) ([]Move, error)

	// InsertMessage stores m and fills in m.ID.
	InsertMessage(ctx context.Context, m *ChatMessage) error
	// Messages returns messages oldest first, only those after since when
	// non-nil, at most limit when limit > 0.
	Messages(ctx context.Context, gameID string, since *time.Time, limit int) ([]ChatMessage, error)
}
