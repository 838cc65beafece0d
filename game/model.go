// game/model.go
package game

import (
	"time"
)

// Mode selects the board and the win rule.
type Mode string

const (
	Classic3 Mode = "classic3"
	Gomoku   Mode = "gomoku"
)

// Valid reports whether m is a supported mode.
func (m Mode) Valid() bool {
	return m == Classic3 || m == Gomoku
}

// Size is the board edge length for the mode.
func (m Mode) Size() int {
	switch m {
	case Classic3:
		return 3
	case Gomoku:
		return 15
	}
	return 0
}

// InBounds reports whether (col, row) lies on the board.
func (m Mode) InBounds(col, row int) bool {
	n := m.Size()
	return col >= 0 && col < n && row >= 0 && row < n
}

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

type MessageKind string

const (
	KindChat   MessageKind = "chat"
	KindSystem MessageKind = "system"
)

// Game - one row of the games table. ID doubles as the invite code.
type Game struct {
	ID          string     `json:"id"`
	Mode        Mode       `json:"mode"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at"`
	CurrentTurn *int       `json:"current_turn"` // null unless active
	WinnerID    *string    `json:"winner_id"`
}

// Player - one row of the players table.
type Player struct {
	ID       string    `json:"id"`
	GameID   string    `json:"game_id"`
	Number   int       `json:"player_number"` // 1 or 2
	Name     string    `json:"player_name"`
	JoinedAt time.Time `json:"joined_at"`
	IsAI     bool      `json:"is_ai"`
}

// Move - one row of the moves table.
type Move struct {
	ID         int64     `json:"id"`
	GameID     string    `json:"game_id"`
	PlayerID   string    `json:"player_id"`
	MoveNumber int       `json:"move_number"`
	Column     int       `json:"column_index"`
	Row        int       `json:"row_index"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChatMessage - one row of the messages table. PlayerID is nil for system messages.
type ChatMessage struct {
	ID        int64       `json:"id"`
	GameID    string      `json:"game_id"`
	PlayerID  *string     `json:"player_id"`
	Kind      MessageKind `json:"message_type"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// State is the full record set of one game.
type State struct {
	Game     Game          `json:"game"`
	Players  []Player      `json:"players"`
	Moves    []Move        `json:"moves"`
	Messages []ChatMessage `json:"messages"`
}

type CreateResult struct {
	GameID     string `json:"game_id"`
	PlayerID   string `json:"player_id"`
	InviteCode string `json:"invite_code"`
	Mode       Mode   `json:"mode"`
	Game       Game   `json:"game"`
}

type JoinResult struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
	Mode     Mode   `json:"mode"`
	Player   Player `json:"player"`
}

type MoveResult struct {
	Move       Move   `json:"move"`
	IsWinner   bool   `json:"is_winner"`
	IsDraw     bool   `json:"is_draw"`
	GameStatus Status `json:"game_status"`
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }
