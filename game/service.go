package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	AIPlayerName = "AI Opponent"

	maxNameLength    = 50
	maxMessageLength = 500
	// MessageListLimit caps ListMessages.
	MessageListLimit = 100
)

// Service is the rules engine. It keeps no state between calls; every method
// runs inside exactly one Store unit of work.
type Service struct {
	store   Store
	log     *zap.Logger
	now     func() time.Time
	newCode CodeGenerator
	newID   func() string
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCodeGenerator replaces RandomInviteCode.
func WithCodeGenerator(gen CodeGenerator) Option {
	return func(s *Service) { s.newCode = gen }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		log:     zap.NewNop(),
		now:     func() time.Time { return time.Now().UTC() },
		newCode: RandomInviteCode,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateGame opens a new game with the caller as player 1. With an AI
// opponent the second seat is filled at once and the game starts.
func (s *Service) CreateGame(ctx context.Context, mode Mode, playerName string, withAI bool) (*CreateResult, error) {
	if !mode.Valid() {
		return nil, newError(KindInvalidMode, "invalid mode: %q", mode)
	}
	name, err := cleanName(playerName)
	if err != nil {
		return nil, err
	}

	var res *CreateResult
	err = s.store.WithTx(ctx, func(tx Tx) error {
		code, retries, err := uniqueInviteCode(ctx, tx, s.newCode)
		if err != nil {
			return fmt.Errorf("check invite code: %w", err)
		}
		if retries > 0 {
			s.log.Warn("invite code collision", zap.Int("retries", retries), zap.String("code", code))
		}

		now := s.now()
		g := &Game{
			ID:        code,
			Mode:      mode,
			Status:    StatusWaiting,
			CreatedAt: now,
		}
		if err := tx.InsertGame(ctx, g); err != nil {
			return fmt.Errorf("insert game: %w", err)
		}

		creator := &Player{ID: s.newID(), GameID: g.ID, Number: 1, Name: name, JoinedAt: now}
		if err := tx.InsertPlayer(ctx, creator); err != nil {
			return fmt.Errorf("insert player: %w", err)
		}

		if withAI {
			ai := &Player{ID: s.newID(), GameID: g.ID, Number: 2, Name: AIPlayerName, JoinedAt: now, IsAI: true}
			if err := tx.InsertPlayer(ctx, ai); err != nil {
				return fmt.Errorf("insert ai player: %w", err)
			}
			start(g, now)
			if err := tx.UpdateGame(ctx, g); err != nil {
				return fmt.Errorf("start game: %w", err)
			}
			if err := s.systemMessage(ctx, tx, g.ID, fmt.Sprintf("%s joined the game", ai.Name)); err != nil {
				return err
			}
		}

		res = &CreateResult{GameID: g.ID, PlayerID: creator.ID, InviteCode: g.ID, Mode: mode, Game: *g}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("game created",
		zap.String("game_id", res.GameID),
		zap.String("mode", string(mode)),
		zap.Bool("ai", withAI))
	return res, nil
}

// JoinGame seats a second player. Checks run in a fixed order: existence,
// then fullness, then status.
func (s *Service) JoinGame(ctx context.Context, inviteCode, playerName string) (*JoinResult, error) {
	name, err := cleanName(playerName)
	if err != nil {
		return nil, err
	}
	code := strings.ToUpper(strings.TrimSpace(inviteCode))

	var res *JoinResult
	err = s.store.WithTx(ctx, func(tx Tx) error {
		g, err := tx.LockGame(ctx, code)
		if errors.Is(err, ErrNoRecord) {
			return newError(KindNotFound, "game %s not found", code)
		}
		if err != nil {
			return fmt.Errorf("lock game: %w", err)
		}

		players, err := tx.Players(ctx, g.ID)
		if err != nil {
			return fmt.Errorf("list players: %w", err)
		}
		if len(players) >= 2 {
			return newError(KindAlreadyFull, "game %s is already full", g.ID)
		}
		if g.Status != StatusWaiting {
			return newError(KindNotJoinable, "game %s is not available for joining (status: %s)", g.ID, g.Status)
		}

		now := s.now()
		p := &Player{ID: s.newID(), GameID: g.ID, Number: 2, Name: name, JoinedAt: now}
		if err := tx.InsertPlayer(ctx, p); err != nil {
			return fmt.Errorf("insert player: %w", err)
		}
		start(g, now)
		if err := tx.UpdateGame(ctx, g); err != nil {
			return fmt.Errorf("start game: %w", err)
		}
		if err := s.systemMessage(ctx, tx, g.ID, fmt.Sprintf("%s joined the game", p.Name)); err != nil {
			return err
		}

		res = &JoinResult{GameID: g.ID, PlayerID: p.ID, Mode: g.Mode, Player: *p}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("player joined", zap.String("game_id", res.GameID), zap.String("player_id", res.PlayerID))
	return res, nil
}

// GetGameState returns every record of the game.
func (s *Service) GetGameState(ctx context.Context, gameID string) (*State, error) {
	var st *State
	err := s.store.WithTx(ctx, func(tx Tx) error {
		g, err := tx.GetGame(ctx, gameID)
		if errors.Is(err, ErrNoRecord) {
			return newError(KindNotFound, "game %s not found", gameID)
		}
		if err != nil {
			return fmt.Errorf("get game: %w", err)
		}
		players, err := tx.Players(ctx, gameID)
		if err != nil {
			return fmt.Errorf("list players: %w", err)
		}
		moves, err := tx.Moves(ctx, gameID)
		if err != nil {
			return fmt.Errorf("list moves: %w", err)
		}
		messages, err := tx.Messages(ctx, gameID, nil, 0)
		if err != nil {
			return fmt.Errorf("list messages: %w", err)
		}
		st = &State{Game: *g, Players: players, Moves: moves, Messages: messages}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// MakeMove validates and applies one move, then settles the outcome.
// The first failing check wins; a failure leaves no trace in the store.
func (s *Service) MakeMove(ctx context.Context, gameID, playerID string, col, row int) (*MoveResult, error) {
	var res *MoveResult
	var winnerName string
	err := s.store.WithTx(ctx, func(tx Tx) error {
		g, err := tx.LockGame(ctx, gameID)
		if errors.Is(err, ErrNoRecord) {
			return newError(KindNotFound, "game %s not found", gameID)
		}
		if err != nil {
			return fmt.Errorf("lock game: %w", err)
		}
		if g.Status != StatusActive {
			return newError(KindNotActive, "game is not active (status: %s)", g.Status)
		}
		if g.WinnerID != nil {
			return newError(KindAlreadyWon, "game already has a winner")
		}

		players, err := tx.Players(ctx, g.ID)
		if err != nil {
			return fmt.Errorf("list players: %w", err)
		}
		player, ok := findPlayer(players, playerID)
		if !ok {
			return newError(KindPlayerNotFound, "player %s not found in game %s", playerID, g.ID)
		}
		if g.CurrentTurn == nil || *g.CurrentTurn != player.Number {
			return newError(KindOutOfTurn, "not your turn (current turn: %s, you are player %d)", turnString(g.CurrentTurn), player.Number)
		}
		if !g.Mode.InBounds(col, row) {
			n := g.Mode.Size() - 1
			return newError(KindOutOfBounds, "position (%d, %d) out of bounds for %s (0-%d)", col, row, g.Mode, n)
		}

		moves, err := tx.Moves(ctx, g.ID)
		if err != nil {
			return fmt.Errorf("list moves: %w", err)
		}
		next := 1
		for _, m := range moves {
			if m.Column == col && m.Row == row {
				return newError(KindCellOccupied, "position (%d, %d) already occupied by move %d", col, row, m.MoveNumber)
			}
			if m.MoveNumber >= next {
				next = m.MoveNumber + 1
			}
		}

		now := s.now()
		mv := &Move{GameID: g.ID, PlayerID: player.ID, MoveNumber: next, Column: col, Row: row, CreatedAt: now}
		if err := tx.InsertMove(ctx, mv); err != nil {
			return fmt.Errorf("insert move: %w", err)
		}
		moves = append(moves, *mv)

		win, draw := Outcome(g.Mode, moves, *mv)
		switch {
		case win:
			finish(g, now, &player.ID)
			winnerName = player.Name
		case draw:
			finish(g, now, nil)
		default:
			g.CurrentTurn = intPtr(3 - player.Number)
		}
		if err := tx.UpdateGame(ctx, g); err != nil {
			return fmt.Errorf("update game: %w", err)
		}

		switch {
		case win:
			err = s.systemMessage(ctx, tx, g.ID, fmt.Sprintf("%s wins!", player.Name))
		case draw:
			err = s.systemMessage(ctx, tx, g.ID, "Game ended in a draw")
		}
		if err != nil {
			return err
		}

		res = &MoveResult{Move: *mv, IsWinner: win, IsDraw: draw, GameStatus: g.Status}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("game_id", gameID),
		zap.Int("move_number", res.Move.MoveNumber),
		zap.Int("col", col),
		zap.Int("row", row),
	}
	switch {
	case res.IsWinner:
		s.log.Info("game won", append(fields, zap.String("winner", winnerName))...)
	case res.IsDraw:
		s.log.Info("game drawn", fields...)
	default:
		s.log.Debug("move accepted", fields...)
	}
	return res, nil
}

// SendMessage posts a chat line from a player of the game.
func (s *Service) SendMessage(ctx context.Context, gameID, playerID, text string) (*ChatMessage, error) {
	n := utf8.RuneCountInString(text)
	if strings.TrimSpace(text) == "" || n > maxMessageLength {
		return nil, newError(KindInvalidArgument, "message must be 1-%d characters (got %d)", maxMessageLength, n)
	}

	var msg *ChatMessage
	err := s.store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.GetGame(ctx, gameID); errors.Is(err, ErrNoRecord) {
			return newError(KindNotFound, "game %s not found", gameID)
		} else if err != nil {
			return fmt.Errorf("get game: %w", err)
		}
		players, err := tx.Players(ctx, gameID)
		if err != nil {
			return fmt.Errorf("list players: %w", err)
		}
		if _, ok := findPlayer(players, playerID); !ok {
			return newError(KindPlayerNotFound, "player %s not found in game %s", playerID, gameID)
		}

		author := playerID
		msg = &ChatMessage{GameID: gameID, PlayerID: &author, Kind: KindChat, Content: text, CreatedAt: s.now()}
		if err := tx.InsertMessage(ctx, msg); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages returns up to MessageListLimit messages, oldest first,
// restricted to those strictly after since when it is non-nil.
func (s *Service) ListMessages(ctx context.Context, gameID string, since *time.Time) ([]ChatMessage, error) {
	var out []ChatMessage
	err := s.store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.GetGame(ctx, gameID); errors.Is(err, ErrNoRecord) {
			return newError(KindNotFound, "game %s not found", gameID)
		} else if err != nil {
			return fmt.Errorf("get game: %w", err)
		}
		var err error
		out, err = tx.Messages(ctx, gameID, since, MessageListLimit)
		if err != nil {
			return fmt.Errorf("list messages: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []ChatMessage{}
	}
	return out, nil
}

func (s *Service) systemMessage(ctx context.Context, tx Tx, gameID, text string) error {
	m := &ChatMessage{GameID: gameID, Kind: KindSystem, Content: text, CreatedAt: s.now()}
	if err := tx.InsertMessage(ctx, m); err != nil {
		return fmt.Errorf("insert system message: %w", err)
	}
	return nil
}

// start moves a waiting game to active with player 1 to move.
func start(g *Game, now time.Time) {
	g.Status = StatusActive
	g.CurrentTurn = intPtr(1)
	g.StartedAt = timePtr(now)
}

// finish freezes the game. current_turn is cleared since it is only set while active.
func finish(g *Game, now time.Time, winnerID *string) {
	g.Status = StatusCompleted
	g.FinishedAt = timePtr(now)
	g.CurrentTurn = nil
	g.WinnerID = winnerID
}

func findPlayer(players []Player, id string) (Player, bool) {
	for _, p := range players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

func turnString(t *int) string {
	if t == nil {
		return "none"
	}
	return fmt.Sprint(*t)
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n == 0 || n > maxNameLength {
		return "", newError(KindInvalidArgument, "player name must be 1-%d characters (got %d)", maxNameLength, n)
	}
	return name, nil
}
