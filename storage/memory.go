package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tin-auppati/boardgame-backend/game"
)

// Memory is a process-local Store. Transactions run one at a time and work
// on a copy of the data that replaces the original only on commit.
type Memory struct {
	mu   sync.Mutex
	data *memData
}

type memData struct {
	games     map[string]game.Game
	players   map[string][]game.Player
	moves     map[string][]game.Move
	messages  map[string][]game.ChatMessage
	lastMove  int64
	lastMsgID int64
}

func NewMemory() *Memory {
	return &Memory{data: &memData{
		games:    make(map[string]game.Game),
		players:  make(map[string][]game.Player),
		moves:    make(map[string][]game.Move),
		messages: make(map[string][]game.ChatMessage),
	}}
}

func (m *Memory) WithTx(ctx context.Context, fn func(tx game.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := m.data.clone()
	if err := fn(&memTx{d: work}); err != nil {
		return err
	}
	m.data = work
	return nil
}

func (d *memData) clone() *memData {
	c := &memData{
		games:     make(map[string]game.Game, len(d.games)),
		players:   make(map[string][]game.Player, len(d.players)),
		moves:     make(map[string][]game.Move, len(d.moves)),
		messages:  make(map[string][]game.ChatMessage, len(d.messages)),
		lastMove:  d.lastMove,
		lastMsgID: d.lastMsgID,
	}
	for k, v := range d.games {
		c.games[k] = v
	}
	for k, v := range d.players {
		c.players[k] = append([]game.Player(nil), v...)
	}
	for k, v := range d.moves {
		c.moves[k] = append([]game.Move(nil), v...)
	}
	for k, v := range d.messages {
		c.messages[k] = append([]game.ChatMessage(nil), v...)
	}
	return c
}

type memTx struct {
	d *memData
}

func (t *memTx) GameExists(_ context.Context, id string) (bool, error) {
	_, ok := t.d.games[id]
	return ok, nil
}

func (t *memTx) InsertGame(_ context.Context, g *game.Game) error {
	if _, ok := t.d.games[g.ID]; ok {
		return fmt.Errorf("duplicate game id %s", g.ID)
	}
	t.d.games[g.ID] = *g
	return nil
}

func (t *memTx) LockGame(ctx context.Context, id string) (*game.Game, error) {
	return t.GetGame(ctx, id)
}

func (t *memTx) GetGame(_ context.Context, id string) (*game.Game, error) {
	g, ok := t.d.games[id]
	if !ok {
		return nil, game.ErrNoRecord
	}
	return &g, nil
}

func (t *memTx) UpdateGame(_ context.Context, g *game.Game) error {
	if _, ok := t.d.games[g.ID]; !ok {
		return game.ErrNoRecord
	}
	t.d.games[g.ID] = *g
	return nil
}

func (t *memTx) InsertPlayer(_ context.Context, p *game.Player) error {
	if _, ok := t.d.games[p.GameID]; !ok {
		return fmt.Errorf("player references missing game %s", p.GameID)
	}
	for _, other := range t.d.players[p.GameID] {
		if other.Number == p.Number {
			return fmt.Errorf("duplicate player number %d in game %s", p.Number, p.GameID)
		}
	}
	ps := append(t.d.players[p.GameID], *p)
	sort.Slice(ps, func(i, j int) bool { return ps[i].Number < ps[j].Number })
	t.d.players[p.GameID] = ps
	return nil
}

func (t *memTx) Players(_ context.Context, gameID string) ([]game.Player, error) {
	return append([]game.Player{}, t.d.players[gameID]...), nil
}

func (t *memTx) InsertMove(_ context.Context, m *game.Move) error {
	for _, other := range t.d.moves[m.GameID] {
		if other.Column == m.Column && other.Row == m.Row {
			return fmt.Errorf("duplicate cell (%d, %d) in game %s", m.Column, m.Row, m.GameID)
		}
		if other.MoveNumber == m.MoveNumber {
			return fmt.Errorf("duplicate move number %d in game %s", m.MoveNumber, m.GameID)
		}
	}
	t.d.lastMove++
	m.ID = t.d.lastMove
	t.d.moves[m.GameID] = append(t.d.moves[m.GameID], *m)
	return nil
}

func (t *memTx) Moves(_ context.Context, gameID string) ([]game.Move, error) {
	out := append([]game.Move{}, t.d.moves[gameID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].MoveNumber < out[j].MoveNumber })
	return out, nil
}

func (t *memTx) InsertMessage(_ context.Context, m *game.ChatMessage) error {
	if _, ok := t.d.games[m.GameID]; !ok {
		return fmt.Errorf("message references missing game %s", m.GameID)
	}
	t.d.lastMsgID++
	m.ID = t.d.lastMsgID
	t.d.messages[m.GameID] = append(t.d.messages[m.GameID], *m)
	return nil
}

func (t *memTx) Messages(_ context.Context, gameID string, since *time.Time, limit int) ([]game.ChatMessage, error) {
	out := []game.ChatMessage{}
	for _, m := range t.d.messages[gameID] {
		if since != nil && !m.CreatedAt.After(*since) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
