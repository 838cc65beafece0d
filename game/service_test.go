package game_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tin-auppati/boardgame-backend/game"
	"github.com/tin-auppati/boardgame-backend/storage"
)

// stepClock advances one second per reading so timestamps are ordered.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newService(t *testing.T, opts ...game.Option) (*game.Service, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	clock := &stepClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]game.Option{game.WithClock(clock.Now)}, opts...)
	return game.NewService(store, opts...), store
}

type match struct {
	gameID string
	p1, p2 string
}

func startMatch(t *testing.T, svc *game.Service, mode game.Mode) match {
	t.Helper()
	ctx := context.Background()
	created, err := svc.CreateGame(ctx, mode, "alice", false)
	require.NoError(t, err)
	joined, err := svc.JoinGame(ctx, created.InviteCode, "bob")
	require.NoError(t, err)
	return match{gameID: created.GameID, p1: created.PlayerID, p2: joined.PlayerID}
}

// setGame rewrites a stored game, for states the public API cannot reach directly.
func setGame(t *testing.T, store game.Store, id string, mutate func(g *game.Game)) {
	t.Helper()
	err := store.WithTx(context.Background(), func(tx game.Tx) error {
		g, err := tx.GetGame(context.Background(), id)
		if err != nil {
			return err
		}
		mutate(g)
		return tx.UpdateGame(context.Background(), g)
	})
	require.NoError(t, err)
}

func TestCreateGame(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	res, err := svc.CreateGame(ctx, game.Classic3, "  alice  ", false)
	require.NoError(t, err)

	assert.True(t, game.IsInviteCode(res.InviteCode))
	assert.Equal(t, res.InviteCode, res.GameID)
	assert.Equal(t, game.StatusWaiting, res.Game.Status)
	assert.Nil(t, res.Game.CurrentTurn)
	assert.Nil(t, res.Game.StartedAt)

	st, err := svc.GetGameState(ctx, res.GameID)
	require.NoError(t, err)
	require.Len(t, st.Players, 1)
	assert.Equal(t, "alice", st.Players[0].Name)
	assert.Equal(t, 1, st.Players[0].Number)
	assert.Equal(t, res.PlayerID, st.Players[0].ID)
	assert.Empty(t, st.Moves)
	assert.Empty(t, st.Messages)
}

func TestCreateGame_WithAI(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	res, err := svc.CreateGame(ctx, game.Gomoku, "alice", true)
	require.NoError(t, err)
	assert.Equal(t, game.StatusActive, res.Game.Status)
	require.NotNil(t, res.Game.CurrentTurn)
	assert.Equal(t, 1, *res.Game.CurrentTurn)
	assert.NotNil(t, res.Game.StartedAt)

	st, err := svc.GetGameState(ctx, res.GameID)
	require.NoError(t, err)
	require.Len(t, st.Players, 2)
	assert.True(t, st.Players[1].IsAI)
	assert.Equal(t, game.AIPlayerName, st.Players[1].Name)
	assert.Equal(t, 2, st.Players[1].Number)

	require.Len(t, st.Messages, 1)
	assert.Equal(t, game.KindSystem, st.Messages[0].Kind)
	assert.Nil(t, st.Messages[0].PlayerID)
	assert.Equal(t, "AI Opponent joined the game", st.Messages[0].Content)

	_, err = svc.JoinGame(ctx, res.InviteCode, "bob")
	assert.ErrorIs(t, err, game.ErrAlreadyFull)
}

func TestCreateGame_Validation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateGame(ctx, game.Mode("chess"), "alice", false)
	assert.ErrorIs(t, err, game.ErrInvalidMode)
	assert.Equal(t, game.KindInvalidMode, game.KindOf(err))

	_, err = svc.CreateGame(ctx, game.Classic3, "   ", false)
	assert.ErrorIs(t, err, game.ErrInvalidArgument)

	_, err = svc.CreateGame(ctx, game.Classic3, strings.Repeat("a", 51), false)
	assert.ErrorIs(t, err, game.ErrInvalidArgument)

	_, err = svc.CreateGame(ctx, game.Classic3, strings.Repeat("é", 50), false)
	assert.NoError(t, err)
}

func TestCreateGame_InviteCodeRetry(t *testing.T) {
	codes := []string{"AAAAAA", "AAAAAA", "AAAAAA", "BBBBBB"}
	var i int
	gen := func() string {
		c := codes[i%len(codes)]
		i++
		return c
	}
	svc, _ := newService(t, game.WithCodeGenerator(gen))
	ctx := context.Background()

	first, err := svc.CreateGame(ctx, game.Classic3, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", first.GameID)

	second, err := svc.CreateGame(ctx, game.Classic3, "bob", false)
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", second.GameID)
}

func TestCreateGame_InviteCodeExhausted(t *testing.T) {
	svc, _ := newService(t, game.WithCodeGenerator(func() string { return "ZZZZZZ" }))
	ctx := context.Background()

	_, err := svc.CreateGame(ctx, game.Classic3, "alice", false)
	require.NoError(t, err)

	// the duplicate reaches the store and is refused there
	_, err = svc.CreateGame(ctx, game.Classic3, "bob", false)
	require.Error(t, err)
	assert.Equal(t, game.Kind(""), game.KindOf(err))
}

func TestJoinGame(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.CreateGame(ctx, game.Classic3, "alice", false)
	require.NoError(t, err)

	joined, err := svc.JoinGame(ctx, " "+strings.ToLower(created.InviteCode)+" ", "bob")
	require.NoError(t, err)
	assert.Equal(t, created.GameID, joined.GameID)
	assert.Equal(t, 2, joined.Player.Number)
	assert.Equal(t, game.Classic3, joined.Mode)

	st, err := svc.GetGameState(ctx, created.GameID)
	require.NoError(t, err)
	assert.Equal(t, game.StatusActive, st.Game.Status)
	require.NotNil(t, st.Game.CurrentTurn)
	assert.Equal(t, 1, *st.Game.CurrentTurn)
	assert.NotNil(t, st.Game.StartedAt)
	require.Len(t, st.Messages, 1)
	assert.Equal(t, "bob joined the game", st.Messages[0].Content)
}

func TestJoinGame_Errors(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	_, err := svc.JoinGame(ctx, "NOPE00", "bob")
	assert.ErrorIs(t, err, game.ErrNotFound)

	m := startMatch(t, svc, game.Classic3)
	_, err = svc.JoinGame(ctx, m.gameID, "carol")
	assert.ErrorIs(t, err, game.ErrAlreadyFull)

	// fullness is checked before status, so a finished full game still reports full
	setGame(t, store, m.gameID, func(g *game.Game) { g.Status = game.StatusCompleted })
	_, err = svc.JoinGame(ctx, m.gameID, "carol")
	assert.ErrorIs(t, err, game.ErrAlreadyFull)

	lonely, err := svc.CreateGame(ctx, game.Classic3, "dave", false)
	require.NoError(t, err)
	setGame(t, store, lonely.GameID, func(g *game.Game) { g.Status = game.StatusAbandoned })
	_, err = svc.JoinGame(ctx, lonely.GameID, "erin")
	assert.ErrorIs(t, err, game.ErrNotJoinable)

	_, err = svc.JoinGame(ctx, lonely.GameID, "")
	assert.ErrorIs(t, err, game.ErrInvalidArgument)
}

func TestGetGameState_NotFound(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.GetGameState(context.Background(), "NOPE00")
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestMakeMove_TurnsAlternate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	m := startMatch(t, svc, game.Classic3)

	res, err := svc.MakeMove(ctx, m.gameID, m.p1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Move.MoveNumber)
	assert.Equal(t, game.StatusActive, res.GameStatus)
	assert.False(t, res.IsWinner)
	assert.False(t, res.IsDraw)

	_, err = svc.MakeMove(ctx, m.gameID, m.p1, 1, 1)
	assert.ErrorIs(t, err, game.ErrOutOfTurn)
	assert.Contains(t, err.Error(), "current turn: 2, you are player 1")

	res, err = svc.MakeMove(ctx, m.gameID, m.p2, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Move.MoveNumber)

	st, err := svc.GetGameState(ctx, m.gameID)
	require.NoError(t, err)
	require.Len(t, st.Moves, 2)
	assert.Equal(t, 1, *st.Game.CurrentTurn)
	assert.Equal(t, m.p1, st.Moves[0].PlayerID)
	assert.Equal(t, m.p2, st.Moves[1].PlayerID)
}

func TestMakeMove_RejectionLeavesNoTrace(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	m := startMatch(t, svc, game.Classic3)

	_, err := svc.MakeMove(ctx, m.gameID, m.p1, 1, 1)
	require.NoError(t, err)
	before, err := svc.GetGameState(ctx, m.gameID)
	require.NoError(t, err)

	cases := []struct {
		name     string
		playerID string
		col, row int
		want     error
	}{
		{"out of turn", m.p1, 0, 0, game.ErrOutOfTurn},
		{"occupied", m.p2, 1, 1, game.ErrCellOccupied},
		{"out of bounds", m.p2, 3, 0, game.ErrOutOfBounds},
		{"negative", m.p2, 0, -1, game.ErrOutOfBounds},
		{"stranger", "not-a-player", 0, 0, game.ErrPlayerNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.MakeMove(ctx, m.gameID, tc.playerID, tc.col, tc.row)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	after, err := svc.GetGameState(ctx, m.gameID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestMakeMove_NotFoundAndNotActive(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.MakeMove(ctx, "NOPE00", "p", 0, 0)
	assert.ErrorIs(t, err, game.ErrNotFound)

	created, err := svc.CreateGame(ctx, game.Classic3, "alice", false)
	require.NoError(t, err)
	_, err = svc.MakeMove(ctx, created.GameID, created.PlayerID, 0, 0)
	assert.ErrorIs(t, err, game.ErrNotActive)
}

func TestMakeMove_AlreadyWon(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	m := startMatch(t, svc, game.Classic3)

	winner := m.p2
	setGame(t, store, m.gameID, func(g *game.Game) { g.WinnerID = &winner })

	_, err := svc.MakeMove(ctx, m.gameID, m.p1, 0, 0)
	assert.ErrorIs(t, err, game.ErrAlreadyWon)
}

func TestMakeMove_Classic3Win(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	m := startMatch(t, svc, game.Classic3)

	play := []struct {
		player   string
		col, row int
	}{
		{m.p1, 0, 0}, {m.p2, 0, 1},
		{m.p1, 1, 0}, {m.p2, 1, 1},
	}
	for _, p := range play {
		_, err := svc.MakeMove(ctx, m.gameID, p.player, p.col, p.row)
		require.NoError(t, err)
	}

	res, err := svc.MakeMove(ctx, m.gameID, m.p1, 2, 0)
	require.NoError(t, err)
	assert.True(t, res.IsWinner)
	assert.False(t, res.IsDraw)
	assert.Equal(t, game.StatusCompleted, res.GameStatus)

	st, err := svc.GetGameState(ctx, m.gameID)
	require.NoError(t, err)
	require.NotNil(t, st.Game.WinnerID)
	assert.Equal(t, m.p1, *st.Game.WinnerID)
	assert.Nil(t, st.Game.CurrentTurn)
	assert.NotNil(t, st.Game.FinishedAt)

	last := st.Messages[len(st.Messages)-1]
	assert.Equal(t, game.KindSystem, last.Kind)
	assert.Equal(t, "alice wins!", last.Content)

	_, err = svc.MakeMove(ctx, m.gameID, m.p2, 2, 2)
	assert.ErrorIs(t, err, game.ErrNotActive)

	_, err = svc.JoinGame(ctx, m.gameID, "carol")
	assert.ErrorIs(t, err, game.ErrAlreadyFull)
}

func TestMakeMove_Classic3Draw(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	m := startMatch(t, svc, game.Classic3)

	// X O X
	// X O O
	// O X X
	cells := [][2]int{{0, 0}, {1, 0}, {2, 0}, {1, 1}, {0, 1}, {2, 1}, {1, 2}, {0, 2}, {2, 2}}
	var res *game.MoveResult
	var err error
	for i, c := range cells {
		player := m.p1
		if i%2 == 1 {
			player = m.p2
		}
		res, err = svc.MakeMove(ctx, m.gameID, player, c[0], c[1])
		require.NoError(t, err)
		if i < len(cells)-1 {
			require.Equal(t, game.StatusActive, res.GameStatus)
		}
	}
	assert.True(t, res.IsDraw)
	assert.False(t, res.IsWinner)
	assert.Equal(t, game.StatusCompleted, res.GameStatus)

	st, err := svc.GetGameState(ctx, m.gameID)
	require.NoError(t, err)
	assert.Nil(t, st.Game.WinnerID)
	assert.Nil(t, st.Game.CurrentTurn)
	assert.Equal(t, "Game ended in a draw", st.Messages[len(st.Messages)-1].Content)

	for i, mv := range st.Moves {
		assert.Equal(t, i+1, mv.MoveNumber)
	}
}

func TestMakeMove_GomokuWin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	m := startMatch(t, svc, game.Gomoku)

	for i := 0; i < 4; i++ {
		_, err := svc.MakeMove(ctx, m.gameID, m.p1, 7, 3+i)
		require.NoError(t, err)
		_, err = svc.MakeMove(ctx, m.gameID, m.p2, 0, i)
		require.NoError(t, err)
	}
	_, err := svc.MakeMove(ctx, m.gameID, m.p1, 14, 14)
	require.NoError(t, err)
	_, err = svc.MakeMove(ctx, m.gameID, m.p2, 15, 0)
	assert.ErrorIs(t, err, game.ErrOutOfBounds)

	res, err := svc.MakeMove(ctx, m.gameID, m.p2, 0, 4)
	require.NoError(t, err)
	assert.True(t, res.IsWinner)
	assert.Equal(t, 10, res.Move.MoveNumber)
}

func TestMakeMove_GomokuFullBoardDraw(t *testing.T) {
	if testing.Short() {
		t.Skip("plays 225 moves")
	}
	svc, _ := newService(t)
	ctx := context.Background()
	m := startMatch(t, svc, game.Gomoku)

	// ((col/2)+row)%2 has no run of five in any direction; colour 0 has 113 cells.
	var mine, theirs [][2]int
	for col := 0; col < 15; col++ {
		for row := 0; row < 15; row++ {
			if ((col/2)+row)%2 == 0 {
				mine = append(mine, [2]int{col, row})
			} else {
				theirs = append(theirs, [2]int{col, row})
			}
		}
	}
	require.Len(t, mine, 113)
	require.Len(t, theirs, 112)

	var res *game.MoveResult
	for i := range mine {
		var err error
		res, err = svc.MakeMove(ctx, m.gameID, m.p1, mine[i][0], mine[i][1])
		require.NoError(t, err)
		if i < len(theirs) {
			require.False(t, res.IsWinner)
			res, err = svc.MakeMove(ctx, m.gameID, m.p2, theirs[i][0], theirs[i][1])
			require.NoError(t, err)
			require.False(t, res.IsWinner)
		}
	}
	assert.True(t, res.IsDraw)
	assert.Equal(t, 225, res.Move.MoveNumber)
	assert.Equal(t, game.StatusCompleted, res.GameStatus)
}

func TestMakeMove_ConcurrentSameCell(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	m := startMatch(t, svc, game.Classic3)

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.MakeMove(ctx, m.gameID, m.p1, 0, 0)
		}(i)
	}
	close(start)
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		// after the first move it is player 2's turn
		assert.True(t, errors.Is(err, game.ErrOutOfTurn), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, ok)

	st, err := svc.GetGameState(ctx, m.gameID)
	require.NoError(t, err)
	assert.Len(t, st.Moves, 1)
}

func TestSendMessage(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	m := startMatch(t, svc, game.Classic3)

	msg, err := svc.SendMessage(ctx, m.gameID, m.p2, "good luck")
	require.NoError(t, err)
	assert.Equal(t, game.KindChat, msg.Kind)
	require.NotNil(t, msg.PlayerID)
	assert.Equal(t, m.p2, *msg.PlayerID)
	assert.NotZero(t, msg.ID)

	_, err = svc.SendMessage(ctx, m.gameID, m.p1, " \t ")
	assert.ErrorIs(t, err, game.ErrInvalidArgument)

	_, err = svc.SendMessage(ctx, m.gameID, m.p1, strings.Repeat("x", 501))
	assert.ErrorIs(t, err, game.ErrInvalidArgument)

	_, err = svc.SendMessage(ctx, "NOPE00", m.p1, "hi")
	assert.ErrorIs(t, err, game.ErrNotFound)

	_, err = svc.SendMessage(ctx, m.gameID, "stranger", "hi")
	assert.ErrorIs(t, err, game.ErrPlayerNotFound)
}

func TestListMessages(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	m := startMatch(t, svc, game.Classic3)

	all, err := svc.ListMessages(ctx, m.gameID, nil)
	require.NoError(t, err)
	require.Len(t, all, 1) // join notice

	var sent []*game.ChatMessage
	for i := 0; i < 3; i++ {
		msg, err := svc.SendMessage(ctx, m.gameID, m.p1, fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
		sent = append(sent, msg)
	}

	since := sent[0].CreatedAt
	after, err := svc.ListMessages(ctx, m.gameID, &since)
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, "msg 1", after[0].Content)
	assert.Equal(t, "msg 2", after[1].Content)

	later := sent[2].CreatedAt
	none, err := svc.ListMessages(ctx, m.gameID, &later)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = svc.ListMessages(ctx, "NOPE00", nil)
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestListMessages_Limit(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	m := startMatch(t, svc, game.Classic3)

	for i := 0; i < game.MessageListLimit+5; i++ {
		_, err := svc.SendMessage(ctx, m.gameID, m.p1, fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
	}

	msgs, err := svc.ListMessages(ctx, m.gameID, nil)
	require.NoError(t, err)
	require.Len(t, msgs, game.MessageListLimit)
	assert.Equal(t, "bob joined the game", msgs[0].Content)
	for i := 1; i < len(msgs); i++ {
		assert.True(t, msgs[i].CreatedAt.After(msgs[i-1].CreatedAt))
	}
}
