// Package game is the rules engine for classic3 (3x3 tic-tac-toe) and
// gomoku (15x15, five in a row).
//
// The engine covers three concerns that always change together:
//   - Lifecycle: CreateGame, JoinGame and the waiting → active → completed
//     status machine. The invite code is the game id.
//   - Move validation: game exists, is active, has no winner, the player
//     belongs to it and holds the turn, the cell is on the board and free.
//   - Outcome: classic3 checks the 8 fixed lines; gomoku counts the run
//     through the new stone on 4 axes. A full board is a draw in both modes.
//
// Persistence is behind Store. Each Service call runs in one Store.WithTx,
// so a rejected move leaves nothing behind and two moves on the same game
// are serialized by the store's lock on the game row.
//
// Usage:
//
//	svc := game.NewService(store, game.WithLogger(logger))
//	created, err := svc.CreateGame(ctx, game.Classic3, "alice", false)
//	joined, err := svc.JoinGame(ctx, created.InviteCode, "bob")
//	res, err := svc.MakeMove(ctx, created.GameID, created.PlayerID, 1, 1)
//	if errors.Is(err, game.ErrOutOfTurn) {
//		// wait for the opponent
//	}
package game
