// Package api exposes the game Service over HTTP with gin.
//
// Endpoints:
//
//   - GET  /api/health            liveness probe
//   - POST /api/game/create       {player_name, mode, is_ai_opponent}
//   - POST /api/game/join         {invite_code, player_name}
//   - GET  /api/game/state        ?game_id=
//   - POST /api/game/move         {game_id, player_id, column_index, row_index}
//   - POST /api/chat/send         {game_id, player_id, text}
//   - GET  /api/chat/list         ?game_id=&since=RFC3339
//   - GET  /ws                    ?game_id= (websocket upgrade)
//
// Errors are JSON with a stable code:
//
//	{
//	  "error": "not your turn (current turn: 1, you are player 2)",
//	  "code": "out_of_turn"
//	}
//
// Unknown games and players map to 404, rule conflicts to 409, bad input
// to 400 and storage faults to 500.
//
// Successful create, join and move requests push a game_update event with
// the fresh state to the game's websocket subscribers; chat sends push
// chat_update with the new message.
package api
