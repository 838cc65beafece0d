package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tin-auppati/boardgame-backend/game"
)

func (s *Server) createGameHandler(c *gin.Context) {
	var req struct {
		PlayerName   string `json:"player_name" binding:"required,max=50"`
		Mode         string `json:"mode"`
		IsAIOpponent bool   `json:"is_ai_opponent"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	mode := game.Mode(req.Mode)
	if mode == "" {
		mode = game.Classic3
	}

	res, err := s.svc.CreateGame(c.Request.Context(), mode, req.PlayerName, req.IsAIOpponent)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.pushState(c, res.GameID)

	c.JSON(http.StatusCreated, gin.H{
		"game":        res.Game,
		"player_id":   res.PlayerID,
		"invite_code": res.InviteCode,
	})
}

func (s *Server) joinGameHandler(c *gin.Context) {
	var req struct {
		InviteCode string `json:"invite_code" binding:"required"`
		PlayerName string `json:"player_name" binding:"required,max=50"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	res, err := s.svc.JoinGame(c.Request.Context(), req.InviteCode, req.PlayerName)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.pushState(c, res.GameID)

	c.JSON(http.StatusOK, gin.H{
		"player":  res.Player,
		"game_id": res.GameID,
		"mode":    res.Mode,
	})
}

func (s *Server) gameStateHandler(c *gin.Context) {
	gameID := c.Query("game_id")
	if gameID == "" {
		badRequest(c, "game_id is required")
		return
	}

	st, err := s.svc.GetGameState(c.Request.Context(), gameID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) makeMoveHandler(c *gin.Context) {
	// pointers so that 0 is distinguishable from missing
	var req struct {
		GameID      string `json:"game_id" binding:"required"`
		PlayerID    string `json:"player_id" binding:"required"`
		ColumnIndex *int   `json:"column_index" binding:"required"`
		RowIndex    *int   `json:"row_index" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	res, err := s.svc.MakeMove(c.Request.Context(), req.GameID, req.PlayerID, *req.ColumnIndex, *req.RowIndex)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.pushState(c, req.GameID)

	c.JSON(http.StatusOK, res)
}
