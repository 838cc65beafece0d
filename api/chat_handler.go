package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tin-auppati/boardgame-backend/realtime"
)

func (s *Server) sendMessageHandler(c *gin.Context) {
	var req struct {
		GameID   string `json:"game_id" binding:"required"`
		PlayerID string `json:"player_id" binding:"required"`
		Text     string `json:"text" binding:"required,max=500"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	msg, err := s.svc.SendMessage(c.Request.Context(), req.GameID, req.PlayerID, req.Text)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.hub.Broadcast(req.GameID, realtime.EventChatUpdate, msg)

	c.JSON(http.StatusCreated, msg)
}

func (s *Server) listMessagesHandler(c *gin.Context) {
	gameID := c.Query("game_id")
	if gameID == "" {
		badRequest(c, "game_id is required")
		return
	}

	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			badRequest(c, "since must be an RFC3339 timestamp")
			return
		}
		since = &t
	}

	msgs, err := s.svc.ListMessages(c.Request.Context(), gameID, since)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
