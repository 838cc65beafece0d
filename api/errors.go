package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tin-auppati/boardgame-backend/game"
)

const codeInternal = "internal"

func statusFor(kind game.Kind) int {
	switch kind.Class() {
	case game.ClassNotFound:
		return http.StatusNotFound
	case game.ClassConflict:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// respondError writes err as {"error", "code"}. Rules failures keep their
// message; anything else is logged and hidden behind a 500.
func (s *Server) respondError(c *gin.Context, err error) {
	kind := game.KindOf(err)
	if kind == "" {
		s.log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": codeInternal})
		return
	}
	c.JSON(statusFor(kind), gin.H{"error": err.Error(), "code": string(kind)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": string(game.KindInvalidArgument)})
}
