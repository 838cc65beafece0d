package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tin-auppati/boardgame-backend/game"
	"github.com/tin-auppati/boardgame-backend/realtime"
)

// Hub fans events out to the websocket subscribers of a game.
type Hub interface {
	Broadcast(gameID, event string, data any)
	ServeWS(w http.ResponseWriter, r *http.Request, gameID string)
}

type Server struct {
	svc    *game.Service
	hub    Hub
	log    *zap.Logger
	router *gin.Engine
}

// NewServer wires the routes. An empty corsOrigins allows any origin.
func NewServer(svc *game.Service, hub Hub, log *zap.Logger, corsOrigins []string) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		svc:    svc,
		hub:    hub,
		log:    log,
		router: gin.New(),
	}

	r := s.router
	r.Use(RequestLogger(log), Recovery(log))

	config := cors.DefaultConfig()
	if len(corsOrigins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = corsOrigins
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	r.Use(cors.New(config))

	api := r.Group("/api")
	{
		api.GET("/health", s.healthHandler)

		games := api.Group("/game")
		games.POST("/create", s.createGameHandler)
		games.POST("/join", s.joinGameHandler)
		games.GET("/state", s.gameStateHandler)
		games.POST("/move", s.makeMoveHandler)

		chat := api.Group("/chat")
		chat.POST("/send", s.sendMessageHandler)
		chat.GET("/list", s.listMessagesHandler)
	}
	r.GET("/ws", s.websocketHandler)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) websocketHandler(c *gin.Context) {
	gameID := c.Query("game_id")
	if gameID == "" {
		badRequest(c, "game_id is required")
		return
	}
	if _, err := s.svc.GetGameState(c.Request.Context(), gameID); err != nil {
		s.respondError(c, err)
		return
	}
	s.hub.ServeWS(c.Writer, c.Request, gameID)
}

// pushState sends the committed state of gameID to its subscribers. A failed
// read only costs the push; the request itself already succeeded.
func (s *Server) pushState(c *gin.Context, gameID string) {
	st, err := s.svc.GetGameState(c.Request.Context(), gameID)
	if err != nil {
		s.log.Warn("load state for broadcast", zap.String("game_id", gameID), zap.Error(err))
		return
	}
	s.hub.Broadcast(gameID, realtime.EventGameUpdate, st)
}
