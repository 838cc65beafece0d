// Package realtime pushes game and chat updates to websocket subscribers of a game.
package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	sendBuffer = 256
)

const (
	EventGameUpdate = "game_update"
	EventChatUpdate = "chat_update"
)

// Message is the envelope written to subscribers.
type Message struct {
	GameID string `json:"game_id"`
	Event  string `json:"event"`
	Data   any    `json:"data,omitempty"`
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	gameID string
}

// Hub owns the subscriber sets. All map access happens on the Run goroutine.
type Hub struct {
	games      map[string]map[*client]bool
	broadcast  chan *Message
	register   chan *client
	unregister chan *client
	done       chan struct{}

	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHub creates a hub. allowedOrigins empty means any origin may connect.
func NewHub(log *zap.Logger, allowedOrigins []string) *Hub {
	h := &Hub{
		games:      make(map[string]map[*client]bool),
		broadcast:  make(chan *Message, sendBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		log:        log,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// Run is the hub's event loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case m := <-h.broadcast:
			h.broadcastMessage(m)

		case <-h.done:
			for _, clients := range h.games {
				for c := range clients {
					close(c.send)
				}
			}
			h.games = make(map[string]map[*client]bool)
			return
		}
	}
}

// Stop ends Run and closes every subscriber.
func (h *Hub) Stop() {
	close(h.done)
}

// ServeWS upgrades the request and subscribes the connection to gameID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, gameID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		gameID: gameID,
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// Broadcast queues an event for every subscriber of gameID. It never blocks
// the caller for long: when the queue is full the event is dropped.
func (h *Hub) Broadcast(gameID, event string, data any) {
	m := &Message{GameID: gameID, Event: event, Data: data}
	select {
	case h.broadcast <- m:
	case <-h.done:
	default:
		h.log.Warn("broadcast queue full, dropping event",
			zap.String("game_id", gameID), zap.String("event", event))
	}
}

func (h *Hub) registerClient(c *client) {
	if h.games[c.gameID] == nil {
		h.games[c.gameID] = make(map[*client]bool)
	}
	h.games[c.gameID][c] = true

	h.log.Debug("client subscribed",
		zap.String("game_id", c.gameID), zap.Int("clients", len(h.games[c.gameID])))
}

func (h *Hub) unregisterClient(c *client) {
	clients, ok := h.games[c.gameID]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)

	if len(clients) == 0 {
		delete(h.games, c.gameID)
	}
	h.log.Debug("client unsubscribed",
		zap.String("game_id", c.gameID), zap.Int("clients", len(clients)))
}

func (h *Hub) broadcastMessage(m *Message) {
	clients, ok := h.games[m.GameID]
	if !ok {
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		h.log.Error("marshal broadcast", zap.Error(err))
		return
	}
	for c := range clients {
		select {
		case c.send <- data:
		default:
			// slow consumer
			h.unregisterClient(c)
		}
	}
}

// readPump discards client input and keeps the read deadline alive.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
