package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	apperrors "health-concierge/backend/pkg/errors"
	"health-concierge/backend/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Cross-origin policy is enforced by the CORS middleware
		return true
	},
}

type client struct {
	sessionID string
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// Handler upgrades GET /ws?session_id=... connections and subscribes them
// to that session's events.
func Handler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Query("session_id")
		if sessionID == "" {
			c.Error(apperrors.NewValidationError("session_id query parameter is required"))
			c.Abort()
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.FromContext(c).Error("WebSocket upgrade failed", "error", err.Error())
			return
		}

		cl := &client{
			sessionID: sessionID,
			conn:      conn,
			send:      make(chan []byte, 32),
		}
		hub.add(cl)

		log := logger.FromContext(c)
		log.Info("WebSocket client connected", "session_id", sessionID)

		go cl.writePump()
		go cl.readPump(hub, log)
	}
}

// readPump drains client frames to keep the connection alive. Incoming
// data is ignored; the socket is push-only.
func (c *client) readPump(hub *Hub, log *logger.Logger) {
	defer func() {
		hub.remove(c)
		c.close()
		c.conn.Close()
		log.Info("WebSocket client disconnected", "session_id", c.sessionID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
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
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
