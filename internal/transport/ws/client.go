package ws

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/outplayedgg/garrison-server/internal/model"
)

const (
	// writeWait is how long a single write may take before the socket is
	// considered dead
	writeWait = 10 * time.Second
	// pongWait is how long to wait for a pong before dropping the peer
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize bounds inbound frames; gameplay commands are small
	maxMessageSize = 4096
	// sendBufferSize is the per-connection outbound queue. A client that
	// falls this far behind is dropped rather than throttling the room.
	sendBufferSize = 64
)

// client is one live websocket connection with its buffered outbound queue
type client struct {
	id   model.ConnectionID
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// readPump relays inbound frames into the coordinator until the socket
// closes. Runs as the connection's read goroutine; on exit the connection
// is deregistered everywhere.
func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.hub.coordinator.HandleDisconnect(c.id)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read failed",
					slog.String("conn", string(c.id)),
					slog.String("error", err.Error()))
			}
			return
		}

		env, err := decodeEnvelope(data)
		if err != nil {
			c.hub.logger.Warn("malformed frame dropped", slog.String("conn", string(c.id)))
			continue
		}
		c.hub.coordinator.HandleEvent(c.id, env.Event, env.Payload)
	}
}

// writePump drains the outbound queue onto the socket and keeps the
// connection alive with pings
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
