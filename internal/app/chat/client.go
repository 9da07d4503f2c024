/*
Package chat contains the live-delivery core.

This file defines the Client struct, representing an active WebSocket connection bound
to a Session. A read pump and a write pump run around a dispatch loop that handles
frames in arrival order.
*/
package chat

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	maxMessageSize = 32 * 1024

	// inboundBuffer is the number of frames read ahead of the dispatch loop.
	inboundBuffer = 16

	// WsCloseCodeSlowConsumer is a custom WebSocket Close Code (4000-4999 range)
	// sent when the session's outbound queue overflowed.
	WsCloseCodeSlowConsumer = 4008
)

// Client struct represents an active WebSocket connection and its session.
type Client struct {
	hub     *Hub
	session *Session

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// frames read from the connection, waiting for dispatch.
	inbound chan []byte

	// structured logger with session context.
	logger zerolog.Logger
}

// NewClient constructs and returns a new Client instance.
func NewClient(hub *Hub, session *Session, wsConn *websocket.Conn) *Client {
	return &Client{
		hub:     hub,
		session: session,
		conn:    wsConn,
		inbound: make(chan []byte, inboundBuffer),
		logger:  *session.Logger(),
	}
}

// Start launches the dispatch loop and both pumps.
func (c *Client) Start() {
	go c.WritePump()
	go c.dispatch()
	go c.ReadPump()
}

// ReadPump reads frames from the WebSocket connection and queues them for dispatch.
// It handles heartbeats (Pong) and tears the session down when the connection ends,
// independently of any event still being processed.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			return
		}

		select {
		case c.inbound <- frame:
		case <-c.session.Done():
			return
		}
	}
}

// cleanupOnDisconnect handles the necessary cleanup steps when the client's ReadPump terminates.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Debug().Msg("Client connection cleanup starting.")

	c.hub.Disconnect(c.session.SessionID())

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// dispatch handles queued frames one at a time, so events of one connection keep their order.
func (c *Client) dispatch() {
	for {
		select {
		case frame := <-c.inbound:
			c.hub.HandleRaw(c.session.Context(), c.session, frame)
		case <-c.session.Done():
			return
		}
	}
}

// WritePump writes queued events to the WebSocket connection until the session closes.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case data := <-c.session.Send():
			if !c.writeQueuedMessage(data) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}

		case <-c.session.Done():
			c.writeCloseMessage()
			return
		}
	}
}

// writeQueuedMessage writes one event to the WebSocket.
// Returns true if the WritePump loop should continue, false if it should terminate.
func (c *Client) writeQueuedMessage(data []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping message to maintain the connection heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// writeCloseMessage sends the close frame matching why the session ended.
func (c *Client) writeCloseMessage() {
	code, reason := websocket.CloseGoingAway, "server closing session"
	if c.session.Slow() {
		code, reason = WsCloseCodeSlowConsumer, "outbound queue overflow"
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return
	}
	if err := c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason)); err != nil {
		c.logger.Debug().Err(err).Int("close_code", code).Msg("Failed to send WS close message.")
	}
}
