package chat

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"duochat/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client. Clients
	// emit nothing meaningful on this channel, so the limit is tight.
	maxInboundSize = 512

	// sendQueueSize is the per-client buffered send queue capacity.
	sendQueueSize = 256

	// WsCloseCodeSessionKicked is a custom WebSocket Close Code (4000-4999 range)
	// used to signal the client that the session was replaced by a new connection.
	WsCloseCodeSessionKicked = 4001
)

// Client is the websocket implementation of Channel: one authenticated user's
// single push connection.
type Client struct {
	conn   *websocket.Conn
	userID string

	// mu guards closed and closeMsg, and serializes Send against teardown.
	// The registry can still hand this client to a sender between the read
	// pump exiting and the disconnect handler unregistering it; a push in
	// that window must be dropped, not land on a closed channel.
	mu       sync.Mutex
	closed   bool
	closeMsg []byte

	// send queues payloads waiting to be written to the socket.
	send chan []byte

	logger zerolog.Logger
}

// NewClient wraps an upgraded websocket connection for the given user.
func NewClient(conn *websocket.Conn, userID string) *Client {
	return &Client{
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendQueueSize),
		logger: logx.Logger().With().Str("client_id", userID).Logger(),
	}
}

// Send implements Channel. It queues the payload without blocking; a full
// queue means the reader fell behind and the push is dropped, and a teardown
// in progress drops the push with an error.
func (c *Client) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New("client channel closed")
	}

	select {
	case c.send <- payload:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send channel full, dropping payload")
		return errors.New("client send queue full")
	}
}

// Kick implements Channel. It tells the client its session was replaced and
// shuts the write side down. The close frame is written by WritePump, which
// owns the connection's write side.
func (c *Client) Kick(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.logger.Warn().
		Int("close_code", WsCloseCodeSessionKicked).
		Str("reason", reason).
		Msg("Kicking client: session replaced.")

	c.closeMsg = websocket.FormatCloseMessage(WsCloseCodeSessionKicked, reason)
	c.closed = true
	close(c.send)
}

// closeSend closes the send queue exactly once, which terminates WritePump.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// closeMessage returns the close frame WritePump should emit when the send
// queue drains: the kick frame if one was set, an empty close otherwise.
func (c *Client) closeMessage() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closeMsg != nil {
		return c.closeMsg
	}
	return []byte{}
}

// ReadPump services inbound control frames (Pong, Close) until the connection
// dies. Clients send no application events over the channel, so any data frame
// is read and discarded. Blocks; the caller performs registry cleanup after it
// returns.
func (c *Client) ReadPump() {
	defer func() {
		c.closeSend()
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error")
		}
	}()

	c.conn.SetReadLimit(maxInboundSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			return
		}
	}
}

// WritePump drains the send queue onto the socket and keeps the connection
// alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline")
				return
			}

			if !ok {
				if err := c.conn.WriteMessage(websocket.CloseMessage, c.closeMessage()); err != nil {
					c.logger.Debug().Err(err).Msg("Error writing close message")
				}
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Error().Err(err).Msg("Error writing message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Error().Err(err).Msg("Error writing ping")
				return
			}
		}
	}
}
