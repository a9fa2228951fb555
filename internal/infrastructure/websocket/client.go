// Package websocket carries the read/write pumps for one realtime connection.
package websocket

import (
	"github.com/gorilla/websocket"

	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/logger"
)

const sendBufferSize = 256

// Client wraps one websocket connection. Outbound frames go through the Send
// channel so only the write pump touches the connection; inbound frames are
// handed to OnCommand.
type Client struct {
	UserID    string
	Conn      *websocket.Conn
	Send      chan []byte
	OnCommand func(payload []byte)
	OnClose   func()
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, sendBufferSize),
	}
}

// Enqueue hands a frame to the write pump without blocking. A client that
// cannot keep up has its frames dropped; state converges on the next snapshot.
func (c *Client) Enqueue(message []byte) {
	select {
	case c.Send <- message:
	default:
		logger.Warn("Dropping frame for slow websocket client %s", c.UserID)
	}
}

// ReadPump reads commands until the connection drops, then runs OnClose.
func (c *Client) ReadPump() {
	defer func() {
		if c.OnClose != nil {
			c.OnClose()
		}
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("Websocket read error for %s: %v", c.UserID, err)
			}
			break
		}

		if c.OnCommand != nil {
			c.OnCommand(message)
		}
	}
}

// WritePump drains Send onto the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Warn("Websocket write error for %s: %v", c.UserID, err)
			return
		}
	}
}
