package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/meetsync/signal-server/internal/domain"
	pkglog "github.com/meetsync/signal-server/pkg/log"
)

// Options bound the WebSocket read/write behaviour of each client.
type Options struct {
	PingInterval   time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
}

// DisconnectHandler is called when a client's transport closes, before the
// client is unregistered.
type DisconnectHandler func(*Client)

// Client represents one connected WebSocket peer. Send is never closed;
// the hub signals teardown through the quit channel so a late SendMessage
// can race an unregister without panicking.
type Client struct {
	ID      string
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	Session *domain.Session
	Options Options

	quit      chan struct{}
	closeOnce sync.Once

	disconnectHandler DisconnectHandler
}

// Done is closed once the hub has discarded the client.
func (c *Client) Done() <-chan struct{} {
	return c.quit
}

// shutdown signals WritePump to drain off. Safe to call more than once.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		if c.quit != nil {
			close(c.quit)
		}
	})
}

// SetDisconnectHandler sets the handler to be called on disconnect.
func (c *Client) SetDisconnectHandler(handler DisconnectHandler) {
	c.disconnectHandler = handler
}

// SendMessage marshals and queues a message for the client. Sends never
// block; a full buffer drops the message.
func (c *Client) SendMessage(message interface{}) error {
	data, err := encode(message)
	if err != nil {
		return err
	}
	c.enqueue(data)
	return nil
}

// enqueue pushes a frame without blocking. Reports false when the client's
// buffer is full.
func (c *Client) enqueue(data []byte) bool {
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// ReadPump pumps frames from the WebSocket connection into the handler.
// Teardown is idempotent: the disconnect handler runs once, then the client
// unregisters.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer func() {
		if c.disconnectHandler != nil {
			c.disconnectHandler(c)
		}
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Options.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Options.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Options.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				pkglog.L().Error().Err(err).Str(pkglog.FieldConnectionID, c.ID).Msg("websocket error")
			}
			break
		}

		if c.Session != nil {
			c.Session.UpdateActivity()
		}

		handler(c, message)
	}
}

// WritePump drains the Send channel onto the WebSocket connection and keeps
// the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.Options.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Options.WriteWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Options.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.quit:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Options.WriteWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func encode(message interface{}) ([]byte, error) {
	if data, ok := message.([]byte); ok {
		return data, nil
	}
	return json.Marshal(message)
}
