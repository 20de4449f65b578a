package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	apperrors "github.com/ndmlinh/campusmeet-gateway/internal/errors"
)

const writeWait = 10 * time.Second

// Client wraps one websocket connection behind the gateway's Conn
// contract. Outbound frames go through a buffered send queue consumed by a
// single writer goroutine, so per-connection write order is preserved.
type Client struct {
	id   string
	ws   *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

func NewClient(id string, ws *websocket.Conn, sendBuffer int) *Client {
	return &Client{
		id:     id,
		ws:     ws,
		send:   make(chan []byte, sendBuffer),
		closed: make(chan struct{}),
	}
}

func (c *Client) ID() string {
	return c.id
}

// WriteText queues a text frame. A full queue counts as a failed send: a
// peer that cannot drain its socket does not get to stall the gateway.
func (c *Client) WriteText(data string) error {
	select {
	case <-c.closed:
		return apperrors.ErrConnectionClosed
	default:
	}

	select {
	case c.send <- []byte(data):
		return nil
	default:
		return apperrors.ErrSlowConsumer
	}
}

// Ping sends a websocket ping control frame. Safe to call concurrently
// with queued writes.
func (c *Client) Ping() error {
	select {
	case <-c.closed:
		return apperrors.ErrConnectionClosed
	default:
	}

	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.ws.Close()
	})
	return nil
}

// writePump drains the send queue onto the socket. Runs as the single
// writer goroutine for this connection.
func (c *Client) writePump() {
	defer c.Close()

	for {
		select {
		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}
