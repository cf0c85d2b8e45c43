package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Connection timings. pingInterval must stay below pongTimeout.
const (
	writeTimeout   = 10 * time.Second
	pongTimeout    = 60 * time.Second
	pingInterval   = pongTimeout * 9 / 10
	inboundLimit   = 512
	outboundBuffer = 256
)

// Client is one dashboard connection. Clients only receive; anything they
// send is read to keep the connection alive and then dropped.
type Client struct {
	id        string
	actor     string
	conn      *websocket.Conn
	hub       *Hub
	outbound  chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient wraps an upgraded connection for actor
func NewClient(conn *websocket.Conn, actor string, hub *Hub) *Client {
	return &Client{
		id:       uuid.NewString(),
		actor:    actor,
		conn:     conn,
		hub:      hub,
		outbound: make(chan []byte, outboundBuffer),
		done:     make(chan struct{}),
	}
}

func (c *Client) ID() string    { return c.id }
func (c *Client) Actor() string { return c.actor }

// Send queues data for delivery. A client whose buffer is full is
// unregistered and disconnected; the dashboard reconnects and refetches.
func (c *Client) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.outbound <- data:
		return nil
	case <-c.done:
		return ErrClientClosed
	default:
		log.Warn().Str("client_id", c.id).Str("actor", c.actor).Msg("WebSocket client too slow, disconnecting")
		c.hub.Unregister(c)
		_ = c.Close()
		return ErrClientClosed
	}
}

// Close stops both pumps and closes the connection. It may be called more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// Serve runs the connection until either side goes away, then removes the
// client from its hub. It blocks; callers start it in its own goroutine.
func (c *Client) Serve() {
	go c.writeLoop()
	c.readLoop()
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(inboundLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("client_id", c.id).Str("actor", c.actor).Msg("WebSocket closed unexpectedly")
			}
			return
		}
	}
}

func (c *Client) writeLoop() {
	pings := time.NewTicker(pingInterval)
	defer func() {
		pings.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case message := <-c.outbound:
			if err := c.write(websocket.TextMessage, message); err != nil {
				log.Warn().Err(err).Str("client_id", c.id).Str("actor", c.actor).Msg("WebSocket write failed")
				return
			}
		case <-pings.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
