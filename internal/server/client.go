package server

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/npezzotti/go-social/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096
)

type ConnState int32

const (
	StateUnauthenticated ConnState = iota
	StateAuthenticating
	StateActive
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Client is one realtime connection. Its user is bound once during
// authentication and never changes afterwards.
type Client struct {
	id         string
	conn       *websocket.Conn
	chatServer *ChatServer
	log        *log.Logger
	user       types.User
	send       chan *ServerMessage
	state      atomic.Int32
	closeOnce  sync.Once
	stop       chan struct{}
}

func NewClient(conn *websocket.Conn, cs *ChatServer, l *log.Logger, sendBufferSize int) *Client {
	return &Client{
		id:         uuid.NewString(),
		conn:       conn,
		chatServer: cs,
		log:        l,
		send:       make(chan *ServerMessage, sendBufferSize),
		stop:       make(chan struct{}),
	}
}

func (c *Client) Id() string {
	return c.id
}

func (c *Client) User() types.User {
	return c.user
}

func (c *Client) State() ConnState {
	return ConnState(c.state.Load())
}

func (c *Client) setState(s ConnState) ConnState {
	return ConnState(c.state.Swap(int32(s)))
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Printf("write exiting for %q (%s)", c.user.Username, c.id)
	}()

	for {
		select {
		case msg := <-c.send:
			bytes, err := c.serializeMessage(msg)
			if err != nil {
				c.log.Println("failed to serialize message:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				c.close()
				return
			}
		case <-c.stop:
			c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait),
			)
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				c.close()
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.close()
		c.log.Printf("read exiting for %q (%s)", c.user.Username, c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Println("error parsing message:", err)
			c.queueMessage(ErrInvalidMessage(-1))
			continue
		}

		c.handleMessage(&msg)
	}
}

// handleMessage dispatches one inbound frame. Frames are only acted upon
// while the client is active.
func (c *Client) handleMessage(msg *ClientMessage) {
	if c.State() != StateActive {
		return
	}

	msg.Timestamp = Now()

	switch {
	case msg.Chat != nil:
		c.chatServer.handleChat(c, msg)
	case msg.History != nil:
		c.queueMessage(previousMessages(msg.Id, msg.History.FriendUsername))
	default:
		c.queueMessage(ErrInvalidMessage(msg.Id))
	}
}

// queueMessage enqueues msg without blocking. It reports false when the
// client is closed or its queue is full; the message is dropped in both cases.
func (c *Client) queueMessage(msg *ServerMessage) bool {
	if c.State() == StateClosed {
		return false
	}

	select {
	case c.send <- msg:
	default:
		c.log.Printf("failed to send message to %q, channel is full", c.user.Username)
		return false
	}

	return true
}

func (c *Client) serializeMessage(msg *ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

// close moves the client to Closed exactly once, stops the write pump and,
// if the client had been active, releases it from the server.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		prev := c.setState(StateClosed)
		close(c.stop)
		if prev == StateActive {
			c.chatServer.disconnect(c)
		}
	})
}
