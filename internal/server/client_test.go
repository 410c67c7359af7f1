package server

import (
	"testing"
	"time"

	"github.com/npezzotti/go-social/internal/testutil"
	"github.com/npezzotti/go-social/internal/types"
	"github.com/stretchr/testify/assert"
)

func Test_queueMessage(t *testing.T) {
	t.Run("successful queue", func(t *testing.T) {
		c := &Client{
			send: make(chan *ServerMessage, 1),
			log:  testutil.TestLogger(t),
		}

		res := c.queueMessage(&ServerMessage{})
		assert.True(t, res, "expected queueMessage to return true when channel is not full")

		select {
		case msg := <-c.send:
			assert.NotNil(t, msg, "expected a message to be sent to the client")
		default:
			t.Error("expected a message to be sent to the client, but none was sent")
		}
	})

	t.Run("channel full", func(t *testing.T) {
		c := &Client{
			send: make(chan *ServerMessage, 1),
			log:  testutil.TestLogger(t),
		}

		c.send <- &ServerMessage{}
		res := c.queueMessage(&ServerMessage{})
		assert.False(t, res, "expected queueMessage to return false when channel is full")
	})

	t.Run("closed client", func(t *testing.T) {
		c := &Client{
			send: make(chan *ServerMessage, 1),
			log:  testutil.TestLogger(t),
		}
		c.setState(StateClosed)

		res := c.queueMessage(&ServerMessage{})
		assert.False(t, res, "expected queueMessage to return false for a closed client")
		assert.Len(t, c.send, 0)
	})
}

func Test_serializeMessage(t *testing.T) {
	message := &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        1,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: 400,
			Error:        "bad",
		},
	}

	expected := `{"id":1,"timestamp":"` + message.Timestamp.Format(time.RFC3339Nano) +
		`","response":{"response_code":400,"error":"bad"}}`

	c := &Client{}
	bytes, err := c.serializeMessage(message)
	assert.NoError(t, err, "expected no error during serialization")
	assert.Equal(t, expected, string(bytes), "expected serialized message to match the expected format")
}

func TestConnState_String(t *testing.T) {
	tcases := []struct {
		state    ConnState
		expected string
	}{
		{StateUnauthenticated, "unauthenticated"},
		{StateAuthenticating, "authenticating"},
		{StateActive, "active"},
		{StateClosed, "closed"},
		{ConnState(99), "unknown"},
	}

	for _, tc := range tcases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.state.String())
		})
	}
}

func TestNewClient(t *testing.T) {
	c1 := NewClient(nil, nil, testutil.TestLogger(t), 8)
	c2 := NewClient(nil, nil, testutil.TestLogger(t), 8)

	assert.NotEmpty(t, c1.Id(), "expected client id to be set")
	assert.NotEqual(t, c1.Id(), c2.Id(), "expected client ids to be unique")
	assert.Equal(t, 8, cap(c1.send))
	assert.Equal(t, StateUnauthenticated, c1.State())
}

func TestClient_close(t *testing.T) {
	t.Run("closes once and releases active client", func(t *testing.T) {
		su := newTestStats(t)
		cs := newTestChatServer(t, su)
		c := newTestClient(t, cs, 1, "alice")
		assert.NoError(t, cs.activate(c))

		c.close()
		c.close()

		assert.Equal(t, StateClosed, c.State())
		select {
		case <-c.stop:
		default:
			t.Error("expected stop channel to be closed")
		}
		assert.False(t, cs.IsOnline("alice"), "expected alice to be released")
		su.AssertNumberOfCalls(t, "Decr", 1)
	})

	t.Run("client that never became active", func(t *testing.T) {
		su := newTestStats(t)
		cs := newTestChatServer(t, su)
		c := newTestClient(t, cs, 1, "alice")

		c.close()

		assert.Equal(t, StateClosed, c.State())
		su.AssertNotCalled(t, "Decr", metricActiveClients)
	})
}

func TestClient_handleMessage(t *testing.T) {
	t.Run("history request", func(t *testing.T) {
		cs := newTestChatServer(t, newTestStats(t))
		c := newTestClient(t, cs, 1, "alice")
		c.setState(StateActive)

		c.handleMessage(&ClientMessage{
			BaseMessage: BaseMessage{Id: 4},
			History:     &HistoryRequest{FriendUsername: "bob"},
		})

		msg := <-c.send
		assert.NotNil(t, msg.PreviousMessages)
		assert.Equal(t, 4, msg.Id)
		assert.Equal(t, "bob", msg.PreviousMessages.FriendUsername)
		assert.Empty(t, msg.PreviousMessages.Messages)
	})

	t.Run("unknown frame", func(t *testing.T) {
		cs := newTestChatServer(t, newTestStats(t))
		c := newTestClient(t, cs, 1, "alice")
		c.setState(StateActive)

		c.handleMessage(&ClientMessage{BaseMessage: BaseMessage{Id: 9}})

		msg := <-c.send
		assert.NotNil(t, msg.Response)
		assert.Equal(t, 9, msg.Id)
		assert.Equal(t, 400, msg.Response.ResponseCode)
	})

	t.Run("ignored when not active", func(t *testing.T) {
		cs := newTestChatServer(t, newTestStats(t))
		for _, state := range []ConnState{StateUnauthenticated, StateAuthenticating, StateClosed} {
			c := newTestClient(t, cs, 1, "alice")
			c.setState(state)

			c.handleMessage(&ClientMessage{
				History: &HistoryRequest{FriendUsername: "bob"},
			})
			assert.Len(t, c.send, 0, "expected no reply in state %s", state)
		}
	})

	t.Run("empty chat body", func(t *testing.T) {
		cs := newTestChatServer(t, newTestStats(t))
		alice := newTestClient(t, cs, 1, "alice")
		bob := newTestClient(t, cs, 2, "bob")
		alice.setState(StateActive)
		cs.registry.Register("bob", bob)

		alice.handleMessage(&ClientMessage{
			BaseMessage: BaseMessage{Id: 2},
			Chat:        &ChatSend{ToUsername: "bob", Message: "  <b></b> "},
		})

		msg := <-alice.send
		assert.NotNil(t, msg.Response)
		assert.Equal(t, 2, msg.Id)
		assert.Equal(t, "message cannot be empty", msg.Response.Error)
		assert.Len(t, bob.send, 0, "expected nothing delivered to bob")
		assert.Equal(t, StateActive, alice.State(), "expected sender to stay active")
	})

	t.Run("chat delivered", func(t *testing.T) {
		cs := newTestChatServer(t, newTestStats(t))
		alice := newTestClient(t, cs, 1, "alice")
		bob := newTestClient(t, cs, 2, "bob")
		alice.setState(StateActive)
		cs.registry.Register("bob", bob)

		alice.handleMessage(&ClientMessage{
			BaseMessage: BaseMessage{Id: 1},
			Chat:        &ChatSend{ToUsername: "bob", Message: "hello"},
		})

		assert.Len(t, alice.send, 0, "expected no acknowledgement to the sender")
		msg := <-bob.send
		assert.Equal(t, &ChatMessage{
			Message:    "hello",
			Username:   "alice",
			UserId:     1,
			ToUsername: "bob",
			Timestamp:  msg.ChatMessage.Timestamp,
		}, msg.ChatMessage)
	})
}

func newTestClient(t *testing.T, cs *ChatServer, id int, username string) *Client {
	c := NewClient(nil, cs, testutil.TestLogger(t), 16)
	c.user = types.User{Id: id, Username: username}
	return c
}
