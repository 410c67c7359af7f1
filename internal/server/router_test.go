package server

import (
	"testing"

	"github.com/npezzotti/go-social/internal/stats"
	"github.com/npezzotti/go-social/internal/testutil"
	"github.com/npezzotti/go-social/internal/types"
	"github.com/stretchr/testify/assert"
)

func newTestRouter(t *testing.T, su *stats.MockStatsUpdater) (*MessageRouter, *Registry) {
	r := NewRegistry()
	return NewMessageRouter(testutil.TestLogger(t), r, NewHTMLSanitizer(), su), r
}

func TestMessageRouter_Route(t *testing.T) {
	alice := &types.User{Id: 1, Username: "alice"}

	t.Run("delivered", func(t *testing.T) {
		su := &stats.MockStatsUpdater{}
		su.On("Incr", metricMessagesDelivered).Once()
		defer su.AssertExpectations(t)

		mr, reg := newTestRouter(t, su)
		bob := &Client{log: testutil.TestLogger(t), send: make(chan *ServerMessage, 1)}
		reg.Register("bob", bob)

		delivery, err := mr.Route(alice, "bob", "<i>hello</i> bob")
		assert.NoError(t, err)
		assert.Equal(t, Delivered, delivery)

		msg := <-bob.send
		assert.Equal(t, "hello bob", msg.ChatMessage.Message, "expected markup to be stripped")
		assert.Equal(t, "alice", msg.ChatMessage.Username)
		assert.Equal(t, 1, msg.ChatMessage.UserId)
		assert.Equal(t, "bob", msg.ChatMessage.ToUsername)
	})

	t.Run("recipient offline", func(t *testing.T) {
		su := &stats.MockStatsUpdater{}
		su.On("Incr", metricMessagesUndeliverable).Once()
		defer su.AssertExpectations(t)

		mr, _ := newTestRouter(t, su)

		delivery, err := mr.Route(alice, "bob", "hello")
		assert.NoError(t, err, "expected an offline recipient not to be an error")
		assert.Equal(t, Undeliverable, delivery)
	})

	t.Run("recipient queue full", func(t *testing.T) {
		su := &stats.MockStatsUpdater{}
		su.On("Incr", metricMessagesDropped).Once()
		defer su.AssertExpectations(t)

		mr, reg := newTestRouter(t, su)
		bob := &Client{log: testutil.TestLogger(t), send: make(chan *ServerMessage, 1)}
		bob.send <- &ServerMessage{}
		reg.Register("bob", bob)

		delivery, err := mr.Route(alice, "bob", "hello")
		assert.NoError(t, err)
		assert.Equal(t, Dropped, delivery)
		assert.Len(t, bob.send, 1, "expected the queued message to be untouched")
	})

	t.Run("empty body", func(t *testing.T) {
		tcases := []string{"", "   ", "<b></b>", "<script>alert(1)</script>"}
		for _, body := range tcases {
			su := &stats.MockStatsUpdater{}
			mr, reg := newTestRouter(t, su)
			bob := &Client{log: testutil.TestLogger(t), send: make(chan *ServerMessage, 1)}
			reg.Register("bob", bob)

			delivery, err := mr.Route(alice, "bob", body)
			assert.ErrorIs(t, err, ErrEmptyBody, "expected empty body error for %q", body)
			assert.Equal(t, Undeliverable, delivery)
			assert.Len(t, bob.send, 0, "expected nothing delivered for %q", body)
			su.AssertNumberOfCalls(t, "Incr", 0)
		}
	})

	t.Run("unauthenticated sender", func(t *testing.T) {
		su := &stats.MockStatsUpdater{}
		mr, reg := newTestRouter(t, su)
		bob := &Client{log: testutil.TestLogger(t), send: make(chan *ServerMessage, 1)}
		reg.Register("bob", bob)

		delivery, err := mr.Route(nil, "bob", "hello")
		assert.ErrorIs(t, err, ErrUnauthenticated)
		assert.Equal(t, Undeliverable, delivery)
		assert.Len(t, bob.send, 0)
	})

	t.Run("self send", func(t *testing.T) {
		su := &stats.MockStatsUpdater{}
		su.On("Incr", metricMessagesDelivered).Once()
		defer su.AssertExpectations(t)

		mr, reg := newTestRouter(t, su)
		self := &Client{log: testutil.TestLogger(t), send: make(chan *ServerMessage, 1)}
		reg.Register("alice", self)

		delivery, err := mr.Route(alice, "alice", "note to self")
		assert.NoError(t, err)
		assert.Equal(t, Delivered, delivery)
	})
}

func TestDelivery_String(t *testing.T) {
	assert.Equal(t, "delivered", Delivered.String())
	assert.Equal(t, "undeliverable", Undeliverable.String())
	assert.Equal(t, "dropped", Dropped.String())
}

func TestHTMLSanitizer_Sanitize(t *testing.T) {
	tcases := []struct {
		input    string
		expected string
	}{
		{"hello", "hello"},
		{"  padded  ", "padded"},
		{"<b>bold</b>", "bold"},
		{`<a href="http://example.com">link</a>`, "link"},
		{"<script>alert(1)</script>", ""},
		{"a & b", "a &amp; b"},
	}

	s := NewHTMLSanitizer()
	for _, tc := range tcases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, s.Sanitize(tc.input))
		})
	}
}
