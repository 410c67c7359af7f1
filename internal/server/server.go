package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/go-social/internal/stats"
	"github.com/npezzotti/go-social/internal/types"
)

const (
	metricActiveClients          = "NumActiveClients"
	metricMessagesDelivered      = "NumMessagesDelivered"
	metricMessagesUndeliverable  = "NumMessagesUndeliverable"
	metricMessagesDropped        = "NumMessagesDropped"
	metricEventFullNotifications = "NumEventFullNotifications"
)

var (
	ErrShuttingDown = errors.New("server is shutting down")

	// errClosedOnShutdown is returned when shutdown began after the upgrade
	// response was already written.
	errClosedOnShutdown = errors.New("connection closed on shutdown")
)

// SessionBridge resolves the user behind an HTTP upgrade request using the
// same session the REST API uses.
type SessionBridge interface {
	Identify(r *http.Request) (types.User, bool)
}

type SessionBridgeFunc func(r *http.Request) (types.User, bool)

func (f SessionBridgeFunc) Identify(r *http.Request) (types.User, bool) {
	return f(r)
}

type Option func(*ChatServer)

func WithSendBufferSize(n int) Option {
	return func(cs *ChatServer) {
		cs.sendBufferSize = n
	}
}

func WithSanitizer(s Sanitizer) Option {
	return func(cs *ChatServer) {
		cs.sanitizer = s
	}
}

// JoinOutcome is what the event store observed while admitting a participant.
type JoinOutcome struct {
	EventId      string
	EventName    string
	BeforeCount  int
	AfterCount   int
	Capacity     int
	Participants []types.User
}

type ChatServer struct {
	log            *log.Logger
	bridge         SessionBridge
	stats          stats.StatsProvider
	sanitizer      Sanitizer
	sendBufferSize int
	registry       *Registry
	router         *MessageRouter
	presence       *PresenceBroadcaster
	capacity       *CapacityWatcher

	// transitionMu serializes registry mutations with the presence broadcast
	// they cause, so every observer sees online/offline in transition order.
	transitionMu sync.Mutex
	shuttingDown bool
	wg           sync.WaitGroup
}

func NewChatServer(logger *log.Logger, bridge SessionBridge, su stats.StatsProvider, opts ...Option) (*ChatServer, error) {
	if bridge == nil {
		return nil, fmt.Errorf("session bridge cannot be nil")
	}

	cs := &ChatServer{
		log:            logger,
		bridge:         bridge,
		stats:          su,
		sendBufferSize: 256,
		registry:       NewRegistry(),
	}

	for _, opt := range opts {
		opt(cs)
	}

	if cs.sendBufferSize <= 0 {
		return nil, fmt.Errorf("send buffer size must be positive, got %d", cs.sendBufferSize)
	}
	if cs.sanitizer == nil {
		cs.sanitizer = NewHTMLSanitizer()
	}

	cs.router = NewMessageRouter(logger, cs.registry, cs.sanitizer, su)
	cs.presence = NewPresenceBroadcaster(logger, cs.registry)
	cs.capacity = NewCapacityWatcher(logger, cs.registry, su)

	su.RegisterMetric(metricActiveClients)
	su.RegisterMetric(metricMessagesDelivered)
	su.RegisterMetric(metricMessagesUndeliverable)
	su.RegisterMetric(metricMessagesDropped)
	su.RegisterMetric(metricEventFullNotifications)

	return cs, nil
}

// Connect authenticates r, upgrades it to a websocket and activates the
// resulting client. Authentication failures return ErrUnauthenticated before
// anything is written to w.
func (cs *ChatServer) Connect(w http.ResponseWriter, r *http.Request, upgrader *websocket.Upgrader) (*Client, error) {
	if cs.isShuttingDown() {
		return nil, ErrShuttingDown
	}

	c := NewClient(nil, cs, cs.log, cs.sendBufferSize)
	c.setState(StateAuthenticating)

	user, ok := cs.bridge.Identify(r)
	if !ok || user.Username == "" {
		c.setState(StateClosed)
		return nil, ErrUnauthenticated
	}
	c.user = user

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.setState(StateClosed)
		return nil, fmt.Errorf("upgrade connection: %w", err)
	}
	c.conn = conn

	if err := cs.activate(c); err != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait),
		)
		conn.Close()
		return nil, err
	}

	go func() {
		defer cs.wg.Done()
		c.Write()
	}()
	go func() {
		defer cs.wg.Done()
		c.Read()
	}()

	cs.log.Printf("%q connected (%s)", user.Username, c.id)
	return c, nil
}

// activate registers c, announces it and queues its welcome. A client that
// held the same username is closed without an offline broadcast.
func (cs *ChatServer) activate(c *Client) error {
	cs.transitionMu.Lock()
	if cs.shuttingDown {
		cs.transitionMu.Unlock()
		c.setState(StateClosed)
		return errClosedOnShutdown
	}

	superseded := cs.registry.Register(c.user.Username, c)
	c.setState(StateActive)
	cs.stats.Incr(metricActiveClients)
	cs.presence.Online(c)
	c.queueMessage(welcomeMessage(c.user))
	cs.wg.Add(2)
	cs.transitionMu.Unlock()

	if superseded != nil {
		cs.log.Printf("closing superseded connection %s for %q", superseded.id, c.user.Username)
		superseded.close()
	}

	return nil
}

// disconnect is called once per active client when it closes.
func (cs *ChatServer) disconnect(c *Client) {
	cs.transitionMu.Lock()
	defer cs.transitionMu.Unlock()

	cs.stats.Decr(metricActiveClients)
	if cs.registry.Release(c.user.Username, c) {
		cs.presence.Offline(c.user.Username)
		cs.log.Printf("%q disconnected (%s)", c.user.Username, c.id)
	}
}

func (cs *ChatServer) handleChat(c *Client, msg *ClientMessage) {
	user := c.User()
	delivery, err := cs.router.Route(&user, msg.Chat.ToUsername, msg.Chat.Message)
	if err != nil {
		if errors.Is(err, ErrEmptyBody) {
			c.queueMessage(ErrEmptyMessage(msg.Id))
			return
		}

		cs.log.Printf("route message from %q: %v", user.Username, err)
		c.queueMessage(ErrInvalidMessage(msg.Id))
		return
	}

	if delivery != Delivered {
		cs.log.Printf("message %d from %q to %q: %s", msg.Id, user.Username, msg.Chat.ToUsername, delivery)
	}
}

// ObserveJoin checks a join against the capacity threshold and notifies the
// connected participants when the event just became full. It reports whether
// the threshold was crossed.
func (cs *ChatServer) ObserveJoin(j JoinOutcome) bool {
	evt := CapacityEvent{
		EventId:      j.EventId,
		EventName:    j.EventName,
		CrossedFull:  Evaluate(j.BeforeCount, j.AfterCount, j.Capacity),
		Participants: j.Participants,
	}

	cs.capacity.Observe(evt)
	return evt.CrossedFull
}

func (cs *ChatServer) IsOnline(username string) bool {
	_, ok := cs.registry.Lookup(username)
	return ok
}

// Online returns the sorted usernames of all connected users.
func (cs *ChatServer) Online() []string {
	return cs.registry.Snapshot()
}

func (cs *ChatServer) isShuttingDown() bool {
	cs.transitionMu.Lock()
	defer cs.transitionMu.Unlock()

	return cs.shuttingDown
}

// Shutdown rejects new connections, closes every client and waits for their
// pumps to exit or for ctx to be done.
func (cs *ChatServer) Shutdown(ctx context.Context) error {
	cs.log.Println("shutting down chat server")

	cs.transitionMu.Lock()
	cs.shuttingDown = true
	clients := cs.registry.Clients(nil)
	cs.transitionMu.Unlock()

	for _, c := range clients {
		c.close()
	}

	done := make(chan struct{})
	go func() {
		cs.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
