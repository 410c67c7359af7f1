package server

import (
	"errors"
	"log"

	"github.com/npezzotti/go-social/internal/stats"
	"github.com/npezzotti/go-social/internal/types"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrEmptyBody       = errors.New("message body is empty")
)

type Delivery int

const (
	Undeliverable Delivery = iota
	Delivered
	Dropped
)

func (d Delivery) String() string {
	switch d {
	case Delivered:
		return "delivered"
	case Dropped:
		return "dropped"
	default:
		return "undeliverable"
	}
}

// MessageRouter delivers direct messages to the recipient's current
// connection. Delivery is at-most-once and nothing is stored.
type MessageRouter struct {
	log       *log.Logger
	registry  *Registry
	sanitizer Sanitizer
	stats     stats.StatsProvider
}

func NewMessageRouter(l *log.Logger, r *Registry, s Sanitizer, su stats.StatsProvider) *MessageRouter {
	return &MessageRouter{
		log:       l,
		registry:  r,
		sanitizer: s,
		stats:     su,
	}
}

// Route sanitizes rawBody and queues it to toUsername. A recipient that is
// not connected yields Undeliverable, a full recipient queue yields Dropped.
// Neither is an error.
func (mr *MessageRouter) Route(sender *types.User, toUsername, rawBody string) (Delivery, error) {
	if sender == nil {
		return Undeliverable, ErrUnauthenticated
	}

	body := mr.sanitizer.Sanitize(rawBody)
	if body == "" {
		return Undeliverable, ErrEmptyBody
	}

	recipient, ok := mr.registry.Lookup(toUsername)
	if !ok {
		mr.log.Printf("message from %q to %q undeliverable, recipient offline", sender.Username, toUsername)
		mr.stats.Incr(metricMessagesUndeliverable)
		return Undeliverable, nil
	}

	if !recipient.queueMessage(chatMessage(sender, toUsername, body)) {
		mr.log.Printf("message from %q to %q dropped", sender.Username, toUsername)
		mr.stats.Incr(metricMessagesDropped)
		return Dropped, nil
	}

	mr.stats.Incr(metricMessagesDelivered)
	return Delivered, nil
}
