package server

import (
	"log"
)

// PresenceBroadcaster tells every other registered client when a user comes
// online or goes offline. Broadcasts are best effort: a client whose queue is
// full misses the notification.
type PresenceBroadcaster struct {
	log      *log.Logger
	registry *Registry
}

func NewPresenceBroadcaster(l *log.Logger, r *Registry) *PresenceBroadcaster {
	return &PresenceBroadcaster{
		log:      l,
		registry: r,
	}
}

// Online announces c to all other registered clients and returns how many
// accepted the notification.
func (pb *PresenceBroadcaster) Online(c *Client) int {
	return pb.broadcast(userOnline(c.user.Username), c)
}

// Offline announces that username left. The departing client must already be
// released from the registry.
func (pb *PresenceBroadcaster) Offline(username string) int {
	return pb.broadcast(userOffline(username), nil)
}

func (pb *PresenceBroadcaster) broadcast(msg *ServerMessage, skip *Client) int {
	var delivered int
	for _, c := range pb.registry.Clients(skip) {
		if !c.queueMessage(msg) {
			continue
		}
		delivered++
	}

	return delivered
}
