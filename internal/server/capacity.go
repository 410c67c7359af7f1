package server

import (
	"log"

	"github.com/npezzotti/go-social/internal/stats"
	"github.com/npezzotti/go-social/internal/types"
	"github.com/samber/lo"
)

// Evaluate reports whether a join moved an event from below capacity to at or
// above it. Joins that happen once the event is already full never qualify.
func Evaluate(beforeCount, afterCount, capacity int) bool {
	return beforeCount < capacity && afterCount >= capacity
}

type CapacityEvent struct {
	EventId      string
	EventName    string
	CrossedFull  bool
	Participants []types.User
}

// CapacityWatcher notifies the connected participants of an event that just
// became full.
type CapacityWatcher struct {
	log      *log.Logger
	registry *Registry
	stats    stats.StatsProvider
}

func NewCapacityWatcher(l *log.Logger, r *Registry, su stats.StatsProvider) *CapacityWatcher {
	return &CapacityWatcher{
		log:      l,
		registry: r,
		stats:    su,
	}
}

// Observe sends an event_full notification to each connected participant
// when evt crossed the capacity threshold. It returns the number of
// participants that accepted the notification.
func (w *CapacityWatcher) Observe(evt CapacityEvent) int {
	if !evt.CrossedFull {
		return 0
	}

	msg := eventFull(evt.EventId, evt.EventName)
	participants := lo.UniqBy(evt.Participants, func(u types.User) int { return u.Id })

	var reached int
	for _, p := range participants {
		c, ok := w.registry.Lookup(p.Username)
		if !ok {
			continue
		}
		if c.queueMessage(msg) {
			reached++
		}
	}

	w.stats.Incr(metricEventFullNotifications)
	w.log.Printf("event %q is full, notified %d of %d participants", evt.EventId, reached, len(participants))

	return reached
}
