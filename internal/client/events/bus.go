// Package events is the in-process change broadcast of the client. UI
// regions (header, sidebar, profile) subscribe to a topic and re-read the
// shared state they care about when an event arrives.
package events

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/fintrack/internal/logging"
)

// Topic names a class of shared state.
type Topic string

const (
	TopicSettings Topic = "settings"
	TopicUser     Topic = "user"
	TopicSession  Topic = "session"
)

// Event tells subscribers that the shared state behind Topic changed.
// Fields lists the changed field names when the publisher knows them.
type Event struct {
	Topic  Topic
	Fields []string
}

// Has reports whether field is among the changed fields.
func (e Event) Has(field string) bool {
	return slices.Contains(e.Fields, field)
}

// Subscription receives events for one topic on C until it is closed.
type Subscription struct {
	C     <-chan Event
	ch    chan Event
	topic Topic
	bus   *Bus
	once  sync.Once
}

// Close unsubscribes and closes C. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.unsubscribe(s)
	})
}

// Bus fans events out to subscribers. Publishing never blocks: when a
// subscriber's buffer is full the event is dropped for that subscriber.
type Bus struct {
	mu   sync.RWMutex
	subs map[Topic]map[*Subscription]struct{}
	log  logging.Logger
}

func NewBus(log logging.Logger) *Bus {
	if log == nil {
		log = logging.Nop()
	}
	return &Bus{
		subs: make(map[Topic]map[*Subscription]struct{}),
		log:  log,
	}
}

// Subscribe registers a subscriber for topic with the given buffer size
// (at least 1).
func (b *Bus) Subscribe(topic Topic, buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	sub := &Subscription{C: ch, ch: ch, topic: topic, bus: b}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[topic]; !ok {
		b.subs[topic] = make(map[*Subscription]struct{})
	}
	b.subs[topic][sub] = struct{}{}
	return sub
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.subs[sub.topic]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(b.subs, sub.topic)
		}
	}
	close(sub.ch)
}

// Publish delivers e to every current subscriber of e.Topic.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs[e.Topic] {
		select {
		case sub.ch <- e:
		default:
			b.log.Debug(context.Background(), "subscriber buffer full, event dropped", "topic", string(e.Topic))
		}
	}
}

// Subscribers returns the number of subscribers of topic.
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
