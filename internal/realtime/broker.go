// Package realtime implements the change feed: row-level insert, update
// and delete events published after each successful store write, consumed
// through cancelable, filter-scoped subscriptions.
package realtime

import (
	"sync"

	"github.com/rdevries/kantoor/internal/metrics"
)

type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Event is one row-level change. Scope carries the columns subscriptions
// filter on (channel_id for messages, user_id for notifications). Row
// holds the row as it was written; consumers that need joins re-fetch by
// ID instead of trusting the payload.
type Event struct {
	Table string
	Type  EventType
	ID    string
	Scope map[string]string
	Row   any
}

// Filter is an equality predicate over an event's scope columns. A nil
// or empty filter matches every event on the table.
type Filter map[string]string

func (f Filter) matches(e Event) bool {
	for k, want := range f {
		if e.Scope[k] != want {
			return false
		}
	}
	return true
}

// Subscription is a live feed handle. Events arrive on C in publish
// order until Cancel is called. Cancel is idempotent and closes C.
type Subscription struct {
	C      chan Event
	broker *Broker
	table  string
	filter Filter
	once   sync.Once
}

func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.broker.remove(s)
		close(s.C)
	})
}

// Broker fans change events out to subscribers. Publish never blocks the
// writer: a subscriber that falls more than subscriptionBuffer events
// behind loses the oldest ones, which is safe because consumers treat the
// feed as an invalidation signal over a refetchable store, not as the
// source of truth.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{} // table -> subscriptions
}

const subscriptionBuffer = 64

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscribe registers a live feed for one table, optionally narrowed by
// an equality filter. The caller owns the returned handle and must
// Cancel it; a second handle for the same scope is a duplicate feed.
func (b *Broker) Subscribe(table string, filter Filter) *Subscription {
	sub := &Subscription{
		C:      make(chan Event, subscriptionBuffer),
		broker: b,
		table:  table,
		filter: filter,
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[table] == nil {
		b.subs[table] = make(map[*Subscription]struct{})
	}
	b.subs[table][sub] = struct{}{}
	return sub
}

// Publish delivers e to every matching subscription.
func (b *Broker) Publish(e Event) {
	metrics.FeedEventsTotal.WithLabelValues(e.Table).Inc()
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs[e.Table] {
		if !sub.filter.matches(e) {
			continue
		}
		select {
		case sub.C <- e:
		default:
			// Slow consumer: drop the oldest event to make room so the
			// newest state is what survives.
			select {
			case <-sub.C:
			default:
			}
			select {
			case sub.C <- e:
			default:
			}
		}
	}
}

func (b *Broker) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if set, ok := b.subs[s.table]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(b.subs, s.table)
		}
	}
}

// SubscriberCount reports the number of live subscriptions for a table.
// Used by tests and the metrics gauge.
func (b *Broker) SubscriberCount(table string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[table])
}
