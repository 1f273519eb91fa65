// Package broadcast fans events out to live subscribers. Publishing never
// blocks: a subscriber whose buffer is full misses the event.
package broadcast

import (
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/me/linsched/pkg/model"
)

// DefaultBuffer is the per-subscriber channel capacity used when Subscribe
// is called with a non-positive size.
const DefaultBuffer = 64

// Broadcaster delivers each published event to every current subscriber.
type Broadcaster struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	dropped prometheus.Counter
	gauge   prometheus.Gauge
	logger  *slog.Logger
}

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithDroppedCounter counts events lost to full subscriber buffers.
func WithDroppedCounter(c prometheus.Counter) Option {
	return func(b *Broadcaster) { b.dropped = c }
}

// WithSubscriberGauge tracks the number of live subscribers.
func WithSubscriberGauge(g prometheus.Gauge) Option {
	return func(b *Broadcaster) { b.gauge = g }
}

// New creates a Broadcaster.
func New(logger *slog.Logger, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		subs:   make(map[*Subscription]struct{}),
		logger: logger.With("component", "broadcast"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscription is one observer's event stream. Events arrive on C until
// Close is called.
type Subscription struct {
	C <-chan model.Event

	ch   chan model.Event
	b    *Broadcaster
	once sync.Once
}

// Subscribe registers a new observer with a buffer of the given size.
func (b *Broadcaster) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan model.Event, buffer)
	s := &Subscription{C: ch, ch: ch, b: b}

	b.mu.Lock()
	b.subs[s] = struct{}{}
	n := len(b.subs)
	b.mu.Unlock()

	b.setGauge(n)
	b.logger.Debug("subscriber added", "subscribers", n)
	return s
}

// Close unregisters the subscription and closes C. Safe to call more than
// once and concurrently with Publish.
func (s *Subscription) Close() {
	s.once.Do(func() {
		b := s.b
		b.mu.Lock()
		delete(b.subs, s)
		close(s.ch)
		n := len(b.subs)
		b.mu.Unlock()

		b.setGauge(n)
		b.logger.Debug("subscriber removed", "subscribers", n)
	})
}

// Publish delivers ev to every subscriber without blocking. The read lock
// keeps Close from closing a channel mid-send.
func (b *Broadcaster) Publish(ev model.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs {
		select {
		case s.ch <- ev:
		default:
			if b.dropped != nil {
				b.dropped.Inc()
			}
			b.logger.Warn("subscriber buffer full, event dropped", "type", ev.Type)
		}
	}
}

// Len returns the number of live subscribers.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broadcaster) setGauge(n int) {
	if b.gauge != nil {
		b.gauge.Set(float64(n))
	}
}
