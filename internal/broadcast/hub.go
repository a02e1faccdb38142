// Package broadcast fans pipeline events out to live observers.
package broadcast

import (
	"errors"
	"sync"
	"sync/atomic"

	obsmetrics "github.com/smallbiznis/gridpulse/internal/observability/metrics"
	"go.uber.org/zap"
)

const DefaultSubscriberBuffer = 64

var (
	ErrHubClosed = errors.New("hub_closed")
	// ErrBroadcastFailure marks a delivery failure to a single observer.
	ErrBroadcastFailure = errors.New("broadcast_failure")
)

// Publisher is what the ingest pipeline needs from the fanout.
type Publisher interface {
	Publish(event Event)
}

// Hub is the registry of live observers. Publish never blocks: an observer
// whose buffer is full misses the event. There is no backlog, so an observer
// only sees events published after it subscribed.
type Hub struct {
	mu               sync.RWMutex
	subs             map[uint64]*Subscription
	nextID           uint64
	closed           bool
	subscriberBuffer int

	log     *zap.Logger
	metrics *obsmetrics.PipelineMetrics
}

type Subscription struct {
	hub     *Hub
	id      uint64
	label   string
	ch      chan Event
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

type HubOption func(*Hub)

func WithSubscriberBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.subscriberBuffer = n
		}
	}
}

func WithLogger(log *zap.Logger) HubOption {
	return func(h *Hub) {
		if log != nil {
			h.log = log
		}
	}
}

func WithMetrics(m *obsmetrics.PipelineMetrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		subs:             make(map[uint64]*Subscription),
		subscriberBuffer: DefaultSubscriberBuffer,
		log:              zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Publish dispatches event to the current observer set.
func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return
	}
	subs := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		sub.deliver(event, h)
	}
}

// Subscribe registers a new observer. label is only used in logs.
func (h *Hub) Subscribe(label string) (*Subscription, error) {
	if h == nil {
		return nil, ErrHubClosed
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}

	h.nextID++
	sub := &Subscription{
		hub:   h,
		id:    h.nextID,
		label: label,
		ch:    make(chan Event, h.subscriberBuffer),
		done:  make(chan struct{}),
	}
	h.subs[sub.id] = sub
	h.metrics.SetSubscribers(len(h.subs))
	h.log.Debug("observer subscribed", zap.Uint64("subscription_id", sub.id), zap.String("observer", label))
	return sub, nil
}

// Len returns the number of attached observers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close detaches every observer and rejects further subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := h.subs
	h.subs = make(map[uint64]*Subscription)
	h.metrics.SetSubscribers(0)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.once.Do(func() { close(sub.done) })
	}
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
		h.metrics.SetSubscribers(len(h.subs))
	}
	h.mu.Unlock()
	if ok {
		h.log.Debug("observer unsubscribed",
			zap.Uint64("subscription_id", id),
			zap.String("observer", sub.label),
			zap.Uint64("dropped", sub.dropped.Load()),
		)
	}
}

func (s *Subscription) deliver(event Event, h *Hub) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.ch <- event:
	default:
		s.dropped.Add(1)
		h.metrics.IncBroadcastDropped(string(event.Type))
		h.log.Debug("observer buffer full, event dropped",
			zap.Uint64("subscription_id", s.id),
			zap.String("event_type", string(event.Type)),
		)
	}
}

// Events yields delivered events. The channel is never closed; select on
// Done as well.
func (s *Subscription) Events() <-chan Event {
	if s == nil {
		return nil
	}
	return s.ch
}

// Done is closed when the subscription ends, either by Close or hub shutdown.
func (s *Subscription) Done() <-chan struct{} {
	if s == nil {
		return nil
	}
	return s.done
}

// Dropped reports how many events this observer missed on a full buffer.
func (s *Subscription) Dropped() uint64 {
	if s == nil {
		return 0
	}
	return s.dropped.Load()
}

func (s *Subscription) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Close detaches the observer. Safe to call more than once.
func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.id)
		close(s.done)
	})
}
