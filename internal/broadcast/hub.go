package broadcast

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Hub fans events out to all live subscribers. Publishing never blocks: a
// subscriber that cannot keep up loses frames, it does not stall the game
// loop.
type Hub struct {
	logger *zap.Logger
	buffer int

	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	dropped uint64
}

// Subscription is one subscriber's view of the event stream. C is closed
// when the subscription is closed.
type Subscription struct {
	C <-chan Envelope

	hub  *Hub
	ch   chan Envelope
	once sync.Once
}

func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		s.hub.mu.Unlock()
		close(s.ch)
	})
}

func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		logger: logger,
		buffer: buffer,
		subs:   map[*Subscription]struct{}{},
	}
}

func (h *Hub) Subscribe() *Subscription {
	ch := make(chan Envelope, h.buffer)
	sub := &Subscription{C: ch, hub: h, ch: ch}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) Publish(ev Event) {
	if h == nil || ev == nil {
		return
	}
	frame := Envelope{Type: ev.Type(), Payload: ev}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.ch <- frame:
		default:
			// Drop when subscriber is slow; hub must not block.
			atomic.AddUint64(&h.dropped, 1)
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) Dropped() uint64 {
	return atomic.LoadUint64(&h.dropped)
}

// Run only reports fanout stats; the hub itself is passive. Safe to skip
// entirely in tests.
func (h *Hub) Run(ctx context.Context) error {
	if h == nil {
		return nil
	}
	t := time.NewTicker(60 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if h.logger != nil {
				h.logger.Info("broadcast hub stats",
					zap.Int("subscribers", h.Subscribers()),
					zap.Uint64("dropped_fanout", h.Dropped()))
			}
		}
	}
}
