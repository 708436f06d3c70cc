package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrBusClosed is returned by Publish after Close.
var ErrBusClosed = errors.New("event: bus is closed")

// Handler processes a delivered event.
type Handler func(ctx context.Context, evt Event)

// Bus distributes events to subscribers.
type Bus interface {
	// Publish delivers an event to all matching subscribers.
	Publish(ctx context.Context, evt Event) error

	// Subscribe registers a handler for the given event types. An
	// empty type list subscribes to every event.
	Subscribe(handler Handler, types ...string) Subscription

	// Close shuts down the bus and all subscriptions.
	Close() error
}

// Subscription is an active subscription handle.
type Subscription interface {
	// Unsubscribe stops delivery and releases the subscription.
	Unsubscribe()
}

// LocalBus is an in-process Bus. Each subscriber runs its handler on
// its own goroutine fed by a buffered channel, so a slow subscriber
// does not stall the publisher until its buffer fills.
type LocalBus struct {
	bufferSize int

	mu     sync.RWMutex
	subs   map[int64]*subscription
	nextID atomic.Int64

	closed  atomic.Bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// BusOption configures a LocalBus.
type BusOption func(*LocalBus)

// WithBufferSize sets the per-subscription channel buffer. Default 64.
func WithBufferSize(n int) BusOption {
	return func(b *LocalBus) {
		if n > 0 {
			b.bufferSize = n
		}
	}
}

// NewLocalBus creates an in-process event bus.
func NewLocalBus(opts ...BusOption) *LocalBus {
	b := &LocalBus{
		bufferSize: 64,
		subs:       make(map[int64]*subscription),
		closeCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type subscription struct {
	id      int64
	types   map[string]struct{} // nil means all types
	handler Handler
	events  chan Event
	done    chan struct{}
	once    sync.Once
	bus     *LocalBus
}

func (s *subscription) matches(eventType string) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// Publish delivers evt to every matching subscriber. It blocks while a
// subscriber's buffer is full, honoring ctx cancellation.
func (b *LocalBus) Publish(ctx context.Context, evt Event) error {
	if b.closed.Load() {
		return ErrBusClosed
	}

	b.mu.RLock()
	targets := make([]*subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.matches(evt.Type) {
			targets = append(targets, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		select {
		case sub.events <- evt:
		case <-sub.done:
		case <-ctx.Done():
			return fmt.Errorf("event: publish %s: %w", evt.Type, ctx.Err())
		case <-b.closeCh:
			return ErrBusClosed
		}
	}
	return nil
}

// Subscribe registers a handler. Returns nil after Close.
func (b *LocalBus) Subscribe(handler Handler, types ...string) Subscription {
	if b.closed.Load() {
		return nil
	}

	var typeSet map[string]struct{}
	if len(types) > 0 {
		typeSet = make(map[string]struct{}, len(types))
		for _, t := range types {
			typeSet[t] = struct{}{}
		}
	}

	sub := &subscription{
		id:      b.nextID.Add(1),
		types:   typeSet,
		handler: handler,
		events:  make(chan Event, b.bufferSize),
		done:    make(chan struct{}),
		bus:     b,
	}

	b.mu.Lock()
	b.subs[sub.id] = sub
	b.mu.Unlock()

	b.wg.Add(1)
	go sub.run()

	return sub
}

func (s *subscription) run() {
	defer s.bus.wg.Done()
	for {
		select {
		case evt := <-s.events:
			s.handler(context.Background(), evt)
		case <-s.done:
			// Drain anything already buffered before stopping.
			for {
				select {
				case evt := <-s.events:
					s.handler(context.Background(), evt)
				default:
					return
				}
			}
		}
	}
}

// Unsubscribe stops delivery. Safe to call more than once.
func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s.id)
		s.bus.mu.Unlock()
		close(s.done)
	})
}

// Close shuts down the bus and waits for subscriber goroutines to
// finish handling buffered events.
func (b *LocalBus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(b.closeCh)

	b.mu.Lock()
	subs := make([]*subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	b.wg.Wait()
	return nil
}
