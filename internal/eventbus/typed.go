// Package eventbus provides an in-process fan-out bus carrying pipeline
// events to whoever cares, without coupling the stages to their observers.
package eventbus

import "sync"

// Each subscriber gets this much buffering; publishers never block, a full
// subscriber simply misses the event.
const subscriberBuffer = 8

// TypedBus fans out events of type T to all current subscribers.
type TypedBus[T any] struct {
	mu     sync.RWMutex
	subs   map[chan T]struct{}
	closed bool
}

// NewTyped creates an empty bus.
func NewTyped[T any]() *TypedBus[T] {
	return &TypedBus[T]{subs: make(map[chan T]struct{})}
}

// Publish delivers the event to every subscriber that has buffer room.
func (b *TypedBus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe returns a channel of future events. On a closed bus the channel
// is returned already closed.
func (b *TypedBus[T]) Subscribe() <-chan T {
	ch := make(chan T, subscriberBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes the subscriber and closes its channel. Unknown or
// already-closed subscriptions are ignored.
func (b *TypedBus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for ch := range b.subs {
		if ch == sub {
			delete(b.subs, ch)
			close(ch)
			return
		}
	}
}

// Close shuts the bus down and closes every subscriber channel. Further
// publishes are dropped, further Close calls are no-ops.
func (b *TypedBus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
