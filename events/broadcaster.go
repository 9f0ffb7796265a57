// Package events fans drive change events out to independent observers.
package events

import (
	"sync"
	"sync/atomic"

	"github.com/jmgilman/go/drives/contents"
)

// DefaultBuffer is the channel capacity of each subscriber.
const DefaultBuffer = 64

// Broadcaster delivers every published event to every subscriber. Publishing
// never blocks: an event is dropped for a subscriber whose buffer is full.
// Delivery order between subscribers is unspecified.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan contents.ChangeEvent]struct{}
	buffer      int
	dropped     atomic.Int64
}

// NewBroadcaster creates a broadcaster whose subscribers buffer up to buffer
// events. Values below one select DefaultBuffer.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	return &Broadcaster{
		subscribers: make(map[chan contents.ChangeEvent]struct{}),
		buffer:      buffer,
	}
}

// Subscribe adds a subscriber. The returned function removes it and closes
// the channel; calling it more than once is safe.
func (b *Broadcaster) Subscribe() (<-chan contents.ChangeEvent, func()) {
	ch := make(chan contents.ChangeEvent, b.buffer)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, ch)
			close(ch)
			b.mu.Unlock()
		})
	}
}

// Publish sends event to all subscribers.
func (b *Broadcaster) Publish(event contents.ChangeEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

// Count returns the current number of subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Dropped returns how many deliveries were skipped because a subscriber's
// buffer was full.
func (b *Broadcaster) Dropped() int64 {
	return b.dropped.Load()
}
