package services

import (
	"context"
	"sync"

	"encrypted-match-system/models"
)

// Bus fans domain events out to subscribers. Slow subscribers lose events
// instead of stalling the processor.
type Bus struct {
	mu   sync.Mutex
	size int
	subs map[int]chan models.Event
	next int
}

func NewBus(size int) *Bus {
	if size <= 0 {
		size = 128
	}
	return &Bus{size: size, subs: map[int]chan models.Event{}}
}

func (b *Bus) Publish(_ context.Context, ev models.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default: // drop on backpressure
		}
	}
}

// Subscribe returns a channel of future events and a func that detaches it.
func (b *Bus) Subscribe() (<-chan models.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan models.Event, b.size)
	b.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}
