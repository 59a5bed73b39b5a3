package audio

import (
	"errors"
	"sync/atomic"
)

var ErrQueueFull = errors.New("event queue full")

// eventBuffer is a lock-free ring for handing events from one control
// goroutine to the audio thread. head is only written by the consumer and
// tail only by the producer.
type eventBuffer struct {
	ring []Event
	mask uint32
	head atomic.Uint32
	tail atomic.Uint32
}

func newEventBuffer(size int) *eventBuffer {
	if size <= 0 || size&(size-1) != 0 {
		panic("event buffer size must be a power of 2")
	}
	return &eventBuffer{
		ring: make([]Event, size),
		mask: uint32(size - 1),
	}
}

// push appends ev, or returns false when the consumer is a full ring behind.
// Only the producer may call it.
func (b *eventBuffer) push(ev Event) bool {
	tail := b.tail.Load()
	if tail-b.head.Load() == uint32(len(b.ring)) {
		return false
	}
	b.ring[tail&b.mask] = ev
	b.tail.Store(tail + 1)
	return true
}

// drain passes every queued event to f in order and returns how many there
// were. Only the consumer may call it.
func (b *eventBuffer) drain(f func(Event)) int {
	head := b.head.Load()
	tail := b.tail.Load()
	for i := head; i != tail; i++ {
		f(b.ring[i&b.mask])
	}
	b.head.Store(tail)
	return int(tail - head)
}
