// Package eventbuf holds input events while a backend swap is in flight.
package eventbuf

import (
	"errors"

	"github.com/1broseidon/winswap/internal/platform"
)

// DefaultCapacity matches the default swap preset.
const DefaultCapacity = 1000

var (
	ErrBufferFull   = errors.New("eventbuf: buffer full")
	ErrNotBuffering = errors.New("eventbuf: not buffering")
)

// Buffer is a bounded FIFO. It never drops or coalesces events; a Push past
// capacity is rejected and the caller decides what to do with the event.
//
// Buffer is not safe for concurrent use. The orchestrator owns it.
type Buffer struct {
	cap    int
	events []platform.Event
	active bool
}

// New returns a buffer holding at most capacity events. Non-positive
// capacity selects DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{cap: capacity}
}

// Begin starts intercepting. Any events left from a previous swap are kept.
func (b *Buffer) Begin() {
	b.active = true
}

// Push appends ev. It fails with ErrNotBuffering when inactive and with
// ErrBufferFull when at capacity.
func (b *Buffer) Push(ev platform.Event) error {
	if !b.active {
		return ErrNotBuffering
	}
	if len(b.events) >= b.cap {
		return ErrBufferFull
	}
	b.events = append(b.events, ev)
	return nil
}

// Drain removes and returns all queued events in capture order.
func (b *Buffer) Drain() []platform.Event {
	out := b.events
	b.events = nil
	return out
}

// End stops intercepting. Queued events must be drained first.
func (b *Buffer) End() {
	b.active = false
}

func (b *Buffer) Active() bool { return b.active }
func (b *Buffer) Len() int     { return len(b.events) }
func (b *Buffer) Cap() int     { return b.cap }
