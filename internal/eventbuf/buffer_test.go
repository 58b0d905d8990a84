package eventbuf

import (
	"errors"
	"testing"

	"github.com/1broseidon/winswap/internal/platform"
)

func TestBuffer_FIFO(t *testing.T) {
	b := New(10)
	b.Begin()
	for i := 0; i < 5; i++ {
		if err := b.Push(platform.Event{Kind: platform.EventKeyPress, Code: i}); err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
	}
	if b.Len() != 5 {
		t.Fatalf("Len = %d, want 5", b.Len())
	}
	got := b.Drain()
	for i, ev := range got {
		if ev.Code != i {
			t.Fatalf("event %d has code %d", i, ev.Code)
		}
	}
	if b.Len() != 0 {
		t.Fatalf("Len after drain = %d", b.Len())
	}
	b.End()
	if b.Active() {
		t.Fatalf("expected inactive after End")
	}
}

func TestBuffer_Overflow(t *testing.T) {
	b := New(2)
	b.Begin()
	_ = b.Push(platform.Event{Code: 1})
	_ = b.Push(platform.Event{Code: 2})
	if err := b.Push(platform.Event{Code: 3}); !errors.Is(err, ErrBufferFull) {
		t.Fatalf("Push past capacity err = %v", err)
	}
	got := b.Drain()
	if len(got) != 2 || got[0].Code != 1 || got[1].Code != 2 {
		t.Fatalf("oldest events must survive overflow, got %v", got)
	}
}

func TestBuffer_PushWhileInactive(t *testing.T) {
	b := New(0)
	if b.Cap() != DefaultCapacity {
		t.Fatalf("Cap = %d, want %d", b.Cap(), DefaultCapacity)
	}
	if err := b.Push(platform.Event{}); !errors.Is(err, ErrNotBuffering) {
		t.Fatalf("err = %v, want ErrNotBuffering", err)
	}
}

func TestBuffer_NoCoalescing(t *testing.T) {
	b := New(10)
	b.Begin()
	for i := 0; i < 3; i++ {
		_ = b.Push(platform.Event{Kind: platform.EventWindowResize, Width: 100, Height: 100})
	}
	if b.Len() != 3 {
		t.Fatalf("identical resize events were coalesced: Len = %d", b.Len())
	}
}
