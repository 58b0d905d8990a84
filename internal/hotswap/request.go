package hotswap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/1broseidon/winswap/internal/platform"
)

// Request asks for the active backend to be replaced by Target.
type Request struct {
	Target   string
	Required platform.FeatureSet
	// Timeout overrides Config.Timeout when positive.
	Timeout time.Duration
}

// Record describes one swap attempt. It is owned by the orchestrator;
// callers receive copies.
type Record struct {
	ID       uuid.UUID
	Source   string
	Target   string
	Required platform.FeatureSet
	Start    time.Time
	Timeout  time.Duration
	Status   State
}

// Deadline is Start plus Timeout.
func (r Record) Deadline() time.Time {
	return r.Start.Add(r.Timeout)
}

// Outcome is the terminal report of a swap.
type Outcome struct {
	Status Status
	// Err is nil for Completed. For RolledBack it is the reason the target
	// could not be used.
	Err      error
	Record   Record
	Replayed int
	// Spilled counts events that did not fit the buffer. A swap that
	// overflows only after construction still completes; the events are
	// delivered in order after the buffered ones.
	Spilled  int
	Duration time.Duration
}

// OK reports whether the target backend is now active.
func (o Outcome) OK() bool {
	return o.Status == StatusCompleted
}

func (o Outcome) String() string {
	if o.Err == nil {
		return fmt.Sprintf("%s %s->%s", o.Status, o.Record.Source, o.Record.Target)
	}
	return fmt.Sprintf("%s %s->%s: %v", o.Status, o.Record.Source, o.Record.Target, o.Err)
}

// Ticket tracks a submitted request until its outcome is known.
type Ticket struct {
	req    Request
	record Record
	done   chan struct{}

	once    sync.Once
	outcome Outcome
}

func newTicket(req Request) *Ticket {
	return &Ticket{
		req:    req,
		record: Record{ID: uuid.New(), Target: req.Target, Required: req.Required.Clone()},
		done:   make(chan struct{}),
	}
}

// ID is the swap record id.
func (t *Ticket) ID() uuid.UUID { return t.record.ID }

// Done is closed when the outcome is available.
func (t *Ticket) Done() <-chan struct{} { return t.done }

// Outcome returns the outcome once Done is closed.
func (t *Ticket) Outcome() (Outcome, bool) {
	select {
	case <-t.done:
		return t.outcome, true
	default:
		return Outcome{}, false
	}
}

// Wait blocks until the outcome is available or ctx is done. Waiting does
// not drive the state machine; the owner loop must keep stepping.
func (t *Ticket) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-t.done:
		return t.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (t *Ticket) finish(o Outcome) {
	t.once.Do(func() {
		t.outcome = o
		close(t.done)
	})
}
