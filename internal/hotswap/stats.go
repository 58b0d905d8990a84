package hotswap

import "time"

// Stats is a point-in-time view of the orchestrator.
type Stats struct {
	Current    string
	State      State
	Buffered   int
	Completed  uint64
	RolledBack uint64
	Failed     uint64
	Pending    bool
	// Active is set while a swap is running.
	Active *Record
	// InFlight is how long the active swap has been running.
	InFlight   time.Duration
	Last       *Outcome
	Generation uint64
}

// Stats may be called from any goroutine.
func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := Stats{
		Current:    o.current,
		State:      o.state,
		Buffered:   int(o.queued.Load()),
		Completed:  o.completed,
		RolledBack: o.rolled,
		Failed:     o.failed,
		Pending:    o.pending != nil,
		Generation: o.notifier.Generation(),
	}
	if o.active != nil {
		rec := o.active.record
		s.Active = &rec
		s.InFlight = o.now().Sub(rec.Start)
	}
	if o.last != nil {
		last := *o.last
		s.Last = &last
	}
	return s
}
