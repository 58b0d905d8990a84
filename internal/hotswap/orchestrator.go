// Package hotswap replaces the active window backend of a running
// application without losing window state or input events.
//
// The Orchestrator is driven by a single owner goroutine calling Step once
// per loop tick. Each Step pumps the current window and advances the swap
// state machine by at most one transition. Submit, Cancel, Stats, State and
// PollResourceInvalidation may be called from any goroutine.
package hotswap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1broseidon/winswap/internal/eventbuf"
	"github.com/1broseidon/winswap/internal/notify"
	"github.com/1broseidon/winswap/internal/platform"
	"github.com/1broseidon/winswap/internal/snapshot"
)

// Backends is the part of the backend registry the orchestrator uses.
type Backends interface {
	Has(id string) bool
	Features(id string) (platform.FeatureSet, bool)
	Len() int
	Create(id string, width, height int, title string, hints platform.Hints) (platform.Window, error)
}

// EventHandler receives live and replayed events on the owner goroutine.
type EventHandler func(platform.Event)

// Orchestrator owns the active window and runs swaps.
type Orchestrator struct {
	backends Backends
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
	notifier notify.Notifier
	queued   atomic.Int64

	// Owner goroutine only.
	buf      *eventbuf.Buffer
	spill    []platform.Event
	snap     snapshot.Snapshot
	handler  EventHandler
	reason   error
	rollback bool
	replayed int
	spilled  int

	mu        sync.Mutex
	state     State
	current   string
	window    platform.Window
	pending   *Ticket
	active    *Ticket
	cancelReq bool
	completed uint64
	rolled    uint64
	failed    uint64
	last      *Outcome
	cache     map[string]error
	cacheLen  int
}

// New creates an orchestrator with no window. Call Start before Step.
func New(backends Backends, cfg Config) *Orchestrator {
	cfg = cfg.withDefaults()
	return &Orchestrator{
		backends: backends,
		cfg:      cfg,
		logger:   cfg.Logger,
		now:      time.Now,
		buf:      eventbuf.New(cfg.MaxBufferedEvents),
		cache:    make(map[string]error),
	}
}

// Start creates the initial window.
func (o *Orchestrator) Start(backend string, width, height int, title string, hints platform.Hints) error {
	o.mu.Lock()
	if o.window != nil {
		o.mu.Unlock()
		return ErrAlreadyStarted
	}
	o.mu.Unlock()

	w, err := o.backends.Create(backend, width, height, title, hints)
	if err != nil {
		return fmt.Errorf("start on %q: %w", backend, err)
	}

	o.mu.Lock()
	o.window = w
	o.current = backend
	o.state = StateIdle
	o.mu.Unlock()
	o.notifier.Arm()

	o.logger.Info("window started", "backend", backend, "width", width, "height", height)
	return nil
}

// SetEventHandler installs the application event callback.
func (o *Orchestrator) SetEventHandler(h EventHandler) {
	o.handler = h
}

// Submit queues a swap. The request is picked up by the next Step.
func (o *Orchestrator) Submit(req Request) (*Ticket, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pending != nil || o.state.Busy() {
		return nil, ErrSwapInProgress
	}
	if o.window == nil {
		return nil, ErrNotStarted
	}
	t := newTicket(req)
	o.pending = t
	o.logger.Debug("swap queued", "id", t.record.ID, "target", req.Target)
	return t, nil
}

// Swap submits req and steps until it reaches a terminal state. It must be
// called from the owner goroutine. When ctx ends before the old window is
// destroyed the swap is cancelled; afterwards it runs to completion.
func (o *Orchestrator) Swap(ctx context.Context, req Request) Outcome {
	t, err := o.Submit(req)
	if err != nil {
		return Outcome{Status: StatusFailed, Err: err, Record: Record{Target: req.Target, Source: o.Current()}}
	}
	cancelled := false
	for {
		o.Step()
		if out, ok := t.Outcome(); ok {
			return out
		}
		if !cancelled && ctx.Err() != nil {
			cancelled = true
			if err := o.Cancel(); err != nil {
				o.logger.Debug("swap context done past cancellation point", "id", t.ID())
			}
		}
	}
}

// Cancel aborts a queued swap or one still in Validating or
// CapturingState. It returns ErrNotCancellable otherwise.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	if t := o.pending; t != nil {
		o.pending = nil
		t.record.Source = o.current
		t.record.Start = o.now()
		t.record.Status = StateFailed
		out := Outcome{Status: StatusFailed, Err: ErrCancelled, Record: t.record}
		o.failed++
		o.last = &out
		o.mu.Unlock()
		t.finish(out)
		o.logger.Info("queued swap cancelled", "id", t.record.ID, "target", t.record.Target)
		return nil
	}
	defer o.mu.Unlock()
	if o.active != nil && o.state.Cancellable() {
		o.cancelReq = true
		return nil
	}
	return ErrNotCancellable
}

// Step pumps the current window and advances the state machine by at most
// one transition. It returns the resulting state.
func (o *Orchestrator) Step() State {
	o.pump()
	o.advance()
	return o.State()
}

// Dispatch routes an application generated event exactly like a pumped one.
// Owner goroutine only.
func (o *Orchestrator) Dispatch(ev platform.Event) {
	if ev.Time.IsZero() {
		ev.Time = o.now()
	}
	o.route(ev)
}

// PollResourceInvalidation reports true once after every window
// construction. The application must then rebuild GPU objects bound to the
// old context.
func (o *Orchestrator) PollResourceInvalidation() bool {
	return o.notifier.Consume()
}

// Window returns the active window. The reference is borrowed: it is nil
// from the start of Destroying until Restoring and must not be kept across
// Step calls.
func (o *Orchestrator) Window() platform.Window {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.window
}

// Current returns the active backend id, or "" when no window exists.
func (o *Orchestrator) Current() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// ClearValidationCache drops cached target checks. The cache is also
// dropped whenever the number of registered backends changes.
func (o *Orchestrator) ClearValidationCache() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cache = make(map[string]error)
}

// Shutdown fails any outstanding swap and destroys the window.
func (o *Orchestrator) Shutdown() error {
	o.mu.Lock()
	pending := o.pending
	o.pending = nil
	active := o.active != nil
	o.mu.Unlock()

	if pending != nil {
		pending.finish(Outcome{Status: StatusFailed, Err: ErrCancelled, Record: pending.record})
	}
	if active {
		o.flush()
		o.finish(StateIdle, StatusFailed, ErrCancelled)
	}

	o.mu.Lock()
	w := o.window
	o.window = nil
	o.current = ""
	o.state = StateIdle
	o.mu.Unlock()

	if w == nil {
		return nil
	}
	o.logger.Info("destroying window", "backend", w.Backend())
	return w.Destroy()
}

func (o *Orchestrator) pump() {
	w := o.Window()
	if w == nil {
		return
	}
	for _, ev := range w.PumpEvents() {
		o.route(ev)
	}
}

func (o *Orchestrator) route(ev platform.Event) {
	if !o.buf.Active() {
		o.deliver(ev)
		return
	}
	// Once an event has been spilled, later ones follow it so capture
	// order is kept.
	if len(o.spill) == 0 {
		err := o.buf.Push(ev)
		if err == nil {
			o.queued.Store(int64(o.buf.Len()))
			return
		}
		o.logger.Warn("event buffer full", "capacity", o.buf.Cap(), "error", err)
	}
	o.spill = append(o.spill, ev)
	o.spilled++
	o.queued.Store(int64(o.buf.Len() + len(o.spill)))
}

func (o *Orchestrator) deliver(ev platform.Event) {
	if o.handler != nil {
		o.handler(ev)
	}
}

func (o *Orchestrator) replay(events []platform.Event) {
	for _, ev := range events {
		ev.Replayed = true
		o.replayed++
		o.deliver(ev)
	}
}

// flush delivers everything held for the current swap and stops buffering.
func (o *Orchestrator) flush() {
	o.replay(o.buf.Drain())
	spill := o.spill
	o.spill = nil
	o.replay(spill)
	o.buf.End()
	o.queued.Store(0)
}

func (o *Orchestrator) advance() {
	switch o.State() {
	case StateIdle, StateCompleted, StateRolledBack, StateFailed:
		o.pickUp()
	case StateValidating:
		o.validate()
	case StateCapturingState:
		o.capture()
	case StateBuffering:
		o.destroy()
	case StateDestroying:
		o.construct()
	case StateRestoring:
		o.restore()
	case StateReplaying:
		o.complete()
	}
}

func (o *Orchestrator) setStateLocked(s State) {
	o.state = s
	if o.active != nil {
		o.active.record.Status = s
	}
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.setStateLocked(s)
}

func (o *Orchestrator) record() Record {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return Record{}
	}
	return o.active.record
}

func (o *Orchestrator) pickUp() {
	o.mu.Lock()
	t := o.pending
	if t == nil {
		o.mu.Unlock()
		return
	}
	o.pending = nil
	o.active = t
	o.cancelReq = false

	timeout := t.req.Timeout
	if timeout <= 0 {
		timeout = o.cfg.Timeout
	}
	t.record.Source = o.current
	t.record.Start = o.now()
	t.record.Timeout = timeout
	t.record.Required = o.cfg.Required.Union(t.req.Required)
	o.setStateLocked(StateValidating)
	rec := t.record
	o.mu.Unlock()

	o.reason = nil
	o.rollback = false
	o.replayed = 0
	o.spilled = 0
	o.spill = nil

	o.logger.Info("swap started",
		"id", rec.ID,
		"source", rec.Source,
		"target", rec.Target,
		"required", rec.Required.String(),
		"timeout", rec.Timeout)
}

// preDestroyCheck returns the reason to abandon a swap that has not
// destroyed anything yet.
func (o *Orchestrator) preDestroyCheck() error {
	o.mu.Lock()
	cancel := o.cancelReq
	deadline := o.active.record.Deadline()
	o.mu.Unlock()

	switch {
	case cancel:
		return ErrCancelled
	case len(o.spill) > 0:
		return fmt.Errorf("%w: more than %d events", ErrEventBufferOverflow, o.buf.Cap())
	case o.now().After(deadline):
		return ErrTimeout
	}
	return nil
}

func (o *Orchestrator) validate() {
	if err := o.preDestroyCheck(); err != nil {
		o.abort(err)
		return
	}
	rec := o.record()
	if !o.backends.Has(rec.Target) {
		o.finish(StateFailed, StatusFailed, fmt.Errorf("%w: backend %q is not registered", ErrInvalidTarget, rec.Target))
		return
	}
	if rec.Target == rec.Source {
		o.finish(StateCompleted, StatusCompleted, nil)
		return
	}
	if err := o.checkFeatures(rec.Target, rec.Required); err != nil {
		o.finish(StateFailed, StatusFailed, err)
		return
	}
	o.setState(StateCapturingState)
}

func (o *Orchestrator) checkFeatures(target string, required platform.FeatureSet) error {
	key := target + "|" + required.String()

	o.mu.Lock()
	if n := o.backends.Len(); n != o.cacheLen {
		o.cache = make(map[string]error)
		o.cacheLen = n
	}
	err, ok := o.cache[key]
	o.mu.Unlock()
	if ok {
		return err
	}

	features, found := o.backends.Features(target)
	switch {
	case !found:
		err = fmt.Errorf("%w: backend %q is not registered", ErrInvalidTarget, target)
	case !features.Superset(required):
		err = fmt.Errorf("%w: backend %q lacks %v", ErrInvalidTarget, target, features.Missing(required))
	}

	o.mu.Lock()
	o.cache[key] = err
	o.mu.Unlock()
	return err
}

func (o *Orchestrator) capture() {
	if err := o.preDestroyCheck(); err != nil {
		o.abort(err)
		return
	}
	snap, err := snapshot.Capture(o.Window())
	if err != nil {
		o.abort(fmt.Errorf("%w: %w", ErrCaptureFailed, err))
		return
	}
	o.snap = snap
	o.buf.Begin()
	o.setState(StateBuffering)
}

func (o *Orchestrator) destroy() {
	if err := o.preDestroyCheck(); err != nil {
		o.abort(err)
		return
	}

	o.mu.Lock()
	w := o.window
	o.window = nil
	o.setStateLocked(StateDestroying)
	o.mu.Unlock()

	if err := w.Destroy(); err != nil {
		o.logger.Warn("destroying window failed", "backend", w.Backend(), "error", err)
	}
}

func (o *Orchestrator) construct() {
	o.mu.Lock()
	rec := o.active.record
	expired := o.now().After(rec.Deadline())
	o.setStateLocked(StateConstructing)
	o.mu.Unlock()

	switch {
	case len(o.spill) > 0:
		o.reason = fmt.Errorf("%w: more than %d events", ErrEventBufferOverflow, o.buf.Cap())
	case expired:
		o.reason = ErrTimeout
	}

	var w platform.Window
	backend := rec.Target
	if o.reason == nil {
		var err error
		w, err = o.create(rec.Target)
		if err != nil {
			o.reason = err
		}
	}
	if w == nil {
		o.logger.Warn("swap target abandoned, rolling back",
			"id", rec.ID,
			"target", rec.Target,
			"source", rec.Source,
			"reason", o.reason)
		o.rollback = true
		backend = rec.Source
		var err error
		w, err = o.create(rec.Source)
		if err != nil {
			o.logger.Error("rollback construction failed", "id", rec.ID, "source", rec.Source, "error", err)
			o.flush()
			o.mu.Lock()
			o.current = ""
			o.mu.Unlock()
			o.finish(StateFailed, StatusFailed, fmt.Errorf("%w: target: %w; rollback: %w", ErrUnrecoverable, o.reason, err))
			return
		}
	}

	o.mu.Lock()
	o.window = w
	o.current = backend
	o.setStateLocked(StateRestoring)
	o.mu.Unlock()
	o.notifier.Arm()
}

func (o *Orchestrator) create(id string) (platform.Window, error) {
	return o.backends.Create(id, o.snap.Width(), o.snap.Height(), o.snap.Title(), o.snap.Hints())
}

func (o *Orchestrator) restore() {
	events := o.buf.Drain()
	o.queued.Store(int64(len(o.spill)))
	o.setState(StateReplaying)
	o.replay(events)
}

func (o *Orchestrator) complete() {
	o.flush()
	if o.rollback {
		o.finish(StateRolledBack, StatusRolledBack, o.reason)
		return
	}
	o.finish(StateCompleted, StatusCompleted, nil)
}

// abort ends a swap before anything was destroyed.
func (o *Orchestrator) abort(err error) {
	o.flush()
	o.finish(StateIdle, StatusFailed, err)
}

func (o *Orchestrator) finish(state State, status Status, err error) {
	o.mu.Lock()
	t := o.active
	o.active = nil
	o.cancelReq = false
	o.state = state
	t.record.Status = state
	out := Outcome{
		Status:   status,
		Err:      err,
		Record:   t.record,
		Replayed: o.replayed,
		Spilled:  o.spilled,
		Duration: o.now().Sub(t.record.Start),
	}
	switch status {
	case StatusCompleted:
		o.completed++
	case StatusRolledBack:
		o.rolled++
	default:
		o.failed++
	}
	o.last = &out
	o.mu.Unlock()

	o.snap = snapshot.Snapshot{}
	t.finish(out)

	attrs := []any{
		"id", out.Record.ID,
		"source", out.Record.Source,
		"target", out.Record.Target,
		"status", status.String(),
		"replayed", out.Replayed,
		"duration", out.Duration,
	}
	if out.Spilled > 0 {
		attrs = append(attrs, "spilled", out.Spilled)
	}
	switch {
	case errors.Is(err, ErrUnrecoverable):
		o.logger.Error("swap failed", append(attrs, "error", err)...)
	case err != nil:
		o.logger.Warn("swap finished", append(attrs, "error", err)...)
	case out.Spilled > 0:
		o.logger.Warn("swap finished with event buffer overflow", append(attrs, "capacity", o.buf.Cap())...)
	default:
		o.logger.Info("swap finished", attrs...)
	}
}
