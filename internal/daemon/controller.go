package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/winswap/internal/config"
	"github.com/1broseidon/winswap/internal/hotswap"
	"github.com/1broseidon/winswap/internal/ipc"
	"github.com/1broseidon/winswap/internal/platform"
	"github.com/1broseidon/winswap/internal/registry"
)

// ConfigLoader returns a freshly loaded configuration.
type ConfigLoader func() (*config.Config, error)

// Controller exposes the orchestrator to the IPC server and hotkeys.
type Controller struct {
	orch   *hotswap.Orchestrator
	reg    *registry.Registry
	load   ConfigLoader
	logger *slog.Logger

	mu  sync.RWMutex
	cfg *config.Config
}

var _ ipc.Controller = (*Controller)(nil)

// NewController wires an orchestrator and registry. load may be nil, in
// which case Reload fails.
func NewController(orch *hotswap.Orchestrator, reg *registry.Registry, cfg *config.Config, load ConfigLoader, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Controller{
		orch:   orch,
		reg:    reg,
		load:   load,
		logger: logger,
		cfg:    cfg,
	}
}

// Config returns the configuration currently in effect.
func (c *Controller) Config() *config.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// request builds a hotswap request using the live configuration for
// anything the caller left unset.
func (c *Controller) request(target string, require []string, timeout time.Duration) (hotswap.Request, error) {
	cfg := c.Config()

	required := cfg.RequiredFeatureSet()
	for _, name := range require {
		f, err := platform.ParseFeature(name)
		if err != nil {
			return hotswap.Request{}, err
		}
		required[f] = struct{}{}
	}
	if timeout <= 0 {
		timeout = cfg.Swap.Timeout
	}
	return hotswap.Request{Target: target, Required: required, Timeout: timeout}, nil
}

// Swap implements ipc.Controller.
func (c *Controller) Swap(ctx context.Context, p ipc.SwapPayload) (*ipc.SwapData, error) {
	req, err := c.request(p.Target, p.Require, time.Duration(p.TimeoutMS)*time.Millisecond)
	if err != nil {
		return nil, err
	}

	ticket, err := c.orch.Submit(req)
	if err != nil {
		return nil, err
	}

	if !p.Wait {
		return &ipc.SwapData{
			ID:     ticket.ID().String(),
			Source: c.orch.Current(),
			Target: p.Target,
			Status: "queued",
		}, nil
	}

	out, err := ticket.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("waiting for swap %s: %w", ticket.ID(), err)
	}
	return swapData(out), nil
}

// SwapRelative swaps to the backend step positions away from the current
// one in Available order, wrapping around. Only backends enabled in the
// configuration are considered.
func (c *Controller) SwapRelative(step int) (*hotswap.Ticket, error) {
	cfg := c.Config()

	var ids []string
	for _, id := range c.reg.Available() {
		if cfg.BackendEnabled(id) {
			ids = append(ids, id)
		}
	}
	target, ok := cycle(ids, c.orch.Current(), step)
	if !ok {
		return nil, fmt.Errorf("%w: no other backend to swap to", hotswap.ErrInvalidTarget)
	}

	req, err := c.request(target, nil, 0)
	if err != nil {
		return nil, err
	}
	return c.orch.Submit(req)
}

// cycle returns the id step positions from current. When current is not in
// ids the walk starts before the first element.
func cycle(ids []string, current string, step int) (string, bool) {
	if len(ids) == 0 || (len(ids) == 1 && ids[0] == current) {
		return "", false
	}
	idx := -1
	for i, id := range ids {
		if id == current {
			idx = i
			break
		}
	}
	if idx < 0 && step < 0 {
		idx = 0
	}
	n := len(ids)
	next := ((idx+step)%n + n) % n
	return ids[next], true
}

// Cancel implements ipc.Controller.
func (c *Controller) Cancel() error {
	return c.orch.Cancel()
}

// Status implements ipc.Controller.
func (c *Controller) Status() ipc.StatusData {
	s := c.orch.Stats()
	data := ipc.StatusData{
		CurrentBackend: s.Current,
		State:          s.State.String(),
		Buffered:       s.Buffered,
		Completed:      s.Completed,
		RolledBack:     s.RolledBack,
		Failed:         s.Failed,
		Pending:        s.Pending,
		Generation:     s.Generation,
	}
	if s.Active != nil {
		data.Active = &ipc.SwapInfo{
			ID:         s.Active.ID.String(),
			Source:     s.Active.Source,
			Target:     s.Active.Target,
			Required:   featureNames(s.Active.Required),
			ElapsedMS:  s.InFlight.Milliseconds(),
			TimeoutMS:  s.Active.Timeout.Milliseconds(),
			Cancelable: s.State.Cancellable(),
		}
	}
	if s.Last != nil {
		data.Last = swapData(*s.Last)
	}
	return data
}

// Backends implements ipc.Controller.
func (c *Controller) Backends() ipc.BackendsData {
	current := c.orch.Current()
	def := c.reg.Default()

	data := ipc.BackendsData{Current: current, Default: def}
	for _, id := range c.reg.Available() {
		info, ok := c.reg.Info(id)
		if !ok {
			continue
		}
		data.Backends = append(data.Backends, ipc.BackendInfo{
			ID:       id,
			Name:     info.Name,
			Version:  info.Version,
			Features: featureNames(info.Features),
			Current:  id == current,
			Default:  id == def,
		})
	}
	return data
}

// Reload implements ipc.Controller. The new swap timeout and required
// features apply to later swaps; buffer capacity and window settings apply
// on restart.
func (c *Controller) Reload() error {
	if c.load == nil {
		return fmt.Errorf("reload not supported")
	}
	cfg, err := c.load()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()

	c.orch.ClearValidationCache()
	c.logger.Info("config reloaded",
		"timeout", cfg.Swap.Timeout,
		"required", cfg.RequiredFeatureSet().String())
	return nil
}

func swapData(out hotswap.Outcome) *ipc.SwapData {
	data := &ipc.SwapData{
		ID:         out.Record.ID.String(),
		Source:     out.Record.Source,
		Target:     out.Record.Target,
		Status:     out.Status.String(),
		Replayed:   out.Replayed,
		Spilled:    out.Spilled,
		DurationMS: out.Duration.Milliseconds(),
	}
	if out.Err != nil {
		data.Error = out.Err.Error()
	}
	return data
}

func featureNames(fs platform.FeatureSet) []string {
	names := make([]string, 0, len(fs))
	for _, f := range fs.Slice() {
		names = append(names, string(f))
	}
	return names
}
