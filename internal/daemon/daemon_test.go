package daemon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/winswap/internal/config"
	"github.com/1broseidon/winswap/internal/headless"
	"github.com/1broseidon/winswap/internal/hotswap"
	"github.com/1broseidon/winswap/internal/ipc"
	"github.com/1broseidon/winswap/internal/platform"
	"github.com/1broseidon/winswap/internal/registry"
)

func newHarness(t *testing.T, cfg *config.Config) (*Controller, *hotswap.Orchestrator, *Loop) {
	t.Helper()

	reg := registry.New(nil)
	backends := []struct {
		id string
		fs platform.FeatureSet
	}{
		{"a", platform.NewFeatureSet(platform.FeatureOpenGL)},
		{"b", platform.NewFeatureSet(platform.FeatureOpenGL, platform.FeatureHighDPI)},
		{"c", platform.NewFeatureSet(platform.FeatureOpenGL)},
	}
	for _, b := range backends {
		if err := reg.Register(b.id, headless.Factory(b.id), b.fs); err != nil {
			t.Fatalf("Register(%q): %v", b.id, err)
		}
	}
	if err := reg.SetDefault("a"); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	orch := hotswap.New(reg, cfg.HotswapConfig(nil))
	if err := orch.Start("a", 640, 480, "test", nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = orch.Shutdown() })

	ctrl := NewController(orch, reg, cfg, nil, nil)
	loop := NewLoop(LoopConfig{}, orch)
	return ctrl, orch, loop
}

func runUntilDone(t *testing.T, loop *Loop, ticket *hotswap.Ticket) hotswap.Outcome {
	t.Helper()
	for i := 0; i < 50; i++ {
		loop.StepNow()
		if out, ok := ticket.Outcome(); ok {
			return out
		}
	}
	t.Fatalf("swap did not finish")
	return hotswap.Outcome{}
}

func TestControllerSwapQueued(t *testing.T) {
	ctrl, orch, loop := newHarness(t, nil)

	data, err := ctrl.Swap(context.Background(), ipc.SwapPayload{Target: "b"})
	if err != nil {
		t.Fatalf("Swap() error: %v", err)
	}
	if data.Status != "queued" || data.Source != "a" || data.ID == "" {
		t.Fatalf("Swap() = %+v", data)
	}

	if _, err := ctrl.Swap(context.Background(), ipc.SwapPayload{Target: "c"}); !errors.Is(err, hotswap.ErrSwapInProgress) {
		t.Fatalf("second Swap() error = %v, want ErrSwapInProgress", err)
	}

	for i := 0; i < 20 && orch.Current() != "b"; i++ {
		loop.StepNow()
	}
	if orch.Current() != "b" {
		t.Fatalf("Current() = %q, want b", orch.Current())
	}

	status := ctrl.Status()
	if status.CurrentBackend != "b" || status.Completed != 1 {
		t.Fatalf("Status() = %+v", status)
	}
	if status.Last == nil || status.Last.Status != "completed" {
		t.Fatalf("Status().Last = %+v", status.Last)
	}
}

func TestControllerSwapWait(t *testing.T) {
	ctrl, _, loop := newHarness(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				loop.StepNow()
				time.Sleep(time.Millisecond)
			}
		}
	}()
	defer func() {
		close(stop)
		wg.Wait()
	}()

	data, err := ctrl.Swap(ctx, ipc.SwapPayload{Target: "b", Require: []string{"high-dpi"}, Wait: true})
	if err != nil {
		t.Fatalf("Swap() error: %v", err)
	}
	if data.Status != "completed" || data.Target != "b" || data.Error != "" {
		t.Fatalf("Swap() = %+v", data)
	}
}

func TestControllerSwapRejectsFeatures(t *testing.T) {
	ctrl, orch, loop := newHarness(t, nil)

	if _, err := ctrl.Swap(context.Background(), ipc.SwapPayload{Target: "c", Require: []string{"warp-drive"}}); err == nil {
		t.Fatalf("Swap() with unknown feature should fail")
	}

	ticket, err := orch.Submit(hotswap.Request{Target: "c", Required: platform.NewFeatureSet(platform.FeatureHighDPI)})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	out := runUntilDone(t, loop, ticket)
	if out.Status != hotswap.StatusFailed || !errors.Is(out.Err, hotswap.ErrInvalidTarget) {
		t.Fatalf("outcome = %v", out)
	}
	if got := ctrl.Status().Last; got == nil || got.Error == "" {
		t.Fatalf("Last = %+v, want error", got)
	}
}

func TestControllerConfigRequiredFeatures(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RequiredFeatures = []platform.Feature{platform.FeatureHighDPI}
	ctrl, orch, loop := newHarness(t, cfg)

	ticket, err := ctrl.SwapRelative(2) // a -> c
	if err != nil {
		t.Fatalf("SwapRelative: %v", err)
	}
	out := runUntilDone(t, loop, ticket)
	if !errors.Is(out.Err, hotswap.ErrInvalidTarget) {
		t.Fatalf("outcome = %v, want invalid target", out)
	}
	if orch.Current() != "a" {
		t.Fatalf("Current() = %q, want a", orch.Current())
	}
}

func TestControllerReloadDropsRequiredFeatures(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RequiredFeatures = []platform.Feature{platform.FeatureHighDPI}
	ctrl, orch, loop := newHarness(t, cfg)

	ctrl.load = func() (*config.Config, error) { return config.DefaultConfig(), nil }
	if err := ctrl.Reload(); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}

	ticket, err := ctrl.SwapRelative(2) // a -> c, c lacks high-dpi
	if err != nil {
		t.Fatalf("SwapRelative: %v", err)
	}
	out := runUntilDone(t, loop, ticket)
	if out.Status != hotswap.StatusCompleted {
		t.Fatalf("outcome = %v, want completed after reload", out)
	}
	if orch.Current() != "c" {
		t.Fatalf("Current() = %q, want c", orch.Current())
	}
}

func TestControllerCancel(t *testing.T) {
	ctrl, _, _ := newHarness(t, nil)

	if err := ctrl.Cancel(); !errors.Is(err, hotswap.ErrNotCancellable) {
		t.Fatalf("Cancel() with nothing queued = %v", err)
	}
	if _, err := ctrl.Swap(context.Background(), ipc.SwapPayload{Target: "b"}); err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if err := ctrl.Cancel(); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}
	if got := ctrl.Status(); got.Pending || got.Failed != 1 {
		t.Fatalf("Status() after cancel = %+v", got)
	}
}

func TestControllerBackends(t *testing.T) {
	ctrl, _, _ := newHarness(t, nil)

	data := ctrl.Backends()
	if data.Current != "a" || data.Default != "a" {
		t.Fatalf("Backends() current/default = %q/%q", data.Current, data.Default)
	}
	if len(data.Backends) != 3 {
		t.Fatalf("len(Backends) = %d, want 3", len(data.Backends))
	}
	b := data.Backends[1]
	if b.ID != "b" || len(b.Features) != 2 || b.Current {
		t.Fatalf("backend b = %+v", b)
	}
}

func TestControllerReload(t *testing.T) {
	ctrl, _, _ := newHarness(t, nil)
	if err := ctrl.Reload(); err == nil {
		t.Fatalf("Reload() without loader should fail")
	}

	next := config.DefaultConfig()
	next.Swap.Timeout = 42 * time.Millisecond
	ctrl.load = func() (*config.Config, error) { return next, nil }
	if err := ctrl.Reload(); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	req, err := ctrl.request("b", nil, 0)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if req.Timeout != 42*time.Millisecond {
		t.Fatalf("Timeout = %v, want reloaded value", req.Timeout)
	}

	ctrl.load = func() (*config.Config, error) { return nil, errors.New("boom") }
	if err := ctrl.Reload(); err == nil {
		t.Fatalf("Reload() should surface loader error")
	}
	if ctrl.Config() != next {
		t.Fatalf("failed reload replaced config")
	}
}

func TestCycle(t *testing.T) {
	ids := []string{"a", "b", "c"}
	tests := []struct {
		name    string
		ids     []string
		current string
		step    int
		want    string
		ok      bool
	}{
		{"next", ids, "a", 1, "b", true},
		{"wraps forward", ids, "c", 1, "a", true},
		{"previous", ids, "b", -1, "a", true},
		{"wraps backward", ids, "a", -1, "c", true},
		{"unknown current next", ids, "x", 1, "a", true},
		{"unknown current previous", ids, "x", -1, "c", true},
		{"only current", []string{"a"}, "a", 1, "", false},
		{"empty", nil, "a", 1, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := cycle(tt.ids, tt.current, tt.step)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("cycle() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestLoopRebindsAndStopsOnClose(t *testing.T) {
	ctrl, orch, _ := newHarness(t, nil)

	var rebound []string
	loop := NewLoop(LoopConfig{OnRebind: func(w platform.Window) {
		rebound = append(rebound, w.Backend())
	}}, orch)

	if !loop.StepNow() {
		t.Fatalf("first tick stopped")
	}
	if len(rebound) != 1 || rebound[0] != "a" {
		t.Fatalf("rebound = %v, want [a]", rebound)
	}

	ticket, err := ctrl.SwapRelative(1)
	if err != nil {
		t.Fatalf("SwapRelative: %v", err)
	}
	runUntilDone(t, loop, ticket)
	if len(rebound) != 2 || rebound[1] != "b" {
		t.Fatalf("rebound = %v, want [a b]", rebound)
	}

	w, ok := orch.Window().(*headless.Window)
	if !ok {
		t.Fatalf("window is %T", orch.Window())
	}
	w.Inject(platform.Event{Kind: platform.EventWindowClose})
	if loop.StepNow() {
		t.Fatalf("tick should stop after close request")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := loop.Run(ctx); err != nil {
		t.Fatalf("Run() after cancel = %v", err)
	}
}

func TestLoopRecoversPanic(t *testing.T) {
	_, orch, _ := newHarness(t, nil)
	loop := NewLoop(LoopConfig{OnRebind: func(platform.Window) { panic("boom") }}, orch)

	if !loop.StepNow() {
		t.Fatalf("panicking tick should keep running")
	}
	if loop.Steps() != 1 {
		t.Fatalf("Steps() = %d, want 1", loop.Steps())
	}
}

func TestLoopStopsWhenWindowLost(t *testing.T) {
	reg := registry.New(nil)
	created := 0
	once := func(w, h int, title string, hints platform.Hints) (platform.Window, error) {
		created++
		if created > 1 {
			return nil, errors.New("display gone")
		}
		return headless.New("a", w, h, title, hints)
	}
	broken := func(int, int, string, platform.Hints) (platform.Window, error) {
		return nil, errors.New("no driver")
	}
	if err := reg.Register("a", once, platform.NewFeatureSet()); err != nil {
		t.Fatalf("Register(a): %v", err)
	}
	if err := reg.Register("b", broken, platform.NewFeatureSet()); err != nil {
		t.Fatalf("Register(b): %v", err)
	}

	orch := hotswap.New(reg, hotswap.Config{})
	if err := orch.Start("a", 640, 480, "test", nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = orch.Shutdown() })

	ticket, err := orch.Submit(hotswap.Request{Target: "b"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	loop := NewLoop(LoopConfig{Interval: time.Millisecond}, orch)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = loop.Run(ctx)
	if !errors.Is(err, ErrWindowLost) || !errors.Is(err, hotswap.ErrUnrecoverable) {
		t.Fatalf("Run() = %v, want window lost after unrecoverable failure", err)
	}
	if out, ok := ticket.Outcome(); !ok || !errors.Is(out.Err, hotswap.ErrUnrecoverable) {
		t.Fatalf("outcome = %v, %v", out, ok)
	}
	if orch.Window() != nil {
		t.Fatalf("Window() = %v, want nil", orch.Window())
	}
	if loop.StepNow() {
		t.Fatalf("tick without a window should stop the loop")
	}
}
