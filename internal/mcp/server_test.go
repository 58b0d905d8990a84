package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/1broseidon/winswap/internal/ipc"
)

type fakeDaemon struct {
	swaps     []ipc.SwapPayload
	swapErr   error
	cancelErr error
	status    ipc.StatusData
	backends  ipc.BackendsData
}

func (f *fakeDaemon) Swap(p ipc.SwapPayload) (*ipc.SwapData, error) {
	f.swaps = append(f.swaps, p)
	if f.swapErr != nil {
		return nil, f.swapErr
	}
	return &ipc.SwapData{ID: "x", Source: "x11", Target: p.Target, Status: "completed", Replayed: 3}, nil
}

func (f *fakeDaemon) Cancel() error { return f.cancelErr }

func (f *fakeDaemon) GetStatus() (*ipc.StatusData, error) {
	st := f.status
	return &st, nil
}

func (f *fakeDaemon) ListBackends() (*ipc.BackendsData, error) {
	b := f.backends
	return &b, nil
}

func boolPtr(b bool) *bool { return &b }

func TestSwapBackend(t *testing.T) {
	d := &fakeDaemon{}
	s := NewServer(d, nil)

	_, out, err := s.handleSwapBackend(context.Background(), nil, SwapBackendInput{Target: " glfw ", Require: []string{"opengl"}})
	if err != nil {
		t.Fatalf("handleSwapBackend() error: %v", err)
	}
	if out.Status != "completed" || out.Target != "glfw" || out.Replayed != 3 {
		t.Fatalf("output = %+v", out)
	}
	if len(d.swaps) != 1 || !d.swaps[0].Wait {
		t.Fatalf("swap payload = %+v, want wait by default", d.swaps)
	}

	if _, _, err := s.handleSwapBackend(context.Background(), nil, SwapBackendInput{Target: "glfw", Wait: boolPtr(false)}); err != nil {
		t.Fatalf("handleSwapBackend(wait=false) error: %v", err)
	}
	if d.swaps[1].Wait {
		t.Fatalf("wait=false not forwarded")
	}
}

func TestSwapBackendValidation(t *testing.T) {
	tests := []struct {
		name  string
		input SwapBackendInput
		want  string
	}{
		{"missing target", SwapBackendInput{}, "target is required"},
		{"negative timeout", SwapBackendInput{Target: "glfw", TimeoutMS: -5}, "timeout_ms"},
		{"unknown feature", SwapBackendInput{Target: "glfw", Require: []string{"holograms"}}, "unknown window feature"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDaemon{}
			s := NewServer(d, nil)
			_, _, err := s.handleSwapBackend(context.Background(), nil, tt.input)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want containing %q", err, tt.want)
			}
			if len(d.swaps) != 0 {
				t.Fatalf("daemon called for invalid input")
			}
		})
	}
}

func TestSwapBackendDaemonError(t *testing.T) {
	d := &fakeDaemon{swapErr: errors.New("daemon error: swap already in progress")}
	s := NewServer(d, nil)
	if _, _, err := s.handleSwapBackend(context.Background(), nil, SwapBackendInput{Target: "glfw"}); err == nil {
		t.Fatalf("expected daemon error")
	}
}

func TestListBackendsFilter(t *testing.T) {
	d := &fakeDaemon{backends: ipc.BackendsData{
		Current: "x11",
		Default: "x11",
		Backends: []ipc.BackendInfo{
			{ID: "glfw", Features: []string{"high-dpi", "opengl"}},
			{ID: "headless", Features: []string{"fullscreen", "multi-window"}},
			{ID: "x11", Features: []string{"fullscreen", "monitor-info"}, Current: true, Default: true},
		},
	}}
	s := NewServer(d, nil)

	_, out, err := s.handleListBackends(context.Background(), nil, ListBackendsInput{})
	if err != nil {
		t.Fatalf("handleListBackends() error: %v", err)
	}
	if len(out.Backends) != 3 || out.Current != "x11" {
		t.Fatalf("output = %+v", out)
	}

	_, out, err = s.handleListBackends(context.Background(), nil, ListBackendsInput{Feature: "GL"})
	if err != nil {
		t.Fatalf("handleListBackends(gl) error: %v", err)
	}
	if len(out.Backends) != 1 || out.Backends[0].ID != "glfw" {
		t.Fatalf("filtered = %+v", out.Backends)
	}

	if _, _, err := s.handleListBackends(context.Background(), nil, ListBackendsInput{Feature: "nope"}); err == nil {
		t.Fatalf("expected unknown feature error")
	}
}

func TestSwapStatus(t *testing.T) {
	d := &fakeDaemon{status: ipc.StatusData{
		CurrentBackend: "x11",
		State:          "buffering",
		Buffered:       7,
		Active:         &ipc.SwapInfo{ID: "a", Source: "x11", Target: "glfw", TimeoutMS: 5000},
		Last:           &ipc.SwapData{ID: "b", Target: "x11", Status: "rolled-back", Error: "construction failed"},
	}}
	s := NewServer(d, nil)

	_, out, err := s.handleSwapStatus(context.Background(), nil, SwapStatusInput{})
	if err != nil {
		t.Fatalf("handleSwapStatus() error: %v", err)
	}
	if out.State != "buffering" || out.Buffered != 7 {
		t.Fatalf("output = %+v", out)
	}
	if out.Active == nil || out.Active.Target != "glfw" || out.Active.Cancelable {
		t.Fatalf("active = %+v", out.Active)
	}
	if out.Last == nil || out.Last.Status != "rolled-back" {
		t.Fatalf("last = %+v", out.Last)
	}
}

func TestCancelSwap(t *testing.T) {
	d := &fakeDaemon{}
	s := NewServer(d, nil)

	_, out, err := s.handleCancelSwap(context.Background(), nil, CancelSwapInput{})
	if err != nil || !out.Cancelled {
		t.Fatalf("cancel = %+v, %v", out, err)
	}

	d.cancelErr = errors.New("daemon error: swap cannot be cancelled in its current state")
	_, out, err = s.handleCancelSwap(context.Background(), nil, CancelSwapInput{})
	if err != nil {
		t.Fatalf("refused cancel should not be a tool error: %v", err)
	}
	if out.Cancelled || !strings.Contains(out.Reason, "cannot be cancelled") {
		t.Fatalf("refused cancel = %+v", out)
	}

	d.cancelErr = errors.New("failed to connect to daemon: no such file")
	if _, _, err := s.handleCancelSwap(context.Background(), nil, CancelSwapInput{}); err == nil {
		t.Fatalf("connection failure should surface as error")
	}
}
