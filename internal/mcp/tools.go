package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/winswap/internal/ipc"
	"github.com/1broseidon/winswap/internal/platform"
)

func (s *Server) handleSwapBackend(_ context.Context, _ *mcpsdk.CallToolRequest, args SwapBackendInput) (*mcpsdk.CallToolResult, SwapBackendOutput, error) {
	target := strings.TrimSpace(args.Target)
	if target == "" {
		return nil, SwapBackendOutput{}, fmt.Errorf("target is required")
	}
	if args.TimeoutMS < 0 {
		return nil, SwapBackendOutput{}, fmt.Errorf("timeout_ms must be >= 0")
	}
	for _, name := range args.Require {
		if _, err := platform.ParseFeature(name); err != nil {
			return nil, SwapBackendOutput{}, err
		}
	}
	wait := true
	if args.Wait != nil {
		wait = *args.Wait
	}

	data, err := s.daemon.Swap(ipc.SwapPayload{
		Target:    target,
		Require:   args.Require,
		TimeoutMS: args.TimeoutMS,
		Wait:      wait,
	})
	if err != nil {
		s.logger.Warn("swap_backend failed", "target", target, "error", err)
		return nil, SwapBackendOutput{}, err
	}

	s.logger.Info("swap_backend", "target", target, "status", data.Status)
	return nil, swapOutput(data), nil
}

func (s *Server) handleListBackends(_ context.Context, _ *mcpsdk.CallToolRequest, args ListBackendsInput) (*mcpsdk.CallToolResult, ListBackendsOutput, error) {
	var filter platform.Feature
	if args.Feature != "" {
		f, err := platform.ParseFeature(args.Feature)
		if err != nil {
			return nil, ListBackendsOutput{}, err
		}
		filter = f
	}

	data, err := s.daemon.ListBackends()
	if err != nil {
		return nil, ListBackendsOutput{}, err
	}

	out := ListBackendsOutput{
		Current:  data.Current,
		Default:  data.Default,
		Backends: make([]BackendInfo, 0, len(data.Backends)),
	}
	for _, b := range data.Backends {
		if filter != "" && !hasFeature(b.Features, filter) {
			continue
		}
		out.Backends = append(out.Backends, BackendInfo{
			ID:       b.ID,
			Name:     b.Name,
			Version:  b.Version,
			Features: b.Features,
			Current:  b.Current,
			Default:  b.Default,
		})
	}
	return nil, out, nil
}

func hasFeature(names []string, want platform.Feature) bool {
	for _, n := range names {
		if f, err := platform.ParseFeature(n); err == nil && f == want {
			return true
		}
	}
	return false
}

func (s *Server) handleSwapStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ SwapStatusInput) (*mcpsdk.CallToolResult, SwapStatusOutput, error) {
	st, err := s.daemon.GetStatus()
	if err != nil {
		return nil, SwapStatusOutput{}, err
	}

	out := SwapStatusOutput{
		CurrentBackend: st.CurrentBackend,
		State:          st.State,
		Buffered:       st.Buffered,
		Completed:      st.Completed,
		RolledBack:     st.RolledBack,
		Failed:         st.Failed,
		Pending:        st.Pending,
		UptimeSeconds:  st.UptimeSeconds,
	}
	if a := st.Active; a != nil {
		out.Active = &ActiveSwap{
			ID:         a.ID,
			Source:     a.Source,
			Target:     a.Target,
			ElapsedMS:  a.ElapsedMS,
			TimeoutMS:  a.TimeoutMS,
			Cancelable: a.Cancelable,
		}
	}
	if st.Last != nil {
		last := swapOutput(st.Last)
		out.Last = &last
	}
	return nil, out, nil
}

// handleCancelSwap reports a refused cancel as a result rather than a tool
// error; the swap simply kept running.
func (s *Server) handleCancelSwap(_ context.Context, _ *mcpsdk.CallToolRequest, _ CancelSwapInput) (*mcpsdk.CallToolResult, CancelSwapOutput, error) {
	if err := s.daemon.Cancel(); err != nil {
		if strings.Contains(err.Error(), "failed to connect") {
			return nil, CancelSwapOutput{}, err
		}
		return nil, CancelSwapOutput{Cancelled: false, Reason: err.Error()}, nil
	}
	s.logger.Info("cancel_swap accepted")
	return nil, CancelSwapOutput{Cancelled: true}, nil
}
