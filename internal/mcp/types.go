package mcp

import "github.com/1broseidon/winswap/internal/ipc"

// SwapBackendInput is the input for the swap_backend tool.
type SwapBackendInput struct {
	Target    string   `json:"target" jsonschema:"required,Backend id to switch to (see list_backends)"`
	Require   []string `json:"require,omitempty" jsonschema:"Window features the target must support, e.g. opengl or high-dpi. Added to the daemon's required_features."`
	TimeoutMS int64    `json:"timeout_ms,omitempty" jsonschema:"Swap timeout in milliseconds (default: the daemon's swap.timeout)"`
	Wait      *bool    `json:"wait,omitempty" jsonschema:"When true (default), block until the swap completes, rolls back or fails"`
}

// SwapBackendOutput is the output for the swap_backend tool.
type SwapBackendOutput struct {
	ID         string `json:"id"`
	Source     string `json:"source,omitempty"`
	Target     string `json:"target"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	Replayed   int    `json:"replayed,omitempty"`
	Spilled    int    `json:"spilled,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

// ListBackendsInput is the input for the list_backends tool.
type ListBackendsInput struct {
	Feature string `json:"feature,omitempty" jsonschema:"Only list backends supporting this feature"`
}

// BackendInfo describes one backend.
type BackendInfo struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Version  string   `json:"version,omitempty"`
	Features []string `json:"features"`
	Current  bool     `json:"current"`
	Default  bool     `json:"default"`
}

// ListBackendsOutput is the output for the list_backends tool.
type ListBackendsOutput struct {
	Current  string        `json:"current"`
	Default  string        `json:"default"`
	Backends []BackendInfo `json:"backends"`
}

// SwapStatusInput is the input for the swap_status tool.
type SwapStatusInput struct{}

// ActiveSwap describes the swap currently running.
type ActiveSwap struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	Target     string `json:"target"`
	ElapsedMS  int64  `json:"elapsed_ms"`
	TimeoutMS  int64  `json:"timeout_ms"`
	Cancelable bool   `json:"cancelable"`
}

// SwapStatusOutput is the output for the swap_status tool.
type SwapStatusOutput struct {
	CurrentBackend string             `json:"current_backend"`
	State          string             `json:"state"`
	Buffered       int                `json:"buffered"`
	Completed      uint64             `json:"completed"`
	RolledBack     uint64             `json:"rolled_back"`
	Failed         uint64             `json:"failed"`
	Pending        bool               `json:"pending"`
	Active         *ActiveSwap        `json:"active,omitempty"`
	Last           *SwapBackendOutput `json:"last,omitempty"`
	UptimeSeconds  int64              `json:"uptime_seconds"`
}

// CancelSwapInput is the input for the cancel_swap tool.
type CancelSwapInput struct{}

// CancelSwapOutput is the output for the cancel_swap tool.
type CancelSwapOutput struct {
	Cancelled bool   `json:"cancelled"`
	Reason    string `json:"reason,omitempty"`
}

func swapOutput(d *ipc.SwapData) SwapBackendOutput {
	return SwapBackendOutput{
		ID:         d.ID,
		Source:     d.Source,
		Target:     d.Target,
		Status:     d.Status,
		Error:      d.Error,
		Replayed:   d.Replayed,
		Spilled:    d.Spilled,
		DurationMS: d.DurationMS,
	}
}
