package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandSwap         CommandType = "SWAP"
	CommandCancel       CommandType = "CANCEL"
	CommandGetStatus    CommandType = "GET_STATUS"
	CommandListBackends CommandType = "LIST_BACKENDS"
	CommandReload       CommandType = "RELOAD"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// SwapPayload represents the payload for the SWAP command
type SwapPayload struct {
	Target string `json:"target"`
	// Require lists window features the target must support, in addition
	// to the daemon's configured required_features.
	Require   []string `json:"require,omitempty"`
	TimeoutMS int64    `json:"timeout_ms,omitempty"`
	// Wait blocks the response until the swap reaches a terminal state.
	Wait bool `json:"wait,omitempty"`
}

// SwapData is returned by SWAP. Status is "queued" when Wait was false,
// otherwise one of "completed", "rolled-back" or "failed".
type SwapData struct {
	ID         string `json:"id"`
	Source     string `json:"source,omitempty"`
	Target     string `json:"target"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	Replayed   int    `json:"replayed,omitempty"`
	Spilled    int    `json:"spilled,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

// SwapInfo describes the swap currently running in the daemon.
type SwapInfo struct {
	ID         string   `json:"id"`
	Source     string   `json:"source"`
	Target     string   `json:"target"`
	Required   []string `json:"required,omitempty"`
	ElapsedMS  int64    `json:"elapsed_ms"`
	TimeoutMS  int64    `json:"timeout_ms"`
	Cancelable bool     `json:"cancelable"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	CurrentBackend string    `json:"current_backend"`
	State          string    `json:"state"`
	Buffered       int       `json:"buffered"`
	Completed      uint64    `json:"completed"`
	RolledBack     uint64    `json:"rolled_back"`
	Failed         uint64    `json:"failed"`
	Pending        bool      `json:"pending"`
	Active         *SwapInfo `json:"active,omitempty"`
	Last           *SwapData `json:"last,omitempty"`
	Generation     uint64    `json:"generation"`
	UptimeSeconds  int64     `json:"uptime_seconds"`
	DaemonRunning  bool      `json:"daemon_running"`
}

// BackendInfo describes one registered backend.
type BackendInfo struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Version  string   `json:"version,omitempty"`
	Features []string `json:"features"`
	Current  bool     `json:"current"`
	Default  bool     `json:"default"`
}

// BackendsData represents the data returned by LIST_BACKENDS
type BackendsData struct {
	Backends []BackendInfo `json:"backends"`
	Current  string        `json:"current"`
	Default  string        `json:"default"`
}

// NewOKResponse creates a successful response
func NewOKResponse(data interface{}) (*Response, error) {
	var rawData json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		rawData = bytes
	}

	return &Response{
		Status: "OK",
		Data:   rawData,
	}, nil
}

// NewErrorResponse creates an error response
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a JSON request
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
