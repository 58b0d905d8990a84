// Package mcp exposes the running winswap daemon to MCP clients over
// stdio. Every tool is a thin wrapper around the IPC client.
package mcp

import (
	"context"
	"io"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/winswap/internal/ipc"
)

const (
	ServerName    = "winswap"
	ServerVersion = "0.1.0"
)

// Daemon is the IPC surface the tools call. *ipc.Client implements it.
type Daemon interface {
	Swap(payload ipc.SwapPayload) (*ipc.SwapData, error)
	Cancel() error
	GetStatus() (*ipc.StatusData, error)
	ListBackends() (*ipc.BackendsData, error)
}

var _ Daemon = (*ipc.Client)(nil)

// Server is the MCP server for backend swaps.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	logger    *slog.Logger
}

// NewServer creates a new MCP server talking to daemon.
func NewServer(daemon Daemon, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		daemon: daemon,
		logger: logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "swap_backend",
		Description: "Replace the window backend of the running winswap daemon without losing window state or input. The target must be registered and support every required feature. By default waits for the outcome: completed, rolled-back (target failed, previous backend restored) or failed.",
	}, s.handleSwapBackend)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_backends",
		Description: "List the window backends available to the daemon with their features, marking the current and default backend.",
	}, s.handleListBackends)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "swap_status",
		Description: "Report the daemon's current backend, swap state machine state, buffered event count, swap counters and the last outcome.",
	}, s.handleSwapStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "cancel_swap",
		Description: "Cancel a queued swap, or one that has not yet started capturing events. Swaps past that point run to completion or rollback.",
	}, s.handleCancelSwap)
}
