package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/winswap/internal/runtimepath"
)

// DefaultTimeout bounds a single request/response round trip.
const DefaultTimeout = 5 * time.Second

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for the daemon listening on socketPath.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    DefaultTimeout,
	}
}

// sendRequest sends a request and waits up to wait for a response.
func (c *Client) sendRequest(req *Request, wait time.Duration) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(wait))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// Swap asks the daemon to replace its backend with payload.Target. With
// payload.Wait set the call blocks until the swap finishes, so the
// connection deadline is stretched by the swap timeout.
func (c *Client) Swap(payload SwapPayload) (*SwapData, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal swap payload: %w", err)
	}

	wait := c.timeout
	if payload.Wait {
		swapTimeout := time.Duration(payload.TimeoutMS) * time.Millisecond
		if swapTimeout <= 0 {
			swapTimeout = 30 * time.Second
		}
		wait += swapTimeout
	}

	resp, err := c.sendRequest(&Request{Command: CommandSwap, Payload: raw}, wait)
	if err != nil {
		return nil, err
	}

	var data SwapData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse swap data: %w", err)
	}
	return &data, nil
}

// Cancel sends a CANCEL command to the daemon
func (c *Client) Cancel() error {
	_, err := c.sendRequest(&Request{Command: CommandCancel}, c.timeout)
	return err
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	_, err := c.sendRequest(&Request{Command: CommandReload}, c.timeout)
	return err
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus}, c.timeout)
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}

	return &status, nil
}

// ListBackends retrieves the registered backends and their features.
func (c *Client) ListBackends() (*BackendsData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandListBackends}, c.timeout)
	if err != nil {
		return nil, err
	}

	var data BackendsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse backends data: %w", err)
	}

	return &data, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
