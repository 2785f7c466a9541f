package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/scape/internal/compositor"
	"github.com/1broseidon/scape/internal/platform"
	"github.com/1broseidon/scape/internal/runtimepath"
	"github.com/1broseidon/scape/internal/zone"
)

// Error is a failure reported by the daemon.
type Error struct {
	Message string
	Kind    string
}

func (e *Error) Error() string {
	return "daemon error: " + e.Message
}

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for socketPath, or the default socket when
// socketPath is empty.
func NewClient(socketPath string) *Client {
	if socketPath == "" {
		path, err := runtimepath.SocketPath()
		if err == nil {
			socketPath = path
		}
		// Keep constructor non-failing; sendRequest surfaces connection errors.
	}

	return &Client{
		socketPath: socketPath,
		timeout:    15 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(cmd CommandType, payload any) (*Response, error) {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}

	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(c.timeout))

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
		return nil, &Error{Message: resp.Error, Kind: resp.Kind}
	}
	return &resp, nil
}

func (c *Client) get(cmd CommandType, out any) error {
	resp, err := c.sendRequest(cmd, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var data StatusData
	if err := c.get(CommandGetStatus, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetOutputs retrieves the connected outputs.
func (c *Client) GetOutputs() (*OutputsData, error) {
	var data OutputsData
	if err := c.get(CommandGetOutputs, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetWindows retrieves mapped windows.
func (c *Client) GetWindows() (*WindowsData, error) {
	var data WindowsData
	if err := c.get(CommandGetWindows, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetZones retrieves every space with its zones.
func (c *Client) GetZones() (*ZonesData, error) {
	var data ZonesData
	if err := c.get(CommandGetZones, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetBindings retrieves the key binding table.
func (c *Client) GetBindings() (*BindingsData, error) {
	var data BindingsData
	if err := c.get(CommandGetBindings, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSnapshot retrieves the full orchestrator state.
func (c *Client) GetSnapshot() (*compositor.Snapshot, error) {
	var data compositor.Snapshot
	if err := c.get(CommandGetSnapshot, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Reload asks the daemon to reload its script.
func (c *Client) Reload() error {
	_, err := c.sendRequest(CommandReload, nil)
	return err
}

// MoveToZone moves a window, or the focused one when id is zero.
func (c *Client) MoveToZone(id platform.WindowID, zoneName string) error {
	_, err := c.sendRequest(CommandMoveToZone, MoveToZonePayload{Window: id, Zone: zoneName})
	return err
}

// SetZones replaces the zones of space.
func (c *Client) SetZones(space string, specs []zone.Spec) error {
	_, err := c.sendRequest(CommandSetZones, SetZonesPayload{Space: space, Zones: specs})
	return err
}

// Spawn launches a process through the daemon, with its extra environment.
func (c *Client) Spawn(command string, args []string) error {
	_, err := c.sendRequest(CommandSpawn, SpawnPayload{Command: command, Args: args})
	return err
}

// Focus focuses a window.
func (c *Client) Focus(id platform.WindowID) error {
	_, err := c.sendRequest(CommandFocus, FocusPayload{Window: id})
	return err
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
