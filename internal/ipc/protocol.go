package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/scape/internal/compositor"
	"github.com/1broseidon/scape/internal/output"
	"github.com/1broseidon/scape/internal/platform"
	"github.com/1broseidon/scape/internal/window"
	"github.com/1broseidon/scape/internal/zone"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandGetOutputs  CommandType = "GET_OUTPUTS"
	CommandGetWindows  CommandType = "GET_WINDOWS"
	CommandGetZones    CommandType = "GET_ZONES"
	CommandGetBindings CommandType = "GET_BINDINGS"
	CommandGetSnapshot CommandType = "GET_SNAPSHOT"
	CommandReload      CommandType = "RELOAD"
	CommandMoveToZone  CommandType = "MOVE_TO_ZONE"
	CommandSetZones    CommandType = "SET_ZONES"
	CommandSpawn       CommandType = "SPAWN"
	CommandFocus       CommandType = "FOCUS"
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
	// Kind is the diagnostic kind of a failed command.
	Kind string `json:"kind,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	ScriptLoaded       bool              `json:"script_loaded"`
	ScriptLoads        int               `json:"script_loads"`
	Outputs            int               `json:"outputs"`
	Windows            int               `json:"windows"`
	Spaces             int               `json:"spaces"`
	Bindings           int               `json:"bindings"`
	Focused            platform.WindowID `json:"focused,omitempty"`
	EventsProcessed    int64             `json:"events_processed"`
	DiagnosticsDropped int64             `json:"diagnostics_dropped"`
	UptimeSeconds      int64             `json:"uptime_seconds"`
	DaemonRunning      bool              `json:"daemon_running"`
}

// OutputsData represents the data returned by GET_OUTPUTS
type OutputsData struct {
	Outputs []output.Output `json:"outputs"`
}

// WindowsData represents the data returned by GET_WINDOWS
type WindowsData struct {
	Windows []window.Window   `json:"windows"`
	Focused platform.WindowID `json:"focused,omitempty"`
}

// ZonesData represents the data returned by GET_ZONES
type ZonesData struct {
	Spaces []compositor.SpaceState `json:"spaces"`
}

// BindingsData represents the data returned by GET_BINDINGS
type BindingsData struct {
	Bindings []compositor.BindingState `json:"bindings"`
}

// MoveToZonePayload moves Window, or the focused window when zero.
type MoveToZonePayload struct {
	Window platform.WindowID `json:"window,omitempty"`
	Zone   string            `json:"zone"`
}

// SetZonesPayload replaces the zones of Space, or of the focused window's
// space when empty.
type SetZonesPayload struct {
	Space string      `json:"space,omitempty"`
	Zones []zone.Spec `json:"zones"`
}

type SpawnPayload struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

type FocusPayload struct {
	Window platform.WindowID `json:"window"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
