// Package mcp exposes compositor inspection and control as MCP tools over
// stdio. Every tool goes through the daemon's control socket.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/scape/internal/compositor"
	"github.com/1broseidon/scape/internal/ipc"
	"github.com/1broseidon/scape/internal/platform"
	"github.com/1broseidon/scape/internal/zone"
)

const (
	ServerName    = "scape"
	ServerVersion = "0.1.0"
)

// Daemon is the subset of the IPC client the tools need.
type Daemon interface {
	GetOutputs() (*ipc.OutputsData, error)
	GetWindows() (*ipc.WindowsData, error)
	GetZones() (*ipc.ZonesData, error)
	MoveToZone(id platform.WindowID, zoneName string) error
	SetZones(space string, specs []zone.Spec) error
	Reload() error
	Spawn(command string, args []string) error
}

var _ Daemon = (*ipc.Client)(nil)

// Server is the MCP server.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	logger    *slog.Logger
}

// NewServer creates an MCP server that talks to daemon.
func NewServer(daemon Daemon, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{daemon: daemon, logger: logger}
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
		Name:        "list_outputs",
		Description: "List connected outputs with their geometry, space and state (pending outputs have no layout yet).",
	}, s.handleListOutputs)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List mapped windows with their space, zone assignment and geometry, plus the focused window id.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_zones",
		Description: "List spaces with their outputs and named zones. Zone geometry is relative to the space origin.",
	}, s.handleListZones)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_window_to_zone",
		Description: "Move a window (default: the focused one) into a named zone of its space. Unknown zone names fail with a suggestion.",
	}, s.handleMoveWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_zones",
		Description: "Replace the zone set of a space. The set is validated as a whole; on error the previous zones stay. Windows in removed zones become unassigned.",
	}, s.handleSetZones)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reload_config",
		Description: "Reload the user script. On failure the previous configuration stays active and the error is returned.",
	}, s.handleReload)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "spawn",
		Description: "Launch a program through the compositor so it inherits the configured environment.",
	}, s.handleSpawn)
}

func (s *Server) handleListOutputs(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ListOutputsOutput, error) {
	data, err := s.daemon.GetOutputs()
	if err != nil {
		return nil, ListOutputsOutput{}, err
	}
	return nil, ListOutputsOutput{Outputs: data.Outputs}, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	data, err := s.daemon.GetWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	return nil, ListWindowsOutput{Windows: data.Windows, Focused: data.Focused}, nil
}

func (s *Server) handleListZones(_ context.Context, _ *mcpsdk.CallToolRequest, args ListZonesInput) (*mcpsdk.CallToolResult, ListZonesOutput, error) {
	data, err := s.daemon.GetZones()
	if err != nil {
		return nil, ListZonesOutput{}, err
	}
	if args.Space == "" {
		return nil, ListZonesOutput{Spaces: data.Spaces}, nil
	}
	for _, sp := range data.Spaces {
		if sp.Name == args.Space {
			return nil, ListZonesOutput{Spaces: []compositor.SpaceState{sp}}, nil
		}
	}
	return nil, ListZonesOutput{}, fmt.Errorf("unknown space %q", args.Space)
}

func (s *Server) handleMoveWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveWindowInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if strings.TrimSpace(args.Zone) == "" {
		return nil, AckOutput{}, fmt.Errorf("zone is required")
	}
	if err := s.daemon.MoveToZone(args.Window, args.Zone); err != nil {
		return nil, AckOutput{}, err
	}
	target := "focused window"
	if args.Window != 0 {
		target = fmt.Sprintf("window %d", args.Window)
	}
	s.logger.Info("mcp: moved window", "window", args.Window, "zone", args.Zone)
	return nil, AckOutput{OK: true, Message: fmt.Sprintf("moved %s to zone %q", target, args.Zone)}, nil
}

func (s *Server) handleSetZones(_ context.Context, _ *mcpsdk.CallToolRequest, args SetZonesInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.daemon.SetZones(args.Space, args.Zones); err != nil {
		return nil, AckOutput{}, err
	}
	s.logger.Info("mcp: zones replaced", "space", args.Space, "zones", len(args.Zones))
	return nil, AckOutput{OK: true, Message: fmt.Sprintf("%d zones set", len(args.Zones))}, nil
}

func (s *Server) handleReload(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.daemon.Reload(); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true, Message: "script reloaded"}, nil
}

func (s *Server) handleSpawn(_ context.Context, _ *mcpsdk.CallToolRequest, args SpawnInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if strings.TrimSpace(args.Command) == "" {
		return nil, AckOutput{}, fmt.Errorf("command is required")
	}
	if err := s.daemon.Spawn(args.Command, args.Args); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true, Message: "spawned " + args.Command}, nil
}
