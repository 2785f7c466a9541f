package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/1broseidon/scape/internal/compositor"
	"github.com/1broseidon/scape/internal/diag"
	"github.com/1broseidon/scape/internal/script"
)

// requestTimeout bounds how long a request may wait on the orchestrator.
const requestTimeout = 10 * time.Second

// Controller is the orchestrator surface the server drives. Queries and
// commands are both serialized through the orchestrator's event queue.
type Controller interface {
	Snapshot(ctx context.Context) (compositor.Snapshot, error)
	Apply(ctx context.Context, cmds ...script.Command) error
}

// ReloadFunc reloads the user script.
type ReloadFunc func(ctx context.Context) error

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	ctrl         Controller
	reload       ReloadFunc
	logger       *slog.Logger
	startTime    time.Time
	conns        sync.WaitGroup
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a server listening on socketPath once started.
func NewServer(socketPath string, ctrl Controller, reload ReloadFunc, logger *slog.Logger) (*Server, error) {
	if socketPath == "" {
		return nil, fmt.Errorf("IPC socket path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Remove a stale socket from a previous run.
	_ = os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		ctrl:       ctrl,
		reload:     reload,
		logger:     logger,
		startTime:  time.Now(),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection serves one request per connection.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(requestTimeout + time.Second))

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.writeResponse(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	s.writeResponse(conn, s.handleCommand(ctx, req))
}

func (s *Server) writeResponse(conn net.Conn, resp *Response) {
	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal IPC response", "error", err)
		return
	}
	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send IPC response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	s.logger.Debug("IPC request", "command", req.Command)
	switch req.Command {
	case CommandGetStatus:
		return s.query(ctx, s.status)
	case CommandGetOutputs:
		return s.query(ctx, func(snap compositor.Snapshot) any { return OutputsData{Outputs: snap.Outputs} })
	case CommandGetWindows:
		return s.query(ctx, func(snap compositor.Snapshot) any {
			return WindowsData{Windows: snap.Windows, Focused: snap.Focused}
		})
	case CommandGetZones:
		return s.query(ctx, func(snap compositor.Snapshot) any { return ZonesData{Spaces: snap.Spaces} })
	case CommandGetBindings:
		return s.query(ctx, func(snap compositor.Snapshot) any { return BindingsData{Bindings: snap.Bindings} })
	case CommandGetSnapshot:
		return s.query(ctx, func(snap compositor.Snapshot) any { return snap })
	case CommandReload:
		return s.handleReload(ctx)
	case CommandMoveToZone:
		return s.handleMoveToZone(ctx, req.Payload)
	case CommandSetZones:
		return s.handleSetZones(ctx, req.Payload)
	case CommandSpawn:
		return s.handleSpawn(ctx, req.Payload)
	case CommandFocus:
		return s.handleFocus(ctx, req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) query(ctx context.Context, view func(compositor.Snapshot) any) *Response {
	snap, err := s.ctrl.Snapshot(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to read state: %v", err))
	}
	resp, err := NewOKResponse(view(snap))
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) status(snap compositor.Snapshot) any {
	return StatusData{
		ScriptLoaded:       snap.ScriptLoaded,
		ScriptLoads:        snap.ScriptLoads,
		Outputs:            len(snap.Outputs),
		Windows:            len(snap.Windows),
		Spaces:             len(snap.Spaces),
		Bindings:           len(snap.Bindings),
		Focused:            snap.Focused,
		EventsProcessed:    snap.Processed,
		DiagnosticsDropped: snap.Dropped,
		UptimeSeconds:      int64(time.Since(s.startTime).Seconds()),
		DaemonRunning:      true,
	}
}

func (s *Server) handleReload(ctx context.Context) *Response {
	if s.reload == nil {
		return NewErrorResponse("reload is not supported")
	}
	s.logger.Info("IPC: reloading script")
	if err := s.reload(ctx); err != nil {
		return commandError("Failed to reload script", err)
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleMoveToZone(ctx context.Context, payload json.RawMessage) *Response {
	var req MoveToZonePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid move payload: %v", err))
	}
	if strings.TrimSpace(req.Zone) == "" {
		return NewErrorResponse("zone is required")
	}
	return s.apply(ctx, "Failed to move window", script.MoveToZone{Window: req.Window, Zone: req.Zone})
}

func (s *Server) handleSetZones(ctx context.Context, payload json.RawMessage) *Response {
	var req SetZonesPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid set_zones payload: %v", err))
	}
	return s.apply(ctx, "Failed to set zones", script.SetZones{Space: req.Space, Zones: req.Zones})
}

func (s *Server) handleSpawn(ctx context.Context, payload json.RawMessage) *Response {
	var req SpawnPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid spawn payload: %v", err))
	}
	if strings.TrimSpace(req.Command) == "" {
		return NewErrorResponse("command is required")
	}
	return s.apply(ctx, "Failed to spawn", script.Spawn{Command: req.Command, Args: req.Args})
}

func (s *Server) handleFocus(ctx context.Context, payload json.RawMessage) *Response {
	var req FocusPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid focus payload: %v", err))
	}
	if req.Window == 0 {
		return NewErrorResponse("window is required")
	}
	return s.apply(ctx, "Failed to focus window", script.FocusWindow{Window: req.Window})
}

func (s *Server) apply(ctx context.Context, what string, cmds ...script.Command) *Response {
	if err := s.ctrl.Apply(ctx, cmds...); err != nil {
		return commandError(what, err)
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func commandError(what string, err error) *Response {
	resp := NewErrorResponse(fmt.Sprintf("%s: %v", what, err))
	resp.Kind = string(diag.Classify(err))
	return resp
}

// Stop shuts the server down and waits for in-flight requests.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.conns.Wait()
	_ = os.Remove(s.socketPath)
}
