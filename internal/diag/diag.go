// Package diag defines the error taxonomy reported by the compositor and the
// channel that carries diagnostics to the embedding application.
package diag

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/1broseidon/scape/internal/keymap"
	"github.com/1broseidon/scape/internal/output"
	"github.com/1broseidon/scape/internal/window"
	"github.com/1broseidon/scape/internal/zone"
)

// Kind classifies a reported error.
type Kind string

const (
	// ConfigurationError: an invalid zone or output spec. The previous state
	// is retained.
	ConfigurationError Kind = "configuration_error"
	// ScriptRuntimeError: a callback raised. Commands issued before the
	// failure still apply.
	ScriptRuntimeError Kind = "script_runtime_error"
	// ScriptLoadError: a load or reload failed. The previous configuration
	// stays active.
	ScriptLoadError Kind = "script_load_error"
	// UnknownReferenceError: a command named a zone, window or output that
	// does not exist. Only that command is dropped.
	UnknownReferenceError Kind = "unknown_reference_error"
	// EventError: a backend event disagreed with the registries.
	EventError Kind = "event_error"
	// InternalError: a recovered panic.
	InternalError Kind = "internal_error"
)

// kinded is implemented by errors that know their own classification.
type kinded interface {
	DiagKind() Kind
}

type sentinel struct {
	kind Kind
	msg  string
}

func (s *sentinel) Error() string  { return s.msg }
func (s *sentinel) DiagKind() Kind { return s.kind }

// Sentinel creates a comparable error value that classifies as kind.
func Sentinel(kind Kind, msg string) error {
	return &sentinel{kind: kind, msg: msg}
}

// Classify maps an error onto the taxonomy. Unrecognised errors are
// configuration errors.
func Classify(err error) Kind {
	var k kinded
	if errors.As(err, &k) {
		return k.DiagKind()
	}
	switch {
	case errors.Is(err, zone.ErrUnknownZone),
		errors.Is(err, window.ErrUnknownWindow),
		errors.Is(err, output.ErrUnknownOutput):
		return UnknownReferenceError
	case errors.Is(err, zone.ErrInvalidZoneGeometry),
		errors.Is(err, zone.ErrInvalidZoneName),
		errors.Is(err, zone.ErrDuplicateZoneName),
		errors.Is(err, zone.ErrMultipleDefaultZones),
		errors.Is(err, output.ErrInvalidGeometry),
		errors.Is(err, keymap.ErrUnknownModifier):
		return ConfigurationError
	case errors.Is(err, output.ErrDuplicateConnector),
		errors.Is(err, window.ErrDuplicateWindow):
		return EventError
	}
	return ConfigurationError
}

// Diagnostic is one reported failure.
type Diagnostic struct {
	Kind Kind `json:"kind"`
	// Op names the event or command that failed, e.g. "set_zones".
	Op    string    `json:"op"`
	Err   error     `json:"-"`
	Cycle uuid.UUID `json:"cycle"`
	Time  time.Time `json:"time"`
}

// Message returns the error text.
func (d Diagnostic) Message() string {
	if d.Err == nil {
		return ""
	}
	return d.Err.Error()
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Kind, d.Op, d.Message())
}

// Channel delivers diagnostics without ever blocking the reporter. When the
// buffer is full the diagnostic is logged and counted as dropped.
type Channel struct {
	ch      chan Diagnostic
	logger  *slog.Logger
	dropped atomic.Int64
}

// NewChannel creates a channel with the given buffer size.
func NewChannel(size int, logger *slog.Logger) *Channel {
	if size <= 0 {
		size = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{ch: make(chan Diagnostic, size), logger: logger}
}

// Report logs and enqueues a diagnostic.
func (c *Channel) Report(d Diagnostic) {
	if d.Time.IsZero() {
		d.Time = time.Now()
	}
	c.logger.Warn("compositor diagnostic",
		"kind", string(d.Kind),
		"op", d.Op,
		"cycle", d.Cycle.String(),
		"error", d.Message(),
	)
	select {
	case c.ch <- d:
	default:
		c.dropped.Add(1)
		c.logger.Debug("diagnostic dropped: channel full", "op", d.Op)
	}
}

// C returns the receive side.
func (c *Channel) C() <-chan Diagnostic {
	return c.ch
}

// Dropped returns how many diagnostics were discarded.
func (c *Channel) Dropped() int64 {
	return c.dropped.Load()
}

// Drain returns every buffered diagnostic without blocking.
func (c *Channel) Drain() []Diagnostic {
	var out []Diagnostic
	for {
		select {
		case d := <-c.ch:
			out = append(out, d)
		default:
			return out
		}
	}
}
