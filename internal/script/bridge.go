// Package script embeds the Lua configuration runtime. User scripts register
// callbacks and request state changes through the "scape" module; requests
// are buffered as Commands and returned to the caller once the script code
// has finished running.
package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/1broseidon/scape/internal/diag"
	"github.com/1broseidon/scape/internal/output"
	"github.com/1broseidon/scape/internal/platform"
	"github.com/1broseidon/scape/internal/window"
	"github.com/1broseidon/scape/internal/zone"
)

// ModuleName is the name scripts require.
const ModuleName = "scape"

var (
	ErrLoad            = diag.Sentinel(diag.ScriptLoadError, "script load failed")
	ErrRuntime         = diag.Sentinel(diag.ScriptRuntimeError, "script callback failed")
	ErrUnknownCallback = diag.Sentinel(diag.UnknownReferenceError, "unknown callback")
	ErrNotLoaded       = errors.New("no script loaded")
)

// View gives scripts read-only access to compositor state. It is only called
// on the goroutine running the script.
type View interface {
	Outputs() []output.Output
	Windows() []window.Window
	Focused() (window.Window, bool)
	Zones(space string) []zone.Zone
}

// Options configures a Bridge.
type Options struct {
	Logger *slog.Logger
	// Timeout bounds a single load or callback. Zero means no limit.
	Timeout time.Duration
	// ModuleDir is searched by require for user modules. Empty disables
	// file-based modules.
	ModuleDir string
	View      View
}

// runtime is everything created by one successful load. Reloading builds a
// new runtime and swaps it in only if the script ran cleanly.
type runtime struct {
	L               *lua.LState
	callbacks       map[platform.CallbackRef]*lua.LFunction
	startup         platform.CallbackRef
	connectorChange platform.CallbackRef
	pending         []Command
}

func (rt *runtime) drain() []Command {
	cmds := rt.pending
	rt.pending = nil
	return cmds
}

func (rt *runtime) close() {
	if rt != nil && rt.L != nil {
		rt.L.Close()
	}
}

// Bridge owns the Lua state. It is not safe for concurrent use.
type Bridge struct {
	logger    *slog.Logger
	timeout   time.Duration
	moduleDir string
	view      View

	rt *runtime
	// refs are never reused, so handles from a replaced runtime stay invalid.
	nextRef platform.CallbackRef
	loads   int
}

// New creates a bridge with no script loaded.
func New(opts Options) *Bridge {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		logger:    logger,
		timeout:   opts.Timeout,
		moduleDir: opts.ModuleDir,
		view:      opts.View,
	}
}

// SetView sets the state view exposed to scripts.
func (b *Bridge) SetView(v View) {
	b.view = v
}

// Loaded reports whether a script is active.
func (b *Bridge) Loaded() bool {
	return b.rt != nil
}

// Loads returns the number of successful loads.
func (b *Bridge) Loads() int {
	return b.loads
}

// Load runs source in a fresh runtime. On success the new runtime replaces
// the current one and the commands the top-level chunk issued are returned.
// On failure the current runtime is untouched.
func (b *Bridge) Load(ctx context.Context, name, source string) ([]Command, error) {
	rt := &runtime{callbacks: make(map[platform.CallbackRef]*lua.LFunction)}
	rt.L = b.newState(rt)

	fn, err := rt.L.Load(strings.NewReader(source), name)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("%w: %s", ErrLoad, luaErrorMessage(err))
	}
	if err := b.call(ctx, rt, fn); err != nil {
		rt.close()
		return nil, fmt.Errorf("%w: %s", ErrLoad, luaErrorMessage(err))
	}

	old := b.rt
	b.rt = rt
	old.close()
	b.loads++
	b.logger.Info("script loaded", "name", name, "callbacks", len(rt.callbacks))
	return rt.drain(), nil
}

// Startup runs the on_startup hook of the current script, if any.
func (b *Bridge) Startup(ctx context.Context) ([]Command, error) {
	if b.rt == nil {
		return nil, ErrNotLoaded
	}
	if !b.rt.startup.Valid() {
		return nil, nil
	}
	return b.invoke(ctx, b.rt.startup)
}

// HasConnectorChange reports whether the script registered on_connector_change.
func (b *Bridge) HasConnectorChange() bool {
	return b.rt != nil && b.rt.connectorChange.Valid()
}

// ConnectorChange runs the on_connector_change hook with one record per
// connected output.
func (b *Bridge) ConnectorChange(ctx context.Context, outputs []output.Output) ([]Command, error) {
	if b.rt == nil {
		return nil, ErrNotLoaded
	}
	if !b.rt.connectorChange.Valid() {
		return nil, nil
	}
	records := b.rt.L.NewTable()
	for i, o := range outputs {
		records.Append(outputRecord(b.rt.L, i+1, o))
	}
	return b.invoke(ctx, b.rt.connectorChange, records)
}

// Invoke runs a registered callback. Commands issued before a failure are
// returned together with the error.
func (b *Bridge) Invoke(ctx context.Context, ref platform.CallbackRef) ([]Command, error) {
	if b.rt == nil {
		return nil, ErrNotLoaded
	}
	return b.invoke(ctx, ref)
}

// HasCallback reports whether ref belongs to the current script.
func (b *Bridge) HasCallback(ref platform.CallbackRef) bool {
	if b.rt == nil {
		return false
	}
	_, ok := b.rt.callbacks[ref]
	return ok
}

// Close releases the Lua state.
func (b *Bridge) Close() {
	b.rt.close()
	b.rt = nil
}

func (b *Bridge) invoke(ctx context.Context, ref platform.CallbackRef, args ...lua.LValue) ([]Command, error) {
	fn, ok := b.rt.callbacks[ref]
	if !ok {
		return nil, fmt.Errorf("callback %d: %w", ref, ErrUnknownCallback)
	}
	err := b.call(ctx, b.rt, fn, args...)
	cmds := b.rt.drain()
	if err != nil {
		return cmds, fmt.Errorf("%w: %s", ErrRuntime, luaErrorMessage(err))
	}
	return cmds, nil
}

func (b *Bridge) call(ctx context.Context, rt *runtime, fn *lua.LFunction, args ...lua.LValue) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	rt.L.SetContext(ctx)
	defer rt.L.RemoveContext()

	return rt.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...)
}

func (b *Bridge) register(rt *runtime, fn *lua.LFunction) platform.CallbackRef {
	b.nextRef++
	rt.callbacks[b.nextRef] = fn
	return b.nextRef
}

func luaErrorMessage(err error) string {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return apiErr.Object.String()
	}
	return err.Error()
}
