// Package compositor is the orchestrator: it owns the live model of outputs,
// windows, zones and key bindings, consumes backend events from a single
// queue and applies the commands issued by the configuration script.
//
// All state is mutated on the goroutine running Run. Other goroutines talk to
// it only through Post and the request helpers built on it.
package compositor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/1broseidon/scape/internal/diag"
	"github.com/1broseidon/scape/internal/keymap"
	"github.com/1broseidon/scape/internal/output"
	"github.com/1broseidon/scape/internal/platform"
	"github.com/1broseidon/scape/internal/script"
	"github.com/1broseidon/scape/internal/window"
	"github.com/1broseidon/scape/internal/zone"
)

// DefaultQueueSize is the event queue capacity when none is configured.
const DefaultQueueSize = 256

var (
	// ErrNoFocusedWindow is returned by commands that act on the focused
	// window when there is none.
	ErrNoFocusedWindow = diag.Sentinel(diag.UnknownReferenceError, "no focused window")
	ErrQueueFull       = errors.New("event queue full")
	ErrStopped         = errors.New("compositor stopped")
)

// Options configures a Compositor. Backend is required; Renderer and Spawner
// default to Backend when it implements them.
type Options struct {
	Logger      *slog.Logger
	Backend     platform.DisplayBackend
	Renderer    platform.Renderer
	Spawner     platform.Spawner
	Bridge      *script.Bridge
	Diagnostics *diag.Channel
	Tracer      trace.Tracer

	DefaultSpace   string
	Gap            int
	DefaultKeymaps bool
	QueueSize      int
	// Env is added to the environment of every spawned process.
	Env map[string]string
}

// WindowRule sends windows with AppID to Zone when they map.
type WindowRule struct {
	AppID string `json:"app_id" yaml:"app_id"`
	Zone  string `json:"zone" yaml:"zone"`
}

// Compositor is the orchestrator state and event loop.
type Compositor struct {
	logger   *slog.Logger
	backend  platform.DisplayBackend
	renderer platform.Renderer
	spawner  platform.Spawner
	grabber  platform.KeyGrabber
	bridge   *script.Bridge
	diag     *diag.Channel
	tracer   trace.Tracer

	defaultSpace   string
	defaultKeymaps bool
	baseEnv        map[string]string

	outputs *output.Registry
	windows *window.Registry
	zones   *zone.Engine
	keys    *keymap.Table
	rules   []WindowRule
	env     map[string]string
	// zone origin per space, pinned by set_layout
	origins map[string]platform.Rect

	keysDirty bool
	quitting  bool

	queue   chan Event
	done    chan struct{}
	started atomic.Bool
	running atomic.Bool

	processed atomic.Int64
}

// New creates a compositor. Call Run to start processing events.
func New(opts Options) (*Compositor, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("compositor: display backend is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	renderer := opts.Renderer
	if renderer == nil {
		r, ok := opts.Backend.(platform.Renderer)
		if !ok {
			return nil, fmt.Errorf("compositor: renderer is required")
		}
		renderer = r
	}
	spawner := opts.Spawner
	if spawner == nil {
		s, ok := opts.Backend.(platform.Spawner)
		if !ok {
			return nil, fmt.Errorf("compositor: spawner is required")
		}
		spawner = s
	}
	bridge := opts.Bridge
	if bridge == nil {
		bridge = script.New(script.Options{Logger: logger})
	}
	diagnostics := opts.Diagnostics
	if diagnostics == nil {
		diagnostics = diag.NewChannel(64, logger)
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("scape")
	}
	defaultSpace := opts.DefaultSpace
	if defaultSpace == "" {
		defaultSpace = "main"
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	c := &Compositor{
		logger:         logger,
		backend:        opts.Backend,
		renderer:       renderer,
		spawner:        spawner,
		bridge:         bridge,
		diag:           diagnostics,
		tracer:         tracer,
		defaultSpace:   defaultSpace,
		defaultKeymaps: opts.DefaultKeymaps,
		baseEnv:        copyEnv(opts.Env),
		outputs:        output.NewRegistry(),
		windows:        window.NewRegistry(),
		zones:          zone.NewEngine(opts.Gap),
		keys:           keymap.NewTable(),
		origins:        make(map[string]platform.Rect),
		queue:          make(chan Event, queueSize),
		done:           make(chan struct{}),
	}
	c.grabber, _ = opts.Backend.(platform.KeyGrabber)
	c.env = copyEnv(c.baseEnv)
	c.installDefaultKeymaps()
	c.keysDirty = true
	bridge.SetView(stateView{c})
	return c, nil
}

// Diagnostics returns the channel errors are reported on.
func (c *Compositor) Diagnostics() *diag.Channel {
	return c.diag
}

// Run processes events until ctx is cancelled or the script asks to quit.
// It can only be called once.
func (c *Compositor) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("compositor: already running")
	}
	c.running.Store(true)
	defer func() {
		c.running.Store(false)
		close(c.done)
		c.bridge.Close()
	}()

	c.logger.Info("compositor started", "default_space", c.defaultSpace)
	c.syncGrabs()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("compositor stopping", "reason", ctx.Err())
			return ctx.Err()
		case ev := <-c.queue:
			c.handle(ctx, ev)
			if c.quitting {
				c.logger.Info("compositor quit requested")
				return nil
			}
		}
	}
}

// Done is closed once Run has returned.
func (c *Compositor) Done() <-chan struct{} {
	return c.done
}

// Processed returns the number of events handled so far.
func (c *Compositor) Processed() int64 {
	return c.processed.Load()
}

// Post queues an event, blocking while the queue is full.
func (c *Compositor) Post(ctx context.Context, ev Event) error {
	select {
	case <-c.done:
		return ErrStopped
	default:
	}
	select {
	case c.queue <- ev:
		return nil
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPost queues an event without blocking.
func (c *Compositor) TryPost(ev Event) error {
	select {
	case <-c.done:
		return ErrStopped
	default:
	}
	select {
	case c.queue <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// LoadScript replaces the running script with source and waits for the
// outcome. A failed load leaves the previous configuration in place.
func (c *Compositor) LoadScript(ctx context.Context, name, source string) error {
	reply := make(chan error, 1)
	if err := c.Post(ctx, loadScript{name: name, source: source, reply: reply}); err != nil {
		return err
	}
	return c.await(ctx, reply)
}

// LoadScriptFile reads path and loads it.
func (c *Compositor) LoadScriptFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("%w: read %s: %v", script.ErrLoad, path, err)
		c.diag.Report(diag.Diagnostic{Kind: diag.ScriptLoadError, Op: "load_script", Err: err})
		return err
	}
	return c.LoadScript(ctx, path, string(data))
}

// Apply runs commands as one batch, as if a script had issued them. The
// returned error joins the failures of individual commands.
func (c *Compositor) Apply(ctx context.Context, cmds ...script.Command) error {
	reply := make(chan error, 1)
	if err := c.Post(ctx, batch{commands: cmds, reply: reply}); err != nil {
		return err
	}
	return c.await(ctx, reply)
}

func (c *Compositor) await(ctx context.Context, reply chan error) error {
	select {
	case err := <-reply:
		return err
	case <-c.done:
		// The final event may have been answered just before the loop exited.
		select {
		case err := <-reply:
			return err
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handle runs one event through the pipeline. A panic is reported and the
// loop carries on.
func (c *Compositor) handle(ctx context.Context, ev Event) {
	cycle := uuid.New()
	ctx, span := c.tracer.Start(ctx, "compositor."+ev.Name(),
		trace.WithAttributes(
			attribute.String("cycle.id", cycle.String()),
			attribute.String("event.name", ev.Name()),
		),
	)
	defer span.End()
	defer c.processed.Add(1)
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic handling %s: %v", ev.Name(), r)
			c.logger.Error("recovered from panic", "event", ev.Name(), "panic", r)
			c.report(ctx, cycle, diag.InternalError, ev.Name(), err)
			switch e := ev.(type) {
			case loadScript:
				replyOnce(e.reply, err)
			case batch:
				replyOnce(e.reply, err)
			case query:
				select {
				case <-e.done:
				default:
					close(e.done)
				}
			}
		}
	}()

	cc := &cycleCtx{ctx: ctx, id: cycle}
	switch e := ev.(type) {
	case OutputAdded:
		c.handleOutputAdded(cc, e)
	case OutputRemoved:
		c.handleOutputRemoved(cc, e)
	case SurfaceMapped:
		c.handleSurfaceMapped(cc, e)
	case SurfaceUnmapped:
		c.handleSurfaceUnmapped(cc, e)
	case KeyEvent:
		c.handleKey(cc, e)
	case FocusChanged:
		if err := c.windows.SetFocus(e.Window); err != nil {
			c.report(ctx, cycle, diag.EventError, ev.Name(), err)
		}
	case loadScript:
		err := c.handleLoad(cc, e)
		e.reply <- err
	case batch:
		errs := c.apply(cc, e.commands)
		e.reply <- errors.Join(errs...)
	case query:
		e.fn()
		close(e.done)
	default:
		c.logger.Warn("unhandled event", "event", fmt.Sprintf("%T", ev))
	}
	c.syncGrabs()
}

// replyOnce answers a waiter unless the reply was already delivered.
func replyOnce(reply chan error, err error) {
	select {
	case reply <- err:
	default:
	}
}

// cycleCtx carries the per-event context through the pipeline.
type cycleCtx struct {
	ctx context.Context
	id  uuid.UUID
}

func (c *Compositor) report(ctx context.Context, cycle uuid.UUID, kind diag.Kind, op string, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err, trace.WithAttributes(attribute.String("diag.kind", string(kind))))
	span.SetStatus(codes.Error, err.Error())
	c.diag.Report(diag.Diagnostic{Kind: kind, Op: op, Err: err, Cycle: cycle})
}

func (c *Compositor) reportErr(cc *cycleCtx, op string, err error) {
	c.report(cc.ctx, cc.id, diag.Classify(err), op, err)
}

func (c *Compositor) handleOutputAdded(cc *cycleCtx, e OutputAdded) {
	err := c.outputs.Add(output.Output{
		Name:        e.Output,
		Description: e.Description,
		Geometry:    e.Geometry,
		Scale:       e.Scale,
	})
	if err != nil {
		c.report(cc.ctx, cc.id, diag.EventError, e.Name(), err)
		return
	}
	c.logger.Info("output connected", "output", e.Output, "geometry", e.Geometry.String())
	c.connectorChange(cc)
}

func (c *Compositor) handleOutputRemoved(cc *cycleCtx, e OutputRemoved) {
	o, ok := c.outputs.Get(e.Output)
	if !ok {
		c.report(cc.ctx, cc.id, diag.EventError, e.Name(),
			fmt.Errorf("remove output %q: %w", e.Output, output.ErrUnknownOutput))
		return
	}

	// Windows in zones hosted by this output lose their assignment. The
	// space origin stays where the last layout put it.
	if o.Enabled && o.Space != "" {
		origin := c.spaceOrigin(o.Space)
		area := o.Geometry.Offset(-origin.X, -origin.Y)
		hosted := make(map[string]bool)
		for _, name := range c.zones.Hosted(o.Space, area) {
			hosted[name] = true
		}
		affected := c.windows.UnassignWhere(o.Space, func(z string) bool { return hosted[z] })
		c.emitUnassigned(affected)
	}

	if _, err := c.outputs.Remove(e.Output); err != nil {
		c.report(cc.ctx, cc.id, diag.EventError, e.Name(), err)
		return
	}
	c.logger.Info("output disconnected", "output", e.Output, "space", o.Space)
	if o.Space != "" {
		c.relayout(o.Space)
	}
	c.connectorChange(cc)
}

// connectorChange hands the current output list to the script. Outputs the
// script does not lay out stay pending.
func (c *Compositor) connectorChange(cc *cycleCtx) {
	if !c.bridge.HasConnectorChange() {
		return
	}
	cmds, err := c.bridge.ConnectorChange(cc.ctx, c.outputs.List())
	if err != nil {
		c.reportErr(cc, "on_connector_change", err)
	}
	c.apply(cc, cmds)
}

func (c *Compositor) handleSurfaceMapped(cc *cycleCtx, e SurfaceMapped) {
	space, ok := c.outputs.PrimarySpace()
	if !ok {
		space = c.defaultSpace
	}
	w := window.Window{ID: e.Window, AppID: e.AppID, Title: e.Title, Space: space, Geometry: e.Geometry}
	if err := c.windows.Map(w); err != nil {
		c.report(cc.ctx, cc.id, diag.EventError, e.Name(), err)
		return
	}

	p, err := c.place(w, c.initialZone(e.AppID, space))
	if err != nil {
		c.reportErr(cc, e.Name(), err)
		return
	}
	c.logger.Debug("window mapped", "window", e.Window, "app_id", e.AppID, "space", space, "zone", p.Zone)
}

func (c *Compositor) handleSurfaceUnmapped(cc *cycleCtx, e SurfaceUnmapped) {
	w, err := c.windows.Unmap(e.Window)
	if err != nil {
		c.report(cc.ctx, cc.id, diag.EventError, e.Name(), err)
		return
	}
	c.renderer.UpdatePlacement(platform.Placement{
		Window:   w.ID,
		Space:    w.Space,
		Zone:     w.Zone,
		Geometry: w.Geometry,
		Visible:  false,
	})
}

func (c *Compositor) handleKey(cc *cycleCtx, e KeyEvent) {
	b, ok := c.keys.Dispatch(e.Key, e.Mods)
	if !ok {
		return
	}
	if b.Builtin() {
		c.runAction(b.Action)
		return
	}
	cmds, err := c.bridge.Invoke(cc.ctx, b.Callback)
	if err != nil {
		c.reportErr(cc, "key "+keymap.NewChord(e.Key, e.Mods).String(), err)
	}
	c.apply(cc, cmds)
}

func (c *Compositor) runAction(a keymap.Action) {
	switch a.Kind {
	case keymap.ActionQuit:
		c.quitting = true
	case keymap.ActionSwitchVT:
		c.backend.SwitchVT(a.VT)
	}
}

func (c *Compositor) handleLoad(cc *cycleCtx, e loadScript) error {
	first := c.bridge.Loads() == 0
	cmds, err := c.bridge.Load(cc.ctx, e.name, e.source)
	if err != nil {
		c.reportErr(cc, "load_script", err)
		return err
	}

	c.keys.Reset()
	c.installDefaultKeymaps()
	c.keysDirty = true
	c.rules = nil
	c.env = copyEnv(c.baseEnv)

	errs := c.apply(cc, cmds)
	if first {
		startup, err := c.bridge.Startup(cc.ctx)
		if err != nil {
			c.reportErr(cc, "on_startup", err)
		}
		errs = append(errs, c.apply(cc, startup)...)
	}
	if c.outputs.Len() > 0 {
		c.connectorChange(cc)
	}
	if len(errs) > 0 {
		c.logger.Warn("script loaded with errors", "name", e.name, "errors", len(errs))
	}
	return nil
}

func (c *Compositor) installDefaultKeymaps() {
	if !c.defaultKeymaps {
		return
	}
	for _, d := range keymap.Defaults() {
		c.keys.Register(keymap.Binding{Key: d.Key, Mods: d.Mods, Action: d.Action})
	}
}

func (c *Compositor) syncGrabs() {
	if !c.keysDirty {
		return
	}
	c.keysDirty = false
	if c.grabber != nil {
		c.grabber.GrabKeys(c.keys.Chords())
	}
}

// initialZone returns the zone a window rule asks for, or "" for the space's
// default zone.
func (c *Compositor) initialZone(appID, space string) string {
	z, ok := c.ruleFor(appID)
	if !ok {
		return ""
	}
	if _, exists := c.zones.Lookup(space, z); !exists {
		c.logger.Debug("window rule zone not in space", "app_id", appID, "zone", z, "space", space)
		return ""
	}
	return z
}

func (c *Compositor) ruleFor(appID string) (string, bool) {
	if appID == "" {
		return "", false
	}
	for _, r := range c.rules {
		if r.AppID == appID {
			return r.Zone, true
		}
	}
	return "", false
}

func copyEnv(env map[string]string) map[string]string {
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}
