package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/scape/internal/compositor"
)

// Poster accepts orchestrator events.
type Poster interface {
	Post(ctx context.Context, ev compositor.Event) error
}

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically observes the display server and posts what changed
// since the previous observation.
type Reconciler struct {
	interval time.Duration
	source   Source
	poster   Poster
	logger   *slog.Logger
	last     State
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, source Source, poster Poster) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		interval: interval,
		source:   source,
		poster:   poster,
		logger:   logger,
	}
}

// Run reconciles immediately and then on every tick. It blocks until ctx is
// cancelled or the orchestrator stops accepting events.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)
	if err := r.ReconcileNow(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := r.ReconcileNow(ctx); err != nil {
				return err
			}
		}
	}
}

// ReconcileNow performs one pass. Observation failures are logged and the
// pass is skipped; a failed post is returned.
func (r *Reconciler) ReconcileNow(ctx context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("reconciler panic recovered", "error", rec)
			err = nil
		}
	}()

	next, err := r.source.Snapshot()
	if err != nil {
		r.logger.Error("reconciler: failed to observe display", "error", err)
		return nil
	}

	events := Diff(r.last, next)
	for i, ev := range events {
		if err := r.poster.Post(ctx, ev); err != nil {
			return fmt.Errorf("post %s (%d of %d): %w", ev.Name(), i+1, len(events), err)
		}
	}
	if len(events) > 0 {
		r.logger.Debug("reconciler: posted changes", "events", len(events))
	}
	r.last = next
	return nil
}
