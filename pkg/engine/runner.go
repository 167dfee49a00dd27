// Package engine drives the waveform orchestrator: it opens one transaction
// per tick, runs the update cycle, and commits or discards the result.
package engine

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/waveline/waveline/pkg/devicemodel"
	"github.com/waveline/waveline/pkg/logger"
	"github.com/waveline/waveline/pkg/waveform"
)

// DefaultInterval is the update interval used when none is configured.
const DefaultInterval = 100 * time.Millisecond

// Runner periodically runs update cycles against the device model. Cycles
// are strictly sequential; the limiter paces them at the configured interval
// without drift even when a cycle overruns.
type Runner struct {
	orchestrator *waveform.Orchestrator
	model        *devicemodel.Model
	interval     time.Duration
	log          logger.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithInterval sets the update interval.
func WithInterval(interval time.Duration) Option {
	return func(r *Runner) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

// WithRunnerLogger sets the runner's logger.
func WithRunnerLogger(log logger.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// NewRunner creates a runner for the given orchestrator and model.
func NewRunner(orchestrator *waveform.Orchestrator, model *devicemodel.Model, opts ...Option) *Runner {
	r := &Runner{
		orchestrator: orchestrator,
		model:        model,
		interval:     DefaultInterval,
		log:          logger.Global(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Step runs exactly one update cycle: begin a transaction, update, then
// commit on success or discard on failure. A failed cycle leaves the model
// untouched.
func (r *Runner) Step(ctx context.Context) error {
	tx := r.model.Begin()
	if err := r.orchestrator.Update(ctx, tx); err != nil {
		tx.Discard()
		return err
	}
	return tx.Commit()
}

// Run executes update cycles at the configured interval until ctx is
// cancelled. Cycle failures are logged; the loop keeps running so a single
// bad cycle does not stop the device.
func (r *Runner) Run(ctx context.Context) error {
	limiter := rate.NewLimiter(rate.Every(r.interval), 1)
	r.log.Info("waveform runner started", "interval", r.interval)

	for {
		if err := limiter.Wait(ctx); err != nil {
			r.log.Info("waveform runner stopped", "reason", ctx.Err())
			return ctx.Err()
		}
		if err := r.Step(ctx); err != nil {
			r.log.ErrorContext(ctx, "update cycle failed", "error", err)
		}
	}
}
