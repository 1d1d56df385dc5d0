// Package controller is the lifecycle façade consumed by the CLI. It composes
// the resolved options with the hook manager and translates each lifecycle
// command into a hook dispatch plus that step's own side effects.
package controller

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/pubctl/internal/config"
	"git.home.luguber.info/inful/pubctl/internal/events"
	"git.home.luguber.info/inful/pubctl/internal/hooks"
	"git.home.luguber.info/inful/pubctl/internal/metrics"
	"git.home.luguber.info/inful/pubctl/internal/observability"
	"git.home.luguber.info/inful/pubctl/internal/publication"
	"git.home.luguber.info/inful/pubctl/internal/state"
)

// Controller drives lifecycle steps. Construct with New, then Init once
// before invoking any step method.
type Controller struct {
	opts    *config.Options
	manager *hooks.Manager
	pubs    *publication.Registry

	// Recorder receives step and build observations. Defaults to noop.
	Recorder metrics.Recorder

	// Prom, when set, additionally exports a metrics textfile on
	// build-finalize. Usually the same instance as Recorder.
	Prom *metrics.PrometheusRecorder

	// Events publishes lifecycle step events. Defaults to noop.
	Events events.Publisher

	// Store records run history. Optional.
	Store *state.Store

	// Stdout receives listings and audit output.
	Stdout io.Writer
}

// New creates a controller with noop observability. The CLI entry point wires
// in the real recorder, event publisher, and run-history store.
func New(opts *config.Options) *Controller {
	return &Controller{
		opts:     opts,
		manager:  hooks.NewManager(opts),
		Recorder: metrics.NoopRecorder{},
		Events:   events.NoopPublisher{},
		Stdout:   os.Stdout,
	}
}

// Options returns the shared run options.
func (c *Controller) Options() *config.Options { return c.opts }

// Manager exposes the hook manager for audits.
func (c *Controller) Manager() *hooks.Manager { return c.manager }

// Init loads the publication registry, discovers and registers hooks, and
// installs the built-in inspection hook. Registration failures are data, not
// errors; only a broken publication registry fails Init.
func (c *Controller) Init(ctx context.Context) error {
	ctx = c.runContext(ctx)

	pubs, err := publication.Load(c.opts.ProjectHome)
	if err != nil {
		return err
	}
	c.pubs = pubs

	c.manager.Init(ctx)
	c.manager.RegisterBuiltin(c.inspectionPlugin(), false)
	c.Recorder.SetHookCounts(len(c.manager.ValidPlugins()), len(c.manager.InvalidPlugins()))
	return nil
}

// Close releases hook resources and flushes the event publisher.
func (c *Controller) Close() {
	c.manager.Close()
	if err := c.Events.Close(); err != nil {
		slog.Warn("closing event publisher", "error", err)
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			slog.Warn("closing run history store", "error", err)
		}
	}
}

// runContext stamps the transaction id onto the context for log correlation.
func (c *Controller) runContext(ctx context.Context) context.Context {
	return observability.WithTransactionID(ctx, c.opts.TransactionID)
}

// executeHooks dispatches one lifecycle step to every registered hook,
// awaited and strictly in registration order, then records the observation.
// A hook failure aborts the step and propagates to the CLI handler.
func (c *Controller) executeHooks(ctx context.Context, step hooks.Step, extra map[string]string) error {
	ctx = observability.WithStep(c.runContext(ctx), step.String())
	observability.InfoContext(ctx, "Dispatching lifecycle step",
		slog.Int("hooks", len(c.manager.ValidPlugins())))

	start := time.Now()
	err := c.manager.Execute(ctx, hooks.Command{ProxyCmd: step, Extra: extra})
	elapsed := time.Since(start)

	c.Recorder.ObserveStepDuration(step.String(), elapsed)
	c.Recorder.IncStepResult(step.String(), err == nil)
	c.recordRun(ctx, step, err, elapsed)

	if err != nil {
		observability.ErrorContext(ctx, "Lifecycle step failed",
			slog.Duration("elapsed", elapsed), slog.String("error", err.Error()))
		return err
	}
	observability.InfoContext(ctx, "Lifecycle step complete", slog.Duration("elapsed", elapsed))
	return nil
}

// recordRun persists run history and publishes the lifecycle event.
// Both are best effort; observation failures never fail the step.
func (c *Controller) recordRun(ctx context.Context, step hooks.Step, stepErr error, elapsed time.Duration) {
	outcome := "success"
	if stepErr != nil {
		outcome = "failed"
	}
	if c.Store != nil {
		if err := c.Store.Record(ctx, state.Run{
			TransactionID: c.opts.TransactionID,
			Step:          step.String(),
			Outcome:       outcome,
			Duration:      elapsed,
		}); err != nil {
			observability.WarnContext(ctx, "Recording run history failed", slog.String("error", err.Error()))
		}
	}
	if err := c.Events.PublishStep(events.StepEvent{
		TransactionID: c.opts.TransactionID,
		Step:          step.String(),
		Outcome:       outcome,
		DurationMS:    elapsed.Milliseconds(),
		ProjectHome:   c.opts.ProjectHome,
		Hooks:         len(c.manager.ValidPlugins()),
	}); err != nil {
		observability.WarnContext(ctx, "Publishing lifecycle event failed", slog.String("error", err.Error()))
	}
}

// Install dispatches the install step.
func (c *Controller) Install(ctx context.Context) error {
	return c.executeHooks(ctx, hooks.StepInstall, nil)
}

// Doctor dispatches the doctor step.
func (c *Controller) Doctor(ctx context.Context) error {
	return c.executeHooks(ctx, hooks.StepDoctor, nil)
}

// Describe dispatches the describe step.
func (c *Controller) Describe(ctx context.Context) error {
	return c.executeHooks(ctx, hooks.StepDescribe, nil)
}

// Generate dispatches the generate step.
func (c *Controller) Generate(ctx context.Context) error {
	return c.executeHooks(ctx, hooks.StepGenerate, nil)
}

// ValidateHooks writes the dry hook audit. Idempotent; mutates nothing.
func (c *Controller) ValidateHooks() {
	c.manager.ValidateHooks(c.Stdout)
}
