package controller

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	pubctlerrors "git.home.luguber.info/inful/pubctl/internal/errors"
	"git.home.luguber.info/inful/pubctl/internal/hooks"
	"git.home.luguber.info/inful/pubctl/internal/observability"
)

// cleanTargets are the generated paths removed by the clean step, relative to
// the project home.
var cleanTargets = []string{"go.sum", "public", "resources"}

// Clean dispatches the clean step and, only after every hook has completed,
// removes the generated files and directories. Hooks run first so they can
// still read generated state; a hook failure leaves the tree untouched.
func (c *Controller) Clean(ctx context.Context) error {
	if err := c.executeHooks(ctx, hooks.StepClean, nil); err != nil {
		return err
	}
	return c.removePaths(ctx, cleanTargets)
}

// HugoClean removes the generated hugo configuration, hooks first.
func (c *Controller) HugoClean(ctx context.Context) error {
	if err := c.executeHooks(ctx, hooks.StepHugoClean, nil); err != nil {
		return err
	}
	return c.removePaths(ctx, []string{"hugo.yaml"})
}

// ObservabilityClean removes the exported health and metrics artifacts from
// the publish destination, hooks first.
func (c *Controller) ObservabilityClean(ctx context.Context) error {
	if err := c.executeHooks(ctx, hooks.StepObservabilityClean, nil); err != nil {
		return err
	}
	for _, name := range []string{"health.json", MetricsFileName} {
		path := filepath.Join(c.opts.HTMLDestHome, name)
		if err := c.removePath(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) removePaths(ctx context.Context, relative []string) error {
	for _, rel := range relative {
		if err := c.removePath(ctx, filepath.Join(c.opts.ProjectHome, rel)); err != nil {
			return err
		}
	}
	return nil
}

// removePath deletes one path, honoring dry-run with a "would delete"
// message. Missing paths are still reported in dry-run so the audit lists
// every fixed target.
func (c *Controller) removePath(ctx context.Context, path string) error {
	ctx = c.runContext(ctx)
	if c.opts.DryRun {
		observability.InfoContext(ctx, "would delete", slog.String("path", path))
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	observability.InfoContext(ctx, "Deleting", slog.String("path", path))
	if err := os.RemoveAll(path); err != nil {
		return pubctlerrors.Wrap(err, pubctlerrors.CategoryFileSystem, pubctlerrors.SeverityFatal, "delete "+path)
	}
	return nil
}
