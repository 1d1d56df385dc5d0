package controller

import (
	"context"
	"log/slog"
	"os"
	"os/exec"

	pubctlerrors "git.home.luguber.info/inful/pubctl/internal/errors"
	"git.home.luguber.info/inful/pubctl/internal/hooks"
	"git.home.luguber.info/inful/pubctl/internal/observability"
)

// Update shells out to the configured dependency updater with the source ids
// of every native-module hook, then dispatches the update step. Both stages
// are awaited; the updater failing aborts before any hook runs.
func (c *Controller) Update(ctx context.Context) error {
	if err := c.runUpdater(ctx); err != nil {
		return err
	}
	return c.executeHooks(ctx, hooks.StepUpdate, nil)
}

func (c *Controller) runUpdater(ctx context.Context) error {
	ctx = c.runContext(ctx)
	modules := c.manager.LuaModuleIDs()
	if c.opts.UpdaterCommand == "" {
		if len(modules) > 0 {
			observability.DebugContext(ctx, "No updater configured, skipping module update",
				slog.Int("modules", len(modules)))
		}
		return nil
	}
	if len(modules) == 0 {
		observability.DebugContext(ctx, "No native-module hooks to update")
		return nil
	}
	if c.opts.DryRun {
		observability.InfoContext(ctx, "Would run updater",
			slog.String("updater", c.opts.UpdaterCommand), slog.Any("modules", modules))
		return nil
	}
	observability.InfoContext(ctx, "Running updater",
		slog.String("updater", c.opts.UpdaterCommand), slog.Int("modules", len(modules)))
	cmd := exec.CommandContext(ctx, c.opts.UpdaterCommand, modules...)
	cmd.Dir = c.opts.ProjectHome
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return pubctlerrors.Wrap(err, pubctlerrors.CategoryUpdate, pubctlerrors.SeverityFatal, "updater command failed")
	}
	return nil
}
