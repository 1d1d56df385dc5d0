package controller

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/pubctl/internal/hooks"
)

// Inspect dispatches the inspect step. When the first target requests a
// listing (publications, publishable-modules, runs) it short-circuits and
// prints that listing instead of dispatching hooks.
func (c *Controller) Inspect(ctx context.Context) error {
	if len(c.opts.Targets) > 0 {
		switch c.opts.Targets[0] {
		case "publications":
			c.pubs.ListPublications(c.Stdout)
			return nil
		case "publishable-modules":
			c.pubs.ListPublishableModules(c.Stdout)
			return nil
		case "runs":
			return c.listRuns(ctx)
		}
	}
	return c.executeHooks(ctx, hooks.StepInspect, nil)
}

// listRuns prints recent run history from the state store.
func (c *Controller) listRuns(ctx context.Context) error {
	if c.Store == nil {
		fmt.Fprintln(c.Stdout, "run history not available")
		return nil
	}
	runs, err := c.Store.Recent(ctx, 20)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(c.Stdout, "no recorded runs")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(c.Stdout, "%s\t%s\t%s\t%s\t%s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"), r.TransactionID, r.Step, r.Outcome, r.Duration)
	}
	return nil
}

// inspectionPlugin is the library-provided default inspection hook. It acts
// only on the inspect step, reporting discovery state through the
// inspection-diagnostics sink.
func (c *Controller) inspectionPlugin() *hooks.Plugin {
	return hooks.NewBuiltinPlugin("inspection", func(_ context.Context, hctx *hooks.HookContext) error {
		if hctx.Command.ProxyCmd != hooks.StepInspect {
			return nil
		}
		hctx.InspectionDiag(fmt.Sprintf("valid hooks: %d", len(c.manager.ValidPlugins())))
		hctx.InspectionDiag(fmt.Sprintf("invalid hooks: %d", len(c.manager.InvalidPlugins())))
		for _, inv := range c.manager.InvalidPlugins() {
			for _, issue := range inv.Issues {
				for _, diag := range issue.Diagnostics {
					hctx.InspectionDiag(fmt.Sprintf("%s: %s", inv.Source.FriendlyName, diag))
				}
			}
		}
		hctx.InspectionDiag(fmt.Sprintf("publications: %d", len(c.pubs.Publications)))
		return nil
	})
}
