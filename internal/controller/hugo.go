package controller

import (
	"context"

	pubctlerrors "git.home.luguber.info/inful/pubctl/internal/errors"
	"git.home.luguber.info/inful/pubctl/internal/hooks"
)

// HugoInit writes the hugo.yaml configuration for a named publication, then
// dispatches the hugo-init step with the publication identity attached.
func (c *Controller) HugoInit(ctx context.Context, publicationName string) error {
	pub, ok := c.pubs.Get(publicationName)
	if !ok {
		return pubctlerrors.New(pubctlerrors.CategoryConfig, pubctlerrors.SeverityFatal,
			"unknown publication "+publicationName)
	}
	if !c.opts.DryRun {
		if err := pub.WriteHugoConfig(c.opts.ProjectHome, c.opts.ProjectHome); err != nil {
			return err
		}
	}
	return c.executeHooks(ctx, hooks.StepHugoInit, map[string]string{"publication": pub.Name})
}

// HugoInspect dispatches the hugo-inspect step.
func (c *Controller) HugoInspect(ctx context.Context) error {
	return c.executeHooks(ctx, hooks.StepHugoInspect, nil)
}
