package controller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	pubctlerrors "git.home.luguber.info/inful/pubctl/internal/errors"
	"git.home.luguber.info/inful/pubctl/internal/health"
	"git.home.luguber.info/inful/pubctl/internal/hooks"
	"git.home.luguber.info/inful/pubctl/internal/metrics"
	"git.home.luguber.info/inful/pubctl/internal/observability"
	"git.home.luguber.info/inful/pubctl/internal/report"
)

// ReportFileName is the generator's machine-readable report, expected at the
// project root after a build.
const ReportFileName = "build-report.json"

// MetricsFileName is the textfile-collector export written on build finalize.
const MetricsFileName = "pubctl-metrics.prom"

// Build runs the full build sequence: prepare, the external site generator,
// finalize. Each stage is awaited before the next starts.
func (c *Controller) Build(ctx context.Context) error {
	if err := c.BuildPrepare(ctx); err != nil {
		return err
	}
	if err := c.runGenerator(ctx); err != nil {
		return err
	}
	return c.BuildFinalize(ctx)
}

// BuildPrepare writes the in-progress health artifact before any hook runs,
// so a crash mid-build leaves an honest status behind, then dispatches the
// build-prepare step.
func (c *Controller) BuildPrepare(ctx context.Context) error {
	if !c.opts.DryRun {
		if err := health.Write(c.opts.HTMLDestHome, health.Record{
			Status:        health.StatusBuilding,
			Message:       "build in progress",
			TransactionID: c.opts.TransactionID,
			BuildHost:     c.opts.BuildHost,
		}); err != nil {
			return pubctlerrors.Wrap(err, pubctlerrors.CategoryBuild, pubctlerrors.SeverityFatal, "write in-progress health artifact")
		}
	}
	return c.executeHooks(ctx, hooks.StepBuildPrepare, nil)
}

// runGenerator invokes the external hugo binary at the project root.
func (c *Controller) runGenerator(ctx context.Context) error {
	if c.opts.DryRun {
		observability.InfoContext(ctx, "Would run site generator", slog.String("dir", c.opts.ProjectHome))
		return nil
	}
	if _, err := exec.LookPath("hugo"); err != nil {
		return pubctlerrors.Wrap(err, pubctlerrors.CategoryHugo, pubctlerrors.SeverityFatal, "hugo binary not found in PATH")
	}
	cmd := exec.CommandContext(ctx, "hugo")
	cmd.Dir = c.opts.ProjectHome
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	observability.InfoContext(ctx, "Running site generator", slog.String("dir", c.opts.ProjectHome))
	if err := cmd.Run(); err != nil {
		return pubctlerrors.Wrap(err, pubctlerrors.CategoryHugo, pubctlerrors.SeverityFatal, "hugo command failed")
	}
	return nil
}

// BuildFinalize parses the generator report into metrics and the health
// artifact, dispatches the build-finalize step, then copies result artifacts
// into the publish destination. Hook dispatch is awaited before the copy so
// hooks can still amend the output tree.
func (c *Controller) BuildFinalize(ctx context.Context) error {
	ctx = c.runContext(ctx)

	rep := c.parseReport(ctx)
	rep.Record(c.Recorder)
	if !c.opts.DryRun {
		if err := c.writeOutcome(rep); err != nil {
			return err
		}
	}

	if err := c.executeHooks(ctx, hooks.StepBuildFinalize, nil); err != nil {
		return err
	}

	return c.publishArtifacts(ctx)
}

// parseReport loads the build report, degrading to an empty failed report
// when the generator left none behind.
func (c *Controller) parseReport(ctx context.Context) *report.BuildReport {
	path := filepath.Join(c.opts.ProjectHome, ReportFileName)
	rep, err := report.ParseFile(path)
	if err != nil {
		observability.WarnContext(ctx, "Build report missing or unreadable",
			slog.String("path", path), slog.String("error", err.Error()))
		return &report.BuildReport{Errors: []string{fmt.Sprintf("build report unreadable: %v", err)}}
	}
	return rep
}

// writeOutcome maps the report outcome onto the health artifact and exports
// the metrics textfile when a Prometheus recorder is wired in.
func (c *Controller) writeOutcome(rep *report.BuildReport) error {
	status := health.StatusHealthy
	message := ""
	switch rep.OutcomeLabel() {
	case metrics.OutcomeWarning:
		status = health.StatusWarning
		if len(rep.Warnings) > 0 {
			message = rep.Warnings[0]
		}
	case metrics.OutcomeFailed:
		status = health.StatusFailed
		if len(rep.Errors) > 0 {
			message = rep.Errors[0]
		}
	}
	if err := health.Write(c.opts.HTMLDestHome, health.Record{
		Status:        status,
		Message:       message,
		TransactionID: c.opts.TransactionID,
		BuildHost:     c.opts.BuildHost,
	}); err != nil {
		return pubctlerrors.Wrap(err, pubctlerrors.CategoryBuild, pubctlerrors.SeverityFatal, "write health artifact")
	}
	if c.Prom != nil {
		if err := c.Prom.WriteTextfile(filepath.Join(c.opts.HTMLDestHome, MetricsFileName)); err != nil {
			return pubctlerrors.Wrap(err, pubctlerrors.CategoryBuild, pubctlerrors.SeverityError, "export metrics textfile")
		}
	}
	return nil
}

// publishArtifacts copies the rendered site into the publish destination.
// A destination equal to the render output is a no-op.
func (c *Controller) publishArtifacts(ctx context.Context) error {
	src := filepath.Join(c.opts.ProjectHome, "public")
	dst := c.opts.HTMLDestHome
	if src == dst {
		return nil
	}
	if _, err := os.Stat(src); err != nil {
		observability.DebugContext(ctx, "No rendered output to publish", slog.String("src", src))
		return nil
	}
	if c.opts.DryRun {
		observability.InfoContext(ctx, "Would copy rendered site",
			slog.String("src", src), slog.String("dst", dst))
		return nil
	}
	observability.InfoContext(ctx, "Publishing rendered site",
		slog.String("src", src), slog.String("dst", dst))
	if err := copyTree(src, dst); err != nil {
		return pubctlerrors.Wrap(err, pubctlerrors.CategoryFileSystem, pubctlerrors.SeverityFatal, "copy rendered site")
	}
	return nil
}

// copyTree recursively copies src into dst, preserving file modes.
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm())
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		return copyFile(path, target, info.Mode().Perm())
	})
}

func copyFile(src, dst string, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
