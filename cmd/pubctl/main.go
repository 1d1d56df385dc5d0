package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pubctl/internal/config"
	"git.home.luguber.info/inful/pubctl/internal/controller"
	"git.home.luguber.info/inful/pubctl/internal/events"
	"git.home.luguber.info/inful/pubctl/internal/metrics"
	"git.home.luguber.info/inful/pubctl/internal/state"
	"git.home.luguber.info/inful/pubctl/internal/watch"
)

const version = "0.3.0"

// StepCmd carries the positional targets shared by plain lifecycle commands.
type StepCmd struct {
	Targets []string `arg:"" optional:"" help:"Target identifiers passed through to hooks"`
}

var CLI struct {
	Project  string   `short:"p" help:"Project home directory" type:"path"`
	Hooks    []string `help:"Additional hook glob pattern (repeatable)"`
	DryRun   bool     `help:"Describe side effects without performing them"`
	Verbose  bool     `short:"v" help:"Enable verbose logging"`
	Schedule string   `help:"Opaque schedule string passed through to hooks"`
	Arg      []string `help:"Custom argument name (repeatable, paired with --argv)"`
	Argv     []string `help:"Custom argument value (repeatable, paired with --arg)"`
	TxID     string   `name:"tx-id" help:"Transaction id correlating this run"`
	Updater  string   `help:"Dependency updater command used by the update step"`

	Install  StepCmd `cmd:"" help:"Run the install lifecycle step"`
	Doctor   StepCmd `cmd:"" help:"Run the doctor lifecycle step"`
	Describe StepCmd `cmd:"" help:"Run the describe lifecycle step"`
	Inspect  StepCmd `cmd:"" help:"Run the inspect lifecycle step, or list publications | publishable-modules | runs"`
	Build    StepCmd `cmd:"" help:"Run build-prepare, the site generator, and build-finalize"`
	Clean    StepCmd `cmd:"" help:"Run the clean lifecycle step and remove generated files"`
	Update   StepCmd `cmd:"" help:"Run the dependency updater and the update lifecycle step"`

	Generate struct {
		StepCmd
		Watch bool `short:"w" help:"Re-run generate when project files change"`
	} `cmd:"" help:"Run the generate lifecycle step"`

	Validate struct {
		Hooks struct{} `cmd:"" help:"Audit discovered hooks without executing anything"`
	} `cmd:"" help:"Validation commands"`

	Hugo struct {
		Init struct {
			Publication string `arg:"" help:"Publication name from publications.yaml"`
		} `cmd:"" help:"Write hugo.yaml for a publication and run hugo-init hooks"`
		Inspect struct{} `cmd:"" help:"Run the hugo-inspect lifecycle step"`
		Clean   struct{} `cmd:"" help:"Run hugo-clean hooks and remove hugo.yaml"`
	} `cmd:"" help:"Hugo configuration commands"`

	Observability struct {
		Clean struct{} `cmd:"" help:"Run observability-clean hooks and remove exported artifacts"`
	} `cmd:"" help:"Observability commands"`

	Version struct{} `cmd:"" help:"Print the pubctl version"`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("pubctl"),
		kong.Description("Pluggable lifecycle orchestrator for static-site publication pipelines"))

	logLevel := slog.LevelInfo
	if CLI.Verbose || CLI.DryRun {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Single top-level catch: message on stderr, non-zero exit.
	if err := run(kctx.Command()); err != nil {
		fmt.Fprintln(os.Stderr, "pubctl:", err)
		os.Exit(1)
	}
}

func run(command string) error {
	if command == "version" {
		fmt.Println("pubctl", version)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := resolveOptions()
	c := controller.New(opts)
	wireObservability(c)
	defer c.Close()

	if err := c.Init(ctx); err != nil {
		return err
	}

	switch command {
	case "install", "install <targets>":
		return c.Install(ctx)
	case "doctor", "doctor <targets>":
		return c.Doctor(ctx)
	case "describe", "describe <targets>":
		return c.Describe(ctx)
	case "inspect", "inspect <targets>":
		return c.Inspect(ctx)
	case "generate", "generate <targets>":
		if CLI.Generate.Watch {
			return runWatch(ctx, c)
		}
		return c.Generate(ctx)
	case "build", "build <targets>":
		return c.Build(ctx)
	case "clean", "clean <targets>":
		return c.Clean(ctx)
	case "update", "update <targets>":
		return c.Update(ctx)
	case "validate hooks":
		c.ValidateHooks()
		return nil
	case "hugo init <publication>":
		return c.HugoInit(ctx, CLI.Hugo.Init.Publication)
	case "hugo inspect":
		return c.HugoInspect(ctx)
	case "hugo clean":
		return c.HugoClean(ctx)
	case "observability clean":
		return c.ObservabilityClean(ctx)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// resolveOptions loads the project .env and builds the immutable run options.
func resolveOptions() *config.Options {
	targets := commandTargets()
	project := CLI.Project
	if project == "" {
		if cwd, err := os.Getwd(); err == nil {
			project = cwd
		}
	}
	config.LoadEnvFile(project)

	return config.ResolveOptions(config.CLIValues{
		Project:   project,
		Hooks:     CLI.Hooks,
		Targets:   targets,
		ArgNames:  CLI.Arg,
		ArgValues: CLI.Argv,
		Schedule:  CLI.Schedule,
		Verbose:   CLI.Verbose,
		DryRun:    CLI.DryRun,
		TxID:      CLI.TxID,
		Updater:   CLI.Updater,
	}, "")
}

// commandTargets returns the positional targets of whichever lifecycle
// command was selected.
func commandTargets() []string {
	switch {
	case len(CLI.Install.Targets) > 0:
		return CLI.Install.Targets
	case len(CLI.Doctor.Targets) > 0:
		return CLI.Doctor.Targets
	case len(CLI.Describe.Targets) > 0:
		return CLI.Describe.Targets
	case len(CLI.Inspect.Targets) > 0:
		return CLI.Inspect.Targets
	case len(CLI.Generate.Targets) > 0:
		return CLI.Generate.Targets
	case len(CLI.Build.Targets) > 0:
		return CLI.Build.Targets
	case len(CLI.Clean.Targets) > 0:
		return CLI.Clean.Targets
	case len(CLI.Update.Targets) > 0:
		return CLI.Update.Targets
	}
	return nil
}

// wireObservability attaches the metrics recorder, lifecycle event publisher,
// and run-history store. All degrade gracefully when unavailable.
func wireObservability(c *controller.Controller) {
	prom := metrics.NewPrometheusRecorder(nil)
	c.Recorder = prom
	c.Prom = prom

	c.Events = events.ForURL(config.NATSURL())

	opts := c.Options()
	if opts.DryRun {
		return
	}
	dbPath := state.DefaultPath(opts.ProjectHome)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		slog.Warn("run history disabled", "error", err)
		return
	}
	store, err := state.Open(dbPath)
	if err != nil {
		slog.Warn("run history disabled", "error", err)
		return
	}
	c.Store = store
}

// runWatch performs an initial generate, then re-runs it on file changes
// until interrupted.
func runWatch(ctx context.Context, c *controller.Controller) error {
	if err := c.Generate(ctx); err != nil {
		return err
	}
	w, err := watch.New(c.Options().ProjectHome, c.Generate)
	if err != nil {
		return err
	}
	if err := w.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
