package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/releasekit/internal/config"
	pipeerr "git.home.luguber.info/inful/releasekit/internal/errors"
	"git.home.luguber.info/inful/releasekit/internal/events"
	"git.home.luguber.info/inful/releasekit/internal/gitinfo"
	"git.home.luguber.info/inful/releasekit/internal/history"
	"git.home.luguber.info/inful/releasekit/internal/logfields"
	"git.home.luguber.info/inful/releasekit/internal/metrics"
	"git.home.luguber.info/inful/releasekit/internal/msbuild"
	"git.home.luguber.info/inful/releasekit/internal/pipeline"
	"git.home.luguber.info/inful/releasekit/internal/release"
	"git.home.luguber.info/inful/releasekit/internal/report"
	"git.home.luguber.info/inful/releasekit/internal/toolrunner"
)

// Global state shared with subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"releasekit.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run          RunCmd          `cmd:"" help:"Run the full build and release pipeline"`
	Discover     DiscoverCmd     `cmd:"" help:"List the build units without building"`
	Classify     ClassifyCmd     `cmd:"" help:"Show the deployment classification for a branch"`
	VersionStamp VersionStampCmd `cmd:"" name:"version-stamp" help:"Print the computed version identity for external CI steps"`
	History      HistoryCmd      `cmd:"" help:"Show past pipeline runs"`
	Report       ReportCmd       `cmd:"" help:"Render the report for a recorded run"`
	Watch        WatchCmd        `cmd:"" help:"Watch the source tree and run the pipeline on changes"`
	Daemon       DaemonCmd       `cmd:"" help:"Run scheduled pipeline builds as a service"`
	Init         InitCmd         `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig reads the configured file; discover-style commands that work
// without one pass optional=true and get the defaults on absence.
func loadConfig(path string, optional bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if optional && pipeerr.IsCategory(err, pipeerr.CategoryConfig) {
			if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
				return config.Default(), nil
			}
		}
		return nil, err
	}
	return cfg, nil
}

// resolveBranch picks the branch for classification: explicit flag first, then
// the repository checkout.
func resolveBranch(override string) (branch, commit string, err error) {
	if override != "" {
		return override, "", nil
	}
	checkout, err := gitinfo.Describe(".")
	if err != nil {
		return "", "", err
	}
	if checkout.Branch == "" {
		return "", "", pipeerr.New(pipeerr.CategoryGit, pipeerr.SeverityFatal,
			"detached HEAD and no branch override; pass --branch or set RELEASEKIT_BRANCH")
	}
	return checkout.Branch, checkout.CommitSHA, nil
}

// runtime bundles the long-lived collaborators a pipeline run needs.
type runtime struct {
	cfg      *config.Config
	runner   toolrunner.Runner
	reader   msbuild.Reader
	registry *prom.Registry
	recorder metrics.Recorder
	store    history.Store
	bus      *events.Bus
	nats     *events.NATSPublisher
}

// newRuntime assembles runner, reader, metrics, history and events from config.
func newRuntime(cfg *config.Config) (*runtime, error) {
	rt := &runtime{
		cfg:    cfg,
		runner: toolrunner.NewExecRunner(),
		bus:    events.NewBus(),
	}
	rt.reader = msbuild.NewToolReader(cfg.Tools.PropsReader, rt.runner)

	if cfg.Metrics.Enabled {
		rt.registry = prom.NewRegistry()
		rt.recorder = metrics.NewPrometheusRecorder(rt.registry)
	}

	if cfg.History.Enabled {
		store, err := history.NewSQLiteStore(cfg.HistoryPath())
		if err != nil {
			return nil, err
		}
		rt.store = store
	}

	if cfg.Events.NATSURL != "" {
		nats, err := events.NewNATSPublisher(cfg.Events.NATSURL)
		if err != nil {
			rt.Close()
			return nil, err
		}
		nats.Attach(rt.bus)
		rt.nats = nats
	}
	return rt, nil
}

// Close releases the runtime's resources.
func (rt *runtime) Close() {
	if rt.nats != nil {
		rt.nats.Close()
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			slog.Warn("History store close failed", logfields.Error(err))
		}
	}
}

// executeRun performs one complete pipeline run: classify, build every unit,
// fan out, and write the run report into the channel drop.
func (rt *runtime) executeRun(ctx context.Context, branchOverride string) (*pipeline.RunResult, release.RunContext, error) {
	branch, commit, err := resolveBranch(branchOverride)
	if err != nil {
		return nil, release.RunContext{}, err
	}

	rc, err := release.NewRunContext(release.Params{
		BranchName:    branch,
		RepoRoot:      ".",
		SourceRoot:    rt.cfg.SourceRoot,
		CommitSHA:     commit,
		Configuration: rt.cfg.Configuration,
		Build:         rt.cfg.Version.Build,
		Major:         rt.cfg.Version.Major,
	})
	if err != nil {
		return nil, release.RunContext{}, err
	}

	driver := pipeline.New(rc, pipeline.Deps{
		Config:    rt.cfg,
		Runner:    rt.runner,
		Reader:    rt.reader,
		Recorder:  rt.recorder,
		Store:     rt.store,
		Bus:       rt.bus,
		CheckTool: toolrunner.LookTool,
	})

	result, err := driver.Run(ctx)
	if err != nil {
		return nil, rc, err
	}

	if err := report.NewWriter().Write(driver.Layout().ReportDir(), rc, result); err != nil {
		slog.Warn("Report generation failed", logfields.Error(err))
	}
	return result, rc, nil
}

// serveMetrics exposes /metrics while a foreground run is in flight.
func (rt *runtime) serveMetrics(ctx context.Context) {
	if rt.registry == nil {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(rt.registry))
	server := &http.Server{
		Addr:              rt.cfg.Metrics.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Warn("Metrics endpoint failed", logfields.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}

// printRunSummary writes the friendly outcome lines to stdout.
func printRunSummary(rc release.RunContext, result *pipeline.RunResult) {
	fmt.Printf("Run %s on %s (%s) version %s\n",
		result.RunID, rc.Deployment.Branch.RawName, rc.Deployment.Channel, rc.PackageVersion())

	failed := 0
	for _, o := range result.Outcomes {
		if !o.Succeeded {
			failed++
			fmt.Printf("  FAILED %s %s (exit %d)\n", o.Unit, o.Stage, o.ExitCode)
		}
	}
	fmt.Printf("%d stages, %d failed, %d units, %d unit failures, %d fan-out failures\n",
		len(result.Outcomes), failed, len(result.UnitStates), result.FailedUnits, len(result.FanOutFailures))
	if result.ExitCode == 0 {
		fmt.Println("Result: success")
	} else {
		fmt.Println("Result: FAILED")
	}
}
