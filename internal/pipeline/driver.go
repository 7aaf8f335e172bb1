package pipeline

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/releasekit/internal/config"
	"git.home.luguber.info/inful/releasekit/internal/discovery"
	pipeerr "git.home.luguber.info/inful/releasekit/internal/errors"
	"git.home.luguber.info/inful/releasekit/internal/events"
	"git.home.luguber.info/inful/releasekit/internal/history"
	"git.home.luguber.info/inful/releasekit/internal/logfields"
	"git.home.luguber.info/inful/releasekit/internal/metrics"
	"git.home.luguber.info/inful/releasekit/internal/msbuild"
	"git.home.luguber.info/inful/releasekit/internal/publish"
	"git.home.luguber.info/inful/releasekit/internal/release"
	"git.home.luguber.info/inful/releasekit/internal/retry"
	"git.home.luguber.info/inful/releasekit/internal/toolchain"
	"git.home.luguber.info/inful/releasekit/internal/toolrunner"
	"git.home.luguber.info/inful/releasekit/internal/workspace"
)

// Deps are the collaborators a Driver needs. Recorder, Store and Bus are
// optional; nil means no-op.
type Deps struct {
	Config   *config.Config
	Runner   toolrunner.Runner
	Reader   msbuild.Reader
	Recorder metrics.Recorder
	Store    history.Store
	Bus      *events.Bus

	// CheckTool verifies a required tool is resolvable before the run
	// starts; nil skips the check (tests, fake runners).
	CheckTool func(tool string) error
}

// Driver runs the whole pipeline for one RunContext: discovery, the per-unit
// stage sequence, and the post-build fan-out. Units are processed one at a
// time; stages within a unit are strictly ordered.
type Driver struct {
	rc       release.RunContext
	cfg      *config.Config
	runner   toolrunner.Runner
	selector *toolchain.Selector
	disc     *discovery.Discoverer
	layout   *workspace.Layout
	recorder metrics.Recorder
	store    history.Store
	bus      *events.Bus
	check    func(string) error
}

// RunResult is the aggregate outcome of one run.
type RunResult struct {
	RunID          string
	Outcomes       []StageOutcome
	UnitStates     map[string]State // keyed by project path
	FailedUnits    int
	FanOutFailures []error
	ExitCode       int
	Duration       time.Duration
}

// New builds a Driver for one run.
func New(rc release.RunContext, deps Deps) *Driver {
	recorder := deps.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	bus := deps.Bus
	if bus == nil {
		bus = events.NewBus()
	}
	return &Driver{
		rc:       rc,
		cfg:      deps.Config,
		runner:   deps.Runner,
		selector: toolchain.NewSelector(deps.Reader),
		disc:     discovery.New(deps.Reader),
		layout:   workspace.NewLayout(deps.Config.ArtifactsDir, rc.Deployment, rc.Version.Full),
		recorder: recorder,
		store:    deps.Store,
		bus:      bus,
		check:    deps.CheckTool,
	}
}

// Layout exposes the run's artifact layout (for report writers).
func (d *Driver) Layout() *workspace.Layout { return d.layout }

// Run executes the pipeline. Only pre-run failures (config, discovery of the
// unit list) return an error; unit and fan-out failures are reported through
// the RunResult's exit code.
func (d *Driver) Run(ctx context.Context) (*RunResult, error) {
	started := time.Now()

	policy := publish.TargetsFor(d.rc.Deployment.Channel, publish.NewCatalog(d.cfg.Feeds))
	fanout := publish.NewFanOut(d.runner, d.cfg.Tools.Dotnet, retry.FromConfig(d.cfg.Retry), d.rc.Deployment.Channel)

	// Config errors abort before any unit runs.
	if err := d.preflight(fanout, policy); err != nil {
		return nil, err
	}
	if err := d.layout.Ensure(); err != nil {
		return nil, pipeerr.Wrap(err, pipeerr.CategoryConfig, pipeerr.SeverityFatal, "artifact tree not writable")
	}

	units, err := d.disc.Discover(ctx, d.rc.SourceRoot)
	if err != nil {
		return nil, err
	}

	slog.Info("Pipeline run starting",
		logfields.RunID(d.rc.RunID),
		logfields.Branch(d.rc.Deployment.Branch.RawName),
		logfields.Channel(string(d.rc.Deployment.Channel)),
		logfields.Version(d.rc.Version.Full),
		logfields.Count(len(units)))

	d.publishEvent(events.RunStarted{
		RunID:   d.rc.RunID,
		Branch:  d.rc.Deployment.Branch.RawName,
		Channel: string(d.rc.Deployment.Channel),
		Version: d.rc.Version.Full,
		Units:   len(units),
		At:      d.rc.StartedAt,
	})
	if d.store != nil {
		if err := d.store.RecordRunStart(ctx, history.RunRecord{
			RunID:     d.rc.RunID,
			Branch:    d.rc.Deployment.Branch.RawName,
			Channel:   string(d.rc.Deployment.Channel),
			Version:   d.rc.Version.Full,
			CommitSHA: d.rc.CommitSHA,
			StartedAt: d.rc.StartedAt,
		}); err != nil {
			slog.Warn("History write failed", logfields.Error(err))
		}
	}

	result := &RunResult{RunID: d.rc.RunID, UnitStates: map[string]State{}}

	for _, unit := range units {
		state := d.runUnit(ctx, unit, result)
		result.UnitStates[unit.ProjectPath] = state
		if state == Failed {
			result.FailedUnits++
			d.recorder.IncUnitOutcome("failed")
			if d.cfg.FailFast {
				slog.Warn("Fail-fast: aborting remaining units", logfields.Project(unit.ProjectPath))
				break
			}
		} else {
			d.recorder.IncUnitOutcome("done")
		}
	}

	// Fan-out runs once for the whole run, after every unit is terminal.
	packages, err := d.layout.CollectPackages()
	if err != nil {
		result.FanOutFailures = append(result.FanOutFailures, pipeerr.CopyFailed("collect", err))
	} else {
		result.FanOutFailures = append(result.FanOutFailures, fanout.Run(ctx, policy, packages, d.layout)...)
	}
	d.recordFanOut(ctx, policy, result)

	if result.FailedUnits > 0 || len(result.FanOutFailures) > 0 {
		result.ExitCode = 1
	}
	result.Duration = time.Since(started)

	outcome := "success"
	if result.ExitCode != 0 {
		outcome = "failed"
	}
	d.recorder.IncRunOutcome(outcome)
	d.recorder.ObserveRunDuration(result.Duration)

	if d.store != nil {
		if err := d.store.CompleteRun(ctx, d.rc.RunID, result.ExitCode, time.Now()); err != nil {
			slog.Warn("History write failed", logfields.Error(err))
		}
	}
	d.publishEvent(events.RunCompleted{
		RunID:          d.rc.RunID,
		ExitCode:       result.ExitCode,
		FailedUnits:    result.FailedUnits,
		FanOutFailures: len(result.FanOutFailures),
		Duration:       result.Duration,
	})

	slog.Info("Pipeline run finished",
		logfields.RunID(d.rc.RunID),
		slog.String("outcome", outcome),
		logfields.Count(len(result.Outcomes)),
		logfields.DurationMS(float64(result.Duration.Milliseconds())))
	return result, nil
}

// preflight checks tools and credentials. Everything here is a config error:
// fatal, and detected before any unit runs.
func (d *Driver) preflight(fanout *publish.FanOut, policy publish.Policy) error {
	if d.check != nil {
		for _, tool := range []string{d.cfg.Tools.Dotnet, d.cfg.Tools.PropsReader} {
			if err := d.check(tool); err != nil {
				return pipeerr.ToolMissing(tool, err)
			}
		}
	}
	return fanout.Preflight(policy)
}

func (d *Driver) recordFanOut(ctx context.Context, policy publish.Policy, result *RunResult) {
	failed := map[string]string{}
	for _, err := range result.FanOutFailures {
		name := "unknown"
		var pe *pipeerr.PipelineError
		if stderrors.As(err, &pe) {
			if t, ok := pe.Context["target"].(string); ok {
				name = t
			}
		}
		failed[name] = err.Error()
		slog.Error("Fan-out destination failed", logfields.Target(name), logfields.Error(err))
	}

	for _, target := range policy.Targets {
		msg, wasFailed := failed[target.Name]
		d.recorder.IncFanOutResult(target.Name, !wasFailed)
		if d.store != nil {
			if err := d.store.RecordFanOut(ctx, history.FanOutRecord{
				RunID: d.rc.RunID, Target: target.Name, Succeeded: !wasFailed, Message: msg,
			}); err != nil {
				slog.Warn("History write failed", logfields.Error(err))
			}
		}
	}
}

func (d *Driver) publishEvent(e events.Event) {
	if err := d.bus.Publish(e); err != nil {
		slog.Warn("Event delivery failed", slog.String("event", e.Name()), logfields.Error(err))
	}
}
