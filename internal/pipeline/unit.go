package pipeline

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/releasekit/internal/discovery"
	"git.home.luguber.info/inful/releasekit/internal/events"
	"git.home.luguber.info/inful/releasekit/internal/history"
	"git.home.luguber.info/inful/releasekit/internal/logfields"
	"git.home.luguber.info/inful/releasekit/internal/metrics"
	"git.home.luguber.info/inful/releasekit/internal/toolchain"
	"git.home.luguber.info/inful/releasekit/internal/toolrunner"
)

// MSBuild node reuse keeps worker processes alive between invocations, which
// holds file locks across clean and confuses repeated restores. Always off.
const msbuildNoNodeReuse = "MSBUILDDISABLENODEREUSE=1"

// step is one entry of a unit's stage plan.
type step struct {
	stage Stage
	state State
	fatal bool
	tool  string
	args  []string

	// enabled gates conditional stages; nil means always run. An error from
	// the gate counts as a discovery failure and fails the unit.
	enabled func(ctx context.Context) (bool, error)
}

// runUnit drives one unit through its stage sequence and returns its terminal
// state. Every executed stage appends an outcome to the run log.
func (d *Driver) runUnit(ctx context.Context, unit *discovery.Unit, result *RunResult) State {
	log := slog.With(logfields.Project(unit.Name()), logfields.Solution(unit.SolutionPath))

	state := Discovered

	sel, err := d.selector.Select(ctx, unit.ProjectPath)
	if err != nil {
		log.Error("Toolchain classification failed", logfields.Error(err))
		d.recordOutcome(ctx, result, StageOutcome{
			Unit: unit.Name(), Solution: unit.SolutionPath,
			Stage: StageDiscover, Succeeded: false, Message: err.Error(),
		})
		return d.finishUnit(unit, Failed)
	}
	if err := d.layout.EnsureUnit(unit.SolutionPath, unit.ProjectPath); err != nil {
		log.Error("Unit artifact directory not writable", logfields.Error(err))
		d.recordOutcome(ctx, result, StageOutcome{
			Unit: unit.Name(), Solution: unit.SolutionPath,
			Stage: StageDiscover, Succeeded: false, Message: err.Error(),
		})
		return d.finishUnit(unit, Failed)
	}

	log.Info("Unit starting",
		logfields.Tool(string(sel.Tool)),
		slog.Any("frameworks", sel.Frameworks),
		slog.Bool("test_project", unit.IsTestProject))

	for _, s := range d.plan(unit, sel) {
		run, gateErr := s.shouldRun(ctx)
		if gateErr != nil {
			log.Error("Stage precondition unresolvable", logfields.Stage(string(s.stage)), logfields.Error(gateErr))
			d.recordOutcome(ctx, result, StageOutcome{
				Unit: unit.Name(), Solution: unit.SolutionPath,
				Stage: s.stage, Succeeded: false, Message: gateErr.Error(),
			})
			state = Failed
			break
		}
		if !run {
			d.recorder.IncStageResult(string(s.stage), metrics.ResultSkipped)
			log.Debug("Stage skipped", logfields.Stage(string(s.stage)))
			continue
		}

		if err := Transition(state, s.state); err != nil {
			// Plan ordering is fixed; a bad transition is a programming error.
			log.Error("State machine violation", logfields.Error(err))
			state = Failed
			break
		}
		state = s.state

		outcome := d.executeStage(ctx, unit, s)
		d.recordOutcome(ctx, result, outcome)

		if !outcome.Succeeded && s.fatal {
			state = Failed
			break
		}
		if ctx.Err() != nil {
			state = Failed
			break
		}
	}

	if state != Failed {
		state = Done
	}
	return d.finishUnit(unit, state)
}

// plan assembles the unit's stage sequence. Restore runs twice around clean:
// clean targets need restored packages to evaluate, and clean then removes
// restore output.
func (d *Driver) plan(unit *discovery.Unit, sel toolchain.Selection) []step {
	buildTool := d.cfg.Tools.Dotnet
	if sel.Tool == toolchain.LegacyMsBuildTool {
		buildTool = d.cfg.Tools.MSBuild
	}

	base := toolchain.StageArgs{Configuration: d.rc.Configuration}
	packArgs := toolchain.StageArgs{
		Configuration:  d.rc.Configuration,
		PackageVersion: d.rc.PackageVersion(),
		OutputDir:      d.layout.PackageDir(unit.SolutionPath, unit.ProjectPath),
	}
	publishArgs := toolchain.StageArgs{
		Configuration: d.rc.Configuration,
		OutputDir:     d.layout.PublishDir(unit.SolutionPath, unit.ProjectPath),
	}

	return []step{
		{stage: StageRestore, state: Restoring, fatal: true,
			tool: buildTool, args: sel.RestoreArgs(unit.ProjectPath)},
		{stage: StageClean, state: Cleaning, fatal: true,
			tool: buildTool, args: sel.CleanArgs(unit.ProjectPath, base)},
		{stage: StageRestore, state: RestoringAgain, fatal: true,
			tool: buildTool, args: sel.RestoreArgs(unit.ProjectPath)},
		{stage: StageBuild, state: Building, fatal: true,
			tool: buildTool, args: sel.BuildArgs(unit.ProjectPath, base)},

		// Test failures are recorded but never block pack or publish.
		{stage: StageTest, state: Testing, fatal: false,
			tool: d.cfg.Tools.Dotnet, args: sel.TestArgs(unit.ProjectPath, base),
			enabled: func(context.Context) (bool, error) { return unit.IsTestProject, nil }},

		{stage: StagePack, state: Packing, fatal: false,
			tool: d.cfg.Tools.Dotnet, args: sel.PackArgs(unit.ProjectPath, packArgs),
			enabled: unit.Packable},

		{stage: StagePublish, state: Publishing, fatal: false,
			tool: d.cfg.Tools.Dotnet, args: sel.PublishArgs(unit.ProjectPath, publishArgs),
			enabled: unit.Publishable},

		{stage: StageDocs, state: DocsGenerating, fatal: false,
			tool: d.cfg.Tools.Docfx,
			args: []string{"metadata", unit.ProjectPath, "--output", d.layout.DocsDir(unit.SolutionPath, unit.ProjectPath)},
			enabled: func(ctx context.Context) (bool, error) {
				if !d.cfg.Docs.Enabled {
					return false, nil
				}
				return unit.Packable(ctx)
			}},
	}
}

func (s step) shouldRun(ctx context.Context) (bool, error) {
	if s.enabled == nil {
		return true, nil
	}
	return s.enabled(ctx)
}

// executeStage runs one external invocation and shapes its outcome.
func (d *Driver) executeStage(ctx context.Context, unit *discovery.Unit, s step) StageOutcome {
	slog.Info("Stage starting", logfields.Stage(string(s.stage)), logfields.Project(unit.Name()), logfields.Tool(s.tool))

	res, err := d.runner.Run(ctx, toolrunner.Invocation{
		Tool:    s.tool,
		Args:    s.args,
		Env:     []string{msbuildNoNodeReuse},
		Timeout: d.cfg.Tools.StageTimeout,
	})

	outcome := StageOutcome{
		Unit:      unit.Name(),
		Solution:  unit.SolutionPath,
		Stage:     s.stage,
		Succeeded: err == nil,
		ExitCode:  res.ExitCode,
		Duration:  res.Duration,
	}
	if err != nil {
		outcome.Message = err.Error()
		slog.Error("Stage failed",
			logfields.Stage(string(s.stage)), logfields.Project(unit.Name()),
			logfields.ExitCode(res.ExitCode), logfields.Error(err))
		if out := res.CombinedOutput(); out != "" {
			slog.Debug("Stage output", logfields.Stage(string(s.stage)), slog.String("output", out))
		}
	} else {
		slog.Info("Stage finished",
			logfields.Stage(string(s.stage)), logfields.Project(unit.Name()),
			logfields.DurationMS(float64(res.Duration.Milliseconds())))
	}
	return outcome
}

// recordOutcome appends to the run log and forwards to events, metrics and
// history.
func (d *Driver) recordOutcome(ctx context.Context, result *RunResult, o StageOutcome) {
	result.Outcomes = append(result.Outcomes, o)

	label := metrics.ResultSuccess
	if !o.Succeeded {
		label = metrics.ResultFailure
	}
	d.recorder.IncStageResult(string(o.Stage), label)
	if o.Duration > 0 {
		d.recorder.ObserveStageDuration(string(o.Stage), o.Duration)
	}

	d.publishEvent(events.StageFinished{
		RunID:     d.rc.RunID,
		Unit:      o.Unit,
		Stage:     string(o.Stage),
		Succeeded: o.Succeeded,
		ExitCode:  o.ExitCode,
		Duration:  o.Duration,
	})
	if d.store != nil {
		if err := d.store.RecordOutcome(ctx, history.OutcomeRecord{
			RunID:     d.rc.RunID,
			Unit:      o.Unit,
			Stage:     string(o.Stage),
			Succeeded: o.Succeeded,
			ExitCode:  o.ExitCode,
			Message:   o.Message,
		}); err != nil {
			slog.Warn("History write failed", logfields.Error(err))
		}
	}
}

func (d *Driver) finishUnit(unit *discovery.Unit, state State) State {
	d.publishEvent(events.UnitFinished{
		RunID: d.rc.RunID,
		Unit:  unit.Name(),
		State: string(state),
	})
	slog.Info("Unit finished", logfields.Project(unit.Name()), slog.String("state", string(state)))
	return state
}
