package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
)

// RunCmd implements the 'run' command: one full pipeline execution.
type RunCmd struct {
	Branch   string `short:"b" help:"Branch name override (defaults to the checkout's HEAD)"`
	FailFast bool   `help:"Abort remaining units after the first unit failure"`
}

func (r *RunCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, false)
	if err != nil {
		return err
	}
	if r.FailFast {
		cfg.FailFast = true
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	rt.serveMetrics(ctx)

	result, rc, err := rt.executeRun(ctx, r.Branch)
	if err != nil {
		return err
	}

	printRunSummary(rc, result)
	if result.ExitCode != 0 {
		return fmt.Errorf("pipeline run failed (%d unit failures, %d fan-out failures)",
			result.FailedUnits, len(result.FanOutFailures))
	}
	return nil
}
