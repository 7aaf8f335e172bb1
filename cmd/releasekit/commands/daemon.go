package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/releasekit/internal/daemon"
	"git.home.luguber.info/inful/releasekit/internal/pipeline"
)

// DaemonCmd runs scheduled pipeline builds as a long-lived service with a
// metrics, health and status endpoint.
type DaemonCmd struct {
	Branch string `short:"b" help:"Branch name override (defaults to the checkout's HEAD per run)"`
}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, false)
	if err != nil {
		return err
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run := func(runCtx context.Context) (*pipeline.RunResult, error) {
		result, rc, err := rt.executeRun(runCtx, d.Branch)
		if err != nil {
			return nil, err
		}
		printRunSummary(rc, result)
		return result, nil
	}

	svc := daemon.New(cfg, run, rt.registry)
	svc.Trigger() // first run on startup, then on the interval
	return svc.Run(ctx)
}
