package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/releasekit/internal/logfields"
	"git.home.luguber.info/inful/releasekit/internal/watcher"
)

// WatchCmd runs the pipeline whenever the source tree settles after changes.
type WatchCmd struct {
	Branch  string `short:"b" help:"Branch name override (defaults to the checkout's HEAD)"`
	Initial bool   `default:"true" negatable:"" help:"Run once immediately before watching"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
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
	rt.serveMetrics(ctx)

	// Changes within the debounce window coalesce into one trigger; a change
	// arriving mid-run queues at most one follow-up.
	trigger := make(chan struct{}, 1)
	requestRun := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	src, err := watcher.New(cfg.SourceRoot, cfg.Watch.Debounce, requestRun, cfg.ArtifactsDir)
	if err != nil {
		return err
	}
	watchDone := make(chan error, 1)
	go func() { watchDone <- src.Run(ctx) }()

	if w.Initial {
		requestRun()
	}

	for {
		select {
		case <-ctx.Done():
			return <-watchDone
		case err := <-watchDone:
			return err
		case <-trigger:
			result, rc, err := rt.executeRun(ctx, w.Branch)
			if err != nil {
				// Keep watching; the next change retries.
				slog.Error("Run failed", logfields.Error(err))
				continue
			}
			printRunSummary(rc, result)
		}
	}
}
