package commands

import (
	"context"
	"fmt"
	"os"

	"git.home.luguber.info/inful/releasekit/internal/history"
	"git.home.luguber.info/inful/releasekit/internal/report"
)

// ReportCmd renders the report for a recorded run from the history store.
type ReportCmd struct {
	RunID  string `arg:"" optional:"" help:"Run ID (defaults to the most recent run)"`
	Output string `short:"o" help:"Write to a file instead of stdout"`
	HTML   bool   `help:"Render HTML instead of Markdown"`
}

func (r *ReportCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, true)
	if err != nil {
		return err
	}
	store, err := history.NewSQLiteStore(cfg.HistoryPath())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	run, err := findRun(ctx, store, r.RunID)
	if err != nil {
		return err
	}
	outcomes, err := store.Outcomes(ctx, run.RunID)
	if err != nil {
		return err
	}
	fanouts, err := store.FanOuts(ctx, run.RunID)
	if err != nil {
		return err
	}

	rendered := []byte(report.FromRecords(run, outcomes, fanouts))
	if r.HTML {
		rendered, err = report.HTMLPage("Release "+run.Version, rendered)
		if err != nil {
			return err
		}
	}

	if r.Output == "" {
		_, err = os.Stdout.Write(rendered)
		return err
	}
	return os.WriteFile(r.Output, rendered, 0o640)
}

func findRun(ctx context.Context, store history.Store, runID string) (history.RunRecord, error) {
	if runID == "" {
		runs, err := store.Runs(ctx, 1)
		if err != nil {
			return history.RunRecord{}, err
		}
		if len(runs) == 0 {
			return history.RunRecord{}, fmt.Errorf("no recorded runs")
		}
		return runs[0], nil
	}

	runs, err := store.Runs(ctx, 1000)
	if err != nil {
		return history.RunRecord{}, err
	}
	for _, run := range runs {
		if run.RunID == runID {
			return run, nil
		}
	}
	return history.RunRecord{}, fmt.Errorf("run %s not found", runID)
}
