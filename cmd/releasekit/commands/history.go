package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/releasekit/internal/history"
)

// HistoryCmd lists past pipeline runs, or one run's stage and fan-out detail.
type HistoryCmd struct {
	RunID string `arg:"" optional:"" help:"Run ID to inspect in detail"`
	Limit int    `short:"n" default:"10" help:"Number of runs to list"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
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
	if h.RunID != "" {
		return h.detail(ctx, store)
	}

	runs, err := store.Runs(ctx, h.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}
	for _, run := range runs {
		outcome := "running"
		if !run.FinishedAt.IsZero() {
			outcome = "ok"
			if run.ExitCode != 0 {
				outcome = "FAILED"
			}
		}
		fmt.Printf("%s  %-19s %-11s %-25s %s\n",
			run.RunID, run.StartedAt.Format("2006-01-02 15:04:05"), run.Channel, run.Version, outcome)
	}
	return nil
}

func (h *HistoryCmd) detail(ctx context.Context, store history.Store) error {
	outcomes, err := store.Outcomes(ctx, h.RunID)
	if err != nil {
		return err
	}
	fanouts, err := store.FanOuts(ctx, h.RunID)
	if err != nil {
		return err
	}
	if len(outcomes) == 0 && len(fanouts) == 0 {
		return fmt.Errorf("no records for run %s", h.RunID)
	}

	fmt.Printf("Run %s\n", h.RunID)
	for _, o := range outcomes {
		word := "ok"
		if !o.Succeeded {
			word = "FAILED"
		}
		fmt.Printf("  %-30s %-10s %-7s exit %d", o.Unit, o.Stage, word, o.ExitCode)
		if o.Message != "" {
			fmt.Printf("  %s", o.Message)
		}
		fmt.Println()
	}
	for _, f := range fanouts {
		word := "ok"
		if !f.Succeeded {
			word = "FAILED"
		}
		fmt.Printf("  fan-out %-20s %s", f.Target, word)
		if f.Message != "" {
			fmt.Printf("  %s", f.Message)
		}
		fmt.Println()
	}
	return nil
}
