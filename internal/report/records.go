package report

import (
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/releasekit/internal/history"
)

// FromRecords renders a Markdown report for a run recovered from the history
// store (the `report` command renders past runs this way).
func FromRecords(run history.RunRecord, outcomes []history.OutcomeRecord, fanouts []history.FanOutRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Release %s\n\n", run.Version)

	b.WriteString("## Run\n\n")
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Run ID | `%s` |\n", run.RunID)
	fmt.Fprintf(&b, "| Branch | `%s` |\n", run.Branch)
	fmt.Fprintf(&b, "| Channel | %s |\n", run.Channel)
	if run.CommitSHA != "" {
		fmt.Fprintf(&b, "| Commit | `%s` |\n", run.CommitSHA)
	}
	fmt.Fprintf(&b, "| Started | %s |\n", run.StartedAt.UTC().Format(time.RFC3339))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "| Finished | %s |\n", run.FinishedAt.UTC().Format(time.RFC3339))
		fmt.Fprintf(&b, "| Exit code | %d |\n", run.ExitCode)
	}
	b.WriteString("\n")

	b.WriteString("## Stage outcomes\n\n")
	if len(outcomes) == 0 {
		b.WriteString("No stages recorded.\n\n")
	} else {
		b.WriteString("| Unit | Stage | Result | Exit |\n|---|---|---|---|\n")
		for _, o := range outcomes {
			fmt.Fprintf(&b, "| %s | %s | %s | %d |\n", o.Unit, o.Stage, resultWord(o.Succeeded), o.ExitCode)
		}
		b.WriteString("\n")
		for _, o := range outcomes {
			if !o.Succeeded && o.Message != "" {
				fmt.Fprintf(&b, "- **%s/%s**: %s\n", o.Unit, o.Stage, o.Message)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("## Fan-out\n\n")
	if len(fanouts) == 0 {
		b.WriteString("No fan-out recorded.\n")
	} else {
		b.WriteString("| Target | Result |\n|---|---|\n")
		for _, f := range fanouts {
			fmt.Fprintf(&b, "| %s | %s |\n", f.Target, resultWord(f.Succeeded))
		}
	}

	return b.String()
}
