// Package report renders a per-run release report: a Markdown summary of the
// run identity, every stage outcome and the fan-out results, plus an HTML
// rendering with a generated table of contents. The report lands in the run's
// channel drop so it ships alongside the packages it describes.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/releasekit/internal/pipeline"
	"git.home.luguber.info/inful/releasekit/internal/release"
)

// Writer renders and persists run reports.
type Writer struct{}

// NewWriter returns a report Writer.
func NewWriter() *Writer { return &Writer{} }

// Write renders the report and stores report.md and report.html in dir.
func (w *Writer) Write(dir string, rc release.RunContext, result *pipeline.RunResult) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	md := Markdown(rc, result)
	if err := os.WriteFile(filepath.Join(dir, "report.md"), []byte(md), 0o640); err != nil {
		return err
	}

	page, err := HTMLPage("Release "+rc.PackageVersion(), []byte(md))
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "report.html"), page, 0o640)
}

// Markdown renders the run report as a Markdown document.
func Markdown(rc release.RunContext, result *pipeline.RunResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Release %s\n\n", rc.PackageVersion())

	b.WriteString("## Run\n\n")
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Run ID | `%s` |\n", rc.RunID)
	fmt.Fprintf(&b, "| Branch | `%s` |\n", rc.Deployment.Branch.RawName)
	fmt.Fprintf(&b, "| Channel | %s (%s) |\n", rc.Deployment.Channel, rc.Deployment.Affix.Label)
	fmt.Fprintf(&b, "| Version | %s |\n", rc.Version.Full)
	if rc.CommitSHA != "" {
		fmt.Fprintf(&b, "| Commit | `%s` |\n", rc.CommitSHA)
	}
	fmt.Fprintf(&b, "| Started | %s |\n", rc.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "| Duration | %s |\n", result.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "| Exit code | %d |\n\n", result.ExitCode)

	b.WriteString("## Units\n\n")
	if len(result.UnitStates) == 0 {
		b.WriteString("No build units discovered.\n\n")
	} else {
		b.WriteString("| Unit | State |\n|---|---|\n")
		for _, unit := range sortedUnits(result) {
			fmt.Fprintf(&b, "| %s | %s |\n", unitName(unit), result.UnitStates[unit])
		}
		b.WriteString("\n")
	}

	b.WriteString("## Stage outcomes\n\n")
	if len(result.Outcomes) == 0 {
		b.WriteString("No stages executed.\n\n")
	} else {
		b.WriteString("| Unit | Stage | Result | Exit | Duration |\n|---|---|---|---|---|\n")
		for _, o := range result.Outcomes {
			fmt.Fprintf(&b, "| %s | %s | %s | %d | %s |\n",
				o.Unit, o.Stage, resultWord(o.Succeeded), o.ExitCode, o.Duration.Round(time.Millisecond))
		}
		b.WriteString("\n")
		for _, o := range result.Outcomes {
			if !o.Succeeded && o.Message != "" {
				fmt.Fprintf(&b, "- **%s/%s**: %s\n", o.Unit, o.Stage, o.Message)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("## Fan-out\n\n")
	if len(result.FanOutFailures) == 0 {
		b.WriteString("All destinations succeeded.\n")
	} else {
		for _, err := range result.FanOutFailures {
			fmt.Fprintf(&b, "- %s\n", err.Error())
		}
	}

	return b.String()
}

func resultWord(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}

// unitName shortens a project path to its file name without extension.
func unitName(projectPath string) string {
	base := filepath.Base(projectPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func sortedUnits(result *pipeline.RunResult) []string {
	units := make([]string, 0, len(result.UnitStates))
	for unit := range result.UnitStates {
		units = append(units, unit)
	}
	// Failed units first so the interesting rows lead the table.
	failed := units[:0:0]
	var done []string
	for _, u := range units {
		if result.UnitStates[u] == pipeline.Failed {
			failed = append(failed, u)
		} else {
			done = append(done, u)
		}
	}
	sort.Strings(failed)
	sort.Strings(done)
	return append(failed, done...)
}
