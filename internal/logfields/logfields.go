package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID    = "run_id"
	KeyBranch   = "branch"
	KeyChannel  = "channel"
	KeyVersion  = "version"
	KeySolution = "solution"
	KeyProject  = "project"
	KeyStage    = "stage"
	KeyTool     = "tool"
	KeyTarget   = "target"
	KeyExitCode = "exit_code"
	KeyDuration = "duration_ms"
	KeyPath     = "path"
	KeyName     = "name"
	KeyCount    = "count"
	KeyError    = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Branch(b string) slog.Attr       { return slog.String(KeyBranch, b) }
func Channel(c string) slog.Attr      { return slog.String(KeyChannel, c) }
func Version(v string) slog.Attr      { return slog.String(KeyVersion, v) }
func Solution(s string) slog.Attr     { return slog.String(KeySolution, s) }
func Project(p string) slog.Attr      { return slog.String(KeyProject, p) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Tool(t string) slog.Attr         { return slog.String(KeyTool, t) }
func Target(t string) slog.Attr       { return slog.String(KeyTarget, t) }
func ExitCode(c int) slog.Attr        { return slog.Int(KeyExitCode, c) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDuration, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Name(n string) slog.Attr         { return slog.String(KeyName, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
