// Package toolrunner abstracts external build tool invocations. Every stage of
// the pipeline shells out to a tool (dotnet, msbuild, the property reader,
// docfx); this package gives those calls one shape: a blocking run with
// captured output, a bounded Result, and an optional allow-list of non-zero
// exit codes that are not treated as failure. Swapping the exec-backed runner
// for a fake keeps the orchestration testable without any tool installed.
package toolrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"git.home.luguber.info/inful/releasekit/internal/logfields"
)

// Result is the bounded outcome of one external tool invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Invocation describes one external tool call.
type Invocation struct {
	Tool string   // executable name or path
	Args []string // argv after the tool name
	Dir  string   // working directory; empty means inherit
	Env  []string // extra KEY=VALUE entries appended to the process env

	// AllowedExitCodes lists non-zero exit codes that do not constitute
	// failure (the property reader signals "absent" with one of these).
	// Exit code 0 is always allowed.
	AllowedExitCodes []int

	// Timeout bounds the call when positive; zero means no per-call bound.
	Timeout time.Duration
}

// Runner executes external tool invocations.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (Result, error)
}

// ExecRunner runs invocations with os/exec.
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner { return &ExecRunner{} }

// LookTool verifies that a tool is resolvable on PATH (or as a direct path).
func LookTool(tool string) error {
	_, err := exec.LookPath(tool)
	return err
}

// Run executes the invocation and blocks until it finishes. A non-zero exit
// code outside the allow-list returns an error alongside the Result; the
// Result always carries captured output and the observed exit code.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (Result, error) {
	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, inv.Tool, inv.Args...)
	cmd.Dir = inv.Dir
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("Invoking external tool", logfields.Tool(inv.Tool), slog.Any("args", inv.Args), logfields.Path(inv.Dir))

	t0 := time.Now()
	runErr := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode(runErr),
		Duration: time.Since(t0),
	}

	if runErr == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("%s: %w", inv.Tool, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		if allowed(res.ExitCode, inv.AllowedExitCodes) {
			return res, nil
		}
		return res, fmt.Errorf("%s exited with code %d", inv.Tool, res.ExitCode)
	}

	// Tool did not start at all (missing binary, permission).
	return res, fmt.Errorf("%s: %w", inv.Tool, runErr)
}

// CombinedOutput joins stderr and stdout for diagnostics, stderr first since
// build tools put the interesting lines there.
func (r Result) CombinedOutput() string {
	switch {
	case r.Stderr == "":
		return r.Stdout
	case r.Stdout == "":
		return r.Stderr
	default:
		return r.Stderr + "\n" + r.Stdout
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func allowed(code int, allowList []int) bool {
	for _, a := range allowList {
		if code == a {
			return true
		}
	}
	return false
}
