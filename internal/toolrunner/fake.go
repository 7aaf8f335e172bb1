package toolrunner

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FakeRunner is a scripted Runner for tests. Responses are matched by the
// joined "tool arg arg..." command line; unmatched invocations fall back to
// Default. Every call is recorded in order.
type FakeRunner struct {
	mu        sync.Mutex
	Responses map[string]FakeResponse
	Default   FakeResponse
	Calls     []Invocation
}

// FakeResponse scripts one canned result.
type FakeResponse struct {
	Result Result
	Err    error
}

// NewFakeRunner returns a FakeRunner that succeeds by default.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{Responses: map[string]FakeResponse{}}
}

// Script registers a canned response for an exact command line.
func (f *FakeRunner) Script(commandLine string, resp FakeResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[commandLine] = resp
}

// ScriptFailure registers a failing response with the given exit code.
func (f *FakeRunner) ScriptFailure(commandLine string, exitCode int, stderr string) {
	f.Script(commandLine, FakeResponse{
		Result: Result{ExitCode: exitCode, Stderr: stderr},
		Err:    fmt.Errorf("%s exited with code %d", strings.Fields(commandLine)[0], exitCode),
	})
}

func (f *FakeRunner) Run(_ context.Context, inv Invocation) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, inv)

	key := CommandLine(inv)
	if resp, ok := f.Responses[key]; ok {
		if resp.Err != nil && allowed(resp.Result.ExitCode, inv.AllowedExitCodes) {
			return resp.Result, nil
		}
		return resp.Result, resp.Err
	}
	if f.Default.Err != nil && allowed(f.Default.Result.ExitCode, inv.AllowedExitCodes) {
		return f.Default.Result, nil
	}
	return f.Default.Result, f.Default.Err
}

// CallLines returns the recorded invocations as joined command lines.
func (f *FakeRunner) CallLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		lines = append(lines, CommandLine(c))
	}
	return lines
}

// CommandLine renders an invocation as "tool arg arg..." for matching.
func CommandLine(inv Invocation) string {
	if len(inv.Args) == 0 {
		return inv.Tool
	}
	return inv.Tool + " " + strings.Join(inv.Args, " ")
}
