package toolrunner

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunnerCapturesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on sh")
	}
	r := NewExecRunner()
	res, err := r.Run(context.Background(), Invocation{
		Tool: "sh", Args: []string{"-c", "echo out; echo err 1>&2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Stdout, "out")
	assert.Contains(t, res.Stderr, "err")
}

func TestExecRunnerDisallowedExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on sh")
	}
	r := NewExecRunner()
	res, err := r.Run(context.Background(), Invocation{
		Tool: "sh", Args: []string{"-c", "exit 3"},
	})
	require.Error(t, err)
	assert.Equal(t, 3, res.ExitCode)
}

func TestExecRunnerAllowListedExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on sh")
	}
	r := NewExecRunner()
	res, err := r.Run(context.Background(), Invocation{
		Tool: "sh", Args: []string{"-c", "exit 14"},
		AllowedExitCodes: []int{14},
	})
	require.NoError(t, err)
	assert.Equal(t, 14, res.ExitCode)
}

func TestExecRunnerMissingTool(t *testing.T) {
	r := NewExecRunner()
	_, err := r.Run(context.Background(), Invocation{Tool: "definitely-not-a-tool-xyz"})
	require.Error(t, err)
}

func TestCombinedOutputOrdersStderrFirst(t *testing.T) {
	res := Result{Stdout: "restored packages", Stderr: "warning NU1603"}
	assert.Equal(t, "warning NU1603\nrestored packages", res.CombinedOutput())
}

func TestFakeRunnerScriptsAndRecords(t *testing.T) {
	f := NewFakeRunner()
	f.Script("dotnet build proj.csproj", FakeResponse{Result: Result{Stdout: "ok"}})
	f.ScriptFailure("dotnet test proj.csproj", 1, "failed assertion")

	res, err := f.Run(context.Background(), Invocation{Tool: "dotnet", Args: []string{"build", "proj.csproj"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Stdout)

	_, err = f.Run(context.Background(), Invocation{Tool: "dotnet", Args: []string{"test", "proj.csproj"}})
	require.Error(t, err)

	assert.Equal(t, []string{"dotnet build proj.csproj", "dotnet test proj.csproj"}, f.CallLines())
}

func TestFakeRunnerHonorsAllowList(t *testing.T) {
	f := NewFakeRunner()
	f.ScriptFailure("msbuildprops csproj --location p.csproj --property TargetFramework --scope inner", 14, "")

	res, err := f.Run(context.Background(), Invocation{
		Tool:             "msbuildprops",
		Args:             []string{"csproj", "--location", "p.csproj", "--property", "TargetFramework", "--scope", "inner"},
		AllowedExitCodes: []int{14},
	})
	require.NoError(t, err)
	assert.Equal(t, 14, res.ExitCode)
}
