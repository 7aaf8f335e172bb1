package msbuild

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/releasekit/internal/toolrunner"
)

func TestGetPropertyPresent(t *testing.T) {
	f := toolrunner.NewFakeRunner()
	f.Script("msbuildprops csproj --location p.csproj --property TargetFramework --scope inner",
		toolrunner.FakeResponse{Result: toolrunner.Result{Stdout: "net8.0\n"}})

	r := NewToolReader("msbuildprops", f)
	v, err := r.GetProperty(context.Background(), "p.csproj", "TargetFramework", ScopeInner)
	require.NoError(t, err)
	assert.Equal(t, Present, v.Kind)
	assert.Equal(t, "net8.0", v.Value)
}

func TestGetPropertyAbsentViaExitCode(t *testing.T) {
	f := toolrunner.NewFakeRunner()
	f.ScriptFailure("msbuildprops csproj --location p.csproj --property TargetFrameworkVersion --scope inner",
		ExitPropertyAbsent, "")

	r := NewToolReader("msbuildprops", f)
	v, err := r.GetProperty(context.Background(), "p.csproj", "TargetFrameworkVersion", ScopeInner)
	require.NoError(t, err)
	assert.Equal(t, Absent, v.Kind)
	assert.False(t, v.IsSet())
}

func TestGetPropertyEmptyIsNotAbsent(t *testing.T) {
	f := toolrunner.NewFakeRunner()
	f.Script("msbuildprops csproj --location p.csproj --property PackageId --scope inner",
		toolrunner.FakeResponse{Result: toolrunner.Result{Stdout: "  \n"}})

	r := NewToolReader("msbuildprops", f)
	v, err := r.GetProperty(context.Background(), "p.csproj", "PackageId", ScopeInner)
	require.NoError(t, err)
	assert.Equal(t, Empty, v.Kind)
}

func TestGetPropertyUnreadableFile(t *testing.T) {
	f := toolrunner.NewFakeRunner()
	f.ScriptFailure("msbuildprops csproj --location gone.csproj --property TargetFramework --scope inner",
		1, "error: file not found")

	r := NewToolReader("msbuildprops", f)
	_, err := r.GetProperty(context.Background(), "gone.csproj", "TargetFramework", ScopeInner)
	require.Error(t, err)
}

func TestGetPropertyDefaultScopeIsInner(t *testing.T) {
	f := toolrunner.NewFakeRunner()
	f.Script("msbuildprops csproj --location p.csproj --property IsPackable --scope inner",
		toolrunner.FakeResponse{Result: toolrunner.Result{Stdout: "true"}})

	r := NewToolReader("msbuildprops", f)
	v, err := r.GetProperty(context.Background(), "p.csproj", "IsPackable", "")
	require.NoError(t, err)
	assert.True(t, v.Bool())
}

func TestProjectsFromSolutionFiltersNonMSBuild(t *testing.T) {
	f := toolrunner.NewFakeRunner()
	f.Script("msbuildprops sln --location /repo/src/App.sln",
		toolrunner.FakeResponse{Result: toolrunner.Result{
			Stdout: "Core/Core.csproj\nFuncs/Funcs.fsproj\nShared/Shared.shproj\nSite/Site.pyproj\n",
		}})

	r := NewToolReader("msbuildprops", f)
	projects, err := r.ProjectsFromSolution(context.Background(), "/repo/src/App.sln")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/repo/src/Core/Core.csproj",
		"/repo/src/Funcs/Funcs.fsproj",
	}, projects)
}

func TestProjectsFromSolutionUnreadable(t *testing.T) {
	f := toolrunner.NewFakeRunner()
	f.ScriptFailure("msbuildprops sln --location missing.sln", 2, "cannot open solution")

	r := NewToolReader("msbuildprops", f)
	_, err := r.ProjectsFromSolution(context.Background(), "missing.sln")
	require.Error(t, err)
}

func TestPropValueBool(t *testing.T) {
	assert.True(t, Value("true").Bool())
	assert.True(t, Value("True").Bool())
	assert.False(t, Value("false").Bool())
	assert.False(t, EmptyValue().Bool())
	assert.False(t, AbsentValue().Bool())
}
