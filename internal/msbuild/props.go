// Package msbuild is the boundary to the MSBuild property reader companion
// tool. The tool answers three questions: which projects a solution contains,
// what a single project property evaluates to, and whether a project file is
// SDK-style. Property lookups distinguish three outcomes that must never be
// collapsed: the property is absent, the property is present but empty, and
// the file could not be read at all. The companion tool signals "absent" with
// a dedicated exit code rather than an error.
package msbuild

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	pipeerr "git.home.luguber.info/inful/releasekit/internal/errors"
	"git.home.luguber.info/inful/releasekit/internal/toolrunner"
)

// ExitPropertyAbsent is the companion tool's distinguished exit code for
// "property not found, not an error".
const ExitPropertyAbsent = 14

// Scope selects which property evaluation pass the reader consults.
type Scope string

const (
	ScopeInner Scope = "inner" // after imports are evaluated (default)
	ScopeOuter Scope = "outer" // raw project file only
)

// PropKind tags a property lookup outcome.
type PropKind int

const (
	// Absent means the property does not exist in the project.
	Absent PropKind = iota
	// Empty means the property exists with an empty value.
	Empty
	// Present means the property exists with a non-empty value.
	Present
)

// PropValue is the tagged result of one property lookup. Raw strings never
// travel further into the pipeline than this type; callers convert to typed
// flags immediately.
type PropValue struct {
	Kind  PropKind
	Value string
}

// IsSet reports whether the property resolved to a non-empty value.
func (p PropValue) IsSet() bool { return p.Kind == Present }

// Bool interprets the value as an MSBuild boolean ("true"/"True"); absent and
// empty are false.
func (p PropValue) Bool() bool {
	return p.Kind == Present && strings.EqualFold(strings.TrimSpace(p.Value), "true")
}

// Reader answers project and solution questions. Implementations must keep
// the three property outcomes distinct (see PropValue).
type Reader interface {
	// GetProperty reads a single-valued property from a project file.
	GetProperty(ctx context.Context, projectPath, property string, scope Scope) (PropValue, error)
	// ProjectsFromSolution lists MSBuild-format member project paths in
	// solution file order.
	ProjectsFromSolution(ctx context.Context, solutionPath string) ([]string, error)
	// IsSdkStyle reports whether the project uses the SDK-style format.
	IsSdkStyle(ctx context.Context, projectPath string) (bool, error)
}

// ToolReader shells out to the companion property reader tool.
type ToolReader struct {
	tool   string
	runner toolrunner.Runner
}

// NewToolReader wraps the companion tool (executable name or path).
func NewToolReader(tool string, runner toolrunner.Runner) *ToolReader {
	return &ToolReader{tool: tool, runner: runner}
}

func (r *ToolReader) GetProperty(ctx context.Context, projectPath, property string, scope Scope) (PropValue, error) {
	if scope == "" {
		scope = ScopeInner
	}
	res, err := r.runner.Run(ctx, toolrunner.Invocation{
		Tool:             r.tool,
		Args:             []string{"csproj", "--location", projectPath, "--property", property, "--scope", string(scope)},
		AllowedExitCodes: []int{ExitPropertyAbsent},
	})
	if err != nil {
		return PropValue{}, pipeerr.ProjectUnreadable(projectPath, fmt.Errorf("read property %s: %w", property, err))
	}
	if res.ExitCode == ExitPropertyAbsent {
		return PropValue{Kind: Absent}, nil
	}
	value := strings.TrimSpace(res.Stdout)
	if value == "" {
		return PropValue{Kind: Empty}, nil
	}
	return PropValue{Kind: Present, Value: value}, nil
}

func (r *ToolReader) ProjectsFromSolution(ctx context.Context, solutionPath string) ([]string, error) {
	res, err := r.runner.Run(ctx, toolrunner.Invocation{
		Tool: r.tool,
		Args: []string{"sln", "--location", solutionPath},
	})
	if err != nil {
		return nil, pipeerr.SolutionUnreadable(solutionPath, err)
	}

	var projects []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !IsMSBuildProject(line) {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(filepath.Dir(solutionPath), filepath.FromSlash(line))
		}
		projects = append(projects, line)
	}
	return projects, nil
}

func (r *ToolReader) IsSdkStyle(ctx context.Context, projectPath string) (bool, error) {
	res, err := r.runner.Run(ctx, toolrunner.Invocation{
		Tool: r.tool,
		Args: []string{"projtype", "--location", projectPath, "--return", "sdk"},
	})
	if err != nil {
		return false, pipeerr.ProjectUnreadable(projectPath, err)
	}
	return strings.EqualFold(strings.TrimSpace(res.Stdout), "true"), nil
}

// msbuildProjectExts are the project file formats the pipeline builds.
// Solution members with other extensions (shared projects, folders) are skipped.
var msbuildProjectExts = map[string]bool{
	".csproj": true,
	".fsproj": true,
	".vbproj": true,
}

// IsMSBuildProject reports whether the path names an MSBuild-format project.
func IsMSBuildProject(path string) bool {
	return msbuildProjectExts[strings.ToLower(filepath.Ext(path))]
}
