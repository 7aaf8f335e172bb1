// Package discovery enumerates the build units of a repository: every
// MSBuild-format project of every solution under the source root, ordered so
// that test projects come first. Test-first ordering gives CI its fast
// feedback signal before any packaging time is spent; within the two groups
// the original discovery order (solution order, then intra-solution order) is
// preserved. That exact ordering is a documented invariant.
package discovery

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/releasekit/internal/logfields"
	"git.home.luguber.info/inful/releasekit/internal/msbuild"
)

// Unit is one buildable project together with its owning solution.
type Unit struct {
	SolutionPath  string
	ProjectPath   string
	IsTestProject bool

	reader msbuild.Reader
	flags  *unitFlags
}

// unitFlags caches the lazily-resolved classification flags for a unit's
// lifetime within the run.
type unitFlags struct {
	packable    *bool
	publishable *bool
}

// Name returns the project file name without extension, for logs and reports.
func (u *Unit) Name() string {
	base := filepath.Base(u.ProjectPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Packable reports whether the unit produces a package. The MSBuild default
// applies: absent means packable unless the unit is a test project.
func (u *Unit) Packable(ctx context.Context) (bool, error) {
	if u.flags.packable != nil {
		return *u.flags.packable, nil
	}
	v, err := u.reader.GetProperty(ctx, u.ProjectPath, "IsPackable", msbuild.ScopeInner)
	if err != nil {
		return false, err
	}
	packable := v.Bool()
	if v.Kind == msbuild.Absent {
		packable = !u.IsTestProject
	}
	u.flags.packable = &packable
	return packable, nil
}

// Publishable reports whether the unit is deployed as an application
// (framework-dependent publish output). Absent means not publishable.
func (u *Unit) Publishable(ctx context.Context) (bool, error) {
	if u.flags.publishable != nil {
		return *u.flags.publishable, nil
	}
	v, err := u.reader.GetProperty(ctx, u.ProjectPath, "IsPublishable", msbuild.ScopeInner)
	if err != nil {
		return false, err
	}
	publishable := v.Bool()
	u.flags.publishable = &publishable
	return publishable, nil
}

// Discoverer enumerates build units through the property reader.
type Discoverer struct {
	reader msbuild.Reader
}

// New returns a Discoverer over the given property reader.
func New(reader msbuild.Reader) *Discoverer {
	return &Discoverer{reader: reader}
}

// Discover walks sourceRoot for solution files (lexical order), lists each
// solution's member projects in solution file order, resolves test
// classification per unit, and returns the concatenated units stable-
// partitioned with test projects first. A project whose classification fails
// aborts discovery for that solution and propagates the error; nothing is
// silently omitted.
func (d *Discoverer) Discover(ctx context.Context, sourceRoot string) ([]*Unit, error) {
	solutions, err := findSolutions(sourceRoot)
	if err != nil {
		return nil, err
	}
	slog.Info("Discovered solutions", logfields.Count(len(solutions)), logfields.Path(sourceRoot))

	var units []*Unit
	for _, sln := range solutions {
		slnUnits, err := d.discoverSolution(ctx, sln)
		if err != nil {
			return nil, err
		}
		units = append(units, slnUnits...)
	}

	return partitionTestsFirst(units), nil
}

func (d *Discoverer) discoverSolution(ctx context.Context, solutionPath string) ([]*Unit, error) {
	projects, err := d.reader.ProjectsFromSolution(ctx, solutionPath)
	if err != nil {
		return nil, err
	}

	units := make([]*Unit, 0, len(projects))
	for _, project := range projects {
		isTest, err := d.reader.GetProperty(ctx, project, "IsTestProject", msbuild.ScopeInner)
		if err != nil {
			return nil, err
		}
		units = append(units, &Unit{
			SolutionPath:  solutionPath,
			ProjectPath:   project,
			IsTestProject: isTest.Bool(),
			reader:        d.reader,
			flags:         &unitFlags{},
		})
	}
	slog.Debug("Solution members resolved", logfields.Solution(solutionPath), logfields.Count(len(units)))
	return units, nil
}

// partitionTestsFirst stable-partitions units into test projects followed by
// everything else, both groups keeping their relative order.
func partitionTestsFirst(units []*Unit) []*Unit {
	ordered := make([]*Unit, 0, len(units))
	for _, u := range units {
		if u.IsTestProject {
			ordered = append(ordered, u)
		}
	}
	for _, u := range units {
		if !u.IsTestProject {
			ordered = append(ordered, u)
		}
	}
	return ordered
}

// findSolutions returns every *.sln under root in lexical walk order.
func findSolutions(root string) ([]string, error) {
	var solutions []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			// Skip dot directories (.git and friends).
			if name := entry.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".sln") {
			solutions = append(solutions, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return solutions, nil
}
