// Package workspace lays out the artifact output tree for a pipeline run. The
// tree is partitioned by (solution, project, branch segments, version) so that
// two runs, or a future parallel driver, never collide on output paths. The
// partitioning is an invariant of the layout even while the driver is
// sequential.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/releasekit/internal/channel"
	"git.home.luguber.info/inful/releasekit/internal/logfields"
)

// Layout resolves every output path of a run from the artifact root and the
// run identity. Immutable after construction.
type Layout struct {
	root       string
	deployment channel.DeploymentInfo
	version    string
}

// NewLayout builds the layout for one run. root defaults to ./artifacts.
func NewLayout(root string, dep channel.DeploymentInfo, version string) *Layout {
	if root == "" {
		root = "artifacts"
	}
	return &Layout{root: root, deployment: dep, version: version}
}

// Root returns the artifact root directory.
func (l *Layout) Root() string { return l.root }

// branchPath nests the sanitized branch segments as directories.
func (l *Layout) branchPath() string {
	return filepath.Join(l.deployment.Branch.Segments...)
}

// UnitDir is the per-unit output directory:
// <root>/units/<solution>/<project>/<branch...>/<version>.
func (l *Layout) UnitDir(solutionPath, projectPath string) string {
	return filepath.Join(l.root, "units",
		baseName(solutionPath), baseName(projectPath),
		l.branchPath(), l.version)
}

// PackageDir is where a unit's pack stage drops its packages.
func (l *Layout) PackageDir(solutionPath, projectPath string) string {
	return filepath.Join(l.UnitDir(solutionPath, projectPath), "packages")
}

// PublishDir is where a unit's publish stage drops its deployable output.
func (l *Layout) PublishDir(solutionPath, projectPath string) string {
	return filepath.Join(l.UnitDir(solutionPath, projectPath), "publish")
}

// DocsDir is where a unit's docs stage writes generated reference docs.
func (l *Layout) DocsDir(solutionPath, projectPath string) string {
	return filepath.Join(l.UnitDir(solutionPath, projectPath), "docs")
}

// ChannelDrop is the per-channel, per-version artifact drop:
// <root>/drops/<channel>/<branch...>/<version>.
func (l *Layout) ChannelDrop() string {
	return filepath.Join(l.root, "drops", string(l.deployment.Channel), l.branchPath(), l.version)
}

// LatestDrop is the per-channel rolling "latest" drop, overwritten each run.
func (l *Layout) LatestDrop() string {
	return filepath.Join(l.root, "drops", string(l.deployment.Channel), "latest")
}

// DistributionDrop is the production distribution staging area.
func (l *Layout) DistributionDrop() string {
	return filepath.Join(l.root, "dist", l.version)
}

// ZipDrop is where zipped distribution archives land.
func (l *Layout) ZipDrop() string {
	return filepath.Join(l.root, "zips")
}

// ReportDir is where the run report (markdown + HTML) is written.
func (l *Layout) ReportDir() string {
	return filepath.Join(l.ChannelDrop(), "report")
}

// Ensure creates the root directory tree shared by every unit.
func (l *Layout) Ensure() error {
	for _, dir := range []string{l.root, filepath.Join(l.root, "units"), filepath.Join(l.root, "drops")} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create artifact directory %s: %w", dir, err)
		}
	}
	slog.Info("Artifact tree ready", logfields.Path(l.root),
		logfields.Channel(string(l.deployment.Channel)), logfields.Version(l.version))
	return nil
}

// EnsureUnit creates a unit's output directories before its stages run.
func (l *Layout) EnsureUnit(solutionPath, projectPath string) error {
	for _, dir := range []string{
		l.UnitDir(solutionPath, projectPath),
		l.PackageDir(solutionPath, projectPath),
	} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create unit directory %s: %w", dir, err)
		}
	}
	return nil
}

// CollectPackages returns every package artifact (*.nupkg) under the units
// tree, in lexical order. Called once after all units are terminal, before
// fan-out.
func (l *Layout) CollectPackages() ([]string, error) {
	var packages []string
	unitsRoot := filepath.Join(l.root, "units")
	err := filepath.Walk(unitsRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == unitsRoot {
				return nil
			}
			return err
		}
		if !info.IsDir() && strings.EqualFold(filepath.Ext(path), ".nupkg") {
			packages = append(packages, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect packages: %w", err)
	}
	return packages, nil
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
