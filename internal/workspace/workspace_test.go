package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/releasekit/internal/channel"
)

func featureLayout(root string) *Layout {
	return NewLayout(root, channel.Classify("feature/my-thing"), "1.0.361.42")
}

func TestUnitDirPartitioning(t *testing.T) {
	l := featureLayout("/art")
	dir := l.UnitDir("/repo/src/App.sln", "/repo/src/Core/Core.csproj")
	assert.Equal(t, filepath.Join("/art", "units", "App", "Core", "feature", "my-thing", "1.0.361.42"), dir)
}

// Two different branches and two different versions must never share a unit
// output directory.
func TestUnitDirDisjointAcrossRuns(t *testing.T) {
	a := NewLayout("/art", channel.Classify("feature/x"), "1.0.361.42")
	b := NewLayout("/art", channel.Classify("feature/y"), "1.0.361.42")
	c := NewLayout("/art", channel.Classify("feature/x"), "1.0.361.43")

	dirA := a.UnitDir("S.sln", "P.csproj")
	assert.NotEqual(t, dirA, b.UnitDir("S.sln", "P.csproj"))
	assert.NotEqual(t, dirA, c.UnitDir("S.sln", "P.csproj"))
}

func TestDropPaths(t *testing.T) {
	l := NewLayout("/art", channel.Classify("production"), "1.0.361.42")
	assert.Equal(t, filepath.Join("/art", "drops", "production", "production", "1.0.361.42"), l.ChannelDrop())
	assert.Equal(t, filepath.Join("/art", "drops", "production", "latest"), l.LatestDrop())
	assert.Equal(t, filepath.Join("/art", "dist", "1.0.361.42"), l.DistributionDrop())
	assert.Equal(t, filepath.Join("/art", "zips"), l.ZipDrop())
}

func TestEnsureCreatesTree(t *testing.T) {
	root := filepath.Join(t.TempDir(), "artifacts")
	l := featureLayout(root)
	require.NoError(t, l.Ensure())

	for _, dir := range []string{root, filepath.Join(root, "units"), filepath.Join(root, "drops")} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestEnsureUnitAndCollectPackages(t *testing.T) {
	root := filepath.Join(t.TempDir(), "artifacts")
	l := featureLayout(root)
	require.NoError(t, l.Ensure())
	require.NoError(t, l.EnsureUnit("App.sln", "Core.csproj"))

	pkg := filepath.Join(l.PackageDir("App.sln", "Core.csproj"), "Core.1.0.361.42-feature-my-thing.nupkg")
	require.NoError(t, os.WriteFile(pkg, []byte("pkg"), 0o600))
	// Non-package files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(l.UnitDir("App.sln", "Core.csproj"), "build.log"), []byte("log"), 0o600))

	packages, err := l.CollectPackages()
	require.NoError(t, err)
	assert.Equal(t, []string{pkg}, packages)
}

func TestCollectPackagesEmptyTree(t *testing.T) {
	l := featureLayout(filepath.Join(t.TempDir(), "never-created"))
	packages, err := l.CollectPackages()
	require.NoError(t, err)
	assert.Empty(t, packages)
}
