package gitinfo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) (string, *git.Repository, plumbing.Hash) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello"), 0o600))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir, repo, hash
}

func TestDescribeOnBranch(t *testing.T) {
	dir, _, hash := initRepo(t)

	co, err := Describe(dir)
	require.NoError(t, err)
	assert.False(t, co.Detached)
	assert.Equal(t, "master", co.Branch)
	assert.Equal(t, hash.String(), co.CommitSHA)
}

func TestDescribeDetachedHeadFallsBackToEnv(t *testing.T) {
	dir, repo, hash := initRepo(t)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.Checkout(&git.CheckoutOptions{Hash: hash}))

	t.Setenv("RELEASEKIT_BRANCH", "feature/from-ci")
	co, err := Describe(dir)
	require.NoError(t, err)
	assert.True(t, co.Detached)
	assert.Equal(t, "feature/from-ci", co.Branch)
	assert.Equal(t, hash.String(), co.CommitSHA)
}

func TestDescribeNotARepository(t *testing.T) {
	_, err := Describe(t.TempDir())
	require.Error(t, err)
}

func TestBranchFromHeadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "HEAD"),
		[]byte("ref: refs/heads/feature/x\n"), 0o600))
	assert.Equal(t, "feature/x", branchFromHeadFile(dir))
}
