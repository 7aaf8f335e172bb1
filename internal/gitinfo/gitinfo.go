// Package gitinfo resolves the checkout's branch name and commit for the run
// identity. Resolution goes through go-git; a detached HEAD (the normal state
// on CI runners that check out a commit) falls back to reading .git/HEAD and
// the common CI environment variables before giving up.
package gitinfo

import (
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"

	pipeerr "git.home.luguber.info/inful/releasekit/internal/errors"
)

// Checkout describes the state of a repository working copy.
type Checkout struct {
	Branch    string
	CommitSHA string
	Detached  bool
}

// Describe resolves branch and commit for the repository at repoRoot.
func Describe(repoRoot string) (Checkout, error) {
	repo, err := git.PlainOpen(repoRoot)
	if err != nil {
		return Checkout{}, pipeerr.GitHeadError(repoRoot, err)
	}

	head, err := repo.Head()
	if err != nil {
		return Checkout{}, pipeerr.GitHeadError(repoRoot, err)
	}

	co := Checkout{CommitSHA: head.Hash().String()}
	if head.Name().IsBranch() {
		co.Branch = head.Name().Short()
		return co, nil
	}

	co.Detached = true
	if branch := branchFromEnv(); branch != "" {
		co.Branch = branch
		return co, nil
	}
	if branch := branchFromHeadFile(repoRoot); branch != "" {
		co.Branch = branch
		return co, nil
	}
	return co, nil
}

// branchFromEnv consults the branch variables common CI systems export.
func branchFromEnv() string {
	for _, key := range []string{"RELEASEKIT_BRANCH", "CI_COMMIT_BRANCH", "GITHUB_REF_NAME", "BRANCH_NAME"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// branchFromHeadFile reads .git/HEAD directly; on a symbolic ref it returns
// the short branch name.
func branchFromHeadFile(repoRoot string) string {
	data, err := os.ReadFile(filepath.Join(repoRoot, ".git", "HEAD"))
	if err != nil {
		return ""
	}
	line := strings.TrimSpace(string(data))
	if ref, ok := strings.CutPrefix(line, "ref:"); ok {
		return strings.TrimPrefix(strings.TrimSpace(ref), "refs/heads/")
	}
	return ""
}
