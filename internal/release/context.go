// Package release defines the immutable per-run identity. A RunContext is
// constructed exactly once, before any unit runs, and passed by value into
// every component; there is no process-wide mutable run state.
package release

import (
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/releasekit/internal/buildver"
	"git.home.luguber.info/inful/releasekit/internal/channel"
)

// RunContext is the identity of one pipeline run.
type RunContext struct {
	RunID      string
	StartedAt  time.Time
	Deployment channel.DeploymentInfo
	Version    buildver.Version

	RepoRoot   string
	SourceRoot string
	CommitSHA  string

	Configuration string // build configuration (Release/Debug)
}

// Params carries the inputs for building a RunContext.
type Params struct {
	BranchName    string
	RepoRoot      string
	SourceRoot    string
	CommitSHA     string
	Configuration string
	Build, Major  uint16
	Now           time.Time // zero means time.Now
}

// NewRunContext classifies the branch, encodes the version from the run's
// start instant, and stamps a fresh run ID. The returned context is complete
// and never mutated.
func NewRunContext(p Params) (RunContext, error) {
	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}

	version, err := buildver.Encode(now, p.Build, p.Major)
	if err != nil {
		return RunContext{}, err
	}

	return RunContext{
		RunID:         uuid.NewString(),
		StartedAt:     now,
		Deployment:    channel.Classify(p.BranchName),
		Version:       version,
		RepoRoot:      p.RepoRoot,
		SourceRoot:    p.SourceRoot,
		CommitSHA:     p.CommitSHA,
		Configuration: p.Configuration,
	}, nil
}

// PackageVersion is the package version string for this run: the full numeric
// version plus the channel's pre-release suffix (empty on production).
func (rc RunContext) PackageVersion() string {
	return rc.Version.PackageVersion(rc.Deployment.Affix.Suffix)
}
