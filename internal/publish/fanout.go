package publish

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/releasekit/internal/channel"
	pipeerr "git.home.luguber.info/inful/releasekit/internal/errors"
	"git.home.luguber.info/inful/releasekit/internal/logfields"
	"git.home.luguber.info/inful/releasekit/internal/retry"
	"git.home.luguber.info/inful/releasekit/internal/toolrunner"
	"git.home.luguber.info/inful/releasekit/internal/workspace"
)

// FanOut distributes a run's packages after all units are terminal.
// Destinations are attempted independently: one rejection never prevents the
// remaining destinations from being attempted.
type FanOut struct {
	runner  toolrunner.Runner
	dotnet  string
	retry   retry.Policy
	channel channel.Channel
}

// NewFanOut builds the executor for one run.
func NewFanOut(runner toolrunner.Runner, dotnetTool string, policy retry.Policy, ch channel.Channel) *FanOut {
	return &FanOut{runner: runner, dotnet: dotnetTool, retry: policy, channel: ch}
}

// Preflight verifies every credential the policy's targets need is
// resolvable. Called before any unit runs so that a missing secret aborts the
// run up front as a config error instead of surfacing after an hour of builds.
func (f *FanOut) Preflight(pol Policy) error {
	for _, t := range pol.Targets {
		if t.CredentialRef == "" {
			continue
		}
		if os.Getenv(t.CredentialRef) == "" {
			return pipeerr.CredentialMissing(t.Name, t.CredentialRef)
		}
	}
	return nil
}

// Run pushes packages to every target and performs the drop copies, in table
// order. All failures are collected and returned together; the slice is empty
// on full success.
func (f *FanOut) Run(ctx context.Context, pol Policy, packages []string, layout *workspace.Layout) []error {
	var failures []error

	for _, target := range pol.Targets {
		if err := f.pushTarget(ctx, target, packages); err != nil {
			failures = append(failures, err)
		}
	}

	copies := []struct {
		enabled bool
		name    string
		run     func() error
	}{
		{pol.CopyToChannelDrop, "channel-drop", func() error { return copyPackages(packages, layout.ChannelDrop()) }},
		{pol.CopyToLatestDrop, "latest-drop", func() error { return replaceDir(packages, layout.LatestDrop()) }},
		{pol.CopyToDistributionDrop, "distribution-drop", func() error { return copyPackages(packages, layout.DistributionDrop()) }},
		{pol.CopyToZipDrop, "zip-drop", func() error { return zipDrop(layout.ChannelDrop(), layout.ZipDrop()) }},
	}
	for _, c := range copies {
		if !c.enabled {
			continue
		}
		if err := c.run(); err != nil {
			failures = append(failures, pipeerr.CopyFailed(c.name, err))
		}
	}

	return failures
}

// pushTarget delivers every package to one target, honoring the independent
// production guard and the retry policy for remote pushes.
func (f *FanOut) pushTarget(ctx context.Context, target Target, packages []string) error {
	if target.ProductionOnly && f.channel != channel.Production {
		// Second guard behind the table: never reachable off production even
		// if a table row is misconfigured.
		return pipeerr.PushRejected(target.Name,
			fmt.Errorf("target is production-only but run channel is %s", f.channel))
	}
	if len(packages) == 0 {
		slog.Info("No packages to publish", logfields.Target(target.Name))
		return nil
	}

	switch target.Kind {
	case LocalFeed:
		if err := copyPackages(packages, target.Destination); err != nil {
			return pipeerr.CopyFailed(target.Name, err)
		}
	case RemoteFeed:
		for _, pkg := range packages {
			if err := f.pushRemote(ctx, target, pkg); err != nil {
				return err
			}
		}
	case FilesystemDrop:
		if err := copyPackages(packages, target.Destination); err != nil {
			return pipeerr.CopyFailed(target.Name, err)
		}
	}

	slog.Info("Published packages", logfields.Target(target.Name), logfields.Count(len(packages)))
	return nil
}

func (f *FanOut) pushRemote(ctx context.Context, target Target, pkg string) error {
	args := []string{"nuget", "push", pkg, "--source", target.Destination, "--skip-duplicate"}
	if target.CredentialRef != "" {
		args = append(args, "--api-key", os.Getenv(target.CredentialRef))
	}

	var lastErr error
	for attempt := 0; attempt <= f.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := f.retry.Delay(attempt)
			slog.Warn("Retrying package push", logfields.Target(target.Name), logfields.Path(pkg),
				slog.Int("attempt", attempt), slog.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return pipeerr.PushRejected(target.Name, ctx.Err())
			case <-time.After(delay):
			}
		}
		res, err := f.runner.Run(ctx, toolrunner.Invocation{Tool: f.dotnet, Args: args})
		if err == nil {
			return nil
		}
		lastErr = fmt.Errorf("%w: %s", err, res.CombinedOutput())
		if ctx.Err() != nil {
			break
		}
	}
	return pipeerr.PushRejected(target.Name, lastErr)
}

// copyPackages copies each package file into dir, creating it as needed.
func copyPackages(packages []string, dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	for _, pkg := range packages {
		if err := copyFile(pkg, filepath.Join(dir, filepath.Base(pkg))); err != nil {
			return err
		}
	}
	return nil
}

// replaceDir clears dir and fills it with the packages; the latest drop always
// reflects exactly the most recent run.
func replaceDir(packages []string, dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return copyPackages(packages, dir)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// zipDrop archives srcDir into <zipRoot>/<basename of srcDir>.zip.
func zipDrop(srcDir, zipRoot string) error {
	if err := os.MkdirAll(zipRoot, 0o750); err != nil {
		return err
	}
	zipPath := filepath.Join(zipRoot, filepath.Base(srcDir)+".zip")
	out, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	zw := zip.NewWriter(out)
	err = filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = in.Close() }()
		_, err = io.Copy(w, in)
		return err
	})
	if err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}
