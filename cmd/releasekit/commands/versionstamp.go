package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"git.home.luguber.info/inful/releasekit/internal/buildver"
	"git.home.luguber.info/inful/releasekit/internal/channel"
)

// VersionStampCmd prints the computed version identity so external CI steps
// can stamp artifacts without running the pipeline.
type VersionStampCmd struct {
	Branch string `short:"b" help:"Branch name override (defaults to the checkout's HEAD)"`
	At     string `help:"Encode for this RFC3339 instant instead of now"`
	Format string `short:"f" default:"env" enum:"env,json,text" help:"Output format (env, json or text)"`
}

func (v *VersionStampCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, true)
	if err != nil {
		return err
	}
	branch, _, err := resolveBranch(v.Branch)
	if err != nil {
		return err
	}

	at := time.Now()
	if v.At != "" {
		at, err = time.Parse(time.RFC3339, v.At)
		if err != nil {
			return fmt.Errorf("invalid --at instant: %w", err)
		}
	}

	version, err := buildver.Encode(at, cfg.Version.Build, cfg.Version.Major)
	if err != nil {
		return err
	}
	info := channel.Classify(branch)

	switch v.Format {
	case "json":
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"version":         version,
			"package_version": version.PackageVersion(info.Affix.Suffix),
			"channel":         info.Channel,
			"suffix":          info.Affix.Suffix,
			"branch":          info.Branch.RawName,
		})
	case "text":
		fmt.Printf("Version:         %s\n", version.Full)
		fmt.Printf("Package version: %s\n", version.PackageVersion(info.Affix.Suffix))
		fmt.Printf("Channel:         %s\n", info.Channel)
		return nil
	default: // env: eval-able assignments for shell CI steps
		fmt.Printf("RELEASEKIT_VERSION=%s\n", version.Full)
		fmt.Printf("RELEASEKIT_PACKAGE_VERSION=%s\n", version.PackageVersion(info.Affix.Suffix))
		fmt.Printf("RELEASEKIT_CHANNEL=%s\n", info.Channel)
		fmt.Printf("RELEASEKIT_VERSION_BUILD=%d\n", version.Build)
		fmt.Printf("RELEASEKIT_VERSION_MAJOR=%d\n", version.Major)
		fmt.Printf("RELEASEKIT_VERSION_MINOR=%d\n", version.Minor)
		fmt.Printf("RELEASEKIT_VERSION_REVISION=%d\n", version.Revision)
		return nil
	}
}
