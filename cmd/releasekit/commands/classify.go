package commands

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/releasekit/internal/channel"
	"git.home.luguber.info/inful/releasekit/internal/publish"
)

// ClassifyCmd shows the deployment classification and publish targets for a
// branch name.
type ClassifyCmd struct {
	Branch string `arg:"" optional:"" help:"Branch name to classify (defaults to the checkout's HEAD)"`
}

func (c *ClassifyCmd) Run(_ *Global, root *CLI) error {
	branch, _, err := resolveBranch(c.Branch)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root.Config, true)
	if err != nil {
		return err
	}

	info := channel.Classify(branch)
	fmt.Printf("Branch:   %s\n", info.Branch.RawName)
	fmt.Printf("Channel:  %s (%s)\n", info.Channel, info.Affix.Label)
	fmt.Printf("Suffix:   %s\n", suffixOrRelease(info))
	fmt.Printf("Identity: %s\n", strings.Join(info.Branch.Segments, "/"))

	policy := publish.TargetsFor(info.Channel, publish.NewCatalog(cfg.Feeds))
	names := make([]string, 0, len(policy.Targets))
	for _, t := range policy.Targets {
		names = append(names, t.Name)
	}
	fmt.Printf("Targets:  %s\n", strings.Join(names, ", "))
	return nil
}

func suffixOrRelease(info channel.DeploymentInfo) string {
	if !info.IsPreRelease() {
		return "(none, release)"
	}
	return info.Affix.Suffix
}
