package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/releasekit/internal/discovery"
	"git.home.luguber.info/inful/releasekit/internal/msbuild"
	"git.home.luguber.info/inful/releasekit/internal/toolrunner"
)

// DiscoverCmd lists the build units in pipeline order without building.
type DiscoverCmd struct {
	Source string `short:"s" help:"Source root override"`
}

func (d *DiscoverCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, true)
	if err != nil {
		return err
	}
	source := cfg.SourceRoot
	if d.Source != "" {
		source = d.Source
	}

	runner := toolrunner.NewExecRunner()
	reader := msbuild.NewToolReader(cfg.Tools.PropsReader, runner)

	units, err := discovery.New(reader).Discover(context.Background(), source)
	if err != nil {
		return err
	}

	for i, unit := range units {
		kind := "library"
		if unit.IsTestProject {
			kind = "test"
		}
		fmt.Printf("%3d  %-8s %s  (%s)\n", i+1, kind, unit.ProjectPath, unit.SolutionPath)
	}
	fmt.Printf("%d build units\n", len(units))
	return nil
}
