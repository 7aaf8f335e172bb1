package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/releasekit/cmd/releasekit/commands"
	"git.home.luguber.info/inful/releasekit/internal/version"
)

func main() {
	cli := commands.CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("releasekit"),
		kong.Description("Build and release pipeline for .NET repositories"),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	err := ctx.Run(&commands.Global{})
	ctx.FatalIfErrorf(err)
}
