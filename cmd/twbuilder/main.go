package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/twbuilder/cmd/twbuilder/commands"
	foundationerrors "git.home.luguber.info/inful/twbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/twbuilder/internal/version"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{}
	ctx := kong.Parse(&cli,
		kong.Name("twbuilder"),
		kong.Description("Build, serve and watch TiddlyWiki plugins."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	if err := ctx.Run(global, &cli); err != nil {
		foundationerrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
