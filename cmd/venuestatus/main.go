package main

import (
	"os"

	"github.com/alecthomas/kong"

	_ "time/tzdata"

	"git.home.luguber.info/inful/venuestatus/cmd/venuestatus/commands"
	"git.home.luguber.info/inful/venuestatus/internal/version"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{}
	ctx := kong.Parse(&cli,
		kong.Name("venuestatus"),
		kong.Description("Venue status lifecycle and transition scheduling service"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	if err := ctx.Run(global, &cli); err != nil {
		global.Logger.Error("Command failed", "command", ctx.Command(), "error", err)
		os.Exit(1)
	}
}
